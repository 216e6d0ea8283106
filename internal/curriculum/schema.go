package curriculum

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const tierSchemaJSON = `{
  "type": "object",
  "required": ["id", "topics"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "label": {"type": "string"},
    "rank": {"type": "integer"},
    "topics": {"type": "array", "items": {"$ref": "#/definitions/topic"}}
  },
  "definitions": {
    "items": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "topic": {
      "type": "object",
      "required": ["title"],
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "items": {"$ref": "#/definitions/items"},
        "exclude": {"$ref": "#/definitions/items"},
        "sub_topics": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "items": {"$ref": "#/definitions/items"}
            }
          }
        }
      }
    }
  }
}`

var tierSchema = gojsonschema.NewStringLoader(tierSchemaJSON)

// ValidateDocument checks a decoded YAML tier document against the tier
// schema and returns every violation in one error.
func ValidateDocument(doc any) error {
	result, err := gojsonschema.Validate(tierSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating tier document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid tier document: %s", strings.Join(msgs, "; "))
}
