package subject

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSubject is returned when a subject ID is not registered.
var ErrUnknownSubject = errors.New("unknown subject")

const subjectsSchemaJSON = `{
  "type": "object",
  "required": ["subjects"],
  "properties": {
    "subjects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "topics"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "category": {"type": "string"},
          "sub_topic_hint": {"type": "string"},
          "tag": {"type": "string", "pattern": "^[a-z][a-z0-9_-]*(:[a-z0-9_-]+)*$"},
          "topics": {
            "type": "object",
            "additionalProperties": {"type": "array", "items": {"type": "string"}}
          },
          "include_any": {"$ref": "#/definitions/keywords"},
          "require_all": {"$ref": "#/definitions/keywords"},
          "exclude_any": {"$ref": "#/definitions/keywords"},
          "picks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "include_any": {"$ref": "#/definitions/keywords"},
                "require_all": {"$ref": "#/definitions/keywords"},
                "exclude_any": {"$ref": "#/definitions/keywords"}
              }
            }
          }
        }
      }
    }
  },
  "definitions": {
    "keywords": {"type": "array", "items": {"type": "string"}}
  }
}`

var subjectsSchema = gojsonschema.NewStringLoader(subjectsSchemaJSON)

// Registry holds the subjects loaded at startup, keyed by ID.
type Registry struct {
	subjects map[string]Subject
	order    []string
	mu       sync.RWMutex
}

// NewRegistry registers subjects in the given order. A repeated ID
// replaces the earlier definition.
func NewRegistry(subjects ...Subject) *Registry {
	r := &Registry{subjects: make(map[string]Subject)}
	for _, s := range subjects {
		if _, dup := r.subjects[s.ID]; !dup {
			r.order = append(r.order, s.ID)
		}
		r.subjects[s.ID] = s
	}
	return r
}

// LoadFile reads and validates a subjects YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("subjects file not found, no subjects defined", "path", path)
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("reading subjects: %w", err)
	}

	subjects, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	slog.Info("subjects loaded", "subjects", len(subjects))
	return NewRegistry(subjects...), nil
}

// Parse decodes a subjects YAML document after checking it against the
// subjects schema.
func Parse(data []byte) ([]Subject, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing subjects YAML: %w", err)
	}

	result, err := gojsonschema.Validate(subjectsSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validating subjects: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid subjects document: %s", strings.Join(msgs, "; "))
	}

	var file struct {
		Subjects []Subject `yaml:"subjects"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding subjects: %w", err)
	}
	return file.Subjects, nil
}

// Get returns the subject with the given ID.
func (r *Registry) Get(id string) (Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[id]
	if !ok {
		return Subject{}, fmt.Errorf("%w: %q", ErrUnknownSubject, id)
	}
	return s, nil
}

// All returns the subjects in load order.
func (r *Registry) All() []Subject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subject, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.subjects[id])
	}
	return out
}
