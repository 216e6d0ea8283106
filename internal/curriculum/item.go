package curriculum

import (
	"regexp"
	"strings"

	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// TagSeparator divides a tag path or topic prefix from the item name.
const TagSeparator = "::"

// tagPattern matches "category:sub[:detail]::Name". Tags are lowercase ASCII
// and need at least two segments, so a "topic::item" prefix never parses
// as a tag.
var tagPattern = regexp.MustCompile(`^([a-z][a-z0-9_-]*(?::[a-z0-9_-]+)+)::(.+)$`)

// ParseItem splits a raw catalog string into its tag path and display name.
// Untagged strings keep their raw text as the name.
func ParseItem(raw string) Item {
	it := Item{Raw: raw, Name: textnorm.CollapseSpace(raw)}

	m := tagPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return it
	}

	segs := strings.Split(m[1], ":")
	it.Category = segs[0]
	it.Subcategory = segs[1]
	if len(segs) > 2 {
		it.Detail = strings.Join(segs[2:], ":")
	}
	it.Name = textnorm.CollapseSpace(m[2])
	return it
}

// Tagged reports whether the raw string carried a tag path.
func (it Item) Tagged() bool {
	return it.Category != ""
}

// Tag returns the colon-joined tag path, or "" for untagged items.
func (it Item) Tag() string {
	if !it.Tagged() {
		return ""
	}
	parts := []string{it.Category, it.Subcategory}
	if it.Detail != "" {
		parts = append(parts, it.Detail)
	}
	return strings.Join(parts, ":")
}

// HasTagPrefix reports whether the item's tag path starts with prefix,
// compared segment by segment ("def:internal" matches
// "def:internal:punch" but not "def:internals").
func (it Item) HasTagPrefix(prefix string) bool {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return true
	}
	tag := it.Tag()
	return tag == prefix || strings.HasPrefix(tag, prefix+":")
}

// Display returns the user-facing name, without tags.
func (it Item) Display() string {
	return it.Name
}
