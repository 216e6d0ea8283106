// Package subject builds rule-defined views ("subjects") over the catalog:
// a subject names topics per tier and narrows their items by sub-topic,
// tag and keyword rules.
package subject

import (
	"strings"

	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// Subject is a declarative view over catalog topics.
type Subject struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	// Category is an explicit classification such as "defense".
	Category string `yaml:"category" json:"category,omitempty"`
	// Topics maps a tier ID to the topic names scanned for that tier.
	Topics map[string][]string `yaml:"topics" json:"topics"`
	// SubTopicHint restricts items to sub-topics whose name contains it.
	SubTopicHint string `yaml:"sub_topic_hint" json:"sub_topic_hint,omitempty"`
	// Tag restricts items to a tag path prefix, e.g. "def:internal".
	Tag    string `yaml:"tag" json:"tag,omitempty"`
	Filter `yaml:",inline"`
	Picks  []Pick `yaml:"picks" json:"picks,omitempty"`
}

// Pick is a named keyword slice of a subject.
type Pick struct {
	ID     string `yaml:"id" json:"id"`
	Title  string `yaml:"title" json:"title"`
	Filter `yaml:",inline"`
}

// Filter holds keyword predicates matched case-insensitively as substrings
// of normalized text. Empty lists do not constrain.
type Filter struct {
	IncludeAny []string `yaml:"include_any" json:"include_any,omitempty"`
	RequireAll []string `yaml:"require_all" json:"require_all,omitempty"`
	ExcludeAny []string `yaml:"exclude_any" json:"exclude_any,omitempty"`
}

// Match reports whether texts (taken together) satisfy the filter: at
// least one IncludeAny keyword, every RequireAll keyword and no ExcludeAny
// keyword appears in some text.
func (f Filter) Match(texts ...string) bool {
	norm := make([]string, 0, len(texts))
	for _, t := range texts {
		if n := textnorm.Normalize(t); n != "" {
			norm = append(norm, n)
		}
	}
	present := func(keyword string) bool {
		k := textnorm.Normalize(keyword)
		if k == "" {
			return false
		}
		for _, t := range norm {
			if strings.Contains(t, k) {
				return true
			}
		}
		return false
	}

	if include := nonBlank(f.IncludeAny); len(include) > 0 {
		found := false
		for _, k := range include {
			if present(k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, k := range nonBlank(f.RequireAll) {
		if !present(k) {
			return false
		}
	}
	for _, k := range nonBlank(f.ExcludeAny) {
		if present(k) {
			return false
		}
	}
	return true
}

// Empty reports whether the filter has no keywords at all.
func (f Filter) Empty() bool {
	return len(nonBlank(f.IncludeAny)) == 0 &&
		len(nonBlank(f.RequireAll)) == 0 &&
		len(nonBlank(f.ExcludeAny)) == 0
}

// TopicsFor returns the topic names listed for tierID (matched
// case-insensitively).
func (s Subject) TopicsFor(tierID string) []string {
	topics, _ := s.lookupTier(tierID)
	return append([]string(nil), topics...)
}

// HasTier reports whether the subject maps tierID, even to no topics.
func (s Subject) HasTier(tierID string) bool {
	_, ok := s.lookupTier(tierID)
	return ok
}

func (s Subject) lookupTier(tierID string) ([]string, bool) {
	if topics, ok := s.Topics[tierID]; ok {
		return topics, true
	}
	for k, topics := range s.Topics {
		if strings.EqualFold(k, tierID) {
			return topics, true
		}
	}
	return nil, false
}

// Pick returns the pick with the given ID.
func (s Subject) Pick(id string) (Pick, bool) {
	for _, p := range s.Picks {
		if p.ID == id {
			return p, true
		}
	}
	return Pick{}, false
}

func nonBlank(keywords []string) []string {
	out := keywords[:0:0]
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	return out
}
