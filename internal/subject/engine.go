package subject

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// DefaultDefenseRoot is the topic that holds defense content regardless of
// the subject it is shown under.
const DefaultDefenseRoot = "הגנות"

// ErrUnknownPick is returned when a pick ID is not defined on the subject.
var ErrUnknownPick = errors.New("unknown pick")

var defaultDefenseMarkers = []string{"הגנ", "defense", "defence"}

// EngineConfig tunes defense classification.
type EngineConfig struct {
	// DefenseRoot is added to the scanned topics of defense subjects.
	DefenseRoot string
	// DefenseMarkers are title substrings that mark a subject as defense.
	DefenseMarkers []string
}

// TopicItems is the resolved content of one topic under a subject.
type TopicItems struct {
	Topic string        `json:"topic"`
	Items []canon.Entry `json:"items"`
}

// Engine resolves subjects against the catalog.
type Engine struct {
	catalog     curriculum.Store
	resolver    *canon.Resolver
	defenseRoot string
	markers     []string
}

// NewEngine creates a subject engine.
func NewEngine(catalog curriculum.Store, resolver *canon.Resolver, cfg EngineConfig) *Engine {
	root := cfg.DefenseRoot
	if strings.TrimSpace(root) == "" {
		root = DefaultDefenseRoot
	}
	markers := cfg.DefenseMarkers
	if len(markers) == 0 {
		markers = defaultDefenseMarkers
	}
	return &Engine{
		catalog:     catalog,
		resolver:    resolver,
		defenseRoot: root,
		markers:     markers,
	}
}

// IsDefense reports whether the subject is defense related, by category,
// tag or title.
func (e *Engine) IsDefense(s Subject) bool {
	switch strings.ToLower(strings.TrimSpace(s.Category)) {
	case "defense", "defence", "def":
		return true
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.Tag))+":", "def:") {
		return true
	}
	for _, m := range e.markers {
		if textnorm.Contains(s.Title, m) {
			return true
		}
	}
	return false
}

// Topics returns the topic names scanned for tierID, with the defense root
// appended for defense subjects.
func (e *Engine) Topics(tierID string, s Subject) []string {
	topics := s.TopicsFor(tierID)
	if !e.IsDefense(s) {
		return topics
	}
	for _, t := range topics {
		if textnorm.Equal(t, e.defenseRoot) {
			return topics
		}
	}
	return append(topics, e.defenseRoot)
}

// ResolveItems returns the subject's items for one tier, grouped by topic
// in mapping order. Topics missing from the catalog or left empty by the
// filters are omitted; no match at all is a valid empty result.
func (e *Engine) ResolveItems(tierID string, s Subject) []TopicItems {
	return e.resolve(tierID, s, nil)
}

// ResolvePick narrows ResolveItems to one of the subject's picks.
func (e *Engine) ResolvePick(tierID string, s Subject, pickID string) ([]TopicItems, error) {
	p, ok := s.Pick(pickID)
	if !ok {
		return nil, fmt.Errorf("%w: %q in subject %q", ErrUnknownPick, pickID, s.ID)
	}
	return e.resolve(tierID, s, &p.Filter), nil
}

// ClassifyPick returns the pick an entry belongs to. When several picks
// match, the last one in declaration order wins.
func (e *Engine) ClassifyPick(s Subject, entry canon.Entry) (Pick, bool) {
	var (
		found Pick
		ok    bool
	)
	for _, p := range s.Picks {
		if p.Filter.Empty() {
			continue
		}
		if p.Match(entry.Item.Raw, entry.Item.Display()) {
			found, ok = p, true
		}
	}
	return found, ok
}

// CountItems counts distinct canonical IDs across every tier and topic the
// subject spans.
func (e *Engine) CountItems(s Subject) int {
	seen := make(map[string]struct{})
	for _, tierID := range e.tiers(s) {
		for _, ti := range e.ResolveItems(tierID, s) {
			for _, it := range ti.Items {
				seen[it.ID] = struct{}{}
			}
		}
	}
	return len(seen)
}

// tiers returns the subject's tier IDs in catalog rank order, then any
// tiers unknown to the catalog sorted by name.
func (e *Engine) tiers(s Subject) []string {
	var out []string
	known := make(map[string]bool)
	for _, t := range e.catalog.ListTiers() {
		if s.HasTier(t.ID) {
			out = append(out, t.ID)
			known[strings.ToLower(t.ID)] = true
		}
	}
	var rest []string
	for k := range s.Topics {
		if !known[strings.ToLower(k)] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (e *Engine) resolve(tierID string, s Subject, pick *Filter) []TopicItems {
	out := []TopicItems{}
	seenTopic := make(map[string]bool)

	for _, name := range e.Topics(tierID, s) {
		topic, ok := curriculum.FindTopic(e.catalog, tierID, name)
		if !ok {
			continue
		}
		key := textnorm.Normalize(topic.Title)
		if seenTopic[key] {
			continue
		}
		seenTopic[key] = true

		var items []canon.Entry
		seenID := make(map[string]bool)
		for _, entry := range e.resolver.Entries(tierID, topic.Title) {
			if seenID[entry.ID] || !e.accept(s, pick, entry) {
				continue
			}
			seenID[entry.ID] = true
			items = append(items, entry)
		}
		if len(items) > 0 {
			out = append(out, TopicItems{Topic: topic.Title, Items: items})
		}
	}
	return out
}

func (e *Engine) accept(s Subject, pick *Filter, entry canon.Entry) bool {
	if hint := strings.TrimSpace(s.SubTopicHint); hint != "" {
		if entry.SubTopic == "" || !textnorm.Contains(entry.SubTopic, hint) {
			return false
		}
	}
	if !entry.Item.HasTagPrefix(s.Tag) {
		return false
	}
	texts := []string{entry.Item.Raw, entry.Item.Display()}
	if !s.Filter.Match(texts...) {
		return false
	}
	return pick == nil || pick.Match(texts...)
}
