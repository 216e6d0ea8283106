package mastery

import (
	"log/slog"

	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// Query identifies one item to resolve. Canonical is required; Raw and
// ActiveTopic widen the set of key shapes that are tried.
type Query struct {
	TierID    string
	Topic     string
	Canonical string
	// Raw is the item string as the caller first saw it.
	Raw string
	// ActiveTopic is the topic the caller is currently showing. Its forms
	// are tried too when it names the same topic as Topic.
	ActiveTopic string
}

// TopicKeys returns the topic key shapes to try, most specific first.
func (q Query) TopicKeys() []string {
	keys := []string{q.Topic, textnorm.CollapseSpace(q.Topic)}
	if q.ActiveTopic != "" && textnorm.Equal(q.ActiveTopic, q.Topic) {
		keys = append(keys, q.ActiveTopic, textnorm.CollapseSpace(q.ActiveTopic))
	}
	return dedupe(keys)
}

// ItemKeys returns the item key shapes to try: the canonical ID, the raw
// string, their cleaned forms, and each with the topic prefix re-added.
func (q Query) ItemKeys() []string {
	cleanedCanonical := canon.Clean(q.Topic, q.Canonical)
	cleanedRaw := canon.Clean(q.Topic, q.Raw)
	keys := []string{
		q.Canonical,
		q.Raw,
		textnorm.CollapseSpace(q.Raw),
		cleanedCanonical,
		cleanedRaw,
	}
	if cleanedCanonical != "" {
		keys = append(keys, canon.WithTopicPrefix(q.Topic, cleanedCanonical))
	}
	if cleanedRaw != "" {
		keys = append(keys, canon.WithTopicPrefix(q.Topic, cleanedRaw))
	}
	return dedupe(keys)
}

// Strategy is one source of mastery answers. Lookup reports false when the
// source has nothing to say about the item.
type Strategy interface {
	Name() string
	Lookup(q Query) (Status, bool)
}

// ExplicitStrategy reads the authoritative tri-state store.
type ExplicitStrategy struct {
	Store StatusStore
}

func (ExplicitStrategy) Name() string { return "explicit" }

func (s ExplicitStrategy) Lookup(q Query) (Status, bool) {
	for _, topicKey := range q.TopicKeys() {
		for _, itemKey := range q.ItemKeys() {
			st, ok, err := s.Store.GetStatus(q.TierID, topicKey, itemKey)
			if err != nil {
				slog.Warn("status lookup failed, treating as absent",
					"tier", q.TierID,
					"topic", topicKey,
					"error", err,
				)
				continue
			}
			if ok {
				return st, true
			}
		}
	}
	return Unknown, false
}

// SetStrategy answers Result for any item found in a legacy set.
type SetStrategy struct {
	Label  string
	Store  SetStore
	Result Status
}

func (s SetStrategy) Name() string { return s.Label }

func (s SetStrategy) Lookup(q Query) (Status, bool) {
	want := make(map[string]struct{})
	for _, k := range q.ItemKeys() {
		want[textnorm.Normalize(k)] = struct{}{}
	}

	for _, topicKey := range q.TopicKeys() {
		members, err := s.Store.Members(SetKey(q.TierID, topicKey))
		if err != nil {
			slog.Warn("set lookup failed, treating as absent",
				"set", s.Label,
				"tier", q.TierID,
				"topic", topicKey,
				"error", err,
			)
			continue
		}
		for _, m := range members {
			if _, ok := want[textnorm.Normalize(m)]; ok {
				return s.Result, true
			}
		}
	}
	return Unknown, false
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
