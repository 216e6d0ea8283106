// Package canon maps raw or display exercise strings to a stable
// identifier within a (tier, topic) scope.
package canon

import (
	"strings"
	"sync"

	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// Entry is one catalog item together with its canonical ID.
type Entry struct {
	ID       string          `json:"id"`
	SubTopic string          `json:"sub_topic,omitempty"`
	Item     curriculum.Item `json:"item"`
}

// Resolver resolves canonical item IDs against a catalog. Lookups are
// memoized per (tier, topic) since the catalog does not change while the
// process runs.
type Resolver struct {
	store   curriculum.Store
	indexes map[scopeKey]*topicIndex
	mu      sync.Mutex
}

type scopeKey struct {
	tier  string
	topic string
}

// topicIndex holds a topic's entries and the match tables of its two
// scopes, keyed by the normalized, prefix-stripped form.
type topicIndex struct {
	entries []Entry
	direct  scope
	nested  scope
}

// scope maps match keys to entry positions. Raw forms are consulted before
// display forms so that a canonical ID always resolves back to itself.
type scope struct {
	byRaw     map[string]int
	byDisplay map[string]int
}

func newScope() scope {
	return scope{byRaw: make(map[string]int), byDisplay: make(map[string]int)}
}

// lookup searches direct items before sub-topic items, raw before display
// within each.
func (idx *topicIndex) lookup(key string) (int, bool) {
	for _, s := range []*scope{&idx.direct, &idx.nested} {
		if i, ok := s.byRaw[key]; ok {
			return i, true
		}
		if i, ok := s.byDisplay[key]; ok {
			return i, true
		}
	}
	return 0, false
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(store curriculum.Store) *Resolver {
	return &Resolver{
		store:   store,
		indexes: make(map[scopeKey]*topicIndex),
	}
}

// Resolve returns the canonical ID for raw under (tier, topicTitle). It
// never fails: strings that match no catalog entry resolve to their
// cleaned form. Resolve(Resolve(x)) == Resolve(x).
func (r *Resolver) Resolve(tierID, topicTitle, raw string) string {
	cleaned := Clean(topicTitle, raw)
	if cleaned == "" {
		return ""
	}

	idx := r.index(tierID, topicTitle)
	if idx == nil {
		return cleaned
	}

	if i, ok := idx.lookup(textnorm.Normalize(cleaned)); ok {
		return idx.entries[i].ID
	}
	return cleaned
}

// Entries returns every item of the topic (direct items first, then each
// sub-topic in order) with its canonical ID. Duplicates are kept.
func (r *Resolver) Entries(tierID, topicTitle string) []Entry {
	idx := r.index(tierID, topicTitle)
	if idx == nil {
		return nil
	}
	return append([]Entry(nil), idx.entries...)
}

// Clean strips every leading "topicTitle::" prefix from raw and collapses
// whitespace. Only the exact topic prefix is removed; any other "::" is
// part of the item's identity.
func Clean(topicTitle, raw string) string {
	s := textnorm.CollapseSpace(raw)
	for {
		stripped, ok := StripTopicPrefix(topicTitle, s)
		if !ok {
			return s
		}
		s = stripped
	}
}

// StripTopicPrefix removes one "topicTitle::" prefix from s. The prefix is
// compared on normalized text so spacing and dash variants still match.
func StripTopicPrefix(topicTitle, s string) (string, bool) {
	title := textnorm.CollapseSpace(topicTitle)
	if title == "" {
		return s, false
	}
	head, tail, found := strings.Cut(s, curriculum.TagSeparator)
	if !found || !textnorm.Equal(head, title) {
		return s, false
	}
	return textnorm.CollapseSpace(tail), true
}

// WithTopicPrefix returns s prefixed with "topicTitle::".
func WithTopicPrefix(topicTitle, s string) string {
	return textnorm.CollapseSpace(topicTitle) + curriculum.TagSeparator + s
}

func (r *Resolver) index(tierID, topicTitle string) *topicIndex {
	key := scopeKey{tier: strings.ToLower(strings.TrimSpace(tierID)), topic: textnorm.Normalize(topicTitle)}
	if key.topic == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.indexes[key]; ok {
		return idx
	}

	topic, ok := curriculum.FindTopic(r.store, tierID, topicTitle)
	if !ok {
		// Not cached: a missing topic is cheap to look up again.
		return nil
	}
	idx := buildIndex(topic)
	r.indexes[key] = idx
	return idx
}

func buildIndex(topic curriculum.Topic) *topicIndex {
	idx := &topicIndex{direct: newScope(), nested: newScope()}
	var rawKeys []string

	add := func(sc *scope, subTopic string, it curriculum.Item) {
		i := len(idx.entries)
		idx.entries = append(idx.entries, Entry{SubTopic: subTopic, Item: it})

		rawKey := matchKey(topic.Title, it.Raw)
		rawKeys = append(rawKeys, rawKey)
		putFirst(sc.byRaw, rawKey, i)
		putFirst(sc.byDisplay, matchKey(topic.Title, it.Display()), i)
	}

	for _, it := range topic.Items {
		add(&idx.direct, "", it)
	}
	for _, st := range topic.SubTopics {
		for _, it := range st.Items {
			add(&idx.nested, st.Name, it)
		}
	}

	// An entry takes the ID of the entry its raw form resolves to. Two hops
	// always reach an entry that resolves to itself: the first hop can only
	// land on a display match of a direct item, whose own raw form then hits
	// the direct raw table.
	for i := range idx.entries {
		j := i
		for hop := 0; hop < 2; hop++ {
			if k, ok := idx.lookup(rawKeys[j]); ok {
				j = k
			}
		}
		idx.entries[i].ID = textnorm.CollapseSpace(idx.entries[j].Item.Raw)
	}
	return idx
}

func matchKey(topicTitle, s string) string {
	return textnorm.Normalize(Clean(topicTitle, s))
}

func putFirst(m map[string]int, key string, i int) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = i
	}
}
