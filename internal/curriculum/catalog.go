// Package curriculum holds the read-only exercise catalog: tiers, topics,
// sub-topics and their items.
package curriculum

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// ErrUnknownTier is returned when a tier key matches no loaded tier.
var ErrUnknownTier = errors.New("unknown tier")

// Store is the read-only view of the catalog that the engines depend on.
// Unknown keys yield empty results.
type Store interface {
	ListTiers() []Tier
	ListTopics(tierID string) []Topic
	ListSubTopics(tierID, topic string) []SubTopic
	// ListItems returns the topic's direct items when subTopic is empty,
	// otherwise the items of the named sub-topic.
	ListItems(tierID, topic, subTopic string) []Item
}

// Catalog is an in-memory Store. It is immutable once built.
type Catalog struct {
	tiers []Tier
	byID  map[string]int
	mu    sync.RWMutex
}

// NewCatalog builds a catalog from already-parsed tiers, ordered by rank.
func NewCatalog(tiers ...Tier) *Catalog {
	c := &Catalog{byID: make(map[string]int)}
	c.tiers = append(c.tiers, tiers...)
	sort.SliceStable(c.tiers, func(i, j int) bool {
		return c.tiers[i].Rank < c.tiers[j].Rank
	})
	for i, t := range c.tiers {
		c.byID[strings.ToLower(t.ID)] = i
	}
	return c
}

// ListTiers returns all tiers ordered by rank.
func (c *Catalog) ListTiers() []Tier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Tier(nil), c.tiers...)
}

// Tier looks a tier up by ID (case-insensitive) or by label.
func (c *Catalog) Tier(key string) (Tier, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tier(key)
}

func (c *Catalog) tier(key string) (Tier, bool) {
	if i, ok := c.byID[strings.ToLower(strings.TrimSpace(key))]; ok {
		return c.tiers[i], true
	}
	for _, t := range c.tiers {
		if t.Label != "" && textnorm.Equal(t.Label, key) {
			return t, true
		}
	}
	return Tier{}, false
}

// ListTopics returns the tier's topics in catalog order.
func (c *Catalog) ListTopics(tierID string) []Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tier(tierID)
	if !ok {
		return nil
	}
	return append([]Topic(nil), t.Topics...)
}

// Topic finds a topic whose title normalizes equal to title.
func (c *Catalog) Topic(tierID, title string) (Topic, bool) {
	return FindTopic(c, tierID, title)
}

// ListSubTopics returns the named topic's sub-topics.
func (c *Catalog) ListSubTopics(tierID, topic string) []SubTopic {
	t, ok := FindTopic(c, tierID, topic)
	if !ok {
		return nil
	}
	return append([]SubTopic(nil), t.SubTopics...)
}

// ListItems returns direct items, or a sub-topic's items when subTopic is set.
func (c *Catalog) ListItems(tierID, topic, subTopic string) []Item {
	t, ok := FindTopic(c, tierID, topic)
	if !ok {
		return nil
	}
	if strings.TrimSpace(subTopic) == "" {
		return append([]Item(nil), t.Items...)
	}
	for _, st := range t.SubTopics {
		if textnorm.Equal(st.Name, subTopic) {
			return append([]Item(nil), st.Items...)
		}
	}
	return nil
}

// FindTopic returns the first topic in the tier whose title normalizes equal
// to title.
func FindTopic(s Store, tierID, title string) (Topic, bool) {
	want := textnorm.Normalize(title)
	if want == "" {
		return Topic{}, false
	}
	for _, t := range s.ListTopics(tierID) {
		if textnorm.Normalize(t.Title) == want {
			return t, true
		}
	}
	return Topic{}, false
}

// FindTier looks a tier up by ID (case-insensitive) or by label.
func FindTier(s Store, key string) (Tier, bool) {
	if c, ok := s.(*Catalog); ok {
		return c.Tier(key)
	}
	for _, t := range s.ListTiers() {
		if strings.EqualFold(t.ID, strings.TrimSpace(key)) {
			return t, true
		}
	}
	for _, t := range s.ListTiers() {
		if t.Label != "" && textnorm.Equal(t.Label, key) {
			return t, true
		}
	}
	return Tier{}, false
}
