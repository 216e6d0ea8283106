package mastery

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-dojo/internal/activity"
	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// ResolverConfig holds the backing stores. Any store may be nil; its
// strategy is then left out of the chain.
type ResolverConfig struct {
	Explicit StatusStore
	Mastered SetStore
	Unknown  SetStore
	Events   activity.Logger
}

// Resolver answers mastery queries by walking its strategies in priority
// order. Answers are cached per topic until that topic is written.
type Resolver struct {
	strategies []Strategy
	explicit   StatusStore
	mastered   SetStore
	unknown    SetStore
	events     activity.Logger

	cache map[topicScope]map[itemScope]Status
	mu    sync.Mutex
}

type topicScope struct {
	tier  string
	topic string
}

type itemScope struct {
	canonical string
	raw       string
	active    string
}

// NewResolver builds the explicit -> mastered set -> unknown set chain.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{
		explicit: cfg.Explicit,
		mastered: cfg.Mastered,
		unknown:  cfg.Unknown,
		events:   cfg.Events,
		cache:    make(map[topicScope]map[itemScope]Status),
	}
	if r.events == nil {
		r.events = activity.NopLogger{}
	}
	if cfg.Explicit != nil {
		r.strategies = append(r.strategies, ExplicitStrategy{Store: cfg.Explicit})
	}
	if cfg.Mastered != nil {
		r.strategies = append(r.strategies, SetStrategy{Label: "mastered", Store: cfg.Mastered, Result: Yes})
	}
	if cfg.Unknown != nil {
		r.strategies = append(r.strategies, SetStrategy{Label: "unknown", Store: cfg.Unknown, Result: No})
	}
	return r
}

// Strategies returns the chain in the order it is consulted.
func (r *Resolver) Strategies() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// GetStatus resolves the status of a canonical item ID.
func (r *Resolver) GetStatus(tierID, topic, canonicalID string) Status {
	return r.Lookup(Query{TierID: tierID, Topic: topic, Canonical: canonicalID})
}

// Lookup resolves q. The first strategy with an answer wins; when none
// answers the item is Unknown. It never fails.
func (r *Resolver) Lookup(q Query) Status {
	ts := scopeOf(q.TierID, q.Topic)
	is := itemScope{canonical: q.Canonical, raw: q.Raw, active: q.ActiveTopic}

	r.mu.Lock()
	if st, ok := r.cache[ts][is]; ok {
		r.mu.Unlock()
		return st
	}
	r.mu.Unlock()

	st := Unknown
	for _, s := range r.strategies {
		if v, ok := s.Lookup(q); ok {
			slog.Debug("mastery resolved",
				"strategy", s.Name(),
				"tier", q.TierID,
				"topic", q.Topic,
				"status", v.String(),
			)
			st = v
			break
		}
	}

	r.mu.Lock()
	if r.cache[ts] == nil {
		r.cache[ts] = make(map[itemScope]Status)
	}
	r.cache[ts][is] = st
	r.mu.Unlock()

	return st
}

// SetStatus writes an explicit status and drops the topic's cached answers.
func (r *Resolver) SetStatus(tierID, topic, canonicalID string, status Status) error {
	if r.explicit == nil {
		return fmt.Errorf("no explicit status store configured")
	}
	topicKey := textnorm.CollapseSpace(topic)
	if tierID == "" || topicKey == "" || canonicalID == "" {
		return fmt.Errorf("tier, topic and item are required")
	}

	if err := r.explicit.SetStatus(tierID, topicKey, canonicalID, status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	r.InvalidateTopic(tierID, topic)

	activity.Record(r.events, activity.Event{
		Kind:   activity.KindMasterySet,
		TierID: tierID,
		Topic:  topicKey,
		Data:   map[string]any{"item": canonicalID, "status": status.String()},
	})
	return nil
}

// ClearTopic wipes every store's entries for the topic under each topic
// key shape and drops its cached answers.
func (r *Resolver) ClearTopic(tierID, topic string) error {
	keys := Query{TierID: tierID, Topic: topic}.TopicKeys()
	if len(keys) == 0 {
		return fmt.Errorf("topic is required")
	}

	// Invalidate even when a store fails part way.
	defer r.InvalidateTopic(tierID, topic)

	for _, key := range keys {
		if r.explicit != nil {
			if err := r.explicit.ClearTopic(tierID, key); err != nil {
				return fmt.Errorf("clear explicit statuses: %w", err)
			}
		}
		for _, set := range []SetStore{r.mastered, r.unknown} {
			if set == nil {
				continue
			}
			if err := set.Clear(SetKey(tierID, key)); err != nil {
				return fmt.Errorf("clear legacy set: %w", err)
			}
		}
	}

	activity.Record(r.events, activity.Event{
		Kind:   activity.KindMasteryTopicCleared,
		TierID: tierID,
		Topic:  textnorm.CollapseSpace(topic),
	})
	return nil
}

// InvalidateTopic drops cached answers for one topic.
func (r *Resolver) InvalidateTopic(tierID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, scopeOf(tierID, topic))
}

// Invalidate drops every cached answer.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[topicScope]map[itemScope]Status)
}

func scopeOf(tierID, topic string) topicScope {
	return topicScope{
		tier:  strings.ToLower(strings.TrimSpace(tierID)),
		topic: textnorm.Normalize(topic),
	}
}
