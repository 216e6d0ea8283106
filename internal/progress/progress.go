// Package progress computes done/total/percent per topic and per tier.
package progress

import (
	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/mastery"
)

// Result is a done/total pair with its floored percentage.
type Result struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// NewResult computes floor(done*100/total), or 0 for an empty total.
func NewResult(done, total int) Result {
	r := Result{Done: done, Total: total}
	if total > 0 {
		r.Percent = done * 100 / total
	}
	return r
}

// ItemStatus is one counted item.
type ItemStatus struct {
	ID       string         `json:"id"`
	Display  string         `json:"display"`
	SubTopic string         `json:"sub_topic,omitempty"`
	Status   mastery.Status `json:"status"`
}

// TopicProgress is the progress of one topic.
type TopicProgress struct {
	Topic string `json:"topic"`
	Result
	Items []ItemStatus `json:"items"`
}

// TierProgress is the progress of a tier. Its Result counts the union of
// canonical IDs across Topics, not an average of their percentages.
type TierProgress struct {
	TierID string `json:"tier_id"`
	Label  string `json:"label"`
	Result
	Topics []TopicProgress `json:"topics"`
}

// StatusSource resolves the mastery of one item.
type StatusSource interface {
	Lookup(q mastery.Query) mastery.Status
}

// Aggregator computes progress from the catalog and a status source. It
// has no side effects and can be re-run at will.
type Aggregator struct {
	catalog  curriculum.Store
	resolver *canon.Resolver
	status   StatusSource
}

// NewAggregator creates an aggregator.
func NewAggregator(catalog curriculum.Store, resolver *canon.Resolver, status StatusSource) *Aggregator {
	return &Aggregator{
		catalog:  catalog,
		resolver: resolver,
		status:   status,
	}
}

// ComputeTopic counts one topic. Items are the ordered union of direct and
// sub-topic items, de-duplicated by raw string and then by canonical ID,
// minus the topic's exclusions. An unknown topic yields an empty result.
func (a *Aggregator) ComputeTopic(tierID, topicTitle string) TopicProgress {
	tp := TopicProgress{Topic: topicTitle, Items: []ItemStatus{}}

	topic, ok := curriculum.FindTopic(a.catalog, tierID, topicTitle)
	if !ok {
		return tp
	}
	tp.Topic = topic.Title

	excluded := make(map[string]struct{}, len(topic.Exclude))
	for _, raw := range topic.Exclude {
		excluded[a.resolver.Resolve(tierID, topic.Title, raw)] = struct{}{}
	}

	seenRaw := make(map[string]struct{})
	seenID := make(map[string]struct{})
	done := 0
	for _, e := range a.resolver.Entries(tierID, topic.Title) {
		if _, dup := seenRaw[e.Item.Raw]; dup {
			continue
		}
		seenRaw[e.Item.Raw] = struct{}{}
		if _, dup := seenID[e.ID]; dup {
			continue
		}
		seenID[e.ID] = struct{}{}
		if _, skip := excluded[e.ID]; skip {
			continue
		}

		st := a.status.Lookup(mastery.Query{
			TierID:    tierID,
			Topic:     topic.Title,
			Canonical: e.ID,
			Raw:       e.Item.Raw,
		})
		if st == mastery.Yes {
			done++
		}
		tp.Items = append(tp.Items, ItemStatus{
			ID:       e.ID,
			Display:  e.Item.Display(),
			SubTopic: e.SubTopic,
			Status:   st,
		})
	}

	tp.Result = NewResult(done, len(tp.Items))
	return tp
}

// ComputeTier counts the named topics of a tier, or all of its topics when
// none are named. An ID counted in several topics is done if any of them
// marks it done.
func (a *Aggregator) ComputeTier(tierID string, topics ...string) TierProgress {
	var label string
	if t, ok := curriculum.FindTier(a.catalog, tierID); ok {
		tierID, label = t.ID, t.Label
	}
	tp := TierProgress{TierID: tierID, Label: label, Topics: []TopicProgress{}}

	if len(topics) == 0 {
		for _, t := range a.catalog.ListTopics(tierID) {
			topics = append(topics, t.Title)
		}
	}

	union := make(map[string]bool)
	for _, title := range topics {
		topic := a.ComputeTopic(tierID, title)
		tp.Topics = append(tp.Topics, topic)
		for _, it := range topic.Items {
			union[it.ID] = union[it.ID] || it.Status == mastery.Yes
		}
	}

	done := 0
	for _, ok := range union {
		if ok {
			done++
		}
	}
	tp.Result = NewResult(done, len(union))
	return tp
}
