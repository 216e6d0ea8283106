package exam

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// Exercise is one examinable catalog item.
type Exercise struct {
	ID       string `json:"id"`
	TierID   string `json:"tier_id"`
	Topic    string `json:"topic"`
	SubTopic string `json:"sub_topic,omitempty"`
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
}

// Label returns the topic label shown next to the exercise.
func (e Exercise) Label() string {
	if e.SubTopic == "" {
		return e.Topic
	}
	return e.Topic + " / " + e.SubTopic
}

// ExerciseID derives a stable ID from tier, topic, sub-topic and item. Each
// part is normalized so cosmetic catalog edits keep IDs stable.
func ExerciseID(tierID, topic, subTopic, itemID string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(tierID)),
		textnorm.Normalize(topic),
		textnorm.Normalize(subTopic),
		textnorm.Normalize(itemID),
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:16])
}

// BuildExercises flattens a tier into its ordered exercise list: topics in
// catalog order, each topic's direct items then its sub-topics' items.
// Items sharing a canonical ID within a topic appear once.
func BuildExercises(store curriculum.Store, resolver *canon.Resolver, tierID string) []Exercise {
	var out []Exercise
	for _, topic := range store.ListTopics(tierID) {
		seen := make(map[string]bool)
		for _, e := range resolver.Entries(tierID, topic.Title) {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, Exercise{
				ID:       ExerciseID(tierID, topic.Title, e.SubTopic, e.ID),
				TierID:   tierID,
				Topic:    topic.Title,
				SubTopic: e.SubTopic,
				ItemID:   e.ID,
				Name:     e.Item.Display(),
			})
		}
	}
	return out
}
