// Package activity records write-side events: mastery changes and exam
// draft saves, exports and discards.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind names what happened. It is stored as-is in activity_events.kind.
type Kind string

const (
	KindMasterySet          Kind = "mastery_set"
	KindMasteryTopicCleared Kind = "mastery_topic_cleared"
	KindExamSaved           Kind = "exam_saved"
	KindExamExported        Kind = "exam_exported"
	KindExamDraftDiscarded  Kind = "exam_draft_discarded"
)

var knownKinds = map[Kind]bool{
	KindMasterySet:          true,
	KindMasteryTopicCleared: true,
	KindExamSaved:           true,
	KindExamExported:        true,
	KindExamDraftDiscarded:  true,
}

// Valid reports whether k is one of the recorded kinds.
func (k Kind) Valid() bool { return knownKinds[k] }

// Exam reports whether k describes an exam draft rather than a mastery
// change.
func (k Kind) Exam() bool {
	return k == KindExamSaved || k == KindExamExported || k == KindExamDraftDiscarded
}

func checkKind(k Kind) error {
	if k == "" {
		return fmt.Errorf("event kind is required")
	}
	if !k.Valid() {
		return fmt.Errorf("unknown event kind %q", k)
	}
	return nil
}

const dbTimeout = 5 * time.Second

// Event is one recorded mastery change or exam draft action. Trainee is
// empty for mastery events.
type Event struct {
	Kind      Kind
	Trainee   string
	TierID    string
	Topic     string
	Data      map[string]any
	CreatedAt time.Time
}

// Logger defines event logging behavior.
type Logger interface {
	LogEvent(event Event) error
}

// NopLogger ignores all events.
type NopLogger struct{}

func (NopLogger) LogEvent(Event) error {
	return nil
}

// MemoryLogger keeps events in memory so tests can read them back.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		events: []Event{},
	}
}

func (l *MemoryLogger) LogEvent(event Event) error {
	if err := checkKind(event.Kind); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

// Events returns the recorded events of the given kinds in order, or all
// of them when no kind is named.
func (l *MemoryLogger) Events(kinds ...Kind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(kinds) == 0 {
		return append([]Event{}, l.events...)
	}

	out := []Event{}
	for _, e := range l.events {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// PostgresLogger inserts events into the activity_events table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresLogger(pool *pgxpool.Pool) *PostgresLogger {
	return &PostgresLogger{pool: pool}
}

func (l *PostgresLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := checkKind(event.Kind); err != nil {
		return err
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO activity_events (kind, trainee, tier_id, topic, data, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		string(event.Kind),
		nullIfEmpty(event.Trainee),
		nullIfEmpty(event.TierID),
		nullIfEmpty(event.Topic),
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	attrs := []any{"kind", string(event.Kind), "tier", event.TierID}
	if event.Kind.Exam() {
		attrs = append(attrs, "trainee", event.Trainee)
	} else {
		attrs = append(attrs, "topic", event.Topic)
	}
	slog.Debug("activity logged", attrs...)
	return nil
}

// Record logs event and only warns on failure; activity is never allowed to
// fail the write it describes.
func Record(l Logger, event Event) {
	if l == nil {
		return
	}
	if err := l.LogEvent(event); err != nil {
		slog.Warn("failed to log activity", "kind", string(event.Kind), "error", err)
	}
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
