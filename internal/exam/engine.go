package exam

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/p-n-ai/pai-dojo/internal/activity"
	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
)

// StartMode selects what Start does with an existing draft.
type StartMode int

const (
	// Resume loads the saved draft's marks into the new session.
	Resume StartMode = iota
	// New deletes any saved draft before starting.
	New
)

// Exporter writes a finished session somewhere outside the draft store.
type Exporter interface {
	ExportExam(s *Session, score Score) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(s *Session, score Score) error

func (f ExporterFunc) ExportExam(s *Session, score Score) error { return f(s, score) }

// EngineConfig wires an Engine.
type EngineConfig struct {
	Catalog  curriculum.Store
	Resolver *canon.Resolver
	Drafts   DraftStore
	Events   activity.Logger
	Weights  Weights
}

// Engine runs exam sessions over the catalog.
type Engine struct {
	catalog  curriculum.Store
	resolver *canon.Resolver
	drafts   DraftStore
	events   activity.Logger
	weights  Weights
	validate *validator.Validate
}

// NewEngine creates an engine. Zero weights fall back to DefaultWeights and
// a nil draft store to an in-memory one.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if cfg.Resolver == nil {
		cfg.Resolver = canon.NewResolver(cfg.Catalog)
	}
	if cfg.Drafts == nil {
		cfg.Drafts = NewMemoryDraftStore()
	}
	if cfg.Events == nil {
		cfg.Events = activity.NopLogger{}
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return nil, fmt.Errorf("register validation: %w", err)
	}

	return &Engine{
		catalog:  cfg.Catalog,
		resolver: cfg.Resolver,
		drafts:   cfg.Drafts,
		events:   cfg.Events,
		weights:  cfg.Weights,
		validate: v,
	}, nil
}

// Weights returns the weights used for scoring.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Exercises returns the tier's exercise list.
func (e *Engine) Exercises(tierKey string) (curriculum.Tier, []Exercise, error) {
	tier, ok := curriculum.FindTier(e.catalog, tierKey)
	if !ok {
		return curriculum.Tier{}, nil, fmt.Errorf("%w: %s", curriculum.ErrUnknownTier, tierKey)
	}
	return tier, BuildExercises(e.catalog, e.resolver, tier.ID), nil
}

// Start opens a session. With Resume a saved draft's marks are loaded;
// marks for exercises no longer in the catalog are dropped. With New any
// saved draft is deleted immediately, before the session is saved.
func (e *Engine) Start(trainee, tierKey string, date time.Time, mode StartMode) (*Session, error) {
	tier, exercises, err := e.Exercises(tierKey)
	if err != nil {
		return nil, err
	}

	s := NewSession(strings.TrimSpace(trainee), tier.ID, tier.Name(), date, exercises)
	if s.Trainee == "" {
		return s, nil
	}

	key := DraftKey(s.Trainee, s.TierName)
	switch mode {
	case New:
		if err := e.drafts.Delete(key); err != nil {
			return nil, fmt.Errorf("discard draft: %w", err)
		}
	case Resume:
		marks, ok, err := e.drafts.Get(key)
		if err != nil {
			return nil, fmt.Errorf("load draft: %w", err)
		}
		if ok {
			if dropped := s.applyMarks(marks); dropped > 0 {
				slog.Warn("dropped stale draft marks",
					"tier", tier.ID,
					"trainee", s.Trainee,
					"dropped", dropped,
				)
			}
			s.State = StateSaved
		}
	}
	return s, nil
}

// HasDraft reports whether a draft is saved for trainee and tier.
func (e *Engine) HasDraft(trainee, tierKey string) (bool, error) {
	_, ok, err := e.LoadDraft(trainee, tierKey)
	return ok, err
}

// LoadDraft returns the saved marks for trainee and tier.
func (e *Engine) LoadDraft(trainee, tierKey string) (map[string]Mark, bool, error) {
	key, err := e.draftKey(trainee, tierKey)
	if err != nil {
		return nil, false, err
	}
	marks, ok, err := e.drafts.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("load draft: %w", err)
	}
	return marks, ok, nil
}

// DiscardDraft deletes the saved draft for trainee and tier.
func (e *Engine) DiscardDraft(trainee, tierKey string) error {
	key, err := e.draftKey(trainee, tierKey)
	if err != nil {
		return err
	}
	if err := e.drafts.Delete(key); err != nil {
		return fmt.Errorf("discard draft: %w", err)
	}

	tier, _ := curriculum.FindTier(e.catalog, tierKey)
	activity.Record(e.events, activity.Event{
		Kind:    activity.KindExamDraftDiscarded,
		Trainee: strings.TrimSpace(trainee),
		TierID:  tier.ID,
	})
	return nil
}

// Save validates the session and writes its marks as the draft. Nothing is
// written when validation fails.
func (e *Engine) Save(s *Session) error {
	if err := e.check(s); err != nil {
		return err
	}

	key := DraftKey(s.Trainee, s.TierName)
	if err := e.drafts.Put(key, s.Marks); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	s.State = StateSaved

	score := s.Score(e.weights)
	slog.Info("exam draft saved",
		"tier", s.TierID,
		"trainee", s.Trainee,
		"marked", score.Marked,
	)
	activity.Record(e.events, activity.Event{
		Kind:    activity.KindExamSaved,
		Trainee: s.Trainee,
		TierID:  s.TierID,
		Data: map[string]any{
			"session_id": s.ID.String(),
			"marked":     score.Marked,
			"percent":    score.Percent,
		},
	})
	return nil
}

// Export validates the session and hands it with its score to exp.
func (e *Engine) Export(s *Session, exp Exporter) error {
	if err := e.check(s); err != nil {
		return err
	}
	if exp == nil {
		return fmt.Errorf("exporter is nil")
	}

	score := s.Score(e.weights)
	if err := exp.ExportExam(s, score); err != nil {
		return fmt.Errorf("export exam: %w", err)
	}
	s.State = StateExported

	activity.Record(e.events, activity.Event{
		Kind:    activity.KindExamExported,
		Trainee: s.Trainee,
		TierID:  s.TierID,
		Data: map[string]any{
			"session_id": s.ID.String(),
			"total":      score.Total,
			"max":        score.Max,
			"percent":    score.Percent,
		},
	})
	return nil
}

// Score scores s with the engine's weights.
func (e *Engine) Score(s *Session) Score {
	return s.Score(e.weights)
}

func (e *Engine) check(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: session is nil", ErrValidation)
	}
	if err := e.validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Trainee" {
					return ErrTraineeRequired
				}
			}
			return fmt.Errorf("%w: %s", ErrValidation, verrs.Error())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (e *Engine) draftKey(trainee, tierKey string) (string, error) {
	if strings.TrimSpace(trainee) == "" {
		return "", ErrTraineeRequired
	}
	tier, ok := curriculum.FindTier(e.catalog, tierKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", curriculum.ErrUnknownTier, tierKey)
	}
	return DraftKey(trainee, tier.Name()), nil
}
