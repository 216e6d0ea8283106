package exam

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// State is a session's place in its lifecycle. Saved and Exported are not
// terminal: marking again moves the session back to InProgress.
type State string

const (
	StateEmpty      State = "empty"
	StateInProgress State = "in_progress"
	StateSaved      State = "saved"
	StateExported   State = "exported"
)

// Session is one grading pass over a tier for one trainee on one date.
type Session struct {
	ID        uuid.UUID       `json:"id"`
	Trainee   string          `json:"trainee" validate:"notblank"`
	TierID    string          `json:"tier_id" validate:"required"`
	TierName  string          `json:"tier_name"`
	Date      time.Time       `json:"date"`
	Exercises []Exercise      `json:"exercises"`
	Marks     map[string]Mark `json:"marks"`
	State     State           `json:"state"`
}

// Score is the weighted result over marked exercises only.
type Score struct {
	Total     float64 `json:"total"`
	Max       float64 `json:"max"`
	Percent   int     `json:"percent"`
	Marked    int     `json:"marked"`
	Exercises int     `json:"exercises"`
}

// NewSession creates an empty session.
func NewSession(trainee, tierID, tierName string, date time.Time, exercises []Exercise) *Session {
	return &Session{
		ID:        uuid.New(),
		Trainee:   trainee,
		TierID:    tierID,
		TierName:  tierName,
		Date:      date,
		Exercises: exercises,
		Marks:     make(map[string]Mark),
		State:     StateEmpty,
	}
}

// Exercise returns the exercise with the given ID.
func (s *Session) Exercise(id string) (Exercise, bool) {
	for _, e := range s.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return Exercise{}, false
}

// Mark records a mark for one exercise.
func (s *Session) Mark(exerciseID string, m Mark) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMark, m)
	}
	if _, ok := s.Exercise(exerciseID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExercise, exerciseID)
	}
	if s.Marks == nil {
		s.Marks = make(map[string]Mark)
	}
	s.Marks[exerciseID] = m
	s.State = StateInProgress
	return nil
}

// Unmark removes an exercise's mark, leaving it out of the score.
func (s *Session) Unmark(exerciseID string) {
	if _, ok := s.Marks[exerciseID]; !ok {
		return
	}
	delete(s.Marks, exerciseID)
	if len(s.Marks) == 0 {
		s.State = StateEmpty
	} else {
		s.State = StateInProgress
	}
}

// Score sums the weights of marked exercises. Unmarked exercises count in
// neither the total nor the maximum.
func (s *Session) Score(w Weights) Score {
	sc := Score{Exercises: len(s.Exercises)}
	for _, e := range s.Exercises {
		m, ok := s.Marks[e.ID]
		if !ok {
			continue
		}
		sc.Marked++
		sc.Total += w.Weight(m)
		sc.Max += w.Pass
	}
	if sc.Max > 0 {
		sc.Percent = int(math.Round(sc.Total / sc.Max * 100))
	}
	return sc
}

// applyMarks copies marks for exercises that are part of the session and
// returns how many were dropped.
func (s *Session) applyMarks(marks map[string]Mark) int {
	dropped := 0
	for id, m := range marks {
		if _, ok := s.Exercise(id); !ok || !m.Valid() {
			dropped++
			continue
		}
		s.Marks[id] = m
	}
	return dropped
}
