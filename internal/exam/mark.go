// Package exam grades a trainee over a tier's exercises: it builds the
// exercise list, tracks marks, scores them and keeps resumable drafts.
package exam

import (
	"fmt"
	"strings"
)

// Mark is the grade given to one exercise.
type Mark string

const (
	Pass    Mark = "pass"
	Partial Mark = "partial"
	Fail    Mark = "fail"
)

// ParseMark accepts "pass", "partial" or "fail" in any case.
func ParseMark(s string) (Mark, error) {
	m := Mark(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMark, s)
	}
	return m, nil
}

// Valid reports whether m is one of the three marks.
func (m Mark) Valid() bool {
	switch m {
	case Pass, Partial, Fail:
		return true
	}
	return false
}

// Weights maps each mark to its score contribution.
type Weights struct {
	Pass    float64 `json:"pass"`
	Partial float64 `json:"partial"`
	Fail    float64 `json:"fail"`
}

// DefaultWeights scores a pass as 1, a partial as 0.5 and a fail as 0.
func DefaultWeights() Weights {
	return Weights{Pass: 1, Partial: 0.5, Fail: 0}
}

// Weight returns the contribution of m; unknown marks count as 0.
func (w Weights) Weight(m Mark) float64 {
	switch m {
	case Pass:
		return w.Pass
	case Partial:
		return w.Partial
	case Fail:
		return w.Fail
	}
	return 0
}

// Validate checks that every weight lies in [0, Pass] and Pass is positive.
func (w Weights) Validate() error {
	if w.Pass <= 0 {
		return fmt.Errorf("pass weight must be positive, got %v", w.Pass)
	}
	for name, v := range map[string]float64{"partial": w.Partial, "fail": w.Fail} {
		if v < 0 || v > w.Pass {
			return fmt.Errorf("%s weight must be within [0, %v], got %v", name, w.Pass, v)
		}
	}
	return nil
}
