package exam

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a session fails validation. It is
	// wrapped by the more specific errors below.
	ErrValidation = errors.New("validation failed")

	// ErrTraineeRequired is returned when saving or exporting a session
	// without a trainee name.
	ErrTraineeRequired = fmt.Errorf("%w: trainee name is required", ErrValidation)

	// ErrUnknownExercise is returned when marking an exercise that is not
	// part of the session.
	ErrUnknownExercise = errors.New("unknown exercise")

	// ErrInvalidMark is returned for a mark other than pass, partial or fail.
	ErrInvalidMark = errors.New("invalid mark")
)
