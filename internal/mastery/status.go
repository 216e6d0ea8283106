// Package mastery resolves the tri-state mastery status of catalog items
// from the explicit status store and the legacy set stores.
package mastery

import (
	"fmt"
	"strings"
)

// Status is the tri-state mastery of one item.
type Status int

const (
	Unknown Status = iota
	Yes
	No
)

func (s Status) String() string {
	switch s {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// ParseStatus accepts "yes", "no" or "unknown" in any case.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return Yes, nil
	case "no":
		return No, nil
	case "unknown", "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid mastery status %q", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
