package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every *InvalidInputError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSelection matches every *InvalidSelectionError via errors.Is.
	ErrInvalidSelection = errors.New("invalid selection")
)

// InvalidInputError describes a record that was excluded from matching.
type InvalidInputError struct {
	Origin Origin `json:"origin"`
	Index  int    `json:"index"` // position in the input list
	ID     string `json:"id,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *InvalidInputError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s record %d (%s): %s: %s", e.Origin, e.Index, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s record %d: %s: %s", e.Origin, e.Index, e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InvalidSelectionError is returned when a selection mutation names an id
// that is not part of the imported set.
type InvalidSelectionError struct {
	ID string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("id %q is not an imported transaction of this run", e.ID)
}

func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}
