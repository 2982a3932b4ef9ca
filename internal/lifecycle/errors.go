package lifecycle

import (
	"errors"
	"fmt"

	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/store"
)

var (
	ErrUnauthorized        = errors.New("not permitted")
	ErrNotFound            = store.ErrNotFound
	ErrIncompleteDraft     = errors.New("draft is incomplete")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotEditable         = errors.New("report can no longer be edited")
	ErrIdentifierExhausted = errors.New("could not allocate a case id")
	ErrConflict            = errors.New("report was modified concurrently")
)

// TransitionError carries the current and requested states so callers can explain the refusal.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
