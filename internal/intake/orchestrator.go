package intake

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/registry"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNoPreviousStep   = errors.New("already at the first step")
)

// ValidationError explains why a step payload was refused.
type ValidationError struct {
	Step    models.Step       `json:"step"`
	Message string            `json:"message,omitempty"`
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "invalid input"
	}
	if len(e.Missing) > 0 {
		msg += "; missing " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("step %s: %s", e.Step, msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// StepPayload is the data submitted for the draft's current step.
type StepPayload struct {
	Step     models.Step     `json:"step" validate:"required,oneof=sector category details"`
	Sector   models.SectorID `json:"sector,omitempty"`
	Category string          `json:"category,omitempty"`
	Fields   map[string]any  `json:"fields,omitempty"`
}

// Orchestrator drives a draft through sector, category and details.
// Its methods take and return Draft values and keep no state.
type Orchestrator struct {
	Registry *registry.Registry
	Now      func() time.Time
}

func (o Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// Start opens a draft. With a sector it begins at the category step.
func (o Orchestrator) Start(sector models.SectorID) (models.Draft, error) {
	now := o.now()
	d := models.Draft{
		Step:      models.StepSector,
		Fields:    map[string]any{},
		Completed: map[models.Step]bool{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sector == "" {
		return d, nil
	}
	return o.Advance(d, StepPayload{Step: models.StepSector, Sector: sector})
}

// Advance validates the payload for the draft's current step and moves forward.
// Details may be resubmitted from review.
func (o Orchestrator) Advance(d models.Draft, p StepPayload) (models.Draft, error) {
	current := d.Step
	if current == models.StepReview && p.Step == models.StepDetails {
		current = models.StepDetails
	}
	if p.Step != current {
		return d, &ValidationError{Step: p.Step, Message: fmt.Sprintf("expected step %s", d.Step)}
	}

	next := cloneDraft(d)
	switch p.Step {
	case models.StepSector:
		if _, err := o.Registry.Sector(p.Sector); err != nil {
			return d, &ValidationError{Step: p.Step, Message: err.Error()}
		}
		if p.Sector != d.Sector {
			clearFrom(&next, models.StepCategory)
		}
		next.Sector = p.Sector
		next.Completed[models.StepSector] = true
		next.Step = models.StepCategory

	case models.StepCategory:
		if _, err := o.Registry.Category(d.Sector, p.Category); err != nil {
			return d, &ValidationError{Step: p.Step, Message: err.Error()}
		}
		if p.Category != d.Category {
			clearFrom(&next, models.StepDetails)
		}
		next.Category = p.Category
		next.Completed[models.StepCategory] = true
		next.Step = models.StepDetails

	case models.StepDetails:
		fields, err := o.Registry.CheckFields(d.Sector, d.Category, p.Fields)
		if err != nil {
			var fe *registry.FieldErrors
			if errors.As(err, &fe) {
				return d, &ValidationError{Step: p.Step, Message: "details incomplete", Missing: fe.Missing, Invalid: fe.Invalid}
			}
			return d, &ValidationError{Step: p.Step, Message: err.Error()}
		}
		next.Fields = fields
		next.Completed[models.StepDetails] = true
		next.Step = models.StepReview

	default:
		return d, &ValidationError{Step: p.Step, Message: "unknown step"}
	}
	next.UpdatedAt = o.now()
	return next, nil
}

// Back returns to the previous step. Leaving details or category discards
// everything collected after the step being returned to.
func (o Orchestrator) Back(d models.Draft) (models.Draft, error) {
	next := cloneDraft(d)
	switch d.Step {
	case models.StepReview:
		next.Step = models.StepDetails
		delete(next.Completed, models.StepDetails)
	case models.StepDetails:
		clearFrom(&next, models.StepCategory)
		next.Step = models.StepCategory
	case models.StepCategory:
		clearFrom(&next, models.StepCategory)
		delete(next.Completed, models.StepSector)
		next.Step = models.StepSector
	default:
		return d, ErrNoPreviousStep
	}
	next.UpdatedAt = o.now()
	return next, nil
}

// clearFrom drops the selection of step and of every step after it.
func clearFrom(d *models.Draft, step models.Step) {
	if step == models.StepCategory {
		d.Category = ""
		delete(d.Completed, models.StepCategory)
	}
	d.Fields = map[string]any{}
	delete(d.Completed, models.StepDetails)
}

func cloneDraft(d models.Draft) models.Draft {
	fields := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	completed := make(map[models.Step]bool, len(d.Completed))
	for k, v := range d.Completed {
		completed[k] = v
	}
	d.Fields = fields
	d.Completed = completed
	return d
}
