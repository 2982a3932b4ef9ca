package lifecycle

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safereport/backend/internal/geocode"
	"github.com/safereport/backend/internal/identifier"
	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/registry"
	"github.com/safereport/backend/internal/store"
	"github.com/safereport/backend/internal/triage"
)

const (
	DefaultMaxIDAttempts = 5
	maxUpdateAttempts    = 3
	geocodeTimeout       = 3 * time.Second
)

// ActorContext identifies the caller. An empty user id means an anonymous session.
type ActorContext interface {
	CurrentRole() models.Role
	CurrentUserID() string
}

type Manager struct {
	Store         store.ReportStore
	Registry      *registry.Registry
	Classifier    *triage.Classifier
	IDs           *identifier.Assigner
	Geocoder      geocode.Geocoder
	Country       string
	MaxIDAttempts int
	Logger        zerolog.Logger
	Now           func() time.Time
}

// TriagePatch is what staff may change besides status.
type TriagePatch struct {
	AdminNotes *string
	RiskScore  *int
	Urgency    *models.Urgency
}

// ReporterPatch is what the owning reporter may change while a report is new.
type ReporterPatch struct {
	Description *string
	Details     map[string]any
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateReport validates a completed draft, classifies it and persists it as a new report.
func (m *Manager) CreateReport(ctx context.Context, draft models.Draft, actor ActorContext) (models.Report, error) {
	fields, err := m.Registry.CheckFields(draft.Sector, draft.Category, draft.Fields)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %w", ErrIncompleteDraft, err)
	}

	description, _ := fields["description"].(string)
	location, _ := fields["location"].(string)
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "description" || k == "location" {
			continue
		}
		details[k] = v
	}

	res := m.Classifier.Classify(triage.Input{
		Sector:      draft.Sector,
		Category:    draft.Category,
		Description: description,
	})

	now := m.now()
	r := models.Report{
		Sector:      draft.Sector,
		Category:    draft.Category,
		Description: description,
		Details:     details,
		Location:    location,
		Status:      models.StatusNew,
		Urgency:     res.Urgency,
		RiskScore:   res.RiskScore,
		Flagged:     res.Flagged,
		AdminNotes:  res.AdminNote,
		ReporterID:  actor.CurrentUserID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.locate(ctx, &r)

	if res.Flagged {
		m.Logger.Warn().
			Str("sector", string(r.Sector)).
			Str("category", r.Category).
			Strs("keywords", res.MatchedKeywords).
			Msg("report auto-flagged")
	}

	attempts := m.MaxIDAttempts
	if attempts <= 0 {
		attempts = DefaultMaxIDAttempts
	}
	for i := 1; i <= attempts; i++ {
		if r.CaseID, err = m.IDs.NewCaseID(); err != nil {
			return models.Report{}, err
		}
		if r.PIN, err = m.IDs.NewPIN(); err != nil {
			return models.Report{}, err
		}
		saved, err := m.Store.Save(ctx, r)
		if err == nil {
			m.Logger.Info().
				Str("report_id", saved.ID).
				Str("case_id", saved.CaseID).
				Str("urgency", string(saved.Urgency)).
				Int("risk_score", saved.RiskScore).
				Bool("flagged", saved.Flagged).
				Msg("report created")
			return saved, nil
		}
		if !errors.Is(err, store.ErrDuplicateCaseID) {
			return models.Report{}, fmt.Errorf("save report: %w", err)
		}
		m.Logger.Warn().Str("case_id", r.CaseID).Int("attempt", i).Msg("case id collision")
	}
	m.Logger.Error().Int("attempts", attempts).Msg("case id allocation exhausted")
	return models.Report{}, ErrIdentifierExhausted
}

// locate fills Lat/Lon from the location details. Failures are logged and ignored.
func (m *Manager) locate(ctx context.Context, r *models.Report) {
	if m.Geocoder == nil || !geocode.ShouldGeocode(*r) {
		return
	}
	q := geocode.QueryFor(*r, m.Country)
	if q == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()
	res, err := m.Geocoder.Geocode(ctx, q)
	if err != nil {
		m.Logger.Debug().Err(err).Str("query", q).Msg("geocode skipped")
		return
	}
	lat, lon := res.Lat, res.Lon
	r.Lat, r.Lon = &lat, &lon
}

// UpdateStatus moves a report through the status machine. Only staff may call it.
func (m *Manager) UpdateStatus(ctx context.Context, id string, to models.Status, actor ActorContext) (models.Report, error) {
	if !actor.CurrentRole().IsStaff() {
		return models.Report{}, ErrUnauthorized
	}
	if !to.Valid() {
		return models.Report{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}

	var from models.Status
	updated, err := m.mutate(ctx, id, func(r models.Report, now time.Time) (store.Patch, error) {
		from = r.Status
		if !CanTransition(r.Status, to) {
			return store.Patch{}, &TransitionError{From: r.Status, To: to}
		}
		p := store.Patch{Status: &to, UpdatedAt: now}
		switch to {
		case models.StatusResolved:
			p.ResolvedAt = &now
		case models.StatusEscalated:
			if r.EscalatedAt == nil {
				p.EscalatedAt = &now
			}
		}
		return p, nil
	})
	if err != nil {
		return models.Report{}, err
	}
	m.Logger.Info().
		Str("report_id", id).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor_role", string(actor.CurrentRole())).
		Str("actor_id", actor.CurrentUserID()).
		Msg("status changed")
	return updated, nil
}

// UpdateTriage lets staff set notes, urgency and risk. A flagged report keeps risk 10.
func (m *Manager) UpdateTriage(ctx context.Context, id string, patch TriagePatch, actor ActorContext) (models.Report, error) {
	if !actor.CurrentRole().IsStaff() {
		return models.Report{}, ErrUnauthorized
	}
	if patch.RiskScore != nil && (*patch.RiskScore < triage.MinRisk || *patch.RiskScore > triage.MaxRisk) {
		return models.Report{}, fmt.Errorf("%w: risk score must be between %d and %d", ErrInvalidInput, triage.MinRisk, triage.MaxRisk)
	}
	if patch.Urgency != nil && patch.Urgency.Rank() == 0 {
		return models.Report{}, fmt.Errorf("%w: unknown urgency %q", ErrInvalidInput, *patch.Urgency)
	}
	if patch.AdminNotes == nil && patch.RiskScore == nil && patch.Urgency == nil {
		return models.Report{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	return m.mutate(ctx, id, func(r models.Report, now time.Time) (store.Patch, error) {
		if r.Flagged && patch.RiskScore != nil && *patch.RiskScore != triage.FlaggedRisk {
			return store.Patch{}, fmt.Errorf("%w: flagged reports keep risk score %d", ErrInvalidInput, triage.FlaggedRisk)
		}
		return store.Patch{
			AdminNotes: patch.AdminNotes,
			RiskScore:  patch.RiskScore,
			Urgency:    patch.Urgency,
			UpdatedAt:  now,
		}, nil
	})
}

// EditReport lets the owning reporter correct a report that nobody has picked up yet.
// The new text is screened again; urgency can only go up.
func (m *Manager) EditReport(ctx context.Context, id string, patch ReporterPatch, actor ActorContext) (models.Report, error) {
	userID := actor.CurrentUserID()
	if userID == "" {
		return models.Report{}, ErrUnauthorized
	}
	if patch.Description == nil && patch.Details == nil {
		return models.Report{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	return m.mutate(ctx, id, func(r models.Report, now time.Time) (store.Patch, error) {
		if r.ReporterID != userID {
			return store.Patch{}, ErrUnauthorized
		}
		if r.Status != models.StatusNew {
			return store.Patch{}, ErrNotEditable
		}

		merged := make(map[string]any, len(r.Details)+len(patch.Details)+2)
		for k, v := range r.Details {
			merged[k] = v
		}
		merged["description"] = r.Description
		if r.Location != "" {
			merged["location"] = r.Location
		}
		for k, v := range patch.Details {
			merged[k] = v
		}
		if patch.Description != nil {
			merged["description"] = *patch.Description
		}
		fields, err := m.Registry.CheckFields(r.Sector, r.Category, merged)
		if err != nil {
			return store.Patch{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}

		description, _ := fields["description"].(string)
		location, _ := fields["location"].(string)
		details := make(map[string]any, len(fields))
		for k, v := range fields {
			if k != "description" && k != "location" {
				details[k] = v
			}
		}
		p := store.Patch{
			Description: &description,
			Location:    &location,
			Details:     details,
			UpdatedAt:   now,
		}

		moved := r
		moved.Location, moved.Details = location, details
		if geocode.QueryFor(moved, m.Country) != geocode.QueryFor(r, m.Country) {
			moved.Lat, moved.Lon = nil, nil
			m.locate(ctx, &moved)
			p.Relocated, p.Lat, p.Lon = true, moved.Lat, moved.Lon
		}

		risk := r.RiskScore
		res := m.Classifier.Classify(triage.Input{
			Sector:      r.Sector,
			Category:    r.Category,
			Description: description,
			RiskScore:   &risk,
		})
		if up := models.MaxUrgency(r.Urgency, res.Urgency); up != r.Urgency {
			p.Urgency = &up
		}
		if res.Flagged && !r.Flagged {
			flagged := true
			score := triage.FlaggedRisk
			p.Flagged = &flagged
			p.RiskScore = &score
			if strings.TrimSpace(r.AdminNotes) == "" {
				note := res.AdminNote
				p.AdminNotes = &note
			}
			m.Logger.Warn().Str("report_id", r.ID).Strs("keywords", res.MatchedKeywords).Msg("edited report auto-flagged")
		}
		return p, nil
	})
}

// LookupByCase is the anonymous status check. A wrong PIN looks exactly like an unknown case.
func (m *Manager) LookupByCase(ctx context.Context, caseID string, pin string) (models.StatusView, error) {
	caseID = strings.ToUpper(strings.TrimSpace(caseID))
	pin = strings.TrimSpace(pin)
	if caseID == "" {
		return models.StatusView{}, ErrNotFound
	}
	r, err := m.Store.FindByCaseID(ctx, caseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.StatusView{}, ErrNotFound
		}
		return models.StatusView{}, err
	}
	if r.PIN != "" && pin != "" && subtle.ConstantTimeCompare([]byte(r.PIN), []byte(pin)) != 1 {
		return models.StatusView{}, ErrNotFound
	}
	return models.StatusView{
		CaseID:     r.CaseID,
		Status:     r.Status,
		Date:       r.CreatedAt,
		AdminNotes: r.AdminNotes,
	}, nil
}

// Get returns a report to staff or to its reporter.
func (m *Manager) Get(ctx context.Context, id string, actor ActorContext) (models.Report, error) {
	if !actor.CurrentRole().IsStaff() && actor.CurrentUserID() == "" {
		return models.Report{}, ErrUnauthorized
	}
	r, err := m.Store.Get(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	if !actor.CurrentRole().IsStaff() && r.ReporterID != actor.CurrentUserID() {
		return models.Report{}, ErrNotFound
	}
	return r, nil
}

// List returns any reports to staff. Signed-in reporters only see their own.
func (m *Manager) List(ctx context.Context, f store.Filter, actor ActorContext) ([]models.Report, error) {
	if !actor.CurrentRole().IsStaff() {
		if actor.CurrentUserID() == "" {
			return nil, ErrUnauthorized
		}
		f.ReporterID = actor.CurrentUserID()
	}
	return m.Store.List(ctx, f)
}

// mutate runs read, validate, compare-and-set, retrying when another writer wins.
func (m *Manager) mutate(ctx context.Context, id string, fn func(r models.Report, now time.Time) (store.Patch, error)) (models.Report, error) {
	for i := 0; i < maxUpdateAttempts; i++ {
		r, err := m.Store.Get(ctx, id)
		if err != nil {
			return models.Report{}, err
		}
		patch, err := fn(r, m.now())
		if err != nil {
			return models.Report{}, err
		}
		updated, err := m.Store.Update(ctx, id, r.Version, patch)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return models.Report{}, err
		}
		m.Logger.Debug().Str("report_id", id).Int("attempt", i+1).Msg("version conflict, retrying")
	}
	return models.Report{}, ErrConflict
}
