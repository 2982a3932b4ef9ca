package store

import (
	"context"
	"errors"
	"time"

	"github.com/safereport/backend/internal/models"
)

var (
	ErrNotFound        = errors.New("report not found")
	ErrDuplicateCaseID = errors.New("duplicate case id")
	ErrVersionConflict = errors.New("report version conflict")
)

// ReportStore persists reports keyed by id with a unique index on case id.
// Implementations: MemStore here, Postgres and MongoDB in internal/db.
type ReportStore interface {
	// Save inserts a new report, assigning ID when empty and Version 1.
	Save(ctx context.Context, r models.Report) (models.Report, error)
	Get(ctx context.Context, id string) (models.Report, error)
	// Update applies patch only if the stored version equals expectedVersion.
	Update(ctx context.Context, id string, expectedVersion int, patch Patch) (models.Report, error)
	FindByCaseID(ctx context.Context, caseID string) (models.Report, error)
	List(ctx context.Context, f Filter) ([]models.Report, error)
	Ping(ctx context.Context) error
}

// Patch holds the mutable report fields. Nil means unchanged.
type Patch struct {
	Status      *models.Status
	Urgency     *models.Urgency
	RiskScore   *int
	Flagged     *bool
	AdminNotes  *string
	Description *string
	Details     map[string]any
	Location    *string
	// Relocated replaces Lat/Lon with the values below; nil clears them.
	Relocated   bool
	Lat         *float64
	Lon         *float64
	ResolvedAt  *time.Time
	EscalatedAt *time.Time
	UpdatedAt   time.Time
}

// Apply writes the patch onto r and bumps its version.
func (p Patch) Apply(r *models.Report) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Urgency != nil {
		r.Urgency = *p.Urgency
	}
	if p.RiskScore != nil {
		r.RiskScore = *p.RiskScore
	}
	if p.Flagged != nil {
		r.Flagged = *p.Flagged
	}
	if p.AdminNotes != nil {
		r.AdminNotes = *p.AdminNotes
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Details != nil {
		r.Details = cloneDetails(p.Details)
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Relocated {
		r.Lat, r.Lon = copyFloat(p.Lat), copyFloat(p.Lon)
	}
	if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		r.ResolvedAt = &t
	}
	if p.EscalatedAt != nil {
		t := *p.EscalatedAt
		r.EscalatedAt = &t
	}
	r.UpdatedAt = p.UpdatedAt
	r.Version++
}

// Columns maps the patch to storage field names, shared by the SQL and document backends.
func (p Patch) Columns() map[string]any {
	cols := map[string]any{"updated_at": p.UpdatedAt}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.Urgency != nil {
		cols["urgency"] = string(*p.Urgency)
	}
	if p.RiskScore != nil {
		cols["risk_score"] = *p.RiskScore
	}
	if p.Flagged != nil {
		cols["flagged"] = *p.Flagged
	}
	if p.AdminNotes != nil {
		cols["admin_notes"] = *p.AdminNotes
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Details != nil {
		cols["details"] = p.Details
	}
	if p.Location != nil {
		cols["location"] = *p.Location
	}
	if p.Relocated {
		cols["lat"] = copyFloat(p.Lat)
		cols["lon"] = copyFloat(p.Lon)
	}
	if p.ResolvedAt != nil {
		cols["resolved_at"] = *p.ResolvedAt
	}
	if p.EscalatedAt != nil {
		cols["escalated_at"] = *p.EscalatedAt
	}
	return cols
}

type Filter struct {
	Status     models.Status
	Sector     models.SectorID
	Urgency    models.Urgency
	Flagged    *bool
	ReporterID string
	Limit      int
	Offset     int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging the same way for every backend.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) Matches(r models.Report) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Sector != "" && r.Sector != f.Sector {
		return false
	}
	if f.Urgency != "" && r.Urgency != f.Urgency {
		return false
	}
	if f.Flagged != nil && r.Flagged != *f.Flagged {
		return false
	}
	if f.ReporterID != "" && r.ReporterID != f.ReporterID {
		return false
	}
	return true
}

func cloneDetails(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
