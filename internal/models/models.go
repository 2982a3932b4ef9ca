package models

import "time"

type SectorID string

const (
	SectorGBV          SectorID = "gbv"
	SectorEducation    SectorID = "education"
	SectorWater        SectorID = "water"
	SectorHumanitarian SectorID = "humanitarian"
)

type Status string

const (
	StatusNew         Status = "new"
	StatusUnderReview Status = "under-review"
	StatusResolved    Status = "resolved"
	StatusEscalated   Status = "escalated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusResolved, StatusEscalated:
		return true
	}
	return false
}

// Urgency is empty when unset. An unset urgency is not "low".
type Urgency string

const (
	UrgencyUnset    Urgency = ""
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Rank orders urgencies; unset ranks below low.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyCritical:
		return 4
	default:
		return 0
	}
}

func (u Urgency) Valid() bool {
	return u == UrgencyUnset || u.Rank() > 0
}

func MaxUrgency(a, b Urgency) Urgency {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type Role string

const (
	RoleAnonymous     Role = ""
	RoleUser          Role = "user"
	RoleAdmin         Role = "admin"
	RoleSuperAdmin    Role = "super_admin"
	RoleCountryAdmin  Role = "country_admin"
	RoleCaseWorker    Role = "case_worker"
	RoleFieldOfficer  Role = "field_officer"
	RoleGovernorAdmin Role = "governor_admin"
)

func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleCountryAdmin, RoleCaseWorker, RoleFieldOfficer, RoleGovernorAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller as resolved by the gateway. A zero Actor is anonymous.
type Actor struct {
	Role   Role   `json:"role"`
	UserID string `json:"user_id,omitempty"`
}

func (a Actor) CurrentRole() Role { return a.Role }
func (a Actor) CurrentUserID() string { return a.UserID }

type Step string

const (
	StepSector   Step = "sector"
	StepCategory Step = "category"
	StepDetails  Step = "details"
	StepReview   Step = "review" // details validated, ready to submit
)

type Draft struct {
	ID        string         `json:"id"`
	Sector    SectorID       `json:"sector"`
	Category  string         `json:"category,omitempty"`
	Fields    map[string]any `json:"fields"`
	Step      Step           `json:"step"`
	Completed map[Step]bool  `json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Report struct {
	ID          string         `json:"id" bson:"_id"`
	CaseID      string         `json:"case_id" bson:"case_id"`
	PIN         string         `json:"-" bson:"pin"`
	Sector      SectorID       `json:"sector" bson:"sector"`
	Category    string         `json:"category" bson:"category"`
	Description string         `json:"description" bson:"description"`
	Details     map[string]any `json:"details,omitempty" bson:"details,omitempty"`
	Location    string         `json:"location,omitempty" bson:"location,omitempty"`
	Lat         *float64       `json:"lat,omitempty" bson:"lat,omitempty"`
	Lon         *float64       `json:"lon,omitempty" bson:"lon,omitempty"`
	Status      Status         `json:"status" bson:"status"`
	Urgency     Urgency        `json:"urgency,omitempty" bson:"urgency,omitempty"`
	RiskScore   int            `json:"risk_score" bson:"risk_score"`
	Flagged     bool           `json:"flagged" bson:"flagged"`
	AdminNotes  string         `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	ReporterID  string         `json:"reporter_id,omitempty" bson:"reporter_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	EscalatedAt *time.Time     `json:"escalated_at,omitempty" bson:"escalated_at,omitempty"`
	Version     int            `json:"version" bson:"version"`
}

// StatusView is what an anonymous case holder may see.
type StatusView struct {
	CaseID     string    `json:"case_id"`
	Status     Status    `json:"status"`
	Date       time.Time `json:"date"`
	AdminNotes string    `json:"admin_notes,omitempty"`
}
