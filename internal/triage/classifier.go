package triage

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/registry"
)

const (
	MinRisk     = 1
	MaxRisk     = 10
	FlaggedRisk = MaxRisk
)

// RiskStrategy picks the risk score of an unflagged report when the caller supplies none.
type RiskStrategy string

const (
	// RiskRandom draws a value in [1,10]. This matches how scores were assigned historically.
	RiskRandom   RiskStrategy = "random"
	// RiskCategory uses the category's base_risk from the registry.
	RiskCategory RiskStrategy = "category"
)

func ParseRiskStrategy(s string) (RiskStrategy, error) {
	switch RiskStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RiskRandom:
		return RiskRandom, nil
	case RiskCategory:
		return RiskCategory, nil
	}
	return "", fmt.Errorf("unknown risk strategy %q", s)
}

type Input struct {
	Sector      models.SectorID
	Category    string
	Description string
	// RiskScore is an optional caller-supplied score, clamped to [1,10].
	RiskScore   *int
}

type Result struct {
	Urgency         models.Urgency `json:"urgency"`
	RiskScore       int            `json:"risk_score"`
	Flagged         bool           `json:"flagged"`
	AdminNote       string         `json:"admin_note,omitempty"`
	MatchedKeywords []string       `json:"matched_keywords,omitempty"`
	Reasons         []string       `json:"reasons"`
}

type Classifier struct {
	registry *registry.Registry
	keywords *Keywords
	strategy RiskStrategy
	intn     func(n int) int
}

type Option func(*Classifier)

func WithRiskStrategy(s RiskStrategy) Option {
	return func(c *Classifier) { c.strategy = s }
}

// WithRand replaces the random source used by RiskRandom.
func WithRand(intn func(n int) int) Option {
	return func(c *Classifier) { c.intn = intn }
}

func New(reg *registry.Registry, kw *Keywords, opts ...Option) *Classifier {
	c := &Classifier{
		registry: reg,
		keywords: kw,
		strategy: RiskRandom,
		intn:     rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify has no side effects and is safe for concurrent use.
func (c *Classifier) Classify(in Input) Result {
	sectorLabel := string(in.Sector)
	categoryLabel := in.Category
	highest := models.UrgencyCritical
	urgency := models.UrgencyMedium
	var category *registry.CategoryDefinition

	res := Result{}
	if s, err := c.registry.Sector(in.Sector); err == nil {
		sectorLabel = s.Label
		highest = s.HighestUrgency
		if s.DefaultUrgency != models.UrgencyUnset {
			urgency = s.DefaultUrgency
			res.Reasons = append(res.Reasons, "sector_default:"+string(urgency))
		}
	}
	if cat, err := c.registry.Category(in.Sector, in.Category); err == nil {
		category = &cat
		categoryLabel = cat.Label
		if cat.DefaultUrgency != models.UrgencyUnset {
			urgency = cat.DefaultUrgency
			res.Reasons = append(res.Reasons, "category_default:"+string(urgency))
		}
		if cat.IsCritical {
			urgency = models.UrgencyCritical
			res.Reasons = append(res.Reasons, "critical_category")
		}
	}

	text := strings.Join([]string{in.Description, sectorLabel, categoryLabel}, " ")
	res.MatchedKeywords = c.keywords.Match(text)

	if len(res.MatchedKeywords) > 0 {
		res.Flagged = true
		res.RiskScore = FlaggedRisk
		res.AdminNote = c.keywords.Note
		urgency = models.MaxUrgency(urgency, highest)
		res.Reasons = append(res.Reasons, "keyword_match")
	} else {
		res.RiskScore = c.defaultRisk(in, category, &res)
	}
	res.Urgency = urgency
	return res
}

func (c *Classifier) defaultRisk(in Input, category *registry.CategoryDefinition, res *Result) int {
	if in.RiskScore != nil {
		res.Reasons = append(res.Reasons, "risk:caller")
		return ClampRisk(*in.RiskScore)
	}
	if c.strategy == RiskCategory && category != nil {
		res.Reasons = append(res.Reasons, "risk:category")
		return ClampRisk(category.BaseRisk)
	}
	res.Reasons = append(res.Reasons, "risk:random")
	return ClampRisk(MinRisk + c.intn(MaxRisk-MinRisk+1))
}

func ClampRisk(v int) int {
	if v < MinRisk {
		return MinRisk
	}
	if v > MaxRisk {
		return MaxRisk
	}
	return v
}
