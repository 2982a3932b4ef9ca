package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/safereport/backend/internal/models"
)

var (
	ErrUnknownSector   = errors.New("unknown sector")
	ErrUnknownCategory = errors.New("unknown category")
)

//go:embed sectors.yaml
var defaultCatalog []byte

// DefaultBaseRisk is used for categories that do not declare a base_risk.
const DefaultBaseRisk = 5

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldPhone   FieldType = "phone"
	FieldEmail   FieldType = "email"
	FieldEnum    FieldType = "enum"
)

func (t FieldType) valid() bool {
	switch t {
	case FieldString, FieldText, FieldNumber, FieldBoolean, FieldDate, FieldPhone, FieldEmail, FieldEnum:
		return true
	}
	return false
}

type FieldSpec struct {
	Name     string    `yaml:"name" json:"name"`
	Type     FieldType `yaml:"type" json:"type"`
	Required bool      `yaml:"required" json:"required"`
	Validate string    `yaml:"validate,omitempty" json:"validate,omitempty"`
	Options  []string  `yaml:"options,omitempty" json:"options,omitempty"`
}

type CategoryDefinition struct {
	ID             string         `yaml:"id" json:"id"`
	Label          string         `yaml:"label" json:"label"`
	DefaultUrgency models.Urgency `yaml:"default_urgency" json:"default_urgency,omitempty"`
	IsCritical     bool           `yaml:"critical" json:"is_critical"`
	BaseRisk       int            `yaml:"base_risk" json:"base_risk"`
	Fields         []FieldSpec    `yaml:"fields" json:"fields,omitempty"`
}

type SectorDefinition struct {
	ID             models.SectorID      `yaml:"id" json:"id"`
	Label          string               `yaml:"label" json:"label"`
	DefaultUrgency models.Urgency       `yaml:"default_urgency" json:"default_urgency,omitempty"`
	HighestUrgency models.Urgency       `yaml:"highest_urgency" json:"highest_urgency"`
	Fields         []FieldSpec          `yaml:"fields" json:"fields"`
	Categories     []CategoryDefinition `yaml:"categories" json:"categories"`
}

type catalog struct {
	Version string             `yaml:"version"`
	Sectors []SectorDefinition `yaml:"sectors"`
}

// Registry is immutable once built and safe for concurrent reads.
type Registry struct {
	version  string
	sectors  []SectorDefinition
	index    map[models.SectorID]int
	validate *validator.Validate
}

// Default returns the registry compiled into the binary.
func Default() (*Registry, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path yields the built-in catalog.
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

func Parse(data []byte) (*Registry, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if len(c.Sectors) == 0 {
		return nil, errors.New("catalog has no sectors")
	}

	r := &Registry{
		version:  c.Version,
		index:    make(map[models.SectorID]int, len(c.Sectors)),
		validate: newValidator(),
	}
	for i, s := range c.Sectors {
		if err := validateSector(s); err != nil {
			return nil, err
		}
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate sector %q", s.ID)
		}
		for j := range s.Categories {
			if s.Categories[j].BaseRisk == 0 {
				s.Categories[j].BaseRisk = DefaultBaseRisk
			}
		}
		r.index[s.ID] = i
		r.sectors = append(r.sectors, s)
	}
	return r, nil
}

func validateSector(s SectorDefinition) error {
	if strings.TrimSpace(string(s.ID)) == "" {
		return errors.New("sector id required")
	}
	if s.HighestUrgency.Rank() == 0 {
		return fmt.Errorf("sector %q: highest_urgency %q invalid", s.ID, s.HighestUrgency)
	}
	if !s.DefaultUrgency.Valid() {
		return fmt.Errorf("sector %q: default_urgency %q invalid", s.ID, s.DefaultUrgency)
	}
	if len(s.Categories) == 0 {
		return fmt.Errorf("sector %q: no categories", s.ID)
	}
	if err := validateFields(string(s.ID), s.Fields); err != nil {
		return err
	}
	seen := map[string]struct{}{}
	for _, c := range s.Categories {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("sector %q: category id required", s.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("sector %q: duplicate category %q", s.ID, c.ID)
		}
		seen[c.ID] = struct{}{}
		if !c.DefaultUrgency.Valid() {
			return fmt.Errorf("category %s/%s: default_urgency %q invalid", s.ID, c.ID, c.DefaultUrgency)
		}
		if c.BaseRisk < 0 || c.BaseRisk > 10 {
			return fmt.Errorf("category %s/%s: base_risk %d out of range", s.ID, c.ID, c.BaseRisk)
		}
		if err := validateFields(string(s.ID)+"/"+c.ID, c.Fields); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(owner string, fields []FieldSpec) error {
	seen := map[string]struct{}{}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%s: field name required", owner)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%s: duplicate field %q", owner, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Type.valid() {
			return fmt.Errorf("%s: field %q has unknown type %q", owner, f.Name, f.Type)
		}
		if f.Type == FieldEnum && len(f.Options) == 0 {
			return fmt.Errorf("%s: enum field %q has no options", owner, f.Name)
		}
	}
	return nil
}

func (r *Registry) Version() string {
	return r.version
}

func (r *Registry) Sectors() []SectorDefinition {
	out := make([]SectorDefinition, 0, len(r.sectors))
	for _, s := range r.sectors {
		out = append(out, cloneSector(s))
	}
	return out
}

func (r *Registry) Sector(id models.SectorID) (SectorDefinition, error) {
	i, ok := r.index[id]
	if !ok {
		return SectorDefinition{}, fmt.Errorf("%w: %q", ErrUnknownSector, id)
	}
	return cloneSector(r.sectors[i]), nil
}

func (r *Registry) Categories(sectorID models.SectorID) ([]CategoryDefinition, error) {
	s, err := r.Sector(sectorID)
	if err != nil {
		return nil, err
	}
	return s.Categories, nil
}

func (r *Registry) Category(sectorID models.SectorID, categoryID string) (CategoryDefinition, error) {
	i, ok := r.index[sectorID]
	if !ok {
		return CategoryDefinition{}, fmt.Errorf("%w: %q", ErrUnknownSector, sectorID)
	}
	for _, c := range r.sectors[i].Categories {
		if c.ID == categoryID {
			return cloneCategory(c), nil
		}
	}
	return CategoryDefinition{}, fmt.Errorf("%w: %q in sector %q", ErrUnknownCategory, categoryID, sectorID)
}

// Fields returns the sector-wide fields followed by the category's own.
// A category field overrides a sector field of the same name.
func (r *Registry) Fields(sectorID models.SectorID, categoryID string) ([]FieldSpec, error) {
	c, err := r.Category(sectorID, categoryID)
	if err != nil {
		return nil, err
	}
	s := r.sectors[r.index[sectorID]]

	override := make(map[string]FieldSpec, len(c.Fields))
	for _, f := range c.Fields {
		override[f.Name] = f
	}
	out := make([]FieldSpec, 0, len(s.Fields)+len(c.Fields))
	for _, f := range s.Fields {
		if o, ok := override[f.Name]; ok {
			out = append(out, o)
			delete(override, f.Name)
			continue
		}
		out = append(out, f)
	}
	for _, f := range c.Fields {
		if _, ok := override[f.Name]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *Registry) RequiredFields(sectorID models.SectorID, categoryID string) ([]FieldSpec, error) {
	all, err := r.Fields(sectorID, categoryID)
	if err != nil {
		return nil, err
	}
	var out []FieldSpec
	for _, f := range all {
		if f.Required {
			out = append(out, f)
		}
	}
	return out, nil
}

func cloneSector(s SectorDefinition) SectorDefinition {
	s.Fields = cloneFields(s.Fields)
	cats := make([]CategoryDefinition, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, cloneCategory(c))
	}
	s.Categories = cats
	return s
}

func cloneCategory(c CategoryDefinition) CategoryDefinition {
	c.Fields = cloneFields(c.Fields)
	return c
}

func cloneFields(in []FieldSpec) []FieldSpec {
	if in == nil {
		return nil
	}
	out := make([]FieldSpec, len(in))
	for i, f := range in {
		f.Options = append([]string(nil), f.Options...)
		out[i] = f
	}
	return out
}
