package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/safereport/backend/internal/models"
)

func mustDefault(t *testing.T) *Registry {
	t.Helper()
	r, err := Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	return r
}

func fieldNames(fields []FieldSpec) []string {
	var out []string
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

func TestDefaultSectors(t *testing.T) {
	r := mustDefault(t)
	var ids []models.SectorID
	for _, s := range r.Sectors() {
		ids = append(ids, s.ID)
	}
	want := []models.SectorID{models.SectorGBV, models.SectorEducation, models.SectorWater, models.SectorHumanitarian}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("sectors mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoriesUnknownSector(t *testing.T) {
	r := mustDefault(t)
	if _, err := r.Categories("transport"); !errors.Is(err, ErrUnknownSector) {
		t.Fatalf("expected ErrUnknownSector, got %v", err)
	}
}

func TestRequiredFieldsUnknownCategory(t *testing.T) {
	r := mustDefault(t)
	if _, err := r.RequiredFields(models.SectorWater, "rape_sexual_assault"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := r.RequiredFields("transport", "other"); !errors.Is(err, ErrUnknownSector) {
		t.Fatalf("expected ErrUnknownSector, got %v", err)
	}
}

func TestConditionalRequiredFields(t *testing.T) {
	r := mustDefault(t)
	cases := []struct {
		sector   models.SectorID
		category string
		want     []string
	}{
		{models.SectorGBV, "domestic_violence", []string{"description", "survivorAgeGroup"}},
		{models.SectorEducation, "teacher_absence", []string{"description", "stakeholder", "schoolName"}},
		{models.SectorWater, "water_shortage", []string{"description", "communityName"}},
		{models.SectorHumanitarian, "displacement", []string{"description", "communityName"}},
	}
	for _, tc := range cases {
		got, err := r.RequiredFields(tc.sector, tc.category)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.sector, tc.category, err)
		}
		if diff := cmp.Diff(tc.want, fieldNames(got)); diff != "" {
			t.Errorf("%s/%s required fields (-want +got):\n%s", tc.sector, tc.category, diff)
		}
	}
}

func TestCategoryFieldsAppendAfterSectorFields(t *testing.T) {
	r := mustDefault(t)
	fields, err := r.Fields(models.SectorGBV, "trafficking")
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if fields[len(fields)-1].Name != "lastKnownLocation" {
		t.Fatalf("expected category field last, got %v", fieldNames(fields))
	}
}

func TestCriticalGBVCategories(t *testing.T) {
	r := mustDefault(t)
	cats, err := r.Categories(models.SectorGBV)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	var critical []string
	for _, c := range cats {
		if c.IsCritical {
			critical = append(critical, c.ID)
		}
	}
	want := []string{"rape_sexual_assault", "fgm", "trafficking"}
	if diff := cmp.Diff(want, critical); diff != "" {
		t.Fatalf("critical categories (-want +got):\n%s", diff)
	}
}

func TestSectorsReturnsCopies(t *testing.T) {
	r := mustDefault(t)
	s := r.Sectors()
	s[0].Categories[0].IsCritical = false
	s[0].Fields[0].Required = false

	again, _ := r.Category(models.SectorGBV, "rape_sexual_assault")
	if !again.IsCritical {
		t.Fatalf("registry mutated through returned slice")
	}
	req, _ := r.RequiredFields(models.SectorGBV, "rape_sexual_assault")
	if len(req) == 0 || req[0].Name != "description" {
		t.Fatalf("registry fields mutated through returned slice: %v", fieldNames(req))
	}
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	cases := map[string]string{
		"empty": `version: "1"`,
		"duplicate sector": `
sectors:
  - {id: a, label: A, highest_urgency: high, categories: [{id: x, label: X}]}
  - {id: a, label: A, highest_urgency: high, categories: [{id: y, label: Y}]}`,
		"bad field type": `
sectors:
  - id: a
    label: A
    highest_urgency: high
    fields: [{name: f, type: blob}]
    categories: [{id: x, label: X}]`,
		"enum without options": `
sectors:
  - id: a
    label: A
    highest_urgency: high
    fields: [{name: f, type: enum}]
    categories: [{id: x, label: X}]`,
		"risk out of range": `
sectors:
  - {id: a, label: A, highest_urgency: high, categories: [{id: x, label: X, base_risk: 11}]}`,
		"bad highest urgency": `
sectors:
  - {id: a, label: A, highest_urgency: severe, categories: [{id: x, label: X}]}`,
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseDefaultsBaseRisk(t *testing.T) {
	r, err := Parse([]byte(`
sectors:
  - {id: roads, label: Roads, highest_urgency: high, categories: [{id: pothole, label: Pothole}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := r.Category("roads", "pothole")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if c.BaseRisk != DefaultBaseRisk {
		t.Fatalf("expected base risk %d, got %d", DefaultBaseRisk, c.BaseRisk)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Version() == "" {
		t.Fatalf("expected catalog version")
	}
}
