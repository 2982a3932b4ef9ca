package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/safereport/backend/internal/models"
)

func TestCheckFieldsMissingRequired(t *testing.T) {
	r := mustDefault(t)
	_, err := r.CheckFields(models.SectorEducation, "teacher_absence", map[string]any{
		"description": "teacher missing all week",
		"schoolName":  "   ",
	})
	var fe *FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if diff := cmp.Diff([]string{"stakeholder", "schoolName"}, fe.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if fe.Invalid != nil {
		t.Fatalf("expected no invalid fields, got %v", fe.Invalid)
	}
}

func TestCheckFieldsTypes(t *testing.T) {
	r := mustDefault(t)
	_, err := r.CheckFields(models.SectorWater, "contamination", map[string]any{
		"description":        "brown water from the tap",
		"communityName":      "Kibera",
		"householdsAffected": -3.0,
		"incidentDate":       "yesterday",
		"contactPhone":       "call me",
		"waterSource":        "lake",
	})
	var fe *FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, name := range []string{"householdsAffected", "incidentDate", "contactPhone", "waterSource"} {
		if _, ok := fe.Invalid[name]; !ok {
			t.Errorf("expected %s to be invalid, got %v", name, fe.Invalid)
		}
	}
	if len(fe.Missing) != 0 {
		t.Fatalf("unexpected missing %v", fe.Missing)
	}
}

func TestCheckFieldsCleansValues(t *testing.T) {
	r := mustDefault(t)
	clean, err := r.CheckFields(models.SectorWater, "water_shortage", map[string]any{
		"description":        "  pump broken two weeks ",
		"communityName":      "Kibera",
		"householdsAffected": 12,
		"contactPhone":       "+254 712 345678",
		"survivorAgeGroup":   "adult",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := map[string]any{
		"description":        "pump broken two weeks",
		"communityName":      "Kibera",
		"householdsAffected": 12.0,
		"contactPhone":       "+254 712 345678",
	}
	if diff := cmp.Diff(want, clean); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckFieldsUnknownCategory(t *testing.T) {
	r := mustDefault(t)
	if _, err := r.CheckFields(models.SectorWater, "rape_sexual_assault", nil); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}
