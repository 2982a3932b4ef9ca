package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/safereport/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Confidence  float64
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (Result, error)
}

// BuildQuery joins the non-empty parts from most to least specific.
func BuildQuery(location string, community string, country string) string {
	parts := []string{}
	for _, p := range []string{location, community, country} {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// QueryFor builds the lookup text for a report from its location and community details.
func QueryFor(r models.Report, country string) string {
	community, _ := r.Details["communityName"].(string)
	if strings.TrimSpace(r.Location) == "" && strings.TrimSpace(community) == "" {
		return ""
	}
	return BuildQuery(r.Location, community, country)
}

// ShouldGeocode reports whether r still lacks coordinates.
func ShouldGeocode(r models.Report) bool {
	return r.Lat == nil || r.Lon == nil
}
