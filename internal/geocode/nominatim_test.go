package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseNominatimItems(t *testing.T) {
	items := []nominatimItem{
		{
			Lat:         "-1.3133",
			Lon:         "36.7876",
			DisplayName: "Kibera, Nairobi, Kenya",
			Importance:  0.61,
		},
	}
	res, err := parseNominatimItems(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lat != -1.3133 || res.Lon != 36.7876 {
		t.Fatalf("unexpected coordinates: %+v", res)
	}
	if res.DisplayName != "Kibera, Nairobi, Kenya" {
		t.Fatalf("unexpected display name: %s", res.DisplayName)
	}
	if res.Confidence != 0.61 {
		t.Fatalf("unexpected confidence: %f", res.Confidence)
	}
}

func TestParseNominatimItemsEmpty(t *testing.T) {
	if _, err := parseNominatimItems(nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNominatimGeocodeCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "Kibera, Kenya" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"-1.3133","lon":"36.7876","display_name":"Kibera","importance":0.5}]`))
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL, MinInterval: time.Millisecond}
	for i := 0; i < 2; i++ {
		res, err := g.Geocode(context.Background(), "Kibera, Kenya")
		if err != nil {
			t.Fatalf("geocode: %v", err)
		}
		if res.Lat != -1.3133 {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected one upstream request, got %d", got)
	}
}
