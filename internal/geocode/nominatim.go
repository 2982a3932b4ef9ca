package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Timeout     time.Duration

	once    sync.Once
	client  *resty.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]Result
}

type nominatimItem struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

func (g *NominatimGeocoder) init() {
	if g.BaseURL == "" {
		g.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if g.UserAgent == "" {
		g.UserAgent = "safereport-intake"
	}
	if g.MinInterval <= 0 {
		g.MinInterval = time.Second
	}
	if g.Timeout <= 0 {
		g.Timeout = 10 * time.Second
	}
	g.client = resty.New().
		SetBaseURL(g.BaseURL).
		SetTimeout(g.Timeout).
		SetHeader("User-Agent", g.UserAgent)
	g.limiter = rate.NewLimiter(rate.Every(g.MinInterval), 1)
	g.cache = map[string]Result{}
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Result, error) {
	g.once.Do(g.init)

	g.mu.Lock()
	if cached, ok := g.cache[query]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	var items []nominatimItem
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&items).
		Get("/search")
	if err != nil {
		return Result{}, err
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("nominatim http error: %s", resp.Status())
	}

	result, err := parseNominatimItems(items)
	if err != nil {
		return Result{}, err
	}

	g.mu.Lock()
	g.cache[query] = result
	g.mu.Unlock()

	return result, nil
}

func parseNominatimItems(items []nominatimItem) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrNotFound
	}
	lat, err := strconv.ParseFloat(items[0].Lat, 64)
	if err != nil {
		return Result{}, err
	}
	lon, err := strconv.ParseFloat(items[0].Lon, 64)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Lat:         lat,
		Lon:         lon,
		DisplayName: items[0].DisplayName,
		Confidence:  items[0].Importance,
	}
	if errors.Is(resultErr(result), ErrNotFound) {
		return Result{}, ErrNotFound
	}
	return result, nil
}

func resultErr(res Result) error {
	if res.Lat == 0 && res.Lon == 0 && res.DisplayName == "" {
		return ErrNotFound
	}
	return nil
}
