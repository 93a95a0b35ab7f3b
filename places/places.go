package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"wayfarer/config"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
)

// Client wraps the Google Places and Geocoding web APIs. Lookups are cached
// in memory since the same destinations and activity names repeat heavily
// within a session.
type Client struct {
	placesKey    string
	geocodingKey string
	baseURL      string
	httpClient   *http.Client
	cache        *gocache.Cache
}

func NewClient() *Client {
	return &Client{
		placesKey:    config.GooglePlacesKey,
		geocodingKey: config.GoogleGeocodingKey,
		baseURL:      "https://maps.googleapis.com/maps/api",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cache:        gocache.New(30*time.Minute, 10*time.Minute),
	}
}

func (c *Client) Enabled() bool {
	return c.placesKey != ""
}

// Place is one Places API result.
type Place struct {
	Name             string   `json:"name"`
	PlaceID          string   `json:"place_id"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Vicinity         string   `json:"vicinity"`
	PriceLevel       int      `json:"price_level"`
}

type searchResponse struct {
	Results []struct {
		Name             string   `json:"name"`
		PlaceID          string   `json:"place_id"`
		Types            []string `json:"types"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		Vicinity         string   `json:"vicinity"`
		FormattedAddress string   `json:"formatted_address"`
		PriceLevel       int      `json:"price_level"`
	} `json:"results"`
	Status string `json:"status"`
}

// Search runs a nearby search when coordinates are given, otherwise a text
// search. Results are capped to 10.
func (c *Client) Search(ctx context.Context, query string, lat, lng float64, radius int, placeType string) ([]Place, error) {
	if !c.Enabled() {
		return nil, nil
	}

	hasLocation := lat != 0 || lng != 0
	cacheKey := fmt.Sprintf("search:%s:%f:%f:%d:%s", query, lat, lng, radius, placeType)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]Place), nil
	}

	var endpoint string
	q := url.Values{"key": {c.placesKey}}
	if hasLocation {
		endpoint = c.baseURL + "/place/nearbysearch/json"
		q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
		q.Set("radius", fmt.Sprint(radius))
		q.Set("keyword", query)
	} else {
		endpoint = c.baseURL + "/place/textsearch/json"
		q.Set("query", query)
	}
	if placeType != "" {
		q.Set("type", placeType)
	}

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places api status %s", payload.Status)
	}

	results := payload.Results
	if len(results) > 10 {
		results = results[:10]
	}
	out := make([]Place, 0, len(results))
	for _, r := range results {
		vicinity := r.Vicinity
		if vicinity == "" {
			vicinity = r.FormattedAddress
		}
		out = append(out, Place{
			Name:             r.Name,
			PlaceID:          r.PlaceID,
			Types:            r.Types,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			Vicinity:         vicinity,
			PriceLevel:       r.PriceLevel,
		})
	}

	c.cache.Set(cacheKey, out, gocache.DefaultExpiration)
	return out, nil
}

// EnrichActivity finds the best-rated place matching an activity name near
// the destination. Returns nil when nothing matches or the API is disabled.
func (c *Client) EnrichActivity(ctx context.Context, activityName string, lat, lng float64, placeType string) *Place {
	found, err := c.Search(ctx, activityName, lat, lng, 2000, placeType)
	if err != nil {
		log.Printf("place enrichment for %q failed: %v", activityName, err)
		return nil
	}
	if len(found) == 0 {
		return nil
	}
	best := lo.MaxBy(found, func(a, b Place) bool { return a.Rating > b.Rating })
	return &best
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Geocode resolves an address to coordinates. ok is false when the address
// cannot be resolved or no key is configured.
func (c *Client) Geocode(ctx context.Context, address string) (lat, lng float64, ok bool) {
	if c.geocodingKey == "" {
		return 0, 0, false
	}

	cacheKey := "geocode:" + address
	if cached, found := c.cache.Get(cacheKey); found {
		coords := cached.([2]float64)
		return coords[0], coords[1], true
	}

	q := url.Values{"address": {address}, "key": {c.geocodingKey}}
	var payload geocodeResponse
	if err := c.getJSON(ctx, c.baseURL+"/geocode/json?"+q.Encode(), &payload); err != nil {
		log.Printf("geocoding error for %q: %v", address, err)
		return 0, 0, false
	}
	if payload.Status != "OK" || len(payload.Results) == 0 {
		return 0, 0, false
	}

	loc := payload.Results[0].Geometry.Location
	c.cache.Set(cacheKey, [2]float64{loc.Lat, loc.Lng}, gocache.DefaultExpiration)
	return loc.Lat, loc.Lng, true
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("google api error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
