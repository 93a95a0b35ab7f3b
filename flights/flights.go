package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"wayfarer/config"
	"wayfarer/models"

	"github.com/samber/lo"
)

// Client searches flight offers through the Amadeus self-service API, or
// generates plausible offers when no credentials are configured. It takes a
// read-only trip projection and returns offers; it never sees a session.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient() *Client {
	base := "https://test.api.amadeus.com"
	if config.AmadeusEnvironment == "production" {
		base = "https://api.amadeus.com"
	}
	return &Client{
		clientID:     config.AmadeusClientID,
		clientSecret: config.AmadeusClientSecret,
		baseURL:      base,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) UseMockData() bool {
	return c.clientID == "" || c.clientSecret == ""
}

// SearchOffers returns flight offers for the trip, cheapest first. Selected
// activities are only carried through as linkage on the offers. API failures
// fall back to generated data so a search request never dead-ends.
func (c *Client) SearchOffers(ctx context.Context, trip *models.TripInfo, selected []models.Activity) ([]models.Offer, error) {
	if trip == nil || trip.Source == "" || trip.Destination == "" {
		return nil, fmt.Errorf("%w: trip origin and destination are required", models.ErrValidation)
	}

	returnDate := ""
	if trip.TripType == "return" {
		returnDate = trip.EndDate
	}

	var offers []models.Offer
	if c.UseMockData() {
		offers = c.generateMockOffers(trip, returnDate)
	} else {
		real, err := c.searchAmadeus(ctx, trip, returnDate)
		if err != nil {
			log.Printf("amadeus flight search failed: %v (using generated data)", err)
			offers = c.generateMockOffers(trip, returnDate)
		} else {
			offers = real
		}
	}

	activityIDs := lo.Map(selected, func(a models.Activity, _ int) string { return a.ID })
	for i := range offers {
		offers[i].ActivityIDs = activityIDs
	}

	sort.Slice(offers, func(i, j int) bool { return offers[i].Price < offers[j].Price })
	return offers, nil
}

// FilterByPrice keeps offers inside [min, max]. When nothing matches the
// full list is returned, so the caller always has something to show.
func FilterByPrice(offers []models.Offer, min, max float64) []models.Offer {
	filtered := lo.Filter(offers, func(o models.Offer, _ int) bool {
		return o.Price >= min && o.Price <= max
	})
	if len(filtered) == 0 {
		return offers
	}
	return filtered
}

// BestOffer picks one offer by preference: "price", "duration" or "direct".
func BestOffer(offers []models.Offer, preference string) (models.Offer, bool) {
	if len(offers) == 0 {
		return models.Offer{}, false
	}
	switch preference {
	case "duration":
		return lo.MinBy(offers, func(a, b models.Offer) bool {
			return durationMinutes(a.Duration) < durationMinutes(b.Duration)
		}), true
	case "direct":
		direct := lo.Filter(offers, func(o models.Offer, _ int) bool { return o.Stops == 0 })
		if len(direct) > 0 {
			return direct[0], true
		}
		return offers[0], true
	default:
		return lo.MinBy(offers, func(a, b models.Offer) bool { return a.Price < b.Price }), true
	}
}

func durationMinutes(s string) int {
	var h, m int
	fmt.Sscanf(strings.ReplaceAll(s, "m", ""), "%dh %d", &h, &m)
	if h == 0 && m == 0 {
		return 1 << 30
	}
	return h*60 + m
}

// --- Amadeus API ---

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("amadeus token request: %s", resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	c.token = payload.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(payload.ExpiresIn-30) * time.Second)
	return c.token, nil
}

var travelClassMap = map[string]string{
	"economy":         "ECONOMY",
	"premium_economy": "PREMIUM_ECONOMY",
	"business":        "BUSINESS",
	"first":           "FIRST",
}

func (c *Client) searchAmadeus(ctx context.Context, trip *models.TripInfo, returnDate string) ([]models.Offer, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	travelClass, ok := travelClassMap[strings.ToLower(trip.FlightClass)]
	if !ok {
		travelClass = "ECONOMY"
	}

	q := url.Values{
		"originLocationCode":      {strings.ToUpper(trip.Source)},
		"destinationLocationCode": {strings.ToUpper(trip.Destination)},
		"departureDate":           {trip.StartDate},
		"adults":                  {fmt.Sprint(trip.Travelers)},
		"travelClass":             {travelClass},
		"currencyCode":            {"USD"},
		"max":                     {"50"},
	}
	if returnDate != "" {
		q.Set("returnDate", returnDate)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("amadeus flight offers: %s", resp.Status)
	}

	var payload struct {
		Data []amadeusOffer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return parseAmadeusOffers(payload.Data, returnDate), nil
}

type amadeusOffer struct {
	ID          string `json:"id"`
	Itineraries []struct {
		Duration string `json:"duration"`
		Segments []struct {
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Departure   struct {
				At string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				At string `json:"at"`
			} `json:"arrival"`
		} `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
	TravelerPricings []struct {
		FareDetailsBySegment []struct {
			Cabin string `json:"cabin"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

func parseAmadeusOffers(data []amadeusOffer, returnDate string) []models.Offer {
	offers := make([]models.Offer, 0, len(data))
	for _, raw := range data {
		if len(raw.Itineraries) == 0 || len(raw.Itineraries[0].Segments) == 0 {
			continue
		}

		out := raw.Itineraries[0]
		first, last := out.Segments[0], out.Segments[len(out.Segments)-1]

		var price float64
		fmt.Sscanf(raw.Price.Total, "%f", &price)
		currency := raw.Price.Currency
		if currency == "" {
			currency = "USD"
		}

		classType := "economy"
		if len(raw.TravelerPricings) > 0 && len(raw.TravelerPricings[0].FareDetailsBySegment) > 0 {
			switch raw.TravelerPricings[0].FareDetailsBySegment[0].Cabin {
			case "PREMIUM_ECONOMY":
				classType = "premium_economy"
			case "BUSINESS":
				classType = "business"
			case "FIRST":
				classType = "first"
			}
		}

		offer := models.Offer{
			ID:            raw.ID,
			Kind:          "flight",
			Provider:      "amadeus",
			Price:         price,
			Currency:      currency,
			Airline:       airlineName(first.CarrierCode),
			FlightNumber:  first.CarrierCode + first.Number,
			DepartureTime: clockPart(first.Departure.At),
			ArrivalTime:   clockPart(last.Arrival.At),
			Duration:      formatISODuration(out.Duration),
			ClassType:     classType,
			Stops:         len(out.Segments) - 1,
			TripType:      "one_way",
		}

		if returnDate != "" {
			offer.TripType = "return"
			offer.ReturnDate = returnDate
			if len(raw.Itineraries) > 1 && len(raw.Itineraries[1].Segments) > 0 {
				ret := raw.Itineraries[1]
				rFirst, rLast := ret.Segments[0], ret.Segments[len(ret.Segments)-1]
				offer.ReturnAirline = airlineName(rFirst.CarrierCode)
				offer.ReturnFlightNumber = rFirst.CarrierCode + rFirst.Number
				offer.ReturnDepartureTime = clockPart(rFirst.Departure.At)
				offer.ReturnArrivalTime = clockPart(rLast.Arrival.At)
				offer.ReturnDuration = formatISODuration(ret.Duration)
				offer.ReturnStops = len(ret.Segments) - 1
				if len(rFirst.Departure.At) >= 10 {
					offer.ReturnDate = rFirst.Departure.At[:10]
				}
			}
		}

		offers = append(offers, offer)
	}
	return offers
}

// clockPart trims an ISO timestamp down to HH:MM.
func clockPart(at string) string {
	if len(at) >= 16 {
		return at[11:16]
	}
	return ""
}

// formatISODuration converts PT5H30M into "5h 30m".
func formatISODuration(d string) string {
	if !strings.HasPrefix(d, "PT") {
		return d
	}
	rest := d[2:]
	var hours, minutes int
	if i := strings.Index(rest, "H"); i >= 0 {
		fmt.Sscanf(rest[:i], "%d", &hours)
		rest = rest[i+1:]
	}
	if i := strings.Index(rest, "M"); i >= 0 {
		fmt.Sscanf(rest[:i], "%d", &minutes)
	}
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	}
	return "N/A"
}

var airlineNames = map[string]string{
	"AA": "American Airlines",
	"UA": "United Airlines",
	"DL": "Delta Air Lines",
	"BA": "British Airways",
	"AF": "Air France",
	"LH": "Lufthansa",
	"KL": "KLM",
	"VS": "Virgin Atlantic",
	"EK": "Emirates",
	"SQ": "Singapore Airlines",
	"B6": "JetBlue Airways",
	"AS": "Alaska Airlines",
	"WN": "Southwest Airlines",
}

func airlineName(code string) string {
	if name, ok := airlineNames[code]; ok {
		return name
	}
	return "Airline " + code
}
