package hotels

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"wayfarer/models"

	"github.com/samber/lo"
)

// Geocoder resolves a landmark address to coordinates. The places client
// satisfies this; a nil or disabled geocoder degrades to generated
// distances.
type Geocoder interface {
	Enabled() bool
	Geocode(ctx context.Context, address string) (lat, lng float64, ok bool)
}

// Client searches accommodation offers. The Amadeus hotel flow is a
// two-step city-listing-then-offers call; this client keeps the generated
// path, which mirrors that API's shape and pricing tiers. Like the flight
// dispatcher it takes a read-only trip projection and returns offers.
type Client struct {
	geo Geocoder
}

func NewClient(geo Geocoder) *Client {
	return &Client{geo: geo}
}

type tier struct {
	name      string
	priceLow  int
	priceHigh int
	ratingLow float64
	ratingHi  float64
	amenities []string
}

var tiers = []tier{
	{"budget", 60, 100, 2.5, 3.5, []string{"Free WiFi", "Parking"}},
	{"mid", 100, 180, 3.5, 4.0, []string{"Free WiFi", "Gym", "Restaurant", "Parking"}},
	{"upscale", 180, 350, 4.0, 4.5, []string{"Free WiFi", "Pool", "Spa", "Gym", "Restaurant", "Room Service"}},
	{"luxury", 350, 800, 4.5, 5.0, []string{"Free WiFi", "Pool", "Spa", "Gym", "Restaurant", "Room Service"}},
}

var hotelChains = []string{
	"Marriott", "Hilton", "Hyatt", "InterContinental",
	"Radisson", "Best Western", "Holiday Inn", "Sheraton",
	"Westin", "Four Seasons", "Ritz-Carlton", "W Hotels",
}

var hotelTypes = []string{"Hotel", "Inn", "Resort", "Suites", "Plaza", "Grand Hotel"}

var streets = []string{"Main St", "Central Ave", "Park Blvd", "Market St"}

// SearchOffers returns accommodation offers for the trip, cheapest first,
// filtered to the trip's nightly price band when one is set. When the
// hotel address (or destination) geocodes, each offer's distance is the
// great-circle distance to that landmark; otherwise distances are drawn
// from the generated range.
func (c *Client) SearchOffers(ctx context.Context, trip *models.TripInfo, selected []models.Activity) ([]models.Offer, error) {
	if trip == nil || trip.Destination == "" {
		return nil, fmt.Errorf("%w: trip destination is required", models.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nights := trip.DurationDays
	if nights < 1 {
		nights = 1
	}

	var landmark *coords
	if c.geo != nil && c.geo.Enabled() {
		address := trip.HotelAddress
		if address == "" {
			address = trip.Destination
		}
		if lat, lng, ok := c.geo.Geocode(ctx, address); ok {
			landmark = &coords{lat, lng}
		}
	}

	offers := c.generateOffers(trip, nights, landmark)

	if trip.HotelPriceMin > 0 || trip.HotelPriceMax > 0 {
		max := trip.HotelPriceMax
		if max == 0 {
			max = math.MaxFloat64
		}
		banded := lo.Filter(offers, func(o models.Offer, _ int) bool {
			return o.PricePerNight >= trip.HotelPriceMin && o.PricePerNight <= max
		})
		if len(banded) > 0 {
			offers = banded
		}
	}

	activityIDs := lo.Map(selected, func(a models.Activity, _ int) string { return a.ID })
	for i := range offers {
		offers[i].ActivityIDs = activityIDs
	}

	sort.Slice(offers, func(i, j int) bool { return offers[i].PricePerNight < offers[j].PricePerNight })
	return offers, nil
}

type coords struct {
	lat, lng float64
}

func (c *Client) generateOffers(trip *models.TripInfo, nights int, landmark *coords) []models.Offer {
	n := 8 + rand.Intn(8)
	offers := make([]models.Offer, 0, n)
	for i := 0; i < n; i++ {
		t := tiers[rand.Intn(len(tiers))]
		perNight := float64(t.priceLow + rand.Intn(t.priceHigh-t.priceLow+1))

		var distance float64
		if landmark != nil {
			// scatter the property within ~10 km of the landmark and
			// measure the real great-circle distance
			hotelLat := landmark.lat + (rand.Float64()-0.5)*0.17
			hotelLng := landmark.lng + (rand.Float64()-0.5)*0.17
			distance = Haversine(landmark.lat, landmark.lng, hotelLat, hotelLng)
		} else {
			distance = 0.5 + rand.Float64()*9.5
		}

		// closer to the center costs more
		switch {
		case distance < 2:
			perNight = math.Floor(perNight * 1.3)
		case distance < 5:
			perNight = math.Floor(perNight * 1.1)
		}

		offers = append(offers, models.Offer{
			ID:            fmt.Sprintf("HTL-%d-%d", time.Now().Unix()%100000, i),
			Kind:          "accommodation",
			Provider:      "demo",
			HotelName:     fmt.Sprintf("%s %s %s", hotelChains[rand.Intn(len(hotelChains))], hotelTypes[rand.Intn(len(hotelTypes))], trip.Destination),
			Address:       fmt.Sprintf("%d %s", 1+rand.Intn(200), streets[rand.Intn(len(streets))]),
			PricePerNight: perNight,
			Price:         perNight * float64(nights),
			Currency:      "USD",
			Rating:        math.Round((t.ratingLow+rand.Float64()*(t.ratingHi-t.ratingLow))*10) / 10,
			DistanceKm:    math.Round(distance*100) / 100,
		})
	}
	return offers
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BestOffer picks one offer by preference: "price", "distance" or "rating".
func BestOffer(offers []models.Offer, preference string) (models.Offer, bool) {
	if len(offers) == 0 {
		return models.Offer{}, false
	}
	switch preference {
	case "distance":
		return lo.MinBy(offers, func(a, b models.Offer) bool { return a.DistanceKm < b.DistanceKm }), true
	case "rating":
		return lo.MaxBy(offers, func(a, b models.Offer) bool { return a.Rating > b.Rating }), true
	default:
		return lo.MinBy(offers, func(a, b models.Offer) bool { return a.PricePerNight < b.PricePerNight }), true
	}
}
