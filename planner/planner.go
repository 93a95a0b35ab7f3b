package planner

import (
	"context"
	"fmt"
	"log"
	"time"

	"wayfarer/flights"
	"wayfarer/models"
	"wayfarer/places"
)

// Collaborator is the language-understanding boundary the planner depends
// on. Every call is a single fallible suspend point; the planner never
// retries internally.
type Collaborator interface {
	GeneratePlan(ctx context.Context, req models.TravelRequest, duration int) (*models.PlanDraft, error)
	ModifyPlan(ctx context.Context, current *models.TravelPlan, userMessage string, history []models.ConversationTurn) (*models.TravelPlan, error)
	ModifyDay(ctx context.Context, trip *models.TripInfo, day *models.DayPlan, userMessage string, history []models.ConversationTurn) (*models.DayPlan, string, []string, error)
}

// FlightSearcher is the flight sub-agent contract.
type FlightSearcher interface {
	SearchOffers(ctx context.Context, trip *models.TripInfo, selected []models.Activity) ([]models.Offer, error)
}

// PlaceEnricher resolves place names to real place data.
type PlaceEnricher interface {
	Enabled() bool
	Geocode(ctx context.Context, address string) (lat, lng float64, ok bool)
	EnrichActivity(ctx context.Context, name string, lat, lng float64, placeType string) *places.Place
}

// Planner generates complete travel plans by combining the language model's
// draft with real flight and place data.
type Planner struct {
	llm     Collaborator
	flights FlightSearcher
	places  PlaceEnricher
}

func New(llm Collaborator, fs FlightSearcher, pe PlaceEnricher) *Planner {
	return &Planner{llm: llm, flights: fs, places: pe}
}

// TripDuration returns the inclusive day count between two YYYY-MM-DD dates.
func TripDuration(startDate, endDate string) (int, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid start_date", models.ErrValidation)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid end_date", models.ErrValidation)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// ValidateRequest mirrors the transport-level checks: locations present,
// start not in the past, end after start, at most 30 days.
func ValidateRequest(req models.TravelRequest) error {
	if req.Source == "" {
		return fmt.Errorf("%w: please enter a source location", models.ErrValidation)
	}
	if req.Destination == "" {
		return fmt.Errorf("%w: please enter a destination", models.ErrValidation)
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return fmt.Errorf("%w: invalid start_date", models.ErrValidation)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return fmt.Errorf("%w: invalid end_date", models.ErrValidation)
	}
	today := time.Now().Truncate(24 * time.Hour)
	if start.Before(today) {
		return fmt.Errorf("%w: start date cannot be in the past", models.ErrValidation)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end date must be after start date", models.ErrValidation)
	}
	days := int(end.Sub(start).Hours() / 24)
	if days > 30 {
		return fmt.Errorf("%w: maximum trip duration is 30 days", models.ErrValidation)
	}
	return nil
}

// GenerateTravelPlan builds one customized plan: LLM draft, real flight data
// when available, place enrichment when the destination geocodes.
func (p *Planner) GenerateTravelPlan(ctx context.Context, req models.TravelRequest) (*models.TravelPlan, error) {
	duration, err := TripDuration(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	draft, err := p.llm.GeneratePlan(ctx, req, duration)
	if err != nil {
		return nil, err
	}

	// Prefer the caller's pinned flight; otherwise try a real search and
	// keep the cheapest offer in the price band. Flight data is optional
	// enrichment, never a reason to fail the plan.
	offer := req.SelectedOffer
	if offer == nil && p.flights != nil {
		trip := req.TripInfo(duration)
		found, err := p.flights.SearchOffers(ctx, trip, nil)
		if err != nil {
			log.Printf("could not fetch flight data: %v, using model estimates", err)
		} else if len(found) > 0 {
			banded := flights.FilterByPrice(found, req.FlightPriceMin, req.FlightPriceMax)
			if best, ok := flights.BestOffer(banded, "price"); ok {
				offer = &best
			}
		}
	}

	if p.places != nil && p.places.Enabled() {
		if lat, lng, ok := p.places.Geocode(ctx, req.Destination); ok {
			p.enrichItinerary(ctx, draft.Itinerary, lat, lng)
		}
	}

	return p.assemblePlan(draft, req, duration, offer), nil
}

func (p *Planner) enrichItinerary(ctx context.Context, itinerary []models.DayItinerary, lat, lng float64) {
	enrichSlot := func(activities []models.Activity) {
		for i := range activities {
			act := &activities[i]
			if act.Name == "" {
				continue
			}
			placeType := "restaurant"
			if act.Type == "attraction" {
				placeType = "tourist_attraction"
			}
			if place := p.places.EnrichActivity(ctx, act.Name, lat, lng, placeType); place != nil {
				act.Rating = place.Rating
				act.Location = place.Vicinity
				act.UserRatingsTotal = place.UserRatingsTotal
			}
		}
	}
	for i := range itinerary {
		enrichSlot(itinerary[i].Morning)
		enrichSlot(itinerary[i].Afternoon)
		enrichSlot(itinerary[i].Evening)
	}
}

func (p *Planner) assemblePlan(draft *models.PlanDraft, req models.TravelRequest, duration int, offer *models.Offer) *models.TravelPlan {
	transport := draft.Transportation
	transport.Type = valueOr(transport.Type, "flight")
	transport.FromLocation = req.Source
	transport.ToLocation = req.Destination
	transport.DepartureDate = req.StartDate
	transport.ArrivalDate = req.StartDate
	if req.TripType == "return" {
		transport.ArrivalDate = req.EndDate
	}
	transport.ClassType = valueOr(transport.ClassType, req.FlightClass)
	if transport.Notes == "" {
		if req.TripType == "return" {
			transport.Notes = "Round trip flight"
		} else {
			transport.Notes = "One-way flight"
		}
	}
	if offer != nil {
		transport.Airline = offer.Airline
		transport.FlightNumber = offer.FlightNumber
		transport.DepartureTime = offer.DepartureTime
		transport.ArrivalTime = offer.ArrivalTime
		transport.Duration = offer.Duration
		if offer.Price > 0 {
			transport.Price = offer.Price
		}
	}

	accom := draft.Accommodation
	accom.Name = valueOr(accom.Name, "Hotel")
	accom.Type = "hotel"
	hotelLocation := req.HotelAddress
	if hotelLocation == "" {
		hotelLocation = valueOr(accom.Address, req.Destination)
	}
	accom.Location = hotelLocation
	accom.Address = hotelLocation
	accom.CheckIn = req.StartDate
	accom.CheckOut = req.EndDate
	accom.Nights = duration

	if len(draft.Itinerary) < duration {
		log.Printf("model only generated %d days, expected %d", len(draft.Itinerary), duration)
	}
	itinerary := make([]models.DayItinerary, len(draft.Itinerary))
	for i, day := range draft.Itinerary {
		if day.DayNumber == 0 {
			day.DayNumber = i + 1
		}
		fillSlotTimes(day.Morning, "morning")
		fillSlotTimes(day.Afternoon, "afternoon")
		fillSlotTimes(day.Evening, "evening")
		itinerary[i] = day
	}

	return &models.TravelPlan{
		PlanType:       derivePlanType(req),
		Source:         req.Source,
		Destination:    req.Destination,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		DurationDays:   duration,
		Travelers:      req.Travelers,
		Transportation: []models.Transportation{transport},
		Accommodation:  accom,
		Itinerary:      itinerary,
		CostBreakdown:  draft.CostBreakdown,
		Summary:        draft.Summary,
		Highlights:     draft.Highlights,
		Tips:           draft.Tips,
	}
}

func fillSlotTimes(activities []models.Activity, slot string) {
	for i := range activities {
		if activities[i].Time == "" {
			activities[i].Time = slot
		}
	}
}

func derivePlanType(req models.TravelRequest) string {
	switch {
	case (req.FlightClass == "first" || req.FlightClass == "business") && req.HotelPriceMax > 300:
		return "comfort"
	case req.FlightClass == "economy" && req.HotelPriceMax < 150:
		return "budget"
	default:
		return "balanced"
	}
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
