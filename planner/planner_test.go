package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"wayfarer/models"
)

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestTripDuration(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2027-03-01", "2027-03-01", 1},
		{"2027-03-01", "2027-03-05", 5},
		{"2027-12-30", "2028-01-02", 4},
	}
	for _, tt := range tests {
		got, err := TripDuration(tt.start, tt.end)
		if err != nil {
			t.Fatalf("TripDuration(%s, %s): %v", tt.start, tt.end, err)
		}
		if got != tt.want {
			t.Errorf("TripDuration(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}

	if _, err := TripDuration("not-a-date", "2027-03-05"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestValidateRequest(t *testing.T) {
	valid := models.TravelRequest{
		Source:      "San Francisco",
		Destination: "Maui",
		StartDate:   futureDate(30),
		EndDate:     futureDate(35),
		Travelers:   2,
	}
	if err := ValidateRequest(valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.TravelRequest)
		want   string
	}{
		{"missing source", func(r *models.TravelRequest) { r.Source = "" }, "source"},
		{"missing destination", func(r *models.TravelRequest) { r.Destination = "" }, "destination"},
		{"past start", func(r *models.TravelRequest) { r.StartDate = "2020-01-01"; r.EndDate = "2020-01-05" }, "past"},
		{"end before start", func(r *models.TravelRequest) { r.EndDate = r.StartDate }, "after"},
		{"too long", func(r *models.TravelRequest) { r.EndDate = futureDate(90) }, "30 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateRequest(req)
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDerivePlanType(t *testing.T) {
	tests := []struct {
		class string
		max   float64
		want  string
	}{
		{"business", 400, "comfort"},
		{"first", 500, "comfort"},
		{"economy", 100, "budget"},
		{"economy", 200, "balanced"},
		{"premium_economy", 100, "balanced"},
	}
	for _, tt := range tests {
		got := derivePlanType(models.TravelRequest{FlightClass: tt.class, HotelPriceMax: tt.max})
		if got != tt.want {
			t.Errorf("derivePlanType(%s, %.0f) = %q, want %q", tt.class, tt.max, got, tt.want)
		}
	}
}

func TestAssemblePlanMergesOfferAndDefaults(t *testing.T) {
	p := New(nil, nil, nil)
	req := models.TravelRequest{
		Source: "San Francisco", Destination: "Maui",
		StartDate: "2027-03-01", EndDate: "2027-03-05",
		Travelers: 2, TripType: "return", FlightClass: "economy",
		HotelAddress: "Kaanapali Beach",
	}
	draft := &models.PlanDraft{
		Summary: "Five days of beaches.",
		Itinerary: []models.DayItinerary{
			{Morning: []models.Activity{{Name: "Surf lesson"}}},
			{DayNumber: 2, Evening: []models.Activity{{Name: "Luau", Time: "evening"}}},
		},
	}
	offer := &models.Offer{
		Airline: "Hawaiian Airlines", FlightNumber: "HA 101",
		DepartureTime: "08:30", ArrivalTime: "11:15", Duration: "5h 45m", Price: 640,
	}

	plan := p.assemblePlan(draft, req, 5, offer)

	tr := plan.Transportation[0]
	if tr.Airline != "Hawaiian Airlines" || tr.Price != 640 {
		t.Errorf("offer not merged: %+v", tr)
	}
	if tr.ArrivalDate != "2027-03-05" {
		t.Errorf("return trip arrival date = %q, want end date", tr.ArrivalDate)
	}
	if plan.Accommodation.Address != "Kaanapali Beach" {
		t.Errorf("hotel address not honored: %+v", plan.Accommodation)
	}
	if plan.Accommodation.Nights != 5 {
		t.Errorf("nights = %d, want 5", plan.Accommodation.Nights)
	}
	if plan.Itinerary[0].DayNumber != 1 || plan.Itinerary[1].DayNumber != 2 {
		t.Errorf("day numbers not filled: %+v", plan.Itinerary)
	}
	if plan.Itinerary[0].Morning[0].Time != "morning" {
		t.Error("slot time not defaulted")
	}
}

func TestGenerateTravelPlanPropagatesDraftError(t *testing.T) {
	p := New(&failingGenerator{}, nil, nil)

	req := models.TravelRequest{
		Source: "San Francisco", Destination: "Maui",
		StartDate: "2027-03-01", EndDate: "2027-03-05", Travelers: 2,
	}
	if _, err := p.GenerateTravelPlan(context.Background(), req); err == nil {
		t.Fatal("expected the draft failure to propagate")
	}
}

type stubFlights struct{ offers []models.Offer }

func (s stubFlights) SearchOffers(_ context.Context, _ *models.TripInfo, _ []models.Activity) ([]models.Offer, error) {
	return s.offers, nil
}

func TestGenerateTravelPlanPicksCheapestFlight(t *testing.T) {
	fs := stubFlights{offers: []models.Offer{
		{ID: "f-mid", Kind: "flight", Airline: "United Airlines", FlightNumber: "UA200", Price: 650, Currency: "USD"},
		{ID: "f-cheap", Kind: "flight", Airline: "Hawaiian Airlines", FlightNumber: "HA11", Price: 410, Currency: "USD"},
		{ID: "f-dear", Kind: "flight", Airline: "Delta Air Lines", FlightNumber: "DL88", Price: 930, Currency: "USD"},
	}}
	p := New(&stubCollaborator{}, fs, nil)

	req := models.TravelRequest{
		Source: "San Francisco", Destination: "Maui",
		StartDate: "2027-03-01", EndDate: "2027-03-05", Travelers: 2,
	}
	plan, err := p.GenerateTravelPlan(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateTravelPlan: %v", err)
	}
	transport := plan.Transportation[0]
	if transport.Airline != "Hawaiian Airlines" || transport.Price != 410 {
		t.Errorf("picked %s at %v, want the cheapest offer", transport.Airline, transport.Price)
	}
}

type failingGenerator struct{ stubCollaborator }

func (f *failingGenerator) GeneratePlan(_ context.Context, _ models.TravelRequest, _ int) (*models.PlanDraft, error) {
	return nil, models.ErrCollaboratorFailure
}
