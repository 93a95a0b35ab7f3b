package models

// Activity is a single scheduled item in a day plan.
type Activity struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"` // "attraction", "restaurant", "activity", etc.
	Time        string  `json:"time"` // "morning", "afternoon", "evening"
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Notes       string  `json:"notes,omitempty"`

	// Google Places enrichment
	Rating           float64 `json:"rating,omitempty"`
	UserRatingsTotal int     `json:"user_ratings_total,omitempty"`

	Source  string `json:"source,omitempty"` // "suggested" or "user"
	OfferID string `json:"offer_id,omitempty"`
}

// DayPlan is one day of a session's itinerary. A day is expanded once it
// carries concrete activities; until then the session has no entry for it.
type DayPlan struct {
	DayNumber  int        `json:"day_number"`
	Date       string     `json:"date,omitempty"`
	Activities []Activity `json:"activities"`
	Notes      string     `json:"notes,omitempty"`
}

func (d *DayPlan) Clone() *DayPlan {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Activities = append([]Activity(nil), d.Activities...)
	return &cp
}

// Transportation mirrors one leg of the generated travel plan.
type Transportation struct {
	Type          string  `json:"type"` // "flight", "train", ...
	FromLocation  string  `json:"from_location"`
	ToLocation    string  `json:"to_location"`
	DepartureDate string  `json:"departure_date"`
	DepartureTime string  `json:"departure_time,omitempty"`
	ArrivalDate   string  `json:"arrival_date"`
	ArrivalTime   string  `json:"arrival_time,omitempty"`
	Airline       string  `json:"airline,omitempty"`
	FlightNumber  string  `json:"flight_number,omitempty"`
	ClassType     string  `json:"class_type,omitempty"`
	Price         float64 `json:"price,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Duration      string  `json:"duration,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

type Accommodation struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Location      string   `json:"location"`
	PricePerNight float64  `json:"price_per_night,omitempty"`
	TotalPrice    float64  `json:"total_price,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Address       string   `json:"address,omitempty"`
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
	Nights        int      `json:"nights"`
	Notes         string   `json:"notes,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
}

// DayItinerary is the slot-bucketed day shape the plan generator emits.
type DayItinerary struct {
	Date      string     `json:"date"`
	DayNumber int        `json:"day_number"`
	Morning   []Activity `json:"morning"`
	Afternoon []Activity `json:"afternoon"`
	Evening   []Activity `json:"evening"`
	Notes     string     `json:"notes,omitempty"`
}

type CostBreakdown struct {
	Transportation float64 `json:"transportation"`
	Accommodation  float64 `json:"accommodation"`
	Activities     float64 `json:"activities"`
	Food           float64 `json:"food"`
	LocalTransport float64 `json:"local_transport"`
	Total          float64 `json:"total"`
	Currency       string  `json:"currency,omitempty"`
	PerPerson      float64 `json:"per_person,omitempty"`
}

// TravelPlan is the complete generated plan.
type TravelPlan struct {
	PlanType     string `json:"plan_type"` // "budget", "balanced", "comfort", "customized"
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Travelers    int    `json:"travelers"`

	Transportation []Transportation `json:"transportation"`
	Accommodation  Accommodation    `json:"accommodation"`
	Itinerary      []DayItinerary   `json:"itinerary"`
	CostBreakdown  CostBreakdown    `json:"cost_breakdown"`

	Summary    string   `json:"summary,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
	Tips       []string `json:"tips,omitempty"`

	Finalized bool `json:"finalized,omitempty"`
}

func (p *TravelPlan) Clone() *TravelPlan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Transportation = append([]Transportation(nil), p.Transportation...)
	cp.Itinerary = make([]DayItinerary, len(p.Itinerary))
	for i, d := range p.Itinerary {
		d.Morning = append([]Activity(nil), d.Morning...)
		d.Afternoon = append([]Activity(nil), d.Afternoon...)
		d.Evening = append([]Activity(nil), d.Evening...)
		cp.Itinerary[i] = d
	}
	cp.Highlights = append([]string(nil), p.Highlights...)
	cp.Tips = append([]string(nil), p.Tips...)
	cp.Accommodation.Amenities = append([]string(nil), p.Accommodation.Amenities...)
	return &cp
}

// PlanDraft is the raw plan shape the language model returns before it is
// parsed into a TravelPlan.
type PlanDraft struct {
	PlanType       string         `json:"plan_type"`
	Summary        string         `json:"summary"`
	Transportation Transportation `json:"transportation"`
	Accommodation  Accommodation  `json:"accommodation"`
	Itinerary      []DayItinerary `json:"itinerary"`
	CostBreakdown  CostBreakdown  `json:"cost_breakdown"`
	Highlights     []string       `json:"highlights"`
	Tips           []string       `json:"tips"`
}
