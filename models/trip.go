package models

// TripInfo holds the confirmed trip parameters a session plans against.
// Immutable once confirmed except through an explicit update.
type TripInfo struct {
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Travelers    int    `json:"travelers"`
	TripType     string `json:"trip_type"` // "one_way" or "return"

	FlightClass    string  `json:"flight_class"` // economy/premium_economy/business/first
	FlightPriceMin float64 `json:"flight_price_min"`
	FlightPriceMax float64 `json:"flight_price_max"`

	HotelAddress  string  `json:"hotel_address,omitempty"`
	HotelPriceMin float64 `json:"hotel_price_min"`
	HotelPriceMax float64 `json:"hotel_price_max"`

	InterestCategories []string `json:"interest_categories"`
	ActivityLevel      string   `json:"activity_level"` // relaxed/moderate/active

	Confirmed bool `json:"confirmed"`
}

// Complete reports whether enough is known to start planning.
func (t *TripInfo) Complete() bool {
	return t != nil && t.Source != "" && t.Destination != "" &&
		t.DurationDays >= 1 && t.Travelers >= 1
}

// TravelRequest is the one-shot plan-generation input (stateless mode).
type TravelRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Travelers   int    `json:"travelers"`
	TripType    string `json:"trip_type"`

	FlightClass    string  `json:"flight_class"`
	FlightPriceMin float64 `json:"flight_price_min"`
	FlightPriceMax float64 `json:"flight_price_max"`

	HotelAddress  string  `json:"hotel_address,omitempty"`
	HotelPriceMin float64 `json:"hotel_price_min"`
	HotelPriceMax float64 `json:"hotel_price_max"`

	InterestCategories []string `json:"interest_categories"`
	ActivityLevel      string   `json:"activity_level"`

	// SelectedOffer lets the caller pin a flight picked from a prior search.
	SelectedOffer *Offer `json:"selected_offer,omitempty"`
}

func (r *TravelRequest) TripInfo(duration int) *TripInfo {
	return &TripInfo{
		Source:             r.Source,
		Destination:        r.Destination,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		DurationDays:       duration,
		Travelers:          r.Travelers,
		TripType:           r.TripType,
		FlightClass:        r.FlightClass,
		FlightPriceMin:     r.FlightPriceMin,
		FlightPriceMax:     r.FlightPriceMax,
		HotelAddress:       r.HotelAddress,
		HotelPriceMin:      r.HotelPriceMin,
		HotelPriceMax:      r.HotelPriceMax,
		InterestCategories: r.InterestCategories,
		ActivityLevel:      r.ActivityLevel,
		Confirmed:          true,
	}
}
