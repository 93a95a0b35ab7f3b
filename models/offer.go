package models

// Offer is a flight or accommodation option returned by a search dispatcher.
type Offer struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"` // "flight" or "accommodation"
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Provider string  `json:"provider,omitempty"`

	// Flight fields
	Airline       string `json:"airline,omitempty"`
	FlightNumber  string `json:"flight_number,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	Duration      string `json:"duration,omitempty"`
	ClassType     string `json:"class_type,omitempty"`
	Stops         int    `json:"stops,omitempty"`
	TripType      string `json:"trip_type,omitempty"`

	// Return leg, present only for round trips
	ReturnAirline       string `json:"return_airline,omitempty"`
	ReturnFlightNumber  string `json:"return_flight_number,omitempty"`
	ReturnDepartureTime string `json:"return_departure_time,omitempty"`
	ReturnArrivalTime   string `json:"return_arrival_time,omitempty"`
	ReturnDuration      string `json:"return_duration,omitempty"`
	ReturnStops         int    `json:"return_stops,omitempty"`
	ReturnDate          string `json:"return_date,omitempty"`

	// Accommodation fields
	HotelName     string  `json:"hotel_name,omitempty"`
	Address       string  `json:"address,omitempty"`
	PricePerNight float64 `json:"price_per_night,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	DistanceKm    float64 `json:"distance_km,omitempty"`

	// Activities this offer was selected for, if any
	ActivityIDs []string `json:"activity_ids,omitempty"`
}
