package handlers

import (
	"errors"
	"net/http"
	"strings"

	"wayfarer/flights"
	"wayfarer/hotels"
	"wayfarer/models"
	"wayfarer/planner"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
)

// GeneratePlan builds one complete plan in a single shot, without a session.
func (api *API) GeneratePlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req models.TravelRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := planner.ValidateRequest(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "invalid request: "))
		return
	}

	plan, err := api.Planner.GenerateTravelPlan(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		// the model failed or returned garbage; not a transport fault
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": false,
			"message": "I couldn't generate a plan right now. Please try again.",
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "plan": plan})
}

type modifyPlanRequest struct {
	CurrentPlan         *models.TravelPlan        `json:"current_plan"`
	UserMessage         string                    `json:"user_message"`
	ConversationHistory []models.ConversationTurn `json:"conversation_history"`
	Finalize            bool                      `json:"finalize"`
}

// ModifyPlan is the stateless revision mode: the caller owns the plan and
// passes it in and out on every call.
func (api *API) ModifyPlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req modifyPlanRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPlan == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "current_plan is required")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" && !req.Finalize {
		utils.RespondWithError(w, http.StatusBadRequest, "user_message is required unless finalizing")
		return
	}

	result := planner.ModifyPlan(r.Context(), api.LLM, req.CurrentPlan, req.UserMessage, req.ConversationHistory, req.Finalize)
	utils.RespondWithJSON(w, http.StatusOK, result)
}

type flightSearchRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Travelers   int    `json:"travelers"`
	TripType    string `json:"trip_type"`

	FlightClass    string  `json:"flight_class"`
	FlightPriceMin float64 `json:"flight_price_min"`
	FlightPriceMax float64 `json:"flight_price_max"`

	// Preference picks the headline offer: "price", "duration" or "direct".
	Preference string `json:"preference"`
}

// SearchFlights runs a direct flight comparison search.
func (api *API) SearchFlights(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req flightSearchRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Source == "" || req.Destination == "" || req.StartDate == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "source, destination and start_date are required")
		return
	}
	if req.Travelers < 1 {
		req.Travelers = 1
	}

	trip := &models.TripInfo{
		Source:         req.Source,
		Destination:    req.Destination,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Travelers:      req.Travelers,
		TripType:       req.TripType,
		FlightClass:    req.FlightClass,
		FlightPriceMin: req.FlightPriceMin,
		FlightPriceMax: req.FlightPriceMax,
	}
	offers, err := api.Flights.SearchOffers(r.Context(), trip, nil)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": false,
			"message": "Flight search is unavailable right now. Please try again.",
		})
		return
	}
	resp := utils.M{
		"success": true,
		"count":   len(offers),
		"offers":  offers,
	}
	if best, ok := flights.BestOffer(offers, req.Preference); ok {
		resp["best"] = best
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

type hotelSearchRequest struct {
	Destination  string `json:"destination"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Travelers    int    `json:"travelers"`

	HotelAddress  string  `json:"hotel_address"`
	HotelPriceMin float64 `json:"hotel_price_min"`
	HotelPriceMax float64 `json:"hotel_price_max"`

	// Preference picks the headline offer: "price", "distance" or "rating".
	Preference string `json:"preference"`
}

// SearchHotels runs a direct accommodation search around the hotel address
// or destination.
func (api *API) SearchHotels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req hotelSearchRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Destination == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "destination is required")
		return
	}
	if req.DurationDays < 1 && req.StartDate != "" && req.EndDate != "" {
		if d, err := planner.TripDuration(req.StartDate, req.EndDate); err == nil {
			req.DurationDays = d
		}
	}
	if req.DurationDays < 1 {
		req.DurationDays = 1
	}
	if req.Travelers < 1 {
		req.Travelers = 1
	}

	trip := &models.TripInfo{
		Destination:   req.Destination,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DurationDays:  req.DurationDays,
		Travelers:     req.Travelers,
		HotelAddress:  req.HotelAddress,
		HotelPriceMin: req.HotelPriceMin,
		HotelPriceMax: req.HotelPriceMax,
	}
	offers, err := api.Hotels.SearchOffers(r.Context(), trip, nil)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": false,
			"message": "Hotel search is unavailable right now. Please try again.",
		})
		return
	}
	resp := utils.M{
		"success": true,
		"count":   len(offers),
		"offers":  offers,
	}
	if best, ok := hotels.BestOffer(offers, req.Preference); ok {
		resp["best"] = best
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
