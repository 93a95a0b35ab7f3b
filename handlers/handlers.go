package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"wayfarer/agent"
	"wayfarer/models"
	"wayfarer/planner"

	"github.com/julienschmidt/httprouter"
)

// API bundles the collaborators the planner handlers dispatch into.
type API struct {
	Engine  *agent.Engine
	Planner *planner.Planner
	LLM     planner.Collaborator
	Flights agent.Dispatcher
	Hotels  agent.Dispatcher
}

func NewAPI(engine *agent.Engine, pl *planner.Planner, llm planner.Collaborator, flights, hotels agent.Dispatcher) *API {
	return &API{Engine: engine, Planner: pl, LLM: llm, Flights: flights, Hotels: hotels}
}

// decodeStrict decodes a JSON body, rejecting fields the target doesn't know.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps the error taxonomy onto HTTP statuses. Collaborator
// failures are not here on purpose: those come back as success:false
// bodies with a 200, never as a transport fault.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDayNotExpanded),
		errors.Is(err, models.ErrOutOfRangeDay),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrNoSelectedActivities):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func sessionID(ps httprouter.Params) string {
	return ps.ByName("id")
}
