package models

// ActionKind enumerates what a user message asks the engine to do.
type ActionKind string

const (
	ActionChat         ActionKind = "chat"           // conversational reply, no state change
	ActionAdvanceInfo  ActionKind = "advance_info"   // trip info supplied or confirmed
	ActionExpandDay    ActionKind = "expand_day"     // expand day N into activities
	ActionReviseDay    ActionKind = "revise_day"     // modify an already-expanded day
	ActionRevisePlan   ActionKind = "revise_plan"    // modify the overall plan
	ActionSearchFlight ActionKind = "search_flights" // run the flight search
	ActionSearchHotel  ActionKind = "search_hotels"  // run the accommodation search
	ActionFinalize     ActionKind = "finalize"       // lock the plan
)

// Action is the classified form of a free-text user message, produced at the
// collaborator boundary and consumed exhaustively by the turn engine.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Day targeted by expand_day / revise_day.
	Day int `json:"day,omitempty"`

	// Trip fields extracted from the message for advance_info.
	TripInfo *TripInfo `json:"trip_info,omitempty"`

	// Conversational reply to surface when no mutation runs.
	Reply string `json:"reply,omitempty"`
}
