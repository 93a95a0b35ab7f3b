package models

import "time"

// WorkflowState is the current phase of a planning conversation. Transitions
// are driven only by the agent turn engine.
type WorkflowState string

const (
	StateCollectingInfo WorkflowState = "collecting_info"
	StatePlanning       WorkflowState = "planning"
	StateDayExpansion   WorkflowState = "day_expansion"
	StateSearching      WorkflowState = "searching"
	StateFinalized      WorkflowState = "finalized"
	StateModifyingDay   WorkflowState = "modifying_day"
	StateModifyingPlan  WorkflowState = "modifying_plan"
)

// ConversationTurn is one message in a session's history. History is
// append-only; turns are never edited or removed.
type ConversationTurn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one user's ongoing planning conversation and its accumulated
// itinerary state. All mutation flows through the session store.
type Session struct {
	ID       string    `json:"session_id"`
	TripInfo *TripInfo `json:"trip_info,omitempty"`

	// Only expanded days are present; keys stay within [1, DurationDays].
	ExpandedDays map[int]*DayPlan `json:"expanded_days"`

	SuggestedActivities map[string]Activity `json:"suggested_activities"`
	SelectedActivityIDs []string            `json:"selected_activity_ids"`

	Offers []Offer `json:"offers,omitempty"`

	Conversation  []ConversationTurn `json:"conversation"`
	WorkflowState WorkflowState      `json:"workflow_state"`

	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}

// Clone returns a deep copy so callers can never mutate stored state in place.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.TripInfo != nil {
		ti := *s.TripInfo
		ti.InterestCategories = append([]string(nil), s.TripInfo.InterestCategories...)
		cp.TripInfo = &ti
	}
	cp.ExpandedDays = make(map[int]*DayPlan, len(s.ExpandedDays))
	for n, d := range s.ExpandedDays {
		cp.ExpandedDays[n] = d.Clone()
	}
	cp.SuggestedActivities = make(map[string]Activity, len(s.SuggestedActivities))
	for id, a := range s.SuggestedActivities {
		cp.SuggestedActivities[id] = a
	}
	cp.SelectedActivityIDs = append([]string(nil), s.SelectedActivityIDs...)
	cp.Offers = append([]Offer(nil), s.Offers...)
	cp.Conversation = append([]ConversationTurn(nil), s.Conversation...)
	return &cp
}
