package planner

import (
	"context"
	"strings"

	"wayfarer/models"
)

// DayResult is the outcome of a day revision. On failure Day is the input
// day unchanged and Message carries a user-facing diagnostic.
type DayResult struct {
	Success              bool            `json:"success"`
	Day                  *models.DayPlan `json:"day"`
	Message              string          `json:"message"`
	SuggestModifications []string        `json:"suggest_modifications,omitempty"`
}

// PlanResult is the outcome of a whole-plan revision.
type PlanResult struct {
	Success bool               `json:"success"`
	Plan    *models.TravelPlan `json:"plan"`
	Message string             `json:"message"`
}

// ModifyDay asks the collaborator to revise a single expanded day. The input
// day is never mutated; callers apply the returned day themselves.
func ModifyDay(ctx context.Context, collab Collaborator, trip *models.TripInfo, day *models.DayPlan, userMessage string, history []models.ConversationTurn) DayResult {
	revised, message, suggestions, err := collab.ModifyDay(ctx, trip, day.Clone(), userMessage, history)
	if err != nil {
		return DayResult{
			Success: false,
			Day:     day,
			Message: "I couldn't apply that change right now. The day is unchanged, please try again.",
		}
	}
	if revised == nil {
		revised = day.Clone()
	}
	revised.DayNumber = day.DayNumber
	if revised.Date == "" {
		revised.Date = day.Date
	}
	if message == "" {
		message = "Done, I've updated that day."
	}
	return DayResult{Success: true, Day: revised, Message: message, SuggestModifications: suggestions}
}

// ModifyPlan revises a complete plan. An empty message with finalize set is
// a pure finalize: the plan is marked final without a collaborator call. On
// collaborator failure the current plan is returned unmodified.
func ModifyPlan(ctx context.Context, collab Collaborator, current *models.TravelPlan, userMessage string, history []models.ConversationTurn, finalize bool) PlanResult {
	if finalize && strings.TrimSpace(userMessage) == "" {
		final := current.Clone()
		final.Finalized = true
		return PlanResult{Success: true, Plan: final, Message: "Your plan is finalized. Have a great trip!"}
	}

	revised, err := collab.ModifyPlan(ctx, current, userMessage, history)
	if err != nil {
		return PlanResult{
			Success: false,
			Plan:    current,
			Message: "I couldn't apply that change right now. Your plan is unchanged, please try again.",
		}
	}

	merged := mergePlans(current, revised)
	if finalize {
		merged.Finalized = true
	}
	msg := "I've updated your plan."
	if finalize {
		msg = "I've updated your plan and finalized it. Have a great trip!"
	}
	return PlanResult{Success: true, Plan: merged, Message: msg}
}

// mergePlans lays the revised plan over the current one, falling back to
// current values wherever the model left a field empty. The model tends to
// echo only the sections it touched.
func mergePlans(current, revised *models.TravelPlan) *models.TravelPlan {
	if revised == nil {
		return current.Clone()
	}
	out := revised.Clone()
	out.PlanType = valueOr(out.PlanType, current.PlanType)
	out.Source = valueOr(out.Source, current.Source)
	out.Destination = valueOr(out.Destination, current.Destination)
	out.StartDate = valueOr(out.StartDate, current.StartDate)
	out.EndDate = valueOr(out.EndDate, current.EndDate)
	if out.DurationDays == 0 {
		out.DurationDays = current.DurationDays
	}
	if out.Travelers == 0 {
		out.Travelers = current.Travelers
	}
	if len(out.Transportation) == 0 {
		out.Transportation = append([]models.Transportation(nil), current.Transportation...)
	}
	if out.Accommodation.Name == "" {
		out.Accommodation = current.Accommodation
	}
	if len(out.Itinerary) == 0 {
		out.Itinerary = current.Clone().Itinerary
	}
	if out.CostBreakdown.Total == 0 {
		out.CostBreakdown = current.CostBreakdown
	}
	out.Summary = valueOr(out.Summary, current.Summary)
	if len(out.Highlights) == 0 {
		out.Highlights = append([]string(nil), current.Highlights...)
	}
	if len(out.Tips) == 0 {
		out.Tips = append([]string(nil), current.Tips...)
	}
	out.Finalized = current.Finalized
	return out
}
