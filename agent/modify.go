package agent

import (
	"context"
	"fmt"

	"wayfarer/models"
	"wayfarer/planner"
	"wayfarer/session"
)

// DayTurnResult is the outcome of a direct day modification.
type DayTurnResult struct {
	SessionID            string                  `json:"session_id"`
	Success              bool                    `json:"success"`
	Message              string                  `json:"message"`
	ExpandedDay          *models.DayPlan         `json:"expanded_day,omitempty"`
	AllExpandedDays      map[int]*models.DayPlan `json:"all_expanded_days,omitempty"`
	SuggestModifications []string                `json:"suggest_modifications,omitempty"`

	Err error `json:"-"`
}

// ModifyDay applies a free-text revision to one already-expanded day. The
// user message lands in history before anything can fail; the day itself is
// only replaced on a successful revision.
func (e *Engine) ModifyDay(ctx context.Context, id string, dayNumber int, userMessage string) (DayTurnResult, error) {
	var res DayTurnResult
	err := e.store.Turn(id, func(tx *session.Txn) error {
		s := tx.Session()
		history := append([]models.ConversationTurn(nil), s.Conversation...)
		tx.AddTurn("user", userMessage)
		res = DayTurnResult{SessionID: s.ID}

		duration := 0
		if s.TripInfo != nil {
			duration = s.TripInfo.DurationDays
		}
		if dayNumber < 1 || dayNumber > duration {
			res.Message = fmt.Sprintf("Day %d is outside this trip's %d-day range.", dayNumber, duration)
			res.Err = models.ErrOutOfRangeDay
			return nil
		}
		current, ok := s.ExpandedDays[dayNumber]
		if !ok {
			res.Message = fmt.Sprintf("Day %d hasn't been expanded yet.", dayNumber)
			res.Err = models.ErrDayNotExpanded
			return nil
		}
		if err := ensureTransition(s.WorkflowState, models.StateModifyingDay); err != nil {
			res.Message = "This plan is finalized and can't be changed."
			res.Err = err
			return nil
		}
		prior := s.WorkflowState
		tx.SetState(models.StateModifyingDay)

		result := planner.ModifyDay(ctx, e.llm, s.TripInfo, current, userMessage, history)
		if ctx.Err() != nil {
			tx.SetState(prior)
			return ctx.Err()
		}
		tx.SetState(prior)
		if !result.Success {
			res.Message = result.Message
			res.Err = models.ErrCollaboratorFailure
			return nil
		}

		if err := tx.SetExpandedDay(dayNumber, result.Day); err != nil {
			return err
		}
		tx.AddTurn("assistant", result.Message)
		res.Success = true
		res.Message = result.Message
		res.ExpandedDay = s.ExpandedDays[dayNumber].Clone()
		res.AllExpandedDays = cloneDays(s.ExpandedDays)
		res.SuggestModifications = result.SuggestModifications
		return nil
	})
	if err != nil {
		return DayTurnResult{}, err
	}
	return res, nil
}

// UpdateTripInfo merges explicit trip fields into the session, advancing the
// workflow when the info becomes complete.
func (e *Engine) UpdateTripInfo(id string, info *models.TripInfo) (*models.TripInfo, error) {
	var out *models.TripInfo
	err := e.store.Turn(id, func(tx *session.Txn) error {
		s := tx.Session()
		if s.WorkflowState == models.StateFinalized {
			return fmt.Errorf("%w: session is finalized", models.ErrInvalidTransition)
		}
		merged := mergeTripInfo(s.TripInfo, info)
		tx.Apply(session.Patch{TripInfo: merged})
		if merged.Complete() && s.WorkflowState == models.StateCollectingInfo {
			merged.Confirmed = true
			tx.SetState(models.StatePlanning)
		}
		cp := *merged
		cp.InterestCategories = append([]string(nil), merged.InterestCategories...)
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SelectActivities records which suggested activities the user picked; IDs
// the session doesn't know are dropped.
func (e *Engine) SelectActivities(id string, activityIDs []string) ([]string, error) {
	var kept []string
	err := e.store.Turn(id, func(tx *session.Txn) error {
		if tx.Session().WorkflowState == models.StateFinalized {
			return fmt.Errorf("%w: session is finalized", models.ErrInvalidTransition)
		}
		tx.Apply(session.Patch{SelectedActivityIDs: activityIDs})
		kept = append([]string(nil), tx.Session().SelectedActivityIDs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kept, nil
}

// GetSession returns a deep copy of the session for read-only use.
func (e *Engine) GetSession(id string) (*models.Session, error) {
	return e.store.Get(id)
}

// Sessions lists the sessions a signed-in user created, newest first.
func (e *Engine) Sessions(userID string) []*models.Session {
	return e.store.ForUser(userID)
}

func cloneDays(days map[int]*models.DayPlan) map[int]*models.DayPlan {
	out := make(map[int]*models.DayPlan, len(days))
	for n, d := range days {
		out[n] = d.Clone()
	}
	return out
}
