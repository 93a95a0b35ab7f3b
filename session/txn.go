package session

import (
	"time"

	"wayfarer/models"
)

// Txn exposes the store's mutators against a session whose lock is already
// held. It is only ever handed to the callback of Store.Turn and must not
// escape it.
type Txn struct {
	s *models.Session
}

// Session returns the live session. Reads are fine; writes must go through
// the Txn methods so the invariants stay checked in one place.
func (tx *Txn) Session() *models.Session {
	return tx.s
}

func (tx *Txn) AddTurn(role, text string) {
	tx.s.Conversation = append(tx.s.Conversation, models.ConversationTurn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	})
}

func (tx *Txn) SetState(state models.WorkflowState) {
	tx.s.WorkflowState = state
}

func (tx *Txn) SetExpandedDay(dayNumber int, plan *models.DayPlan) error {
	duration := 0
	if tx.s.TripInfo != nil {
		duration = tx.s.TripInfo.DurationDays
	}
	if dayNumber < 1 || dayNumber > duration {
		return models.ErrOutOfRangeDay
	}
	plan = plan.Clone()
	plan.DayNumber = dayNumber
	tx.s.ExpandedDays[dayNumber] = plan
	return nil
}

func (tx *Txn) Apply(p Patch) {
	if p.TripInfo != nil {
		tx.s.TripInfo = p.TripInfo
	}
	if p.WorkflowState != nil {
		tx.s.WorkflowState = *p.WorkflowState
	}
	if p.SuggestedActivities != nil {
		for id, a := range p.SuggestedActivities {
			tx.s.SuggestedActivities[id] = a
		}
	}
	if p.SelectedActivityIDs != nil {
		// only activities the session already knows about can be selected
		kept := p.SelectedActivityIDs[:0:0]
		for _, id := range p.SelectedActivityIDs {
			if _, ok := tx.s.SuggestedActivities[id]; ok {
				kept = append(kept, id)
			}
		}
		tx.s.SelectedActivityIDs = kept
	}
	if p.Offers != nil {
		tx.s.Offers = p.Offers
	}
}

// SelectedActivities projects the suggested set down to the selected IDs,
// in selection order. This is the read-only slice handed to the search
// dispatchers.
func (tx *Txn) SelectedActivities() []models.Activity {
	out := make([]models.Activity, 0, len(tx.s.SelectedActivityIDs))
	for _, id := range tx.s.SelectedActivityIDs {
		if a, ok := tx.s.SuggestedActivities[id]; ok {
			out = append(out, a)
		}
	}
	return out
}
