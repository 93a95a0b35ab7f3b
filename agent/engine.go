package agent

import (
	"context"
	"fmt"
	"log"

	"wayfarer/models"
	"wayfarer/planner"
	"wayfarer/session"
	"wayfarer/utils"
)

// WelcomeMessage opens every new session's conversation.
const WelcomeMessage = "Hi! I'm your travel planning assistant. Tell me where you're headed, your dates, and how many people are traveling, and I'll put together an itinerary."

// Collaborator is everything the engine needs from the language model.
type Collaborator interface {
	planner.Collaborator
	Classify(ctx context.Context, state models.WorkflowState, userMessage string, history []models.ConversationTurn) (models.Action, error)
	ExpandDay(ctx context.Context, trip *models.TripInfo, dayNumber int, history []models.ConversationTurn) (*models.DayPlan, string, error)
}

// Dispatcher is a narrow search runner. It only ever sees the trip info and
// the selected activities, never the session itself.
type Dispatcher interface {
	SearchOffers(ctx context.Context, trip *models.TripInfo, selected []models.Activity) ([]models.Offer, error)
}

// Engine drives one conversational exchange at a time. All session access
// goes through the store so turns on the same session serialize.
type Engine struct {
	store   *session.Store
	llm     Collaborator
	flights Dispatcher
	hotels  Dispatcher
}

func NewEngine(store *session.Store, llm Collaborator, flights, hotels Dispatcher) *Engine {
	return &Engine{store: store, llm: llm, flights: flights, hotels: hotels}
}

// DaySummary is the per-day line of a turn response: which days exist and
// which have been expanded so far.
type DaySummary struct {
	Day           int  `json:"day"`
	Expanded      bool `json:"expanded"`
	ActivityCount int  `json:"activity_count,omitempty"`
}

// TurnResult is the outcome of one agent turn. Err carries the taxonomy
// sentinel for the transport layer; the body only ever shows Success.
type TurnResult struct {
	SessionID            string               `json:"session_id"`
	Success              bool                 `json:"success"`
	WorkflowState        models.WorkflowState `json:"workflow_state"`
	Message              string               `json:"message"`
	Days                 []DaySummary         `json:"days,omitempty"`
	ExpandedDay          *models.DayPlan      `json:"expanded_day,omitempty"`
	Offers               []models.Offer       `json:"offers,omitempty"`
	SuggestModifications []string             `json:"suggest_modifications,omitempty"`

	Err error `json:"-"`
}

// allowed lists every legal state transition. Self-transitions are always
// permitted; finalized is terminal.
var allowed = map[models.WorkflowState]map[models.WorkflowState]bool{
	models.StateCollectingInfo: {
		models.StatePlanning: true,
	},
	models.StatePlanning: {
		models.StateDayExpansion:  true,
		models.StateModifyingPlan: true,
		models.StateFinalized:     true,
	},
	models.StateDayExpansion: {
		models.StateSearching:     true,
		models.StateModifyingDay:  true,
		models.StateModifyingPlan: true,
		models.StateFinalized:     true,
	},
	models.StateSearching: {
		models.StateDayExpansion:  true,
		models.StateModifyingDay:  true,
		models.StateModifyingPlan: true,
		models.StateFinalized:     true,
	},
	models.StateModifyingDay: {
		models.StateDayExpansion: true,
		models.StateSearching:    true,
	},
	models.StateModifyingPlan: {
		models.StatePlanning:     true,
		models.StateDayExpansion: true,
		models.StateSearching:    true,
	},
	models.StateFinalized: {},
}

func ensureTransition(from, to models.WorkflowState) error {
	if from == to {
		return nil
	}
	if allowed[from][to] {
		return nil
	}
	return fmt.Errorf("%w: cannot move from %s to %s", models.ErrInvalidTransition, from, to)
}

// StartSession allocates a session and seeds it with the welcome turn.
func (e *Engine) StartSession(createdBy string) (*models.Session, error) {
	s := e.store.Create()
	err := e.store.Turn(s.ID, func(tx *session.Txn) error {
		if createdBy != "" {
			tx.Session().CreatedBy = createdBy
		}
		tx.AddTurn("assistant", WelcomeMessage)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.store.Get(s.ID)
}

// RunTurn executes one conversational exchange. The session lock is held for
// the whole turn including the collaborator suspend points, so concurrent
// turns on the same session queue behind each other.
func (e *Engine) RunTurn(ctx context.Context, id, userMessage string) (TurnResult, error) {
	var res TurnResult
	err := e.store.Turn(id, func(tx *session.Txn) error {
		s := tx.Session()
		history := append([]models.ConversationTurn(nil), s.Conversation...)
		tx.AddTurn("user", userMessage)

		res = TurnResult{SessionID: s.ID, WorkflowState: s.WorkflowState}

		action, err := e.llm.Classify(ctx, s.WorkflowState, userMessage, history)
		if err != nil {
			log.Printf("classify failed for session %s: %v", s.ID, err)
			return e.collaboratorFailed(tx, &res)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch action.Kind {
		case models.ActionAdvanceInfo:
			return e.advanceInfo(tx, &res, action)
		case models.ActionExpandDay:
			return e.expandDay(ctx, tx, &res, action)
		case models.ActionReviseDay:
			return e.reviseDay(ctx, tx, &res, action.Day, userMessage, history)
		case models.ActionRevisePlan:
			return e.revisePlan(ctx, tx, &res, userMessage, history)
		case models.ActionSearchFlight:
			return e.search(ctx, tx, &res, e.flights, "flight")
		case models.ActionSearchHotel:
			return e.search(ctx, tx, &res, e.hotels, "accommodation")
		case models.ActionFinalize:
			return e.finalize(tx, &res)
		default:
			return e.chat(tx, &res, action.Reply)
		}
	})
	if err != nil {
		return TurnResult{}, err
	}
	return res, nil
}

func (e *Engine) chat(tx *session.Txn, res *TurnResult, reply string) error {
	if reply == "" {
		reply = "Happy to help. You can give me trip details, ask me to expand a day, or search for flights and hotels."
	}
	tx.AddTurn("assistant", reply)
	res.Success = true
	res.Message = reply
	return nil
}

func (e *Engine) advanceInfo(tx *session.Txn, res *TurnResult, action models.Action) error {
	s := tx.Session()
	if s.WorkflowState == models.StateFinalized {
		return e.invalidTransition(tx, res, fmt.Errorf("%w: session is finalized", models.ErrInvalidTransition))
	}
	merged := mergeTripInfo(s.TripInfo, action.TripInfo)
	tx.Apply(session.Patch{TripInfo: merged})

	// only the collecting_info -> planning edge advances here; later states
	// keep their place and just absorb the updated details
	if merged.Complete() && ensureTransition(s.WorkflowState, models.StatePlanning) == nil && s.WorkflowState == models.StateCollectingInfo {
		merged.Confirmed = true
		tx.SetState(models.StatePlanning)
	}

	msg := action.Reply
	if msg == "" {
		if merged.Complete() {
			msg = fmt.Sprintf("Great — %d days in %s for %d traveler(s). Ask me to expand any day into a full itinerary.", merged.DurationDays, merged.Destination, merged.Travelers)
		} else {
			msg = "Got it. I still need a few details — where are you going, for how long, and with how many people?"
		}
	}
	tx.AddTurn("assistant", msg)
	res.Success = true
	res.Message = msg
	res.WorkflowState = s.WorkflowState
	res.Days = daysSummary(s)
	return nil
}

func (e *Engine) expandDay(ctx context.Context, tx *session.Txn, res *TurnResult, action models.Action) error {
	s := tx.Session()
	if err := ensureTransition(s.WorkflowState, models.StateDayExpansion); err != nil {
		return e.invalidTransition(tx, res, err)
	}
	duration := 0
	if s.TripInfo != nil {
		duration = s.TripInfo.DurationDays
	}
	if action.Day < 1 || action.Day > duration {
		msg := fmt.Sprintf("Day %d isn't part of this trip — it runs for %d day(s).", action.Day, duration)
		tx.AddTurn("assistant", msg)
		res.Success = false
		res.Message = msg
		res.Err = models.ErrOutOfRangeDay
		return nil
	}

	plan, msg, err := e.llm.ExpandDay(ctx, s.TripInfo, action.Day, s.Conversation)
	if err != nil {
		log.Printf("expand day %d failed for session %s: %v", action.Day, s.ID, err)
		return e.collaboratorFailed(tx, res)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	suggested := make(map[string]models.Activity, len(plan.Activities))
	for i := range plan.Activities {
		a := &plan.Activities[i]
		if a.ID == "" {
			a.ID = utils.GenerateRandomString(12)
		}
		if a.Source == "" {
			a.Source = "suggested"
		}
		suggested[a.ID] = *a
	}

	if err := tx.SetExpandedDay(action.Day, plan); err != nil {
		return err
	}
	tx.Apply(session.Patch{SuggestedActivities: suggested})
	tx.SetState(models.StateDayExpansion)

	if msg == "" {
		msg = fmt.Sprintf("Here's day %d with %d activities. Tell me which ones you like and I can search flights and hotels around them.", action.Day, len(plan.Activities))
	}
	tx.AddTurn("assistant", msg)
	res.Success = true
	res.Message = msg
	res.WorkflowState = models.StateDayExpansion
	res.ExpandedDay = s.ExpandedDays[action.Day].Clone()
	res.Days = daysSummary(s)
	return nil
}

func (e *Engine) reviseDay(ctx context.Context, tx *session.Txn, res *TurnResult, day int, userMessage string, history []models.ConversationTurn) error {
	s := tx.Session()
	current, ok := s.ExpandedDays[day]
	if !ok {
		msg := fmt.Sprintf("Day %d hasn't been expanded yet, so there's nothing to change. Ask me to expand it first.", day)
		tx.AddTurn("assistant", msg)
		res.Success = false
		res.Message = msg
		res.Err = models.ErrDayNotExpanded
		return nil
	}
	if err := ensureTransition(s.WorkflowState, models.StateModifyingDay); err != nil {
		return e.invalidTransition(tx, res, err)
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
		tx.AddTurn("assistant", result.Message)
		res.Success = false
		res.Message = result.Message
		res.Err = models.ErrCollaboratorFailure
		return nil
	}

	if err := tx.SetExpandedDay(day, result.Day); err != nil {
		return err
	}
	tx.AddTurn("assistant", result.Message)
	res.Success = true
	res.Message = result.Message
	res.WorkflowState = prior
	res.ExpandedDay = s.ExpandedDays[day].Clone()
	res.SuggestModifications = result.SuggestModifications
	return nil
}

func (e *Engine) revisePlan(ctx context.Context, tx *session.Txn, res *TurnResult, userMessage string, history []models.ConversationTurn) error {
	s := tx.Session()
	if err := ensureTransition(s.WorkflowState, models.StateModifyingPlan); err != nil {
		return e.invalidTransition(tx, res, err)
	}
	prior := s.WorkflowState
	tx.SetState(models.StateModifyingPlan)

	result := planner.ModifyPlan(ctx, e.llm, sessionPlan(s), userMessage, history, false)
	if ctx.Err() != nil {
		tx.SetState(prior)
		return ctx.Err()
	}
	tx.SetState(prior)
	if !result.Success {
		tx.AddTurn("assistant", result.Message)
		res.Success = false
		res.Message = result.Message
		res.Err = models.ErrCollaboratorFailure
		return nil
	}

	applyPlanToDays(tx, result.Plan)
	tx.AddTurn("assistant", result.Message)
	res.Success = true
	res.Message = result.Message
	res.WorkflowState = prior
	res.Days = daysSummary(s)
	return nil
}

func (e *Engine) search(ctx context.Context, tx *session.Txn, res *TurnResult, dispatcher Dispatcher, kind string) error {
	s := tx.Session()
	if err := ensureTransition(s.WorkflowState, models.StateSearching); err != nil {
		return e.invalidTransition(tx, res, err)
	}
	selected := tx.SelectedActivities()
	if len(selected) == 0 {
		msg := "Pick at least one activity from an expanded day first, then I'll search around your picks."
		tx.AddTurn("assistant", msg)
		res.Success = false
		res.Message = msg
		res.Err = models.ErrNoSelectedActivities
		return nil
	}

	offers, err := dispatcher.SearchOffers(ctx, s.TripInfo, selected)
	if err != nil {
		log.Printf("%s search failed for session %s: %v", kind, s.ID, err)
		return e.collaboratorFailed(tx, res)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx.Apply(session.Patch{Offers: offers})
	tx.SetState(models.StateSearching)

	msg := fmt.Sprintf("I found %d %s option(s).", len(offers), kind)
	if len(offers) > 0 {
		msg = fmt.Sprintf("I found %d %s option(s) — the best is %s at %.0f %s.", len(offers), kind, offerLabel(offers[0]), offers[0].Price, offers[0].Currency)
	}
	tx.AddTurn("assistant", msg)
	res.Success = true
	res.Message = msg
	res.WorkflowState = models.StateSearching
	res.Offers = offers
	return nil
}

func (e *Engine) finalize(tx *session.Txn, res *TurnResult) error {
	s := tx.Session()
	if err := ensureTransition(s.WorkflowState, models.StateFinalized); err != nil {
		return e.invalidTransition(tx, res, err)
	}
	tx.SetState(models.StateFinalized)
	msg := "Your plan is finalized. Have a great trip!"
	tx.AddTurn("assistant", msg)
	res.Success = true
	res.Message = msg
	res.WorkflowState = models.StateFinalized
	res.Days = daysSummary(s)
	return nil
}

// collaboratorFailed records the apology turn and marks the result failed.
// The user turn already in history stays; no state or day delta is applied.
func (e *Engine) collaboratorFailed(tx *session.Txn, res *TurnResult) error {
	msg := "Sorry, I couldn't process that right now. Please try again."
	tx.AddTurn("assistant", msg)
	res.Success = false
	res.Message = msg
	res.Err = models.ErrCollaboratorFailure
	return nil
}

func (e *Engine) invalidTransition(tx *session.Txn, res *TurnResult, err error) error {
	s := tx.Session()
	var msg string
	if s.WorkflowState == models.StateFinalized {
		msg = "This plan is already finalized, so I can't change it anymore."
	} else {
		msg = "We're not at that step yet. Let's finish setting up your trip details first."
	}
	tx.AddTurn("assistant", msg)
	res.Success = false
	res.Message = msg
	res.WorkflowState = s.WorkflowState
	res.Err = err
	return nil
}

func mergeTripInfo(current, update *models.TripInfo) *models.TripInfo {
	if current == nil {
		current = &models.TripInfo{}
	}
	out := *current
	if update == nil {
		return &out
	}
	if update.Source != "" {
		out.Source = update.Source
	}
	if update.Destination != "" {
		out.Destination = update.Destination
	}
	if update.StartDate != "" {
		out.StartDate = update.StartDate
	}
	if update.EndDate != "" {
		out.EndDate = update.EndDate
	}
	if update.DurationDays > 0 {
		out.DurationDays = update.DurationDays
	}
	if update.Travelers > 0 {
		out.Travelers = update.Travelers
	}
	if update.TripType != "" {
		out.TripType = update.TripType
	}
	if update.FlightClass != "" {
		out.FlightClass = update.FlightClass
	}
	if update.FlightPriceMax > 0 {
		out.FlightPriceMin = update.FlightPriceMin
		out.FlightPriceMax = update.FlightPriceMax
	}
	if update.HotelAddress != "" {
		out.HotelAddress = update.HotelAddress
	}
	if update.HotelPriceMax > 0 {
		out.HotelPriceMin = update.HotelPriceMin
		out.HotelPriceMax = update.HotelPriceMax
	}
	if len(update.InterestCategories) > 0 {
		out.InterestCategories = append([]string(nil), update.InterestCategories...)
	}
	if update.ActivityLevel != "" {
		out.ActivityLevel = update.ActivityLevel
	}
	return &out
}

func daysSummary(s *models.Session) []DaySummary {
	if s.TripInfo == nil || s.TripInfo.DurationDays < 1 {
		return nil
	}
	out := make([]DaySummary, s.TripInfo.DurationDays)
	for i := range out {
		day := i + 1
		out[i] = DaySummary{Day: day}
		if d, ok := s.ExpandedDays[day]; ok {
			out[i].Expanded = true
			out[i].ActivityCount = len(d.Activities)
		}
	}
	return out
}

// sessionPlan projects the session's expanded days into a whole-plan view
// for the plan mutator. Activities keep their slot via the time field.
func sessionPlan(s *models.Session) *models.TravelPlan {
	plan := &models.TravelPlan{PlanType: "customized"}
	if s.TripInfo != nil {
		plan.Source = s.TripInfo.Source
		plan.Destination = s.TripInfo.Destination
		plan.StartDate = s.TripInfo.StartDate
		plan.EndDate = s.TripInfo.EndDate
		plan.DurationDays = s.TripInfo.DurationDays
		plan.Travelers = s.TripInfo.Travelers
	}
	for day := 1; day <= plan.DurationDays; day++ {
		d, ok := s.ExpandedDays[day]
		if !ok {
			continue
		}
		entry := models.DayItinerary{DayNumber: day, Date: d.Date, Notes: d.Notes}
		for _, a := range d.Activities {
			switch a.Time {
			case "afternoon":
				entry.Afternoon = append(entry.Afternoon, a)
			case "evening":
				entry.Evening = append(entry.Evening, a)
			default:
				entry.Morning = append(entry.Morning, a)
			}
		}
		plan.Itinerary = append(plan.Itinerary, entry)
	}
	return plan
}

// applyPlanToDays writes a revised whole-plan view back onto the session's
// expanded days. Only days already expanded and in range are touched.
func applyPlanToDays(tx *session.Txn, plan *models.TravelPlan) {
	s := tx.Session()
	for _, entry := range plan.Itinerary {
		if _, ok := s.ExpandedDays[entry.DayNumber]; !ok {
			continue
		}
		day := &models.DayPlan{
			DayNumber: entry.DayNumber,
			Date:      entry.Date,
			Notes:     entry.Notes,
		}
		day.Activities = append(day.Activities, entry.Morning...)
		day.Activities = append(day.Activities, entry.Afternoon...)
		day.Activities = append(day.Activities, entry.Evening...)
		if err := tx.SetExpandedDay(entry.DayNumber, day); err != nil {
			continue
		}
	}
}

func offerLabel(o models.Offer) string {
	if o.Kind == "accommodation" {
		return o.HotelName
	}
	return fmt.Sprintf("%s %s", o.Airline, o.FlightNumber)
}
