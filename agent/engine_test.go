package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfarer/models"
	"wayfarer/session"
)

type fakeLLM struct {
	classify   func(state models.WorkflowState, msg string) (models.Action, error)
	expand     func(dayNumber int) (*models.DayPlan, string, error)
	modifyDay  func(day *models.DayPlan, msg string) (*models.DayPlan, string, []string, error)
	modifyPlan func(current *models.TravelPlan, msg string) (*models.TravelPlan, error)
}

func (f *fakeLLM) Classify(_ context.Context, state models.WorkflowState, msg string, _ []models.ConversationTurn) (models.Action, error) {
	if f.classify == nil {
		return models.Action{Kind: models.ActionChat, Reply: "ok"}, nil
	}
	return f.classify(state, msg)
}

func (f *fakeLLM) ExpandDay(_ context.Context, _ *models.TripInfo, dayNumber int, _ []models.ConversationTurn) (*models.DayPlan, string, error) {
	if f.expand == nil {
		return &models.DayPlan{Activities: []models.Activity{
			{Name: "Snorkeling", Type: "activity", Time: "morning"},
			{Name: "Luau Dinner", Type: "restaurant", Time: "evening"},
		}}, "", nil
	}
	return f.expand(dayNumber)
}

func (f *fakeLLM) ModifyDay(_ context.Context, _ *models.TripInfo, day *models.DayPlan, msg string, _ []models.ConversationTurn) (*models.DayPlan, string, []string, error) {
	if f.modifyDay == nil {
		return day, "done", nil, nil
	}
	return f.modifyDay(day, msg)
}

func (f *fakeLLM) ModifyPlan(_ context.Context, current *models.TravelPlan, msg string, _ []models.ConversationTurn) (*models.TravelPlan, error) {
	if f.modifyPlan == nil {
		return current, nil
	}
	return f.modifyPlan(current, msg)
}

func (f *fakeLLM) GeneratePlan(_ context.Context, _ models.TravelRequest, _ int) (*models.PlanDraft, error) {
	return &models.PlanDraft{}, nil
}

type fakeDispatcher struct {
	offers []models.Offer
	err    error
}

func (f *fakeDispatcher) SearchOffers(_ context.Context, _ *models.TripInfo, _ []models.Activity) ([]models.Offer, error) {
	return f.offers, f.err
}

func newTestEngine(llm *fakeLLM, flights, hotels Dispatcher) (*Engine, *session.Store) {
	st := session.NewStore(time.Minute)
	if flights == nil {
		flights = &fakeDispatcher{}
	}
	if hotels == nil {
		hotels = &fakeDispatcher{}
	}
	return NewEngine(st, llm, flights, hotels), st
}

func mauiTrip() *models.TripInfo {
	return &models.TripInfo{
		Source: "San Francisco", Destination: "Maui",
		DurationDays: 5, Travelers: 2,
	}
}

func TestStartSessionWelcome(t *testing.T) {
	e, _ := newTestEngine(&fakeLLM{}, nil, nil)
	s, err := e.StartSession("")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.WorkflowState != models.StateCollectingInfo {
		t.Errorf("state = %q, want collecting_info", s.WorkflowState)
	}
	if len(s.Conversation) != 1 || s.Conversation[0].Role != "assistant" {
		t.Fatalf("expected one assistant welcome turn, got %v", s.Conversation)
	}
	if s.Conversation[0].Text != WelcomeMessage {
		t.Errorf("welcome text = %q", s.Conversation[0].Text)
	}
}

func TestCompleteTripInfoAdvancesToPlanning(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionAdvanceInfo, TripInfo: mauiTrip()}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")

	res, err := e.RunTurn(context.Background(), s.ID, "5 days in Maui for 2 people from San Francisco")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Message)
	}
	if res.WorkflowState != models.StatePlanning {
		t.Errorf("state = %q, want planning", res.WorkflowState)
	}
	if len(res.Days) != 5 {
		t.Fatalf("days summary length = %d, want 5", len(res.Days))
	}
	for _, d := range res.Days {
		if d.Expanded {
			t.Errorf("day %d reported expanded on a fresh plan", d.Day)
		}
	}

	got, _ := st.Get(s.ID)
	if got.WorkflowState != models.StatePlanning {
		t.Errorf("stored state = %q, want planning", got.WorkflowState)
	}
	if got.TripInfo == nil || !got.TripInfo.Confirmed {
		t.Error("trip info not confirmed after completion")
	}
}

func TestPartialTripInfoStaysCollecting(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionAdvanceInfo, TripInfo: &models.TripInfo{Destination: "Maui"}}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")

	res, err := e.RunTurn(context.Background(), s.ID, "I want to go to Maui")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Message)
	}
	got, _ := st.Get(s.ID)
	if got.WorkflowState != models.StateCollectingInfo {
		t.Errorf("state = %q, want collecting_info", got.WorkflowState)
	}
}

func TestExpandDayBeforePlanningIsInvalid(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionExpandDay, Day: 1}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")

	res, err := e.RunTurn(context.Background(), s.ID, "expand day 1")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure before trip info is collected")
	}
	if !errors.Is(res.Err, models.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", res.Err)
	}
	got, _ := st.Get(s.ID)
	if got.WorkflowState != models.StateCollectingInfo {
		t.Errorf("state changed on an invalid transition: %q", got.WorkflowState)
	}
}

func TestExpandDayStoresActivities(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionExpandDay, Day: 2}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")
	if _, err := e.UpdateTripInfo(s.ID, mauiTrip()); err != nil {
		t.Fatalf("UpdateTripInfo: %v", err)
	}

	res, err := e.RunTurn(context.Background(), s.ID, "plan day 2")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Message)
	}
	if res.WorkflowState != models.StateDayExpansion {
		t.Errorf("state = %q, want day_expansion", res.WorkflowState)
	}
	if res.ExpandedDay == nil || len(res.ExpandedDay.Activities) != 2 {
		t.Fatalf("expanded day = %+v", res.ExpandedDay)
	}

	got, _ := st.Get(s.ID)
	day, ok := got.ExpandedDays[2]
	if !ok {
		t.Fatal("day 2 missing from the session")
	}
	if day.DayNumber != 2 {
		t.Errorf("day number = %d, want 2", day.DayNumber)
	}
	for _, a := range day.Activities {
		if a.ID == "" {
			t.Errorf("activity %q has no id", a.Name)
		}
		if _, ok := got.SuggestedActivities[a.ID]; !ok {
			t.Errorf("activity %q not registered as suggested", a.Name)
		}
	}
}

func TestExpandDayOutOfRange(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionExpandDay, Day: 9}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")
	_, _ = e.UpdateTripInfo(s.ID, mauiTrip())

	res, err := e.RunTurn(context.Background(), s.ID, "plan day 9")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Success || !errors.Is(res.Err, models.ErrOutOfRangeDay) {
		t.Fatalf("res = %+v, want out-of-range failure", res)
	}
	got, _ := st.Get(s.ID)
	if len(got.ExpandedDays) != 0 {
		t.Error("out-of-range expansion left a day behind")
	}
}

func TestSearchRequiresSelectedActivities(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionSearchFlight}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s := expandedSession(t, e)

	res, err := e.RunTurn(context.Background(), s, "find me flights")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Success || !errors.Is(res.Err, models.ErrNoSelectedActivities) {
		t.Fatalf("res = %+v, want no-selected-activities failure", res)
	}
	got, _ := st.Get(s)
	if got.WorkflowState != models.StateDayExpansion {
		t.Errorf("state = %q, want day_expansion", got.WorkflowState)
	}
}

func TestSearchStoresOffers(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionSearchFlight}, nil
	}}
	flights := &fakeDispatcher{offers: []models.Offer{
		{ID: "f1", Kind: "flight", Airline: "Hawaiian Airlines", FlightNumber: "HA 101", Price: 420, Currency: "USD"},
	}}
	e, st := newTestEngine(llm, flights, nil)
	s := expandedSession(t, e)
	selectFirstActivity(t, e, s)

	res, err := e.RunTurn(context.Background(), s, "find me flights")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !res.Success {
		t.Fatalf("turn failed: %s", res.Message)
	}
	if res.WorkflowState != models.StateSearching {
		t.Errorf("state = %q, want searching", res.WorkflowState)
	}
	if len(res.Offers) != 1 || res.Offers[0].ID != "f1" {
		t.Fatalf("offers = %+v", res.Offers)
	}
	got, _ := st.Get(s)
	if len(got.Offers) != 1 {
		t.Error("offers not stored on the session")
	}
}

func TestCollaboratorFailureKeepsUserTurn(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{}, errors.New("model unavailable")
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")

	res, err := e.RunTurn(context.Background(), s.ID, "hello?")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Success || !errors.Is(res.Err, models.ErrCollaboratorFailure) {
		t.Fatalf("res = %+v, want collaborator failure", res)
	}

	got, _ := st.Get(s.ID)
	if got.WorkflowState != models.StateCollectingInfo {
		t.Error("state changed on a failed turn")
	}
	// welcome + user + apology
	if len(got.Conversation) != 3 {
		t.Fatalf("history = %v", got.Conversation)
	}
	if got.Conversation[1].Role != "user" || got.Conversation[1].Text != "hello?" {
		t.Error("user turn missing after failure")
	}
}

func TestCancelledTurnAppliesNoDelta(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &fakeLLM{
		classify: func(models.WorkflowState, string) (models.Action, error) {
			return models.Action{Kind: models.ActionExpandDay, Day: 1}, nil
		},
		expand: func(int) (*models.DayPlan, string, error) {
			cancel() // client walks away mid-call
			return &models.DayPlan{Activities: []models.Activity{{Name: "Hike"}}}, "", nil
		},
	}
	e, st := newTestEngine(llm, nil, nil)
	s, _ := e.StartSession("")
	_, _ = e.UpdateTripInfo(s.ID, mauiTrip())

	_, err := e.RunTurn(ctx, s.ID, "plan day 1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	got, _ := st.Get(s.ID)
	if len(got.ExpandedDays) != 0 {
		t.Error("delta applied for a cancelled turn")
	}
	if got.WorkflowState != models.StatePlanning {
		t.Errorf("state = %q, want planning", got.WorkflowState)
	}
	last := got.Conversation[len(got.Conversation)-1]
	if last.Role != "user" {
		t.Error("assistant turn recorded for a cancelled turn")
	}
}

func TestFinalizeIsTerminal(t *testing.T) {
	calls := 0
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		calls++
		if calls == 1 {
			return models.Action{Kind: models.ActionFinalize}, nil
		}
		return models.Action{Kind: models.ActionAdvanceInfo, TripInfo: &models.TripInfo{Destination: "Kyoto"}}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s := expandedSession(t, e)

	res, err := e.RunTurn(context.Background(), s, "looks good, finalize it")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !res.Success || res.WorkflowState != models.StateFinalized {
		t.Fatalf("res = %+v, want finalized", res)
	}

	res, err = e.RunTurn(context.Background(), s, "actually make it Kyoto")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Success || !errors.Is(res.Err, models.ErrInvalidTransition) {
		t.Fatalf("res = %+v, want invalid transition after finalize", res)
	}
	got, _ := st.Get(s)
	if got.TripInfo.Destination != "Maui" {
		t.Error("trip info mutated after finalize")
	}
}

func TestFinalizeBeforePlanningIsInvalid(t *testing.T) {
	llm := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionFinalize}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s, err := e.StartSession("")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	res, err := e.RunTurn(context.Background(), s.ID, "finalize it")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Success || !errors.Is(res.Err, models.ErrInvalidTransition) {
		t.Fatalf("res = %+v, want invalid transition with no plan to lock", res)
	}
	got, _ := st.Get(s.ID)
	if got.WorkflowState != models.StateCollectingInfo {
		t.Errorf("state = %q, want collecting_info unchanged", got.WorkflowState)
	}
}

func TestReviseDayRemovesActivity(t *testing.T) {
	llm := &fakeLLM{modifyDay: func(day *models.DayPlan, _ string) (*models.DayPlan, string, []string, error) {
		out := day.Clone()
		kept := out.Activities[:0]
		for _, a := range out.Activities {
			if a.Name != "Snorkeling" {
				kept = append(kept, a)
			}
		}
		out.Activities = kept
		return out, "Removed the snorkeling activity.", []string{"Add a beach walk instead"}, nil
	}}
	e, st := newTestEngine(llm, nil, nil)
	s := expandedSession(t, e)

	res, err := e.ModifyDay(context.Background(), s, 2, "remove the snorkeling activity")
	if err != nil {
		t.Fatalf("ModifyDay: %v", err)
	}
	if !res.Success {
		t.Fatalf("modify failed: %s", res.Message)
	}
	for _, a := range res.ExpandedDay.Activities {
		if a.Name == "Snorkeling" {
			t.Error("snorkeling still present after revision")
		}
	}
	if len(res.AllExpandedDays) != 1 {
		t.Errorf("all expanded days = %v", res.AllExpandedDays)
	}
	if len(res.SuggestModifications) != 1 {
		t.Errorf("suggestions = %v", res.SuggestModifications)
	}

	got, _ := st.Get(s)
	if len(got.ExpandedDays[2].Activities) != 1 {
		t.Errorf("stored day = %+v", got.ExpandedDays[2])
	}
}

func TestReviseDayNotExpanded(t *testing.T) {
	e, st := newTestEngine(&fakeLLM{}, nil, nil)
	s := expandedSession(t, e)

	res, err := e.ModifyDay(context.Background(), s, 3, "move dinner earlier")
	if err != nil {
		t.Fatalf("ModifyDay: %v", err)
	}
	if res.Success || !errors.Is(res.Err, models.ErrDayNotExpanded) {
		t.Fatalf("res = %+v, want day-not-expanded failure", res)
	}

	// the user message is real history even though the revision failed
	got, _ := st.Get(s)
	last := got.Conversation[len(got.Conversation)-1]
	if last.Role != "user" || last.Text != "move dinner earlier" {
		t.Errorf("last turn = %+v", last)
	}
}

func TestReviseDayNoOpReturnsEqualDay(t *testing.T) {
	e, st := newTestEngine(&fakeLLM{}, nil, nil) // default ModifyDay echoes the input
	s := expandedSession(t, e)

	before, _ := st.Get(s)
	res, err := e.ModifyDay(context.Background(), s, 2, "no changes")
	if err != nil {
		t.Fatalf("ModifyDay: %v", err)
	}
	if !res.Success {
		t.Fatalf("modify failed: %s", res.Message)
	}
	want := before.ExpandedDays[2]
	if len(res.ExpandedDay.Activities) != len(want.Activities) {
		t.Fatalf("day changed on a no-op: %+v", res.ExpandedDay)
	}
	for i, a := range res.ExpandedDay.Activities {
		if a != want.Activities[i] {
			t.Errorf("activity %d changed: %+v != %+v", i, a, want.Activities[i])
		}
	}
}

// expandedSession builds a session in day_expansion with day 2 expanded.
func expandedSession(t *testing.T, e *Engine) string {
	t.Helper()
	s, err := e.StartSession("")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := e.UpdateTripInfo(s.ID, mauiTrip()); err != nil {
		t.Fatalf("UpdateTripInfo: %v", err)
	}
	expandLLM := &fakeLLM{classify: func(models.WorkflowState, string) (models.Action, error) {
		return models.Action{Kind: models.ActionExpandDay, Day: 2}, nil
	}}
	helper := NewEngine(e.store, expandLLM, e.flights, e.hotels)
	res, err := helper.RunTurn(context.Background(), s.ID, "plan day 2")
	if err != nil || !res.Success {
		t.Fatalf("expand setup failed: %v %+v", err, res)
	}
	return s.ID
}

func selectFirstActivity(t *testing.T, e *Engine, id string) {
	t.Helper()
	s, err := e.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	for aid := range s.SuggestedActivities {
		if _, err := e.SelectActivities(id, []string{aid}); err != nil {
			t.Fatalf("SelectActivities: %v", err)
		}
		return
	}
	t.Fatal("no suggested activities to select")
}
