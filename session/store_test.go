package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"wayfarer/models"
)

func TestCreateDefaults(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()
	if s.ID == "" {
		t.Fatal("expected a session id")
	}

	got, err := st.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WorkflowState != models.StateCollectingInfo {
		t.Errorf("workflow state = %q, want %q", got.WorkflowState, models.StateCollectingInfo)
	}
	if len(got.Conversation) != 0 {
		t.Errorf("expected empty history, got %d turns", len(got.Conversation))
	}
	if len(got.ExpandedDays) != 0 {
		t.Errorf("expected no expanded days, got %d", len(got.ExpandedDays))
	}
}

func TestGetUnknownSession(t *testing.T) {
	st := NewStore(time.Minute)
	if _, err := st.Get("nope"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestConversationAppendOrder(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()

	texts := []string{"first", "second", "third", "fourth"}
	for i, text := range texts {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		if err := st.AddToConversation(s.ID, role, text); err != nil {
			t.Fatalf("AddToConversation: %v", err)
		}
	}

	got, err := st.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Conversation) != len(texts) {
		t.Fatalf("history length = %d, want %d", len(got.Conversation), len(texts))
	}
	for i, turn := range got.Conversation {
		if turn.Text != texts[i] {
			t.Errorf("turn %d = %q, want %q", i, turn.Text, texts[i])
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()

	got, _ := st.Get(s.ID)
	got.WorkflowState = models.StateFinalized
	got.Conversation = append(got.Conversation, models.ConversationTurn{Role: "user", Text: "sneaky"})

	again, _ := st.Get(s.ID)
	if again.WorkflowState != models.StateCollectingInfo {
		t.Error("mutating a Get result leaked into the store")
	}
	if len(again.Conversation) != 0 {
		t.Error("appending to a Get result leaked into the store")
	}
}

func TestSetExpandedDayRange(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()
	if err := st.Update(s.ID, Patch{TripInfo: &models.TripInfo{
		Source: "Lisbon", Destination: "Maui", DurationDays: 3, Travelers: 2,
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	plan := &models.DayPlan{Activities: []models.Activity{{ID: "a1", Name: "Beach"}}}
	for _, day := range []int{0, -1, 4} {
		if err := st.SetExpandedDay(s.ID, day, plan); !errors.Is(err, models.ErrOutOfRangeDay) {
			t.Errorf("day %d: err = %v, want ErrOutOfRangeDay", day, err)
		}
	}

	if err := st.SetExpandedDay(s.ID, 2, plan); err != nil {
		t.Fatalf("SetExpandedDay: %v", err)
	}
	got, _ := st.Get(s.ID)
	d, ok := got.ExpandedDays[2]
	if !ok {
		t.Fatal("day 2 missing after SetExpandedDay")
	}
	if d.DayNumber != 2 || len(d.Activities) != 1 {
		t.Errorf("stored day = %+v", d)
	}
}

func TestSelectedActivityIDsFiltered(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()

	err := st.Update(s.ID, Patch{SuggestedActivities: map[string]models.Activity{
		"known": {ID: "known", Name: "Snorkeling"},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := st.Update(s.ID, Patch{SelectedActivityIDs: []string{"known", "ghost"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := st.Get(s.ID)
	if len(got.SelectedActivityIDs) != 1 || got.SelectedActivityIDs[0] != "known" {
		t.Errorf("selected ids = %v, want [known]", got.SelectedActivityIDs)
	}
}

func TestExpiredSessionIsNotFound(t *testing.T) {
	st := NewStore(20 * time.Millisecond)
	s := st.Create()

	time.Sleep(40 * time.Millisecond)
	if _, err := st.Get(s.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if st.Len() != 0 {
		t.Errorf("Len = %d after expiry, want 0", st.Len())
	}
}

func TestSweepSkipsInFlightTurn(t *testing.T) {
	st := NewStore(20 * time.Millisecond)
	s := st.Create()

	err := st.Turn(s.ID, func(tx *Txn) error {
		time.Sleep(40 * time.Millisecond) // let the session go stale mid-turn
		st.sweep()
		if st.Len() != 1 {
			t.Error("sweep evicted a session whose turn was in flight")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}

	// the turn refreshed last access, so the session survives the next sweep
	st.sweep()
	if st.Len() != 1 {
		t.Error("session evicted right after an active turn")
	}
}

func TestConcurrentTurnsSerialize(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()

	var wg sync.WaitGroup
	for _, tag := range []string{"alpha", "beta"} {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			_ = st.Turn(s.ID, func(tx *Txn) error {
				tx.AddTurn("user", tag)
				time.Sleep(10 * time.Millisecond) // widen the race window
				tx.AddTurn("assistant", tag)
				return nil
			})
		}(tag)
	}
	wg.Wait()

	got, _ := st.Get(s.ID)
	if len(got.Conversation) != 4 {
		t.Fatalf("history length = %d, want 4", len(got.Conversation))
	}
	// each user turn must be immediately followed by its own response
	for i := 0; i < 4; i += 2 {
		if got.Conversation[i].Role != "user" || got.Conversation[i+1].Role != "assistant" {
			t.Fatalf("turn roles interleaved: %v", got.Conversation)
		}
		if got.Conversation[i].Text != got.Conversation[i+1].Text {
			t.Fatalf("turn pairing broken: %v", got.Conversation)
		}
	}
}

func TestFailedTurnKeepsHistory(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()

	wantErr := errors.New("downstream failed")
	err := st.Turn(s.ID, func(tx *Txn) error {
		tx.AddTurn("user", "please expand day 2")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Turn err = %v, want %v", err, wantErr)
	}

	got, _ := st.Get(s.ID)
	if len(got.Conversation) != 1 || got.Conversation[0].Text != "please expand day 2" {
		t.Errorf("user turn not preserved after failure: %v", got.Conversation)
	}
}

func TestForUserListsOwnedSessions(t *testing.T) {
	st := NewStore(time.Minute)

	mine := st.Create()
	_ = st.Turn(mine.ID, func(tx *Txn) error {
		tx.Session().CreatedBy = "u1"
		return nil
	})
	theirs := st.Create()
	_ = st.Turn(theirs.ID, func(tx *Txn) error {
		tx.Session().CreatedBy = "u2"
		return nil
	})
	st.Create() // anonymous

	got := st.ForUser("u1")
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("ForUser(u1) = %v, want just the owned session", got)
	}
	if st.ForUser("") != nil {
		t.Error("empty user id should list nothing")
	}
}

func TestForUserSkipsInFlightSessions(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()
	_ = st.Turn(s.ID, func(tx *Txn) error {
		tx.Session().CreatedBy = "u1"
		return nil
	})

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = st.Turn(s.ID, func(tx *Txn) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if got := st.ForUser("u1"); len(got) != 0 {
		t.Errorf("listing blocked session returned %d entries, want it skipped", len(got))
	}
	close(release)
}
