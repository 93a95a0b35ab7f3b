package session

import (
	"log"
	"sort"
	"sync"
	"time"

	"wayfarer/models"

	"github.com/google/uuid"
)

// Store is the process-wide arena of planning sessions, keyed by opaque
// token. It owns the only mutation path into a Session: values handed out
// by Get are copies, and every write goes through a store method (or a Turn
// transaction) so access to one session is always serialized.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl  time.Duration
	stop chan struct{}
	done chan struct{}
}

type entry struct {
	// held for the duration of one store operation, or one whole agent
	// turn when taken through Turn
	mu sync.Mutex
	s  *models.Session
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
	}
}

// Create allocates a new session in the collecting_info state with an
// unguessable identifier and empty history.
func (st *Store) Create() *models.Session {
	now := time.Now()
	s := &models.Session{
		ID:                  uuid.NewString(),
		ExpandedDays:        make(map[int]*models.DayPlan),
		SuggestedActivities: make(map[string]models.Activity),
		WorkflowState:       models.StateCollectingInfo,
		CreatedAt:           now,
		LastAccess:          now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = &entry{s: s}
	st.mu.Unlock()

	return s.Clone()
}

// Get returns a copy of the session. Expired entries are treated as not
// found, never returned silently.
func (st *Store) Get(id string) (*models.Session, error) {
	e, err := st.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Clone(), nil
}

func (st *Store) lookup(id string) (*entry, error) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if st.expired(e) {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
		return nil, models.ErrSessionNotFound
	}
	return e, nil
}

func (st *Store) expired(e *entry) bool {
	if st.ttl <= 0 {
		return false
	}
	// LastAccess is only written under e.mu, but a stale read here just
	// delays eviction by one sweep
	return time.Since(e.s.LastAccess) > st.ttl
}

// Patch carries the shallow fields Update may merge into a session. Fields
// outside this struct cannot be written, which is how unknown-field updates
// are rejected.
type Patch struct {
	TripInfo            *models.TripInfo
	WorkflowState       *models.WorkflowState
	SuggestedActivities map[string]models.Activity
	SelectedActivityIDs []string
	Offers              []models.Offer
}

// Update merges the patch into the session and refreshes its last access.
func (st *Store) Update(id string, p Patch) error {
	return st.Turn(id, func(tx *Txn) error {
		tx.Apply(p)
		return nil
	})
}

// AddToConversation appends one turn to the session's history.
func (st *Store) AddToConversation(id, role, text string) error {
	return st.Turn(id, func(tx *Txn) error {
		tx.AddTurn(role, text)
		return nil
	})
}

// SetExpandedDay inserts or overwrites one expanded day. The day number must
// fall inside [1, TripInfo.DurationDays].
func (st *Store) SetExpandedDay(id string, dayNumber int, plan *models.DayPlan) error {
	return st.Turn(id, func(tx *Txn) error {
		return tx.SetExpandedDay(dayNumber, plan)
	})
}

// Turn runs fn with the session's lock held for the whole call, so a
// read-modify-write sequence (including a collaborator suspend point) cannot
// interleave with another turn on the same session. Turns on other sessions
// proceed independently.
func (st *Store) Turn(id string, fn func(tx *Txn) error) error {
	e, err := st.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &Txn{s: e.s}
	err = fn(tx)
	// any turn that reached the session counts as activity, even a failed one
	e.s.LastAccess = time.Now()
	return err
}

// StartSweeper evicts idle sessions in the background until Stop is called.
// A session whose lock is held (an in-flight turn) is skipped and picked up
// on a later sweep.
func (st *Store) StartSweeper(interval time.Duration) {
	st.stop = make(chan struct{})
	st.done = make(chan struct{})
	go func() {
		defer close(st.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.sweep()
			case <-st.stop:
				return
			}
		}
	}()
}

func (st *Store) Stop() {
	if st.stop == nil {
		return
	}
	close(st.stop)
	<-st.done
	st.stop = nil
}

func (st *Store) sweep() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, e := range st.sessions {
		if !st.expired(e) {
			continue
		}
		if !e.mu.TryLock() {
			// in-flight turn delays its own session's eviction
			continue
		}
		if st.expired(e) {
			delete(st.sessions, id)
			log.Printf("session %s evicted after %v idle", id, st.ttl)
		}
		e.mu.Unlock()
	}
}

// ForUser returns copies of the live sessions created by the given user,
// most recently used first. A session mid-turn is skipped rather than
// blocking the listing on its lock.
func (st *Store) ForUser(userID string) []*models.Session {
	if userID == "" {
		return nil
	}

	st.mu.RLock()
	entries := make([]*entry, 0, len(st.sessions))
	for _, e := range st.sessions {
		entries = append(entries, e)
	}
	st.mu.RUnlock()

	out := make([]*models.Session, 0)
	for _, e := range entries {
		if st.expired(e) || !e.mu.TryLock() {
			continue
		}
		if e.s.CreatedBy == userID {
			out = append(out, e.s.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAccess.After(out[j].LastAccess) })
	return out
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
