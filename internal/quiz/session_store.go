// internal/quiz/session_store.go
package quiz

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a user's state is kept after their last request.
const DefaultSessionTTL = 6 * time.Hour

const sweepEvery = time.Minute

// Pending is the problem a user has been shown and not yet answered.
type Pending struct {
	DealID   uuid.UUID
	IssuedAt time.Time
}

type session struct {
	pending  *Pending
	lastDeal uuid.UUID
	seen     time.Time
}

// SessionStore keeps each user's pending problem, and the deal served to them
// last, in memory. Users idle for longer than TTL are forgotten.
type SessionStore struct {
	TTL time.Duration

	mu    sync.Mutex
	users map[uuid.UUID]*session
	swept time.Time
	now   func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		TTL:   DefaultSessionTTL,
		users: make(map[uuid.UUID]*session),
		now:   time.Now,
	}
}

// get returns the user's live session. Caller holds mu.
func (s *SessionStore) get(userID uuid.UUID, now time.Time) *session {
	sess, ok := s.users[userID]
	if !ok {
		return nil
	}
	if now.Sub(sess.seen) > s.TTL {
		delete(s.users, userID)
		return nil
	}
	return sess
}

// sweep drops idle users. Caller holds mu.
func (s *SessionStore) sweep(now time.Time) {
	if now.Sub(s.swept) < sweepEvery {
		return
	}
	s.swept = now
	for id, sess := range s.users {
		if now.Sub(sess.seen) > s.TTL {
			delete(s.users, id)
		}
	}
}

// Put records dealID as the user's pending problem, replacing any earlier one.
func (s *SessionStore) Put(userID, dealID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.users[userID] = &session{
		pending:  &Pending{DealID: dealID, IssuedAt: now},
		lastDeal: dealID,
		seen:     now,
	}
}

// Peek returns the pending problem without removing it.
func (s *SessionStore) Peek(userID uuid.UUID) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID, s.now())
	if sess == nil || sess.pending == nil {
		return Pending{}, false
	}
	return *sess.pending, true
}

// Take removes and returns the pending problem if it matches dealID.
// A mismatching pending problem is left in place.
func (s *SessionStore) Take(userID, dealID uuid.UUID) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := s.get(userID, now)
	if sess == nil || sess.pending == nil {
		return Pending{}, ErrNoPendingProblem
	}
	if sess.pending.DealID != dealID {
		return Pending{}, ErrProblemMismatch
	}
	p := *sess.pending
	sess.pending = nil
	sess.seen = now
	return p, nil
}

// Last returns the most recent deal served to the user, or uuid.Nil.
func (s *SessionStore) Last(userID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.get(userID, s.now()); sess != nil {
		return sess.lastDeal
	}
	return uuid.Nil
}

// Len returns the number of users with a pending problem.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.users {
		if sess.pending != nil {
			n++
		}
	}
	return n
}
