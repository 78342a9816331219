package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dawgbowl/internal/domain/draft"
)

// session owns one draft. Its mutex serializes every call on that draft;
// sessions never share locks.
type session struct {
	mu      sync.Mutex
	id      string
	draft   *draft.Draft
	created time.Time
	touched atomic.Int64 // unix nanos of the last lookup
}

type sessions struct {
	mu       sync.RWMutex
	now      func() time.Time
	byID     map[string]*session
	byLineup map[string]string // submitted lineup id -> session id
}

func newSessions(now func() time.Time) *sessions {
	return &sessions{
		now:      now,
		byID:     make(map[string]*session),
		byLineup: make(map[string]string),
	}
}

func (r *sessions) create() *session {
	now := r.now()
	s := &session{id: uuid.NewString(), draft: draft.New(), created: now}
	s.touched.Store(now.UnixNano())
	r.mu.Lock()
	r.byID[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *sessions) get(id string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touched.Store(r.now().UnixNano())
	return s, nil
}

func (r *sessions) bind(lineupID, sessionID string) {
	r.mu.Lock()
	r.byLineup[lineupID] = sessionID
	r.mu.Unlock()
}

func (r *sessions) forLineup(lineupID string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byLineup[lineupID]
	if !ok {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

func (r *sessions) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// expire drops sessions not looked up within ttl, along with the lineup
// index entries that point at them. It returns how many were dropped.
func (r *sessions) expire(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.byID {
		if s.touched.Load() < cutoff {
			delete(r.byID, id)
			dropped++
		}
	}
	if dropped > 0 {
		for lineupID, sessionID := range r.byLineup {
			if _, ok := r.byID[sessionID]; !ok {
				delete(r.byLineup, lineupID)
			}
		}
	}
	return dropped
}
