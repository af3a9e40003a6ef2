package core

import (
	"sync"
	"time"
)

// session holds one browser's pending order.
type session struct {
	mu       sync.Mutex
	builder  *OrderBuilder
	lastSeen time.Time
}

func (s *Service) session(id string) *session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{builder: NewOrderBuilder()}
		s.sessions[id] = sess
	}
	sess.lastSeen = s.now()
	return sess
}

// WithOrder runs fn with exclusive access to the session's order builder,
// creating the builder on first use.
func (s *Service) WithOrder(sessionID string, fn func(b *OrderBuilder) error) error {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.builder)
}

// OrderSnapshot is a read-only copy of a session's pending order.
type OrderSnapshot struct {
	Draft
	Selected Row
	Items    []LineItem
	Editing  int // -1 when no item is being edited
}

// IsEditing reports whether an item is loaded for update.
func (o OrderSnapshot) IsEditing() bool { return o.Editing >= 0 }

// HasSelection reports whether a search result is selected.
func (o OrderSnapshot) HasSelection() bool { return o.Selected != nil }

// Order returns a snapshot of the session's pending order.
func (s *Service) Order(sessionID string) OrderSnapshot {
	var snap OrderSnapshot
	_ = s.WithOrder(sessionID, func(b *OrderBuilder) error {
		sel, _ := b.Selected()
		idx, ok := b.EditingIndex()
		if !ok {
			idx = -1
		}
		snap = OrderSnapshot{
			Draft:    b.Draft,
			Selected: sel.Clone(),
			Items:    b.Items(),
			Editing:  idx,
		}
		return nil
	})
	return snap
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

// expireSessions drops sessions idle for longer than ttl.
func (s *Service) expireSessions(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			expired++
		}
	}
	return expired
}
