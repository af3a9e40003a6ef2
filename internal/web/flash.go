package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/web/templates"
)

// maxFlashes caps the queue per session so abandoned sessions stay small.
const maxFlashes = 8

// flashTTL is how long an unread message is kept. A redirect is followed
// within seconds; anything older belongs to a client that never came back,
// such as one that drops the session cookie.
const flashTTL = 10 * time.Minute

// flashStore keeps one-shot messages per session until the next page render.
type flashStore struct {
	mu       sync.Mutex
	byID     map[string]*flashQueue
	lastTrim time.Time
	now      func() time.Time
}

type flashQueue struct {
	msgs    []templates.Flash
	updated time.Time
}

func newFlashStore() *flashStore {
	return &flashStore{byID: make(map[string]*flashQueue), now: time.Now}
}

func (f *flashStore) push(sessionID string, msg templates.Flash) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.trim(now)

	q, ok := f.byID[sessionID]
	if !ok {
		q = &flashQueue{}
		f.byID[sessionID] = q
	}
	q.msgs = append(q.msgs, msg)
	if len(q.msgs) > maxFlashes {
		q.msgs = q.msgs[len(q.msgs)-maxFlashes:]
	}
	q.updated = now
}

// pop returns and forgets the session's messages.
func (f *flashStore) pop(sessionID string) []templates.Flash {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.byID[sessionID]
	if !ok {
		return nil
	}
	delete(f.byID, sessionID)
	return q.msgs
}

// trim drops queues untouched for flashTTL, at most once a minute.
func (f *flashStore) trim(now time.Time) {
	if now.Sub(f.lastTrim) < time.Minute {
		return
	}
	f.lastTrim = now
	for id, q := range f.byID {
		if now.Sub(q.updated) > flashTTL {
			delete(f.byID, id)
		}
	}
}

// len returns the number of sessions with unread messages.
func (f *flashStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func sessionID(r *http.Request) string {
	return core.SessionIDFromContext(r.Context())
}

// page builds the shared page data, consuming pending flash messages.
func (s *Server) page(r *http.Request, title, active string) templates.Page {
	return templates.Page{
		Title:   title,
		Active:  active,
		Flashes: s.flashes.pop(sessionID(r)),
	}
}
