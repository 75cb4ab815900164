// Package session tracks the live sessions of the web UI and exposes them
// through a background-reloading list provider.
package session

import (
	"sync"
	"time"
)

// Session is one live UI session. Mutable fields are guarded by the
// session's own lock; snapshots are taken under that lock so concurrent
// Touch calls never produce a torn read.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.Mutex
	lastSeen   time.Time
	remoteAddr string
	userAgent  string
	requests   int64
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was first seen.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// touch records a request served for this session.
func (s *Session) touch(remoteAddr, userAgent string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
	s.remoteAddr = remoteAddr
	s.userAgent = userAgent
	s.requests++
}

// snapshot copies the session into an Info under the session lock.
func (s *Session) snapshot(now time.Time) Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		LastSeen:   s.lastSeen,
		RemoteAddr: s.remoteAddr,
		UserAgent:  s.userAgent,
		Requests:   s.requests,
		Age:        now.Sub(s.createdAt),
	}
}

func (s *Session) lastSeenAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Info is an immutable view of a session, safe to hand to any goroutine.
type Info struct {
	ID         string
	CreatedAt  time.Time
	LastSeen   time.Time
	RemoteAddr string
	UserAgent  string
	Requests   int64
	Age        time.Duration
}

// Registry is the set of live sessions, keyed by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Touch records a request for the given session id, creating the session on
// first sight, and returns it.
func (r *Registry) Touch(id, remoteAddr, userAgent string) *Session {
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{id: id, createdAt: now}
		r.sessions[id] = s
	}
	r.mu.Unlock()

	s.touch(remoteAddr, userAgent, now)
	return s
}

// Snapshot returns the live sessions in unspecified order.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than ttl and returns how many were
// dropped.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.sessions {
		if s.lastSeenAt().Before(cutoff) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}
