// Package session holds per-session conversational state: a bounded FIFO of
// query/answer exchanges behind a lock per session id.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"course-rag/internal/domain"
)

type entry struct {
	flow    sync.Mutex // serializes whole read-then-append query units
	mu      sync.Mutex // guards history
	history []domain.Exchange
}

// Store is a concurrency-safe keyed conversation store. Unknown session ids
// are created on first use. Sessions live for the process lifetime; Sessions
// lets the embedding process watch growth and decide on eviction.
type Store struct {
	maxHistory int

	mu      sync.Mutex
	entries map[string]*entry
}

func NewStore(maxHistory int) *Store {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Store{maxHistory: maxHistory, entries: make(map[string]*entry)}
}

// NewSessionID mints a fresh session identifier.
func (s *Store) NewSessionID() string { return uuid.NewString() }

func (s *Store) entryFor(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// Acquire takes the session's exclusive lock and returns its release. The
// orchestrator holds it across one whole read-then-append unit of work so
// overlapping requests on the same session serialize; distinct sessions do
// not contend.
func (s *Store) Acquire(id string) (release func()) {
	e := s.entryFor(id)
	e.flow.Lock()
	return e.flow.Unlock
}

// History returns the session's exchanges, oldest first. An unknown id yields
// an empty history, never an error.
func (s *Store) History(id string) []domain.Exchange {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Exchange, len(e.history))
	copy(out, e.history)
	return out
}

// Append records an exchange and truncates to the most recent maxHistory
// entries, evicting oldest first.
func (s *Store) Append(id string, ex domain.Exchange) {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, ex)
	if extra := len(e.history) - s.maxHistory; extra > 0 {
		e.history = append([]domain.Exchange(nil), e.history[extra:]...)
	}
}

// Render formats the session history as the bounded text block injected into
// the next prompt.
func (s *Store) Render(id string) string {
	history := s.History(id)
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", ex.Query, ex.Answer)
	}
	return b.String()
}

// Sessions reports how many sessions are live, for monitoring growth.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
