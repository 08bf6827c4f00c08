package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNilSession is returned when Put is given a nil session or one without a user id.
var ErrNilSession = errors.New("session: nil session or empty user id")

// Store maps user ids to sessions. Implementations must be safe for
// concurrent use across different keys; callers serialize work on one key.
type Store interface {
	// Get returns the session for userID, or nil when there is none.
	Get(userID string) (*Session, error)
	// Create inserts a fresh session, overwriting any prior one for userID.
	Create(userID string, at time.Time) (*Session, error)
	// Put replaces the stored session. Last writer wins.
	Put(s *Session) error
	// Remove discards the session for userID. Removing an absent id is not an error.
	Remove(userID string) error
	// RemoveCreatedBefore discards every session created before cutoff and
	// returns the removed user ids.
	RemoveCreatedBefore(cutoff time.Time) ([]string, error)
	// List returns summaries ordered by most recently updated first.
	List(limit int) ([]Summary, error)
	// Close releases any resources held by the store.
	Close() error
}

// Options configure how stores create sessions.
type Options struct {
	RequireName bool
}

// MemoryStore keeps sessions in a map. Values are copied on the way in and
// out so callers never share a *Session with the store.
type MemoryStore struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) Get(userID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID].Clone(), nil
}

func (m *MemoryStore) Create(userID string, at time.Time) (*Session, error) {
	s := New(userID, m.opts.RequireName, at)

	m.mu.Lock()
	m.sessions[userID] = s.Clone()
	m.mu.Unlock()

	return s, nil
}

func (m *MemoryStore) Put(s *Session) error {
	if s == nil || s.UserID == "" {
		return ErrNilSession
	}

	m.mu.Lock()
	m.sessions[s.UserID] = s.Clone()
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Remove(userID string) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) RemoveCreatedBefore(cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

func (m *MemoryStore) List(limit int) ([]Summary, error) {
	m.mu.RLock()
	summaries := make([]Summary, 0, len(m.sessions))
	for _, s := range m.sessions {
		summaries = append(summaries, Summarize(s))
	}
	m.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UserID < summaries[j].UserID
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Close() error { return nil }
