package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the process-local session registry, keyed by the opaque cookie
// value. Sessions are never persisted and all of them die with the process.
// The registry only shrinks through Drop; abandoned wizard sessions stay
// resident until restart. Sessions hold a few strings and small slices each,
// so growth is bounded by distinct visitors per process lifetime.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Issue creates a fresh session under a new random identifier.
func (st *Store) Issue() *Session {
	sess := &Session{ID: uuid.NewString()}
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session for id, if it exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// Drop forgets the session for id.
func (st *Store) Drop(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
