package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
)

// entry is one open document. mu serializes every operation on the
// session, whose Manager is not safe for concurrent use.
type entry struct {
	mu      sync.Mutex
	id      string
	session *pipeline.Session
	created time.Time
}

// Store keeps the open documents of the server in memory.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry), now: time.Now}
}

// Add stores s under a new random id and returns the id.
func (st *Store) Add(s *pipeline.Session) string {
	return st.add(s).id
}

// add stores s and returns its entry, which stays usable after a Delete.
func (st *Store) add(s *pipeline.Session) *entry {
	e := &entry{id: uuid.NewString(), session: s, created: st.now()}
	st.mu.Lock()
	st.entries[e.id] = e
	st.mu.Unlock()
	return e
}

func (st *Store) get(id string) (*entry, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	e, ok := st.entries[id]
	return e, ok
}

// Delete removes id and reports whether it was present.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.entries[id]; !ok {
		return false
	}
	delete(st.entries, id)
	return true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// list returns the entries oldest first.
func (st *Store) list() []*entry {
	st.mu.RLock()
	out := make([]*entry, 0, len(st.entries))
	for _, e := range st.entries {
		out = append(out, e)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].created.Equal(out[j].created) {
			return out[i].id < out[j].id
		}
		return out[i].created.Before(out[j].created)
	})
	return out
}
