package results

import (
	"sync"

	"github.com/google/uuid"
)

// sampleLocks serializes result submissions per sample so the status
// reduction reads a consistent result set. Entries are reference-counted
// and removed when the last holder unlocks.
type sampleLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sampleLock
}

type sampleLock struct {
	mu   sync.Mutex
	refs int
}

func newSampleLocks() *sampleLocks {
	return &sampleLocks{locks: make(map[uuid.UUID]*sampleLock)}
}

func (s *sampleLocks) lock(id uuid.UUID) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sampleLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
}

func (s *sampleLocks) unlock(id uuid.UUID) {
	s.mu.Lock()
	l := s.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()

	l.mu.Unlock()
}
