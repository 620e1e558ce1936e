package agent

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// sessionSlots serializes turns per session id. Each id maps to a weight-1
// semaphore that lives only while some turn holds or awaits it.
type sessionSlots struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

func newSessionSlots() *sessionSlots {
	return &sessionSlots{slots: make(map[string]*slot)}
}

// acquire blocks until the slot for id is free or ctx is done. The returned
// func releases it.
func (s *sessionSlots) acquire(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	sl, ok := s.slots[id]
	if !ok {
		sl = &slot{sem: semaphore.NewWeighted(1)}
		s.slots[id] = sl
	}
	sl.refs++
	s.mu.Unlock()

	if err := sl.sem.Acquire(ctx, 1); err != nil {
		s.unref(id, sl)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sl.sem.Release(1)
			s.unref(id, sl)
		})
	}, nil
}

func (s *sessionSlots) unref(id string, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(s.slots, id)
	}
}

// len reports the number of ids with a held or awaited slot.
func (s *sessionSlots) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
