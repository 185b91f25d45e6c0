// Package lock serialises progression steps per cohort
package lock

import (
	"context"
	"sync"
)

// Locker hands out exclusive locks by key. The returned function releases the lock
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Memory is a Locker for a single process. Keys are forgotten once nobody holds or waits on them
type Memory struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch    chan struct{}
	users int
}

// NewMemory creates an in-process Locker
func NewMemory() *Memory {
	return &Memory{locks: map[string]*entry{}}
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.users++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				m.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}
}

func (m *Memory) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.users--
	if e.users == 0 {
		delete(m.locks, key)
	}
}
