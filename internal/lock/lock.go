// Package lock serializes read-modify-write cycles on shared files.
package lock

import (
	"context"
	"sync"
)

// Locker acquires a named lock. The returned func releases it and must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// LocalLocker is a keyed mutex valid within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) Lock(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[name] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

var _ Locker = (*LocalLocker)(nil)
