package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type localEntry struct {
	ch   chan struct{}
	refs int
}

// LocalLocker блокировка по ключу в пределах одного процесса
// Используется, когда Redis отключён
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	wait    time.Duration
}

// NewLocalLocker создает локальную блокировку с ожиданием не дольше wait
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		entries: make(map[string]*localEntry),
		wait:    wait,
	}
}

// WithLock выполняет fn под блокировкой key
func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	entry := l.ref(key)
	defer l.unref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
	}
	defer func() { <-entry.ch }()

	return fn(ctx)
}

func (l *LocalLocker) ref(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entries[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}
