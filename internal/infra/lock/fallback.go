package lock

import (
	"context"
	"errors"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// FallbackLocker берёт блокировку в primary, а если primary недоступен, то в fallback.
// Занятый ключ и ошибки самой fn в fallback не уходят
type FallbackLocker struct {
	primary  Locker
	fallback Locker
	logger   Logger
}

// NewFallbackLocker создает блокировку с запасным вариантом
func NewFallbackLocker(primary, fallback Locker, logger Logger) *FallbackLocker {
	return &FallbackLocker{primary: primary, fallback: fallback, logger: logger}
}

func (l *FallbackLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ran := false
	err := l.primary.WithLock(ctx, key, func(ctx context.Context) error {
		ran = true
		return fn(ctx)
	})
	if err == nil || ran || errors.Is(err, ErrLockNotAcquired) || ctx.Err() != nil {
		return err
	}

	l.logger.Warn("Lock backend unavailable for %s, using in-process lock: %v", key, err)
	return l.fallback.WithLock(ctx, key, fn)
}
