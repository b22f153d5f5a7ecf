package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ErrLockNotAcquired возвращается, если блокировку не удалось взять за отведённое время
var ErrLockNotAcquired = errors.New("lock: not acquired")

// Locker выполняет функцию под эксклюзивной блокировкой ключа
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ProviderDayKey ключ блокировки расписания мастера на дату
func ProviderDayKey(providerID int64, date time.Time) string {
	return fmt.Sprintf("lock:provider:%d:%s", providerID, date.Format(domain.DateFormat))
}
