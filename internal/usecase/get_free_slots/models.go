package get_free_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса свободных слотов
type Request struct {
	ProviderID  *int64    // ID мастера, nil = все мастера
	From        time.Time // Первая дата периода (без времени)
	To          time.Time // Последняя дата периода включительно
	ServiceIDs  []int64   // Услуги, под суммарную длительность которых подбираются старты (опционально)
	Granularity *int      // Шаг сетки в минутах, nil = из конфигурации
}

// Response модель ответа со свободными слотами
type Response struct {
	From            time.Time
	To              time.Time
	Granularity     int
	DurationMinutes int // 0, если услуги не указаны
	Slots           []domain.Slot
}

// Settings параметры генерации слотов из конфигурации
type Settings struct {
	GranularityMinutes int
	MaxRangeDays       int
	Location           *time.Location // часовой пояс салона, nil для локальной зоны
}
