package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на создание записи
type Request struct {
	ClientID   int64            // ID клиента
	ProviderID *int64           // ID мастера, nil = подобрать автоматически
	Date       time.Time        // Дата записи (без времени)
	StartTime  types.TimeString // Время начала (например, "09:30")
	ServiceIDs []int64          // Услуги в порядке выполнения
	Status     string           // Начальный статус: "", "pending" или "confirmed"
	Notes      *string          // Комментарий (опционально)
}
