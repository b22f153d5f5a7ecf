package update_appointment

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request частичное изменение записи, nil поля не меняются
type Request struct {
	ID         int64
	Date       *time.Time
	StartTime  *types.TimeString
	ProviderID *int64
	ServiceIDs *[]int64 // при наличии услуги заново берутся из каталога
	Notes      *string
}

// movesSlot сообщает, затрагивает ли изменение интервал записи
func (r *Request) movesSlot() bool {
	return r.Date != nil || r.StartTime != nil || r.ProviderID != nil || r.ServiceIDs != nil
}

func (r *Request) isEmpty() bool {
	return !r.movesSlot() && r.Notes == nil
}

// slotKey мастер и дата, которые будут у записи после изменения
func (r *Request) slotKey(current *domain.Appointment) (int64, time.Time) {
	providerID, date := current.ProviderID, current.Date
	if r.ProviderID != nil {
		providerID = *r.ProviderID
	}
	if r.Date != nil {
		date = domain.DateOnly(*r.Date)
	}
	return providerID, date
}
