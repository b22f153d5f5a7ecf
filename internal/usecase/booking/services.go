package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// Snapshot услуги записи с зафиксированными ценой и длительностью
type Snapshot struct {
	Services        []domain.AppointmentService
	DurationMinutes int
	TotalPrice      float64
}

// ValidateServiceIDs проверяет непустой список уникальных положительных ID услуг
func ValidateServiceIDs(ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one service is required", domain.ErrInvalidInput)
	}
	if len(ids) > domain.MaxServicesPerAppointment {
		return fmt.Errorf("%w: at most %d services per appointment", domain.ErrInvalidInput, domain.MaxServicesPerAppointment)
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: serviceId must be positive, got %d", domain.ErrInvalidInput, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate serviceId %d", domain.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// SnapshotServices получает услуги из каталога в порядке запроса и фиксирует цену и длительность
func SnapshotServices(ctx context.Context, catalog CatalogClient, ids []int64) (*Snapshot, error) {
	snapshot := &Snapshot{Services: make([]domain.AppointmentService, 0, len(ids))}

	for i, id := range ids {
		service, err := catalog.GetService(ctx, id)
		if err != nil {
			if errors.Is(err, catalogservice.ErrServiceNotFound) {
				return nil, fmt.Errorf("%w: id=%d", domain.ErrServiceNotFound, id)
			}
			return nil, fmt.Errorf("%w: SnapshotServices - catalog: %v", domain.ErrInternal, err)
		}
		if !service.Active {
			return nil, fmt.Errorf("%w: id=%d", domain.ErrServiceInactive, id)
		}

		snapshot.Services = append(snapshot.Services, domain.AppointmentService{
			ServiceID:       service.ID,
			Position:        i + 1,
			PriceAtBooking:  service.Price,
			DurationMinutes: service.DurationMinutes,
		})
		snapshot.DurationMinutes += service.DurationMinutes
		snapshot.TotalPrice += service.Price
	}

	return snapshot, nil
}
