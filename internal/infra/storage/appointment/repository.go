package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

var appointmentColumns = []string{
	"id",
	"client_id",
	"provider_id",
	"availability_block_id",
	"date",
	"start_time",
	"end_time",
	"duration_minutes",
	"status",
	"total_price",
	"notes",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с записями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись вместе со строками услуг
// Должен вызываться внутри транзакции: запись и услуги сохраняются атомарно
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"client_id",
			"provider_id",
			"availability_block_id",
			"date",
			"start_time",
			"end_time",
			"duration_minutes",
			"status",
			"total_price",
			"notes",
		).
		Values(
			a.ClientID,
			a.ProviderID,
			a.AvailabilityBlockID,
			a.Date,
			a.StartTime,
			a.EndTime,
			a.DurationMinutes,
			a.Status,
			a.TotalPrice,
			a.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, classifyExecError("Create - execute insert", err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	if err := r.insertServices(ctx, a.ID, a.Services); err != nil {
		return nil, err
	}

	return a, nil
}

// GetByID получает запись по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, classifyScanError("GetByID - scan appointment", err)
	}

	if err := r.loadServices(ctx, []*domain.Appointment{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// ListActiveByProviderAndDate возвращает записи мастера на дату, занимающие время (все, кроме отменённых)
// Внутри транзакции строки блокируются (FOR UPDATE)
func (r *Repository) ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Appointment, error) {
	day := domain.DateOnly(date)
	return r.List(ctx, domain.AppointmentFilter{
		ProviderID: &providerID,
		StartDate:  &day,
		EndDate:    &day,
	})
}

// ListActiveInRange возвращает записи, занимающие время, для набора мастеров в диапазоне дат
func (r *Repository) ListActiveInRange(ctx context.Context, providerIDs []int64, from, to time.Time) ([]*domain.Appointment, error) {
	if len(providerIDs) == 0 {
		return []*domain.Appointment{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"provider_id": providerIDs}).
		Where(squirrel.GtOrEq{"date": domain.DateOnly(from)}).
		Where(squirrel.LtOrEq{"date": domain.DateOnly(to)}).
		Where(squirrel.NotEq{"status": string(domain.StatusCancelled)}).
		OrderBy("provider_id ASC", "date ASC", "start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveInRange - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryAppointments(ctx, executor, query, args)
}

// List получает записи с фильтрацией
//
// Без Status и IncludeCancelled отменённые записи исключаются.
// Выборка по одному мастеру на одну дату внутри транзакции блокирует строки (FOR UPDATE).
func (r *Repository) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(appointmentColumns...).From("appointments")

	if filter.ProviderID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"provider_id": *filter.ProviderID})
	}
	if filter.ClientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"date": domain.DateOnly(*filter.StartDate)})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"date": domain.DateOnly(*filter.EndDate)})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": string(*filter.Status)})
	} else if !filter.IncludeCancelled {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": string(domain.StatusCancelled)})
	}

	singleDay := filter.StartDate != nil && filter.EndDate != nil && domain.SameDate(*filter.StartDate, *filter.EndDate)
	if singleDay {
		selectBuilder = selectBuilder.OrderBy("provider_id ASC", "start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("date DESC", "start_time DESC")
	}

	lock := dbmetrics.IsInTransaction(ctx) && singleDay && filter.ProviderID != nil
	if lock {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryAppointments(ctx, executor, query, args)
}

// Update сохраняет изменения записи (дата, время, мастер, блок, заметки, суммы)
// При replaceServices строки услуг пересоздаются
func (r *Repository) Update(ctx context.Context, a *domain.Appointment, replaceServices bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("provider_id", a.ProviderID).
		Set("availability_block_id", a.AvailabilityBlockID).
		Set("date", a.Date).
		Set("start_time", a.StartTime).
		Set("end_time", a.EndTime).
		Set("duration_minutes", a.DurationMinutes).
		Set("total_price", a.TotalPrice).
		Set("notes", a.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return classifyExecError("Update - execute update", err)
	}
	a.UpdatedAt = updatedAt.Time

	if !replaceServices {
		return nil
	}

	if err := r.deleteServices(ctx, a.ID); err != nil {
		return err
	}
	return r.insertServices(ctx, a.ID, a.Services)
}

// UpdateStatus обновляет статус записи, cancelledAt проставляется при отмене
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus, cancelledAt *time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("status", string(status)).
		Set("cancelled_at", cancelledAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return classifyExecError("UpdateStatus - execute update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

// Delete физически удаляет запись вместе со строками услуг
// Только для административного удаления, в остальных случаях используется отмена
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.deleteServices(ctx, id); err != nil {
		return err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

// LockProviderDay берёт транзакционную advisory-блокировку на пару (мастер, дата)
// Блокировка снимается при завершении транзакции
func (r *Repository) LockProviderDay(ctx context.Context, providerID int64, date time.Time) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return fmt.Errorf("%w: LockProviderDay - must be called inside a transaction", ErrExecQuery)
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	_, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", ProviderDayLockKey(providerID, date))
	if err != nil {
		return classifyExecError("LockProviderDay - acquire advisory lock", err)
	}
	return nil
}

// ProviderDayLockKey стабильный 64-битный ключ блокировки для пары (мастер, дата)
func ProviderDayLockKey(providerID int64, date time.Time) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "provider:%d:%s", providerID, date.Format(domain.DateFormat))
	return int64(h.Sum64())
}

func (r *Repository) insertServices(ctx context.Context, appointmentID int64, services []domain.AppointmentService) error {
	if len(services) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("appointment_services").
		Columns("appointment_id", "service_id", "position", "price_at_booking", "duration_minutes")
	for _, s := range services {
		insertBuilder = insertBuilder.Values(appointmentID, s.ServiceID, s.Position, s.PriceAtBooking, s.DurationMinutes)
	}

	query, args, err := insertBuilder.Suffix("RETURNING id").ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertServices - build insert query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return classifyExecError("insertServices - execute insert", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&services[i].ID); err != nil {
			return fmt.Errorf("%w: insertServices - scan id: %v", ErrScanRow, err)
		}
		services[i].AppointmentID = appointmentID
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: insertServices - rows error: %v", ErrScanRow, err)
	}

	return nil
}

func (r *Repository) deleteServices(ctx context.Context, appointmentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointment_services").
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: deleteServices - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: deleteServices - execute delete: %v", ErrExecQuery, err)
	}
	return nil
}

func (r *Repository) queryAppointments(ctx context.Context, executor DBExecutor, query string, args []interface{}) ([]*domain.Appointment, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyExecError("queryAppointments - execute query", err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, classifyScanError("queryAppointments - scan row", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyScanError("queryAppointments - rows error", err)
	}
	rows.Close()

	if err := r.loadServices(ctx, appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *Repository) loadServices(ctx context.Context, appointments []*domain.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	ids := make([]int64, 0, len(appointments))
	byID := make(map[int64]*domain.Appointment, len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.ID)
		byID[a.ID] = a
		a.Services = make([]domain.AppointmentService, 0)
	}

	query, args, err := psqlbuilder.Select("id", "appointment_id", "service_id", "position", "price_at_booking", "duration_minutes").
		From("appointment_services").
		Where(squirrel.Eq{"appointment_id": ids}).
		OrderBy("appointment_id ASC", "position ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.AppointmentService
		if err := rows.Scan(&s.ID, &s.AppointmentID, &s.ServiceID, &s.Position, &s.PriceAtBooking, &s.DurationMinutes); err != nil {
			return fmt.Errorf("%w: loadServices - scan row: %v", ErrScanRow, err)
		}
		if a, ok := byID[s.AppointmentID]; ok {
			a.Services = append(a.Services, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadServices - rows error: %v", ErrScanRow, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		a                    domain.Appointment
		status               string
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ProviderID,
		&a.AvailabilityBlockID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.DurationMinutes,
		&status,
		&a.TotalPrice,
		&a.Notes,
		&a.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Date = domain.DateOnly(a.Date)
	a.Status = domain.AppointmentStatus(status)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return &a, nil
}

// classifyExecError отделяет конфликты конкурентного доступа от прочих ошибок БД
func classifyExecError(op string, err error) error {
	switch {
	case txmanager.IsExclusionViolation(err):
		return fmt.Errorf("%w: %s: %v", ErrOverlap, op, err)
	case txmanager.IsSerializationFailure(err):
		return fmt.Errorf("%w: %s: %v", ErrSerialization, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
	}
}

func classifyScanError(op string, err error) error {
	if txmanager.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %s: %v", ErrSerialization, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrScanRow, op, err)
}
