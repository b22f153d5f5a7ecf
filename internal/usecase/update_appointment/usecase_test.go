package update_appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordBookingOutcome(outcome string) {
	m.Called(outcome)
}

type fixture struct {
	store    *memstore.Store
	dir      *memstore.Directory
	recorder *mockRecorder
	uc       *UseCase
	blockID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	dir := memstore.NewDirectory().
		AddService(1, "Стрижка", 1500, 60, true).
		AddService(2, "Маникюр", 800, 30, true).
		AddService(3, "Окрашивание", 4000, 120, true).
		AddProvider(1, true).
		AddProvider(2, true).
		AddProvider(3, false)

	block, err := store.Blocks().Create(context.Background(), &domain.AvailabilityBlock{
		ValidFrom: monday,
		ValidTo:   monday.AddDate(0, 0, 13),
		Active:    true,
		DayRules: []domain.DayRule{
			{Weekday: time.Monday, StartTime: "09:00", EndTime: "12:00"},
			{Weekday: time.Tuesday, StartTime: "09:00", EndTime: "12:00"},
		},
		Providers: []domain.BlockProvider{{ProviderID: 1}, {ProviderID: 2}},
	})
	require.NoError(t, err)

	recorder := &mockRecorder{}
	uc := NewUseCase(store.Appointments(), store.Blocks(), dir, dir,
		lock.NewLocalLocker(time.Second), store.TxManager(), recorder, memstore.NopLogger{})

	return &fixture{store: store, dir: dir, recorder: recorder, uc: uc, blockID: block.ID}
}

func (f *fixture) book(t *testing.T, providerID int64, start, end types.TimeString, status domain.AppointmentStatus) *domain.Appointment {
	t.Helper()
	created, err := f.store.Appointments().Create(context.Background(), &domain.Appointment{
		ClientID:            100,
		ProviderID:          providerID,
		AvailabilityBlockID: f.blockID,
		Date:                monday,
		StartTime:           start,
		EndTime:             end,
		DurationMinutes:     end.Minutes() - start.Minutes(),
		Status:              status,
		TotalPrice:          1500,
		Services: []domain.AppointmentService{
			{ServiceID: 1, Position: 1, PriceAtBooking: 1500, DurationMinutes: end.Minutes() - start.Minutes()},
		},
	})
	require.NoError(t, err)
	return created
}

func TestExecute_TerminalAppointmentIsImmutable(t *testing.T) {
	for _, status := range []domain.AppointmentStatus{domain.StatusCompleted, domain.StatusCancelled, domain.StatusNoShow} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			a := f.book(t, 1, "09:00", "10:00", status)
			f.recorder.On("RecordBookingOutcome", booking.OutcomeRejected).Once()

			_, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, Date: ptr.Ptr(monday.AddDate(0, 0, 1))})
			assert.ErrorIs(t, err, domain.ErrImmutableAppointment)

			stored, err := f.store.Appointments().GetByID(context.Background(), a.ID)
			require.NoError(t, err)
			assert.True(t, domain.SameDate(monday, stored.Date))
			f.recorder.AssertExpectations(t)
		})
	}
}

func TestExecute_Reschedule(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusConfirmed)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Once()

	updated, err := f.uc.Execute(context.Background(), &Request{
		ID:        a.ID,
		Date:      ptr.Ptr(monday.AddDate(0, 0, 1)),
		StartTime: ptr.Ptr(types.TimeString("11:00")),
	})
	require.NoError(t, err)

	assert.True(t, domain.SameDate(monday.AddDate(0, 0, 1), updated.Date))
	assert.Equal(t, types.TimeString("11:00"), updated.StartTime)
	assert.Equal(t, types.TimeString("12:00"), updated.EndTime)
	assert.Equal(t, domain.StatusConfirmed, updated.Status, "reschedule keeps status")
	assert.Equal(t, f.blockID, updated.AvailabilityBlockID)
	assert.Equal(t, 1, f.store.LockCalls)
	f.recorder.AssertExpectations(t)
}

func TestExecute_OverlapWithItselfIsAllowed(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Once()

	updated, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, StartTime: ptr.Ptr(types.TimeString("09:30"))})
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("10:30"), updated.EndTime)
}

func TestExecute_Conflict(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.book(t, 1, "10:30", "11:30", domain.StatusConfirmed)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeConflict).Once()

	_, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, StartTime: ptr.Ptr(types.TimeString("10:00"))})
	assert.ErrorIs(t, err, domain.ErrSlotConflict)
	f.recorder.AssertExpectations(t)
}

func TestExecute_CancelledAppointmentFreesInterval(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.book(t, 1, "10:30", "11:30", domain.StatusCancelled)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Once()

	_, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, StartTime: ptr.Ptr(types.TimeString("10:30"))})
	assert.NoError(t, err)
}

func TestExecute_OutsideAvailability(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeOutsideAvailability).Times(2)

	_, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, StartTime: ptr.Ptr(types.TimeString("11:30"))})
	assert.ErrorIs(t, err, domain.ErrOutsideAvailability)

	_, err = f.uc.Execute(context.Background(), &Request{ID: a.ID, Date: ptr.Ptr(monday.AddDate(0, 0, 2))})
	assert.ErrorIs(t, err, domain.ErrOutsideAvailability, "wednesday has no rule")
	f.recorder.AssertExpectations(t)
}

func TestExecute_ReplaceServices(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Once()

	updated, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, ServiceIDs: &[]int64{2, 1}})
	require.NoError(t, err)

	assert.Equal(t, 90, updated.DurationMinutes)
	assert.Equal(t, types.TimeString("10:30"), updated.EndTime)
	assert.InDelta(t, 2300, updated.TotalPrice, 0.001)
	require.Len(t, updated.Services, 2)
	assert.Equal(t, int64(2), updated.Services[0].ServiceID)
	assert.Equal(t, 1, updated.Services[0].Position)

	// Услуги, которые не помещаются в окно, отклоняются
	f.recorder.On("RecordBookingOutcome", booking.OutcomeOutsideAvailability).Once()
	_, err = f.uc.Execute(context.Background(), &Request{ID: a.ID, ServiceIDs: &[]int64{3, 1, 2}})
	assert.ErrorIs(t, err, domain.ErrOutsideAvailability)
}

func TestExecute_ChangeProvider(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.book(t, 2, "09:30", "10:30", domain.StatusPending)

	f.recorder.On("RecordBookingOutcome", booking.OutcomeConflict).Once()
	_, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, ProviderID: ptr.Ptr(int64(2))})
	assert.ErrorIs(t, err, domain.ErrSlotConflict)

	f.recorder.On("RecordBookingOutcome", booking.OutcomeRejected).Once()
	_, err = f.uc.Execute(context.Background(), &Request{ID: a.ID, ProviderID: ptr.Ptr(int64(3))})
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)

	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Once()
	updated, err := f.uc.Execute(context.Background(), &Request{
		ID:         a.ID,
		ProviderID: ptr.Ptr(int64(2)),
		StartTime:  ptr.Ptr(types.TimeString("10:30")),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ProviderID)
	f.recorder.AssertExpectations(t)
}

func TestExecute_NotesOnly(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)

	// Блок выключен, но комментарий меняется без перепроверки интервала
	require.NoError(t, f.store.Blocks().SetActive(context.Background(), f.blockID, false))

	updated, err := f.uc.Execute(context.Background(), &Request{ID: a.ID, Notes: ptr.Ptr("без опозданий")})
	require.NoError(t, err)
	assert.Equal(t, "без опозданий", ptr.Value(updated.Notes))
	assert.Equal(t, 0, f.store.LockCalls)
	f.recorder.AssertNotCalled(t, "RecordBookingOutcome", mock.Anything)
}

func TestExecute_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     func(id int64) *Request
		wantErr error
	}{
		{"empty patch", func(id int64) *Request { return &Request{ID: id} }, domain.ErrInvalidInput},
		{"bad id", func(int64) *Request { return &Request{ID: 0, Notes: ptr.Ptr("x")} }, domain.ErrInvalidInput},
		{"unknown id", func(int64) *Request { return &Request{ID: 999, Notes: ptr.Ptr("x")} }, domain.ErrAppointmentNotFound},
		{"malformed start", func(id int64) *Request {
			return &Request{ID: id, StartTime: ptr.Ptr(types.TimeString("25:00"))}
		}, domain.ErrInvalidInput},
		{"empty services", func(id int64) *Request { return &Request{ID: id, ServiceIDs: &[]int64{}} }, domain.ErrInvalidInput},
		{"unknown service", func(id int64) *Request { return &Request{ID: id, ServiceIDs: &[]int64{42}} }, domain.ErrServiceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
			f.recorder.On("RecordBookingOutcome", mock.Anything).Maybe()

			_, err := f.uc.Execute(context.Background(), tt.req(a.ID))
			assert.ErrorIs(t, err, tt.wantErr)

			stored, err := f.store.Appointments().GetByID(context.Background(), a.ID)
			require.NoError(t, err)
			assert.Equal(t, types.TimeString("09:00"), stored.StartTime)
			assert.Len(t, stored.Services, 1)
		})
	}
}

// staleRepo отдаёт сохранённый заранее снимок записи при первом чтении вне транзакции
type staleRepo struct {
	*memstore.AppointmentRepo
	snapshot *domain.Appointment
	served   bool
}

func (r *staleRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	if !r.served && id == r.snapshot.ID {
		r.served = true
		stale := *r.snapshot
		return &stale, nil
	}
	return r.AppointmentRepo.GetByID(ctx, id)
}

type keyRecordingLocker struct {
	*lock.LocalLocker
	keys []string
}

func (l *keyRecordingLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	return l.LocalLocker.WithLock(ctx, key, fn)
}

func (f *fixture) staleUseCase(snapshot *domain.Appointment, locker Locker) *UseCase {
	repo := &staleRepo{AppointmentRepo: f.store.Appointments(), snapshot: snapshot}
	return NewUseCase(repo, f.store.Blocks(), f.dir, f.dir, locker, f.store.TxManager(), f.recorder, memstore.NopLogger{})
}

func TestExecute_MoveAfterConcurrentServiceChange(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Times(2)

	snapshot, err := f.store.Appointments().GetByID(context.Background(), a.ID)
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), &Request{ID: a.ID, ServiceIDs: &[]int64{3}})
	require.NoError(t, err)

	// Перенос начат по состоянию до смены услуг
	uc := f.staleUseCase(snapshot, lock.NewLocalLocker(time.Second))
	updated, err := uc.Execute(context.Background(), &Request{ID: a.ID, StartTime: ptr.Ptr(types.TimeString("09:30"))})
	require.NoError(t, err)

	sum := 0
	for _, s := range updated.Services {
		sum += s.DurationMinutes
	}
	assert.Equal(t, 120, updated.DurationMinutes)
	assert.Equal(t, sum, updated.DurationMinutes)
	assert.Equal(t, types.TimeString("11:30"), updated.EndTime)
	assert.InDelta(t, 4000, updated.TotalPrice, 0.001)
	require.Len(t, updated.Services, 1)
	assert.Equal(t, int64(3), updated.Services[0].ServiceID)
	f.recorder.AssertExpectations(t)
}

func TestExecute_RelocksWhenProviderChangedConcurrently(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 1, "09:00", "10:00", domain.StatusPending)
	f.recorder.On("RecordBookingOutcome", booking.OutcomeRescheduled).Times(2)

	snapshot, err := f.store.Appointments().GetByID(context.Background(), a.ID)
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), &Request{ID: a.ID, ProviderID: ptr.Ptr(int64(2))})
	require.NoError(t, err)

	locker := &keyRecordingLocker{LocalLocker: lock.NewLocalLocker(time.Second)}
	uc := f.staleUseCase(snapshot, locker)
	updated, err := uc.Execute(context.Background(), &Request{ID: a.ID, StartTime: ptr.Ptr(types.TimeString("10:00"))})
	require.NoError(t, err)

	assert.Equal(t, int64(2), updated.ProviderID)
	assert.Equal(t, types.TimeString("10:00"), updated.StartTime)
	assert.Equal(t, []string{
		lock.ProviderDayKey(1, monday),
		lock.ProviderDayKey(2, monday),
	}, locker.keys)
	f.recorder.AssertExpectations(t)
}
