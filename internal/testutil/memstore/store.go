// Package memstore хранилище в памяти для тестов сервисов и сценариев.
// Повторяет контракты PostgreSQL-репозиториев, включая ограничение исключения на пересечение записей.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
)

// Store потокобезопасное хранилище блоков и записей
type Store struct {
	mu           sync.Mutex
	blocks       map[int64]*domain.AvailabilityBlock
	appointments map[int64]*domain.Appointment
	nextID       int64
	now          func() time.Time
	skipOverlap  bool

	// Счётчики вызовов для проверок в тестах
	LockCalls int
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		blocks:       make(map[int64]*domain.AvailabilityBlock),
		appointments: make(map[int64]*domain.Appointment),
		now:          time.Now,
	}
}

// DisableOverlapCheck отключает аналог ограничения исключения.
// Тогда от пересечений защищают только блокировки и проверки самого сценария
func (s *Store) DisableOverlapCheck() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipOverlap = true
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Blocks возвращает репозиторий блоков
func (s *Store) Blocks() *BlockRepo { return &BlockRepo{s: s} }

// Appointments возвращает репозиторий записей
func (s *Store) Appointments() *AppointmentRepo { return &AppointmentRepo{s: s} }

// TxManager возвращает менеджер транзакций, который просто вызывает fn
func (s *Store) TxManager() *TxManager { return &TxManager{} }

// BlockRepo реализация репозитория блоков в памяти
type BlockRepo struct{ s *Store }

func (r *BlockRepo) Create(_ context.Context, block *domain.AvailabilityBlock) (*domain.AvailabilityBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b := copyBlock(block)
	b.ID = r.s.id()
	b.CreatedAt = r.s.now()
	b.UpdatedAt = b.CreatedAt
	b.DayRules = r.s.assignRuleIDs(b.ID, b.DayRules)
	b.Providers = r.s.syncProviders(b.ID, nil, block.ProviderIDs())
	r.s.blocks[b.ID] = b
	return copyBlock(b), nil
}

func (r *BlockRepo) GetByID(_ context.Context, id int64) (*domain.AvailabilityBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blocks[id]
	if !ok {
		return nil, availabilityRepo.ErrBlockNotFound
	}
	return copyBlock(b), nil
}

func (r *BlockRepo) List(_ context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.AvailabilityBlock, 0)
	for _, b := range r.s.blocks {
		if filter.ActiveOnly && !b.Active {
			continue
		}
		if filter.ProviderID != nil && !b.HasProvider(*filter.ProviderID) {
			continue
		}
		if filter.To != nil && domain.DateOnly(b.ValidFrom).After(domain.DateOnly(*filter.To)) {
			continue
		}
		if filter.From != nil && domain.DateOnly(b.ValidTo).Before(domain.DateOnly(*filter.From)) {
			continue
		}
		result = append(result, copyBlock(b))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *BlockRepo) UpdateBlock(_ context.Context, block *domain.AvailabilityBlock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blocks[block.ID]
	if !ok {
		return availabilityRepo.ErrBlockNotFound
	}
	b.ValidFrom = block.ValidFrom
	b.ValidTo = block.ValidTo
	b.Active = block.Active
	b.UpdatedAt = r.s.now()
	block.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *BlockRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blocks[id]
	if !ok {
		return availabilityRepo.ErrBlockNotFound
	}
	b.Active = active
	b.UpdatedAt = r.s.now()
	return nil
}

func (r *BlockRepo) ReplaceDayRules(_ context.Context, blockID int64, rules []domain.DayRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blocks[blockID]
	if !ok {
		return availabilityRepo.ErrBlockNotFound
	}
	b.DayRules = r.s.assignRuleIDs(blockID, rules)
	return nil
}

func (r *BlockRepo) SyncProviders(_ context.Context, blockID int64, providerIDs []int64) ([]domain.BlockProvider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blocks[blockID]
	if !ok {
		return nil, availabilityRepo.ErrBlockNotFound
	}
	b.Providers = r.s.syncProviders(blockID, b.Providers, providerIDs)
	return append([]domain.BlockProvider(nil), b.Providers...), nil
}

func (s *Store) assignRuleIDs(blockID int64, rules []domain.DayRule) []domain.DayRule {
	result := make([]domain.DayRule, len(rules))
	for i, rule := range rules {
		rule.ID = s.id()
		rule.BlockID = blockID
		result[i] = rule
	}
	return result
}

func (s *Store) syncProviders(blockID int64, current []domain.BlockProvider, providerIDs []int64) []domain.BlockProvider {
	byProvider := make(map[int64]domain.BlockProvider, len(current))
	for _, p := range current {
		byProvider[p.ProviderID] = p
	}

	result := make([]domain.BlockProvider, 0, len(providerIDs))
	seen := make(map[int64]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := byProvider[id]; ok {
			result = append(result, p)
			continue
		}
		result = append(result, domain.BlockProvider{ID: s.id(), BlockID: blockID, ProviderID: id, CreatedAt: s.now()})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProviderID < result[j].ProviderID })
	return result
}

// AppointmentRepo реализация репозитория записей в памяти
type AppointmentRepo struct{ s *Store }

func (r *AppointmentRepo) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.overlapsLocked(a) {
		return nil, appointmentRepo.ErrOverlap
	}

	created := copyAppointment(a)
	created.ID = r.s.id()
	created.CreatedAt = r.s.now()
	created.UpdatedAt = created.CreatedAt
	for i := range created.Services {
		created.Services[i].ID = r.s.id()
		created.Services[i].AppointmentID = created.ID
	}
	r.s.appointments[created.ID] = created
	return copyAppointment(created), nil
}

func (r *AppointmentRepo) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return copyAppointment(a), nil
}

func (r *AppointmentRepo) ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Appointment, error) {
	return r.List(ctx, domain.AppointmentFilter{ProviderID: &providerID, StartDate: &date, EndDate: &date})
}

func (r *AppointmentRepo) ListActiveInRange(ctx context.Context, providerIDs []int64, from, to time.Time) ([]*domain.Appointment, error) {
	all, err := r.List(ctx, domain.AppointmentFilter{StartDate: &from, EndDate: &to})
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = struct{}{}
	}
	result := make([]*domain.Appointment, 0, len(all))
	for _, a := range all {
		if _, ok := wanted[a.ProviderID]; ok {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *AppointmentRepo) List(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range r.s.appointments {
		if filter.ProviderID != nil && a.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		if filter.StartDate != nil && a.Date.Before(domain.DateOnly(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && a.Date.After(domain.DateOnly(*filter.EndDate)) {
			continue
		}
		if filter.Status != nil {
			if a.Status != *filter.Status {
				continue
			}
		} else if !filter.IncludeCancelled && a.Status == domain.StatusCancelled {
			continue
		}
		result = append(result, copyAppointment(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].ProviderID != result[j].ProviderID {
			return result[i].ProviderID < result[j].ProviderID
		}
		return result[i].StartTime.IsBefore(result[j].StartTime)
	})
	return result, nil
}

func (r *AppointmentRepo) Update(_ context.Context, a *domain.Appointment, replaceServices bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.appointments[a.ID]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	if stored.HoldsSlot() && r.s.overlapsLocked(a) {
		return appointmentRepo.ErrOverlap
	}

	updated := copyAppointment(a)
	updated.Status = stored.Status
	updated.CancelledAt = stored.CancelledAt
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.s.now()
	if replaceServices {
		for i := range updated.Services {
			updated.Services[i].ID = r.s.id()
			updated.Services[i].AppointmentID = updated.ID
		}
	} else {
		updated.Services = append([]domain.AppointmentService(nil), stored.Services...)
	}
	r.s.appointments[a.ID] = updated
	a.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *AppointmentRepo) UpdateStatus(_ context.Context, id int64, status domain.AppointmentStatus, cancelledAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	a.Status = status
	a.CancelledAt = cancelledAt
	a.UpdatedAt = r.s.now()
	return nil
}

func (r *AppointmentRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[id]; !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *AppointmentRepo) LockProviderDay(_ context.Context, _ int64, _ time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.LockCalls++
	return nil
}

// overlapsLocked аналог ограничения исключения в БД
func (s *Store) overlapsLocked(a *domain.Appointment) bool {
	if s.skipOverlap || !a.HoldsSlot() {
		return false
	}
	for _, other := range s.appointments {
		if other.ID == a.ID || other.ProviderID != a.ProviderID || !other.HoldsSlot() {
			continue
		}
		if other.OverlapsInterval(a.Date, a.StartTime, a.EndTime) {
			return true
		}
	}
	return false
}

// TxManager выполняет fn без транзакции, атомарность отдельных операций обеспечивает Store
type TxManager struct{}

func (TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func (TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func copyBlock(b *domain.AvailabilityBlock) *domain.AvailabilityBlock {
	c := *b
	c.DayRules = append([]domain.DayRule(nil), b.DayRules...)
	c.Providers = append([]domain.BlockProvider(nil), b.Providers...)
	return &c
}

func copyAppointment(a *domain.Appointment) *domain.Appointment {
	c := *a
	c.Services = append([]domain.AppointmentService(nil), a.Services...)
	if a.Notes != nil {
		notes := *a.Notes
		c.Notes = &notes
	}
	if a.CancelledAt != nil {
		at := *a.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}
