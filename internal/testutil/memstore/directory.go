package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/staffservice"
)

// Directory заглушка внешних справочников: каталог услуг, мастера и клиенты
type Directory struct {
	mu        sync.RWMutex
	services  map[int64]*catalogservice.Service
	providers map[int64]bool
	clients   map[int64]struct{}
}

// NewDirectory создает пустой справочник
func NewDirectory() *Directory {
	return &Directory{
		services:  make(map[int64]*catalogservice.Service),
		providers: make(map[int64]bool),
		clients:   make(map[int64]struct{}),
	}
}

// AddService регистрирует услугу каталога
func (d *Directory) AddService(id int64, name string, price float64, duration int, active bool) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[id] = &catalogservice.Service{ID: id, Name: name, Price: price, DurationMinutes: duration, Active: active}
	return d
}

// AddProvider регистрирует мастера
func (d *Directory) AddProvider(id int64, active bool) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[id] = active
	return d
}

// AddClient регистрирует клиента
func (d *Directory) AddClient(id int64) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[id] = struct{}{}
	return d
}

func (d *Directory) GetService(_ context.Context, id int64) (*catalogservice.Service, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.services[id]
	if !ok {
		return nil, catalogservice.ErrServiceNotFound
	}
	c := *s
	return &c, nil
}

func (d *Directory) IsActiveProvider(_ context.Context, id int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.providers[id], nil
}

func (d *Directory) ListProvidersWithRole(_ context.Context) ([]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]int64, 0, len(d.providers))
	for id, active := range d.providers {
		if active {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (d *Directory) GetProvider(_ context.Context, id int64) (*staffservice.Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	active, ok := d.providers[id]
	if !ok {
		return nil, staffservice.ErrProviderNotFound
	}
	return &staffservice.Provider{ID: id, Active: active, Role: staffservice.RoleProvider}, nil
}

func (d *Directory) Exists(_ context.Context, id int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.clients[id]
	return ok, nil
}
