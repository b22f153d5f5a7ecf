package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// demoService услуга демо-каталога
type demoService struct {
	id       int64
	duration int
	price    float64
}

var demoCatalog = []demoService{
	{id: 1, duration: 60, price: 1500},
	{id: 2, duration: 30, price: 800},
	{id: 3, duration: 45, price: 1200},
	{id: 4, duration: 90, price: 2500},
}

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to config file")
		providers  = flag.Int("providers", 3, "number of providers")
		days       = flag.Int("days", 14, "length of the seeded period in days")
		attempts   = flag.Int("attempts", 60, "booking attempts to make")
		seed       = flag.Uint64("seed", 1, "faker seed")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}

	wrappedDB := dbmetrics.Wrap(db, nil)
	txMgr := txmanager.NewTransactionManager(wrappedDB, time.Duration(cfg.Database.TxTimeoutMs)*time.Millisecond)
	blocks := availabilityRepo.NewRepository(wrappedDB)
	appointments := appointmentRepo.NewRepository(wrappedDB)

	ctx := context.Background()
	faker := gofakeit.New(*seed)
	from := domain.DateOnly(time.Now())
	to := from.AddDate(0, 0, *days-1)

	providerIDs := make([]int64, 0, *providers)
	for i := 1; i <= *providers; i++ {
		providerIDs = append(providerIDs, int64(i))
	}

	block, err := seedBlock(ctx, txMgr, blocks, from, to, providerIDs)
	if err != nil {
		log.Fatal("Failed to seed availability block: %v", err)
	}
	log.Info("Seeded availability block id=%d for providers=%v (%s..%s)",
		block.ID, providerIDs, from.Format(domain.DateFormat), to.Format(domain.DateFormat))

	var created, rejected int
	for i := 0; i < *attempts; i++ {
		a := randomAppointment(faker, providerIDs, from, *days)
		err := txMgr.DoSerializable(ctx, func(ctx context.Context) error {
			covering, err := booking.Place(ctx, blocks, appointments, a.ProviderID, a.Date, a.StartTime, a.EndTime, 0)
			if err != nil {
				return err
			}
			a.AvailabilityBlockID = covering.ID
			_, err = appointments.Create(ctx, a)
			return err
		})
		err = booking.ClassifyWriteError("seed", err)

		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrSlotConflict), errors.Is(err, domain.ErrOutsideAvailability):
			rejected++
		default:
			log.Fatal("Failed to seed appointment: %v", err)
		}
	}

	log.Info("Seed finished: created=%d, rejected=%d", created, rejected)
}

func seedBlock(
	ctx context.Context,
	txMgr *txmanager.Manager,
	repo *availabilityRepo.Repository,
	from, to time.Time,
	providerIDs []int64,
) (*domain.AvailabilityBlock, error) {
	block := &domain.AvailabilityBlock{
		ValidFrom: from,
		ValidTo:   to,
		Active:    true,
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		block.DayRules = append(block.DayRules,
			domain.DayRule{Weekday: wd, StartTime: "09:00", EndTime: "13:00"},
			domain.DayRule{Weekday: wd, StartTime: "14:00", EndTime: "19:00"},
		)
	}
	block.DayRules = append(block.DayRules, domain.DayRule{Weekday: time.Saturday, StartTime: "10:00", EndTime: "16:00"})
	for _, id := range providerIDs {
		block.Providers = append(block.Providers, domain.BlockProvider{ProviderID: id})
	}

	var created *domain.AvailabilityBlock
	err := txMgr.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = repo.Create(ctx, block)
		return err
	})
	return created, err
}

func randomAppointment(faker *gofakeit.Faker, providerIDs []int64, from time.Time, days int) *domain.Appointment {
	date := from.AddDate(0, 0, faker.IntRange(0, days-1))
	start, _ := types.NewTimeStringFromMinutes(9*60 + faker.IntRange(0, 19)*30)

	picked := faker.IntRange(1, 2)
	a := &domain.Appointment{
		ClientID:   int64(faker.IntRange(1000, 1999)),
		ProviderID: providerIDs[faker.IntRange(0, len(providerIDs)-1)],
		Date:       date,
		StartTime:  start,
		Status:     domain.StatusConfirmed,
	}
	if faker.Bool() {
		a.Status = domain.StatusPending
	}
	if faker.IntRange(0, 3) == 0 {
		a.Notes = ptr.Ptr("гость: " + faker.Name())
	}

	first := faker.IntRange(0, len(demoCatalog)-1)
	for i := 0; i < picked; i++ {
		s := demoCatalog[(first+i)%len(demoCatalog)]
		a.Services = append(a.Services, domain.AppointmentService{
			ServiceID:       s.id,
			Position:        i + 1,
			PriceAtBooking:  s.price,
			DurationMinutes: s.duration,
		})
		a.DurationMinutes += s.duration
		a.TotalPrice += s.price
	}

	end, err := a.StartTime.AddMinutes(a.DurationMinutes)
	if err != nil {
		end = "24:00"
	}
	a.EndTime = end
	return a
}
