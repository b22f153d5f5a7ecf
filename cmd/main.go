package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/cancel_appointment"
	changeAppointmentStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/change_appointment_status"
	createAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_appointment"
	createAvailabilityBlockHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_availability_block"
	deactivateAvailabilityBlockHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/deactivate_availability_block"
	deleteAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/delete_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_appointment"
	getAvailabilityBlockHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_availability_block"
	getClientAppointmentsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_client_appointments"
	getFreeSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_free_slots"
	getProviderAppointmentsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_provider_appointments"
	healthHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/health"
	listAppointmentsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_appointments"
	listProviderAvailabilityHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_provider_availability"
	updateAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_appointment"
	updateAvailabilityBlockHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_availability_block"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/redisclient"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	catalogServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	clientServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/clientservice"
	staffServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/staffservice"
	appointmentsService "github.com/m04kA/SMC-SchedulingService/internal/service/appointments"
	"github.com/m04kA/SMC-SchedulingService/internal/service/assignment"
	availabilityService "github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
	createAppointmentUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_appointment"
	getFreeSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_free_slots"
	updateAppointmentUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/update_appointment"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var (
		metricsCollector *metrics.Metrics
		dbRecorder       dbmetrics.Recorder
		outcomeRecorder  booking.OutcomeRecorder
	)
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbRecorder = metricsCollector
		outcomeRecorder = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, dbRecorder, stopMetricsCh)
	if cfg.Metrics.Enabled {
		log.Info("Database metrics collection started")
	}
	txMgr := txmanager.NewTransactionManager(wrappedDB, time.Duration(cfg.Database.TxTimeoutMs)*time.Millisecond)

	salonLocation, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal("Invalid scheduling timezone: %v", err)
	}

	// Блокировка дня мастера: Redis, если включён, иначе в пределах процесса
	var (
		locker      createAppointmentUC.Locker
		redisPinger healthHandler.Pinger
	)
	lockTTL := time.Duration(cfg.Redis.LockTTLMs) * time.Millisecond
	lockWait := time.Duration(cfg.Redis.LockWaitMs) * time.Millisecond

	if cfg.Redis.Enabled {
		rdb, err := redisclient.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()

		// При недоступном Redis запись продолжает работать под локальной блокировкой,
		// пересечения между репликами отсекает advisory lock и ограничение исключения в БД
		locker = lock.NewFallbackLocker(lock.NewRedisLocker(rdb, lockTTL, lockWait), lock.NewLocalLocker(lockWait), log)
		redisPinger = healthHandler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info("Redis locker initialized (addr=%s, ttl=%s, wait=%s)", cfg.Redis.Addr, lockTTL, lockWait)
	} else {
		locker = lock.NewLocalLocker(lockWait)
		log.Warn("Redis disabled, using in-process locker: run a single replica only")
	}

	// Инициализируем интеграционных клиентов
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	staffClient := staffServiceClient.NewClient(
		cfg.StaffService.URL,
		time.Duration(cfg.StaffService.Timeout)*time.Second,
		log,
	)
	clientClient := clientServiceClient.NewClient(
		cfg.ClientService.URL,
		time.Duration(cfg.ClientService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (CatalogService=%s, StaffService=%s, ClientService=%s)",
		cfg.CatalogService.URL, cfg.StaffService.URL, cfg.ClientService.URL)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	blockRepository := availabilityRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(
		blockRepository,
		staffClient,
		txMgr,
		log,
	)
	appointmentsSvc := appointmentsService.NewService(
		appointmentRepository,
		nil,
		txMgr,
		log,
	)
	resolver := assignment.NewResolver(
		blockRepository,
		appointmentRepository,
		staffClient,
		assignment.AscendingIDPolicy{},
		cfg.Scheduling.SlotGranularityMinutes,
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		blockRepository,
		catalogClient,
		staffClient,
		clientClient,
		resolver,
		locker,
		txMgr,
		outcomeRecorder,
		log,
	)
	updateAppointmentUseCase := updateAppointmentUC.NewUseCase(
		appointmentRepository,
		blockRepository,
		catalogClient,
		staffClient,
		locker,
		txMgr,
		outcomeRecorder,
		log,
	)
	getFreeSlotsUseCase := getFreeSlotsUC.NewUseCase(
		blockRepository,
		appointmentRepository,
		catalogClient,
		getFreeSlotsUC.Settings{
			GranularityMinutes: cfg.Scheduling.SlotGranularityMinutes,
			MaxRangeDays:       cfg.Scheduling.MaxRangeDays,
			Location:           salonLocation,
		},
		log,
	)

	// Инициализируем handlers
	health := healthHandler.NewHandler(cfg.Metrics.ServiceName, wrappedDB, redisPinger)
	getFreeSlots := getFreeSlotsHandler.NewHandler(getFreeSlotsUseCase, log)
	getAvailabilityBlock := getAvailabilityBlockHandler.NewHandler(availabilitySvc, log)
	listProviderAvailability := listProviderAvailabilityHandler.NewHandler(availabilitySvc, log)
	createAvailabilityBlock := createAvailabilityBlockHandler.NewHandler(availabilitySvc, log)
	updateAvailabilityBlock := updateAvailabilityBlockHandler.NewHandler(availabilitySvc, log)
	deactivateAvailabilityBlock := deactivateAvailabilityBlockHandler.NewHandler(availabilitySvc, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	updateAppointment := updateAppointmentHandler.NewHandler(updateAppointmentUseCase, log)
	changeAppointmentStatus := changeAppointmentStatusHandler.NewHandler(appointmentsSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentsSvc, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentsSvc, log)
	getProviderAppointments := getProviderAppointmentsHandler.NewHandler(appointmentsSvc, log)
	getClientAppointments := getClientAppointmentsHandler.NewHandler(appointmentsSvc, log)
	deleteAppointment := deleteAppointmentHandler.NewHandler(appointmentsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Health checks
	r.HandleFunc("/health/live", health.Live).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	// Ограничение частоты для маршрутов, меняющих расписание
	limitWrites := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
		limitWrites = func(h http.HandlerFunc) http.Handler { return limiter.Middleware(h) }
		log.Info("Rate limiting enabled for write routes (rps=%.1f, burst=%d, trust_proxy=%t)",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
	}
	requireAdmin := middleware.RequireRole(middleware.RoleAdmin)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты
	api.HandleFunc("/free-slots", getFreeSlots.Handle).Methods(http.MethodGet)

	// Расписание мастеров
	api.HandleFunc("/availability-blocks/{blockId}", getAvailabilityBlock.Handle).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/availability-blocks", listProviderAvailability.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи ---
	protected.Handle("/appointments", limitWrites(createAppointment.Handle)).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", listAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	protected.Handle("/appointments/{appointmentId}", limitWrites(updateAppointment.Handle)).Methods(http.MethodPatch)
	protected.Handle("/appointments/{appointmentId}/status", limitWrites(changeAppointmentStatus.Handle)).Methods(http.MethodPatch)
	protected.Handle("/appointments/{appointmentId}/cancel", limitWrites(cancelAppointment.Handle)).Methods(http.MethodPatch)

	// История записей
	protected.HandleFunc("/providers/{providerId}/appointments", getProviderAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/clients/{clientId}/appointments", getClientAppointments.Handle).Methods(http.MethodGet)

	// --- Управление расписанием (только администратор) ---
	protected.Handle("/availability-blocks",
		requireAdmin(limitWrites(createAvailabilityBlock.Handle))).Methods(http.MethodPost)
	protected.Handle("/availability-blocks/{blockId}",
		requireAdmin(limitWrites(updateAvailabilityBlock.Handle))).Methods(http.MethodPatch)
	protected.Handle("/availability-blocks/{blockId}/deactivate",
		requireAdmin(limitWrites(deactivateAvailabilityBlock.Handle))).Methods(http.MethodPost)

	// --- Администрирование ---
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin)
	admin.HandleFunc("/appointments/{appointmentId}", deleteAppointment.Handle).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
