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
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/cancel_booking"
	changeBookingStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/change_booking_status"
	checkAvailabilityHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/check_availability"
	createBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_booking"
	createWindowHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_window"
	deleteBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/delete_booking"
	deleteWindowHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/delete_window"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getWindowHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_window"
	listBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_bookings"
	listWindowsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_windows"
	rescheduleBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/reschedule_booking"
	updateWindowHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_window"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notifier"
	availabilityService "github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reference"
	checkAvailabilityUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/check_availability"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	rescheduleBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// bookingStore репозиторий бронирований, общий для postgres и memory
type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	ListActiveOverlapping(ctx context.Context, tenantID, resourceID int64, iv domain.Interval, excludeID *int64) ([]*domain.Booking, error)
	CountActiveByWindow(ctx context.Context, windowID int64, iv *domain.Interval, excludeID *int64) (int, error)
	MaxReference(ctx context.Context, tenantID int64, prefix string) (string, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error
}

type txManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

type eventNotifier interface {
	Publish(ctx context.Context, event domain.EventType, key string, payload interface{})
	Close() error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load(config.DefaultPath)
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

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище: PostgreSQL или память
	var (
		bookings bookingStore
		windows  availabilityService.WindowRepository
		txMgr    txManager
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		bookings = store.Bookings()
		windows = store.Windows()
		txMgr = store
		log.Warn("Using in-memory storage, data is lost on restart")

	default:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		// Без метрик обертка просто проксирует запросы
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Database.DBName, stopMetricsCh)
		bookings = bookingRepo.NewRepository(wrappedDB)
		windows = availabilityRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB).WithRetries(cfg.Database.SerializableRetries)
	}

	// Справочник ресурсов и пользователей
	var dir availabilityService.DirectoryClient = directory.AllowAll{}
	if cfg.Directory.Enabled {
		dir = directory.NewClient(cfg.Directory.URL, time.Duration(cfg.Directory.Timeout)*time.Second, log)
		log.Info("Directory client initialized (url=%s, timeout=%ds)", cfg.Directory.URL, cfg.Directory.Timeout)
	} else {
		log.Warn("Directory lookups disabled, all resources and users are accepted")
	}

	// Доменные события
	var events eventNotifier
	if len(cfg.Notifications.Brokers) > 0 {
		events = notifier.NewKafkaNotifier(
			notifier.NewKafkaWriter(cfg.Notifications.Brokers),
			notifier.KafkaConfig{
				Brokers:      cfg.Notifications.Brokers,
				TopicPrefix:  cfg.Notifications.TopicPrefix,
				BufferSize:   cfg.Notifications.BufferSize,
				WriteTimeout: time.Duration(cfg.Notifications.WriteTimeout) * time.Second,
			},
			metricsCollector,
			log,
		)
		log.Info("Kafka notifier initialized (brokers=%v, topic_prefix=%s)",
			cfg.Notifications.Brokers, cfg.Notifications.TopicPrefix)
	} else {
		events = notifier.NewLogNotifier(log)
		log.Info("No brokers configured, events are written to the log")
	}

	// Инициализируем сервисы
	windowSvc := availabilityService.NewService(windows, bookings, dir, txMgr, events, log).
		WithDefaultSlotInterval(cfg.Scheduling.DefaultSlotIntervalMinutes)
	detector := conflict.NewDetector(bookings, windowSvc, log)
	allocator := reference.NewAllocator(bookings, cfg.Scheduling.ReferenceMaxAttempts, metricsCollector, log)
	bookingSvc := bookingsService.NewService(bookings, windowSvc, txMgr, events, metricsCollector, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookings,
		detector,
		allocator,
		windowSvc,
		dir,
		txMgr,
		events,
		metricsCollector,
		log,
	)
	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		bookings,
		detector,
		allocator,
		windowSvc,
		txMgr,
		events,
		metricsCollector,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(windowSvc, detector, metricsCollector, log)
	checkAvailabilityUseCase := checkAvailabilityUC.NewUseCase(windowSvc, bookings, txMgr, log)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	confirmBooking := changeBookingStatusHandler.NewHandler("confirm", bookingSvc.Confirm, log)
	checkInBooking := changeBookingStatusHandler.NewHandler("check-in", bookingSvc.CheckIn, log)
	checkOutBooking := changeBookingStatusHandler.NewHandler("check-out", bookingSvc.CheckOut, log)
	noShowBooking := changeBookingStatusHandler.NewHandler("no-show", bookingSvc.MarkNoShow, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, log)
	deleteBooking := deleteBookingHandler.NewHandler(bookingSvc, log)

	createWindow := createWindowHandler.NewHandler(windowSvc, log)
	listWindows := listWindowsHandler.NewHandler(windowSvc, log)
	getWindow := getWindowHandler.NewHandler(windowSvc, log)
	updateWindow := updateWindowHandler.NewHandler(windowSvc, log)
	deleteWindow := deleteWindowHandler.NewHandler(windowSvc, log)

	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	checkAvailability := checkAvailabilityHandler.NewHandler(checkAvailabilityUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Все маршруты API требуют X-User-ID и X-Tenant-ID
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth)

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		limiter := middleware.NewRateLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window(),
			cfg.RateLimit.Prefix, cfg.RateLimit.FailOpen, log)
		api.Use(limiter.Middleware())
		log.Info("Rate limiting enabled (redis=%s, limit=%d per %ds)",
			cfg.RateLimit.RedisAddr, cfg.RateLimit.Limit, cfg.RateLimit.WindowSeconds)
	}

	// --- Бронирования ---
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}", deleteBooking.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/check-in", checkInBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/check-out", checkOutBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/no-show", noShowBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPatch)

	// --- Окна доступности ---
	api.HandleFunc("/availability-windows", createWindow.Handle).Methods(http.MethodPost)
	api.HandleFunc("/availability-windows", listWindows.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability-windows/{windowId}", getWindow.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability-windows/{windowId}", updateWindow.Handle).Methods(http.MethodPut)
	api.HandleFunc("/availability-windows/{windowId}", deleteWindow.Handle).Methods(http.MethodDelete)

	// --- Слоты и доступность ресурса ---
	api.HandleFunc("/resources/{resourceId}/slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceId}/availability", checkAvailability.Handle).Methods(http.MethodGet)

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// События, принятые до остановки сервера, дописываются в брокер
	if err := events.Close(); err != nil {
		log.Error("Failed to flush notifier: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	close(stopMetricsCh)
	log.Info("Server stopped gracefully")
}
