package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/opsdesk/opsdesk-api/docs"
	"github.com/opsdesk/opsdesk-api/internal/auth"
	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/http/handler"
	"github.com/opsdesk/opsdesk-api/internal/http/middleware"
	"github.com/opsdesk/opsdesk-api/internal/http/router"
	"github.com/opsdesk/opsdesk-api/internal/jobs"
	"github.com/opsdesk/opsdesk-api/internal/logger"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/service"
	"go.uber.org/zap"
)

// @title OpsDesk API
// @version 1.0
// @description Order status, assignment and invoicing API for the agency operations dashboard

// @contact.name API Support
// @contact.email support@opsdesk.io

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In staging/production secrets come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database schema migrated")
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderHistoryRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reminderRepo := repository.NewPaymentReminderRepository(db)

	tx := database.NewTxManager(db)

	// Events
	bus := events.NewBus(log)
	var readiness []router.ReadinessCheck
	var closers []func() error

	if cfg.Events.Redis.Enabled {
		redisClient, err := events.NewRedisClient(ctx, cfg.Events.Redis.Addr, cfg.Events.Redis.Password, cfg.Events.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		bus.Subscribe(events.AllEvents, events.NewRedisForwarder(redisClient, cfg.Events.Redis.Channel, log).Handle)
		readiness = append(readiness, redisCheck(redisClient))
		closers = append(closers, redisClient.Close)
		log.Info("Forwarding events to redis", zap.String("channel", cfg.Events.Redis.Channel))
	}

	if cfg.Events.Kafka.Enabled {
		writer := events.NewKafkaWriter(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic, cfg.Events.Kafka.BatchTimeoutDuration(), log)
		forwarder := events.NewKafkaForwarder(writer, log)
		bus.Subscribe(events.AllEvents, forwarder.Handle)
		closers = append(closers, forwarder.Close)
		log.Info("Forwarding events to kafka",
			zap.Strings("brokers", cfg.Events.Kafka.Brokers),
			zap.String("topic", cfg.Events.Kafka.Topic),
		)
	}

	// Team notifications
	var notifier service.TeamNotifier = service.NewBroadcastNotifier(userRepo, notificationRepo, cfg.Notifications.Concurrency, log)
	var asyncNotifier *service.AsyncNotifier
	if cfg.Notifications.Async {
		asyncNotifier = service.NewAsyncNotifier(notifier, cfg.Notifications.TimeoutDuration(), log)
		notifier = asyncNotifier
	}

	// Services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, cfg.Invoice.NumberPrefix, log)
	invoiceSyncService := service.NewInvoiceSyncService(invoiceRepo, clientRepo, numberSequenceService, service.InvoiceSyncConfig{
		VATRate:  cfg.Invoice.VATRate,
		Currency: cfg.Invoice.Currency,
		DueDays:  cfg.Invoice.DueDays,
	}, log)
	orderService := service.NewOrderService(tx, orderRepo, historyRepo, userRepo, reminderRepo, bus, notifier, cfg.Invoice.Currency, log)
	statusService := service.NewOrderStatusService(tx, orderRepo, historyRepo, invoiceSyncService, userRepo, reminderRepo, bus, notifier, log)
	assignmentService := service.NewAssignmentService(tx, orderRepo, historyRepo, userRepo, reminderRepo, bus, notifier, log)
	reminderService := service.NewPaymentReminderService(orderRepo, reminderRepo, bus, notifier, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	userService := service.NewUserService(userRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, router.Handlers{
		Auth:            handler.NewAuthHandler(log),
		Users:           handler.NewUserHandler(userService, log),
		Orders:          handler.NewOrderHandler(orderService, invoiceSyncService, log),
		OrderStatus:     handler.NewOrderStatusHandler(statusService, assignmentService, log),
		PaymentReminder: handler.NewPaymentReminderHandler(reminderService, log),
		Notifications:   handler.NewNotificationHandler(notificationService, log),
	}, readiness...)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.PaymentReminderEnabled {
		scheduler = jobs.NewScheduler(log, cfg.Jobs.TimeoutDuration())
		job := jobs.NewPaymentReminderJob(reminderService, log)
		if err := scheduler.AddJob(jobs.PaymentReminderJobName, cfg.Jobs.PaymentReminderCron, job.Run); err != nil {
			return fmt.Errorf("failed to register payment reminder job: %w", err)
		}
		scheduler.Start()
	} else {
		log.Info("Payment reminder job disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
			log.Info("Scheduler stopped")
		case <-shutdownCtx.Done():
			log.Warn("Scheduler did not stop before the shutdown deadline")
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown gracefully", zap.Error(err))
	}

	if asyncNotifier != nil {
		if err := asyncNotifier.Close(shutdownCtx); err != nil {
			log.Warn("Pending team notifications were abandoned", zap.Error(err))
		}
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warn("Error closing event forwarder", zap.Error(err))
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server stopped gracefully")
	return nil
}

func redisCheck(client *redis.Client) router.ReadinessCheck {
	return router.ReadinessCheck{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
