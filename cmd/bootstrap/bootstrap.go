package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellness-appointments/config"
	deliveryHttp "wellness-appointments/internal/delivery/http"
	"wellness-appointments/internal/delivery/http/handler"
	"wellness-appointments/internal/delivery/http/middleware"
	"wellness-appointments/internal/infrastructure/cache"
	"wellness-appointments/internal/infrastructure/database"
	"wellness-appointments/internal/infrastructure/metrics"
	"wellness-appointments/internal/infrastructure/notification"
	"wellness-appointments/internal/repository"
	"wellness-appointments/internal/service"
	"wellness-appointments/internal/usecase"
	"wellness-appointments/pkg/jwt"
	"wellness-appointments/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	// Background workers, stopped by Close
	dispatcher *service.ReminderDispatcher
	poller     *notification.DeliveryPoller
	stores     *usecase.StoreRegistry
	rateLimit  *middleware.RateLimitMiddleware
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	log := setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, keeping info", cfg.App.LogLevel)
	}
	log.Info("Configuration loaded successfully")

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Timezone, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	if err := database.Migrate(db); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	// Initialize all layers
	if err := app.initialize(cfg, log, loc); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	return log
}

// initialize wires repositories, reminder workers, usecases and the HTTP server
func (app *App) initialize(cfg *config.Config, log *logrus.Logger, loc *time.Location) error {
	db, redisClient := app.DB, app.RedisClient

	m := metrics.New()

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	if cfg.App.SeedCatalog {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.SeedCatalog(ctx, catalogRepo)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	// Reminder pipeline: scheduler -> dispatcher -> redis outbox -> poller -> log delivery.
	// The scheduler retracts withdrawn reminders from the outbox and the ledger.
	ledger := cache.NewRedisReminderLedger(redisClient)
	outbox := notification.NewRedisNotifier(redisClient, log)
	app.dispatcher = service.NewReminderDispatcher(
		outbox,
		ledger,
		log,
		m,
		cfg.Reminder.QueueSize,
		cfg.Reminder.Workers,
		cfg.Reminder.DispatchTimeout,
	)
	app.dispatcher.Start()

	app.poller = notification.NewDeliveryPoller(outbox, notification.NewLogNotifier(log), ledger, log, cfg.Reminder.PollInterval)
	app.poller.Start()

	scheduler := service.NewReminderScheduler(log, ledger, app.dispatcher, outbox, m, loc, cfg.Reminder.MorningHour, nil)

	// Initialize services and usecases
	auditService := service.NewAuditService(log, auditLogRepo)
	tokenStore := cache.NewRedisTokenStore(redisClient)

	app.stores = usecase.NewStoreRegistry(usecase.StoreDependencies{
		Log:             log,
		Validator:       customValidator,
		AppointmentRepo: appointmentRepo,
		CatalogRepo:     catalogRepo,
		Reminders:       scheduler,
		Audit:           auditService,
		Metrics:         m,
		Location:        loc,
	}, cfg.Store.IdleTTL, cfg.Store.SweepInterval)

	authUsecase := usecase.NewAuthUsecase(log, userRepo, jwtService, tokenStore, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, app.stores)
	appointmentHandler := handler.NewAppointmentHandler(app.stores, log)
	catalogHandler := handler.NewCatalogHandler(app.stores, log)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins...)
	app.rateLimit = middleware.NewRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		appointmentHandler,
		catalogHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		app.rateLimit,
		m,
	)

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully. It returns the
// listener error when the server cannot start.
func (app *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		logrus.Info("Shutting down server...")
	case runErr = <-serverErr:
		logrus.Errorf("Server stopped: %v", runErr)
	}

	app.shutdown()
	return runErr
}

// shutdown drains in-flight requests, then stops workers and connections
func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops the background workers, then closes database and redis connections.
// The dispatcher drains into redis, so redis is closed last.
func (app *App) Close() {
	if app.rateLimit != nil {
		app.rateLimit.Stop()
	}
	if app.stores != nil {
		app.stores.Stop()
	}
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}
	if app.poller != nil {
		app.poller.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
