package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-appointment-engine/config"
	deliveryHttp "clinic-appointment-engine/internal/delivery/http"
	"clinic-appointment-engine/internal/delivery/http/handler"
	"clinic-appointment-engine/internal/delivery/http/middleware"
	"clinic-appointment-engine/internal/infrastructure/cache"
	"clinic-appointment-engine/internal/infrastructure/database"
	"clinic-appointment-engine/internal/observability/metrics"
	"clinic-appointment-engine/internal/repository"
	"clinic-appointment-engine/internal/service"
	"clinic-appointment-engine/internal/usecase"
	"clinic-appointment-engine/pkg/jwt"
	"clinic-appointment-engine/pkg/slot"
	"clinic-appointment-engine/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := NewLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Apply migrations before GORM touches the schema
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.DB, log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	// Initialize all layers
	server, err := initializeServer(cfg, log, db, redisClient)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Server = server

	return app, nil
}

// NewLogger configures the standard logrus logger; unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) (*http.Server, error) {
	// Slot grid shared by generation and booking
	calculator, err := slot.NewCalculator(cfg.Scheduling.SlotDurationMinutes, cfg.Scheduling.GridOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid slot grid: %w", err)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	affiliationRepo := repository.NewAffiliationRepository()
	availabilityRepo := repository.NewAvailabilityRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(db, log, auditLogRepo)
	availabilityCache := service.NewAvailabilityCacheService(redisClient, log)

	// Initialize usecases
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, calculator, affiliationRepo, availabilityRepo, appointmentRepo, availabilityCache, auditService)
	matcherUsecase := usecase.NewMatcherUsecase(db, log, affiliationRepo, availabilityRepo, appointmentRepo, bookingMetrics)
	bookingUsecase := usecase.NewBookingUsecase(db, log, matcherUsecase, affiliationRepo, availabilityRepo, appointmentRepo, availabilityCache, auditService, bookingMetrics, cfg.Scheduling.AutoAssignAttempts)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, availabilityRepo, appointmentRepo, availabilityCache, auditService, bookingMetrics)

	// Initialize handlers
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, customValidator)
	matcherHandler := handler.NewMatcherHandler(matcherUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(bookingUsecase, appointmentUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient, cfg.JWT.CheckRevocation, log)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	router := deliveryHttp.NewRouter(availabilityHandler, matcherHandler, appointmentHandler, authMiddleware, corsMiddleware, metricsHandler)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
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
