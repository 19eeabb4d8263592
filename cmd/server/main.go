package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gurbanow/rideline/internal/drivers"
	"github.com/gurbanow/rideline/internal/maps"
	"github.com/gurbanow/rideline/internal/notifications"
	"github.com/gurbanow/rideline/internal/payments"
	"github.com/gurbanow/rideline/internal/pricing"
	"github.com/gurbanow/rideline/internal/ratings"
	"github.com/gurbanow/rideline/internal/rides"
	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/database"
	"github.com/gurbanow/rideline/pkg/errors"
	"github.com/gurbanow/rideline/pkg/eventbus"
	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/middleware"
	"github.com/gurbanow/rideline/pkg/models"
	redisclient "github.com/gurbanow/rideline/pkg/redis"
	"github.com/gurbanow/rideline/pkg/tracing"
)

const (
	serviceName = "rideline"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting rideline",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	if cfg.Sentry.Enabled {
		sentryCfg := errors.SentryConfig{
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     version,
		}
		if err := errors.InitSentry(sentryCfg); err != nil {
			logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
		} else {
			defer errors.Flush(2 * time.Second)
			logger.Info("Sentry error tracking initialized")
		}
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			Enabled:        true,
		})
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else if tp != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized")
		}
	}

	if err := database.Migrate(&cfg.Database); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to database")

	redisClient, err := redisclient.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}()
	logger.Info("Connected to redis")

	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.Stream,
		})
		if err != nil {
			logger.Warn("Failed to connect to NATS, continuing without events", zap.Error(err))
			bus = nil
		} else {
			defer bus.Close()
			logger.Info("Connected to NATS", zap.String("stream", cfg.NATS.Stream))
		}
	}

	// The event bus is optional; services treat a nil publisher as a no-op,
	// which needs an untyped nil interface rather than a typed nil *Bus.
	var driverEvents drivers.EventPublisher
	var rideEvents rides.EventPublisher
	if bus != nil {
		driverEvents = bus
		rideEvents = bus
	}

	driverRepo := drivers.NewRepository(db)
	driverService := drivers.NewService(driverRepo, redisClient, driverEvents)
	driverHandler := drivers.NewHandler(driverService)

	emailClient := notifications.NewEmailClient(cfg.SMTP)
	notificationRepo := notifications.NewRepository(db)
	notificationService := notifications.NewService(notificationRepo, emailClient, cfg.SMTP.Enabled)
	notificationHandler := notifications.NewHandler(notificationService)
	defer notificationService.Drain()

	var charger payments.Charger
	if cfg.Stripe.APIKey != "" {
		charger = payments.NewStripeClient(cfg.Stripe.APIKey)
	} else {
		logger.Warn("Stripe API key not configured, card payments will be recorded as failed")
	}
	paymentService := payments.NewService(payments.NewRepository(db), charger, cfg.Engine, cfg.Stripe)

	routeService := maps.NewService(cfg.Maps)
	fareCalculator := pricing.NewCalculator(cfg.Engine)
	ratingAggregator := ratings.NewAggregator(db)

	rideRepo := rides.NewRepository(db)
	rideService := rides.NewService(
		rideRepo,
		driverService,
		notificationService,
		paymentService,
		ratingAggregator,
		routeService,
		fareCalculator,
		rideEvents,
		cfg.Engine,
	)
	rideHandler := rides.NewHandler(rideService)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.Server.CORSOriginList()))
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	router.GET("/health", func(c *gin.Context) {
		checks := gin.H{"database": "ok", "redis": "ok"}
		status := http.StatusOK

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"service": serviceName,
			"version": version,
			"checks":  checks,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		api.POST("/rides", rideHandler.RequestRide)
		api.GET("/rides/user", rideHandler.ListUserRides)
		api.GET("/rides/driver", middleware.RequireRole(models.RoleDriver), rideHandler.ListDriverRides)
		api.GET("/rides/:id", rideHandler.GetRide)
		api.POST("/rides/:id/accept", middleware.RequireRole(models.RoleDriver), rideHandler.AcceptRide)
		api.POST("/rides/:id/arrived", middleware.RequireRole(models.RoleDriver), rideHandler.MarkArrived)
		api.POST("/rides/:id/start", middleware.RequireRole(models.RoleDriver), rideHandler.StartRide)
		api.POST("/rides/:id/complete", middleware.RequireRole(models.RoleDriver), rideHandler.CompleteRide)
		api.POST("/rides/:id/cancel", rideHandler.CancelRide)
		api.POST("/rides/:id/rate", rideHandler.RateRide)

		api.GET("/drivers/me", middleware.RequireRole(models.RoleDriver), driverHandler.GetProfile)
		api.POST("/drivers/location", middleware.RequireRole(models.RoleDriver), driverHandler.UpdateLocation)
		api.POST("/drivers/availability", middleware.RequireRole(models.RoleDriver), driverHandler.SetAvailability)

		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
