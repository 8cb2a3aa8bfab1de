package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/infra/gateway/push"
	"github.com/kislikjeka/handygo/internal/infra/postgres"
	"github.com/kislikjeka/handygo/internal/infra/rabbitmq"
	infraRedis "github.com/kislikjeka/handygo/internal/infra/redis"
	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/internal/platform/account"
	"github.com/kislikjeka/handygo/internal/platform/expiry"
	"github.com/kislikjeka/handygo/internal/platform/notify"
	"github.com/kislikjeka/handygo/internal/platform/rating"
	"github.com/kislikjeka/handygo/internal/platform/settings"
	"github.com/kislikjeka/handygo/internal/transport/httpapi"
	"github.com/kislikjeka/handygo/internal/transport/httpapi/handler"
	"github.com/kislikjeka/handygo/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/handygo/pkg/config"
	"github.com/kislikjeka/handygo/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault(cfg.Env)
	log.Info("Starting HandyGo API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"event_bus", cfg.EventBus,
		"timezone", cfg.Location().String(),
	)

	templates, err := config.LoadNotificationTemplates(cfg.NotificationTemplates)
	if err != nil {
		log.Error("Failed to load notification templates", "error", err)
		os.Exit(1)
	}

	// Initialize database connection pool
	db, err := postgres.NewPool(ctx, postgres.Config{
		URL:           cfg.DatabaseURL,
		MaxConns:      cfg.DBMaxConns,
		MinConns:      cfg.DBMinConns,
		QueryLogLevel: cfg.DBQueryLogLevel,
		Logger:        log,
	})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Redis backs the fare cache and the arrival throttle. Without it both
	// fall back to in-process behaviour.
	var (
		fareCache   settings.FareCache
		throttle    booking.Throttle = booking.NewLocalThrottle(cfg.ArrivalCheckInterval)
		cachePinger handler.Pinger
	)
	redisClient, err := infraRedis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Warn("Redis unavailable, using in-process fare lookup and throttle", "error", err)
	} else {
		defer redisClient.Close()
		fareCache = infraRedis.NewCache(redisClient, log)
		throttle = infraRedis.NewThrottle(redisClient, cfg.ArrivalCheckInterval)
		cachePinger = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Info("Redis connection established")
	}

	// Initialize repositories
	txManager := postgres.NewTxManager(db.Pool)
	accountRepo := postgres.NewAccountRepository(db.Pool)
	bookingRepo := postgres.NewBookingRepository(db.Pool)
	invoiceRepo := postgres.NewInvoiceRepository(db.Pool)
	ratingRepo := postgres.NewRatingRepository(db.Pool)
	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	settingsRepo := postgres.NewSettingsRepository(db.Pool)
	markerRepo := postgres.NewMarkerRepository(db.Pool)

	// Event bus
	var (
		publisher booking.EventPublisher
		consume   func(ctx context.Context, h notify.Handler)
		closeBus  = func() {}
	)
	switch cfg.EventBus {
	case config.EventBusRabbitMQ:
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange, log)
		if err != nil {
			log.Error("Failed to connect publisher to RabbitMQ", "error", err)
			os.Exit(1)
		}
		cons, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, log)
		if err != nil {
			pub.Close()
			log.Error("Failed to connect consumer to RabbitMQ", "error", err)
			os.Exit(1)
		}
		publisher = pub
		consume = func(ctx context.Context, h notify.Handler) {
			if err := cons.Run(ctx, h); err != nil {
				log.Error("RabbitMQ consumer stopped", "error", err)
			}
		}
		closeBus = func() {
			cons.Close()
			pub.Close()
		}
		log.Info("RabbitMQ event bus connected",
			"exchange", cfg.RabbitExchange,
			"queue", cfg.RabbitQueue)
	default:
		bus := notify.NewMemoryBus(notify.DefaultBufferSize, log)
		publisher = bus
		consume = bus.Run
		log.Info("In-process event bus initialized")
	}

	// Initialize services
	accountSvc := account.NewService(accountRepo)
	fareSvc := settings.NewFareService(settingsRepo, fareCache, settings.Config{
		DefaultFare: cfg.DefaultFare,
		CacheTTL:    cfg.FareCacheTTL,
	}, log)

	ledgerCfg := ledger.DefaultConfig()
	ledgerCfg.MinWithdrawal = cfg.MinWithdrawal
	ledgerSvc := ledger.NewService(ledgerRepo, txManager, fareSvc, ledgerCfg, log)

	bookingSvc := booking.NewService(&booking.Config{Location: cfg.Location()},
		bookingRepo, ledgerSvc, fareSvc, txManager, publisher, log)
	arrivalSvc := booking.NewArrivalDetector(bookingRepo, accountSvc, throttle, publisher, cfg.ArrivalRadiusKm, log)
	invoiceSvc := invoice.NewService(invoiceRepo, bookingRepo, txManager, log)
	ratingSvc := rating.NewService(ratingRepo, bookingRepo, txManager, log)

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.PushRelayURL != "" {
		sender = push.NewClient(cfg.PushRelayURL, cfg.PushRelayKey, log)
		log.Info("Push relay configured", "url", cfg.PushRelayURL)
	}

	dispatcher, err := notify.NewDispatcher(templates, accountSvc, markerRepo, sender,
		notify.Config{
			CacheTTL:    cfg.NotificationCacheTTL,
			ExpiryHours: cfg.BookingExpiryHours,
		}, log)
	if err != nil {
		log.Error("Failed to compile notification templates", "error", err)
		os.Exit(1)
	}

	scheduler := expiry.NewScheduler(&expiry.Config{
		Interval:     cfg.CheckInterval(),
		StartupDelay: cfg.SchedulerStartupDelay,
		ExpiryWindow: cfg.ExpiryWindow(),
		StartGrace:   cfg.MissedStartGrace,
		Location:     cfg.Location(),
		Enabled:      cfg.SchedulerEnabled,
	}, bookingSvc, bookingSvc, log)
	log.Info("Services initialized")

	// Initialize HTTP handlers
	jwtSvc := middleware.NewJWTService(cfg.JWTSecret)

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 && !cfg.IsProduction() {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8081"}
	}

	r := httpapi.NewRouter(httpapi.Config{
		Logger:          log,
		AllowedOrigins:  allowedOrigins,
		AccountHandler:  handler.NewAccountHandler(accountSvc, log),
		BookingHandler:  handler.NewBookingHandler(bookingSvc, arrivalSvc, log),
		InvoiceHandler:  handler.NewInvoiceHandler(invoiceSvc, log),
		WalletHandler:   handler.NewWalletHandler(ledgerSvc, log),
		RatingHandler:   handler.NewRatingHandler(ratingSvc, log),
		SettingsHandler: handler.NewSettingsHandler(fareSvc, log),
		SystemHandler:   handler.NewSystemHandler(scheduler, invoiceSvc, log),
		HealthHandler:   handler.NewHealthHandler(db, cachePinger),
		JWTMiddleware:   middleware.JWTMiddleware(jwtSvc),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background workers
	go consume(ctx, dispatcher)
	log.Info("Notification dispatcher started")

	go scheduler.Run(ctx)

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	scheduler.Stop()
	log.Info("Expiry scheduler stopped")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}

	closeBus()
	log.Info("Server stopped gracefully")
}
