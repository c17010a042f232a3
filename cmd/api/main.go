package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/heritage-portal/internal/http/handlers"
	"github.com/diagnosis/heritage-portal/internal/platform/cache"
	"github.com/diagnosis/heritage-portal/internal/platform/contact"
	"github.com/diagnosis/heritage-portal/internal/repository"
	"github.com/diagnosis/heritage-portal/internal/service"
	"github.com/diagnosis/heritage-portal/pkg/config"
	"github.com/diagnosis/heritage-portal/pkg/database"
	"github.com/diagnosis/heritage-portal/pkg/events"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	// Redis backed state
	limiter := cache.NewRateLimiter(rdb, "rl:")
	sessions := cache.NewSessionStore(rdb, "wizard:", cfg.Portal.WizardTTL)
	locker := cache.NewLocker(rdb, "lock:")
	denylist := cache.NewDenylist(rdb)

	// Services
	catalogService := service.NewCatalogService(roomRepo, cfg.Portal.CatalogPath)
	bookingService := service.NewBookingService(bookingRepo, roomRepo, idempotencyRepo, eventBus)
	authService := service.NewAuthService(userRepo, denylist, cfg.Auth)
	wizardService := service.NewWizardService(catalogService, bookingService, sessions, locker,
		service.WithCurrency(cfg.Portal.CurrencySymbol))
	contactService := service.NewContactService(
		contact.NewClient(cfg.Contact.WebhookURL, cfg.Contact.Timeout),
		limiter, eventBus, cfg.Contact.RatePerWindow, cfg.Contact.RateWindow)

	h := handlers.New(handlers.Deps{
		Catalog:  catalogService,
		Bookings: bookingService,
		Auth:     authService,
		Wizard:   wizardService,
		Contact:  contactService,
		Limiter:  limiter,
		Currency: cfg.Portal.CurrencySymbol,
	})

	go cleanupIdempotency(ctx, idempotencyRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Router(cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("API error", "error", err)
		os.Exit(1)
	}
}

func cleanupIdempotency(ctx context.Context, repo repository.IdempotencyRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("Idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Expired idempotency keys removed", "count", n)
			}
		}
	}
}
