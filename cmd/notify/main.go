package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diagnosis/heritage-portal/internal/notify"
	"github.com/diagnosis/heritage-portal/internal/platform/mailer"
	"github.com/diagnosis/heritage-portal/internal/repository"
	"github.com/diagnosis/heritage-portal/pkg/config"
	"github.com/diagnosis/heritage-portal/pkg/database"
	"github.com/diagnosis/heritage-portal/pkg/events"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, logger.ServiceKey, "notify")

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	n := notify.New(
		repository.NewBookingRepository(pool),
		mailer.New(cfg.Email),
		cfg.Email.FromName,
		cfg.Portal.CurrencySymbol,
	)
	if err := n.Subscribe(ctx, eventBus, cfg.NATS.QueueGroup); err != nil {
		logger.Error("Failed to subscribe", "error", err)
		os.Exit(1)
	}

	logger.Info("Notify worker listening", "subject", events.BookingCreated, "queue", cfg.NATS.QueueGroup)
	<-ctx.Done()
	logger.Info("Shutting down notify worker...")
}
