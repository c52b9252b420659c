package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusride/wallet-ledger/internal/api"
	"github.com/campusride/wallet-ledger/internal/config"
	"github.com/campusride/wallet-ledger/internal/events/kafka"
	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/ledger"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/campusride/wallet-ledger/internal/notify"
	"github.com/campusride/wallet-ledger/internal/notify/redisq"
	"github.com/campusride/wallet-ledger/internal/rewards"
	"github.com/campusride/wallet-ledger/internal/storage/memory"
	"github.com/campusride/wallet-ledger/internal/storage/postgres"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ledgerBackend is what the engine and the reward issuer need from one store
type ledgerBackend interface {
	interfaces.LedgerStore
	interfaces.TokenStore
}

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}
	log := cfg.NewLogger()
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// run owns every resource it opens and closes them before returning
func run(cfg config.Config, log *logrus.Logger) error {
	ctx := context.Background()

	var store ledgerBackend
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store = memory.NewMemoryLedgerStore()
	} else {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pg.Close()
		store = pg
	}

	if err := seedPolicies(ctx, store, cfg); err != nil {
		return fmt.Errorf("policy seeding failed: %w", err)
	}

	engine := ledger.NewEngine(store, cfg.EngineConfig(), log)
	if _, err := engine.RegisterAccount(ctx, "Moov", cfg.PlatformEmail, models.RolePlatform); err != nil && !errors.Is(err, ledger.ErrConflict) {
		return fmt.Errorf("platform account setup failed: %w", err)
	}
	engine.SetRewardIssuer(rewards.NewIssuer(store, rewards.EveryNthRide(cfg.RewardEveryNRides), cfg.RewardMaxRetries, log))

	sinks := notify.Fanout{notify.LogNotifier{Log: log}}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher := kafka.NewPublisher(brokers, cfg.KafkaNotificationsTopic)
		defer publisher.Close()
		engine.SetEventPublisher(topicOverride{publisher, cfg.KafkaEventsTopic})
		sinks = append(sinks, publisher)
		log.WithField("brokers", brokers).Info("kafka publisher configured")
	}
	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		queue, client, err := redisq.Connect(pingCtx, cfg.RedisURL, cfg.RedisNotificationQueue)
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis unavailable, notifications will not be queued")
		} else {
			defer client.Close()
			sinks = append(sinks, queue)
		}
	}
	engine.SetNotifier(sinks)

	router := api.NewRouter(api.NewHandler(engine, log))
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.ServerPort).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// seedPolicies writes the driver and transfer rates from config.
// School and car-owner rates are seeded per account by operators.
func seedPolicies(ctx context.Context, store interfaces.LedgerStore, cfg config.Config) error {
	for _, p := range []models.FeeSplitPolicy{
		{Label: models.PolicyDriver, Rate: decimal.RequireFromString(cfg.DriverRate), Description: "driver share of a ride fare"},
		{Label: models.PolicyTransfer, Rate: decimal.RequireFromString(cfg.TransferRate), Description: "peer transfer charge"},
	} {
		if err := store.SavePolicy(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// topicOverride sends settlement events to the configured topic name
type topicOverride struct {
	publisher interfaces.EventPublisher
	topic     string
}

func (t topicOverride) Publish(ctx context.Context, _ string, event any) error {
	return t.publisher.Publish(ctx, t.topic, event)
}
