package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/janmanch/janmanch-backend/internal/analytics"
	presenceconsumer "github.com/janmanch/janmanch-backend/internal/consumers/presence"
	"github.com/janmanch/janmanch-backend/internal/presence"
	"github.com/janmanch/janmanch-backend/pkg/config"
	"github.com/janmanch/janmanch-backend/pkg/db"
	"github.com/janmanch/janmanch-backend/pkg/eventing/idempotency"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"github.com/janmanch/janmanch-backend/pkg/metrics"
	"github.com/janmanch/janmanch-backend/pkg/pubsub"
	"github.com/janmanch/janmanch-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "presence-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "presence-worker"

	logg = logger.New(logger.Options{
		ServiceName: "presence-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	defer func() {
		closeErr := multierr.Combine(
			dbClient.Close(),
			redisClient.Close(),
			pubsubClient.Close(),
		)
		if closeErr != nil {
			logg.Error(ctx, "error closing clients", closeErr)
		}
	}()

	subscription := pubsubClient.PresenceSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "presence subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	presenceMetrics := metrics.NewPresenceMetrics(prometheus.DefaultRegisterer)

	presenceRepo, err := presence.NewRepository(dbClient)
	requireResource(ctx, logg, "presence repository", err)

	sessionPublisher, err := analytics.NewPublisher(pubsubClient.AnalyticsPublisher())
	requireResource(ctx, logg, "session publisher", err)

	presenceService, err := presence.NewService(presenceRepo, sessionPublisher, presenceMetrics, logg)
	requireResource(ctx, logg, "presence service", err)

	consumer, err := presenceconsumer.NewConsumer(subscription, presenceService, manager, logg)
	requireResource(ctx, logg, "presence consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "presence worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "presence worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
