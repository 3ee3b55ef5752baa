package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/janmanch/janmanch-backend/internal/analytics/worker"
	"github.com/janmanch/janmanch-backend/internal/analytics/writer"
	"github.com/janmanch/janmanch-backend/pkg/bigquery"
	"github.com/janmanch/janmanch-backend/pkg/config"
	"github.com/janmanch/janmanch-backend/pkg/eventing/idempotency"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"github.com/janmanch/janmanch-backend/pkg/pubsub"
	"github.com/janmanch/janmanch-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "analytics-worker"

	logg = logger.New(logger.Options{
		ServiceName: "analytics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)

	defer func() {
		closeErr := multierr.Combine(
			redisClient.Close(),
			pubsubClient.Close(),
			bqClient.Close(),
		)
		if closeErr != nil {
			logg.Error(ctx, "error closing clients", closeErr)
		}
	}()

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "analytics subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	sessionWriter, err := writer.New(bqClient, writer.Config{
		SessionTable: cfg.BigQuery.SessionEventsTable,
	})
	requireResource(ctx, logg, "session bigquery writer", err)

	service, err := worker.NewService(subscription, sessionWriter, manager, logg)
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
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
