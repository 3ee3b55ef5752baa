package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/janmanch/janmanch-backend/api/controllers"
	"github.com/janmanch/janmanch-backend/api/routes"
	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/internal/constituency"
	"github.com/janmanch/janmanch-backend/internal/presence"
	"github.com/janmanch/janmanch-backend/internal/users"
	"github.com/janmanch/janmanch-backend/pkg/bigquery"
	"github.com/janmanch/janmanch-backend/pkg/config"
	"github.com/janmanch/janmanch-backend/pkg/db"
	"github.com/janmanch/janmanch-backend/pkg/env"
	"github.com/janmanch/janmanch-backend/pkg/geoip"
	"github.com/janmanch/janmanch-backend/pkg/identity"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"github.com/janmanch/janmanch-backend/pkg/metrics"
	"github.com/janmanch/janmanch-backend/pkg/migrate"
	"github.com/janmanch/janmanch-backend/pkg/pubsub"
	"github.com/janmanch/janmanch-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery", err)

	defer func() {
		closeErr := multierr.Combine(
			dbClient.Close(),
			redisClient.Close(),
			pubsubClient.Close(),
			bqClient.Close(),
		)
		if closeErr != nil {
			logg.Error(ctx, "error closing clients", closeErr)
		}
	}()

	identityClient, err := identity.NewClient(ctx, cfg.Firebase, cfg.GCP, logg)
	requireResource(ctx, logg, "identity provider", err)

	geoClient, err := geoip.NewClient(cfg.GeoIP)
	requireResource(ctx, logg, "geoip client", err)

	presenceMetrics := metrics.NewPresenceMetrics(prometheus.DefaultRegisterer)

	usersRepo := users.NewRepository(dbClient.DB())
	usersService, err := users.NewService(usersRepo, identityClient, logg)
	requireResource(ctx, logg, "users service", err)

	constituencyService, err := constituency.NewService(
		constituency.NewRepository(dbClient.DB()),
		geoClient,
		usersRepo,
		cfg.GeoIP.ServicedCountry,
		logg,
	)
	requireResource(ctx, logg, "constituency service", err)

	presenceRepo, err := presence.NewRepository(dbClient)
	requireResource(ctx, logg, "presence repository", err)

	sessionPublisher, err := analytics.NewPublisher(pubsubClient.AnalyticsPublisher())
	requireResource(ctx, logg, "session publisher", err)

	presenceService, err := presence.NewService(presenceRepo, sessionPublisher, presenceMetrics, logg)
	requireResource(ctx, logg, "presence service", err)

	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient.DB()), logg)
	requireResource(ctx, logg, "analytics service", err)

	readiness := []controllers.Check{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
		{Name: "pubsub", Pinger: pubsubClient},
		{Name: "bigquery", Pinger: bqClient},
	}

	router := routes.NewRouter(
		cfg,
		logg,
		identityClient,
		readiness,
		usersService,
		constituencyService,
		presenceService,
		analyticsService,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	addr := ":" + env.Get("PORT", cfg.App.Port)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	}

	logg.Info(runCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
