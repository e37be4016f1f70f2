package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/internal/cards"
	"github.com/auroralife/aurora-backend/internal/cron"
	"github.com/auroralife/aurora-backend/internal/orders"
	"github.com/auroralife/aurora-backend/internal/paymentmethods"
	"github.com/auroralife/aurora-backend/internal/roles"
	"github.com/auroralife/aurora-backend/internal/users"
	"github.com/auroralife/aurora-backend/pkg/config"
	"github.com/auroralife/aurora-backend/pkg/db"
	"github.com/auroralife/aurora-backend/pkg/logger"
	"github.com/auroralife/aurora-backend/pkg/metrics"
	"github.com/auroralife/aurora-backend/pkg/migrate"
	"github.com/auroralife/aurora-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "autoship-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "autoship-worker"

	logg = logger.New(logger.Options{
		ServiceName: "autoship-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	runner, err := buildRunner(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire autoship runner", err)
		os.Exit(1)
	}

	runJob, err := cron.NewAutoshipRunJob(cron.AutoshipRunJobParams{
		Logger:  logg,
		Runner:  runner,
		Metrics: metrics.NewAutoshipRunMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create autoship run job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("autoship-run"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(runJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Autoship.RunInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting autoship worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "autoship worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "autoship worker shutting down gracefully")
}

func buildRunner(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (autoship.Runner, error) {
	gormDB := dbClient.DB()

	autoshipRepo := autoship.NewRepository(gormDB)
	cardRepo := cards.NewRepository(gormDB)

	orderService, err := orders.NewService(orders.NewRepository(gormDB), dbClient)
	if err != nil {
		return nil, err
	}

	validator, err := autoship.NewValidator(autoship.ValidatorParams{
		Repo:   autoshipRepo,
		Cards:  cardRepo,
		Orders: orderService,
		Config: cfg.Autoship,
	})
	if err != nil {
		return nil, err
	}

	materializer, err := autoship.NewMaterializer(autoship.MaterializerParams{
		Repo:           autoshipRepo,
		Cards:          cardRepo,
		PaymentMethods: paymentmethods.NewRepository(gormDB),
		Roles:          roles.NewDirectory(gormDB),
		Directory:      users.NewDirectory(gormDB),
		Orders:         orderService,
	})
	if err != nil {
		return nil, err
	}

	return autoship.NewRunner(autoship.RunnerParams{
		Logger:       logg,
		Repo:         autoshipRepo,
		Validator:    validator,
		Materializer: materializer,
	})
}
