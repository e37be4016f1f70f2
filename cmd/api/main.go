package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/auroralife/aurora-backend/api/routes"
	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/internal/cards"
	"github.com/auroralife/aurora-backend/internal/orders"
	"github.com/auroralife/aurora-backend/internal/paymentmethods"
	"github.com/auroralife/aurora-backend/internal/roles"
	"github.com/auroralife/aurora-backend/internal/tokens"
	"github.com/auroralife/aurora-backend/internal/users"
	"github.com/auroralife/aurora-backend/pkg/config"
	"github.com/auroralife/aurora-backend/pkg/db"
	"github.com/auroralife/aurora-backend/pkg/logger"
	"github.com/auroralife/aurora-backend/pkg/migrate"
	"github.com/auroralife/aurora-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	stack, err := buildAutoshipStack(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire autoship stack", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			RateLimiter:     redisClient,
			Autoships:       stack.service,
			PaymentResolver: stack.resolver,
			Runner:          stack.runner,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

type autoshipStack struct {
	service  autoship.Service
	resolver autoship.PaymentResolver
	runner   autoship.Runner
}

func buildAutoshipStack(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*autoshipStack, error) {
	gormDB := dbClient.DB()

	autoshipRepo := autoship.NewRepository(gormDB)
	cardRepo := cards.NewRepository(gormDB)
	methodRepo := paymentmethods.NewRepository(gormDB)
	userDirectory := users.NewDirectory(gormDB)
	roleDirectory := roles.NewDirectory(gormDB)

	orderService, err := orders.NewService(orders.NewRepository(gormDB), dbClient)
	if err != nil {
		return nil, err
	}

	tokenClient, err := tokens.NewClient(cfg.PaymentTokens)
	if err != nil {
		return nil, err
	}

	service, err := autoship.NewService(autoship.ServiceParams{
		Repo:              autoshipRepo,
		TransactionRunner: dbClient,
	})
	if err != nil {
		return nil, err
	}

	resolver, err := autoship.NewPaymentResolver(autoship.ResolverParams{
		Logger:            logg,
		Repo:              autoshipRepo,
		Cards:             cardRepo,
		PaymentMethods:    methodRepo,
		Directory:         userDirectory,
		Tokens:            tokenClient,
		TransactionRunner: dbClient,
		Config:            cfg.Autoship,
	})
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
		PaymentMethods: methodRepo,
		Roles:          roleDirectory,
		Directory:      userDirectory,
		Orders:         orderService,
	})
	if err != nil {
		return nil, err
	}

	runner, err := autoship.NewRunner(autoship.RunnerParams{
		Logger:       logg,
		Repo:         autoshipRepo,
		Validator:    validator,
		Materializer: materializer,
	})
	if err != nil {
		return nil, err
	}

	return &autoshipStack{service: service, resolver: resolver, runner: runner}, nil
}
