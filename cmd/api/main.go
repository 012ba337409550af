package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/packfinderz-settlement/api/routes"
	"github.com/angelmondragon/packfinderz-settlement/internal/cart"
	"github.com/angelmondragon/packfinderz-settlement/internal/catalog"
	"github.com/angelmondragon/packfinderz-settlement/internal/checkout"
	"github.com/angelmondragon/packfinderz-settlement/internal/fees"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
	"github.com/angelmondragon/packfinderz-settlement/pkg/migrate"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
	"github.com/angelmondragon/packfinderz-settlement/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, loyaltyService, ledgerRecorder, checkoutRepo, err := buildCheckout(cfg, dbClient, metricsRegistry, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire checkout engine", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     id,
		"fee_schedule": cfg.Pricing.FeeScheduleVersion,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			metricsRegistry,
			engine,
			loyaltyService,
			ledgerRecorder,
			checkoutRepo,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

// buildCheckout wires the repositories, loyalty tracker, ledger recorder and
// outbox emitter behind the checkout engine.
func buildCheckout(cfg *config.Config, dbClient *db.Client, reg prometheus.Registerer, logg *logger.Logger) (checkout.Engine, loyalty.Service, ledger.Recorder, checkout.Repository, error) {
	conn := dbClient.DB()

	cartService, err := cart.NewService(catalog.NewRepository(conn))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tracker := loyalty.NewTracker(cfg.Pricing.MilestoneSize)
	orderRepo := orders.NewRepository(conn)
	loyaltyRepo := loyalty.NewRepository(conn)
	loyaltyService, err := loyalty.NewService(loyaltyRepo, orderRepo, tracker)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ledgerRecorder, err := ledger.NewRecorder(ledger.NewRepository(conn), dbClient)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	checkoutRepo := checkout.NewRepository(conn)
	store, err := checkout.NewStore(
		dbClient,
		checkoutRepo,
		orderRepo,
		loyaltyRepo,
		ledgerRecorder,
		outbox.NewService(outbox.NewRepository(conn), logg),
		tracker,
	)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	engine, err := checkout.NewEngine(
		cartService,
		loyaltyService,
		store,
		settlement.NewCalculator(fees.Default(cfg.Pricing.FeeScheduleVersion)),
		tracker,
		opts,
		metrics.NewCheckoutMetrics(reg),
		logg,
	)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return engine, loyaltyService, ledgerRecorder, checkoutRepo, nil
}

func engineOptions(cfg *config.Config) (checkout.Options, error) {
	kind, err := enums.ParseRewardKind(cfg.Pricing.RewardKind)
	if err != nil {
		return checkout.Options{}, err
	}
	opts := checkout.Options{
		IntroDiscountCapCents: cfg.Pricing.IntroDiscountCapCents,
		RewardKind:            kind,
		RewardCents:           cfg.Pricing.RewardCents,
		CommitTimeout:         cfg.Checkout.CommitTimeout,
	}
	if kind == enums.RewardKindGift {
		opts.GiftProductID, err = uuid.Parse(cfg.Pricing.GiftProductID)
		if err != nil {
			return checkout.Options{}, err
		}
	}
	return opts, nil
}
