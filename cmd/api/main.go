package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmoreau/galleria-backend/api/routes"
	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/internal/auth"
	"github.com/nmoreau/galleria-backend/internal/checkout"
	"github.com/nmoreau/galleria-backend/internal/collection"
	"github.com/nmoreau/galleria-backend/internal/offers"
	"github.com/nmoreau/galleria-backend/internal/settlement"
	"github.com/nmoreau/galleria-backend/internal/users"
	"github.com/nmoreau/galleria-backend/internal/wallets"
	stripewebhook "github.com/nmoreau/galleria-backend/internal/webhooks/stripe"
	"github.com/nmoreau/galleria-backend/pkg/auth/session"
	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db"
	"github.com/nmoreau/galleria-backend/pkg/logger"
	"github.com/nmoreau/galleria-backend/pkg/metrics"
	"github.com/nmoreau/galleria-backend/pkg/migrate"
	"github.com/nmoreau/galleria-backend/pkg/pubsub"
	"github.com/nmoreau/galleria-backend/pkg/redis"
	"github.com/nmoreau/galleria-backend/pkg/storage/gcs"
	"github.com/nmoreau/galleria-backend/pkg/stripe"
)

const stripeEventGuardTTL = 48 * time.Hour

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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	walletRepo := wallets.NewRepository(dbClient.DB())
	artworkRepo := artworks.NewRepository(dbClient.DB())
	offerRepo := offers.NewRepository(dbClient.DB())
	collectionRepo := collection.NewRepository(dbClient.DB())
	settlementRepo := settlement.NewRepository(dbClient.DB())

	walletService, err := wallets.NewService(walletRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	artworkService, err := artworks.NewService(artworks.ServiceParams{
		Repo:   artworkRepo,
		Signer: gcsClient,
		GCS:    cfg.GCS,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create artwork service", err)
		os.Exit(1)
	}

	offerService, err := offers.NewService(offers.ServiceParams{
		Repo:         offerRepo,
		ArtworkRepo:  artworkRepo,
		Transactions: dbClient,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create offer service", err)
		os.Exit(1)
	}

	collectionService, err := collection.NewService(collection.ServiceParams{
		Repo:     collectionRepo,
		Artworks: artworkService,
		Cache:    redisClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create collection service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		WalletRepo:     walletRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	stripeCheckout := checkout.NewStripeClient(stripeClient)
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Artworks: artworkService,
		Offers:   offerService,
		Stripe:   stripeCheckout,
		Config:   cfg.Checkout,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Repo:         settlementRepo,
		Wallets:      walletService,
		ArtworkRepo:  artworkRepo,
		Collection:   collectionRepo,
		CollectionSv: collectionService,
		Offers:       offerService,
		Transactions: dbClient,
		Publisher:    settlement.NewPubSubPublisher(pubsubClient, logg),
		Metrics:      settlementMetrics,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, stripeEventGuardTTL, "stripe-events")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Settlement: settlementService,
		Guard:      webhookGuard,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Sessions:        sessionManager,
		AuthService:     authService,
		RegisterService: registerService,
		Artworks:        artworkService,
		Offers:          offerService,
		Collection:      collectionService,
		Wallets:         walletService,
		Checkout:        checkoutService,
		StripeCheckout:  stripeCheckout,
		Settlement:      settlementService,
		StripeClient:    stripeClient,
		StripeWebhooks:  webhookService,
		Metrics:         registry,
	})

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
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(ctx, "shutting down on signal "+sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
