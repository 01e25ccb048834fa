package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmoreau/galleria-backend/api/controllers"
	webhookcontrollers "github.com/nmoreau/galleria-backend/api/controllers/webhooks"
	"github.com/nmoreau/galleria-backend/api/middleware"
	artworksvc "github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/internal/auth"
	checkoutsvc "github.com/nmoreau/galleria-backend/internal/checkout"
	collectionsvc "github.com/nmoreau/galleria-backend/internal/collection"
	offersvc "github.com/nmoreau/galleria-backend/internal/offers"
	"github.com/nmoreau/galleria-backend/internal/settlement"
	walletsvc "github.com/nmoreau/galleria-backend/internal/wallets"
	stripewebhook "github.com/nmoreau/galleria-backend/internal/webhooks/stripe"
	"github.com/nmoreau/galleria-backend/pkg/auth/session"
	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	"github.com/nmoreau/galleria-backend/pkg/logger"
	"github.com/nmoreau/galleria-backend/pkg/redis"
	"github.com/nmoreau/galleria-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface needs. Optional pieces
// (metrics registry, webhook guard) may be nil.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              *db.Client
	Redis           *redis.Client
	Sessions        session.AccessSessionChecker
	AuthService     auth.Service
	RegisterService auth.RegisterService
	Artworks        artworksvc.Service
	Offers          offersvc.Service
	Collection      collectionsvc.Service
	Wallets         walletsvc.Service
	Checkout        checkoutsvc.Service
	StripeCheckout  checkoutsvc.StripeCheckoutClient
	Settlement      settlement.Service
	StripeClient    *stripe.Client
	StripeWebhooks  *stripewebhook.Service
	Metrics         *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var dbPing, cachePing interface{ Ping(context.Context) error }
	var idemStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if p.DB != nil {
		dbPing = p.DB
	}
	if p.Redis != nil {
		cachePing = p.Redis
		idemStore = p.Redis
		limiterStore = p.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPing, cachePing))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/artworks", controllers.ListArtworks(p.Artworks, logg))
		r.Get("/artworks/{artworkID}", controllers.GetArtwork(p.Artworks, logg))
		r.Get("/artworks/{artworkID}/provenance", controllers.ArtworkProvenance(p.Artworks, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		// Assign through locals so a nil *Service stays a nil interface.
		var webhookSvc webhookcontrollers.StripeWebhookService
		if p.StripeWebhooks != nil {
			webhookSvc = p.StripeWebhooks
		}
		var signer interface{ SigningSecret() string }
		if p.StripeClient != nil {
			signer = p.StripeClient
		}
		r.Post("/stripe", webhookcontrollers.StripeWebhook(webhookSvc, signer, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiterStore, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/artworks", func(r chi.Router) {
			artistOnly := middleware.RequireRole(string(enums.UserRoleArtist), logg)
			r.With(artistOnly).Post("/", controllers.CreateArtwork(p.Artworks, logg))
			r.Get("/", controllers.ListArtworks(p.Artworks, logg))
			r.Get("/mine", controllers.ListMyArtworks(p.Artworks, logg))
			r.With(artistOnly).Post("/presign", controllers.PresignArtworkImage(p.Artworks, logg))
			r.Route("/{artworkID}", func(r chi.Router) {
				r.Get("/", controllers.GetArtwork(p.Artworks, logg))
				r.Patch("/", controllers.UpdateArtwork(p.Artworks, logg))
				r.Post("/publish", controllers.PublishArtwork(p.Artworks, logg))
				r.Post("/resale", controllers.ResaleArtwork(p.Artworks, logg))
				r.Route("/offers", func(r chi.Router) {
					r.Post("/", controllers.CreateOffer(p.Offers, logg))
					r.Get("/", controllers.ListPendingOffers(p.Offers, logg))
					r.Get("/count", controllers.CountPendingOffers(p.Offers, logg))
					r.Get("/accepted", controllers.MyAcceptedOffer(p.Offers, logg))
					r.Put("/{offerID}", controllers.DecideOffer(p.Offers, logg))
				})
			})
		})

		r.Route("/purchase", func(r chi.Router) {
			r.Post("/checkout", controllers.PurchaseCheckout(p.Checkout, logg))
			// Settlement is keyed on the payment id, so this endpoint
			// carries no Idempotency-Key requirement.
			r.Post("/process", controllers.PurchaseProcess(p.StripeCheckout, p.Settlement, logg))
		})

		r.Get("/collection", controllers.GetCollection(p.Collection, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(p.Wallets, logg))
			r.Get("/transactions", controllers.ListWalletTransactions(p.Wallets, logg))
		})
	})

	return r
}
