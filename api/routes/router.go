package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-settlement/api/controllers"
	"github.com/angelmondragon/packfinderz-settlement/api/middleware"
	checkoutsvc "github.com/angelmondragon/packfinderz-settlement/internal/checkout"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/loyalty"
	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

// NewRouter mounts the health probes, the metrics endpoint and the v1
// settlement API. Money-moving routes go through the idempotency middleware.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore middleware.IdempotencyStore,
	gatherer prometheus.Gatherer,
	engine checkoutsvc.Engine,
	loyaltyService loyalty.Service,
	ledgerRecorder ledger.Recorder,
	checkoutRepo checkoutsvc.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/fees/schedule", controllers.FeeSchedule(engine, logg))
		r.Post("/cart/quote", controllers.CartQuote(engine, logg))
		r.With(idempotent).Post("/checkout", controllers.Checkout(engine, logg))

		r.Route("/orders/{orderID}", func(r chi.Router) {
			r.Get("/ledger", controllers.OrderLedger(ledgerRecorder, logg))
			r.With(idempotent).Post("/refund", controllers.RefundOrder(engine, logg))
		})

		r.Get("/buyers/{buyerID}/loyalty", controllers.BuyerLoyalty(loyaltyService, logg))
		r.Get("/sellers/{sellerID}/balance", controllers.SellerBalance(checkoutRepo, logg))
	})

	return r
}
