package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arjunnair/tiffinbox-backend/api/controllers"
	"github.com/arjunnair/tiffinbox-backend/api/middleware"
	"github.com/arjunnair/tiffinbox-backend/internal/cart"
	"github.com/arjunnair/tiffinbox-backend/internal/orders"
	"github.com/arjunnair/tiffinbox-backend/internal/otp"
	"github.com/arjunnair/tiffinbox-backend/internal/settlement"
	"github.com/arjunnair/tiffinbox-backend/internal/users"
	"github.com/arjunnair/tiffinbox-backend/pkg/auth/session"
	"github.com/arjunnair/tiffinbox-backend/pkg/config"
	"github.com/arjunnair/tiffinbox-backend/pkg/db"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
	"github.com/arjunnair/tiffinbox-backend/pkg/metrics"
	"github.com/arjunnair/tiffinbox-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Only the two
// administrative order routes sit behind the session gate.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          redis.Pinger
	SessionChecker session.AccessSessionChecker

	CartService       cart.Service
	OrdersService     orders.Service
	SettlementService settlement.Service
	OTPService        otp.Service
	UsersService      users.Service

	RateLimiter middleware.FixedWindowLimiter
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Delete("/items", controllers.CartRemoveItem(deps.CartService, logg))
			r.Put("/items/quantity", controllers.CartSetQuantity(deps.CartService, logg))
			r.Post("/clear", controllers.CartClear(deps.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrdersCreate(deps.OrdersService, logg))
			r.Get("/user", controllers.OrdersListForUser(deps.OrdersService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
				r.Get("/all", controllers.OrdersListAll(deps.OrdersService, logg))
				r.Put("/{orderId}/status", controllers.OrdersUpdateStatus(deps.OrdersService, logg))
			})
		})

		r.Route("/payment", func(r chi.Router) {
			r.Post("/create-intent", controllers.PaymentCreateIntent(deps.SettlementService, logg))
			r.Post("/create-transfers", controllers.PaymentCreateTransfers(deps.SettlementService, logg))
		})

		r.Route("/otp", func(r chi.Router) {
			r.With(middleware.RateLimit("otp_send", cfg.RateLimit.OTPSendLimit, cfg.RateLimit.OTPSendWindow, deps.RateLimiter, logg)).
				Post("/send", controllers.OTPSend(deps.OTPService, logg))
			r.Post("/verify", controllers.OTPVerify(deps.OTPService, deps.UsersService, logg))
		})

		r.Post("/link-phone", controllers.UsersLinkPhone(deps.UsersService, logg))
	})

	return r
}
