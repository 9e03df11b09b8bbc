package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gearsupply/gearsupply-backend/api/controllers"
	"github.com/gearsupply/gearsupply-backend/api/middleware"
	"github.com/gearsupply/gearsupply-backend/internal/auth"
	"github.com/gearsupply/gearsupply-backend/internal/cart"
	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	checkoutsvc "github.com/gearsupply/gearsupply-backend/internal/checkout"
	"github.com/gearsupply/gearsupply-backend/internal/leads"
	"github.com/gearsupply/gearsupply-backend/internal/orders"
	"github.com/gearsupply/gearsupply-backend/internal/quotes"
	"github.com/gearsupply/gearsupply-backend/internal/returns"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	"github.com/gearsupply/gearsupply-backend/pkg/auth/session"
	"github.com/gearsupply/gearsupply-backend/pkg/config"
	"github.com/gearsupply/gearsupply-backend/pkg/db"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/redis"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Auth      auth.Service
	Catalog   catalog.Service
	Cart      cart.Service
	Quotes    quotes.Service
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Returns   returns.Service
	Leads     leads.Service
	Users     users.Service
	Sequences *sequence.Allocator
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/products", controllers.PublicProducts(deps.Catalog, logg))
		r.Get("/products/{productID}", controllers.PublicProduct(deps.Catalog, logg))
		r.Post("/leads", controllers.LeadCreate(deps.Leads, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/verify", controllers.AuthVerifyEmail(deps.Auth, logg))
		r.Post("/resend", controllers.AuthResendVerification(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/forgot-password", controllers.AuthForgotPassword(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/reset-password", controllers.AuthResetPassword(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/products", controllers.Products(deps.Catalog, logg))
		r.Get("/products/{productID}", controllers.Product(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{productID}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", controllers.QuoteSave(deps.Quotes, logg))
			r.Get("/", controllers.QuoteList(deps.Quotes, logg))
			r.Get("/{quoteID}", controllers.QuoteGet(deps.Quotes, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(deps.Orders, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", controllers.ReturnCreate(deps.Returns, cfg.Storage.MaxUploadMB, logg))
			r.Get("/", controllers.ReturnList(deps.Returns, logg))
			r.Get("/{returnID}", controllers.ReturnGet(deps.Returns, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(logg, "admin"))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(deps.Catalog, logg))
			r.Patch("/{productID}", controllers.AdminProductUpdate(deps.Catalog, logg))
			r.Delete("/{productID}", controllers.AdminProductDeactivate(deps.Catalog, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(deps.Users, logg))
			r.Get("/{userID}", controllers.AdminUserGet(deps.Users, logg))
			r.Put("/{userID}/discount", controllers.AdminUserSetGlobalDiscount(deps.Users, logg))
			r.Get("/{userID}/product-discounts", controllers.AdminUserListProductDiscounts(deps.Users, logg))
			r.Post("/{userID}/product-discounts", controllers.AdminUserSetProductDiscount(deps.Users, logg))
			r.Delete("/{userID}/product-discounts/{productID}", controllers.AdminUserRemoveProductDiscount(deps.Users, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Put("/{orderID}/status", controllers.AdminOrderSetStatus(deps.Orders, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.AdminReturnList(deps.Returns, logg))
			r.Post("/{returnID}/decision", controllers.AdminReturnDecide(deps.Returns, logg))
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", controllers.AdminLeadList(deps.Leads, logg))
			r.Put("/{leadID}/status", controllers.AdminLeadSetStatus(deps.Leads, logg))
		})

		r.Get("/counters", controllers.AdminCounterList(deps.Sequences, logg))
	})

	return r
}
