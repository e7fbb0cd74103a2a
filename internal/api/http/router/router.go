// Package router assembles the HTTP surface: middleware chains, credential
// endpoints and the proxied service groups.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"api-gateway/internal/api/http/handler"
	"api-gateway/internal/api/http/middleware"
	"api-gateway/internal/api/http/response"
	"api-gateway/internal/logger"
	"api-gateway/internal/model"
	"api-gateway/internal/proxy"
	"api-gateway/internal/ratelimit"
	"api-gateway/internal/service"
)

// searchWindows are the admission windows for the search group. The
// per-minute window applies to every caller; the daily windows differ by
// authentication state.
var searchWindows = []ratelimit.WindowSpec{
	{Limit: 10, Period: time.Minute, Applies: ratelimit.Everyone},
	{Limit: 100, Period: 24 * time.Hour, Applies: ratelimit.AuthenticatedOnly},
	{Limit: 50, Period: 24 * time.Hour, Applies: ratelimit.AnonymousOnly},
}

// Upstreams holds the base URLs of the proxied services.
type Upstreams struct {
	SearchBaseURL    string
	UsersBaseURL     string
	MerchantsBaseURL string
}

// Router wires handlers and middleware into the HTTP mux.
type Router struct {
	authService    *service.Auth
	forwarder      *proxy.Forwarder
	limiter        *ratelimit.Limiter
	loginBuckets   *ratelimit.BucketStore
	upstreams      Upstreams
	contextManager model.ContextManager
	logger         *logger.Logger

	authHandler *handler.Auth
}

// New creates a new HTTP Router instance.
func New(
	authService *service.Auth,
	forwarder *proxy.Forwarder,
	limiter *ratelimit.Limiter,
	loginBuckets *ratelimit.BucketStore,
	upstreams Upstreams,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		forwarder:      forwarder,
		limiter:        limiter,
		loginBuckets:   loginBuckets,
		upstreams:      upstreams,
		contextManager: contextManager,
		logger:         logger,
		authHandler:    handler.NewAuth(authService, forwarder, upstreams.UsersBaseURL, contextManager, logger),
	}
}

// Drain flushes background work the handlers started, such as profile
// forwards to the users service. Called during shutdown after the listener
// stops accepting requests.
func (r *Router) Drain(ctx context.Context) error {
	return r.authHandler.Drain(ctx)
}

// Register builds the mux with all routes and middleware.
func (r *Router) Register() *chi.Mux {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger)
	rateLimit := middleware.NewRateLimit(r.limiter, r.contextManager, r.logger)
	throttle := middleware.NewThrottle(r.loginBuckets, r.logger)

	authHandler := r.authHandler
	proxyHandler := handler.NewProxy(r.forwarder, r.contextManager, r.logger,
		r.upstreams.SearchBaseURL, r.upstreams.UsersBaseURL, r.upstreams.MerchantsBaseURL)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(chimiddleware.Timeout(60 * time.Second))
	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "not found")
	})

	mux.Get("/", handler.Root)
	mux.Get("/health", handler.Health)

	mux.Group(func(g chi.Router) {
		g.Use(throttle.Handle)
		g.Post("/register", authHandler.Register)
		g.Post("/login", authHandler.Login)
	})

	mux.Post("/refresh-token", authHandler.RefreshToken)

	mux.Group(func(g chi.Router) {
		g.Use(authenticate.Require)
		g.Patch("/accounts/update", authHandler.UpdateAccount)
	})

	mux.Route("/search", func(g chi.Router) {
		g.Use(authenticate.Optional)
		g.Use(rateLimit.Limit(searchWindows))
		g.HandleFunc("/*", proxyHandler.Search)
	})

	mux.Route("/users", func(g chi.Router) {
		g.Use(authenticate.Require)
		g.HandleFunc("/*", proxyHandler.Users)
	})

	mux.Route("/merchants", func(g chi.Router) {
		g.Use(authenticate.Require)
		g.HandleFunc("/*", proxyHandler.Merchants)
	})

	return mux
}
