package rpc

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"splitpay/core"
	"splitpay/core/events"
	"splitpay/observability/journal"
	"splitpay/observability/metrics"
)

const (
	maxRequestBytes = 1 << 16
	requestIDHeader = "X-Request-ID"
)

// Config captures the dependencies required to construct the server.
type Config struct {
	Runtime   *core.Runtime
	Hub       *events.Hub
	Journal   *journal.Journal
	Auth      AuthConfig
	RateLimit RateLimit
	Logger    *slog.Logger
	// Tracing wraps the router with otelhttp server spans.
	Tracing bool
}

// Server exposes the ledger over HTTP.
type Server struct {
	runtime *core.Runtime
	hub     *events.Hub
	journal *journal.Journal
	auth    *Authenticator
	limiter *RateLimiter
	logger  *slog.Logger
	metrics *metrics.HTTPMetrics

	router http.Handler
}

// New constructs the HTTP API.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.HTTP()
	srv := &Server{
		runtime: cfg.Runtime,
		hub:     cfg.Hub,
		journal: cfg.Journal,
		auth:    NewAuthenticator(cfg.Auth, logger),
		limiter: NewRateLimiter(cfg.RateLimit, m),
		logger:  logger,
		metrics: m,
	}
	var handler http.Handler = srv.buildRouter()
	if cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "splitpay-api")
	}
	srv.router = handler
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.RealIP)
	r.Use(s.observe)
	r.Use(chimw.Recoverer)
	r.Use(s.limiter.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Get("/events/ws", s.handleEventsWS)
		api.Get("/events", s.handleEvents)

		api.Get("/owner", s.handleOwner)
		api.Get("/managers/{addr}", s.handleIsManager)
		api.Get("/beneficiaries", s.handleBeneficiaries)
		api.Get("/beneficiaries/{addr}", s.handleBeneficiary)
		api.Get("/approvals/{owner}/{spender}", s.handleApproval)
		api.Get("/shares", s.handleShares)
		api.Get("/paused", s.handlePaused)
		api.Get("/stats", s.handleStats)
		api.Get("/accounts/{addr}/balance", s.handleAccountBalance)

		api.Group(func(protected chi.Router) {
			protected.Use(s.auth.Require)
			protected.Post("/payments", s.handlePay)
			protected.Post("/beneficiaries", s.handleAddBeneficiary)
			protected.Delete("/beneficiaries/{addr}", s.handleRemoveBeneficiary)
			protected.Post("/approvals", s.handleApprove)
			protected.Delete("/approvals/{spender}", s.handleRevoke)
			protected.Post("/withdrawals", s.handleWithdraw)
			protected.Post("/withdrawals/all", s.handleWithdrawAll)
			protected.Post("/withdrawals/delegated", s.handleWithdrawFrom)
			protected.Post("/managers", s.handleAddManager)
			protected.Delete("/managers/{addr}", s.handleRemoveManager)
			protected.Post("/pause", s.handlePause)
			protected.Post("/unpause", s.handleUnpause)
			protected.Post("/owner", s.handleTransferOwnership)
			protected.Post("/faucet", s.handleFaucet)
		})
	})
	return r
}

// requestID propagates or assigns a request id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := r.Context()
		r = r.WithContext(contextWithRequestID(ctx, id))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.Observe(route, status, elapsed)
		s.logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"elapsed", elapsed,
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}
