package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hongminglow/gigdash/internal/assistant"
	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/config"
	"github.com/hongminglow/gigdash/internal/documents"
	"github.com/hongminglow/gigdash/internal/http/handlers"
	"github.com/hongminglow/gigdash/internal/jobs"
	"github.com/hongminglow/gigdash/internal/metrics"
	"github.com/hongminglow/gigdash/internal/middleware"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

const loginAttemptsPerMinute = 10

// Deps are the backends the server runs on.
type Deps struct {
	Store    storage.Store
	Sessions storage.SessionStore // defaults to Store
	Blobs    documents.BlobStore  // defaults to an in-memory store
	LLM      assistant.LLM        // nil disables GigBot chat
	Pinger   handlers.Pinger      // optional database health check
	Logger   *zap.Logger
}

// Server wraps an http.Server with configured routes and the housekeeping jobs.
type Server struct {
	inner   *http.Server
	handler http.Handler
	jobs    *jobs.Runner
	logger  *zap.Logger
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionStore := deps.Sessions
	if sessionStore == nil {
		sessionStore = deps.Store
	}
	blobs := deps.Blobs
	if blobs == nil {
		blobs = documents.NewMemoryStore()
	}

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	sessions := auth.NewSessionManager(sessionStore, cfg.SessionTTL, cfg.CookieSecure)
	authz := rbac.NewAuthorizer(deps.Store, deps.Store, logger)
	guard := handlers.Guard{
		Authn:  middleware.NewAuthenticator(sessions, tokenManager, deps.Store, logger),
		Authz:  authz,
		Logger: logger,
	}
	var oauth *auth.OAuthProvider
	if cfg.OAuth.Enabled() {
		oauth = auth.NewOAuthProvider(auth.OAuthConfig(cfg.OAuth), tokenManager, cfg.CookieSecure)
	}
	bot := assistant.New(deps.LLM, deps.Store, logger.Named("assistant"), cfg.Assistant.MaxToolRounds)

	loginLimiter := middleware.NewRateLimiter(middleware.PerMinute(loginAttemptsPerMinute), logger)
	chatLimiter := middleware.NewRateLimiter(chatLimit(cfg.Assistant), logger)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	for _, h := range []interface{ Register(*http.ServeMux) }{
		handlers.NewHealthHandler(time.Now(), deps.Pinger),
		handlers.NewAuthHandler(deps.Store, tokenManager, sessions, loginLimiter, guard, logger),
		handlers.NewOAuthHandler(oauth, deps.Store, sessions, logger),
		handlers.NewCompanyHandler(deps.Store, guard, logger),
		handlers.NewApplicationHandler(deps.Store, guard, logger),
		handlers.NewVehicleHandler(deps.Store, blobs, guard, logger),
		handlers.NewDocumentHandler(deps.Store, blobs, cfg.Documents.Prefix, cfg.MaxUploadBytes(), guard, logger),
		handlers.NewCreditHandler(deps.Store, guard, logger),
		handlers.NewDashboardHandler(deps.Store, guard, logger),
		handlers.NewAssistantHandler(bot, chatLimiter, guard, logger),
		handlers.NewAdminHandler(deps.Store, guard, logger),
	} {
		h.Register(mux)
	}

	handler := middleware.RealIP(cfg.TrustedProxies,
		middleware.Recover(logger,
			middleware.Logging(logger,
				middleware.CORS(cfg.CORSOrigins,
					metrics.InstrumentHandler(mux)))))

	runner, err := jobs.New(jobs.Config{SessionSweep: cfg.SessionSweepCron}, sessions,
		[]jobs.LimiterCleaner{loginLimiter, chatLimiter}, deps.Store, logger.Named("jobs"))
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// GigBot replies can take several model round trips.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{inner: httpServer, handler: handler, jobs: runner, logger: logger}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the jobs and begins serving HTTP traffic.
func (s *Server) Start() error {
	s.jobs.Start()
	s.logger.Info("http server listening", zap.String("addr", s.inner.Addr))
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server and the scheduler.
func (s *Server) Shutdown(ctx context.Context) error {
	s.jobs.Stop(ctx)
	return s.inner.Shutdown(ctx)
}

// chatLimit gives premium workers and admins a multiple of the base chat rate.
func chatLimit(cfg config.AssistantConfig) middleware.LimitFunc {
	return func(user *models.User) (rate.Limit, int) {
		n := cfg.RatePerMinute
		if n <= 0 {
			n = 20
		}
		if user != nil && (user.Role == models.RolePremiumWorker || user.Role == models.RoleAdmin) && cfg.PremiumRateMul > 1 {
			n *= cfg.PremiumRateMul
		}
		return rate.Every(time.Minute / time.Duration(n)), n
	}
}
