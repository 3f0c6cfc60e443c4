// Package http exposes the finance service as a JSON API with Google sign-in.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "financepro/internal/log"
	"financepro/internal/middleware/ratelimit"
	"financepro/internal/middleware/security"
	"financepro/internal/middleware/trace"
	"financepro/internal/services"
	"financepro/internal/session"
)

// SessionCookie holds the session token for browser clients.
const SessionCookie = "financepro_session"

type Deps struct {
	Finance            *services.FinanceService
	Sessions           *session.Manager
	Logger             *applog.Logger
	RateLimitPerMinute int
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	finance  *services.FinanceService
	sessions *session.Manager
	limiter  *ratelimit.Limiter
	ready    func(context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		finance:  deps.Finance,
		sessions: deps.Sessions,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		ready:    deps.Ready,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(logger, detector.ExtractClientIP).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	limited := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(limited)
		r.Get("/google/login", s.handleSignIn)
		r.Get("/google/callback", s.handleSignInCallback)
		r.Post("/signout", s.handleSignOut)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(limited)
		r.Use(s.authenticate)

		r.Get("/session", s.handleSession)
		r.Get("/capabilities", s.handleCapabilities)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/forms/transaction", s.handleBlankTransactionForm)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Patch("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Route("/investments", func(r chi.Router) {
			r.Get("/", s.handleListInvestments)
			r.Post("/", s.handleCreateInvestment)
			r.Patch("/{id}", s.handleUpdateInvestment)
			r.Delete("/{id}", s.handleDeleteInvestment)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Patch("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})

		r.Post("/receipts/scan", s.handleScanReceipt)
		r.Get("/export", s.handleExport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Handler = r
	return s
}

// authenticate attaches the caller's session to the request context. The
// token comes from a Bearer Authorization header or the session cookie.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, r, applog.OpRead, session.ErrNoSession)
			return
		}
		sess, err := s.sessions.Verify(token)
		if err != nil {
			writeError(w, r, applog.OpRead, err)
			return
		}
		ctx := session.NewContext(r.Context(), sess)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, sess.User.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// userID returns the authenticated user's id. Only valid behind authenticate.
func (s *Server) userID(r *http.Request) (string, error) {
	sess, err := s.sessions.CurrentSession(r.Context())
	if err != nil {
		return "", err
	}
	return sess.User.ID, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeMessage(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
