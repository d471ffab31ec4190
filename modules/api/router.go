package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/clientip"
	"github.com/dmitrymomot/trialbill/pkg/httpserver"
	"github.com/dmitrymomot/trialbill/pkg/logger"
	"github.com/dmitrymomot/trialbill/pkg/ratelimiter"
	"github.com/dmitrymomot/trialbill/pkg/requestid"
	"github.com/dmitrymomot/trialbill/pkg/session"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

// DefaultSignatureHeader carries the webhook signature.
const DefaultSignatureHeader = "Paddle-Signature"

// Options wires the router. Accounts, Subscriptions and Sessions are
// required.
type Options struct {
	Accounts      account.Service
	Subscriptions subscription.Service
	Sessions      *session.Manager
	Logger        *slog.Logger

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Probes are run by /readyz.
	Probes       []httpserver.Probe
	ReadyTimeout time.Duration

	// AuthLimiter, when set, limits sign-up and login attempts per client IP.
	AuthLimiter ratelimiter.Limiter

	// SignatureHeader is the request header holding the webhook signature.
	SignatureHeader string
	// SignInRedirectURL, when set, is where the Google callback redirects
	// after the session cookie is issued. Otherwise it answers with JSON.
	SignInRedirectURL string
}

type handlers struct {
	accounts        account.Service
	subs            subscription.Service
	sessions        *session.Manager
	logger          *slog.Logger
	signatureHeader string
	signInRedirect  string
}

// NewRouter builds the HTTP API.
//
//	r := api.NewRouter(api.Options{
//		Accounts:      accounts,
//		Subscriptions: subs,
//		Sessions:      sessions,
//		Logger:        log,
//		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
//	})
func NewRouter(opts Options) chi.Router {
	if opts.Accounts == nil || opts.Subscriptions == nil || opts.Sessions == nil {
		panic("api: accounts, subscriptions and sessions are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.SignatureHeader == "" {
		opts.SignatureHeader = DefaultSignatureHeader
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}

	h := &handlers{
		accounts:        opts.Accounts,
		subs:            opts.Subscriptions,
		sessions:        opts.Sessions,
		logger:          opts.Logger.With(logger.Component("api")),
		signatureHeader: opts.SignatureHeader,
		signInRedirect:  opts.SignInRedirectURL,
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(h.logger, opts.ReadyTimeout, opts.Probes...))
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Get("/plans", h.listPlans)
	r.Post("/webhooks/billing", h.webhook)

	r.Group(func(r chi.Router) {
		r.Use(opts.Sessions.Middleware(func(r *http.Request, err error) {
			h.logger.WarnContext(r.Context(), "session lookup failed", logger.Error(err))
		}))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.AuthLimiter != nil {
					r.Use(ratelimiter.Middleware(opts.AuthLimiter, ratelimiter.ByClientIP,
						func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
							respondError(w, r, h.logger, ErrRateLimited)
						},
						func(r *http.Request, err error) {
							h.logger.ErrorContext(r.Context(), "rate limiter failed", logger.Error(err))
						},
					))
				}
				r.Post("/signup", h.signup)
				r.Post("/login", h.login)
			})
			r.Post("/logout", h.logout)
			r.Get("/google", h.googleRedirect)
			r.Get("/google/callback", h.googleCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(session.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				respondError(w, r, h.logger, ErrUnauthorized)
			})))

			r.Get("/me", h.me)
			r.Get("/subscription", h.describe)
			r.Post("/subscription", h.beginTrial)
			r.Post("/subscription/cancel", h.cancel)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, h.logger, ErrNotFound)
	})

	return r
}

// requestLogger logs one line per request after it completes.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("client_ip", clientip.GetIP(r)),
				logger.Duration(time.Since(start)),
			)
		})
	}
}

// userID returns the signed-in user. Routes behind RequireUser always have one.
func userID(r *http.Request) string {
	id, _ := session.UserIDFromContext(r.Context())
	return id
}
