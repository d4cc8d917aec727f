// Package demoapp serves a small copy of the pages the end-to-end suite
// exercises, so the suite can run against a local address.
package demoapp

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/ratelimit"
)

const (
	ValidUsername = "tomsmith"
	ValidPassword = "SuperSecretPassword!"

	DefaultLoadingDelay = 5 * time.Second
	// login attempts per minute per client
	defaultLoginRate  = 60
	defaultLoginBurst = 10
)

// Options tune the demo app
type Options struct {
	// LoadingDelay is how long the dynamic loading bar runs
	LoadingDelay time.Duration
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	opts    Options
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

func NewHandler(opts Options, logger *zap.Logger) *Handler {
	if opts.LoadingDelay <= 0 {
		opts.LoadingDelay = DefaultLoadingDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		opts:    opts,
		limiter: ratelimit.NewLimiter(defaultLoginRate, defaultLoginBurst),
		logger:  logger,
	}
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("GET")
	r.HandleFunc("/secure", h.Secure).Methods("GET")
	r.HandleFunc("/logout", h.Logout).Methods("GET")
	r.HandleFunc("/dynamic_loading/1", h.DynamicLoading).Methods("GET")

	// Login attempts are rate limited per client
	limited := RateLimitMiddleware(h.limiter, defaultLoginRate)
	r.Handle("/authenticate", limited(http.HandlerFunc(h.Authenticate))).Methods("POST")

	r.Use(loggingMiddleware(h.logger))

	return r
}
