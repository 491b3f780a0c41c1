package httpapi

import (
	"net/http"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options tunes the transport around the engine.
type Options struct {
	// RequestsPerSecond caps requests per client IP. Zero or less disables
	// the limiter.
	RequestsPerSecond float64
	// AllowedOrigins lists origins that may call the API from a browser
	// with credentials. Empty means no CORS headers are sent.
	AllowedOrigins []string
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
}

type handler struct {
	engine   *authservice.Engine
	logger   *zap.Logger
	validate *validator.Validate
}

// NewRouter returns the service's HTTP handler. Middleware runs outermost
// first: per-IP rate limit, request logging, CORS, security headers.
func NewRouter(engine *authservice.Engine, logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	h := &handler{
		engine:   engine,
		logger:   logger,
		validate: validator.New(),
	}

	r := mux.NewRouter()
	r.StrictSlash(true)
	r.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/verify-2fa", h.verifyTwoFA).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/verify-token", h.verifyToken).Methods(http.MethodPost)
	r.Handle("/session", middleware.RequireSession(engine)(http.HandlerFunc(h.session))).Methods(http.MethodGet)
	r.HandleFunc("/health", health).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	var out http.Handler = r
	out = securityHeaders(out)
	out = allowOrigins(opts.AllowedOrigins)(out)
	out = requestLogging(logger)(out)
	if opts.RequestsPerSecond > 0 {
		out = limitPerIP(opts.RequestsPerSecond)(out)
	}
	return out
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
