package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/metrics"
	"server/internal/middleware"
)

// RouterConfig carries the knobs the router needs from the loaded config.
type RouterConfig struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, logger zerolog.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		metrics.Middleware,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, cfg.CountryLookup),
	)
	if cfg.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/usage", func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))
		r.Get("/status", app.UsageStatus)
		r.Post("/increment", app.UsageIncrement)
		r.Get("/history", app.UsageHistory)
	})

	return r
}
