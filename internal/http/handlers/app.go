package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/usage"
)

// UsageService is the slice of the usage engine the handlers consume.
type UsageService interface {
	CheckUsage(ctx context.Context, userID string, opts usage.CheckOptions) (domain.Entitlement, error)
	IncrementUsage(ctx context.Context, userID string) (domain.Entitlement, error)
	History(ctx context.Context, userID string, days int) ([]domain.UsageRecord, error)
}

// App bundles handler dependencies.
type App struct {
	Logger          zerolog.Logger
	JWTSecret       string
	Usage           UsageService
	RefreshInterval time.Duration
}

func NewApp(usageSvc UsageService, jwtSecret string, refreshInterval time.Duration, logger zerolog.Logger) *App {
	return &App{
		Logger:          logger,
		JWTSecret:       jwtSecret,
		Usage:           usageSvc,
		RefreshInterval: refreshInterval,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": message, "errorCode": errCode})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
