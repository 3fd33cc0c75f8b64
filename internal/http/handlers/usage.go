package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"server/internal/domain"
	"server/internal/i18n"
	"server/internal/middleware"
	"server/internal/usage"
)

type entitlementDTO struct {
	RemainingCount int    `json:"remainingCount"`
	DailyLimit     int    `json:"dailyLimit"`
	ResetTime      string `json:"resetTime"`
	CanUseChat     bool   `json:"canUseChat"`
	PlanName       string `json:"planName"`
	CurrentUsage   int    `json:"currentUsage"`
}

type usageErrorDTO struct {
	Error          string `json:"error"`
	ErrorCode      string `json:"errorCode"`
	RemainingCount int    `json:"remainingCount"`
	ResetTime      string `json:"resetTime"`
}

type usageHistoryItemDTO struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func toEntitlementDTO(ent domain.Entitlement) entitlementDTO {
	return entitlementDTO{
		RemainingCount: ent.RemainingCount,
		DailyLimit:     ent.DailyLimit,
		ResetTime:      ent.ResetTime.Format(time.RFC3339),
		CanUseChat:     ent.CanUseChat,
		PlanName:       string(ent.PlanName),
		CurrentUsage:   ent.CurrentUsage,
	}
}

// UsageStatus reports the caller's current entitlement. With intent=use the
// limits are enforced; with fresh=1 a degraded plan resolution is rejected
// instead of served best-effort.
func (a *App) UsageStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	opts := usage.CheckOptions{
		Consume: r.URL.Query().Get("intent") == "use",
		Fresh:   r.URL.Query().Get("fresh") == "1",
	}
	ent, err := a.Usage.CheckUsage(r.Context(), userID, opts)
	if err != nil {
		a.usageError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toEntitlementDTO(ent))
}

// UsageIncrement records one chat invocation after the external action
// succeeded and returns the entitlement derived from the new count.
func (a *App) UsageIncrement(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	ent, err := a.Usage.IncrementUsage(r.Context(), userID)
	if err != nil {
		a.usageError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toEntitlementDTO(ent))
}

// UsageHistory lists the caller's recent per-day usage records, newest first.
func (a *App) UsageHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "days must be a positive integer")
			return
		}
		days = parsed
	}
	records, err := a.Usage.History(r.Context(), userID, days)
	if err != nil {
		a.usageError(w, r, err)
		return
	}
	items := make([]usageHistoryItemDTO, 0, len(records))
	for _, rec := range records {
		items = append(items, usageHistoryItemDTO{Date: rec.UsageDate, Count: rec.Count})
	}
	a.json(w, http.StatusOK, map[string]any{"days": days, "records": items})
}

// usageError renders a UsageError with its taxonomy status and a message
// localized from the request locale. Unexpected errors degrade to a system
// error payload.
func (a *App) usageError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())

	var usageErr *domain.UsageError
	if errors.As(err, &usageErr) {
		a.json(w, usageErr.Kind.HTTPStatus(), usageErrorDTO{
			Error:          i18n.Message(locale, string(usageErr.Kind)),
			ErrorCode:      string(usageErr.Kind),
			RemainingCount: usageErr.RemainingCount,
			ResetTime:      usageErr.ResetTime.Format(time.RFC3339),
		})
		return
	}

	if errors.Is(err, domain.ErrUnauthorized) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	a.Logger.Error().Err(err).Msg("usage request failed")
	a.json(w, http.StatusInternalServerError, usageErrorDTO{
		Error:     i18n.Message(locale, string(domain.KindSystemError)),
		ErrorCode: string(domain.KindSystemError),
	})
}
