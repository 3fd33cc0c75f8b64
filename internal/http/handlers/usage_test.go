package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/usage"
)

var handlerNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type fakeUsageService struct {
	checkEnt domain.Entitlement
	checkErr error
	incEnt   domain.Entitlement
	incErr   error
	history  []domain.UsageRecord
	histErr  error

	gotOpts   usage.CheckOptions
	gotUserID string
}

func (f *fakeUsageService) CheckUsage(ctx context.Context, userID string, opts usage.CheckOptions) (domain.Entitlement, error) {
	f.gotUserID = userID
	f.gotOpts = opts
	return f.checkEnt, f.checkErr
}

func (f *fakeUsageService) IncrementUsage(ctx context.Context, userID string) (domain.Entitlement, error) {
	f.gotUserID = userID
	return f.incEnt, f.incErr
}

func (f *fakeUsageService) History(ctx context.Context, userID string, days int) ([]domain.UsageRecord, error) {
	f.gotUserID = userID
	return f.history, f.histErr
}

func newTestApp(svc *fakeUsageService) *App {
	return NewApp(svc, "test-secret", 5*time.Minute, zerolog.Nop())
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

func TestUsageStatusOK(t *testing.T) {
	svc := &fakeUsageService{
		checkEnt: domain.Evaluate(domain.PlanStandard, 7, handlerNow, time.UTC),
	}
	app := newTestApp(svc)

	rec := httptest.NewRecorder()
	app.UsageStatus(rec, authedRequest(http.MethodGet, "/v1/usage/status"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		RemainingCount int    `json:"remainingCount"`
		DailyLimit     int    `json:"dailyLimit"`
		ResetTime      string `json:"resetTime"`
		CanUseChat     bool   `json:"canUseChat"`
		PlanName       string `json:"planName"`
		CurrentUsage   int    `json:"currentUsage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.RemainingCount != 3 || !body.CanUseChat || body.PlanName != "standard" || body.CurrentUsage != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ResetTime != "2025-03-11T00:00:00Z" {
		t.Fatalf("resetTime = %q, want RFC3339 next midnight", body.ResetTime)
	}
	if svc.gotOpts.Consume || svc.gotOpts.Fresh {
		t.Fatalf("plain status check should not set consume/fresh: %+v", svc.gotOpts)
	}
}

func TestUsageStatusQueryFlags(t *testing.T) {
	svc := &fakeUsageService{checkEnt: domain.Evaluate(domain.PlanStandard, 0, handlerNow, time.UTC)}
	app := newTestApp(svc)

	rec := httptest.NewRecorder()
	app.UsageStatus(rec, authedRequest(http.MethodGet, "/v1/usage/status?intent=use&fresh=1"))

	if !svc.gotOpts.Consume || !svc.gotOpts.Fresh {
		t.Fatalf("options = %+v, want consume and fresh set", svc.gotOpts)
	}
}

func TestUsageStatusErrorStatuses(t *testing.T) {
	reset := domain.NextReset(handlerNow, time.UTC)
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "limit exceeded",
			err:      domain.NewUsageError(domain.KindUsageLimitExceeded, "limit", 0, reset),
			wantCode: http.StatusTooManyRequests,
			wantBody: "USAGE_LIMIT_EXCEEDED",
		},
		{
			name:     "plan restriction",
			err:      domain.NewUsageError(domain.KindPlanRestriction, "plan", 0, reset),
			wantCode: http.StatusForbidden,
			wantBody: "PLAN_RESTRICTION",
		},
		{
			name:     "provider error",
			err:      domain.NewUsageError(domain.KindProviderError, "provider", 2, reset),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "PROVIDER_ERROR",
		},
		{
			name:     "system error",
			err:      domain.NewUsageError(domain.KindSystemError, "oops", 0, reset),
			wantCode: http.StatusInternalServerError,
			wantBody: "SYSTEM_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&fakeUsageService{checkErr: tc.err})
			rec := httptest.NewRecorder()
			app.UsageStatus(rec, authedRequest(http.MethodGet, "/v1/usage/status?intent=use"))

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			var body usageErrorDTO
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.ErrorCode != tc.wantBody {
				t.Fatalf("errorCode = %q, want %q", body.ErrorCode, tc.wantBody)
			}
			if body.ResetTime == "" {
				t.Fatalf("resetTime missing on error payload")
			}
		})
	}
}

func TestUsageErrorMessageLocalized(t *testing.T) {
	reset := domain.NextReset(handlerNow, time.UTC)
	app := newTestApp(&fakeUsageService{
		checkErr: domain.NewUsageError(domain.KindUsageLimitExceeded, "limit", 0, reset),
	})

	req := authedRequest(http.MethodGet, "/v1/usage/status?intent=use")
	req = req.WithContext(context.WithValue(req.Context(), middleware.LocaleKey, "id"))
	rec := httptest.NewRecorder()
	app.UsageStatus(rec, req)

	var body usageErrorDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "Batas harian chat Anda sudah tercapai. Kuota direset di pergantian hari." {
		t.Fatalf("message not localized: %q", body.Error)
	}
}

func TestUsageStatusRequiresUser(t *testing.T) {
	app := newTestApp(&fakeUsageService{})
	rec := httptest.NewRecorder()
	app.UsageStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/usage/status", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUsageIncrementOK(t *testing.T) {
	svc := &fakeUsageService{incEnt: domain.Evaluate(domain.PlanStandard, 8, handlerNow, time.UTC)}
	app := newTestApp(svc)

	rec := httptest.NewRecorder()
	app.UsageIncrement(rec, authedRequest(http.MethodPost, "/v1/usage/increment"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body entitlementDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.CurrentUsage != 8 || body.RemainingCount != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUsageHistory(t *testing.T) {
	svc := &fakeUsageService{history: []domain.UsageRecord{
		{UsageDate: "2025-03-10", Count: 4},
		{UsageDate: "2025-03-09", Count: 9},
	}}
	app := newTestApp(svc)

	rec := httptest.NewRecorder()
	app.UsageHistory(rec, authedRequest(http.MethodGet, "/v1/usage/history?days=2"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Days    int                   `json:"days"`
		Records []usageHistoryItemDTO `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Days != 2 || len(body.Records) != 2 || body.Records[0].Date != "2025-03-10" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUsageHistoryRejectsBadDays(t *testing.T) {
	app := newTestApp(&fakeUsageService{})
	rec := httptest.NewRecorder()
	app.UsageHistory(rec, authedRequest(http.MethodGet, "/v1/usage/history?days=zero"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
