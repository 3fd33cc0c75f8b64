package plan

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra/identity"
)

// Source names where a resolution came from, in lookup order.
type Source string

const (
	SourceSubscription    Source = "subscriptionField"
	SourceDirectMetadata  Source = "directMetadata"
	SourcePrivateMetadata Source = "privateMetadata"
	SourceFallbackDefault Source = "fallbackDefault"
)

// Resolution is the outcome of an independent plan lookup. Succeeded is false
// only when the provider itself was unavailable; an account without plan
// information still resolves (to the default plan).
type Resolution struct {
	PlanName  domain.PlanName
	Succeeded bool
	Source    Source
}

// AccountAPI is the slice of the identity provider the resolver needs.
type AccountAPI interface {
	Account(ctx context.Context, userID string) (*identity.Account, error)
}

// Resolver looks up a user's plan at the identity provider with layered
// fallbacks. Resolve always returns a value and never blocks past its
// timeout; callers treat a failed resolution the same as a fallback plan.
type Resolver struct {
	accounts AccountAPI
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewResolver builds a Resolver. timeout bounds each provider call.
func NewResolver(accounts AccountAPI, timeout time.Duration, logger zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{accounts: accounts, timeout: timeout, logger: logger}
}

// Resolve determines the user's plan. Lookup order: subscription object,
// public profile metadata, private profile metadata, then the default plan.
func (r *Resolver) Resolve(ctx context.Context, userID string) Resolution {
	if strings.TrimSpace(userID) == "" {
		r.logger.Warn().Str("source", string(SourceFallbackDefault)).Msg("plan resolve: unauthenticated caller")
		return Resolution{PlanName: domain.DefaultPlan, Succeeded: false, Source: SourceFallbackDefault}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	account, err := r.accounts.Account(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			// A missing account is not a provider failure.
			r.logger.Info().Str("user_id", userID).Str("source", string(SourceFallbackDefault)).Msg("plan resolve: account not found")
			return Resolution{PlanName: domain.DefaultPlan, Succeeded: true, Source: SourceFallbackDefault}
		}
		r.logger.Warn().Err(err).Str("user_id", userID).Str("source", string(SourceFallbackDefault)).Msg("plan resolve: provider unavailable")
		return Resolution{PlanName: domain.DefaultPlan, Succeeded: false, Source: SourceFallbackDefault}
	}

	if account.Subscription != nil && strings.TrimSpace(account.Subscription.Plan) != "" {
		plan := domain.NormalizePlan(account.Subscription.Plan)
		r.logger.Info().Str("user_id", userID).Str("plan", string(plan)).Str("source", string(SourceSubscription)).Msg("plan resolved")
		return Resolution{PlanName: plan, Succeeded: true, Source: SourceSubscription}
	}

	if plan, ok := metadataPlan(account.PublicMetadata); ok {
		r.logger.Info().Str("user_id", userID).Str("plan", string(plan)).Str("source", string(SourceDirectMetadata)).Msg("plan resolved")
		return Resolution{PlanName: plan, Succeeded: true, Source: SourceDirectMetadata}
	}

	if plan, ok := metadataPlan(account.PrivateMetadata); ok {
		r.logger.Info().Str("user_id", userID).Str("plan", string(plan)).Str("source", string(SourcePrivateMetadata)).Msg("plan resolved")
		return Resolution{PlanName: plan, Succeeded: true, Source: SourcePrivateMetadata}
	}

	r.logger.Info().Str("user_id", userID).Str("source", string(SourceFallbackDefault)).Msg("plan resolve: no plan on account")
	return Resolution{PlanName: domain.DefaultPlan, Succeeded: true, Source: SourceFallbackDefault}
}

func metadataPlan(metadata map[string]any) (domain.PlanName, bool) {
	raw, ok := metadata["plan"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return domain.NormalizePlan(raw), true
}
