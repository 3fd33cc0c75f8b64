package plan

import (
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Reconcile compares a primary entitlement against an independently resolved
// plan and, when they disagree on a recognized plan, recomputes the
// entitlement from the resolved plan and the same underlying usage count.
// It never re-reads the count and never introduces a new failure: anything
// questionable degrades to returning the primary entitlement unchanged.
func Reconcile(primary domain.Entitlement, resolved Resolution, now time.Time, loc *time.Location, logger zerolog.Logger) (domain.Entitlement, bool) {
	if !resolved.Succeeded {
		return primary, false
	}
	resolvedPlan := domain.NormalizePlan(string(resolved.PlanName))
	if !domain.KnownPlan(resolvedPlan) || resolvedPlan == domain.NormalizePlan(string(primary.PlanName)) {
		return primary, false
	}
	if loc == nil {
		loc = time.UTC
	}

	recomputed := domain.Evaluate(resolvedPlan, primary.CurrentUsage, now, loc)
	logger.Info().
		Str("primary_plan", string(primary.PlanName)).
		Str("resolved_plan", string(resolvedPlan)).
		Str("resolve_source", string(resolved.Source)).
		Int("usage_count", primary.CurrentUsage).
		Msg("entitlement overridden by resolved plan")
	return recomputed, true
}
