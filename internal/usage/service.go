package usage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/metrics"
	"server/internal/plan"
)

// PlanResolver is the independent plan lookup consumed by the service.
type PlanResolver interface {
	Resolve(ctx context.Context, userID string) plan.Resolution
}

// CheckOptions steer a usage check.
type CheckOptions struct {
	// Consume marks the check as an attempt to use chat: limits are
	// enforced and a rejected check returns a UsageError. Pure status reads
	// return the entitlement regardless of CanUseChat.
	Consume bool
	// Fresh requires a successful provider resolution; a degraded one is
	// escalated to a ProviderError instead of continuing on best-effort
	// data.
	Fresh bool
}

// Service composes the quota store, the system-of-record plan, the plan
// resolver and the override reconciler into the check-usage and
// increment-usage operations.
type Service struct {
	store           domain.QuotaStore
	users           domain.UserRepository
	resolver        PlanResolver
	loc             *time.Location
	overrideEnabled bool
	logger          zerolog.Logger
	now             func() time.Time
}

// NewService wires a Service. loc is the reference timezone for day
// boundaries; overrideEnabled feature-flags reconciliation.
func NewService(store domain.QuotaStore, users domain.UserRepository, resolver PlanResolver, loc *time.Location, overrideEnabled bool, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:           store,
		users:           users,
		resolver:        resolver,
		loc:             loc,
		overrideEnabled: overrideEnabled,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckUsage derives the caller's current entitlement. With Consume set, a
// non-usable entitlement comes back as a UsageError instead.
func (s *Service) CheckUsage(ctx context.Context, userID string, opts CheckOptions) (domain.Entitlement, error) {
	now := s.now()
	final, resolved, err := s.derive(ctx, userID, now)
	if err != nil {
		metrics.UsageChecksTotal.WithLabelValues(outcomeFor(err)).Inc()
		return domain.Entitlement{}, err
	}

	if opts.Fresh && !resolved.Succeeded {
		metrics.UsageChecksTotal.WithLabelValues("provider_error").Inc()
		return domain.Entitlement{}, domain.NewUsageError(
			domain.KindProviderError,
			"plan information is temporarily unavailable",
			final.RemainingCount,
			final.ResetTime,
		)
	}

	if opts.Consume && !final.CanUseChat {
		usageErr := rejectError(final)
		metrics.UsageChecksTotal.WithLabelValues(outcomeFor(usageErr)).Inc()
		return domain.Entitlement{}, usageErr
	}

	metrics.UsageChecksTotal.WithLabelValues("allowed").Inc()
	return final, nil
}

// IncrementUsage enforces the limit, records one invocation and returns the
// entitlement recomputed from the new count. Enforcement happens before the
// mutating call: a rejected increment never touches the store.
func (s *Service) IncrementUsage(ctx context.Context, userID string) (domain.Entitlement, error) {
	now := s.now()
	final, _, err := s.derive(ctx, userID, now)
	if err != nil {
		metrics.UsageIncrementsTotal.WithLabelValues(outcomeFor(err)).Inc()
		return domain.Entitlement{}, err
	}

	if !final.CanUseChat {
		usageErr := rejectError(final)
		metrics.UsageIncrementsTotal.WithLabelValues(outcomeFor(usageErr)).Inc()
		return domain.Entitlement{}, usageErr
	}

	day := domain.DayKey(now, s.loc)
	newCount, err := s.store.IncrementAndGet(ctx, userID, day)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("usage increment failed")
		metrics.UsageIncrementsTotal.WithLabelValues("system_error").Inc()
		return domain.Entitlement{}, s.systemError(now)
	}

	metrics.UsageIncrementsTotal.WithLabelValues("allowed").Inc()
	return domain.Evaluate(final.PlanName, newCount, now, s.loc), nil
}

// History returns the caller's recent usage records, newest first.
func (s *Service) History(ctx context.Context, userID string, days int) ([]domain.UsageRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	records, err := s.store.History(ctx, userID, days)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("usage history read failed")
		return nil, s.systemError(s.now())
	}
	return records, nil
}

// derive runs the quota read and the plan resolution concurrently, evaluates
// the primary entitlement from the system-of-record plan and reconciles it
// against the resolved plan. The single count value read here feeds both the
// primary evaluation and the reconciliation.
func (s *Service) derive(ctx context.Context, userID string, now time.Time) (domain.Entitlement, plan.Resolution, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Entitlement{}, plan.Resolution{}, domain.ErrUnauthorized
	}

	day := domain.DayKey(now, s.loc)

	resCh := make(chan plan.Resolution, 1)
	go func() {
		resCh <- s.resolver.Resolve(ctx, userID)
	}()

	count, err := s.store.GetCount(ctx, userID, day)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("usage count read failed")
		return domain.Entitlement{}, plan.Resolution{}, s.systemError(now)
	}

	primaryPlan := domain.DefaultPlan
	user, err := s.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		primaryPlan = user.Plan
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Warn().Str("user_id", userID).Msg("user missing from system of record, assuming default plan")
	default:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("user lookup failed")
		return domain.Entitlement{}, plan.Resolution{}, s.systemError(now)
	}

	primary := domain.Evaluate(primaryPlan, count, now, s.loc)

	resolved := <-resCh
	metrics.PlanResolutionsTotal.WithLabelValues(string(resolved.Source), boolLabel(resolved.Succeeded)).Inc()

	final := primary
	if s.overrideEnabled {
		var overridden bool
		final, overridden = plan.Reconcile(primary, resolved, now, s.loc, s.logger)
		if overridden {
			metrics.PlanOverridesTotal.Inc()
		}
	}

	return final, resolved, nil
}

func (s *Service) systemError(now time.Time) *domain.UsageError {
	return domain.NewUsageError(domain.KindSystemError, "internal error", 0, domain.NextReset(now, s.loc))
}

// rejectError maps a non-usable entitlement to its taxonomy kind: a zero
// daily limit is a plan restriction, an exhausted one a limit error.
func rejectError(ent domain.Entitlement) *domain.UsageError {
	if ent.DailyLimit == 0 {
		return domain.NewUsageError(domain.KindPlanRestriction, "current plan does not include chat", 0, ent.ResetTime)
	}
	return domain.NewUsageError(domain.KindUsageLimitExceeded, "daily chat limit reached", 0, ent.ResetTime)
}

func outcomeFor(err error) string {
	var usageErr *domain.UsageError
	if errors.As(err, &usageErr) {
		switch usageErr.Kind {
		case domain.KindUsageLimitExceeded:
			return "limit_exceeded"
		case domain.KindPlanRestriction:
			return "plan_restricted"
		case domain.KindProviderError:
			return "provider_error"
		default:
			return "system_error"
		}
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return "unauthorized"
	}
	return "system_error"
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
