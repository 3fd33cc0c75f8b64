package domain

import "time"

// Entitlement is the derived usage decision for one plan and count. It is
// computed per request and never persisted.
type Entitlement struct {
	PlanName       PlanName
	DailyLimit     int
	CurrentUsage   int
	RemainingCount int
	CanUseChat     bool
	ResetTime      time.Time
}

// Evaluate combines a plan and a usage count into an Entitlement. Pure: no
// I/O, and RemainingCount/CanUseChat are always derived together from the
// same (limit, count) pair.
func Evaluate(plan PlanName, usageCount int, now time.Time, loc *time.Location) Entitlement {
	plan = NormalizePlan(string(plan))
	limit := LimitFor(plan)
	remaining := limit - usageCount
	if remaining < 0 {
		remaining = 0
	}
	return Entitlement{
		PlanName:       plan,
		DailyLimit:     limit,
		CurrentUsage:   usageCount,
		RemainingCount: remaining,
		CanUseChat:     limit > 0 && usageCount < limit,
		ResetTime:      NextReset(now, loc),
	}
}
