package domain

import "strings"

// PlanName identifies a subscription tier.
type PlanName string

const (
	PlanFree     PlanName = "free"
	PlanStandard PlanName = "standard"
	PlanPremium  PlanName = "premium"
)

// DefaultPlan is the most restrictive plan and the fallback whenever a plan
// cannot be determined.
const DefaultPlan = PlanFree

// dailyLimits is the static plan catalog. A limit of 0 means the plan grants
// no chat usage at all.
var dailyLimits = map[PlanName]int{
	PlanFree:     0,
	PlanStandard: 10,
	PlanPremium:  50,
}

// NormalizePlan lowercases and trims a raw plan string.
func NormalizePlan(name string) PlanName {
	return PlanName(strings.ToLower(strings.TrimSpace(name)))
}

// KnownPlan reports whether name is a catalog entry.
func KnownPlan(name PlanName) bool {
	_, ok := dailyLimits[NormalizePlan(string(name))]
	return ok
}

// LimitFor returns the daily chat limit for the given plan. Lookups are
// case-insensitive; unknown plans fall back to the default plan's limit
// rather than failing.
func LimitFor(name PlanName) int {
	if limit, ok := dailyLimits[NormalizePlan(string(name))]; ok {
		return limit
	}
	return dailyLimits[DefaultPlan]
}
