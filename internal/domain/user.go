package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an account in the system of record. Plan is the primary
// plan source; an independently resolved plan may override it at request
// time (see internal/plan).
type User struct {
	ID        string
	Email     string
	Name      string
	Locale    string
	Role      UserRole
	Plan      PlanName
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFree reports whether the account is on the free plan.
func (u User) IsFree() bool {
	return NormalizePlan(string(u.Plan)) == PlanFree
}
