package domain

import "time"

// DayKeyFormat is the calendar-date layout used for usage_date keys.
const DayKeyFormat = "2006-01-02"

// UsageRecord is the per-user-per-day chat invocation counter. At most one
// record exists per (UserID, UsageDate); the count only ever increases within
// a day and records are retained for audit.
type UsageRecord struct {
	UserID    string
	UsageDate string
	Count     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DayKey returns the calendar date of t in the reference location. The day
// boundary is fixed per deployment, not per user.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyFormat)
}

// NextReset returns the start of the next calendar day after now in the
// reference location. Deterministic: the same now and loc always yield the
// same instant.
func NextReset(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}
