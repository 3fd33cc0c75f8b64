package domain

import "context"

// QuotaStore owns UsageRecord persistence. IncrementAndGet must be atomic
// with respect to concurrent callers for the same (userID, day): racing
// increments are both recorded and the final count equals the number of
// successful calls.
type QuotaStore interface {
	// GetCount returns the recorded count for the day, 0 when no record
	// exists. Read-only: it never creates a record.
	GetCount(ctx context.Context, userID, day string) (int, error)
	// IncrementAndGet records one invocation and returns the new count,
	// creating the day's record on first use.
	IncrementAndGet(ctx context.Context, userID, day string) (int, error)
	// History returns the caller's most recent records, newest first.
	History(ctx context.Context, userID string, days int) ([]UsageRecord, error)
}

// UserRepository reads accounts from the system of record.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
