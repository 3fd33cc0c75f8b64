package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

const maxHistoryDays = 90

// QuotaStorePG implements domain.QuotaStore on PostgreSQL. The increment is a
// single upsert statement so racing callers for the same (user, day) never
// lose an update.
type QuotaStorePG struct {
	sql infra.SQLExecutor
}

// NewQuotaStore creates a new QuotaStorePG.
func NewQuotaStore(sql infra.SQLExecutor) *QuotaStorePG {
	return &QuotaStorePG{sql: sql}
}

// GetCount returns the stored count for the day. A missing record reads as 0
// without creating anything; storage failures are returned, never masked as
// a zero count.
func (s *QuotaStorePG) GetCount(ctx context.Context, userID, day string) (int, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUsageCount, userID, day)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get usage count: %w", err)
	}
	return count, nil
}

// IncrementAndGet records one invocation and returns the new count.
func (s *QuotaStorePG) IncrementAndGet(ctx context.Context, userID, day string) (int, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QIncrementUsage, userID, day)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return count, nil
}

// History returns the user's most recent usage records, newest first.
func (s *QuotaStorePG) History(ctx context.Context, userID string, days int) ([]domain.UsageRecord, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	rows, err := s.sql.Query(ctx, sqlinline.QSelectUsageHistory, userID, days)
	if err != nil {
		return nil, fmt.Errorf("query usage history: %w", err)
	}
	defer rows.Close()

	var records []domain.UsageRecord
	for rows.Next() {
		rec := domain.UsageRecord{UserID: userID}
		if err := rows.Scan(&rec.UsageDate, &rec.Count, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan usage history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage history: %w", err)
	}
	return records, nil
}

var _ domain.QuotaStore = (*QuotaStorePG)(nil)
