package counter

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	"gorm.io/gorm"
)

var ErrUnknownEmployee = errors.New("counter: unknown sales employee")

type counterRow struct {
	ID             snowflake.ID
	TodayCount     int64
	TotalCount     int64
	LastAssignedAt *time.Time
}

// GormStore keeps counters on the sales_employees rows and increments them
// with a single UPDATE so concurrent assignments never lose an increment.
type GormStore struct{}

func NewGormStore() *GormStore {
	return &GormStore{}
}

func (s *GormStore) Increment(ctx context.Context, db *gorm.DB, employeeID snowflake.ID, at time.Time) (domain.Counters, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE sales_employees
		 SET today_count = today_count + 1,
		     total_count = total_count + 1,
		     last_assigned_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		at,
		at,
		employeeID,
	)
	if res.Error != nil {
		return domain.Counters{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Counters{}, ErrUnknownEmployee
	}

	var row counterRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, today_count, total_count, last_assigned_at FROM sales_employees WHERE id = ?`,
		employeeID,
	).Scan(&row).Error
	if err != nil {
		return domain.Counters{}, err
	}
	return domain.Counters{
		TodayCount:     row.TodayCount,
		TotalCount:     row.TotalCount,
		LastAssignedAt: row.LastAssignedAt,
	}, nil
}

func (s *GormStore) Current(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]domain.Counters, error) {
	out := make(map[snowflake.ID]domain.Counters, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []counterRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, today_count, total_count, last_assigned_at FROM sales_employees WHERE id IN ?`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = domain.Counters{
			TodayCount:     row.TodayCount,
			TotalCount:     row.TotalCount,
			LastAssignedAt: row.LastAssignedAt,
		}
	}
	return out, nil
}

var _ domain.CounterStore = (*GormStore)(nil)
