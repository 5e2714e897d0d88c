package counter

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormStoreIncrementIsSingleAtomicUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET today_count = today_count + 1")+`(?s).*`+regexp.QuoteMeta("total_count = total_count + 1")).
		WithArgs(at, at, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, today_count, total_count, last_assigned_at FROM sales_employees WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "today_count", "total_count", "last_assigned_at"}).
			AddRow(int64(42), int64(3), int64(17), at))

	counters, err := NewGormStore().Increment(context.Background(), db, snowflake.ID(42), at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counters.TodayCount)
	assert.Equal(t, int64(17), counters.TotalCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreIncrementUnknownEmployee(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE sales_employees`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewGormStore().Increment(context.Background(), db, snowflake.ID(404), at)
	assert.ErrorIs(t, err, ErrUnknownEmployee)
	require.NoError(t, mock.ExpectationsWereMet())
}
