package db

import (
	"testing"

	"github.com/smallbiznis/salesdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	cases := []struct {
		dbType string
		want   string
	}{
		{dbType: "postgres", want: "postgres"},
		{dbType: "mysql", want: "mysql"},
		{dbType: "sqlite", want: "sqlite"},
	}
	for _, tc := range cases {
		t.Run(tc.dbType, func(t *testing.T) {
			dialector, err := Dialect(config.Config{DBType: tc.dbType, DBPath: ":memory:"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, dialector.Name())
		})
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLiteWithoutInstrumentation(t *testing.T) {
	conn, err := Open(config.Config{DBType: "sqlite", DBPath: "file:dbtest?mode=memory&cache=shared"}, false)
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}
