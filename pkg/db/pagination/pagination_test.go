package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ id string }

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "1829"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "1829", cursor.ID)

	_, err = DecodeCursor("%%%")
	assert.Error(t, err)
}

func TestPaginationSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10_000}.Size())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Size())
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []*row{{"5"}, {"4"}, {"3"}}

	kept, info := BuildCursorPageInfo(rows, 2, func(r *row) string {
		token, _ := EncodeCursor(Cursor{ID: r.id})
		return token
	})
	require.Len(t, kept, 2)
	assert.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "4", cursor.ID)

	kept, info = BuildCursorPageInfo(rows, 5, func(r *row) string { return r.id })
	assert.Len(t, kept, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
