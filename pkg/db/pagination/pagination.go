package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Cursor points at the last row of the previous page. Rows are ordered by id descending.
type Cursor struct {
	ID string `json:"id,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func (p Pagination) Size() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// Apply narrows stmt to the requested page. It fetches one extra row so callers can detect HasMore.
func (p Pagination) Apply(stmt *gorm.DB) (*gorm.DB, error) {
	if token := strings.TrimSpace(p.PageToken); token != "" {
		cursor, err := DecodeCursor(token)
		if err != nil || cursor.ID == "" {
			return nil, ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, ErrInvalidPageToken
		}
		stmt = stmt.Where("id < ?", id)
	}
	return stmt.Order("id desc").Limit(p.Size() + 1), nil
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// BuildCursorPageInfo trims data to limit and derives the next page token from the last kept row.
func BuildCursorPageInfo[T any](data []*T, limit int, extractCursor func(*T) string) ([]*T, PageInfo) {
	if len(data) == 0 {
		return data, PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > limit {
		hasMore = true
		data = data[:limit]
	}

	info := PageInfo{HasMore: hasMore}
	if hasMore {
		info.NextPageToken = extractCursor(data[len(data)-1])
	}
	return data, info
}
