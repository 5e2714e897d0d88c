package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// listQuery is the cursor pagination shared by every list endpoint.
type listQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// bindBoolQuery reads an optional boolean query parameter and aborts the request when it is malformed.
func bindBoolQuery(c *gin.Context, key string) (*bool, bool) {
	value, err := parseOptionalBool(c.Query(key))
	if err != nil {
		AbortWithError(c, newValidationError(key, "invalid_"+key, "invalid "+key))
		return nil, false
	}
	return value, true
}
