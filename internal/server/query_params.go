package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// parseOptionalDate accepts a calendar date or an RFC 3339 timestamp and
// returns the UTC date.
func parseOptionalDate(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		y, m, d := parsed.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &date, nil
	}
	return nil, errors.New("invalid_date")
}

func parseDateField(field, value string) (*time.Time, error) {
	parsed, err := parseOptionalDate(value)
	if err != nil {
		return nil, newValidationError(field, "invalid_"+field, "expected a date in YYYY-MM-DD format")
	}
	return parsed, nil
}

func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
