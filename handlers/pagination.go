package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var errBadCursor = errors.New("before must be an RFC3339 timestamp")

// PageParams is the parsed ?limit=&before= pair. Before is exclusive.
type PageParams struct {
	Limit  int
	Before *time.Time
}

// Page is a newest-first slice of rows plus the cursor for the next call.
type Page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ParsePageParams falls back to the default size for a missing or
// non-positive limit and clamps large ones. A malformed cursor is an error.
func ParsePageParams(c *gin.Context) (PageParams, error) {
	p := PageParams{Limit: DefaultPageSize}

	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Limit = min(n, MaxPageSize)
		}
	}

	if raw := c.Query("before"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return p, errBadCursor
		}
		p.Before = &ts
	}
	return p, nil
}

// NewPage builds the response, taking the cursor from the last row.
func NewPage[T any](rows []T, hasMore bool, stamp func(T) time.Time) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	page := Page[T]{Data: rows, HasMore: hasMore}
	if hasMore && len(rows) > 0 {
		page.NextCursor = stamp(rows[len(rows)-1]).UTC().Format(time.RFC3339Nano)
	}
	return page
}
