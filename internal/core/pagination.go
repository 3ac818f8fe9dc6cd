// AngelaMos | 2026
// pagination.go

package core

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

type PageParams struct {
	Page  int
	Limit int
}

func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func ParsePageParams(r *http.Request) PageParams {
	p := PageParams{
		Page:  QueryInt(r, "page", 1),
		Limit: QueryInt(r, "limit", DefaultPageLimit),
	}
	p.Normalize()
	return p
}

func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// QueryTime parses an RFC 3339 timestamp or a YYYY-MM-DD date. An absent
// parameter yields nil.
func QueryTime(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, val); err == nil {
			return &t, nil
		}
	}

	return nil, ValidationError(fmt.Sprintf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", key))
}

// FetchPage runs the count and page queries concurrently and joins them.
func FetchPage[T any](
	ctx context.Context,
	count func(ctx context.Context) (int, error),
	fetch func(ctx context.Context) ([]T, error),
) ([]T, int, error) {
	var (
		items []T
		total int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := count(gctx)
		if err != nil {
			return err
		}
		total = n
		return nil
	})

	g.Go(func() error {
		rows, err := fetch(gctx)
		if err != nil {
			return err
		}
		items = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if items == nil {
		items = []T{}
	}

	return items, total, nil
}
