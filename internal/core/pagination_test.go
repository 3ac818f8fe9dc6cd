// AngelaMos | 2026
// pagination_test.go

package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeta(t *testing.T) {
	tests := []struct {
		page, limit, total int
		wantPages          int
	}{
		{1, 10, 0, 0},
		{1, 10, 1, 1},
		{1, 10, 10, 1},
		{2, 10, 25, 3},
		{1, 0, 5, 0},
	}
	for _, tt := range tests {
		m := NewMeta(tt.page, tt.limit, tt.total)
		assert.Equal(t, tt.wantPages, m.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestParsePageParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?page=0&limit=500", nil)
	p := ParsePageParams(r)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageLimit, p.Limit)

	r = httptest.NewRequest("GET", "/x?page=3&limit=abc", nil)
	p = ParsePageParams(r)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, DefaultPageLimit, p.Limit)
	assert.Equal(t, 40, p.Offset())
}

func TestFetchPage(t *testing.T) {
	items, total, err := FetchPage(
		context.Background(),
		func(context.Context) (int, error) { return 0, nil },
		func(context.Context) ([]string, error) { return nil, nil },
	)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 0, total)

	boom := errors.New("boom")
	_, _, err = FetchPage(
		context.Background(),
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context) ([]string, error) { return []string{"a"}, nil },
	)
	assert.ErrorIs(t, err, boom)
}

func TestQueryTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-02T15:04:05Z&bad=yesterday", nil)

	from, err := QueryTime(req, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)

	to, err := QueryTime(req, "to")
	require.NoError(t, err)
	assert.Equal(t, 15, to.Hour())

	missing, err := QueryTime(req, "until")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = QueryTime(req, "bad")
	assert.Equal(t, http.StatusBadRequest, StatusFor(err))
}
