// AngelaMos | 2026
// repository_test.go

package apikey

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var keyCols = []string{
	"id", "name", "key_prefix", "key_hash", "permissions", "tenant_id", "created_by",
	"is_active", "expires_at", "last_used_at", "created_at", "updated_at",
}

func TestGetByPrefix(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM api_keys WHERE key_prefix = $1")).
		WithArgs("gw_abc").
		WillReturnRows(sqlmock.NewRows(keyCols).AddRow(
			"k-1", "ingest", "gw_abc", "$argon2id$x", []byte(`["usage:write"]`), "t-a", "u-1",
			true, nil, nil, now, now,
		))

	key, err := repo.GetByPrefix(context.Background(), "gw_abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"usage:write"}, []string(key.Permissions))
	assert.Equal(t, "t-a", key.Tenant())
	assert.Nil(t, key.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByPrefixNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM api_keys WHERE key_prefix = $1")).
		WillReturnRows(sqlmock.NewRows(keyCols))

	_, err := repo.GetByPrefix(context.Background(), "gw_missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRevokeMissingKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SET is_active = FALSE")).
		WithArgs("k-404").
		WillReturnRows(sqlmock.NewRows(keyCols))

	_, err := repo.Revoke(context.Background(), "k-404")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersByTenantAndStatus(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM api_keys WHERE tenant_id = $1 AND is_active = $2")).
		WithArgs("t-a", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $3 OFFSET $4")).
		WithArgs("t-a", false, 20, 0).
		WillReturnRows(sqlmock.NewRows(keyCols).AddRow(
			"k-1", "old", "gw_old", "h", []byte(`[]`), "t-a", "u-1",
			false, nil, nil, now, now,
		))

	keys, total, err := repo.List(context.Background(),
		Filter{TenantID: "t-a", Status: StatusRevoked},
		core.PageParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, keys, 1)
	assert.False(t, keys[0].IsActive)

	_, _, err = repo.List(context.Background(), Filter{Status: "paused"}, core.PageParams{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
