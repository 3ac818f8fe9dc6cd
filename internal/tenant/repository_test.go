// AngelaMos | 2026
// repository_test.go

package tenant

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestSetOwnerMovesRoleInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM tenants WHERE id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("u-old"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT tenant_id, is_active FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("u-new").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "is_active"}).AddRow("t-1", true))
	mock.ExpectExec(regexp.QuoteMeta("roles - 'tenant_owner'")).
		WithArgs("u-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("jsonb_build_array($2::text)")).
		WithArgs("u-new", authz.RoleTenantOwner, "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tenants SET owner_id = $2")).
		WithArgs("t-1", "u-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetOwner(context.Background(), "t-1", "u-new", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOwnerRollsBackOnForeignUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tenants WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("u-old"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "is_active"}).AddRow("t-2", true))
	mock.ExpectRollback()

	err := repo.SetOwner(context.Background(), "t-1", "u-other", false)
	assert.Equal(t, http.StatusForbidden, core.StatusFor(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOwnerAdoptsTenantlessUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tenants WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "is_active"}).AddRow(nil, true))
	mock.ExpectExec(regexp.QuoteMeta("jsonb_build_array($2::text)")).
		WithArgs("u-new", authz.RoleTenantOwner, "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tenants SET owner_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetOwner(context.Background(), "t-1", "u-new", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE tenants SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3")).
		WithArgs(authz.TenantStatusSuspended, "t-1", authz.TenantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.SetStatus(context.Background(), "t-1", authz.TenantStatusActive, authz.TenantStatusSuspended)
	assert.Equal(t, http.StatusConflict, core.StatusFor(err))
}

func TestCreateDuplicateDomain(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tenants")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tenants")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &Tenant{Name: "Acme", Domain: "acme.test"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	err = repo.Create(context.Background(), &Tenant{Name: "Acme", Domain: "acme.test"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrDuplicateKey)
}
