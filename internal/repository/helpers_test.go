package repository_test

import (
	"context"
	"testing"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

// fakeRoles grants admin to the listed users.
type fakeRoles map[uuid.UUID]bool

func (f fakeRoles) HasRole(_ context.Context, userID uuid.UUID, role model.AppRole) (bool, error) {
	return role == model.RoleAdmin && f[userID], nil
}

func newGuard(admins ...uuid.UUID) *policy.Guard {
	roles := fakeRoles{}
	for _, id := range admins {
		roles[id] = true
	}
	return policy.NewGuard(roles)
}

// expectSession expects the transaction prologue every scoped call runs.
func expectSession(mock sqlmock.Sqlmock, userID uuid.UUID) {
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT set_config\('app.current_user_id', .*, true\)`).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}
