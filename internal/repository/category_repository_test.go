package repository_test

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categoryColumns = []string{"id", "user_id", "name", "color", "icon", "created_at", "updated_at"}

func TestCategoryRepository_Create_DefaultsAndOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB, newGuard())

	u1 := uuid.New()
	id := uuid.New()
	category := &model.Category{UserID: u1, Name: "Work"}

	expectSession(mock, u1)
	mock.ExpectQuery(`INSERT INTO "categories"`).
		WithArgs(u1, "Work", model.DefaultCategoryColor, model.DefaultCategoryIcon, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), policy.Principal{UserID: u1}, category)

	assert.NoError(t, err)
	assert.Equal(t, id, category.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Create_ForAnotherOwnerIsDenied(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB, newGuard())

	err := repo.Create(context.Background(),
		policy.Principal{UserID: uuid.New()},
		&model.Category{UserID: uuid.New(), Name: "Work", Color: "#f9a8d4"},
	)

	assert.ErrorIs(t, err, repository.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_List_OnlyOwnRows(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB, newGuard())

	u2 := uuid.New()
	expectSession(mock, u2)
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE categories.user_id = \$1 ORDER BY name`).
		WithArgs(u2).
		WillReturnRows(sqlmock.NewRows(categoryColumns))
	mock.ExpectCommit()

	categories, err := repo.List(context.Background(), policy.Principal{UserID: u2})

	assert.NoError(t, err)
	assert.Empty(t, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Get_AdminReadsAny(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	admin := uuid.New()
	repo := repository.NewCategoryRepository(gormDB, newGuard(admin))

	id := uuid.New()
	owner := uuid.New()
	now := time.Now()

	expectSession(mock, admin)
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(categoryColumns).
			AddRow(id.String(), owner.String(), "Work", "#f9a8d4", "folder", now, now))
	mock.ExpectCommit()

	category, err := repo.Get(context.Background(), policy.Principal{UserID: admin}, id)

	require.NoError(t, err)
	assert.Equal(t, owner, category.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Update_NotVisible(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB, newGuard())

	u1 := uuid.New()
	name := "Home"

	expectSession(mock, u1)
	mock.ExpectQuery(`UPDATE "categories" SET .* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(categoryColumns))
	mock.ExpectRollback()

	category, err := repo.Update(context.Background(), policy.Principal{UserID: u1}, uuid.New(),
		repository.CategoryChanges{Name: &name})

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Delete(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB, newGuard())

	u1 := uuid.New()
	id := uuid.New()

	expectSession(mock, u1)
	mock.ExpectExec(`DELETE FROM "categories" WHERE .*categories.user_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), policy.Principal{UserID: u1}, id)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
