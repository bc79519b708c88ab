package repository_test

import (
	"context"
	"errors"
	"testing"

	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNotificationRepository_Create_DefaultType(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB, newGuard())

	u1 := uuid.New()
	n := &model.Notification{UserID: u1, Title: "Hi", Message: "Welcome"}

	expectSession(mock, u1)
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WithArgs(u1, "Hi", "Welcome", model.NotificationInfo, false, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), policy.Principal{UserID: u1}, n)

	assert.NoError(t, err)
	assert.Equal(t, model.NotificationInfo, n.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Create_ForAnotherUserDenied(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	admin := uuid.New()
	repo := repository.NewNotificationRepository(gormDB, newGuard(admin))

	err := repo.Create(context.Background(), policy.Principal{UserID: admin},
		&model.Notification{UserID: uuid.New(), Title: "x", Message: "y"})

	assert.ErrorIs(t, err, repository.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB, newGuard())

	u1 := uuid.New()
	expectSession(mock, u1)
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE is_read = \$2 AND notifications.user_id = \$3`).
		WithArgs(true, false, u1).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.MarkAllRead(context.Background(), policy.Principal{UserID: u1})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkRead_NotVisible(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB, newGuard())

	u2 := uuid.New()
	expectSession(mock, u2)
	mock.ExpectQuery(`UPDATE "notifications" SET "is_read"=\$1 WHERE .* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	n, err := repo.MarkRead(context.Background(), policy.Principal{UserID: u2}, uuid.New())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Create_TaskReference(t *testing.T) {
	u1 := uuid.New()
	taskID := uuid.New()
	countTask := `SELECT count\(\*\) FROM "tasks" WHERE id = \$1 AND tasks.user_id = \$2`

	t.Run("missing task", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewNotificationRepository(gormDB, newGuard())

		expectSession(mock, u1)
		mock.ExpectQuery(countTask).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), policy.Principal{UserID: u1},
			&model.Notification{UserID: u1, TaskID: &taskID, Title: "x", Message: "y"})

		assert.ErrorIs(t, err, repository.ErrInvalidReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup failure", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewNotificationRepository(gormDB, newGuard())

		expectSession(mock, u1)
		mock.ExpectQuery(countTask).
			WillReturnError(errors.New("connection reset by peer"))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), policy.Principal{UserID: u1},
			&model.Notification{UserID: u1, TaskID: &taskID, Title: "x", Message: "y"})

		assert.ErrorContains(t, err, "connection reset by peer")
		assert.NotErrorIs(t, err, repository.ErrInvalidReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
