package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type NotificationRepositoryInterface interface {
	List(ctx context.Context, p policy.Principal, unreadOnly bool, limit, offset int) ([]model.Notification, error)
	Create(ctx context.Context, p policy.Principal, n *model.Notification) error
	MarkRead(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, p policy.Principal) (int64, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB, guard *policy.Guard) *NotificationRepository {
	return &NotificationRepository{db: db, guard: guard}
}

func (r *NotificationRepository) List(ctx context.Context, p policy.Principal, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	scope, err := r.guard.Scope(ctx, policy.Notifications, p, policy.Select)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var notifications []model.Notification
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		q := tx.Scopes(scope)
		if unreadOnly {
			q = q.Where("is_read = ?", false)
		}
		return q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	})
	return notifications, err
}

func (r *NotificationRepository) Create(ctx context.Context, p policy.Principal, n *model.Notification) error {
	if n.Type == "" {
		n.Type = model.NotificationInfo
	}
	if err := r.guard.CheckInsert(ctx, policy.Notifications, p, n.UserID); err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if n.TaskID != nil {
			taskScope := policy.Filter(policy.Tasks, p, policy.ReachOwned)
			err := taskExists(tx, taskScope, *n.TaskID)
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidReference
			}
			if err != nil {
				return err
			}
		}
		return tx.Create(n).Error
	})
}

func (r *NotificationRepository) MarkRead(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Notification, error) {
	scope, err := r.guard.Scope(ctx, policy.Notifications, p, policy.Update)
	if err != nil {
		return nil, err
	}

	var n model.Notification
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		res := tx.Model(&n).Clauses(clause.Returning{}).
			Scopes(scope).
			Where("id = ?", id).
			Update("is_read", true)
		return affected(res)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the requester and returns
// how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, p policy.Principal) (int64, error) {
	scope, err := r.guard.Scope(ctx, policy.Notifications, p, policy.Update)
	if err != nil {
		return 0, err
	}

	var n int64
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		res := tx.Model(&model.Notification{}).Scopes(scope).Where("is_read = ?", false).Update("is_read", true)
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (r *NotificationRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	scope, err := r.guard.Scope(ctx, policy.Notifications, p, policy.Delete)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return affected(tx.Scopes(scope).Delete(&model.Notification{}, "id = ?", id))
	})
}
