package repository

import (
	"context"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReminderChanges struct {
	RemindAt *time.Time
	IsSent   *bool
	Message  *string
}

type ReminderRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type ReminderRepositoryInterface interface {
	ListByTask(ctx context.Context, p policy.Principal, taskID uuid.UUID) ([]model.Reminder, error)
	Upcoming(ctx context.Context, p policy.Principal, limit int) ([]model.Reminder, error)
	Create(ctx context.Context, p policy.Principal, reminder *model.Reminder) error
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes ReminderChanges) (*model.Reminder, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

var _ ReminderRepositoryInterface = (*ReminderRepository)(nil)

func NewReminderRepository(db *gorm.DB, guard *policy.Guard) *ReminderRepository {
	return &ReminderRepository{db: db, guard: guard}
}

func (r *ReminderRepository) ListByTask(ctx context.Context, p policy.Principal, taskID uuid.UUID) ([]model.Reminder, error) {
	taskScope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Select)
	if err != nil {
		return nil, err
	}
	scope, err := r.guard.Scope(ctx, policy.Reminders, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var reminders []model.Reminder
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := taskExists(tx, taskScope, taskID); err != nil {
			return err
		}
		return tx.Scopes(scope).Where("task_id = ?", taskID).Order("remind_at").Find(&reminders).Error
	})
	return reminders, err
}

// Upcoming returns the requester's unsent reminders, soonest first.
func (r *ReminderRepository) Upcoming(ctx context.Context, p policy.Principal, limit int) ([]model.Reminder, error) {
	scope, err := r.guard.Scope(ctx, policy.Reminders, p, policy.Select)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var reminders []model.Reminder
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Scopes(scope).Where("is_sent = ?", false).Order("remind_at").Limit(limit).Find(&reminders).Error
	})
	return reminders, err
}

func (r *ReminderRepository) Create(ctx context.Context, p policy.Principal, reminder *model.Reminder) error {
	if err := r.guard.CheckInsert(ctx, policy.Reminders, p, reminder.UserID); err != nil {
		return err
	}
	taskScope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Update)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := taskExists(tx, taskScope, reminder.TaskID); err != nil {
			return err
		}
		return tx.Create(reminder).Error
	})
}

// Update edits a reminder. is_sent only moves from false to true.
func (r *ReminderRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes ReminderChanges) (*model.Reminder, error) {
	scope, err := r.guard.Scope(ctx, policy.Reminders, p, policy.Update)
	if err != nil {
		return nil, err
	}

	var reminder model.Reminder
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Scopes(scope).First(&reminder, "id = ?", id).Error; err != nil {
			return err
		}
		if reminder.IsSent && changes.IsSent != nil && !*changes.IsSent {
			return ErrInvalidArgument
		}

		cols := map[string]interface{}{}
		if changes.RemindAt != nil {
			cols["remind_at"] = *changes.RemindAt
		}
		if changes.IsSent != nil {
			cols["is_sent"] = *changes.IsSent
		}
		if changes.Message != nil {
			cols["message"] = *changes.Message
		}
		if len(cols) == 0 {
			return nil
		}
		return affected(tx.Model(&reminder).Clauses(clause.Returning{}).Scopes(scope).Updates(cols))
	})
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	scope, err := r.guard.Scope(ctx, policy.Reminders, p, policy.Delete)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return affected(tx.Scopes(scope).Delete(&model.Reminder{}, "id = ?", id))
	})
}
