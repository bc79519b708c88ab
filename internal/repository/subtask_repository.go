package repository

import (
	"context"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubtaskChanges struct {
	Title       *string
	IsCompleted *bool
	SortOrder   *int
}

func (c SubtaskChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.IsCompleted != nil {
		cols["is_completed"] = *c.IsCompleted
	}
	if c.SortOrder != nil {
		cols["sort_order"] = *c.SortOrder
	}
	return cols
}

type SubtaskRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type SubtaskRepositoryInterface interface {
	ListByTask(ctx context.Context, p policy.Principal, taskID uuid.UUID) ([]model.Subtask, error)
	Create(ctx context.Context, p policy.Principal, subtask *model.Subtask) error
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes SubtaskChanges) (*model.Subtask, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

var _ SubtaskRepositoryInterface = (*SubtaskRepository)(nil)

func NewSubtaskRepository(db *gorm.DB, guard *policy.Guard) *SubtaskRepository {
	return &SubtaskRepository{db: db, guard: guard}
}

// ListByTask returns the subtasks of a task the requester can see. An
// unknown or hidden task is ErrNotFound.
func (r *SubtaskRepository) ListByTask(ctx context.Context, p policy.Principal, taskID uuid.UUID) ([]model.Subtask, error) {
	taskScope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Select)
	if err != nil {
		return nil, err
	}
	scope, err := r.guard.Scope(ctx, policy.Subtasks, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var subtasks []model.Subtask
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := taskExists(tx, taskScope, taskID); err != nil {
			return err
		}
		return tx.Scopes(scope).Where("task_id = ?", taskID).Order("sort_order").Order("created_at").Find(&subtasks).Error
	})
	return subtasks, err
}

// Create attaches a subtask to a task the requester owns.
func (r *SubtaskRepository) Create(ctx context.Context, p policy.Principal, subtask *model.Subtask) error {
	if err := r.guard.CheckInsert(ctx, policy.Subtasks, p, subtask.UserID); err != nil {
		return err
	}
	taskScope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Update)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := taskExists(tx, taskScope, subtask.TaskID); err != nil {
			return err
		}
		return tx.Create(subtask).Error
	})
}

func (r *SubtaskRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes SubtaskChanges) (*model.Subtask, error) {
	cols := changes.columns()
	scope, err := r.guard.Scope(ctx, policy.Subtasks, p, policy.Update)
	if err != nil {
		return nil, err
	}

	var subtask model.Subtask
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if len(cols) == 0 {
			return byID(tx, scope, &subtask, id)
		}
		res := tx.Model(&subtask).Clauses(clause.Returning{}).
			Scopes(scope).
			Where("id = ?", id).
			Updates(cols)
		return affected(res)
	})
	if err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	scope, err := r.guard.Scope(ctx, policy.Subtasks, p, policy.Delete)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return affected(tx.Scopes(scope).Delete(&model.Subtask{}, "id = ?", id))
	})
}

// taskExists reports ErrNotFound unless the task is within scope.
func taskExists(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, taskID uuid.UUID) error {
	var n int64
	if err := tx.Model(&model.Task{}).Scopes(scope).Where("id = ?", taskID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
