package repository

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTaskPage = 200

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Status     model.TaskStatus
	Priority   model.TaskPriority
	CategoryID *uuid.UUID
	Starred    *bool
	Tag        string
	Search     string
	Limit      int
	Offset     int
}

// TaskChanges carries the editable task fields; nil means unchanged.
type TaskChanges struct {
	Title         *string
	Description   *string
	CategoryID    *uuid.UUID
	ClearCategory bool
	Status        *model.TaskStatus
	Priority      *model.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	Tags          []string
	IsStarred     *bool
	SortOrder     *int
}

type TaskRepository struct {
	db    *gorm.DB
	guard *policy.Guard
	now   func() time.Time
}

type TaskRepositoryInterface interface {
	List(ctx context.Context, p policy.Principal, filter TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, p policy.Principal, task *model.Task) error
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes TaskChanges) (*model.Task, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB, guard *policy.Guard) *TaskRepository {
	return &TaskRepository{db: db, guard: guard, now: time.Now}
}

// List returns the requester's tasks ordered by sort_order, newest first
// within equal positions.
func (r *TaskRepository) List(ctx context.Context, p policy.Principal, filter TaskFilter) ([]model.Task, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxTaskPage {
		limit = maxTaskPage
	}

	var tasks []model.Task
	err := asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		q := tx.Scopes(policy.Filter(policy.Tasks, p, policy.ReachOwned))
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		if filter.CategoryID != nil {
			q = q.Where("category_id = ?", *filter.CategoryID)
		}
		if filter.Starred != nil {
			q = q.Where("is_starred = ?", *filter.Starred)
		}
		if filter.Tag != "" {
			q = q.Where("? = ANY(tags)", filter.Tag)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("(title ILIKE ? OR description ILIKE ?)", like, like)
		}
		return q.Order("sort_order").Order("created_at DESC").
			Limit(limit).Offset(filter.Offset).
			Find(&tasks).Error
	})
	return tasks, err
}

func (r *TaskRepository) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Task, error) {
	scope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var task model.Task
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return byID(tx, scope, &task, id)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Create stores a task owned by task.UserID and counts it in the owner's
// analytics for today.
func (r *TaskRepository) Create(ctx context.Context, p policy.Principal, task *model.Task) error {
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if !task.Status.Valid() || !task.Priority.Valid() {
		return ErrInvalidArgument
	}
	if task.Tags == nil {
		task.Tags = pq.StringArray{}
	}
	if err := r.guard.CheckInsert(ctx, policy.Tasks, p, task.UserID); err != nil {
		return err
	}

	now := r.now().UTC()
	task.StampCompletion(now)

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if task.CategoryID != nil {
			if err := ownCategory(tx, p, *task.CategoryID); err != nil {
				return err
			}
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if err := bumpCounter(tx, task.UserID, now, colTasksCreated, 1); err != nil {
			return err
		}
		return r.afterTransition(tx, task, "", now)
	})
}

// Update applies changes to a task the requester owns. Status transitions
// keep completed_at in step, and a task reaching completed or cancelled is
// counted in analytics; completion also notifies the owner.
func (r *TaskRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes TaskChanges) (*model.Task, error) {
	if changes.Status != nil && !changes.Status.Valid() {
		return nil, ErrInvalidArgument
	}
	if changes.Priority != nil && !changes.Priority.Valid() {
		return nil, ErrInvalidArgument
	}

	scope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Update)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	var task model.Task
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Scopes(scope).First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		if changes.CategoryID != nil {
			if err := ownCategory(tx, p, *changes.CategoryID); err != nil {
				return err
			}
		}

		prev := task.Status
		cols := r.columns(&task, changes, now)
		if len(cols) == 0 {
			return nil
		}
		res := tx.Model(&task).Clauses(clause.Returning{}).Scopes(scope).Updates(cols)
		if err := affected(res); err != nil {
			return err
		}
		return r.afterTransition(tx, &task, prev, now)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes the task. Subtasks and reminders go with it; notifications
// keep their row with task_id cleared.
func (r *TaskRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	scope, err := r.guard.Scope(ctx, policy.Tasks, p, policy.Delete)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return affected(tx.Scopes(scope).Delete(&model.Task{}, "id = ?", id))
	})
}

// columns computes the update set for changes against the current row.
// updated_at is left to the database trigger.
func (r *TaskRepository) columns(task *model.Task, changes TaskChanges, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{}
	if changes.Title != nil {
		cols["title"] = *changes.Title
	}
	if changes.Description != nil {
		cols["description"] = *changes.Description
	}
	if changes.ClearCategory {
		cols["category_id"] = nil
	} else if changes.CategoryID != nil {
		cols["category_id"] = *changes.CategoryID
	}
	if changes.Priority != nil {
		cols["priority"] = *changes.Priority
	}
	if changes.ClearDueDate {
		cols["due_date"] = nil
	} else if changes.DueDate != nil {
		cols["due_date"] = *changes.DueDate
	}
	if changes.Tags != nil {
		cols["tags"] = pq.StringArray(changes.Tags)
	}
	if changes.IsStarred != nil {
		cols["is_starred"] = *changes.IsStarred
	}
	if changes.SortOrder != nil {
		cols["sort_order"] = *changes.SortOrder
	}
	if changes.Status != nil && *changes.Status != task.Status {
		next := model.Task{Status: *changes.Status, CompletedAt: task.CompletedAt}
		next.StampCompletion(now)
		cols["status"] = next.Status
		cols["completed_at"] = next.CompletedAt
	}
	return cols
}

func (r *TaskRepository) afterTransition(tx *gorm.DB, task *model.Task, prev model.TaskStatus, now time.Time) error {
	if task.Status == prev {
		return nil
	}

	switch task.Status {
	case model.StatusCompleted:
		if err := bumpCounter(tx, task.UserID, now, colTasksCompleted, 1); err != nil {
			return err
		}
		taskID := task.ID
		return tx.Create(&model.Notification{
			UserID:  task.UserID,
			Title:   "Task completed",
			Message: fmt.Sprintf("You completed %q", task.Title),
			Type:    model.NotificationTaskCompleted,
			TaskID:  &taskID,
		}).Error
	case model.StatusCancelled:
		return bumpCounter(tx, task.UserID, now, colTasksCancelled, 1)
	}
	return nil
}

// ownCategory rejects a category the requester does not own.
func ownCategory(tx *gorm.DB, p policy.Principal, id uuid.UUID) error {
	var n int64
	err := tx.Model(&model.Category{}).
		Scopes(policy.Filter(policy.Categories, p, policy.ReachOwned)).
		Where("id = ?", id).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidReference
	}
	return nil
}
