package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Task struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  *uuid.UUID     `gorm:"type:uuid;index" json:"category_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description *string        `json:"description"`
	Status      TaskStatus     `gorm:"type:task_status;not null" json:"status"`
	Priority    TaskPriority   `gorm:"type:task_priority;not null" json:"priority"`
	DueDate     *time.Time     `json:"due_date"`
	CompletedAt *time.Time     `json:"completed_at"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	IsStarred   bool           `gorm:"not null" json:"is_starred"`
	SortOrder   int            `gorm:"not null" json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// StampCompletion keeps CompletedAt in step with Status: it is set when the
// task becomes completed and cleared when it leaves that state.
func (t *Task) StampCompletion(now time.Time) {
	if t.Status == StatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}

type Subtask struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Title       string    `gorm:"not null" json:"title"`
	IsCompleted bool      `gorm:"not null" json:"is_completed"`
	SortOrder   int       `gorm:"not null" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Reminder struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	RemindAt  time.Time `gorm:"not null" json:"remind_at"`
	IsSent    bool      `gorm:"not null" json:"is_sent"`
	Message   *string   `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
