package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationInfo          = "info"
	NotificationTaskCompleted = "task_completed"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string     `gorm:"not null" json:"title"`
	Message   string     `gorm:"not null" json:"message"`
	Type      string     `gorm:"not null" json:"type"`
	IsRead    bool       `gorm:"not null" json:"is_read"`
	TaskID    *uuid.UUID `gorm:"type:uuid" json:"task_id"`
	CreatedAt time.Time  `json:"created_at"`
}
