package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsDay holds one owner's counters for one calendar day.
type AnalyticsDay struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:analytics_user_id_date_key" json:"user_id"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:analytics_user_id_date_key" json:"date"`
	TasksCreated   int       `gorm:"not null" json:"tasks_created"`
	TasksCompleted int       `gorm:"not null" json:"tasks_completed"`
	TasksCancelled int       `gorm:"not null" json:"tasks_cancelled"`
	FocusMinutes   int       `gorm:"not null" json:"focus_minutes"`
	StreakDays     int       `gorm:"not null" json:"streak_days"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AnalyticsDay) TableName() string { return "analytics" }

// Day truncates t to the UTC calendar day used as the analytics key.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
