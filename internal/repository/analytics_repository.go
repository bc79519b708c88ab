package repository

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Counter columns of the analytics table.
const (
	colTasksCreated   = "tasks_created"
	colTasksCompleted = "tasks_completed"
	colTasksCancelled = "tasks_cancelled"
	colFocusMinutes   = "focus_minutes"
)

// AnalyticsSummary aggregates an owner's analytics rows over a window.
type AnalyticsSummary struct {
	Days           int `json:"days"`
	TasksCreated   int `json:"tasks_created"`
	TasksCompleted int `json:"tasks_completed"`
	TasksCancelled int `json:"tasks_cancelled"`
	FocusMinutes   int `json:"focus_minutes"`
	BestStreak     int `json:"best_streak"`
}

type AnalyticsRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type AnalyticsRepositoryInterface interface {
	List(ctx context.Context, p policy.Principal, from, to time.Time) ([]model.AnalyticsDay, error)
	Summary(ctx context.Context, p policy.Principal, since time.Time) (*AnalyticsSummary, error)
	CreateDay(ctx context.Context, p policy.Principal, day *model.AnalyticsDay) error
	AddFocus(ctx context.Context, p policy.Principal, at time.Time, minutes int) (*model.AnalyticsDay, error)
}

var _ AnalyticsRepositoryInterface = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(db *gorm.DB, guard *policy.Guard) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, guard: guard}
}

// List returns the requester's days in [from, to], oldest first.
func (r *AnalyticsRepository) List(ctx context.Context, p policy.Principal, from, to time.Time) ([]model.AnalyticsDay, error) {
	var days []model.AnalyticsDay
	err := asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Scopes(policy.Filter(policy.Analytics, p, policy.ReachOwned)).
			Where("date BETWEEN ? AND ?", model.Day(from), model.Day(to)).
			Order("date").
			Find(&days).Error
	})
	return days, err
}

func (r *AnalyticsRepository) Summary(ctx context.Context, p policy.Principal, since time.Time) (*AnalyticsSummary, error) {
	query, args, err := sq.Select(
		"COUNT(*) AS days",
		"COALESCE(SUM(tasks_created), 0) AS tasks_created",
		"COALESCE(SUM(tasks_completed), 0) AS tasks_completed",
		"COALESCE(SUM(tasks_cancelled), 0) AS tasks_cancelled",
		"COALESCE(SUM(focus_minutes), 0) AS focus_minutes",
		"COALESCE(MAX(streak_days), 0) AS best_streak",
	).
		From("analytics").
		Where(sq.Eq{"user_id": p.UserID}).
		Where(sq.GtOrEq{"date": model.Day(since)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary query: %w", err)
	}

	var summary AnalyticsSummary
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Raw(query, args...).Scan(&summary).Error
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// CreateDay inserts a full day row. A second row for the same date fails
// with ErrConflict.
func (r *AnalyticsRepository) CreateDay(ctx context.Context, p policy.Principal, day *model.AnalyticsDay) error {
	if err := r.guard.CheckInsert(ctx, policy.Analytics, p, day.UserID); err != nil {
		return err
	}
	day.Date = model.Day(day.Date)

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Create(day).Error
	})
}

// AddFocus adds minutes to the requester's row for the day of at, creating
// the row when needed.
func (r *AnalyticsRepository) AddFocus(ctx context.Context, p policy.Principal, at time.Time, minutes int) (*model.AnalyticsDay, error) {
	if minutes <= 0 {
		return nil, ErrInvalidArgument
	}
	if err := r.guard.CheckInsert(ctx, policy.Analytics, p, p.UserID); err != nil {
		return nil, err
	}

	var day model.AnalyticsDay
	err := asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := bumpCounter(tx, p.UserID, at, colFocusMinutes, minutes); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND date = ?", p.UserID, model.Day(at)).First(&day).Error
	})
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// bumpCounter adds n to column on the owner's row for the day of at. A
// completion also carries the streak forward from the previous day.
func bumpCounter(tx *gorm.DB, userID uuid.UUID, at time.Time, column string, n int) error {
	day := model.Day(at)

	streak := sq.Expr("0")
	if column == colTasksCompleted {
		streak = sq.Expr(
			"COALESCE((SELECT a.streak_days FROM analytics a WHERE a.user_id = ? AND a.date = ? AND a.tasks_completed > 0), 0) + 1",
			userID, day.AddDate(0, 0, -1),
		)
	}

	query, args, err := sq.Insert("analytics").
		Columns("user_id", "date", column, "streak_days").
		Values(userID, day, n, streak).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (user_id, date) DO UPDATE SET %[1]s = analytics.%[1]s + EXCLUDED.%[1]s, "+
				"streak_days = GREATEST(analytics.streak_days, EXCLUDED.streak_days)",
			column,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s upsert: %w", column, err)
	}
	return tx.Exec(query, args...).Error
}
