package repository

import (
	"context"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"gorm.io/gorm"
)

// PlatformStats is the admin dashboard aggregate.
type PlatformStats struct {
	Users         int64                      `json:"users"`
	Categories    int64                      `json:"categories"`
	Tasks         int64                      `json:"tasks"`
	TasksByStatus map[model.TaskStatus]int64 `json:"tasks_by_status"`
	FocusMinutes  int64                      `json:"focus_minutes"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}

// StatsRepository reads across owners and is only usable by principals
// whose admin-read grants reach every row.
type StatsRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type StatsRepositoryInterface interface {
	Authorize(ctx context.Context, p policy.Principal) error
	Platform(ctx context.Context, p policy.Principal) (*PlatformStats, error)
}

var _ StatsRepositoryInterface = (*StatsRepository)(nil)

func NewStatsRepository(db *gorm.DB, guard *policy.Guard) *StatsRepository {
	return &StatsRepository{db: db, guard: guard}
}

// Authorize reports ErrPermissionDenied unless p may read all tasks.
func (r *StatsRepository) Authorize(ctx context.Context, p policy.Principal) error {
	reach, err := r.guard.Reach(ctx, policy.Tasks, p, policy.Select)
	if err != nil {
		return err
	}
	if reach != policy.ReachAll {
		return ErrPermissionDenied
	}
	return nil
}

func (r *StatsRepository) Platform(ctx context.Context, p policy.Principal) (*PlatformStats, error) {
	if err := r.Authorize(ctx, p); err != nil {
		return nil, err
	}

	profiles, err := r.guard.Scope(ctx, policy.Profiles, p, policy.Select)
	if err != nil {
		return nil, err
	}
	categories, err := r.guard.Scope(ctx, policy.Categories, p, policy.Select)
	if err != nil {
		return nil, err
	}
	analytics, err := r.guard.Scope(ctx, policy.Analytics, p, policy.Select)
	if err != nil {
		return nil, err
	}
	tasks := policy.Filter(policy.Tasks, p, policy.ReachAll)

	stats := &PlatformStats{TasksByStatus: map[model.TaskStatus]int64{}}
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := tx.Model(&model.Profile{}).Scopes(profiles).Count(&stats.Users).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Category{}).Scopes(categories).Count(&stats.Categories).Error; err != nil {
			return err
		}

		var byStatus []struct {
			Status model.TaskStatus
			N      int64
		}
		if err := tx.Model(&model.Task{}).Scopes(tasks).Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
			return err
		}
		for _, row := range byStatus {
			stats.TasksByStatus[row.Status] = row.N
			stats.Tasks += row.N
		}

		return tx.Model(&model.AnalyticsDay{}).Scopes(analytics).
			Select("COALESCE(SUM(focus_minutes), 0)").
			Scan(&stats.FocusMinutes).Error
	})
	if err != nil {
		return nil, err
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}
