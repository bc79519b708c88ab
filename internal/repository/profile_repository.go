package repository

import (
	"context"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileChanges carries the editable profile fields; nil means unchanged.
type ProfileChanges struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
}

func (c ProfileChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.DisplayName != nil {
		cols["display_name"] = *c.DisplayName
	}
	if c.AvatarURL != nil {
		cols["avatar_url"] = *c.AvatarURL
	}
	if c.Bio != nil {
		cols["bio"] = *c.Bio
	}
	return cols
}

type ProfileRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type ProfileRepositoryInterface interface {
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Profile, error)
	List(ctx context.Context, p policy.Principal, limit, offset int) ([]model.Profile, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes ProfileChanges) (*model.Profile, error)
}

var _ ProfileRepositoryInterface = (*ProfileRepository)(nil)

func NewProfileRepository(db *gorm.DB, guard *policy.Guard) *ProfileRepository {
	return &ProfileRepository{db: db, guard: guard}
}

func (r *ProfileRepository) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Profile, error) {
	scope, err := r.guard.Scope(ctx, policy.Profiles, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var profile model.Profile
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return byID(tx, scope, &profile, id)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns every visible profile, newest first: all of them for an
// admin, the requester's own otherwise.
func (r *ProfileRepository) List(ctx context.Context, p policy.Principal, limit, offset int) ([]model.Profile, error) {
	scope, err := r.guard.Scope(ctx, policy.Profiles, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var profiles []model.Profile
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Scopes(scope).Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error
	})
	return profiles, err
}

func (r *ProfileRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes ProfileChanges) (*model.Profile, error) {
	cols := changes.columns()
	if len(cols) == 0 {
		return r.Get(ctx, p, id)
	}

	scope, err := r.guard.Scope(ctx, policy.Profiles, p, policy.Update)
	if err != nil {
		return nil, err
	}

	var profile model.Profile
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		res := tx.Model(&profile).Clauses(clause.Returning{}).
			Scopes(scope).
			Where("id = ?", id).
			Updates(cols)
		return affected(res)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
