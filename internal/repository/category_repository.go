package repository

import (
	"context"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryChanges struct {
	Name  *string
	Color *string
	Icon  *string
}

func (c CategoryChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Color != nil {
		cols["color"] = *c.Color
	}
	if c.Icon != nil {
		cols["icon"] = *c.Icon
	}
	return cols
}

type CategoryRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type CategoryRepositoryInterface interface {
	List(ctx context.Context, p policy.Principal) ([]model.Category, error)
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, p policy.Principal, category *model.Category) error
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes CategoryChanges) (*model.Category, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

var _ CategoryRepositoryInterface = (*CategoryRepository)(nil)

func NewCategoryRepository(db *gorm.DB, guard *policy.Guard) *CategoryRepository {
	return &CategoryRepository{db: db, guard: guard}
}

// List returns the requester's categories by name. Admins read everyone's
// through the admin surface, not here.
func (r *CategoryRepository) List(ctx context.Context, p policy.Principal) ([]model.Category, error) {
	var categories []model.Category
	err := asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Scopes(policy.Filter(policy.Categories, p, policy.ReachOwned)).
			Order("name").
			Find(&categories).Error
	})
	return categories, err
}

func (r *CategoryRepository) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Category, error) {
	scope, err := r.guard.Scope(ctx, policy.Categories, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var category model.Category
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return byID(tx, scope, &category, id)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, p policy.Principal, category *model.Category) error {
	if category.Color == "" {
		category.Color = model.DefaultCategoryColor
	}
	if category.Icon == "" {
		category.Icon = model.DefaultCategoryIcon
	}
	if err := r.guard.CheckInsert(ctx, policy.Categories, p, category.UserID); err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Create(category).Error
	})
}

func (r *CategoryRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes CategoryChanges) (*model.Category, error) {
	cols := changes.columns()
	if len(cols) == 0 {
		return r.Get(ctx, p, id)
	}

	scope, err := r.guard.Scope(ctx, policy.Categories, p, policy.Update)
	if err != nil {
		return nil, err
	}

	var category model.Category
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		res := tx.Model(&category).Clauses(clause.Returning{}).
			Scopes(scope).
			Where("id = ?", id).
			Updates(cols)
		return affected(res)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete removes the category; its tasks keep existing with no category.
func (r *CategoryRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	scope, err := r.guard.Scope(ctx, policy.Categories, p, policy.Delete)
	if err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return affected(tx.Scopes(scope).Delete(&model.Category{}, "id = ?", id))
	})
}
