package repository

import (
	"context"

	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db    *gorm.DB
	guard *policy.Guard
}

type RoleRepositoryInterface interface {
	ListForUser(ctx context.Context, p policy.Principal, userID uuid.UUID) ([]model.UserRole, error)
	Grant(ctx context.Context, p policy.Principal, userID uuid.UUID, role model.AppRole) error
}

var _ RoleRepositoryInterface = (*RoleRepository)(nil)

func NewRoleRepository(db *gorm.DB, guard *policy.Guard) *RoleRepository {
	return &RoleRepository{db: db, guard: guard}
}

func (r *RoleRepository) ListForUser(ctx context.Context, p policy.Principal, userID uuid.UUID) ([]model.UserRole, error) {
	scope, err := r.guard.Scope(ctx, policy.UserRoles, p, policy.Select)
	if err != nil {
		return nil, err
	}

	var roles []model.UserRole
	err = asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return tx.Scopes(scope).Where("user_id = ?", userID).Order("role").Find(&roles).Error
	})
	return roles, err
}

// Grant gives userID the role. Only admins pass the insert check; granting
// a role the user already holds is a no-op.
func (r *RoleRepository) Grant(ctx context.Context, p policy.Principal, userID uuid.UUID, role model.AppRole) error {
	if !role.Valid() {
		return ErrInvalidArgument
	}
	if err := r.guard.CheckInsert(ctx, policy.UserRoles, p, userID); err != nil {
		return err
	}

	return asUser(ctx, r.db, p, func(tx *gorm.DB) error {
		return insertRole(tx, userID, role)
	})
}

// GrantPrivileged gives a role without a requester, for operator tooling.
func (r *RoleRepository) GrantPrivileged(ctx context.Context, userID uuid.UUID, role model.AppRole) error {
	if !role.Valid() {
		return ErrInvalidArgument
	}
	return mapError(insertRole(r.db.WithContext(ctx), userID, role))
}

func insertRole(tx *gorm.DB, userID uuid.UUID, role model.AppRole) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
		DoNothing: true,
	}).Create(&model.UserRole{UserID: userID, Role: role}).Error
}
