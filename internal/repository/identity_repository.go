package repository

import (
	"context"
	"errors"
	"strings"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityHook runs inside the identity-creation transaction. An error
// rolls the identity back.
type IdentityHook func(tx *gorm.DB, identity *model.Identity) error

// IdentityRepository is the auth surface's privileged store. It never goes
// through row policies: identities are not an owned table.
type IdentityRepository struct {
	db *gorm.DB
}

type IdentityRepositoryInterface interface {
	Create(ctx context.Context, identity *model.Identity, hooks ...IdentityHook) error
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ IdentityRepositoryInterface = (*IdentityRepository)(nil)

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create stores the identity and runs every hook in the same transaction.
func (r *IdentityRepository) Create(ctx context.Context, identity *model.Identity, hooks ...IdentityHook) error {
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		for _, hook := range hooks {
			if err := hook(tx, identity); err != nil {
				return err
			}
		}
		return nil
	})
	return mapError(err)
}

// FindByEmail returns nil, nil when no identity has the address.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetByID returns nil, nil when the identity does not exist.
func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// Delete removes the identity; foreign keys cascade to every owned row.
func (r *IdentityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Identity{}, "id = ?", id)
	return mapError(affected(res))
}
