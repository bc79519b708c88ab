package identity

import (
	"context"
	"strings"

	"taskflow/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Created is published once for every new identity, inside the transaction
// that inserted it.
type Created struct {
	Tx       *gorm.DB
	Identity *model.Identity
}

// Subscriber reacts to identity creation. Returning an error aborts the
// creation.
type Subscriber interface {
	OnIdentityCreated(ctx context.Context, ev Created) error
}

// Bootstrapper gives every new identity a profile and the user role. Both
// inserts ignore conflicts, so replaying the event is harmless.
type Bootstrapper struct {
	log *zap.Logger
}

func NewBootstrapper(log *zap.Logger) *Bootstrapper {
	return &Bootstrapper{log: log.Named("bootstrap")}
}

func (b *Bootstrapper) OnIdentityCreated(ctx context.Context, ev Created) error {
	tx := ev.Tx.WithContext(ctx)
	name := DisplayName(ev.Identity)

	profile := &model.Profile{ID: ev.Identity.ID, DisplayName: &name}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error; err != nil {
		return err
	}

	role := &model.UserRole{UserID: ev.Identity.ID, Role: model.RoleUser}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
		DoNothing: true,
	}).Create(role).Error; err != nil {
		return err
	}

	b.log.Debug("identity bootstrapped",
		zap.String("user_id", ev.Identity.ID.String()),
		zap.String("display_name", name),
	)
	return nil
}

// DisplayName picks the signup display_name, then full_name, then the local
// part of the email address.
func DisplayName(identity *model.Identity) string {
	for _, key := range []string{"display_name", "full_name"} {
		if v, ok := identity.MetaString(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	local, _, _ := strings.Cut(identity.Email, "@")
	return local
}
