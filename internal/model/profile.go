package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile shares its primary key with the owning identity.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Bio         *string   `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:user_roles_user_id_role_key" json:"user_id"`
	Role      AppRole   `gorm:"type:app_role;not null;uniqueIndex:user_roles_user_id_role_key" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
