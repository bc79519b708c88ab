package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Identity is an authenticated account. Every owned table references it
// and is removed with it.
type Identity struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string            `gorm:"uniqueIndex;not null"`
	EncryptedPassword string            `gorm:"not null"`
	RawUserMetaData   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt         time.Time         `gorm:"autoCreateTime"`
}

func (Identity) TableName() string { return "identities" }

// MetaString returns a non-empty string value stored under key in the
// signup metadata.
func (i *Identity) MetaString(key string) (string, bool) {
	v, ok := i.RawUserMetaData[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
