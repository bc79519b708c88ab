package repository

import (
	"context"

	"taskflow/internal/policy"

	"gorm.io/gorm"
)

// asUser runs fn in one transaction with app.current_user_id set to the
// principal, so the database row policies see the same requester as the
// Go guard.
func asUser(ctx context.Context, db *gorm.DB, p policy.Principal, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.current_user_id', ?, true)", p.UserID.String()).Error; err != nil {
			return err
		}
		return fn(tx)
	})
	return mapError(err)
}

// byID selects one row by primary key within scope.
func byID(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, dest interface{}, id interface{}) error {
	return tx.Scopes(scope).First(dest, "id = ?", id).Error
}

// affected turns a zero-row write into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
