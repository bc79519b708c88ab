package policy

import (
	"context"
	"fmt"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLRoleChecker calls the SECURITY DEFINER has_role function directly on
// the pool. It is the one read that is never routed through a row filter.
type SQLRoleChecker struct {
	db *sqlx.DB
}

func NewSQLRoleChecker(db *sqlx.DB) *SQLRoleChecker {
	return &SQLRoleChecker{db: db}
}

func (c *SQLRoleChecker) HasRole(ctx context.Context, userID uuid.UUID, role model.AppRole) (bool, error) {
	const q = `SELECT public.has_role($1, $2::public.app_role)`

	var ok bool
	if err := c.db.GetContext(ctx, &ok, q, userID, string(role)); err != nil {
		return false, fmt.Errorf("has_role: %w", err)
	}
	return ok, nil
}
