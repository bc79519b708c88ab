package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OwnedTables carry a user_id column and row policies. The application role
// gets DML on these and nothing else; identities stay with the owner.
var OwnedTables = []string{
	"profiles", "user_roles", "categories", "tasks",
	"subtasks", "reminders", "notifications", "analytics",
}

var ErrUnsafeAppRole = errors.New("application role bypasses row level security")

// GrantApp gives role the privileges the API needs. It refuses roles that
// would skip the row policies: superusers, BYPASSRLS roles and table owners.
// The role itself must already exist.
func GrantApp(ctx context.Context, ownerDSN, role string, log *zap.Logger) error {
	conn, err := pgx.Connect(ctx, ownerDSN)
	if err != nil {
		return fmt.Errorf("connect as owner: %w", err)
	}
	defer conn.Close(context.Background())

	var super, bypass bool
	err = conn.QueryRow(ctx,
		`SELECT rolsuper, rolbypassrls FROM pg_roles WHERE rolname = $1`, role,
	).Scan(&super, &bypass)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("role %q does not exist, create it with CREATE ROLE %s LOGIN PASSWORD '...'",
			role, pgx.Identifier{role}.Sanitize())
	}
	if err != nil {
		return fmt.Errorf("inspect role %q: %w", role, err)
	}
	if super || bypass {
		return fmt.Errorf("%w: %q is superuser or BYPASSRLS", ErrUnsafeAppRole, role)
	}

	var owned int
	err = conn.QueryRow(ctx,
		`SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ANY($1) AND tableowner = $2`,
		OwnedTables, role,
	).Scan(&owned)
	if err != nil {
		return fmt.Errorf("inspect table owners: %w", err)
	}
	if owned > 0 {
		return fmt.Errorf("%w: %q owns %d of the tables", ErrUnsafeAppRole, role, owned)
	}

	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		for _, stmt := range grantStatements(role) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("application role granted", zap.String("role", role), zap.Strings("tables", OwnedTables))
	return nil
}

func grantStatements(role string) []string {
	r := pgx.Identifier{role}.Sanitize()
	tables := make([]string, len(OwnedTables))
	for i, t := range OwnedTables {
		tables[i] = pgx.Identifier{"public", t}.Sanitize()
	}
	return []string{
		"GRANT USAGE ON SCHEMA public TO " + r,
		"GRANT SELECT, INSERT, UPDATE, DELETE ON " + strings.Join(tables, ", ") + " TO " + r,
		"GRANT EXECUTE ON FUNCTION public.current_user_id(), public.has_role(uuid, public.app_role) TO " + r,
	}
}
