package main

import (
	"errors"
	"fmt"

	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"
	"taskflow/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var promoteEmail string

// promoteCmd grants admin outside the request path, for the first admin
// on a fresh install. It connects as the schema owner.
var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant the admin role to an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if promoteEmail == "" {
			return errors.New("--email is required")
		}

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, sqlDB, err := server.Open(cfg.OwnerDSN())
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		ctx := cmd.Context()
		identity, err := repository.NewIdentityRepository(db).FindByEmail(ctx, promoteEmail)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", promoteEmail, err)
		}
		if identity == nil {
			return fmt.Errorf("no user with email %s", promoteEmail)
		}

		roles := repository.NewRoleRepository(db, policy.NewGuard(policy.NewSQLRoleChecker(sqlDB)))
		if err := roles.GrantPrivileged(ctx, identity.ID, model.RoleAdmin); err != nil {
			return fmt.Errorf("grant admin: %w", err)
		}

		log.Info("admin granted", zap.String("user_id", identity.ID.String()), zap.String("email", identity.Email))
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", identity.Email)
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "email of the user to promote")
}
