package main

import (
	"taskflow/internal/server"

	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		if serveMigrate {
			if err := applyMigrations(cmd.Context(), cfg, log); err != nil {
				return err
			}
		}

		s, err := server.Init(cfg, log)
		if err != nil {
			return err
		}
		return s.Run()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}
