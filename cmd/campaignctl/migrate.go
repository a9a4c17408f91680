package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"campaign-dashboard/internal/source"
	"campaign-dashboard/migrations"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the campaign_data schema",
	}
	cmd.PersistentFlags().StringVar(&a.dsn, "dsn", "", "postgres DSN (default $POSTGRES_DSN)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				return migrations.Up(db, a.logger)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				return migrations.Down(db, steps, a.logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *sql.DB) error {
				version, dirty, ok, err := migrations.Version(db)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func (a *app) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	cfg, err := a.postgresConfig()
	if err != nil {
		return err
	}
	pg, err := source.OpenPostgres(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	return fn(pg.DB().DB)
}
