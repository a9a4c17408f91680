package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"campaign-dashboard/internal/source"
	"campaign-dashboard/migrations"
)

const postgresConnectTimeout = 30 * time.Second

func newImportCommand(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a campaign CSV into the Postgres record store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.postgresConfig()
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			start := time.Now()
			records, err := source.ParseCSV(cmd.Context(), file)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			a.logger.Info("parsed csv", "records", len(records), "duration", time.Since(start))

			pg, err := source.OpenPostgres(cmd.Context(), cfg, a.logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			if migrate {
				if err := migrations.Up(pg.DB().DB, a.logger); err != nil {
					return err
				}
			}

			inserted, err := pg.Insert(cmd.Context(), records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s in %s\n",
				inserted, args[0], time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&a.dsn, "dsn", "", "postgres DSN (default $POSTGRES_DSN)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before importing")
	return cmd
}
