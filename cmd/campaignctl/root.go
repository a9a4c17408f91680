package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/observability"
)

const version = "1.0.0"

// app carries state shared by every subcommand once the root has parsed
// its persistent flags.
type app struct {
	logLevel  string
	logFormat string
	dsn       string
	logger    *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "campaignctl",
		Short:         "Operate on bank marketing campaign datasets",
		Long:          `Scan CSV files for quality issues, summarise campaign KPIs and manage the Postgres record store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			a.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), config.LoggerConfig{
				Level:  a.logLevel,
				Format: a.logFormat,
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format (json, text)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "campaignctl version %s\n", version)
		},
	})

	cmd.AddCommand(newScanCommand(a))
	cmd.AddCommand(newSummaryCommand(a))
	cmd.AddCommand(newImportCommand(a))
	cmd.AddCommand(newMigrateCommand(a))

	return cmd
}

// postgresConfig resolves the DSN from --dsn, then POSTGRES_DSN.
func (a *app) postgresConfig() (config.PostgresConfig, error) {
	dsn := a.dsn
	if dsn == "" {
		dsn = os.Getenv("POSTGRES_DSN")
	}
	if dsn == "" {
		return config.PostgresConfig{}, errors.New("no postgres DSN: pass --dsn or set POSTGRES_DSN")
	}
	return config.PostgresConfig{
		DSN:            dsn,
		MaxOpenConns:   4,
		MaxIdleConns:   2,
		ConnectTimeout: postgresConnectTimeout,
	}, nil
}

func newTable(cmd *cobra.Command, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}
