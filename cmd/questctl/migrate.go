package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/questboard/internal/config"
	pgInfra "github.com/fastygo/questboard/internal/infrastructure/postgres"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version]",
	Short: "Manage the PostgreSQL schema",
	Long: `Apply or roll back the SQL migrations under MIGRATIONS_PATH.

SQLite stores create their schema on open and need no migrations.

Examples:
  questctl migrate up
  questctl migrate down --steps 1
  questctl migrate version`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down", "version"},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back with down")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return errors.New("migrations only apply to STORAGE_DRIVER=postgres")
	}

	mg, err := pgInfra.NewMigrator(cfg.Database.URL, cfg.Migrations.Path, cfg.Database.Name, log)
	if err != nil {
		return err
	}
	defer mg.Close()

	switch action {
	case "up":
		return mg.Up()
	case "down":
		return mg.Down(migrateSteps)
	case "version":
		version, dirty, ok, err := mg.Version()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}
