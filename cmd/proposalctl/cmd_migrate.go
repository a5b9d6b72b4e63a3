package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/himtika/proposal-tracker/internal/database"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.OutOrStdout(), "up", 0)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.OutOrStdout(), "down", migrateSteps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.OutOrStdout(), "version", 0)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func runMigrate(w io.Writer, action string, steps int) error {
	m, err := database.NewMigrator(cfg.StoreDriver, cfg.MigrationDSN())
	if err != nil {
		return err
	}
	defer m.Close()

	switch action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down(steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			return fmt.Errorf("read schema version: %w", verr)
		}
		fmt.Fprintf(w, "version %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "migrate %s completed\n", action)
	return nil
}
