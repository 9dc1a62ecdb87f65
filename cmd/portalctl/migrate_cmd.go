package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/bankhub/testcard-portal/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply database migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) > 0 {
				direction = args[0]
			}
			return runMigrations(direction)
		},
	}
	return cmd
}

func runMigrations(direction string) error {
	conf := configuration.Use()
	db, err := sql.Open("postgres", conf.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch direction {
	case "up":
		return goose.Up(db, conf.MigrationsDir)
	case "down":
		return goose.Down(db, conf.MigrationsDir)
	case "status":
		return goose.Status(db, conf.MigrationsDir)
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
}
