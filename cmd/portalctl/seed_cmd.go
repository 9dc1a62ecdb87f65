package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/bankhub/testcard-portal/modules/core/infrastructure/persistence"
	"github.com/bankhub/testcard-portal/modules/core/seed"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/configuration"
)

func newSeedCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial manager account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			return runSeed(cmd.Context(), email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@localhost", "admin account email")
	cmd.Flags().StringVar(&password, "password", "", "admin account password")
	return cmd
}

func runSeed(ctx context.Context, email, password string) error {
	conf := configuration.Use()
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connCtx, conf.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	seedCtx := composables.WithPool(ctx, pool)
	admin, err := seed.AdminUser(seedCtx, persistence.NewUserRepository(), email, password)
	if err != nil {
		return err
	}
	fmt.Printf("admin user ready: %s (id %d)\n", admin.Email(), admin.ID())
	return nil
}
