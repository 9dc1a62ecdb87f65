package main

import (
	"log"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Test card portal operations: migrations and seeding",
	}
	cmd.AddCommand(newMigrateCmd(), newSeedCmd())
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
