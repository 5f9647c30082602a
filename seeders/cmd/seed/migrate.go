package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory-system/pkg/database/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Миграции схемы (goose)",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ctx := cmd.Context()

		var err error
		switch args[0] {
		case "up":
			err = migrations.Up(ctx, cfg.Postgres.DSN)
		case "down":
			err = migrations.Down(ctx, cfg.Postgres.DSN)
		case "status":
			err = migrations.Status(ctx, cfg.Postgres.DSN)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s migrate %s\n", okMark, args[0])
		return nil
	},
}
