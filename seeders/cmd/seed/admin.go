package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory-system/seeders"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Создать администратора по умолчанию, если пользователей нет",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		db, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := seeders.SeedDefaultAdmin(ctx, db, cfg, logger)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("%s администратор %q создан\n", okMark, cfg.Auth.DefaultAdminUsername)
		} else {
			fmt.Printf("%s пользователи уже есть, пропускаем\n", skipMark)
		}
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Заполнить демо-оборудованием",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		db, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := seeders.SeedDemoEquipment(ctx, db, cfg, logger)
		if err != nil {
			return err
		}
		fmt.Printf("%s создано единиц оборудования: %d\n", okMark, n)
		return nil
	},
}
