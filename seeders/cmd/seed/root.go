package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"inventory-system/pkg/config"
	"inventory-system/pkg/database/postgresql"
	applogger "inventory-system/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Администрирование базы инвентаря",
	Long:         `Миграции, администратор по умолчанию, пользователи и демо-данные.`,
	SilenceUsage: true,
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	skipMark = color.New(color.FgYellow).Sprint("•")
)

func init() {
	viper.SetEnvPrefix("INVENTORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("dsn", "", "DSN PostgreSQL (по умолчанию DATABASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "info", "Уровень логирования")

	_ = viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(migrateCmd, adminCmd, userCmd, demoCmd, hashPasswordCmd)
}

// loadConfig - .env и переменные окружения, флаги поверх них
func loadConfig() *config.Config {
	cfg := config.New()
	if dsn := viper.GetString("dsn"); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	return cfg
}

func newLogger() *zap.Logger {
	return applogger.NewLogger(viper.GetString("log-level"), []string{"stdout"})
}

func connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("подключение к БД: %w", err)
	}
	return pool, nil
}
