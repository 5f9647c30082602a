package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"inventory-system/internal/dto"
	"inventory-system/pkg/constants"
	"inventory-system/seeders"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Управление пользователями",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать пользователя",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		db, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := seeders.CreateUser(ctx, db, cfg, logger, dto.CreateUserDTO{
			Username: viper.GetString("username"),
			Password: viper.GetString("password"),
			Role:     viper.GetString("role"),
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s пользователь %q (%s) создан, id=%d\n", okMark, user.Username, user.Role, user.ID)
		return nil
	},
}

var userPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Сменить пароль пользователя",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		db, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		cache, closeCache := seeders.OpenCache(ctx, cfg, logger)
		defer closeCache()

		username := viper.GetString("username")
		err = seeders.ResetPassword(ctx, db, cache, cfg, logger, dto.ResetPasswordDTO{
			Username: username,
			Password: viper.GetString("password"),
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s пароль пользователя %q обновлён\n", okMark, username)
		return nil
	},
}

func init() {
	userCmd.PersistentFlags().String("username", "", "Имя пользователя")
	userCmd.PersistentFlags().String("password", "", "Пароль")
	userCreateCmd.Flags().String("role", constants.RoleUser, "Роль: user | admin")

	_ = userCmd.MarkPersistentFlagRequired("username")
	_ = userCmd.MarkPersistentFlagRequired("password")

	_ = viper.BindPFlag("username", userCmd.PersistentFlags().Lookup("username"))
	_ = viper.BindPFlag("password", userCmd.PersistentFlags().Lookup("password"))
	_ = viper.BindPFlag("role", userCreateCmd.Flags().Lookup("role"))

	userCmd.AddCommand(userCreateCmd, userPasswordCmd)
}
