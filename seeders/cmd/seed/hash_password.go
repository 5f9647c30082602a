package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory-system/pkg/utils"
)

// hashPasswordCmd печатает bcrypt-хеш, чтобы вписать его в БД вручную
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Сгенерировать bcrypt-хеш пароля",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := utils.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}
