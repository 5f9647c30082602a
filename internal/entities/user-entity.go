// Файл: internal/entities/user_entity.go
package entities

import "inventory-system/pkg/types"

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Role     string `json:"role" db:"role"`

	PasswordHash string `json:"-" db:"password_hash"`

	types.BaseEntity
}
