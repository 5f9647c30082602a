// internal/authz/permissions.go
package authz

import "inventory-system/pkg/constants"

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Оборудование (Equipment)
	EquipmentView         = "equipment:view"
	EquipmentCreate       = "equipment:create"
	EquipmentStatusUpdate = "equipment:status:update"
	EquipmentUpdate       = "equipment:update"
	EquipmentHistoryAdd   = "equipment:history:create"
	EquipmentDelete       = "equipment:delete"
)

// Роль анонимного вызывающего. В БД не хранится.
const RoleAnonymous = "anonymous"

// rolePermissions - таблица политики: какая роль что может.
var rolePermissions = map[string]map[string]bool{
	RoleAnonymous: {
		EquipmentView: true,
	},
	constants.RoleUser: {
		EquipmentView: true,
	},
	constants.RoleAdmin: {
		EquipmentView:         true,
		EquipmentCreate:       true,
		EquipmentStatusUpdate: true,
		EquipmentUpdate:       true,
		EquipmentHistoryAdd:   true,
		EquipmentDelete:       true,
	},
}
