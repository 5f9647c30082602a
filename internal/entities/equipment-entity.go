package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"inventory-system/pkg/constants"
	"inventory-system/pkg/types"
)

// Equipment - единица физического оборудования. ID наружу не отдаётся,
// внешний ключ - UUID.
type Equipment struct {
	ID         uint64                    `db:"id"`
	UUID       string                    `db:"uuid"`
	Name       string                    `db:"name"`
	Location   string                    `db:"location"`
	Notes      null.String               `db:"notes"`
	Status     constants.EquipmentStatus `db:"status"`
	QRCodePath null.String               `db:"qrcode_path"`

	types.BaseEntity
}

// EquipmentHistory - запись журнала. Только добавляется, удаляется лишь каскадом вместе с оборудованием.
type EquipmentHistory struct {
	ID          uint64      `db:"id"`
	EquipmentID uint64      `db:"equipment_id"`
	Action      string      `db:"action"`
	User        null.String `db:"user"`
	CreatedAt   time.Time   `db:"created_at"`
}
