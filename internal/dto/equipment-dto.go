package dto

import (
	"time"

	"github.com/aarondl/null/v8"

	"inventory-system/internal/entities"
)

// Входные DTO. Теги form нужны, чтобы echo.Bind одинаково принимал JSON и форму.

type CreateEquipmentDTO struct {
	Name     string  `json:"name" form:"name" validate:"required,not_blank,max=255"`
	Location string  `json:"location" form:"location" validate:"required,not_blank,max=255"`
	Notes    *string `json:"notes,omitempty" form:"notes" validate:"omitnil,max=2000"`
}

type UpdateEquipmentDTO struct {
	Name     *string `json:"name,omitempty" form:"name" validate:"omitnil,not_blank,max=255"`
	Location *string `json:"location,omitempty" form:"location" validate:"omitnil,not_blank,max=255"`
	Notes    *string `json:"notes,omitempty" form:"notes" validate:"omitnil,max=2000"`
}

type UpdateStatusDTO struct {
	Status string  `json:"status" form:"status" validate:"required,equipment_status"`
	User   *string `json:"user,omitempty" form:"user" validate:"omitnil,max=255"`
}

type CreateHistoryDTO struct {
	Action string  `json:"action" form:"action" validate:"required,not_blank,max=255"`
	User   *string `json:"user,omitempty" form:"user" validate:"omitnil,max=255"`
}

type EquipmentFilterDTO struct {
	Status string `query:"status" validate:"omitempty,equipment_status"`
	Search string `query:"search" validate:"omitempty,max=255"`
}

// Выходные DTO

type EquipmentDTO struct {
	UUID       string      `json:"uuid"`
	Name       string      `json:"name"`
	Location   string      `json:"location"`
	Notes      null.String `json:"notes"`
	Status     string      `json:"status"`
	QRCodePath null.String `json:"qrcode_path"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

type EquipmentDetailDTO struct {
	EquipmentDTO
	Histories []HistoryDTO `json:"histories"`
}

type HistoryDTO struct {
	ID        uint64      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Action    string      `json:"action"`
	User      null.String `json:"user"`
}

type DeleteEquipmentResponseDTO struct {
	UUID    string `json:"uuid"`
	Deleted bool   `json:"deleted"`
}

func NewEquipmentDTO(e *entities.Equipment) EquipmentDTO {
	return EquipmentDTO{
		UUID:       e.UUID,
		Name:       e.Name,
		Location:   e.Location,
		Notes:      e.Notes,
		Status:     e.Status.String(),
		QRCodePath: e.QRCodePath,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

func NewHistoryDTO(h entities.EquipmentHistory) HistoryDTO {
	return HistoryDTO{
		ID:        h.ID,
		Timestamp: h.CreatedAt.Format(time.RFC3339Nano),
		Action:    h.Action,
		User:      h.User,
	}
}

func NewEquipmentDetailDTO(e *entities.Equipment, history []entities.EquipmentHistory) EquipmentDetailDTO {
	out := EquipmentDetailDTO{
		EquipmentDTO: NewEquipmentDTO(e),
		Histories:    make([]HistoryDTO, 0, len(history)),
	}
	for _, h := range history {
		out.Histories = append(out.Histories, NewHistoryDTO(h))
	}
	return out
}
