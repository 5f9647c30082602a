package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

// Тексты системных записей журнала
const (
	ActionCreated       = "Создана запись"
	ActionFieldsUpdated = "Данные оборудования обновлены"
	actionStatusFormat  = "Статус изменён на %s"
)

func StatusChangedAction(status constants.EquipmentStatus) string {
	return fmt.Sprintf(actionStatusFormat, status)
}

// AuditLogInterface - журнал только на дозапись
type AuditLogInterface interface {
	AppendInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64, action string, actor *string) (*entities.EquipmentHistory, error)
	ListFor(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error)
	ListForInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64) ([]entities.EquipmentHistory, error)
}

type AuditLog struct {
	historyRepo repositories.EquipmentHistoryRepositoryInterface
}

func NewAuditLog(historyRepo repositories.EquipmentHistoryRepositoryInterface) AuditLogInterface {
	return &AuditLog{historyRepo: historyRepo}
}

func (l *AuditLog) AppendInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64, action string, actor *string) (*entities.EquipmentHistory, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, apperrors.NewFieldsError("Ошибка валидации: action: обязательное поле",
			map[string]string{"action": "обязательное поле"})
	}

	entry := &entities.EquipmentHistory{
		EquipmentID: equipmentID,
		Action:      action,
		User:        actorValue(actor),
	}
	if err := l.historyRepo.CreateInTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("не удалось записать историю: %w", err)
	}
	return entry, nil
}

func (l *AuditLog) ListFor(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	return l.historyRepo.FindByEquipmentID(ctx, equipmentID)
}

func (l *AuditLog) ListForInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	return l.historyRepo.FindByEquipmentIDInTx(ctx, tx, equipmentID)
}

// actorValue - пустая строка и nil одинаково означают "не указан"
func actorValue(actor *string) null.String {
	if actor == nil {
		return null.String{}
	}
	trimmed := strings.TrimSpace(*actor)
	if trimmed == "" {
		return null.String{}
	}
	return null.StringFrom(trimmed)
}
