package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/dto"
	"inventory-system/internal/repositories"
)

type EquipmentDirectoryInterface interface {
	ListEquipment(ctx context.Context, filter dto.EquipmentFilterDTO) ([]dto.EquipmentDTO, error)
	GetDetail(ctx context.Context, identity string) (*dto.EquipmentDetailDTO, error)
}

// EquipmentDirectory - только чтение: список и карточка с полной историей.
type EquipmentDirectory struct {
	txManager  repositories.TxManagerInterface
	equipment  repositories.EquipmentRepositoryInterface
	registry   IdentityRegistryInterface
	auditLog   AuditLogInterface
	gatekeeper *authz.Gatekeeper
	validator  inputValidator
	logger     *zap.Logger
}

func NewEquipmentDirectory(
	txManager repositories.TxManagerInterface,
	equipment repositories.EquipmentRepositoryInterface,
	registry IdentityRegistryInterface,
	auditLog AuditLogInterface,
	gatekeeper *authz.Gatekeeper,
	validator inputValidator,
	logger *zap.Logger,
) EquipmentDirectoryInterface {
	return &EquipmentDirectory{
		txManager:  txManager,
		equipment:  equipment,
		registry:   registry,
		auditLog:   auditLog,
		gatekeeper: gatekeeper,
		validator:  validator,
		logger:     logger,
	}
}

// ListEquipment - по имени по возрастанию
func (d *EquipmentDirectory) ListEquipment(ctx context.Context, filter dto.EquipmentFilterDTO) ([]dto.EquipmentDTO, error) {
	if _, err := d.gatekeeper.AuthorizeContext(ctx, authz.EquipmentView); err != nil {
		return nil, err
	}
	if err := d.validator.Validate(filter); err != nil {
		return nil, err
	}

	list, err := d.equipment.List(ctx, repositories.EquipmentFilter{
		Status: filter.Status,
		Search: filter.Search,
	})
	if err != nil {
		d.logger.Error("Ошибка получения списка оборудования", zap.Error(err))
		return nil, err
	}

	out := make([]dto.EquipmentDTO, 0, len(list))
	for i := range list {
		out = append(out, dto.NewEquipmentDTO(&list[i]))
	}
	return out, nil
}

// GetDetail читает сущность и всю её историю в одной транзакции только для чтения.
func (d *EquipmentDirectory) GetDetail(ctx context.Context, identity string) (*dto.EquipmentDetailDTO, error) {
	if _, err := d.gatekeeper.AuthorizeContext(ctx, authz.EquipmentView); err != nil {
		return nil, err
	}

	var result *dto.EquipmentDetailDTO
	err := d.txManager.RunInReadTransaction(ctx, func(tx pgx.Tx) error {
		equipment, err := d.registry.ResolveInTx(ctx, tx, identity, false)
		if err != nil {
			return err
		}
		history, err := d.auditLog.ListForInTx(ctx, tx, equipment.ID)
		if err != nil {
			return err
		}
		detail := dto.NewEquipmentDetailDTO(equipment, history)
		result = &detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
