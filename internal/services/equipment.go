package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/codeimage"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/metrics"
	"inventory-system/pkg/utils"
)

type EquipmentServiceInterface interface {
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDetailDTO, error)
	SetStatus(ctx context.Context, identity string, payload dto.UpdateStatusDTO) (*dto.EquipmentDetailDTO, error)
	UpdateFields(ctx context.Context, identity string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDetailDTO, error)
	AppendNote(ctx context.Context, identity string, payload dto.CreateHistoryDTO) (*dto.EquipmentDetailDTO, error)
	DeleteEquipment(ctx context.Context, identity string) (bool, error)
}

// EquipmentService - машина состояний оборудования. Каждое изменение сущности
// и его запись в журнал выполняются в одной транзакции.
type EquipmentService struct {
	txManager  repositories.TxManagerInterface
	equipment  repositories.EquipmentRepositoryInterface
	registry   IdentityRegistryInterface
	auditLog   AuditLogInterface
	codeImages codeimage.Generator
	gatekeeper *authz.Gatekeeper
	validator  inputValidator
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipment repositories.EquipmentRepositoryInterface,
	registry IdentityRegistryInterface,
	auditLog AuditLogInterface,
	codeImages codeimage.Generator,
	gatekeeper *authz.Gatekeeper,
	validator inputValidator,
	m *metrics.Metrics,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		txManager:  txManager,
		equipment:  equipment,
		registry:   registry,
		auditLog:   auditLog,
		codeImages: codeImages,
		gatekeeper: gatekeeper,
		validator:  validator,
		metrics:    m,
		logger:     logger,
	}
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDetailDTO, error) {
	principal, err := s.gatekeeper.AuthorizeContext(ctx, authz.EquipmentCreate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	equipment := &entities.Equipment{
		Name:     strings.TrimSpace(payload.Name),
		Location: strings.TrimSpace(payload.Location),
		Notes:    normalizeNotes(payload.Notes),
		Status:   constants.EquipmentStatusAvailable,
	}

	var result *dto.EquipmentDetailDTO
	var imageRef string
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.registry.RegisterInTx(ctx, tx, equipment); err != nil {
			return err
		}
		imageRef = equipment.QRCodePath.String

		if _, err := s.auditLog.AppendInTx(ctx, tx, equipment.ID, ActionCreated, actorName(principal)); err != nil {
			return err
		}

		var err error
		result, err = s.detailInTx(ctx, tx, equipment)
		return err
	})
	if err != nil {
		// запись не появилась, изображение тоже не нужно
		s.codeImages.Discard(ctx, imageRef)
		s.logger.Error("Ошибка при создании оборудования", zap.String("name", equipment.Name), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveHistory(metrics.HistoryKindCreated)
	s.logger.Info("Оборудование создано", zap.String("uuid", equipment.UUID), zap.String("by", principal.Username))
	return result, nil
}

// SetStatus принимает любой из трёх статусов из любого состояния. Повтор
// текущего статуса тоже записывается в журнал.
func (s *EquipmentService) SetStatus(ctx context.Context, identity string, payload dto.UpdateStatusDTO) (*dto.EquipmentDetailDTO, error) {
	principal, err := s.gatekeeper.AuthorizeContext(ctx, authz.EquipmentStatusUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}
	status := constants.EquipmentStatus(payload.Status)

	var result *dto.EquipmentDetailDTO
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// UPDATE ... RETURNING: если запись уже удалена, получим ErrNotFound
		equipment, err := s.equipment.UpdateStatusInTx(ctx, tx, identity, status)
		if err != nil {
			return err
		}

		if _, err := s.auditLog.AppendInTx(ctx, tx, equipment.ID, StatusChangedAction(status), actorOr(payload.User, principal)); err != nil {
			return err
		}

		result, err = s.detailInTx(ctx, tx, equipment)
		return err
	})
	if err != nil {
		s.logFailure("Ошибка при смене статуса", identity, err)
		return nil, err
	}

	s.metrics.ObserveTransition(status.String())
	s.logger.Info("Статус оборудования изменён",
		zap.String("uuid", identity), zap.String("status", status.String()), zap.String("by", principal.Username))
	return result, nil
}

// UpdateFields меняет только переданные поля. Если фактически ничего не
// изменилось, запись в журнал не добавляется.
func (s *EquipmentService) UpdateFields(ctx context.Context, identity string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDetailDTO, error) {
	principal, err := s.gatekeeper.AuthorizeContext(ctx, authz.EquipmentUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	var result *dto.EquipmentDetailDTO
	var changed bool
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		equipment, err := s.registry.ResolveInTx(ctx, tx, identity, true)
		if err != nil {
			return err
		}

		changed = applyFields(equipment, payload)
		if changed {
			equipment, err = s.equipment.UpdateFieldsInTx(ctx, tx, equipment)
			if err != nil {
				return err
			}
			if _, err := s.auditLog.AppendInTx(ctx, tx, equipment.ID, ActionFieldsUpdated, actorName(principal)); err != nil {
				return err
			}
		}

		result, err = s.detailInTx(ctx, tx, equipment)
		return err
	})
	if err != nil {
		s.logFailure("Ошибка при обновлении оборудования", identity, err)
		return nil, err
	}

	if changed {
		s.metrics.ObserveHistory(metrics.HistoryKindFields)
		s.logger.Info("Данные оборудования обновлены", zap.String("uuid", identity), zap.String("by", principal.Username))
	} else {
		s.logger.Debug("Обновление без изменений, журнал не тронут", zap.String("uuid", identity))
	}
	return result, nil
}

// AppendNote добавляет произвольную запись в журнал, сущность не меняется.
func (s *EquipmentService) AppendNote(ctx context.Context, identity string, payload dto.CreateHistoryDTO) (*dto.EquipmentDetailDTO, error) {
	principal, err := s.gatekeeper.AuthorizeContext(ctx, authz.EquipmentHistoryAdd)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	var result *dto.EquipmentDetailDTO
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// блокировка строки: параллельное удаление не оставит запись без владельца
		equipment, err := s.registry.ResolveInTx(ctx, tx, identity, true)
		if err != nil {
			return err
		}

		if _, err := s.auditLog.AppendInTx(ctx, tx, equipment.ID, payload.Action, actorOr(payload.User, principal)); err != nil {
			return err
		}

		result, err = s.detailInTx(ctx, tx, equipment)
		return err
	})
	if err != nil {
		s.logFailure("Ошибка при добавлении записи в историю", identity, err)
		return nil, err
	}

	s.metrics.ObserveHistory(metrics.HistoryKindNote)
	s.logger.Info("Запись добавлена в историю", zap.String("uuid", identity), zap.String("by", principal.Username))
	return result, nil
}

// DeleteEquipment удаляет запись вместе с историей. false - такой записи нет.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, identity string) (bool, error) {
	principal, err := s.gatekeeper.AuthorizeContext(ctx, authz.EquipmentDelete)
	if err != nil {
		return false, err
	}

	var deleted *entities.Equipment
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = s.equipment.DeleteInTx(ctx, tx, identity)
		return err
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		s.logFailure("Ошибка при удалении оборудования", identity, err)
		return false, err
	}

	s.codeImages.Discard(ctx, deleted.QRCodePath.String)
	s.metrics.ObserveDeletion()
	s.logger.Info("Оборудование удалено", zap.String("uuid", identity), zap.String("by", principal.Username))
	return true, nil
}

func (s *EquipmentService) detailInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) (*dto.EquipmentDetailDTO, error) {
	history, err := s.auditLog.ListForInTx(ctx, tx, equipment.ID)
	if err != nil {
		return nil, err
	}
	detail := dto.NewEquipmentDetailDTO(equipment, history)
	return &detail, nil
}

func (s *EquipmentService) logFailure(msg, identity string, err error) {
	if errors.Is(err, apperrors.ErrNotFound) || apperrors.IsInvalidInput(err) {
		s.logger.Warn(msg, zap.String("uuid", identity), zap.Error(err))
		return
	}
	s.logger.Error(msg, zap.String("uuid", identity), zap.Error(err))
}

// applyFields переносит переданные поля в сущность и сообщает, поменялось ли что-то.
func applyFields(equipment *entities.Equipment, payload dto.UpdateEquipmentDTO) bool {
	changed := false
	if name := utils.TrimPtr(payload.Name); name != nil && *name != equipment.Name {
		equipment.Name = *name
		changed = true
	}
	if location := utils.TrimPtr(payload.Location); location != nil && *location != equipment.Location {
		equipment.Location = *location
		changed = true
	}
	if payload.Notes != nil {
		notes := normalizeNotes(payload.Notes)
		if notes != equipment.Notes {
			equipment.Notes = notes
			changed = true
		}
	}
	return changed
}

// normalizeNotes - пустые заметки храним как NULL
func normalizeNotes(notes *string) null.String {
	trimmed := utils.TrimPtr(notes)
	if trimmed == nil || *trimmed == "" {
		return null.String{}
	}
	return null.StringFrom(*trimmed)
}

func actorName(p *authz.Principal) *string {
	if p == nil {
		return nil
	}
	return &p.Username
}

// actorOr - явно переданный исполнитель важнее текущего пользователя
func actorOr(explicit *string, p *authz.Principal) *string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		return explicit
	}
	return actorName(p)
}
