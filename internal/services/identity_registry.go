package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/codeimage"
	apperrors "inventory-system/pkg/errors"
)

// maxIdentityAttempts - сколько раз пробуем новый uuid при коллизии
const maxIdentityAttempts = 5

// IdentityGenerator выдаёт новый внешний идентификатор
type IdentityGenerator func() string

func NewUUIDGenerator() IdentityGenerator {
	return func() string { return uuid.NewString() }
}

type IdentityRegistryInterface interface {
	RegisterInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error
	Resolve(ctx context.Context, identity string) (*entities.Equipment, error)
	ResolveInTx(ctx context.Context, tx pgx.Tx, identity string, forUpdate bool) (*entities.Equipment, error)
}

// IdentityRegistry выдаёт uuid, генерирует QR-код и вставляет запись.
// Идентификатор сравнивается точно, с учётом регистра.
type IdentityRegistry struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	codeImages    codeimage.Generator
	nextIdentity  IdentityGenerator
	logger        *zap.Logger
}

func NewIdentityRegistry(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	codeImages codeimage.Generator,
	nextIdentity IdentityGenerator,
	logger *zap.Logger,
) IdentityRegistryInterface {
	if nextIdentity == nil {
		nextIdentity = NewUUIDGenerator()
	}
	return &IdentityRegistry{
		equipmentRepo: equipmentRepo,
		codeImages:    codeImages,
		nextIdentity:  nextIdentity,
		logger:        logger,
	}
}

// RegisterInTx заполняет UUID и QRCodePath и вставляет запись в рамках tx.
// При коллизии uuid пробует снова; изображения неудачных попыток удаляются.
// Если tx потом откатится, удалить изображение должен вызывающий.
func (r *IdentityRegistry) RegisterInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error {
	for attempt := 1; attempt <= maxIdentityAttempts; attempt++ {
		identity := r.nextIdentity()

		taken, err := r.equipmentRepo.ExistsByUUIDInTx(ctx, tx, identity)
		if err != nil {
			return err
		}
		if taken {
			r.logger.Warn("коллизия идентификатора, генерируем новый", zap.String("uuid", identity), zap.Int("attempt", attempt))
			continue
		}

		ref, err := r.codeImages.Generate(ctx, identity)
		if err != nil {
			return err
		}

		equipment.UUID = identity
		equipment.QRCodePath = null.StringFrom(ref)

		err = r.equipmentRepo.CreateInTx(ctx, tx, equipment)
		if err == nil {
			return nil
		}

		r.codeImages.Discard(ctx, ref)
		equipment.UUID = ""
		equipment.QRCodePath = null.String{}

		if !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		r.logger.Warn("uuid занят параллельной вставкой, генерируем новый", zap.String("uuid", identity), zap.Int("attempt", attempt))
	}

	return fmt.Errorf("не удалось выдать уникальный идентификатор за %d попыток: %w", maxIdentityAttempts, apperrors.ErrConflict)
}

func (r *IdentityRegistry) Resolve(ctx context.Context, identity string) (*entities.Equipment, error) {
	return r.equipmentRepo.FindByUUID(ctx, identity)
}

func (r *IdentityRegistry) ResolveInTx(ctx context.Context, tx pgx.Tx, identity string, forUpdate bool) (*entities.Equipment, error) {
	return r.equipmentRepo.FindByUUIDInTx(ctx, tx, identity, forUpdate)
}
