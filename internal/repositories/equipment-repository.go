package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-system/internal/entities"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

const equipmentTable = "equipment"
const equipmentSelectFields = "id, uuid, name, location, notes, status, qrcode_path, created_at, updated_at"

// EquipmentFilter - необязательные условия списка
type EquipmentFilter struct {
	Status string
	Search string
}

type EquipmentRepositoryInterface interface {
	List(ctx context.Context, filter EquipmentFilter) ([]entities.Equipment, error)
	FindByUUID(ctx context.Context, uuid string) (*entities.Equipment, error)
	FindByUUIDInTx(ctx context.Context, tx pgx.Tx, uuid string, forUpdate bool) (*entities.Equipment, error)
	ExistsByUUIDInTx(ctx context.Context, tx pgx.Tx, uuid string) (bool, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, uuid string, status constants.EquipmentStatus) (*entities.Equipment, error)
	UpdateFieldsInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) (*entities.Equipment, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, uuid string) (*entities.Equipment, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentRepository(storage *pgxpool.Pool) EquipmentRepositoryInterface {
	return &EquipmentRepository{
		storage: storage,
	}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var status string
	err := row.Scan(
		&e.ID, &e.UUID, &e.Name, &e.Location, &e.Notes,
		&status, &e.QRCodePath, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	e.Status = constants.EquipmentStatus(status)
	return &e, nil
}

func (r *EquipmentRepository) List(ctx context.Context, filter EquipmentFilter) ([]entities.Equipment, error) {
	builder := sq.Select(equipmentSelectFields).
		From(equipmentTable).
		OrderBy("name ASC", "id ASC").
		PlaceholderFormat(sq.Dollar)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"location": pattern},
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса списка оборудования: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]entities.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

func (r *EquipmentRepository) FindByUUID(ctx context.Context, uuid string) (*entities.Equipment, error) {
	return findEquipmentByUUID(ctx, r.storage, uuid, false)
}

// FindByUUIDInTx с forUpdate блокирует строку до конца транзакции,
// так что параллельное удаление дождётся нас или мы увидим ErrNotFound.
func (r *EquipmentRepository) FindByUUIDInTx(ctx context.Context, tx pgx.Tx, uuid string, forUpdate bool) (*entities.Equipment, error) {
	return findEquipmentByUUID(ctx, tx, uuid, forUpdate)
}

func findEquipmentByUUID(ctx context.Context, q querier, uuid string, forUpdate bool) (*entities.Equipment, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE uuid = $1", equipmentSelectFields, equipmentTable)
	if forUpdate {
		query += " FOR UPDATE"
	}
	return scanEquipment(q.QueryRow(ctx, query, uuid))
}

func (r *EquipmentRepository) ExistsByUUIDInTx(ctx context.Context, tx pgx.Tx, uuid string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM equipment WHERE uuid = $1)", uuid).Scan(&exists)
	return exists, err
}

// CreateInTx вставляет запись; занятый uuid даёт ErrConflict, а не ошибку драйвера.
func (r *EquipmentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error {
	query := `
		INSERT INTO equipment (uuid, name, location, notes, status, qrcode_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uuid) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		equipment.UUID, equipment.Name, equipment.Location, equipment.Notes,
		string(equipment.Status), equipment.QRCodePath,
	).Scan(&equipment.ID, &equipment.CreatedAt, &equipment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("uuid %s уже занят: %w", equipment.UUID, apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *EquipmentRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, uuid string, status constants.EquipmentStatus) (*entities.Equipment, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $2, updated_at = now()
		WHERE uuid = $1
		RETURNING %s`, equipmentTable, equipmentSelectFields)
	return scanEquipment(tx.QueryRow(ctx, query, uuid, string(status)))
}

func (r *EquipmentRepository) UpdateFieldsInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) (*entities.Equipment, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, location = $3, notes = $4, updated_at = now()
		WHERE id = $1
		RETURNING %s`, equipmentTable, equipmentSelectFields)
	return scanEquipment(tx.QueryRow(ctx, query,
		equipment.ID, equipment.Name, equipment.Location, equipment.Notes))
}

// DeleteInTx возвращает удалённую строку (нужен путь к изображению); история уходит каскадом.
func (r *EquipmentRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, uuid string) (*entities.Equipment, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE uuid = $1 RETURNING %s", equipmentTable, equipmentSelectFields)
	return scanEquipment(tx.QueryRow(ctx, query, uuid))
}

// escapeLike экранирует служебные символы LIKE: поиск идёт по подстроке буквально.
// В Postgres символ экранирования по умолчанию - обратный слеш.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
