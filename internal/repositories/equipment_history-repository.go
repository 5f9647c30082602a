package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-system/internal/entities"
)

// Журнал только дописывается: методов изменения и удаления записей нет.
type EquipmentHistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.EquipmentHistory) error
	FindByEquipmentID(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error)
	FindByEquipmentIDInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64) ([]entities.EquipmentHistory, error)
}

type EquipmentHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentHistoryRepository(storage *pgxpool.Pool) EquipmentHistoryRepositoryInterface {
	return &EquipmentHistoryRepository{storage: storage}
}

func (r *EquipmentHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.EquipmentHistory) error {
	query := `
		INSERT INTO equipment_history (equipment_id, action, "user")
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, query, history.EquipmentID, history.Action, history.User).
		Scan(&history.ID, &history.CreatedAt)
}

func (r *EquipmentHistoryRepository) FindByEquipmentID(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	return findHistory(ctx, r.storage, equipmentID)
}

func (r *EquipmentHistoryRepository) FindByEquipmentIDInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	return findHistory(ctx, tx, equipmentID)
}

// findHistory - по времени, при равенстве по id (порядок вставки)
func findHistory(ctx context.Context, q querier, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	query := `
		SELECT id, equipment_id, action, "user", created_at
		FROM equipment_history
		WHERE equipment_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := q.Query(ctx, query, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]entities.EquipmentHistory, 0)
	for rows.Next() {
		var h entities.EquipmentHistory
		if err := rows.Scan(&h.ID, &h.EquipmentID, &h.Action, &h.User, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
