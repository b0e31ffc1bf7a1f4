package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"car-price/internal/domain"
)

var (
	ErrDuplicateRecord = errors.New("prediction record already exists")
)

// Backend names reported by the history stores
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// HistoryRepository defines the interface for prediction history access
type HistoryRepository interface {
	Create(ctx context.Context, record *domain.PredictionRecord) error
	List(ctx context.Context, limit, offset int) ([]*domain.PredictionRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
	Backend() string
	Close() error
}

type postgresHistoryRepository struct {
	db *sql.DB
}

// NewPostgresHistoryRepository creates the networked history store
func NewPostgresHistoryRepository(db *sql.DB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

// Create inserts a prediction record inside its own transaction
func (r *postgresHistoryRepository) Create(ctx context.Context, record *domain.PredictionRecord) error {
	query := `
		INSERT INTO predictions (id, timestamp, brand, model, year, power, body_type, color, fuel_type, predicted_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		query,
		record.ID,
		record.Timestamp,
		record.Car.Brand,
		record.Car.Name,
		record.Car.Year,
		record.Car.Power,
		record.Car.BodyType,
		record.Car.Color,
		record.Car.FuelType,
		record.PredictedPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicateRecord
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prediction record: %w", err)
	}
	return nil
}

// List returns records newest first
func (r *postgresHistoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.PredictionRecord, error) {
	query := `
		SELECT id, timestamp, brand, model, year, power, body_type, color, fuel_type, predicted_price
		FROM predictions
		ORDER BY timestamp DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list prediction records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Delete removes a record; deleting a missing id reports false
func (r *postgresHistoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM predictions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete prediction record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *postgresHistoryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *postgresHistoryRepository) Backend() string {
	return BackendPostgres
}

func (r *postgresHistoryRepository) Close() error {
	return r.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*domain.PredictionRecord, error) {
	records := make([]*domain.PredictionRecord, 0)
	for rows.Next() {
		record := &domain.PredictionRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.Timestamp,
			&record.Car.Brand,
			&record.Car.Name,
			&record.Car.Year,
			&record.Car.Power,
			&record.Car.BodyType,
			&record.Car.Color,
			&record.Car.FuelType,
			&record.PredictedPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prediction records: %w", err)
	}
	return records, nil
}
