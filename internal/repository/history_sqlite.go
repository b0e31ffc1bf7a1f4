package repository

import (
	"context"
	"database/sql"
	"time"

	"car-price/internal/domain"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteHistorySchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id              TEXT PRIMARY KEY,
	timestamp       INTEGER NOT NULL,
	brand           TEXT NOT NULL,
	model           TEXT NOT NULL,
	year            INTEGER NOT NULL,
	power           INTEGER NOT NULL,
	body_type       TEXT NOT NULL,
	color           TEXT NOT NULL,
	fuel_type       TEXT NOT NULL,
	predicted_price REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
`

// SQLiteHistoryRepository is the local file-backed history store. Timestamps
// are stored as unix nanoseconds so ordering is numeric.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository opens the store at path and applies its schema.
// A single connection serializes writers.
func NewSQLiteHistoryRepository(ctx context.Context, path string) (*SQLiteHistoryRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteHistorySchema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

func (s *SQLiteHistoryRepository) Create(ctx context.Context, record *domain.PredictionRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO predictions
			(id, timestamp, brand, model, year, power, body_type, color, fuel_type, predicted_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.UnixNano(),
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
		return eris.Wrapf(err, "sqlite: insert prediction %s", record.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrDuplicateRecord
	}
	return nil
}

func (s *SQLiteHistoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, brand, model, year, power, body_type, color, fuel_type, predicted_price
		FROM predictions
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list predictions")
	}
	defer rows.Close()

	records := make([]*domain.PredictionRecord, 0)
	for rows.Next() {
		var (
			record domain.PredictionRecord
			nanos  int64
		)
		if err := rows.Scan(
			&record.ID,
			&nanos,
			&record.Car.Brand,
			&record.Car.Name,
			&record.Car.Year,
			&record.Car.Power,
			&record.Car.BodyType,
			&record.Car.Color,
			&record.Car.FuelType,
			&record.PredictedPrice,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prediction")
		}
		record.Timestamp = time.Unix(0, nanos).UTC()
		records = append(records, &record)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate predictions")
}

func (s *SQLiteHistoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM predictions WHERE id = ?`, id)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: delete prediction %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteHistoryRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteHistoryRepository) Backend() string {
	return BackendSQLite
}

func (s *SQLiteHistoryRepository) Close() error {
	return s.db.Close()
}
