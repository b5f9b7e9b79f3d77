package repo

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresBlobRepository keeps one text document per key in wind_kv.
type PostgresBlobRepository struct {
	db *sql.DB
}

func NewPostgresBlobDB(db *sql.DB) *PostgresBlobRepository {
	return &PostgresBlobRepository{db: db}
}

func (r *PostgresBlobRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM wind_kv WHERE key=$1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (r *PostgresBlobRepository) Save(ctx context.Context, key string, data []byte) error {
	query := `INSERT INTO wind_kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := r.db.ExecContext(ctx, query, key, string(data))
	return err
}
