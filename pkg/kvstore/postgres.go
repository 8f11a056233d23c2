package kvstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/database"
)

// postgresStore keeps every record as one row in launchgate_records, blob in
// a jsonb column. The composite primary key (collection, key) is what makes
// SetNX an atomic insert-if-absent.
type postgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db *database.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM launchgate_records
		WHERE collection = $1 AND key = $2`

	var value []byte
	err := s.db.QueryRow(ctx, query, collection, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return value, nil
}

func (s *postgresStore) Set(ctx context.Context, collection, key string, value []byte) error {
	query := `
		INSERT INTO launchgate_records (collection, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(ctx, query, collection, key, value); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}
	return nil
}

func (s *postgresStore) SetNX(ctx context.Context, collection, key string, value []byte) error {
	query := `
		INSERT INTO launchgate_records (collection, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, key) DO NOTHING`

	result, err := s.db.Exec(ctx, query, collection, key, value)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, collection, key string) error {
	query := `DELETE FROM launchgate_records WHERE collection = $1 AND key = $2`

	result, err := s.db.Exec(ctx, query, collection, key)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *postgresStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	query := `
		SELECT key, value
		FROM launchgate_records
		WHERE collection = $1`

	rows, err := s.db.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return out, nil
}

var _ Store = (*postgresStore)(nil)
