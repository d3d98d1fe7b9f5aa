package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-wardrobe/internal/store"
)

// StateBlobRepository stores named state blobs in the state_blobs table
type StateBlobRepository struct {
	db  *DB
	now func() time.Time
}

var _ store.BlobStore = (*StateBlobRepository)(nil)

// NewStateBlobRepository creates a new state blob repository
func NewStateBlobRepository(db *DB) *StateBlobRepository {
	return &StateBlobRepository{db: db, now: time.Now}
}

// Get retrieves a blob by key. A missing row is store.ErrNotFound.
func (r *StateBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM state_blobs WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state blob: %w", err)
	}
	return data, nil
}

// Put upserts a blob
func (r *StateBlobRepository) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO state_blobs (key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, key, data, r.now())
	if err != nil {
		return fmt.Errorf("put state blob: %w", err)
	}
	return nil
}

// Delete removes a blob. Missing rows are not an error.
func (r *StateBlobRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM state_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete state blob: %w", err)
	}
	return nil
}
