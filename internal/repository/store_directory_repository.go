package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pumphouse/salesfeed/internal/db"
	"github.com/pumphouse/salesfeed/internal/domain"
)

type storeDirectoryRepository struct {
	conn *db.Connection
}

// NewStoreDirectoryRepository creates the pgx-backed store directory.
func NewStoreDirectoryRepository(conn *db.Connection) StoreDirectoryRepository {
	return &storeDirectoryRepository{conn: conn}
}

// ReplaceAll swaps the directory wholesale. The authority ships the full
// directory every time, so partial updates have no use case.
func (r *storeDirectoryRepository) ReplaceAll(ctx context.Context, entries []domain.StoreDirectoryEntry) (int, error) {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stores`); err != nil {
			return fmt.Errorf("failed to clear stores: %w", err)
		}

		batch := &pgx.Batch{}
		for _, entry := range entries {
			batch.Queue(
				`INSERT INTO stores (store_code, store_name, address, city, province, lat, lon)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				domain.PadStoreCode(entry.StoreCode), entry.StoreName, entry.Address,
				entry.City, entry.Province, entry.Lat, entry.Lon,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to insert store: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(entries), nil
}

func (r *storeDirectoryRepository) List(ctx context.Context) ([]domain.StoreDirectoryEntry, error) {
	rows, err := r.conn.Pool.Query(ctx,
		`SELECT store_code, store_name, address, city, province, lat, lon
		 FROM stores
		 ORDER BY store_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	entries := []domain.StoreDirectoryEntry{}
	for rows.Next() {
		var entry domain.StoreDirectoryEntry
		if err := rows.Scan(
			&entry.StoreCode, &entry.StoreName, &entry.Address,
			&entry.City, &entry.Province, &entry.Lat, &entry.Lon,
		); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stores: %w", err)
	}

	return entries, nil
}
