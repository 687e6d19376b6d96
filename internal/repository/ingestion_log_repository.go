package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pumphouse/salesfeed/internal/db"
	"github.com/pumphouse/salesfeed/internal/domain"
)

type ingestionLogRepository struct {
	conn *db.Connection
}

// NewIngestionLogRepository wires a repository backed by pgxpool.
func NewIngestionLogRepository(conn *db.Connection) IngestionLogRepository {
	return &ingestionLogRepository{conn: conn}
}

func (r *ingestionLogRepository) Record(ctx context.Context, entry domain.IngestionLogEntry) error {
	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.conn.Pool.Exec(
		ctx,
		`INSERT INTO ingestion_logs (source_file, row_number, store_code, error_message)
		 VALUES ($1, $2, $3, $4)`,
		entry.SourceFile,
		rowNumber,
		entry.StoreCode,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingestion log: %w", err)
	}

	return nil
}

func (r *ingestionLogRepository) List(ctx context.Context, sourceFile string, limit, offset int) ([]domain.IngestionLogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, source_file, row_number, store_code, error_message, created_at
	          FROM ingestion_logs`
	args := []any{}
	if sourceFile != "" {
		query += ` WHERE source_file = $1`
		args = append(args, sourceFile)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.IngestionLogEntry{}
	for rows.Next() {
		var (
			entry     domain.IngestionLogEntry
			rowNumber pgtype.Int4
			storeCode pgtype.Text
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.SourceFile,
			&rowNumber,
			&storeCode,
			&entry.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ingestion log: %w", scanErr)
		}

		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if storeCode.Valid {
			entry.StoreCode = storeCode.String
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate ingestion logs: %w", rowsErr)
	}

	return logs, nil
}
