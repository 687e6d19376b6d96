package repository

import (
	"context"

	"github.com/pumphouse/salesfeed/internal/domain"
)

// SalesFactRepository defines the storage operations the merge engine and
// the read feed need. ApplyBatch must apply the whole batch in one
// transaction: either every insert and update lands or none do.
type SalesFactRepository interface {
	ExistingKeys(ctx context.Context, keys []domain.FactKey) (map[domain.FactKey]struct{}, error)
	ApplyBatch(ctx context.Context, inserts, updates []domain.SalesFact) error
	ListJoined(ctx context.Context, filter FactFilter) ([]domain.FactWithStore, error)
	Count(ctx context.Context) (int64, error)
}

// FactFilter narrows the joined fact feed.
type FactFilter struct {
	FiscalYear *int
	FiscalWeek *int
	Brand      string
	StoreCode  string
	Limit      int
	Offset     int
}

// StoreDirectoryRepository manages the external store directory table.
// ReplaceAll swaps the whole directory in one transaction, matching how the
// authority distributes it (a full CSV each time).
type StoreDirectoryRepository interface {
	ReplaceAll(ctx context.Context, entries []domain.StoreDirectoryEntry) (int, error)
	List(ctx context.Context) ([]domain.StoreDirectoryEntry, error)
}

// IngestionLogRepository stores row-level ingestion errors for review.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
	List(ctx context.Context, sourceFile string, limit, offset int) ([]domain.IngestionLogEntry, error)
}
