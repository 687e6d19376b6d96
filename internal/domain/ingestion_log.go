package domain

import (
	"time"

	"github.com/google/uuid"
)

// RowError captures one row or cell level problem found while extracting
// facts from an uploaded report. Row errors never abort the file; they are
// collected and returned with the ingestion result.
type RowError struct {
	RowNumber int    `json:"rowNumber"`
	StoreCode string `json:"storeCode,omitempty"`
	Message   string `json:"message"`
}

func (e RowError) Error() string {
	return e.Message
}

// IngestionLogEntry is the persisted form of a RowError, kept per source file
// so the admin UI can review what a past upload skipped.
type IngestionLogEntry struct {
	ID           uuid.UUID `json:"id"`
	SourceFile   string    `json:"sourceFile"`
	RowNumber    *int      `json:"rowNumber,omitempty"`
	StoreCode    string    `json:"storeCode,omitempty"`
	ErrorMessage string    `json:"errorMessage"`
	CreatedAt    time.Time `json:"createdAt"`
}
