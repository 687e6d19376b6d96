package ingestion

import (
	"errors"
	"fmt"

	"github.com/pumphouse/salesfeed/internal/domain"
)

// ErrUnsupportedFormat is returned when an uploaded file is neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// MissingColumnError reports a mandatory canonical field that no header in
// the uploaded report resolved to. The file is structurally unusable and
// nothing is committed.
type MissingColumnError struct {
	Field string
}

func (e MissingColumnError) Error() string {
	return fmt.Sprintf("no column found for %s", e.Field)
}

// NoStoreColumnsError reports a report with no per-store quantity columns at
// all, which means there is nothing to extract.
type NoStoreColumnsError struct{}

func (NoStoreColumnsError) Error() string {
	return "no store quantity columns matched the header row"
}

// InvalidValueError reports a cell that could not be coerced to the expected
// type (non-numeric or negative price, negative quantity). It is collected
// per row and never aborts the file.
type InvalidValueError struct {
	RowNumber int
	StoreCode string
	Reason    string
}

func (e InvalidValueError) Error() string {
	if e.StoreCode != "" {
		return fmt.Sprintf("row %d store %s: %s", e.RowNumber, e.StoreCode, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.RowNumber, e.Reason)
}

// RowError converts the error to the reportable form carried in an
// ingestion result.
func (e InvalidValueError) RowError() domain.RowError {
	return domain.RowError{RowNumber: e.RowNumber, StoreCode: e.StoreCode, Message: e.Reason}
}

// IsStructural reports whether err should abort the whole file before any
// row is processed.
func IsStructural(err error) bool {
	var missing MissingColumnError
	var noStores NoStoreColumnsError
	return errors.As(err, &missing) || errors.As(err, &noStores) || errors.Is(err, ErrUnsupportedFormat)
}
