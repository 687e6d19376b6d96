package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesFact is one canonical sales observation: one product sold at one store
// during one fiscal week. Rows are created only by the merge path and are
// identified by FactKey; re-ingesting a corrected report replaces the measures
// of the matching row rather than duplicating it.
type SalesFact struct {
	ID          uuid.UUID       `json:"id"`
	FiscalYear  int             `json:"fiscalYear"`
	FiscalWeek  int             `json:"fiscalWeek"`
	Brand       string          `json:"brand"`
	Product     string          `json:"product"`
	ContainerMl int             `json:"containerMl"`
	StoreCode   string          `json:"storeCode"`
	QtySold     decimal.Decimal `json:"qtySold"`
	RetailPrice decimal.Decimal `json:"retailPrice"`
	DollarsSold decimal.Decimal `json:"dollarsSold"`
	SourceFile  string          `json:"sourceFile"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FactKey is the dedup identity of a SalesFact. At most one stored fact may
// carry a given key at any time.
type FactKey struct {
	FiscalYear int
	FiscalWeek int
	Product    string
	StoreCode  string
}

// Key builds the dedup key for the fact. Product goes through the same
// normalization as extraction so cosmetic whitespace differences between
// re-ingests of the same report cannot split a product into two keys.
func (f SalesFact) Key() FactKey {
	return FactKey{
		FiscalYear: f.FiscalYear,
		FiscalWeek: f.FiscalWeek,
		Product:    NormalizeProduct(f.Product),
		StoreCode:  PadStoreCode(f.StoreCode),
	}
}

// NormalizeProduct trims and collapses internal whitespace.
func NormalizeProduct(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PadStoreCode left-pads numeric store codes to the canonical three
// characters, so a "7 Qty Sold" header and a "007 Qty Sold" header land on
// the same store.
func PadStoreCode(code string) string {
	code = strings.TrimSpace(code)
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}
