package ingestion

import (
	"regexp"
	"strings"

	"github.com/pumphouse/salesfeed/internal/domain"
)

// Canonical field names resolved by the column mapper.
const (
	FieldVendorName      = "VendorName"
	FieldItemDescription = "ItemDescription"
	FieldRetailPrice     = "RetailPrice"
	FieldFiscalYear      = "FiscalYear"
	FieldFiscalWeek      = "FiscalWeek"
)

// fieldAliases is the declarative alias table: canonical field to ordered
// accepted header spellings. The authority renames columns between releases,
// so drift handling lives here and nowhere else. Aliases are compared
// case-insensitively, exact match first, then substring.
var fieldAliases = []struct {
	field   string
	aliases []string
}{
	{FieldVendorName, []string{"vendor name", "vendor", "supplier name", "supplier"}},
	{FieldItemDescription, []string{"item description", "item desc", "description"}},
	{FieldRetailPrice, []string{"retail price", "retail", "price"}},
	{FieldFiscalYear, []string{"fiscal year", "fiscal yr", "fy"}},
	{FieldFiscalWeek, []string{"fiscal week", "fiscal wk", "week"}},
}

// storeQtyPattern matches per-store quantity headers such as "002 Qty Sold",
// "7 Qty Sold", "[002] Qty. Sold". One column per store; the code becomes the
// StoreCode after zero-padding.
var storeQtyPattern = regexp.MustCompile(`(?i)^\s*\[?\s*(\d{1,3})\s*\]?\s+qty\.?\s+sold\s*$`)

// StoreColumn pairs a padded store code with the column carrying its
// quantities.
type StoreColumn struct {
	StoreCode string
	Index     int
}

// ColumnMapping is the resolved header layout for one report. Index fields
// are -1 when the column is absent.
type ColumnMapping struct {
	VendorName      int
	ItemDescription int
	RetailPrice     int
	FiscalYear      int
	FiscalWeek      int
	StoreQty        []StoreColumn
}

// ResolveColumns maps the raw header row to canonical fields. It is a pure
// function of the header row. FiscalYear and FiscalWeek may instead come from
// the sheet preamble; hasPreamblePeriod relaxes them from mandatory to
// optional.
func ResolveColumns(headers []string, hasPreamblePeriod bool) (ColumnMapping, error) {
	mapping := ColumnMapping{
		VendorName:      -1,
		ItemDescription: -1,
		RetailPrice:     -1,
		FiscalYear:      -1,
		FiscalWeek:      -1,
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, entry := range fieldAliases {
		idx := matchAlias(normalized, entry.aliases)
		switch entry.field {
		case FieldVendorName:
			mapping.VendorName = idx
		case FieldItemDescription:
			mapping.ItemDescription = idx
		case FieldRetailPrice:
			mapping.RetailPrice = idx
		case FieldFiscalYear:
			mapping.FiscalYear = idx
		case FieldFiscalWeek:
			mapping.FiscalWeek = idx
		}
	}

	for i, h := range headers {
		if m := storeQtyPattern.FindStringSubmatch(h); m != nil {
			mapping.StoreQty = append(mapping.StoreQty, StoreColumn{
				StoreCode: domain.PadStoreCode(m[1]),
				Index:     i,
			})
		}
	}

	if mapping.VendorName < 0 {
		return mapping, MissingColumnError{Field: FieldVendorName}
	}
	if mapping.ItemDescription < 0 {
		return mapping, MissingColumnError{Field: FieldItemDescription}
	}
	if mapping.RetailPrice < 0 {
		return mapping, MissingColumnError{Field: FieldRetailPrice}
	}
	if !hasPreamblePeriod {
		if mapping.FiscalYear < 0 {
			return mapping, MissingColumnError{Field: FieldFiscalYear}
		}
		if mapping.FiscalWeek < 0 {
			return mapping, MissingColumnError{Field: FieldFiscalWeek}
		}
	}
	if len(mapping.StoreQty) == 0 {
		return mapping, NoStoreColumnsError{}
	}

	return mapping, nil
}

// matchAlias returns the index of the first header matching any alias,
// preferring exact matches over substring matches so "Retail Price" beats a
// hypothetical "Retail Price Notes" column.
func matchAlias(normalized []string, aliases []string) int {
	for _, alias := range aliases {
		for i, header := range normalized {
			if header == alias {
				return i
			}
		}
	}
	for _, alias := range aliases {
		for i, header := range normalized {
			if header != "" && strings.Contains(header, alias) {
				return i
			}
		}
	}
	return -1
}

// headerRowScore counts how many canonical fields plus store columns a row
// would resolve; used to auto-detect the header row below the preamble.
func headerRowScore(row []string) int {
	score := 0
	normalized := make([]string, len(row))
	for i, h := range row {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, entry := range fieldAliases {
		if matchAlias(normalized, entry.aliases) >= 0 {
			score++
		}
	}
	for _, h := range row {
		if storeQtyPattern.MatchString(h) {
			score++
		}
	}
	return score
}
