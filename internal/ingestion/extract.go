package ingestion

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pumphouse/salesfeed/internal/domain"
)

// sizeTokenPattern matches the trailing container size token the authority
// appends to item descriptions, e.g. "Pump House Lager .3550". The token is
// litres as a decimal fraction; ".3550" is 355 ml.
var sizeTokenPattern = regexp.MustCompile(`(\d*\.\d{2,4})\s*$`)

// Extractor converts raw data rows into canonical sales facts. Only rows for
// the configured target brand are retained; the wide one-column-per-store
// layout is melted into one fact per store with a non-zero quantity.
type Extractor struct {
	TargetBrand string
}

// ExtractRow produces zero or more facts from one data row. Intentional
// skips (brand mismatch, blank or zero quantity) produce neither facts nor
// errors; invalid values are returned as row errors and never abort the file.
func (e Extractor) ExtractRow(row []string, mapping ColumnMapping, meta preambleMeta, rowNumber int) ([]domain.SalesFact, []domain.RowError) {
	brand := strings.TrimSpace(cellAt(row, mapping.VendorName))
	if !strings.EqualFold(brand, strings.TrimSpace(e.TargetBrand)) {
		return nil, nil
	}

	fiscalYear, fiscalWeek, err := resolvePeriod(row, mapping, meta)
	if err != nil {
		iv := InvalidValueError{RowNumber: rowNumber, Reason: err.Error()}
		return nil, []domain.RowError{iv.RowError()}
	}

	priceRaw := strings.TrimSpace(cellAt(row, mapping.RetailPrice))
	price := decimal.Zero
	if priceRaw != "" {
		price, err = parseDecimal(priceRaw)
		if err != nil {
			iv := InvalidValueError{RowNumber: rowNumber, Reason: "non-numeric retail price " + strconv.Quote(priceRaw)}
			return nil, []domain.RowError{iv.RowError()}
		}
		if price.IsNegative() {
			iv := InvalidValueError{RowNumber: rowNumber, Reason: "negative retail price " + priceRaw}
			return nil, []domain.RowError{iv.RowError()}
		}
	}

	product, containerMl := SplitSizeToken(cellAt(row, mapping.ItemDescription))

	var facts []domain.SalesFact
	var errs []domain.RowError
	for _, sc := range mapping.StoreQty {
		raw := strings.TrimSpace(cellAt(row, sc.Index))
		if raw == "" {
			continue
		}
		qty, qerr := parseDecimal(raw)
		if qerr != nil {
			// Stores with no sales that week leave blanks or placeholder
			// text; skipped silently, not an error.
			continue
		}
		if qty.IsZero() {
			continue
		}
		if qty.IsNegative() {
			iv := InvalidValueError{RowNumber: rowNumber, StoreCode: sc.StoreCode, Reason: "negative quantity " + raw}
			errs = append(errs, iv.RowError())
			continue
		}

		facts = append(facts, domain.SalesFact{
			FiscalYear:  fiscalYear,
			FiscalWeek:  fiscalWeek,
			Brand:       brand,
			Product:     product,
			ContainerMl: containerMl,
			StoreCode:   sc.StoreCode,
			QtySold:     qty,
			RetailPrice: price,
			DollarsSold: qty.Mul(price).Round(2),
		})
	}

	return facts, errs
}

// SplitSizeToken strips the trailing size token from an item description.
// Returns the cleaned product name and the container size in millilitres,
// 0 when the description carries no recognizable token.
func SplitSizeToken(description string) (string, int) {
	description = strings.TrimSpace(description)
	m := sizeTokenPattern.FindStringSubmatchIndex(description)
	if m == nil {
		return domain.NormalizeProduct(description), 0
	}
	token := description[m[2]:m[3]]
	litres, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return domain.NormalizeProduct(description), 0
	}
	product := domain.NormalizeProduct(description[:m[2]])
	return product, int(math.Round(litres * 1000))
}

func resolvePeriod(row []string, mapping ColumnMapping, meta preambleMeta) (int, int, error) {
	year, err := intField(row, mapping.FiscalYear, meta.FiscalYear, meta.HasFiscalYear, "fiscal year")
	if err != nil {
		return 0, 0, err
	}
	week, err := intField(row, mapping.FiscalWeek, meta.FiscalWeek, meta.HasFiscalWeek, "fiscal week")
	if err != nil {
		return 0, 0, err
	}
	if week < 1 || week > 53 {
		return 0, 0, errors.New("fiscal week " + strconv.Itoa(week) + " out of range")
	}
	return year, week, nil
}

func intField(row []string, idx int, fallback int, hasFallback bool, name string) (int, error) {
	raw := strings.TrimSpace(cellAt(row, idx))
	if idx < 0 || raw == "" {
		if hasFallback {
			return fallback, nil
		}
		return 0, errors.New(name + " is missing")
	}
	// Excel renders integers as "2025" or "2025.0" depending on cell format.
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) {
		return int(f), nil
	}
	return 0, errors.New("non-numeric " + name + " " + strconv.Quote(raw))
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	return decimal.NewFromString(raw)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
