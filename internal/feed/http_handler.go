package feed

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pumphouse/salesfeed/internal/repository"
)

// Handler serves the merged fact feed the dashboard renders from, as JSON
// and as a CSV download. Read-only; the ingestion pipeline is the only
// writer.
type Handler struct {
	facts repository.SalesFactRepository
}

// NewHTTPHandler wraps the fact repository for mounting on a router.
func NewHTTPHandler(facts repository.SalesFactRepository) *Handler {
	return &Handler{facts: facts}
}

// HandleList returns facts joined to the store directory, filterable by
// fiscal year/week, brand, and store code.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	facts, err := h.facts.ListJoined(r.Context(), filterFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"facts": facts, "count": len(facts)})
}

// HandleCSV streams the same view as a CSV attachment.
func (h *Handler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	facts, err := h.facts.ListJoined(r.Context(), filterFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales_facts.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"FiscalYear", "FiscalWeek", "Brand", "Product", "ContainerMl", "StoreCode",
		"StoreName", "City", "QtySold", "RetailPrice", "DollarsSold", "SourceFile",
	})
	for _, fact := range facts {
		_ = writer.Write([]string{
			strconv.Itoa(fact.FiscalYear),
			strconv.Itoa(fact.FiscalWeek),
			fact.Brand,
			fact.Product,
			strconv.Itoa(fact.ContainerMl),
			fact.StoreCode,
			fact.StoreName,
			fact.City,
			fact.QtySold.String(),
			fact.RetailPrice.String(),
			fact.DollarsSold.String(),
			fact.SourceFile,
		})
	}
	writer.Flush()
}

func filterFromQuery(r *http.Request) repository.FactFilter {
	query := r.URL.Query()
	filter := repository.FactFilter{
		Brand:     strings.TrimSpace(query.Get("brand")),
		StoreCode: strings.TrimSpace(query.Get("store")),
	}
	if year, err := strconv.Atoi(query.Get("year")); err == nil {
		filter.FiscalYear = &year
	}
	if week, err := strconv.Atoi(query.Get("week")); err == nil {
		filter.FiscalWeek = &week
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}
	return filter
}
