package directory

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pumphouse/salesfeed/internal/domain"
	"github.com/pumphouse/salesfeed/internal/repository"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Loader replaces the store directory from the authority's CSV export.
type Loader struct {
	repo repository.StoreDirectoryRepository
}

// NewLoader wires the loader over the directory repository.
func NewLoader(repo repository.StoreDirectoryRepository) *Loader {
	return &Loader{repo: repo}
}

// Load parses the CSV and swaps the directory table in one transaction.
// Returns the number of stores loaded.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	entries, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	return l.repo.ReplaceAll(ctx, entries)
}

// ParseCSV reads a directory CSV with columns
// StoreCode,StoreName,Address,City,Province,Lat,Lon. Column order is free;
// headers are matched case-insensitively. Store codes are zero-padded to
// three characters to line up with fact store codes.
func ParseCSV(r io.Reader) ([]domain.StoreDirectoryEntry, error) {
	reader := bufio.NewReader(r)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read stores csv: %w", err)
	}
	if len(records) < 1 {
		return nil, errors.New("stores csv is empty")
	}

	cols := map[string]int{}
	for i, header := range records[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", ""))
		cols[key] = i
	}

	codeIdx, ok := cols["storecode"]
	if !ok {
		return nil, errors.New("stores csv is missing a StoreCode column")
	}

	entries := []domain.StoreDirectoryEntry{}
	for _, row := range records[1:] {
		code := strings.TrimSpace(cell(row, codeIdx))
		if code == "" {
			continue
		}
		entries = append(entries, domain.StoreDirectoryEntry{
			StoreCode: domain.PadStoreCode(code),
			StoreName: strings.TrimSpace(cell(row, index(cols, "storename"))),
			Address:   strings.TrimSpace(cell(row, index(cols, "address"))),
			City:      strings.TrimSpace(cell(row, index(cols, "city"))),
			Province:  strings.TrimSpace(cell(row, index(cols, "province"))),
			Lat:       floatCell(row, index(cols, "lat")),
			Lon:       floatCell(row, index(cols, "lon")),
		})
	}

	return entries, nil
}

func index(cols map[string]int, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func floatCell(row []string, idx int) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx)), 64)
	if err != nil {
		return 0
	}
	return value
}
