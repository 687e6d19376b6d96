package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// supplierSheet is the sheet name the authority uses for its weekly export.
// Parsing prefers it when present and falls back to the first sheet.
const supplierSheet = "SUPPLIER REPORT"

// tableData is the normalized long-lived view of one uploaded report: the
// detected header row, the data rows below it, and whatever period metadata
// the preamble rows above the header carried.
type tableData struct {
	headers        []string
	rows           [][]string
	rowNumbers     []int // 1-based sheet position of each data row
	headerRowIndex int
	preamble       preambleMeta
}

// preambleMeta holds label/value pairs the authority writes above the header
// row. Fiscal year and week from here act as defaults when the mapped
// columns are absent.
type preambleMeta struct {
	FiscalYear    int
	FiscalWeek    int
	HasFiscalYear bool
	HasFiscalWeek bool
	PullDate      string
	SoldDateRange string
}

func (m preambleMeta) hasPeriod() bool {
	return m.HasFiscalYear && m.HasFiscalWeek
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	case ".xls":
		// excelize reads OOXML only; the authority's legacy binary export
		// has to be converted first.
		return tableData{}, fmt.Errorf("%w: legacy .xls, convert to .xlsx", ErrUnsupportedFormat)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), supplierSheet) {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}

	return normalizeTable(rows)
}

// normalizeTable locates the header row, scans the preamble above it, and
// pads data rows to the header width. The header row is the first row that
// resolves canonical fields or store columns; the authority's export places
// it below four metadata rows, but the position drifts.
func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	headerIndex := -1
	for idx, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if headerRowScore(row) >= 2 {
			headerIndex = idx
			break
		}
	}
	if headerIndex < 0 {
		// Fall back to the first non-empty row.
		for idx, row := range records {
			if len(cleanRow(row)) > 0 {
				headerIndex = idx
				break
			}
		}
	}
	if headerIndex < 0 {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := make([]string, len(records[headerIndex]))
	for i, value := range records[headerIndex] {
		headers[i] = strings.TrimSpace(value)
	}

	var dataRows [][]string
	var rowNumbers []int
	for idx := headerIndex + 1; idx < len(records); idx++ {
		row := records[idx]
		if len(cleanRow(row)) == 0 {
			continue
		}
		dataRows = append(dataRows, padRow(row, len(headers)))
		rowNumbers = append(rowNumbers, idx+1)
	}

	return tableData{
		headers:        headers,
		rows:           dataRows,
		rowNumbers:     rowNumbers,
		headerRowIndex: headerIndex,
		preamble:       scanPreamble(records[:headerIndex]),
	}, nil
}

// scanPreamble reads label/value rows above the header. Labels sit in the
// first non-empty cell, the value in the next one.
func scanPreamble(records [][]string) preambleMeta {
	var meta preambleMeta
	for _, row := range records {
		label, value := labelValue(row)
		if label == "" {
			continue
		}
		switch {
		case strings.Contains(label, "fiscal year"):
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				meta.FiscalYear = n
				meta.HasFiscalYear = true
			}
		case strings.Contains(label, "fiscal week"):
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				meta.FiscalWeek = n
				meta.HasFiscalWeek = true
			}
		case strings.Contains(label, "pull date"):
			meta.PullDate = strings.TrimSpace(value)
		case strings.Contains(label, "sold date"):
			meta.SoldDateRange = strings.TrimSpace(value)
		}
	}
	return meta
}

func labelValue(row []string) (string, string) {
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		label := strings.ToLower(strings.TrimRight(cell, ":"))
		for j := i + 1; j < len(row); j++ {
			if strings.TrimSpace(row[j]) != "" {
				return label, row[j]
			}
		}
		return label, ""
	}
	return "", ""
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
