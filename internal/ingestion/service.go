package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/pumphouse/salesfeed/internal/domain"
	"github.com/pumphouse/salesfeed/internal/merge"
	"github.com/pumphouse/salesfeed/internal/repository"
)

// Service drives one uploaded report through column mapping, fact
// extraction, and the merge engine. Structural problems fail the file before
// any row is processed; row-level problems are collected into the result and
// never abort the batch.
type Service struct {
	extractor Extractor
	engine    *merge.Engine
	logRepo   repository.IngestionLogRepository
}

// NewService creates the ingestion orchestrator.
func NewService(targetBrand string, engine *merge.Engine, logRepo repository.IngestionLogRepository) *Service {
	return &Service{
		extractor: Extractor{TargetBrand: targetBrand},
		engine:    engine,
		logRepo:   logRepo,
	}
}

// Request describes one uploaded report.
type Request struct {
	FileName string
	Data     io.Reader
}

// Result summarizes what one ingested file changed. Errors lists every row
// that was dropped for an invalid value; rows skipped by intent (brand
// mismatch, blank quantity) are not errors and appear in no list.
type Result struct {
	RunID          uuid.UUID         `json:"runId"`
	SourceFile     string            `json:"sourceFile"`
	TotalRows      int               `json:"totalRows"`
	FactsExtracted int               `json:"factsExtracted"`
	InsertedCount  int               `json:"insertedCount"`
	UpdatedCount   int               `json:"updatedCount"`
	SkippedCount   int               `json:"skippedCount"`
	Errors         []domain.RowError `json:"errors"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// Ingest runs the full pipeline for one file.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return Result{}, errors.New("file name is required")
	}
	if req.Data == nil {
		return Result{}, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return Result{}, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return Result{}, err
	}

	mapping, err := ResolveColumns(table.headers, table.preamble.hasPeriod())
	if err != nil {
		return Result{}, err
	}

	result := Result{
		RunID:      uuid.New(),
		SourceFile: req.FileName,
		TotalRows:  len(table.rows),
		Errors:     []domain.RowError{},
	}

	var facts []domain.SalesFact
	for rowIdx, row := range table.rows {
		// 1-based sheet position, so reported numbers match what the user
		// sees in Excel even when blank rows were skipped.
		rowNumber := table.rowNumbers[rowIdx]
		rowFacts, rowErrs := s.extractor.ExtractRow(row, mapping, table.preamble, rowNumber)
		facts = append(facts, rowFacts...)
		result.Errors = append(result.Errors, rowErrs...)
	}
	result.FactsExtracted = len(facts)

	summary, err := s.engine.Merge(ctx, facts, req.FileName)
	if err != nil {
		return Result{}, err
	}

	result.InsertedCount = summary.Inserted
	result.UpdatedCount = summary.Updated
	result.SkippedCount = summary.Skipped + len(result.Errors)
	result.Warnings = summary.Warnings

	s.recordErrors(ctx, req.FileName, result.Errors)

	return result, nil
}

// recordErrors persists row errors for later review. Best effort: a logging
// failure must not fail an otherwise committed ingestion.
func (s *Service) recordErrors(ctx context.Context, sourceFile string, errs []domain.RowError) {
	if s.logRepo == nil {
		return
	}
	for _, rowErr := range errs {
		row := rowErr.RowNumber
		_ = s.logRepo.Record(ctx, domain.IngestionLogEntry{
			SourceFile:   sourceFile,
			RowNumber:    &row,
			StoreCode:    rowErr.StoreCode,
			ErrorMessage: rowErr.Message,
		})
	}
}
