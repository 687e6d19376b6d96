package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pumphouse/salesfeed/internal/domain"
	"github.com/pumphouse/salesfeed/internal/merge"
	"github.com/pumphouse/salesfeed/internal/repository"
)

type stubFactRepo struct {
	rows      map[domain.FactKey]domain.SalesFact
	failApply bool
}

func newStubFactRepo() *stubFactRepo {
	return &stubFactRepo{rows: map[domain.FactKey]domain.SalesFact{}}
}

func (s *stubFactRepo) ExistingKeys(ctx context.Context, keys []domain.FactKey) (map[domain.FactKey]struct{}, error) {
	existing := map[domain.FactKey]struct{}{}
	for _, key := range keys {
		if _, ok := s.rows[key]; ok {
			existing[key] = struct{}{}
		}
	}
	return existing, nil
}

func (s *stubFactRepo) ApplyBatch(ctx context.Context, inserts, updates []domain.SalesFact) error {
	if s.failApply {
		return errors.New("storage unavailable")
	}
	for _, fact := range inserts {
		s.rows[fact.Key()] = fact
	}
	for _, fact := range updates {
		s.rows[fact.Key()] = fact
	}
	return nil
}

func (s *stubFactRepo) ListJoined(ctx context.Context, filter repository.FactFilter) ([]domain.FactWithStore, error) {
	return nil, errors.New("not implemented")
}

func (s *stubFactRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(s.rows)), nil
}

type stubLogRepo struct {
	entries []domain.IngestionLogEntry
}

func (s *stubLogRepo) Record(ctx context.Context, entry domain.IngestionLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogRepo) List(ctx context.Context, sourceFile string, limit, offset int) ([]domain.IngestionLogEntry, error) {
	return s.entries, nil
}

var _ repository.SalesFactRepository = (*stubFactRepo)(nil)
var _ repository.IngestionLogRepository = (*stubLogRepo)(nil)

func newTestService(repo *stubFactRepo, logs *stubLogRepo) *Service {
	engine := merge.NewEngine(repo, merge.PolicyLastWriteWins)
	return NewService("Pump House", engine, logs)
}

const csvHeader = "Vendor Name,Item Description,Retail Price,Fiscal Year,Fiscal Week,002 Qty Sold,007 Qty Sold\n"

func TestServiceIngestPartiallyMalformedFile(t *testing.T) {
	repo := newStubFactRepo()
	logs := &stubLogRepo{}
	service := newTestService(repo, logs)

	// Ten data rows; row 7 (sheet position 8) carries a negative price.
	var sb strings.Builder
	sb.WriteString(csvHeader)
	for i := 0; i < 10; i++ {
		price := "24.99"
		if i == 6 {
			price = "-24.99"
		}
		fmt.Fprintf(&sb, "Pump House,Pump House Brew %d .3550,%s,2025,12,4,\n", i, price)
	}

	result, err := service.Ingest(context.Background(), Request{
		FileName: "week12.csv",
		Data:     strings.NewReader(sb.String()),
	})
	require.NoError(t, err)

	require.Equal(t, 10, result.TotalRows)
	require.Equal(t, 9, result.FactsExtracted)
	require.Equal(t, 9, result.InsertedCount)
	require.Equal(t, 0, result.UpdatedCount)
	require.Equal(t, 1, result.SkippedCount)

	require.Len(t, result.Errors, 1)
	require.Equal(t, 8, result.Errors[0].RowNumber)
	require.Contains(t, result.Errors[0].Message, "negative retail price")

	require.Len(t, logs.entries, 1)
	require.Equal(t, "week12.csv", logs.entries[0].SourceFile)
	require.Len(t, repo.rows, 9)
}

func TestServiceIngestTwiceIsIdempotent(t *testing.T) {
	repo := newStubFactRepo()
	service := newTestService(repo, &stubLogRepo{})

	data := csvHeader +
		"Pump House,Pump House Lager .3550,24.99,2025,12,4,2\n" +
		"Pump House,Pump House IPA .4730,26.49,2025,12,,3\n"

	first, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader(data)})
	require.NoError(t, err)
	require.Equal(t, 3, first.InsertedCount)
	require.Equal(t, 0, first.UpdatedCount)

	second, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader(data)})
	require.NoError(t, err)
	require.Equal(t, 0, second.InsertedCount)
	require.Equal(t, 3, second.UpdatedCount)

	require.Len(t, repo.rows, 3)
}

func TestServiceIngestRowNumbersSkipBlankRows(t *testing.T) {
	repo := newStubFactRepo()
	service := newTestService(repo, &stubLogRepo{})

	// Header is sheet row 1; the blank row 3 must not shift the numbering of
	// the bad row at sheet row 4.
	data := csvHeader +
		"Pump House,Pump House Lager .3550,24.99,2025,12,4,\n" +
		",,,,,,\n" +
		"Pump House,Pump House IPA .4730,-26.49,2025,12,3,\n"

	result, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader(data)})
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalRows)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 4, result.Errors[0].RowNumber)
}

func TestServiceIngestFiltersOtherBrands(t *testing.T) {
	repo := newStubFactRepo()
	service := newTestService(repo, &stubLogRepo{})

	data := csvHeader +
		"Some Other Brewery,Other Lager .3550,19.99,2025,12,4,2\n" +
		"Pump House,Pump House Lager .3550,24.99,2025,12,4,\n"

	result, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader(data)})
	require.NoError(t, err)

	// Brand mismatch is an intentional skip: no fact, no error.
	require.Equal(t, 2, result.TotalRows)
	require.Equal(t, 1, result.FactsExtracted)
	require.Empty(t, result.Errors)
	require.Len(t, repo.rows, 1)
}

func TestServiceIngestFailsFastOnMissingColumn(t *testing.T) {
	repo := newStubFactRepo()
	logs := &stubLogRepo{}
	service := newTestService(repo, logs)

	data := "Item Description,Retail Price,Fiscal Year,Fiscal Week,002 Qty Sold\n" +
		"Pump House Lager .3550,24.99,2025,12,4\n"

	_, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader(data)})
	var missing MissingColumnError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, FieldVendorName, missing.Field)

	require.Empty(t, repo.rows)
	require.Empty(t, logs.entries)
}

func TestServiceIngestPreambleReport(t *testing.T) {
	repo := newStubFactRepo()
	service := newTestService(repo, &stubLogRepo{})

	data := "Fiscal Year,2026\n" +
		"Fiscal Week,8\n" +
		"Inventory Pull Date,2026-02-21\n" +
		"Sold Date Range,Feb 15 - Feb 21\n" +
		"Vendor Name,Item Description,Retail Price,002 Qty Sold\n" +
		"Pump House,Pump House Lager .3550,24.99,4\n"

	result, err := service.Ingest(context.Background(), Request{FileName: "supplier_report.csv", Data: strings.NewReader(data)})
	require.NoError(t, err)
	require.Equal(t, 1, result.InsertedCount)

	for key := range repo.rows {
		require.Equal(t, 2026, key.FiscalYear)
		require.Equal(t, 8, key.FiscalWeek)
	}
}

func TestServiceIngestStoreFailureIsFatalForFile(t *testing.T) {
	repo := newStubFactRepo()
	repo.failApply = true
	service := newTestService(repo, &stubLogRepo{})

	data := csvHeader + "Pump House,Pump House Lager .3550,24.99,2025,12,4,\n"

	_, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader(data)})
	var txErr merge.StoreTransactionError
	require.ErrorAs(t, err, &txErr)
	require.Empty(t, repo.rows)
}

func TestServiceIngestRejectsEmptyUpload(t *testing.T) {
	service := newTestService(newStubFactRepo(), &stubLogRepo{})

	_, err := service.Ingest(context.Background(), Request{FileName: "week12.csv", Data: strings.NewReader("")})
	require.Error(t, err)
}
