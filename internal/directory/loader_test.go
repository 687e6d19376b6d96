package directory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pumphouse/salesfeed/internal/domain"
	"github.com/pumphouse/salesfeed/internal/repository"
)

type stubStoreRepo struct {
	entries []domain.StoreDirectoryEntry
}

func (s *stubStoreRepo) ReplaceAll(ctx context.Context, entries []domain.StoreDirectoryEntry) (int, error) {
	s.entries = entries
	return len(entries), nil
}

func (s *stubStoreRepo) List(ctx context.Context) ([]domain.StoreDirectoryEntry, error) {
	return s.entries, nil
}

var _ repository.StoreDirectoryRepository = (*stubStoreRepo)(nil)

func TestParseCSVPadsCodesAndParsesCoordinates(t *testing.T) {
	data := "StoreCode,StoreName,Address,City,Province,Lat,Lon\n" +
		"7,Main Street,123 Main St,Moncton,NB,46.0878,-64.7782\n" +
		"002,Riverside,9 River Rd,Fredericton,NB,,\n" +
		",,,,,,\n"

	entries, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "007", entries[0].StoreCode)
	require.Equal(t, "Main Street", entries[0].StoreName)
	require.Equal(t, "Moncton", entries[0].City)
	require.InDelta(t, 46.0878, entries[0].Lat, 1e-9)
	require.InDelta(t, -64.7782, entries[0].Lon, 1e-9)

	require.Equal(t, "002", entries[1].StoreCode)
	require.Zero(t, entries[1].Lat)
}

func TestParseCSVHeaderOrderIsFree(t *testing.T) {
	data := "City,Store Code,Store Name\nSaint John,14,Uptown\n"

	entries, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "014", entries[0].StoreCode)
	require.Equal(t, "Uptown", entries[0].StoreName)
	require.Equal(t, "Saint John", entries[0].City)
}

func TestParseCSVRequiresStoreCodeColumn(t *testing.T) {
	data := "StoreName,City\nMain Street,Moncton\n"

	_, err := ParseCSV(strings.NewReader(data))
	require.Error(t, err)
	require.Contains(t, err.Error(), "StoreCode")
}

func TestLoaderReplacesDirectory(t *testing.T) {
	repo := &stubStoreRepo{entries: []domain.StoreDirectoryEntry{{StoreCode: "001"}}}
	loader := NewLoader(repo)

	loaded, err := loader.Load(context.Background(), strings.NewReader(
		"StoreCode,StoreName\n2,Riverside\n7,Main Street\n"))
	require.NoError(t, err)
	require.Equal(t, 2, loaded)
	require.Len(t, repo.entries, 2)
	require.Equal(t, "002", repo.entries[0].StoreCode)
}
