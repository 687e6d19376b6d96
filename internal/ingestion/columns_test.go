package ingestion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveColumns(t *testing.T) {
	headers := []string{
		"Item UPC", "Item Description", "Vendor Name", "Class", "Container Size",
		"Retail Price", "Fiscal Year", "Fiscal Week", "002 Qty Sold", "7 Qty Sold",
		"002 Qty On Hand",
	}

	mapping, err := ResolveColumns(headers, false)
	require.NoError(t, err)
	require.Equal(t, 2, mapping.VendorName)
	require.Equal(t, 1, mapping.ItemDescription)
	require.Equal(t, 5, mapping.RetailPrice)
	require.Equal(t, 6, mapping.FiscalYear)
	require.Equal(t, 7, mapping.FiscalWeek)

	require.Len(t, mapping.StoreQty, 2)
	require.Equal(t, StoreColumn{StoreCode: "002", Index: 8}, mapping.StoreQty[0])
	require.Equal(t, StoreColumn{StoreCode: "007", Index: 9}, mapping.StoreQty[1])
}

func TestResolveColumnsCaseAndAliasDrift(t *testing.T) {
	headers := []string{"SUPPLIER", "Item Desc", "RETAIL", "fiscal yr", "WEEK", "[014] Qty. Sold"}

	mapping, err := ResolveColumns(headers, false)
	require.NoError(t, err)
	require.Equal(t, 0, mapping.VendorName)
	require.Equal(t, 1, mapping.ItemDescription)
	require.Equal(t, 2, mapping.RetailPrice)
	require.Equal(t, 3, mapping.FiscalYear)
	require.Equal(t, 4, mapping.FiscalWeek)
	require.Equal(t, "014", mapping.StoreQty[0].StoreCode)
}

func TestResolveColumnsMissingMandatoryField(t *testing.T) {
	headers := []string{"Vendor Name", "Item Description", "Fiscal Year", "Fiscal Week", "002 Qty Sold"}

	_, err := ResolveColumns(headers, false)
	var missing MissingColumnError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, FieldRetailPrice, missing.Field)
	require.True(t, IsStructural(err))
}

func TestResolveColumnsNoStoreColumns(t *testing.T) {
	headers := []string{"Vendor Name", "Item Description", "Retail Price", "Fiscal Year", "Fiscal Week", "Total"}

	_, err := ResolveColumns(headers, false)
	var noStores NoStoreColumnsError
	require.ErrorAs(t, err, &noStores)
	require.True(t, IsStructural(err))
}

func TestResolveColumnsPreambleRelaxesPeriodFields(t *testing.T) {
	headers := []string{"Vendor Name", "Item Description", "Retail Price", "002 Qty Sold"}

	_, err := ResolveColumns(headers, false)
	require.Error(t, err)

	mapping, err := ResolveColumns(headers, true)
	require.NoError(t, err)
	require.Equal(t, -1, mapping.FiscalYear)
	require.Equal(t, -1, mapping.FiscalWeek)
}

func TestStoreQtyPatternRejectsOnHand(t *testing.T) {
	require.True(t, storeQtyPattern.MatchString("002 Qty Sold"))
	require.True(t, storeQtyPattern.MatchString("  [002]  Qty. Sold "))
	require.False(t, storeQtyPattern.MatchString("002 Qty On Hand"))
	require.False(t, storeQtyPattern.MatchString("Qty Sold"))
}
