package importer

import (
	"bytes"
	"errors"
	"testing"

	"inventory-service/internal/costing"
	"inventory-service/internal/models"
	"inventory-service/internal/tax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setRow(t *testing.T, f *excelize.File, row int, values ...interface{}) {
	t.Helper()
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(SheetName, cell, v))
	}
}

// stockWorkbook arma una planilla con el formato de exportación del salón
func stockWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	setRow(t, f, 1, "Product Name", "HSN Code", "Units", "Opening Stock",
		"Purchase", nil, nil, nil, nil, nil, nil,
		"Sales", nil, nil, nil, nil, nil, nil,
		"Consumption")
	setRow(t, f, 2, nil, nil, nil, nil,
		"Invoice No", "Date", "Qty", "MRP Incl. GST", "GST %", "Discount %", "Interstate",
		"Invoice No", "Date", "Qty", "MRP Incl. GST", "GST %", "Discount %", "Interstate",
		"Voucher No", "Date", "Qty")
	for _, col := range []string{"A", "B", "C", "D"} {
		require.NoError(t, f.MergeCell(SheetName, col+"1", col+"2"))
	}
	require.NoError(t, f.MergeCell(SheetName, "E1", "K1"))
	require.NoError(t, f.MergeCell(SheetName, "L1", "R1"))
	require.NoError(t, f.MergeCell(SheetName, "S1", "U1"))

	setRow(t, f, 3, "TOTALS", nil, nil, 999)
	setRow(t, f, 4, "Keratin Serum", "3305", "ml", 5,
		"INV-1", 45292, 10, "₹450", 18, 5, "")
	setRow(t, f, 5, " keratin serum ", "3305", "ML", nil,
		nil, nil, nil, nil, nil, nil, nil,
		"S-1", "2024-01-15", 4, "500", 18, 0, "no",
		"V-1", "20/01/2024", 2)
	setRow(t, f, 6, nil, "3305", "ml", nil, "INV-X", 45292, 1, 10, 18)
	setRow(t, f, 7, "Shampoo", "3305", "ml", nil, "INV-2", "not a date", 4, "1,200", 18)
	setRow(t, f, 8, "Shampoo", "3305", "ml", 3)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseStockWorkbook(t *testing.T) {
	parser := NewParser(tax.Default(), costing.FIFO, nil)
	res, err := parser.Parse(stockWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Stats.Rows)
	assert.Equal(t, 3, res.Stats.Imported)
	assert.Equal(t, 2, res.Stats.Skipped)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "row 7")

	require.Len(t, res.Products, 2)
	assert.Equal(t, 5, res.Products[0].OpeningStock)
	assert.Equal(t, 3, res.Products[1].OpeningStock)

	require.Len(t, res.Purchases, 1)
	p := res.Purchases[0]
	assert.Equal(t, "2024-01-01", p.Date.Format("2006-01-02"))
	assert.Equal(t, "3622.88", p.TaxableValue.StringFixed(2))
	assert.Equal(t, "326.06", p.CGST.StringFixed(2))
	assert.Equal(t, "4275.00", p.InvoiceValue.StringFixed(2))
	assert.Equal(t, models.SyncStatusLocal, p.SyncStatus)

	require.Len(t, res.Sales, 1)
	s := res.Sales[0]
	assert.Equal(t, "1449.15", s.PurchaseTaxableValue.StringFixed(2))
	assert.Equal(t, "362.29", s.PurchaseCostPerUnitExGST.StringFixed(2))
	assert.Equal(t, "1710.00", s.TotalPurchaseCost.StringFixed(2))
	assert.Equal(t, "fifo", s.CostingPolicy)
	assert.False(t, s.Interstate)

	require.Len(t, res.Consumption, 1)
	c := res.Consumption[0]
	assert.Equal(t, "2024-01-20", c.Date.Format("2006-01-02"))
	assert.Equal(t, "724.58", c.PurchaseTaxableValue.StringFixed(2))

	require.Len(t, res.BalanceStock, 2)
	byName := map[string]*models.BalanceStockEntry{}
	for _, e := range res.BalanceStock {
		byName[e.Name] = e
	}
	serum := byName["Keratin Serum"]
	require.NotNil(t, serum)
	assert.Equal(t, 9, serum.ClosingStock)
	assert.Equal(t, "3260.59", serum.BalanceValue.StringFixed(2))
	assert.True(t, byName["Shampoo"].BalanceValue.IsZero())
}

func TestParseRejectsMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(SheetName, "Data"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = NewParser(nil, costing.FIFO, nil).Parse(buf)
	var fErr *models.FormatError
	assert.True(t, errors.As(err, &fErr))
}

func TestParseRejectsUnreadableBinary(t *testing.T) {
	_, err := NewParser(nil, costing.FIFO, nil).Parse(bytes.NewReader([]byte("definitely not a zip")))
	var fErr *models.FormatError
	assert.True(t, errors.As(err, &fErr))
}

func TestParseRequiresProductColumn(t *testing.T) {
	f := excelize.NewFile()
	setRow(t, f, 1, "Something")
	setRow(t, f, 2, "Else")
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = NewParser(nil, costing.FIFO, nil).Parse(buf)
	var fErr *models.FormatError
	assert.True(t, errors.As(err, &fErr))
}

func TestResolveFirstAliasWins(t *testing.T) {
	aliases := ColumnAliases{FieldProductName: {"product name", "item name"}}
	cols := aliases.Resolve([]string{"Item Name", "Product-Name"})
	assert.Equal(t, 1, cols[FieldProductName])

	cols = aliases.Resolve([]string{"Item  Name"})
	assert.Equal(t, 0, cols[FieldProductName])
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "purchase gst percentage", NormalizeHeader(" Purchase GST %"))
	assert.Equal(t, "mrp incl gst", NormalizeHeader("MRP (Incl. GST)"))
	assert.Equal(t, "", NormalizeHeader(" - "))
}
