package ledger

import (
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serum = models.ProductKey{Name: "Keratin Serum", HSNCode: "3305", Units: "ml"}

func at(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func buy(key models.ProductKey, date string, qty int, taxable, gst string, interstate bool) *models.PurchaseRecord {
	return &models.PurchaseRecord{
		ProductKey: key,
		Date:       at(date),
		InvoiceNo:  "P-" + date,
		Qty:        qty,
		TaxFields: models.TaxFields{
			TaxableValue:  decimal.RequireFromString(taxable),
			GSTPercentage: decimal.RequireFromString(gst),
			Interstate:    interstate,
		},
	}
}

func fixture() Ledgers {
	return Ledgers{
		Products: []*models.Product{{ProductKey: serum, OpeningStock: 5}},
		Purchases: []*models.PurchaseRecord{
			buy(serum, "2024-02-10", 10, "1000", "18", false),
			buy(models.ProductKey{Name: " keratin  SERUM", HSNCode: "3305 ", Units: "ML"}, "2024-01-05", 10, "1500", "12", true),
		},
		Sales: []*models.SaleRecord{
			{ProductKey: serum, Date: at("2024-03-01"), Qty: 8},
			{ProductKey: models.ProductKey{Name: "Ghost Wax"}, Date: at("2024-03-01"), Qty: 3},
		},
		Consumption: []*models.ConsumptionRecord{
			{ProductKey: serum, Date: at("2024-03-02"), Qty: 2},
		},
	}
}

func TestComputeBalancesClosingIdentity(t *testing.T) {
	entries, warnings := ComputeBalances(fixture())
	require.Empty(t, warnings)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.Equal(t, e.OpeningStock+e.PurchasedQty-e.SoldQty-e.ConsumedQty, e.ClosingStock)
	}
}

func TestComputeBalancesValuation(t *testing.T) {
	entry, _ := BalanceFor(fixture(), serum)
	require.NotNil(t, entry)

	assert.Equal(t, 15, entry.ClosingStock)
	assert.Equal(t, "125.00", entry.AvgCost.StringFixed(2))
	assert.Equal(t, "1875.00", entry.BalanceValue.StringFixed(2))
	// la primera compra por fecha define tasa y tipo de división
	assert.Equal(t, "12", entry.GSTPercentage.String())
	assert.Equal(t, "225.00", entry.IGST.StringFixed(2))
	assert.True(t, entry.CGST.IsZero())
	assert.Equal(t, "2100.00", entry.TotalValue.StringFixed(2))
}

func TestComputeBalancesUnknownProduct(t *testing.T) {
	entry, warnings := BalanceFor(fixture(), models.ProductKey{Name: "ghost wax"})
	require.Empty(t, warnings)
	require.NotNil(t, entry)

	assert.Equal(t, 0, entry.OpeningStock)
	assert.Equal(t, -3, entry.ClosingStock)
	assert.True(t, entry.AvgCost.IsZero())
	assert.True(t, entry.BalanceValue.IsZero())
	assert.True(t, entry.TotalValue.IsZero())
}

func TestComputeBalancesReportsInconsistentRecords(t *testing.T) {
	in := fixture()
	in.Purchases = append(in.Purchases, buy(serum, "2024-01-01", 0, "0", "18", false))
	in.Sales = append(in.Sales, &models.SaleRecord{ProductKey: serum, Qty: -2, InvoiceNo: "S-9"})

	entry, warnings := BalanceFor(in, serum)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[1].Error(), "S-9")
	assert.Equal(t, 15, entry.ClosingStock)
	assert.Equal(t, "12", entry.GSTPercentage.String())
}

func TestBalanceForMissingProduct(t *testing.T) {
	entry, _ := BalanceFor(fixture(), models.ProductKey{Name: "Nothing"})
	assert.Nil(t, entry)
}

func TestIssuedQty(t *testing.T) {
	in := fixture()
	assert.Equal(t, 10, IssuedQty(serum, in.Sales, in.Consumption))
	assert.Len(t, PurchasesOf(serum, in.Purchases), 2)
}
