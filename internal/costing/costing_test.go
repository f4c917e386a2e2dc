package costing

import (
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchase(date string, qty int, taxable string) *models.PurchaseRecord {
	t, _ := time.Parse("2006-01-02", date)
	return &models.PurchaseRecord{
		ProductKey: models.ProductKey{Name: "Hair Serum", HSNCode: "3305", Units: "ml"},
		Date:       t,
		Qty:        qty,
		TaxFields: models.TaxFields{
			TaxableValue:  decimal.RequireFromString(taxable),
			GSTPercentage: decimal.NewFromInt(18),
		},
	}
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// Lotes desordenados a propósito: la resolución debe ordenar por fecha
func batches() []*models.PurchaseRecord {
	return []*models.PurchaseRecord{
		purchase("2024-02-01", 10, "1200"),
		purchase("2024-01-01", 10, "1000"),
	}
}

func TestResolvePolicies(t *testing.T) {
	cases := []struct {
		name      string
		policy    Policy
		issued    int
		qty       int
		at        string
		taxable   string
		unit      string
		shortfall int
	}{
		{"fifo first batch", FIFO, 0, 5, "2024-03-01", "500.00", "100.00", 0},
		{"fifo spans batches", FIFO, 8, 5, "2024-03-01", "560.00", "112.00", 0},
		{"fifo beyond stock", FIFO, 18, 5, "2024-03-01", "600.00", "120.00", 3},
		{"lifo newest batch", LIFO, 0, 5, "2024-03-01", "600.00", "120.00", 0},
		{"lifo spans batches", LIFO, 8, 5, "2024-03-01", "540.00", "108.00", 0},
		{"latest purchase", Latest, 15, 5, "2024-03-01", "600.00", "120.00", 0},
		{"weighted all", WeightedAverage, 0, 5, "2024-03-01", "550.00", "110.00", 0},
		{"weighted dated", WeightedAverage, 0, 5, "2024-01-15", "500.00", "100.00", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(tc.policy, Request{Purchases: batches(), IssuedQty: tc.issued, Qty: tc.qty, At: day(tc.at)})
			require.True(t, res.Found)
			snap := res.Snapshot(tc.policy)
			assert.Equal(t, tc.taxable, snap.PurchaseTaxableValue.StringFixed(2))
			assert.Equal(t, tc.unit, snap.PurchaseCostPerUnitExGST.StringFixed(2))
			assert.Equal(t, tc.shortfall, res.Shortfall)
			assert.Equal(t, string(tc.policy), snap.CostingPolicy)
		})
	}
}

func TestSnapshotIncludesPurchaseGST(t *testing.T) {
	res := Resolve(FIFO, Request{Purchases: batches(), Qty: 5})
	snap := res.Snapshot(FIFO)
	assert.Equal(t, "590.00", snap.TotalPurchaseCost.StringFixed(2))
}

func TestResolveWithoutPurchasesIsZero(t *testing.T) {
	res := Resolve(FIFO, Request{Qty: 3})
	assert.False(t, res.Found)
	snap := res.Snapshot(FIFO)
	assert.True(t, snap.PurchaseTaxableValue.IsZero())
	assert.True(t, snap.TotalPurchaseCost.IsZero())
}

func TestResolveIgnoresEmptyBatches(t *testing.T) {
	list := append(batches(), purchase("2024-03-01", 0, "0"))
	res := Resolve(Latest, Request{Purchases: list, Qty: 1})
	assert.Equal(t, "120.00", res.Snapshot(Latest).PurchaseCostPerUnitExGST.StringFixed(2))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FIFO, p)

	p, err = ParsePolicy("Weighted_Average")
	require.NoError(t, err)
	assert.Equal(t, WeightedAverage, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}
