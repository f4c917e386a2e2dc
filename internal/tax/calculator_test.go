package tax

import (
	"errors"
	"testing"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeWorkedExample(t *testing.T) {
	b, err := Default().Compute(Input{
		MRPInclGST:      d("450"),
		GSTPercent:      d("18"),
		DiscountPercent: d("5"),
		Qty:             10,
	})
	require.NoError(t, err)

	assert.Equal(t, "381.36", b.MRPExclGST.StringFixed(2))
	assert.Equal(t, "362.29", b.DiscountedRate.StringFixed(2))
	assert.Equal(t, "3622.88", b.TaxableValue.StringFixed(2))
	assert.Equal(t, "326.06", b.CGST.StringFixed(2))
	assert.Equal(t, "326.06", b.SGST.StringFixed(2))
	assert.True(t, b.IGST.IsZero())
	assert.Equal(t, "4275.00", b.InvoiceValue.StringFixed(2))
}

func TestComputeInterstateUsesIGST(t *testing.T) {
	b, err := Default().Compute(Input{
		MRPInclGST: d("118"),
		GSTPercent: d("18"),
		Qty:        3,
		Interstate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "300.00", b.TaxableValue.StringFixed(2))
	assert.Equal(t, "54.00", b.IGST.StringFixed(2))
	assert.True(t, b.CGST.IsZero())
	assert.True(t, b.SGST.IsZero())
	assert.Equal(t, "354.00", b.InvoiceValue.StringFixed(2))
}

func TestComputeTaxSumProperty(t *testing.T) {
	calc := Default()
	tolerance := d("0.01")

	mrps := []string{"1", "9.99", "99.5", "450", "1234.56", "25000"}
	rates := []string{"5", "12", "18", "28", "0.25"}
	discounts := []string{"0", "2.5", "5", "10", "33.33"}
	qtys := []int{1, 2, 7, 10, 125}

	for _, mrp := range mrps {
		for _, rate := range rates {
			for _, disc := range discounts {
				for _, qty := range qtys {
					for _, interstate := range []bool{false, true} {
						in := Input{MRPInclGST: d(mrp), GSTPercent: d(rate), DiscountPercent: d(disc), Qty: qty, Interstate: interstate}
						b, err := calc.Compute(in)
						require.NoError(t, err)

						sum := b.CGST.Add(b.SGST).Add(b.IGST)
						expected := b.TaxableValue.Mul(d(rate)).Div(d("100"))
						assert.True(t, sum.Sub(expected).Abs().LessThanOrEqual(tolerance),
							"mrp=%s rate=%s disc=%s qty=%d: %s vs %s", mrp, rate, disc, qty, sum, expected)

						local := b.CGST.Add(b.SGST)
						if !sum.IsZero() {
							assert.True(t, local.IsZero() != b.IGST.IsZero(), "exactly one split must be non-zero")
						}
					}
				}
			}
		}
	}
}

func TestComputeZeroValuesAreValid(t *testing.T) {
	b, err := Default().Compute(Input{})
	require.NoError(t, err)
	assert.True(t, b.InvoiceValue.IsZero())

	b, err = Default().Compute(Input{MRPInclGST: d("100"), Qty: 0, GSTPercent: d("18")})
	require.NoError(t, err)
	assert.True(t, b.TaxableValue.IsZero())
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"negative qty", Input{Qty: -1}, "qty"},
		{"gst above 100", Input{GSTPercent: d("101")}, "gst_percentage"},
		{"negative gst", Input{GSTPercent: d("-1")}, "gst_percentage"},
		{"discount above 100", Input{DiscountPercent: d("150")}, "discount_percentage"},
		{"negative mrp", Input{MRPInclGST: d("-5")}, "mrp_incl_gst"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Default().Compute(tc.in)
			var vErr *models.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestRateThresholdPolicy(t *testing.T) {
	calc := NewCalculator(SplitRateThreshold, d("28"))

	b, err := calc.Compute(Input{MRPInclGST: d("128"), GSTPercent: d("28"), Qty: 1})
	require.NoError(t, err)
	assert.Equal(t, "28.00", b.IGST.StringFixed(2))

	b, err = calc.Compute(Input{MRPInclGST: d("118"), GSTPercent: d("18"), Qty: 1, Interstate: true})
	require.NoError(t, err)
	assert.True(t, b.IGST.IsZero(), "threshold policy ignores the explicit flag")
	assert.Equal(t, "9.00", b.CGST.StringFixed(2))
}

func TestSplitAbsorbsRoundingInSGST(t *testing.T) {
	cgst, sgst, igst := Split(d("0.03"), false)
	assert.Equal(t, "0.02", cgst.StringFixed(2))
	assert.Equal(t, "0.01", sgst.StringFixed(2))
	assert.True(t, igst.IsZero())
}

func TestParseSplitPolicy(t *testing.T) {
	p, err := ParseSplitPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SplitExplicit, p)

	p, err = ParseSplitPolicy("RATE_THRESHOLD")
	require.NoError(t, err)
	assert.Equal(t, SplitRateThreshold, p)

	_, err = ParseSplitPolicy("magnitude")
	assert.Error(t, err)
}
