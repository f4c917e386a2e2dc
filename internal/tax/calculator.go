// Package tax convierte MRP, descuento y GST en el desglose CGST/SGST/IGST.
// Todas las funciones son puras.
package tax

import (
	"fmt"
	"strings"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
)

// SplitPolicy define cómo se decide entre CGST+SGST e IGST
type SplitPolicy string

const (
	// SplitExplicit usa el flag Interstate de la transacción
	SplitExplicit SplitPolicy = "explicit"
	// SplitRateThreshold reproduce el criterio heredado: IGST cuando la tasa supera un umbral
	SplitRateThreshold SplitPolicy = "rate_threshold"
)

// Decimales usados para todos los valores monetarios derivados
const moneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// ParseSplitPolicy interpreta el valor de configuración
func ParseSplitPolicy(value string) (SplitPolicy, error) {
	switch SplitPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", SplitExplicit:
		return SplitExplicit, nil
	case SplitRateThreshold:
		return SplitRateThreshold, nil
	default:
		return "", fmt.Errorf("unknown tax split policy %q", value)
	}
}

// Input datos de entrada del cálculo
type Input struct {
	MRPInclGST      decimal.Decimal
	GSTPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
	Qty             int
	Interstate      bool
}

// Breakdown resultado del cálculo, redondeado a 2 decimales
type Breakdown struct {
	MRPExclGST     decimal.Decimal `json:"mrp_excl_gst"`
	DiscountedRate decimal.Decimal `json:"discounted_rate"`
	TaxableValue   decimal.Decimal `json:"taxable_value"`
	TotalGST       decimal.Decimal `json:"total_gst"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	IGST           decimal.Decimal `json:"igst"`
	InvoiceValue   decimal.Decimal `json:"invoice_value"`
	Interstate     bool            `json:"interstate"`
}

// Calculator calcula impuestos según la política de división configurada
type Calculator struct {
	policy    SplitPolicy
	threshold decimal.Decimal
}

// NewCalculator crea un calculador. threshold solo se usa con SplitRateThreshold.
func NewCalculator(policy SplitPolicy, threshold decimal.Decimal) *Calculator {
	if policy == "" {
		policy = SplitExplicit
	}
	return &Calculator{policy: policy, threshold: threshold}
}

// Default calculador con división explícita
func Default() *Calculator {
	return NewCalculator(SplitExplicit, decimal.Zero)
}

// Policy retorna la política activa
func (c *Calculator) Policy() SplitPolicy {
	return c.policy
}

// Validate verifica los rangos de entrada
func Validate(in Input) error {
	if in.Qty < 0 {
		return models.NewValidationError("qty", "must not be negative")
	}
	if in.MRPInclGST.IsNegative() {
		return models.NewValidationError("mrp_incl_gst", "must not be negative")
	}
	if in.GSTPercent.IsNegative() || in.GSTPercent.GreaterThan(hundred) {
		return models.NewValidationError("gst_percentage", "must be between 0 and 100")
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return models.NewValidationError("discount_percentage", "must be between 0 and 100")
	}
	return nil
}

// Compute calcula el desglose de impuestos.
// Las tasas intermedias conservan precisión completa; cada valor almacenado se redondea aquí.
func (c *Calculator) Compute(in Input) (Breakdown, error) {
	if err := Validate(in); err != nil {
		return Breakdown{}, err
	}

	rate := in.GSTPercent.Div(hundred)
	mrpExcl := in.MRPInclGST.Div(decimal.NewFromInt(1).Add(rate))
	discounted := mrpExcl.Mul(decimal.NewFromInt(1).Sub(in.DiscountPercent.Div(hundred)))

	taxable := discounted.Mul(decimal.NewFromInt(int64(in.Qty))).Round(moneyPlaces)
	totalGST := taxable.Mul(rate).Round(moneyPlaces)

	interstate := c.isInterstate(in)
	cgst, sgst, igst := Split(totalGST, interstate)

	return Breakdown{
		MRPExclGST:     mrpExcl.Round(moneyPlaces),
		DiscountedRate: discounted.Round(moneyPlaces),
		TaxableValue:   taxable,
		TotalGST:       totalGST,
		CGST:           cgst,
		SGST:           sgst,
		IGST:           igst,
		InvoiceValue:   taxable.Add(totalGST),
		Interstate:     interstate,
	}, nil
}

func (c *Calculator) isInterstate(in Input) bool {
	if c.policy == SplitRateThreshold {
		return in.GSTPercent.GreaterThanOrEqual(c.threshold)
	}
	return in.Interstate
}

// Split divide el GST total. SGST absorbe el residuo del redondeo para que la suma sea exacta.
func Split(totalGST decimal.Decimal, interstate bool) (cgst, sgst, igst decimal.Decimal) {
	if interstate {
		return decimal.Zero, decimal.Zero, totalGST
	}
	cgst = totalGST.Div(two).Round(moneyPlaces)
	sgst = totalGST.Sub(cgst)
	return cgst, sgst, decimal.Zero
}

// Round redondea un valor monetario a 2 decimales
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(moneyPlaces)
}

// Fields convierte el desglose en los campos persistidos del ledger
func (b Breakdown) Fields(in Input) models.TaxFields {
	return models.TaxFields{
		MRPInclGST:         in.MRPInclGST,
		MRPExclGST:         b.MRPExclGST,
		GSTPercentage:      in.GSTPercent,
		DiscountPercentage: in.DiscountPercent,
		Interstate:         b.Interstate,
		TaxableValue:       b.TaxableValue,
		CGST:               b.CGST,
		SGST:               b.SGST,
		IGST:               b.IGST,
		InvoiceValue:       b.InvoiceValue,
	}
}
