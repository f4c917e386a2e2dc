package importer

import (
	"strings"
	"unicode"
)

// Field campo lógico de la planilla
type Field string

const (
	FieldProductName  Field = "product_name"
	FieldHSNCode      Field = "hsn_code"
	FieldUnits        Field = "units"
	FieldOpeningStock Field = "opening_stock"

	FieldPurchaseInvoice    Field = "purchase_invoice_no"
	FieldPurchaseDate       Field = "purchase_date"
	FieldPurchaseQty        Field = "purchase_qty"
	FieldPurchaseMRP        Field = "purchase_mrp_incl_gst"
	FieldPurchaseGST        Field = "purchase_gst_percentage"
	FieldPurchaseDiscount   Field = "purchase_discount_percentage"
	FieldPurchaseInterstate Field = "purchase_interstate"

	FieldSaleInvoice    Field = "sale_invoice_no"
	FieldSaleDate       Field = "sale_date"
	FieldSaleQty        Field = "sale_qty"
	FieldSaleMRP        Field = "sale_mrp_incl_gst"
	FieldSaleGST        Field = "sale_gst_percentage"
	FieldSaleDiscount   Field = "sale_discount_percentage"
	FieldSaleInterstate Field = "sale_interstate"

	FieldConsumptionVoucher Field = "consumption_voucher_no"
	FieldConsumptionDate    Field = "consumption_date"
	FieldConsumptionQty     Field = "consumption_qty"
)

// ColumnAliases tabla declarativa campo lógico -> alias de encabezado en orden de preferencia.
// Los alias se comparan contra el encabezado combinado (grupo + sub-encabezado) ya normalizado.
type ColumnAliases map[Field][]string

// DefaultAliases alias conocidos de los formatos de exportación usados por los salones
var DefaultAliases = ColumnAliases{
	FieldProductName:  {"product name", "item name", "product", "name of product", "particulars", "description"},
	FieldHSNCode:      {"hsn code", "hsn", "hsn sac", "hsn sac code"},
	FieldUnits:        {"units", "unit", "uom", "unit of measure"},
	FieldOpeningStock: {"opening stock", "opening qty", "opening quantity", "opening balance qty", "opening"},

	FieldPurchaseInvoice:    {"purchase invoice no", "purchase invoice number", "purchase bill no", "purchase invoice", "purchase inv no"},
	FieldPurchaseDate:       {"purchase date", "purchase invoice date", "purchase bill date"},
	FieldPurchaseQty:        {"purchase qty", "purchase quantity", "purchased qty", "purchase units"},
	FieldPurchaseMRP:        {"purchase mrp incl gst", "purchase mrp", "purchase rate incl gst", "purchase rate"},
	FieldPurchaseGST:        {"purchase gst percentage", "purchase gst", "purchase gst rate", "purchase tax percentage"},
	FieldPurchaseDiscount:   {"purchase discount percentage", "purchase discount", "purchase disc percentage", "purchase disc"},
	FieldPurchaseInterstate: {"purchase interstate", "purchase igst applicable", "purchase igst"},

	FieldSaleInvoice:    {"sale invoice no", "sales invoice no", "sale invoice number", "sale bill no", "sale invoice", "sales invoice"},
	FieldSaleDate:       {"sale date", "sales date", "sale invoice date", "sales invoice date"},
	FieldSaleQty:        {"sale qty", "sales qty", "sale quantity", "sold qty", "sales quantity"},
	FieldSaleMRP:        {"sale mrp incl gst", "sales mrp incl gst", "sale mrp", "sales mrp", "sale rate"},
	FieldSaleGST:        {"sale gst percentage", "sales gst percentage", "sale gst", "sales gst"},
	FieldSaleDiscount:   {"sale discount percentage", "sales discount percentage", "sale discount", "sales discount", "sale disc"},
	FieldSaleInterstate: {"sale interstate", "sales interstate", "sale igst applicable", "sale igst"},

	FieldConsumptionVoucher: {"consumption voucher no", "consumption invoice no", "consumption voucher", "consumption no", "salon use voucher no"},
	FieldConsumptionDate:    {"consumption date", "consumption voucher date", "salon use date"},
	FieldConsumptionQty:     {"consumption qty", "consumption quantity", "consumed qty", "salon use qty"},
}

// NormalizeHeader pasa a minúsculas, convierte puntuación en espacios y colapsa espacios.
// "%" se lee como "percentage" para que "GST %" y "GST Percentage" coincidan.
func NormalizeHeader(header string) string {
	header = strings.ReplaceAll(header, "%", " percentage ")
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, header)
	return strings.Join(strings.Fields(mapped), " ")
}

// Resolve asigna a cada campo lógico el índice de columna del primer alias presente
func (a ColumnAliases) Resolve(headers []string) map[Field]int {
	positions := make(map[string]int, len(headers))
	for i, h := range headers {
		n := NormalizeHeader(h)
		if n == "" {
			continue
		}
		if _, seen := positions[n]; !seen {
			positions[n] = i
		}
	}

	resolved := make(map[Field]int, len(a))
	for field, aliases := range a {
		for _, alias := range aliases {
			if idx, ok := positions[NormalizeHeader(alias)]; ok {
				resolved[field] = idx
				break
			}
		}
	}
	return resolved
}
