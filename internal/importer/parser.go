// Package importer lee planillas históricas (Sheet1) y las convierte en registros de ledger.
//
// Formato esperado:
//   - fila 1: encabezados de grupo (Purchase, Sale, Consumption...) combinados sobre sus columnas
//   - fila 2: sub-encabezados (Invoice No, Date, Qty, GST %...)
//   - fila 3: ignorada (totales o notas del exportador)
//   - desde la fila 4: datos
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"inventory-service/internal/costing"
	"inventory-service/internal/ledger"
	"inventory-service/internal/models"
	"inventory-service/internal/tax"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// SheetName hoja obligatoria del workbook
	SheetName = "Sheet1"
	// Índice (base 0) de la primera fila de datos
	firstDataRow = 3
)

// Result registros derivados de la planilla, en orden de aparición
type Result struct {
	Products     []*models.Product           `json:"products"`
	Purchases    []*models.PurchaseRecord    `json:"purchases"`
	Sales        []*models.SaleRecord        `json:"sales"`
	Consumption  []*models.ConsumptionRecord `json:"consumption"`
	BalanceStock []*models.BalanceStockEntry `json:"balance_stock"`
	Warnings     []string                    `json:"warnings"`
	Stats        models.ImportStats          `json:"stats"`
}

// Parser convierte un workbook en registros usando el calculador de impuestos y la política de costeo
type Parser struct {
	calc    *tax.Calculator
	policy  costing.Policy
	aliases ColumnAliases
	logger  *zap.Logger
	now     func() time.Time
}

// NewParser crea un parser con los alias por defecto
func NewParser(calc *tax.Calculator, policy costing.Policy, logger *zap.Logger) *Parser {
	if calc == nil {
		calc = tax.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		calc:    calc,
		policy:  policy,
		aliases: DefaultAliases,
		logger:  logger,
		now:     time.Now,
	}
}

// WithAliases reemplaza la tabla de alias (formatos de exportación nuevos)
func (p *Parser) WithAliases(aliases ColumnAliases) *Parser {
	cp := *p
	cp.aliases = aliases
	return &cp
}

// Parse lee el workbook completo. Un workbook ilegible o sin Sheet1 retorna *models.FormatError;
// las filas mal formadas se omiten y se reportan en Stats.Errors.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &models.FormatError{Source: "workbook", Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &models.FormatError{Source: "workbook", Err: fmt.Errorf("sheet %s: %w", SheetName, err)}
	}

	headers, err := mergedHeaders(f, rows)
	if err != nil {
		return nil, err
	}

	columns := p.aliases.Resolve(headers)
	if _, ok := columns[FieldProductName]; !ok {
		return nil, &models.FormatError{Source: "workbook", Err: errors.New("no product name column found")}
	}

	p.logger.Debug("🔍 [DEBUG] Columnas resueltas", zap.Int("columns", len(columns)), zap.Int("rows", len(rows)))

	b := &builder{parser: p, columns: columns, products: make(map[string]*models.Product)}
	for i := firstDataRow; i < len(rows); i++ {
		b.row(i+1, rows[i])
	}

	entries, warnings := ledger.ComputeBalances(ledger.Ledgers{
		Products:    b.result.Products,
		Purchases:   b.result.Purchases,
		Sales:       b.result.Sales,
		Consumption: b.result.Consumption,
	})
	b.result.BalanceStock = entries
	b.result.Warnings = []string{}
	for _, w := range warnings {
		b.result.Warnings = append(b.result.Warnings, w.Error())
	}
	if b.result.Stats.Errors == nil {
		b.result.Stats.Errors = []string{}
	}

	p.logger.Info("✅ Planilla procesada",
		zap.Int("rows", b.result.Stats.Rows),
		zap.Int("imported", b.result.Stats.Imported),
		zap.Int("skipped", b.result.Stats.Skipped),
		zap.Int("purchases", len(b.result.Purchases)),
		zap.Int("sales", len(b.result.Sales)),
		zap.Int("consumption", len(b.result.Consumption)))

	return &b.result, nil
}

// mergedHeaders combina las dos filas físicas de encabezado en una lógica.
// El encabezado de grupo se propaga a todas las columnas de su rango combinado.
func mergedHeaders(f *excelize.File, rows [][]string) ([]string, error) {
	if len(rows) < 2 {
		return nil, &models.FormatError{Source: "workbook", Err: errors.New("missing header rows")}
	}

	width := 0
	for _, row := range rows[:2] {
		if len(row) > width {
			width = len(row)
		}
	}

	group := make([]string, width)
	copy(group, rows[0])

	merges, err := f.GetMergeCells(SheetName)
	if err != nil {
		return nil, &models.FormatError{Source: "workbook", Err: fmt.Errorf("merged cells: %w", err)}
	}
	for _, m := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, _, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil || startRow != 1 {
			continue
		}
		for c := startCol; c <= endCol && c-1 < width; c++ {
			group[c-1] = m.GetCellValue()
		}
	}

	headers := make([]string, width)
	for i := 0; i < width; i++ {
		sub := ""
		if i < len(rows[1]) {
			sub = rows[1][i]
		}
		g := strings.TrimSpace(group[i])
		s := strings.TrimSpace(sub)
		switch {
		case g == "":
			headers[i] = s
		case s == "" || strings.EqualFold(g, s):
			headers[i] = g
		default:
			headers[i] = g + " " + s
		}
	}
	return headers, nil
}

type builder struct {
	parser   *Parser
	columns  map[Field]int
	products map[string]*models.Product
	result   Result
}

func (b *builder) cell(row []string, field Field) string {
	idx, ok := b.columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (b *builder) has(field Field) bool {
	_, ok := b.columns[field]
	return ok
}

// row procesa una fila; los registros solo se agregan si la fila completa es válida
func (b *builder) row(number int, row []string) {
	b.result.Stats.Rows++

	key := models.ProductKey{
		Name:    b.cell(row, FieldProductName),
		HSNCode: b.cell(row, FieldHSNCode),
		Units:   b.cell(row, FieldUnits),
	}.Normalize()
	if key.IsZero() {
		b.result.Stats.Skipped++
		return
	}

	if err := b.emit(key, row); err != nil {
		b.result.Stats.Skipped++
		b.result.Stats.Errors = append(b.result.Stats.Errors, fmt.Sprintf("row %d: %v", number, err))
		b.parser.logger.Warn("⚠️ Fila omitida", zap.Int("row", number), zap.Error(err))
		return
	}
	b.result.Stats.Imported++
}

func (b *builder) emit(key models.ProductKey, row []string) error {
	now := b.parser.now()

	opening := 0
	if b.has(FieldOpeningStock) {
		v, err := ParseInt(b.cell(row, FieldOpeningStock))
		if err != nil {
			return fmt.Errorf("opening stock: %w", err)
		}
		opening = v
	}

	purchase, err := b.purchase(key, row, now)
	if err != nil {
		return err
	}

	purchases := b.result.Purchases
	if purchase != nil {
		purchases = append(purchases[:len(purchases):len(purchases)], purchase)
	}

	sale, err := b.sale(key, row, purchases, now)
	if err != nil {
		return err
	}

	sales := b.result.Sales
	if sale != nil {
		sales = append(sales[:len(sales):len(sales)], sale)
	}

	consumption, err := b.consumption(key, row, purchases, sales, now)
	if err != nil {
		return err
	}

	product, ok := b.products[key.ID()]
	if !ok {
		product = &models.Product{ProductKey: key, OpeningStock: opening, CreatedAt: now}
		b.products[key.ID()] = product
		b.result.Products = append(b.result.Products, product)
	} else if product.OpeningStock == 0 {
		product.OpeningStock = opening
	}

	if purchase != nil {
		b.result.Purchases = append(b.result.Purchases, purchase)
	}
	if sale != nil {
		b.result.Sales = append(b.result.Sales, sale)
	}
	if consumption != nil {
		b.result.Consumption = append(b.result.Consumption, consumption)
	}
	return nil
}

type priced struct {
	date  time.Time
	qty   int
	input tax.Input
}

func (b *builder) readPriced(row []string, date, qty, mrp, gst, discount, interstate Field) (priced, error) {
	var out priced
	d, err := ParseDate(b.cell(row, date))
	if err != nil {
		return out, fmt.Errorf("%s: %w", date, err)
	}
	q, err := ParseInt(b.cell(row, qty))
	if err != nil {
		return out, fmt.Errorf("%s: %w", qty, err)
	}
	m, err := ParseNumber(b.cell(row, mrp))
	if err != nil {
		return out, fmt.Errorf("%s: %w", mrp, err)
	}
	g, err := ParseNumber(b.cell(row, gst))
	if err != nil {
		return out, fmt.Errorf("%s: %w", gst, err)
	}
	disc, err := ParseNumber(b.cell(row, discount))
	if err != nil {
		return out, fmt.Errorf("%s: %w", discount, err)
	}
	out.date = d
	out.qty = q
	out.input = tax.Input{
		MRPInclGST:      m,
		GSTPercent:      g,
		DiscountPercent: disc,
		Qty:             q,
		Interstate:      ParseBool(b.cell(row, interstate)),
	}
	return out, nil
}

func (b *builder) purchase(key models.ProductKey, row []string, now time.Time) (*models.PurchaseRecord, error) {
	invoice := b.cell(row, FieldPurchaseInvoice)
	if invoice == "" {
		return nil, nil
	}
	in, err := b.readPriced(row, FieldPurchaseDate, FieldPurchaseQty, FieldPurchaseMRP,
		FieldPurchaseGST, FieldPurchaseDiscount, FieldPurchaseInterstate)
	if err != nil {
		return nil, fmt.Errorf("purchase %s: %w", invoice, err)
	}
	breakdown, err := b.parser.calc.Compute(in.input)
	if err != nil {
		return nil, fmt.Errorf("purchase %s: %w", invoice, err)
	}
	return &models.PurchaseRecord{
		ID:         uuid.NewString(),
		ProductKey: key,
		Date:       in.date,
		InvoiceNo:  invoice,
		Qty:        in.qty,
		TaxFields:  breakdown.Fields(in.input),
		SyncStatus: models.SyncStatusLocal,
		CreatedAt:  now,
	}, nil
}

func (b *builder) sale(key models.ProductKey, row []string, purchases []*models.PurchaseRecord, now time.Time) (*models.SaleRecord, error) {
	invoice := b.cell(row, FieldSaleInvoice)
	if invoice == "" {
		return nil, nil
	}
	in, err := b.readPriced(row, FieldSaleDate, FieldSaleQty, FieldSaleMRP,
		FieldSaleGST, FieldSaleDiscount, FieldSaleInterstate)
	if err != nil {
		return nil, fmt.Errorf("sale %s: %w", invoice, err)
	}
	breakdown, err := b.parser.calc.Compute(in.input)
	if err != nil {
		return nil, fmt.Errorf("sale %s: %w", invoice, err)
	}

	cost := costing.Resolve(b.parser.policy, costing.Request{
		Purchases: ledger.PurchasesOf(key, purchases),
		IssuedQty: ledger.IssuedQty(key, b.result.Sales, b.result.Consumption),
		Qty:       in.qty,
		At:        in.date,
	})

	return &models.SaleRecord{
		ID:           uuid.NewString(),
		ProductKey:   key,
		Date:         in.date,
		InvoiceNo:    invoice,
		Qty:          in.qty,
		TaxFields:    breakdown.Fields(in.input),
		CostSnapshot: cost.Snapshot(b.parser.policy),
		SyncStatus:   models.SyncStatusLocal,
		CreatedAt:    now,
	}, nil
}

func (b *builder) consumption(key models.ProductKey, row []string, purchases []*models.PurchaseRecord, sales []*models.SaleRecord, now time.Time) (*models.ConsumptionRecord, error) {
	voucher := b.cell(row, FieldConsumptionVoucher)
	if voucher == "" {
		return nil, nil
	}
	date, err := ParseDate(b.cell(row, FieldConsumptionDate))
	if err != nil {
		return nil, fmt.Errorf("consumption %s: %w", voucher, err)
	}
	qty, err := ParseInt(b.cell(row, FieldConsumptionQty))
	if err != nil {
		return nil, fmt.Errorf("consumption %s: %w", voucher, err)
	}
	if qty < 0 {
		return nil, fmt.Errorf("consumption %s: %w", voucher, models.NewValidationError("qty", "must not be negative"))
	}

	cost := costing.Resolve(b.parser.policy, costing.Request{
		Purchases: ledger.PurchasesOf(key, purchases),
		IssuedQty: ledger.IssuedQty(key, sales, b.result.Consumption),
		Qty:       qty,
		At:        date,
	})

	return &models.ConsumptionRecord{
		ID:           uuid.NewString(),
		ProductKey:   key,
		Date:         date,
		InvoiceNo:    voucher,
		Qty:          qty,
		CostSnapshot: cost.Snapshot(b.parser.policy),
		SyncStatus:   models.SyncStatusLocal,
		CreatedAt:    now,
	}, nil
}
