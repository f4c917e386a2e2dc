package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Formatos de fecha aceptados además de los seriales de Excel
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
}

// Prefijos/sufijos monetarios que se eliminan antes de parsear
var currencyMarks = []string{"₹", "Rs.", "Rs", "rs.", "rs", "INR", "inr"}

// ParseNumber interpreta un valor monetario tolerante a separadores de miles y símbolos de moneda.
// Una celda vacía vale 0.
func ParseNumber(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}
	return value, nil
}

// ParseInt interpreta una cantidad entera; acepta "10.0" pero no fracciones reales
func ParseInt(raw string) (int, error) {
	value, err := ParseNumber(raw)
	if err != nil {
		return 0, err
	}
	if !value.Equal(value.Truncate(0)) {
		return 0, fmt.Errorf("invalid quantity %q: not a whole number", raw)
	}
	return int(value.IntPart()), nil
}

// ParseDate interpreta seriales de Excel (base 1899-12-30), ISO, RFC3339 y dd-mm-yyyy / dd/mm/yyyy
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("invalid date serial %q", raw)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", raw, err)
		}
		return t.UTC(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// ParseBool interpreta flags de planilla (si/yes/true/1/x/igst)
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "y", "yes", "true", "x", "igst", "interstate":
		return true
	default:
		return false
	}
}
