package models

import "fmt"

// ValidationError campo requerido ausente o inválido en un registro.
// El registro se omite y el batch continúa.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError crea un ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// FormatError archivo o workbook mal formado; aborta la operación completa
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ConnectivityError POS remoto inaccesible, timeout o respuesta no-2xx
type ConnectivityError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ConnectivityError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: pos responded %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// AggregationError inconsistencia de ledger detectada al calcular el balance.
// Se reporta como advertencia; el registro afectado contribuye con cero.
type AggregationError struct {
	Product string
	Reason  string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("balance %s: %s", e.Product, e.Reason)
}
