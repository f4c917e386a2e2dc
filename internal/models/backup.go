package models

import "time"

// BackupVersion versión actual del esquema de respaldo
const BackupVersion = 1

// BackupDocument documento JSON de respaldo/restauración.
// La importación es todo-o-nada.
type BackupDocument struct {
	Version     int                  `json:"version"`
	ExportDate  time.Time            `json:"exportDate"`
	Products    []*Product           `json:"products"`
	Purchases   []*PurchaseRecord    `json:"purchases"`
	Sales       []*SaleRecord        `json:"sales"`
	Consumption []*ConsumptionRecord `json:"consumption"`
	Clients     []*Client            `json:"clients"`
}

// Snapshot contenido completo de los ledgers y clientes
type Snapshot struct {
	Products    []*Product
	Purchases   []*PurchaseRecord
	Sales       []*SaleRecord
	Consumption []*ConsumptionRecord
	Clients     []*Client
}
