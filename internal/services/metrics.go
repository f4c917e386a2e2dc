package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_ledger_records_total",
		Help: "Ledger records processed, by ledger and result.",
	}, []string{"ledger", "result"})

	clientSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_client_sync_total",
		Help: "POS client sync attempts, by origin and result.",
	}, []string{"origin", "result"})

	importRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_import_rows_total",
		Help: "Spreadsheet rows read, by result.",
	}, []string{"result"})

	backupOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_backup_operations_total",
		Help: "Backup export/import/archive operations, by result.",
	}, []string{"operation", "result"})
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

func recordLedger(ledger string, err error) {
	if err != nil {
		ledgerRecordsTotal.WithLabelValues(ledger, resultFailure).Inc()
		return
	}
	ledgerRecordsTotal.WithLabelValues(ledger, resultSuccess).Inc()
}
