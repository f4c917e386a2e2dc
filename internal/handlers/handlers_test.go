package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"inventory-service/internal/costing"
	"inventory-service/internal/importer"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/services"
	"inventory-service/internal/tax"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSyncer struct {
	mu   sync.Mutex
	fail bool
	n    int
}

func (s *stubSyncer) SyncClient(ctx context.Context, client *models.Client) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", &models.ConnectivityError{Op: "sync client", Err: errors.New("connection refused")}
	}
	s.n++
	return fmt.Sprintf("POS-%d", s.n), nil
}

type testServer struct {
	router *gin.Engine
	store  repository.Store
	syncer *stubSyncer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	store, err := repository.NewMemoryStore("", nil)
	require.NoError(t, err)

	calc := tax.Default()
	syncer := &stubSyncer{}

	stock := NewStockHandler(
		services.NewPurchaseService(store, calc, nil, logger),
		services.NewReconcileService(store, calc, costing.FIFO, nil, logger),
		services.NewBalanceService(store, nil, logger),
		logger,
	)
	posHandler := NewPOSHandler(services.NewClientSyncService(store, syncer, 2, logger), logger)
	importHandler := NewImportHandler(
		services.NewImportService(store, importer.NewParser(calc, costing.FIFO, logger), nil, logger), logger)
	backupHandler := NewBackupHandler(services.NewBackupService(store, nil, nil, logger), logger)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/purchases", stock.RecordPurchase)
	v1.POST("/purchases/batch", stock.RecordPurchaseBatch)
	v1.GET("/purchases", stock.ListPurchases)
	v1.POST("/sales/reconcile", stock.ReconcileSales)
	v1.GET("/balance-stock", stock.GetBalanceStock)
	v1.GET("/balance-stock/product", stock.GetBalanceByProduct)
	v1.POST("/import", importHandler.ImportSpreadsheet)
	v1.POST("/clients", posHandler.UpsertClient)
	v1.POST("/clients/:id/payments", posHandler.ApplyPayment)
	v1.POST("/backup/import", backupHandler.Import)
	v1.POST("/backup/archive", backupHandler.Archive)

	return &testServer{router: router, store: store, syncer: syncer}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var payload map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &payload)
	}
	return w, payload
}

func purchaseBody(name, invoice string, qty int) gin.H {
	return gin.H{
		"product_name":   name,
		"hsn_code":       "3305",
		"units":          "ml",
		"date":           "2024-01-05",
		"invoice_no":     invoice,
		"qty":            qty,
		"mrp_incl_gst":   "118",
		"gst_percentage": "18",
	}
}

func assertDecimal(t *testing.T, want string, got interface{}) {
	t.Helper()
	raw, ok := got.(string)
	require.True(t, ok, "expected decimal string, got %v", got)
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(raw)), "want %s, got %s", want, raw)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError("qty", "must be positive"), http.StatusBadRequest},
		{"format", &models.FormatError{Source: "workbook", Err: errors.New("bad zip")}, http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("record 2: %w", models.NewValidationError("date", "bad")), http.StatusBadRequest},
		{"client not found", services.ErrClientNotFound, http.StatusNotFound},
		{"archive not configured", services.ErrArchiveNotConfigured, http.StatusServiceUnavailable},
		{"connectivity", &models.ConnectivityError{Op: "sync", StatusCode: 503}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRecordPurchaseCreated(t *testing.T) {
	s := newTestServer(t)

	w, payload := s.do(t, http.MethodPost, "/api/v1/purchases", purchaseBody("Argan Oil", "INV-1", 10))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, payload["success"])

	data := payload["data"].(map[string]interface{})
	assertDecimal(t, "1000", data["taxable_value"])
	assertDecimal(t, "90", data["cgst"])
	assert.Equal(t, "local", data["sync_status"])
}

func TestRecordPurchaseValidation(t *testing.T) {
	s := newTestServer(t)

	body := purchaseBody("Argan Oil", "INV-1", 0)
	w, payload := s.do(t, http.MethodPost, "/api/v1/purchases", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, payload["success"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/purchases", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordPurchaseBatchReportsStats(t *testing.T) {
	s := newTestServer(t)

	bad := purchaseBody("", "INV-2", 1)
	w, payload := s.do(t, http.MethodPost, "/api/v1/purchases/batch", gin.H{
		"purchases": []gin.H{purchaseBody("Argan Oil", "INV-1", 3), bad},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, payload["success"])

	stats := payload["data"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total"])
	assert.EqualValues(t, 1, stats["succeeded"])
	assert.EqualValues(t, 1, stats["failed"])

	w, payload = s.do(t, http.MethodGet, "/api/v1/purchases?product_name=argan%20oil", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, payload["data"].(map[string]interface{})["total"])
}

func TestListPurchasesRejectsBadDate(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/purchases?date_from=05/01/2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileAndBalance(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/purchases", purchaseBody("Argan Oil", "INV-1", 10))
	require.Equal(t, http.StatusCreated, w.Code)

	w, payload := s.do(t, http.MethodPost, "/api/v1/sales/reconcile", gin.H{
		"events": []gin.H{{
			"product_name":   "Argan Oil",
			"hsn_code":       "3305",
			"units":          "ml",
			"date":           "2024-01-10",
			"quantity":       4,
			"mrp_incl_gst":   "236",
			"gst_percentage": "18",
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, payload["data"].(map[string]interface{})["succeeded"])

	w, payload = s.do(t, http.MethodGet, "/api/v1/balance-stock/product?name=argan%20oil&hsn=3305&units=ml", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance := payload["data"].(map[string]interface{})["balance"].(map[string]interface{})
	assert.EqualValues(t, 6, balance["closing_stock"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/balance-stock/product?name=Unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertClientWhenPOSDown(t *testing.T) {
	s := newTestServer(t)
	s.syncer.fail = true

	w, payload := s.do(t, http.MethodPost, "/api/v1/clients", gin.H{"name": "Priya", "phone": "98450"})
	require.Equal(t, http.StatusOK, w.Code)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, models.ClientStateSyncFailed, data["sync_state"])

	clients, err := s.store.ListSyncFailed(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	w, _ = s.do(t, http.MethodPost, "/api/v1/clients/missing/payments", gin.H{"amount": "10"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportSpreadsheetErrors(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/import?dry_run=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "ledger.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a workbook"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import?dry_run=true", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBackupImportRejectsVersion(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/backup/import", `{"version": 99, "products": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/backup/import", `{"version": `)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/backup/archive", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// interruptedClients simula un reintento cortado a mitad de camino
type interruptedClients struct {
	services.ClientSyncService
}

func (interruptedClients) RetryFailedSyncs(ctx context.Context) (*models.RetryReport, error) {
	return &models.RetryReport{Attempted: 3, Succeeded: 1, Failed: 2, Errors: []string{"client a: canceled", "client b: canceled"}},
		context.Canceled
}

func TestRetrySyncReturnsPartialReportOnError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPOSHandler(interruptedClients{}, zap.NewNop())
	router := gin.New()
	router.POST("/clients/retry-sync", h.RetrySync)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/clients/retry-sync", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["error"], "canceled")

	report, ok := payload["data"].(map[string]interface{})
	require.True(t, ok, "expected partial report in data")
	assert.EqualValues(t, 3, report["attempted"])
	assert.EqualValues(t, 1, report["succeeded"])
	assert.EqualValues(t, 2, report["failed"])
}
