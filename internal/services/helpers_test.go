package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := repository.NewMemoryStore("", nil)
	require.NoError(t, err)
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func purchaseReq(name, date, invoice string, qty int, mrp string) models.PurchaseRequest {
	return models.PurchaseRequest{
		ProductName: name,
		HSNCode:     "3305",
		Units:       "ml",
		Date:        date,
		InvoiceNo:   invoice,
		Qty:         qty,
		MRPInclGST:  dec(mrp),
		GSTPercent:  dec("18"),
	}
}

// fakeSyncer simula el POS remoto
type fakeSyncer struct {
	mu     sync.Mutex
	fail   bool
	calls  int
	nextID int
}

func (f *fakeSyncer) SyncClient(ctx context.Context, client *models.Client) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return "", &models.ConnectivityError{Op: "sync client", Err: fmt.Errorf("connection refused")}
	}
	f.nextID++
	return fmt.Sprintf("POS-%d", f.nextID), nil
}

func (f *fakeSyncer) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

// fakeArchiver guarda los objetos subidos en memoria
type fakeArchiver struct {
	objects map[string][]byte
	err     error
}

func (a *fakeArchiver) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = body
	return nil
}

// gatedSyncer se detiene dentro de SyncClient hasta que el test libera release
type gatedSyncer struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedSyncer() *gatedSyncer {
	return &gatedSyncer{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedSyncer) SyncClient(ctx context.Context, client *models.Client) (string, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return "POS-" + client.Name, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// hookedStore ejecuta onListSales una vez antes de delegar al store real
type hookedStore struct {
	repository.Store
	once        sync.Once
	onListSales func()
}

func (h *hookedStore) ListSales(ctx context.Context, filter *models.ProductFilter) ([]*models.SaleRecord, error) {
	h.once.Do(h.onListSales)
	return h.Store.ListSales(ctx, filter)
}

// failingAppendStore rechaza Append como lo haría un disco lleno o una transacción abortada
type failingAppendStore struct {
	repository.Store
	err error
}

func (f *failingAppendStore) Append(ctx context.Context, batch *models.Snapshot) error {
	return f.err
}
