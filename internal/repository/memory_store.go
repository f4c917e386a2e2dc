package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

// memoryStore almacenamiento local en memoria. Con path no vacío persiste un snapshot JSON
// después de cada escritura y lo recarga al iniciar.
type memoryStore struct {
	mu          sync.RWMutex
	path        string
	products    map[string]*models.Product
	order       []string
	purchases   []models.PurchaseRecord
	sales       []models.SaleRecord
	consumption []models.ConsumptionRecord
	clients     map[string]*models.Client
	logger      *zap.Logger
}

// NewMemoryStore crea el store local; path vacío = solo memoria
func NewMemoryStore(path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &memoryStore{
		path:     path,
		products: make(map[string]*models.Product),
		clients:  make(map[string]*models.Client),
		logger:   logger,
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("📁 Store local nuevo", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}

	var doc models.BackupDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode local store: %w", err)
	}
	s.replace(&models.Snapshot{
		Products:    doc.Products,
		Purchases:   doc.Purchases,
		Sales:       doc.Sales,
		Consumption: doc.Consumption,
		Clients:     doc.Clients,
	})

	logger.Info("✅ Store local cargado",
		zap.String("path", path),
		zap.Int("products", len(s.products)),
		zap.Int("purchases", len(s.purchases)),
		zap.Int("clients", len(s.clients)))
	return s, nil
}

func (s *memoryStore) Driver() string { return DriverMemory }

func (s *memoryStore) Close() error { return nil }

// persist escribe el snapshot al archivo (debe llamarse con el lock tomado)
func (s *memoryStore) persist() error {
	if s.path == "" {
		return nil
	}
	snap := s.snapshotLocked()
	doc := models.BackupDocument{
		Version:     models.BackupVersion,
		ExportDate:  time.Now().UTC(),
		Products:    snap.Products,
		Purchases:   snap.Purchases,
		Sales:       snap.Sales,
		Consumption: snap.Consumption,
		Clients:     snap.Clients,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace local store: %w", err)
	}
	return nil
}

// ===== PRODUCTOS =====

func (s *memoryStore) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := product.ProductKey.Normalize()
	if key.IsZero() {
		return nil, models.NewValidationError("product_name", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.products[key.ID()]; ok {
		if existing.OpeningStock == 0 && product.OpeningStock != 0 {
			existing.OpeningStock = product.OpeningStock
			if err := s.persist(); err != nil {
				existing.OpeningStock = 0
				return nil, err
			}
		}
		cp := *existing
		return &cp, nil
	}

	stored := &models.Product{ProductKey: key, OpeningStock: product.OpeningStock, CreatedAt: product.CreatedAt}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.products[key.ID()] = stored
	s.order = append(s.order, key.ID())
	if err := s.persist(); err != nil {
		delete(s.products, key.ID())
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}

	cp := *stored
	return &cp, nil
}

func (s *memoryStore) GetProduct(ctx context.Context, key models.ProductKey) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[key.ID()]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	target := models.ProductKey{Name: name}.Normalize().Name

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		p := s.products[id]
		if strings.EqualFold(p.Name, target) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Product, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.products[id]
		out = append(out, &cp)
	}
	return out, nil
}

// ===== LEDGERS =====

func (s *memoryStore) CreatePurchase(ctx context.Context, record *models.PurchaseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record.SyncStatus = models.SyncStatusLocal
	s.purchases = append(s.purchases, *record)
	if err := s.persist(); err != nil {
		s.purchases = s.purchases[:len(s.purchases)-1]
		return err
	}
	return nil
}

func (s *memoryStore) ListPurchases(ctx context.Context, filter *models.ProductFilter) ([]*models.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PurchaseRecord
	for i := range s.purchases {
		r := s.purchases[i]
		if filter.Matches(r.ProductKey, r.Date) {
			out = append(out, &r)
		}
	}
	return paginate(out, filter), nil
}

func (s *memoryStore) CreateSale(ctx context.Context, record *models.SaleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record.SyncStatus = models.SyncStatusLocal
	s.sales = append(s.sales, *record)
	if err := s.persist(); err != nil {
		s.sales = s.sales[:len(s.sales)-1]
		return err
	}
	return nil
}

func (s *memoryStore) ListSales(ctx context.Context, filter *models.ProductFilter) ([]*models.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.SaleRecord
	for i := range s.sales {
		r := s.sales[i]
		if filter.Matches(r.ProductKey, r.Date) {
			out = append(out, &r)
		}
	}
	return paginate(out, filter), nil
}

func (s *memoryStore) CreateConsumption(ctx context.Context, record *models.ConsumptionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record.SyncStatus = models.SyncStatusLocal
	s.consumption = append(s.consumption, *record)
	if err := s.persist(); err != nil {
		s.consumption = s.consumption[:len(s.consumption)-1]
		return err
	}
	return nil
}

func (s *memoryStore) ListConsumption(ctx context.Context, filter *models.ProductFilter) ([]*models.ConsumptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ConsumptionRecord
	for i := range s.consumption {
		r := s.consumption[i]
		if filter.Matches(r.ProductKey, r.Date) {
			out = append(out, &r)
		}
	}
	return paginate(out, filter), nil
}

// ===== CLIENTES =====

func (s *memoryStore) SaveClient(ctx context.Context, client *models.Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if client.ID == "" {
		return models.NewValidationError("id", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.clients[client.ID]
	s.clients[client.ID] = client.Clone()
	if err := s.persist(); err != nil {
		s.restoreClient(client.ID, prev, existed)
		return err
	}
	return nil
}

// UpdateClient aplica apply sobre la versión almacenada bajo el lock de escritura
func (s *memoryStore) UpdateClient(ctx context.Context, id string, apply func(current *models.Client) (*models.Client, error)) (*models.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, models.NewValidationError("id", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.clients[id]
	var current *models.Client
	if existed {
		current = prev.Clone()
	}
	next, err := apply(current)
	if err != nil || next == nil {
		return nil, err
	}
	next.ID = id

	s.clients[id] = next.Clone()
	if err := s.persist(); err != nil {
		s.restoreClient(id, prev, existed)
		return nil, err
	}
	return next, nil
}

func (s *memoryStore) restoreClient(id string, prev *models.Client, existed bool) {
	if existed {
		s.clients[id] = prev
		return
	}
	delete(s.clients, id)
}

func (s *memoryStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (s *memoryStore) ListClients(ctx context.Context) ([]*models.Client, error) {
	return s.listClients(func(*models.Client) bool { return true }), nil
}

func (s *memoryStore) ListSyncFailed(ctx context.Context) ([]*models.Client, error) {
	return s.listClients(func(c *models.Client) bool { return c.SyncFailed }), nil
}

func (s *memoryStore) listClients(keep func(*models.Client) bool) []*models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ===== SNAPSHOT / RESTORE =====

func (s *memoryStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

func (s *memoryStore) snapshotLocked() *models.Snapshot {
	snap := &models.Snapshot{
		Products:    make([]*models.Product, 0, len(s.order)),
		Purchases:   make([]*models.PurchaseRecord, 0, len(s.purchases)),
		Sales:       make([]*models.SaleRecord, 0, len(s.sales)),
		Consumption: make([]*models.ConsumptionRecord, 0, len(s.consumption)),
		Clients:     make([]*models.Client, 0, len(s.clients)),
	}
	for _, id := range s.order {
		cp := *s.products[id]
		snap.Products = append(snap.Products, &cp)
	}
	for i := range s.purchases {
		r := s.purchases[i]
		snap.Purchases = append(snap.Purchases, &r)
	}
	for i := range s.sales {
		r := s.sales[i]
		snap.Sales = append(snap.Sales, &r)
	}
	for i := range s.consumption {
		r := s.consumption[i]
		snap.Consumption = append(snap.Consumption, &r)
	}
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snap.Clients = append(snap.Clients, s.clients[id].Clone())
	}
	return snap
}

// Restore arma el nuevo estado completo y lo intercambia de una vez
func (s *memoryStore) Restore(ctx context.Context, snapshot *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil {
		return models.NewValidationError("snapshot", "is required")
	}

	next := &memoryStore{path: s.path, logger: s.logger}
	next.replace(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	prevProducts, prevOrder, prevClients := s.products, s.order, s.clients
	prevPurchases, prevSales, prevConsumption := s.purchases, s.sales, s.consumption

	s.products, s.order = next.products, next.order
	s.purchases, s.sales, s.consumption = next.purchases, next.sales, next.consumption
	s.clients = next.clients

	if err := s.persist(); err != nil {
		s.products, s.order, s.clients = prevProducts, prevOrder, prevClients
		s.purchases, s.sales, s.consumption = prevPurchases, prevSales, prevConsumption
		return err
	}
	return nil
}

// Append agrega productos y registros como una sola escritura: se arma el estado
// siguiente sobre copias y se publica solo si el archivo se pudo persistir
func (s *memoryStore) Append(ctx context.Context, batch *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[string]*models.Product, len(s.products)+len(batch.Products))
	for id, p := range s.products {
		products[id] = p
	}
	order := append(make([]string, 0, len(s.order)+len(batch.Products)), s.order...)
	for _, p := range batch.Products {
		if p == nil {
			continue
		}
		key := p.ProductKey.Normalize()
		if key.IsZero() {
			return models.NewValidationError("product_name", "is required")
		}
		if existing, ok := products[key.ID()]; ok {
			if existing.OpeningStock == 0 && p.OpeningStock != 0 {
				cp := *existing
				cp.OpeningStock = p.OpeningStock
				products[key.ID()] = &cp
			}
			continue
		}
		stored := &models.Product{ProductKey: key, OpeningStock: p.OpeningStock, CreatedAt: p.CreatedAt}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		products[key.ID()] = stored
		order = append(order, key.ID())
	}

	purchases := append(make([]models.PurchaseRecord, 0, len(s.purchases)+len(batch.Purchases)), s.purchases...)
	for _, r := range batch.Purchases {
		if r != nil {
			r.SyncStatus = models.SyncStatusLocal
			purchases = append(purchases, *r)
		}
	}
	sales := append(make([]models.SaleRecord, 0, len(s.sales)+len(batch.Sales)), s.sales...)
	for _, r := range batch.Sales {
		if r != nil {
			r.SyncStatus = models.SyncStatusLocal
			sales = append(sales, *r)
		}
	}
	consumption := append(make([]models.ConsumptionRecord, 0, len(s.consumption)+len(batch.Consumption)), s.consumption...)
	for _, r := range batch.Consumption {
		if r != nil {
			r.SyncStatus = models.SyncStatusLocal
			consumption = append(consumption, *r)
		}
	}

	prevProducts, prevOrder := s.products, s.order
	prevPurchases, prevSales, prevConsumption := s.purchases, s.sales, s.consumption

	s.products, s.order = products, order
	s.purchases, s.sales, s.consumption = purchases, sales, consumption

	if err := s.persist(); err != nil {
		s.products, s.order = prevProducts, prevOrder
		s.purchases, s.sales, s.consumption = prevPurchases, prevSales, prevConsumption
		return err
	}
	return nil
}

// replace carga un snapshot sin lock (solo sobre stores aún no publicados)
func (s *memoryStore) replace(snap *models.Snapshot) {
	s.products = make(map[string]*models.Product, len(snap.Products))
	s.order = s.order[:0]
	for _, p := range snap.Products {
		if p == nil {
			continue
		}
		key := p.ProductKey.Normalize()
		if _, dup := s.products[key.ID()]; dup {
			continue
		}
		cp := *p
		cp.ProductKey = key
		s.products[key.ID()] = &cp
		s.order = append(s.order, key.ID())
	}

	s.purchases = make([]models.PurchaseRecord, 0, len(snap.Purchases))
	for _, r := range snap.Purchases {
		if r != nil {
			s.purchases = append(s.purchases, *r)
		}
	}
	s.sales = make([]models.SaleRecord, 0, len(snap.Sales))
	for _, r := range snap.Sales {
		if r != nil {
			s.sales = append(s.sales, *r)
		}
	}
	s.consumption = make([]models.ConsumptionRecord, 0, len(snap.Consumption))
	for _, r := range snap.Consumption {
		if r != nil {
			s.consumption = append(s.consumption, *r)
		}
	}

	s.clients = make(map[string]*models.Client, len(snap.Clients))
	for _, c := range snap.Clients {
		if c != nil && c.ID != "" {
			s.clients[c.ID] = c.Clone()
		}
	}
}
