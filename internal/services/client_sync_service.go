package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/pos"
	"inventory-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrClientNotFound el cliente no existe en el registro local
var ErrClientNotFound = errors.New("client not found")

// ClientSyncService mantiene el registro local de clientes sincronizado con el POS.
// El POS caído nunca pierde datos: el cliente queda local con sync_failed para reintentar.
type ClientSyncService interface {
	Upsert(ctx context.Context, req *models.ClientRequest) (*models.Client, error)
	RetryFailedSyncs(ctx context.Context) (*models.RetryReport, error)
	Search(ctx context.Context, query string) ([]*models.Client, error)
	ApplyOrder(ctx context.Context, id string, req *models.OrderRequest) (*models.Client, error)
	ApplyPayment(ctx context.Context, id string, req *models.PaymentRequest) (*models.Client, error)
}

type clientSyncService struct {
	store       repository.ClientRepository
	syncer      pos.Syncer
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// NewClientSyncService crea el servicio; concurrency limita los reintentos simultáneos
func NewClientSyncService(store repository.ClientRepository, syncer pos.Syncer, concurrency int, logger *zap.Logger) ClientSyncService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &clientSyncService{
		store:       store,
		syncer:      syncer,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Upsert intenta primero el POS remoto; ante cualquier falla guarda localmente con sync_failed.
// El resultado se aplica sobre la versión almacenada, no sobre la leída antes de llamar al POS.
func (s *clientSyncService) Upsert(ctx context.Context, req *models.ClientRequest) (*models.Client, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("operation", "upsert_client"), zap.String("name", req.Name))
	now := s.now().UTC()

	var draft *models.Client
	if req.ID != "" {
		existing, err := s.store.GetClient(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load client: %w", err)
		}
		draft = existing
	}
	if draft == nil {
		id := req.ID
		if id == "" {
			id = uuid.NewString()
		}
		draft = newClient(id, now)
	}
	applyProfile(draft, req, now)

	posID, syncErr := s.syncer.SyncClient(ctx, draft.Clone())
	if syncErr != nil {
		clientSyncTotal.WithLabelValues("upsert", resultFailure).Inc()
		logger.Warn("⚠️ POS no disponible, cliente guardado localmente", zap.String("client_id", draft.ID), zap.Error(syncErr))
	} else {
		clientSyncTotal.WithLabelValues("upsert", resultSuccess).Inc()
	}

	client, err := s.store.UpdateClient(ctx, draft.ID, func(current *models.Client) (*models.Client, error) {
		if current == nil {
			current = newClient(draft.ID, now)
		}
		applyProfile(current, req, now)
		if syncErr != nil {
			current.SyncFailed = true
		} else {
			markSynced(current, posID, now)
		}
		return current, nil
	})
	if err != nil {
		logger.Error("❌ Error guardando cliente", zap.Error(err))
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	logger.Info("✅ Cliente guardado", zap.String("client_id", client.ID), zap.String("sync_state", client.SyncState()))
	return client, nil
}

func newClient(id string, at time.Time) *models.Client {
	return &models.Client{
		ID:             id,
		TotalSpent:     decimal.Zero,
		PendingPayment: decimal.Zero,
		CreatedAt:      at,
	}
}

func applyProfile(client *models.Client, req *models.ClientRequest, at time.Time) {
	client.Name = req.Name
	client.Phone = req.Phone
	client.Email = req.Email
	client.UpdatedAt = at
}

// markSynced aplica el resultado exitoso; un pos_id ya asignado nunca se reemplaza
func markSynced(client *models.Client, posID string, at time.Time) {
	if client.POSID == nil {
		id := posID
		client.POSID = &id
	}
	client.SyncFailed = false
	synced := at
	client.LastSynced = &synced
}

type retryResult struct {
	posID string
	err   error
}

// RetryFailedSyncs reintenta en paralelo todos los clientes con sync_failed.
// Cada goroutine escribe solo su propio slot; los resultados se aplican después de esperar a todas.
// Si el contexto se cancela el reporte parcial se retorna junto con el error.
func (s *clientSyncService) RetryFailedSyncs(ctx context.Context) (*models.RetryReport, error) {
	logger := s.logger.With(zap.String("operation", "retry_failed_syncs"))

	failed, err := s.store.ListSyncFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced clients: %w", err)
	}

	report := &models.RetryReport{Attempted: len(failed), Errors: []string{}}
	if len(failed) == 0 {
		return report, nil
	}
	logger.Info("🔍 [DEBUG] Reintentando sincronizaciones", zap.Int("clients", len(failed)), zap.Int("concurrency", s.concurrency))

	results := make([]retryResult, len(failed))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, c := range failed {
		i, c := i, c.Clone()
		g.Go(func() error {
			posID, err := s.syncer.SyncClient(ctx, c)
			results[i] = retryResult{posID: posID, err: err}
			return nil
		})
	}
	g.Wait()

	now := s.now().UTC()
	for i, c := range failed {
		res := results[i]
		if res.err != nil {
			clientSyncTotal.WithLabelValues("retry", resultFailure).Inc()
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("client %s: %v", c.ID, res.err))
			continue
		}

		// Solo se tocan los campos de sincronización de la versión actual
		_, err := s.store.UpdateClient(ctx, c.ID, func(current *models.Client) (*models.Client, error) {
			if current == nil {
				return nil, ErrClientNotFound
			}
			markSynced(current, res.posID, now)
			current.UpdatedAt = now
			return current, nil
		})
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("client %s: %v", c.ID, err))
			continue
		}
		clientSyncTotal.WithLabelValues("retry", resultSuccess).Inc()
		report.Succeeded++
	}

	logger.Info("✅ Reintento completado",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, ctx.Err()
}

// Search búsqueda por nombre o teléfono sin distinguir mayúsculas
func (s *clientSyncService) Search(ctx context.Context, query string) ([]*models.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	out := make([]*models.Client, 0, len(clients))
	for _, c := range clients {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ApplyOrder suma el pedido al total gastado y la parte no pagada al saldo pendiente
func (s *clientSyncService) ApplyOrder(ctx context.Context, id string, req *models.OrderRequest) (*models.Client, error) {
	if req.Amount.IsNegative() {
		return nil, models.NewValidationError("amount", "must not be negative")
	}
	if req.Paid.IsNegative() {
		return nil, models.NewValidationError("paid", "must not be negative")
	}

	return s.update(ctx, id, func(c *models.Client) {
		c.TotalSpent = c.TotalSpent.Add(req.Amount).Round(2)
		c.PendingPayment = floorZero(c.PendingPayment.Add(req.Amount).Sub(req.Paid)).Round(2)
	})
}

// ApplyPayment descuenta un pago del saldo pendiente (nunca queda negativo)
func (s *clientSyncService) ApplyPayment(ctx context.Context, id string, req *models.PaymentRequest) (*models.Client, error) {
	if !req.Amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be greater than 0")
	}

	return s.update(ctx, id, func(c *models.Client) {
		c.PendingPayment = floorZero(c.PendingPayment.Sub(req.Amount)).Round(2)
	})
}

func (s *clientSyncService) update(ctx context.Context, id string, apply func(*models.Client)) (*models.Client, error) {
	now := s.now().UTC()
	client, err := s.store.UpdateClient(ctx, id, func(current *models.Client) (*models.Client, error) {
		if current == nil {
			return nil, ErrClientNotFound
		}
		apply(current)
		current.UpdatedAt = now
		return current, nil
	})
	if errors.Is(err, ErrClientNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	return client, nil
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
