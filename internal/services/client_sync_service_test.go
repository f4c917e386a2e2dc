package services

import (
	"context"
	"errors"
	"testing"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUpsertClientSynced(t *testing.T) {
	syncer := &fakeSyncer{}
	svc := NewClientSyncService(newTestStore(t), syncer, 2, zap.NewNop())

	client, err := svc.Upsert(context.Background(), &models.ClientRequest{Name: "Asha", Phone: "98450"})
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	require.NotNil(t, client.POSID)
	assert.Equal(t, "POS-1", *client.POSID)
	assert.False(t, client.SyncFailed)
	assert.NotNil(t, client.LastSynced)
	assert.Equal(t, models.ClientStateSynced, client.SyncState())
}

func TestUpsertClientKeepsLocalCopyWhenPOSDown(t *testing.T) {
	store := newTestStore(t)
	syncer := &fakeSyncer{fail: true}
	svc := NewClientSyncService(store, syncer, 2, zap.NewNop())

	client, err := svc.Upsert(context.Background(), &models.ClientRequest{Name: "Meera"})
	require.NoError(t, err)
	assert.True(t, client.SyncFailed)
	assert.Nil(t, client.POSID)

	stored, err := store.GetClient(context.Background(), client.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.ClientStateSyncFailed, stored.SyncState())
}

func TestUpsertClientValidation(t *testing.T) {
	svc := NewClientSyncService(newTestStore(t), &fakeSyncer{}, 2, zap.NewNop())

	_, err := svc.Upsert(context.Background(), &models.ClientRequest{Name: "Ria", Email: "not-an-email"})
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "email", vErr.Field)
}

func TestRetryFailedSyncsIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	syncer := &fakeSyncer{fail: true}
	svc := NewClientSyncService(store, syncer, 2, zap.NewNop())
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Upsert(ctx, &models.ClientRequest{Name: name})
		require.NoError(t, err)
	}

	// Un cliente que ya tenía pos_id conserva el suyo
	known := "POS-KNOWN"
	require.NoError(t, store.SaveClient(ctx, &models.Client{ID: "known", Name: "D", POSID: &known, SyncFailed: true}))

	syncer.setFail(false)
	report, err := svc.RetryFailedSyncs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Attempted)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	remaining, err := store.ListSyncFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	d, err := store.GetClient(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, "POS-KNOWN", *d.POSID)

	before, err := store.ListClients(ctx)
	require.NoError(t, err)
	calls := syncer.calls

	again, err := svc.RetryFailedSyncs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Attempted)
	assert.Equal(t, calls, syncer.calls)

	after, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRetryFailedSyncsReportsFailures(t *testing.T) {
	store := newTestStore(t)
	syncer := &fakeSyncer{fail: true}
	svc := NewClientSyncService(store, syncer, 4, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, &models.ClientRequest{Name: "A"})
	require.NoError(t, err)

	report, err := svc.RetryFailedSyncs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "connection refused")

	remaining, err := store.ListSyncFailed(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestSearchClients(t *testing.T) {
	svc := NewClientSyncService(newTestStore(t), &fakeSyncer{}, 2, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, &models.ClientRequest{Name: "Priya Sharma", Phone: "9845012345"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, &models.ClientRequest{Name: "Kavya", Phone: "9000000000"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "SHARMA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Priya Sharma", found[0].Name)

	found, err = svc.Search(ctx, "90000")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Kavya", found[0].Name)

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApplyOrderAndPayment(t *testing.T) {
	svc := NewClientSyncService(newTestStore(t), &fakeSyncer{}, 2, zap.NewNop())
	ctx := context.Background()

	client, err := svc.Upsert(ctx, &models.ClientRequest{Name: "Asha"})
	require.NoError(t, err)

	client, err = svc.ApplyOrder(ctx, client.ID, &models.OrderRequest{Amount: dec("1000"), Paid: dec("400")})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", client.TotalSpent.StringFixed(2))
	assert.Equal(t, "600.00", client.PendingPayment.StringFixed(2))

	client, err = svc.ApplyPayment(ctx, client.ID, &models.PaymentRequest{Amount: dec("700")})
	require.NoError(t, err)
	assert.True(t, client.PendingPayment.IsZero())

	_, err = svc.ApplyPayment(ctx, client.ID, &models.PaymentRequest{Amount: dec("0")})
	var vErr *models.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.ApplyOrder(ctx, "missing", &models.OrderRequest{Amount: dec("10")})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestRetryKeepsOrderAppliedDuringSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, &models.Client{
		ID: "cl-1", Name: "Asha", SyncFailed: true, TotalSpent: dec("0"), PendingPayment: dec("0"),
	}))

	syncer := newGatedSyncer()
	svc := NewClientSyncService(store, syncer, 2, zap.NewNop())

	type retryOutcome struct {
		report *models.RetryReport
		err    error
	}
	done := make(chan retryOutcome, 1)
	go func() {
		report, err := svc.RetryFailedSyncs(ctx)
		done <- retryOutcome{report, err}
	}()

	<-syncer.entered
	_, err := svc.ApplyOrder(ctx, "cl-1", &models.OrderRequest{Amount: dec("500"), Paid: dec("100")})
	require.NoError(t, err)
	close(syncer.release)

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, 1, out.report.Succeeded)

	got, err := store.GetClient(ctx, "cl-1")
	require.NoError(t, err)
	assert.Equal(t, "500.00", got.TotalSpent.StringFixed(2))
	assert.Equal(t, "400.00", got.PendingPayment.StringFixed(2))
	assert.False(t, got.SyncFailed)
	require.NotNil(t, got.POSID)
	assert.Equal(t, "POS-Asha", *got.POSID)
}

func TestUpsertKeepsOrderAppliedDuringSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, &models.Client{
		ID: "cl-1", Name: "Asha", TotalSpent: dec("200"), PendingPayment: dec("0"),
	}))

	syncer := newGatedSyncer()
	svc := NewClientSyncService(store, syncer, 2, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Upsert(ctx, &models.ClientRequest{ID: "cl-1", Name: "Asha R", Phone: "98450"})
		done <- err
	}()

	<-syncer.entered
	_, err := svc.ApplyOrder(ctx, "cl-1", &models.OrderRequest{Amount: dec("500"), Paid: dec("500")})
	require.NoError(t, err)
	close(syncer.release)
	require.NoError(t, <-done)

	got, err := store.GetClient(ctx, "cl-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha R", got.Name)
	assert.Equal(t, "98450", got.Phone)
	assert.Equal(t, "700.00", got.TotalSpent.StringFixed(2))
	assert.Equal(t, models.ClientStateSynced, got.SyncState())
}

func TestRetryFailedSyncsReturnsPartialReportOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.SaveClient(ctx, &models.Client{ID: "cl-1", Name: "Asha", SyncFailed: true}))

	syncer := newGatedSyncer()
	svc := NewClientSyncService(store, syncer, 1, zap.NewNop())

	go func() {
		<-syncer.entered
		cancel()
	}()

	report, err := svc.RetryFailedSyncs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, report.Attempted, report.Succeeded+report.Failed)
}
