package sideeffect

import (
	"context"
	"errors"
	"testing"

	"moneta/internal/models"
	"moneta/internal/repositories/repotest"
	"moneta/internal/services/commission"
	"moneta/internal/services/settlement"
	"moneta/internal/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	store      *repotest.Store
	settlement settlement.Service
	platform   *models.Wallet
	buyer      *models.Wallet
	merchant   *models.Wallet
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	platform := store.AddWallet(1, dec("100000"))
	buyer := store.AddWallet(2, dec("1000"))
	merchant := store.AddWallet(3, dec("1000"))

	walletSvc := wallet.NewService(store, nil, nil)
	commissionSvc := commission.NewService(store, nil)
	settlementSvc := settlement.NewService(store, commissionSvc, walletSvc, nil,
		settlement.Config{PlatformWalletID: platform.ID})

	return &fixture{
		store:      store,
		settlement: settlementSvc,
		platform:   platform,
		buyer:      buyer,
		merchant:   merchant,
	}
}

func (f *fixture) payment(t *testing.T, cart models.Cart, metadata models.JSON) *models.Transaction {
	t.Helper()
	tx, err := f.settlement.Settle(context.Background(), settlement.Request{
		SenderWalletID:   f.buyer.ID,
		ReceiverWalletID: f.merchant.ID,
		Amount:           cart.Total(),
		Type:             models.TransactionTypePayment,
		Cart:             cart,
		Metadata:         metadata,
	})
	require.NoError(t, err)
	return tx
}

func defaultCart() models.Cart {
	return models.Cart{{ItemID: 1, Name: "airtime", UnitPrice: dec("75.50"), Quantity: 2}}
}

func TestRewardHandler(t *testing.T) {
	f := setup(t)
	tx := f.payment(t, defaultCart(), nil) // 151.00

	h := NewRewardHandler(f.store)
	evt := &models.OutboxEvent{Kind: h.Kind(), Payload: models.JSON{"transaction_id": tx.ID}}

	require.NoError(t, h.Handle(context.Background(), evt))
	updated := f.store.TransactionRows[tx.ID]
	assert.True(t, updated.EarnedReward.Equal(dec("151")), "one point per whole unit, got %s", updated.EarnedReward)

	// A redelivered event must not accrue twice.
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.True(t, f.store.TransactionRows[tx.ID].EarnedReward.Equal(dec("151")))
}

func TestStockHandler(t *testing.T) {
	f := setup(t)

	p := &models.Product{Name: "airtime", Stock: 10}
	require.NoError(t, f.store.Products().Create(context.Background(), p))

	cart := models.Cart{{ItemID: p.ID, Name: p.Name, UnitPrice: dec("75.50"), Quantity: 2}}
	tx := f.payment(t, cart, nil)

	h := NewStockHandler(f.store)
	evt := &models.OutboxEvent{Kind: h.Kind(), Payload: models.JSON{"transaction_id": tx.ID}}
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, 8, f.store.ProductRows[p.ID].Stock)
}

func TestStockHandler_MissingProductSkipped(t *testing.T) {
	f := setup(t)
	tx := f.payment(t, defaultCart(), nil) // item 1 has no product row

	h := NewStockHandler(f.store)
	evt := &models.OutboxEvent{Kind: h.Kind(), Payload: models.JSON{"transaction_id": tx.ID}}
	assert.NoError(t, h.Handle(context.Background(), evt), "inventory drift must not fail the event")
}

func TestReferralHandler_PaysOnce(t *testing.T) {
	f := setup(t)
	bonus := dec("500")
	h := NewReferralHandler(f.store, f.settlement, f.platform.ID, bonus)

	evt := &models.OutboxEvent{
		Kind: h.Kind(),
		Payload: models.JSON{
			"referrer_wallet_id": f.merchant.ID,
			"referee_wallet_id":  f.buyer.ID,
		},
	}

	require.NoError(t, h.Handle(context.Background(), evt))
	assert.True(t, f.store.WalletRows[f.merchant.ID].Balance.Equal(dec("1500")))

	// Redelivery is swallowed by the unique pair constraint.
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.True(t, f.store.WalletRows[f.merchant.ID].Balance.Equal(dec("1500")))

	bonusCount := 0
	for _, tx := range f.store.TransactionRows {
		if tx.Type == models.TransactionTypeBonus {
			bonusCount++
		}
	}
	assert.Equal(t, 1, bonusCount)
}

func TestNotificationHandler_NotifiesBothParties(t *testing.T) {
	f := setup(t)
	tx := f.payment(t, defaultCart(), nil)

	var notified []uint
	h := NewNotificationHandler(f.store, notifierFunc(func(_ context.Context, walletID uint, _ *models.Transaction) error {
		notified = append(notified, walletID)
		return nil
	}))

	evt := &models.OutboxEvent{Kind: h.Kind(), Payload: models.JSON{"transaction_id": tx.ID}}
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.ElementsMatch(t, []uint{f.buyer.ID, f.merchant.ID}, notified)
}

type notifierFunc func(ctx context.Context, walletID uint, tx *models.Transaction) error

func (f notifierFunc) Notify(ctx context.Context, walletID uint, tx *models.Transaction) error {
	return f(ctx, walletID, tx)
}

func TestWorker_DrainProcessesPendingEvents(t *testing.T) {
	f := setup(t)
	f.payment(t, defaultCart(), nil)

	dispatcher := NewDispatcher()
	dispatcher.Register(NewRewardHandler(f.store))
	dispatcher.Register(NewStockHandler(f.store))
	dispatcher.Register(NewNotificationHandler(f.store, notifierFunc(
		func(context.Context, uint, *models.Transaction) error { return nil })))

	worker := NewWorker(f.store, dispatcher, WorkerConfig{})
	require.NoError(t, worker.Drain(context.Background()))

	for _, evt := range f.store.OutboxRows {
		assert.Equal(t, models.OutboxStatusProcessed, evt.Status, "event %s", evt.Kind)
		assert.NotNil(t, evt.ProcessedAt)
	}
}

func TestWorker_FailingEventEventuallyMarkedFailed(t *testing.T) {
	f := setup(t)

	boom := errors.New("gateway down")
	dispatcher := NewDispatcher()
	dispatcher.Register(failingHandler{kind: models.OutboxKindNotification, err: boom})

	evt := &models.OutboxEvent{
		Kind:    models.OutboxKindNotification,
		Status:  models.OutboxStatusPending,
		Payload: models.JSON{"transaction_id": 1},
	}
	require.NoError(t, f.store.Outbox().Enqueue(context.Background(), evt))

	worker := NewWorker(f.store, dispatcher, WorkerConfig{MaxAttempts: 2})

	require.NoError(t, worker.Drain(context.Background()))
	row := f.store.OutboxRows[evt.ID]
	assert.Equal(t, models.OutboxStatusPending, row.Status, "first failure keeps the event pending")
	assert.Equal(t, 1, row.Attempts)
	assert.NotEmpty(t, row.LastError)

	require.NoError(t, worker.Drain(context.Background()))
	row = f.store.OutboxRows[evt.ID]
	assert.Equal(t, models.OutboxStatusFailed, row.Status)
	assert.Equal(t, 2, row.Attempts)
}

type failingHandler struct {
	kind string
	err  error
}

func (h failingHandler) Kind() string { return h.kind }

func (h failingHandler) Handle(context.Context, *models.OutboxEvent) error { return h.err }
