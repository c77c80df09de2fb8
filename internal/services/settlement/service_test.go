package settlement

import (
	"context"
	"testing"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/repositories/repotest"
	"moneta/internal/services/commission"
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
	store    *repotest.Store
	svc      Service
	platform *models.Wallet
	sender   *models.Wallet
	receiver *models.Wallet
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	platform := store.AddWallet(1, decimal.Zero)
	sender := store.AddWallet(2, dec("1000"))
	receiver := store.AddWallet(3, dec("1000"))

	walletSvc := wallet.NewService(store, nil, nil)
	commissionSvc := commission.NewService(store, nil)
	svc := NewService(store, commissionSvc, walletSvc, nil, Config{PlatformWalletID: platform.ID})

	return &fixture{store: store, svc: svc, platform: platform, sender: sender, receiver: receiver}
}

func (f *fixture) balance(id uint) decimal.Decimal {
	return f.store.WalletRows[id].Balance
}

func TestSettle_ConservesMoney(t *testing.T) {
	f := setup(t)
	f.store.AddRule(models.CommissionRule{
		Action: models.ActionSendMoney, Audience: models.AudienceUser,
		Kind: models.CommissionPercentage, Value: dec("1"),
	})

	tx, err := f.svc.Settle(context.Background(), Request{
		SenderWalletID:   f.sender.ID,
		ReceiverWalletID: f.receiver.ID,
		Amount:           dec("100"),
		Type:             models.TransactionTypeTransfer,
		Action:           models.ActionSendMoney,
		Audiences:        []models.CommissionAudience{models.AudienceUser},
	})
	require.NoError(t, err)

	// Sender pays amount plus commission; commission lands on the platform.
	assert.True(t, f.balance(f.sender.ID).Equal(dec("899")), "sender: %s", f.balance(f.sender.ID))
	assert.True(t, f.balance(f.receiver.ID).Equal(dec("1100")), "receiver: %s", f.balance(f.receiver.ID))
	assert.True(t, f.balance(f.platform.ID).Equal(dec("1")), "platform: %s", f.balance(f.platform.ID))

	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.True(t, tx.Commission.Equal(dec("1")))
	assert.NotEmpty(t, tx.Reference)

	total := f.balance(f.sender.ID).Add(f.balance(f.receiver.ID)).Add(f.balance(f.platform.ID))
	assert.True(t, total.Equal(dec("2000")), "money must be conserved, got %s", total)
}

func TestSettle_NoRuleMeansNoCommission(t *testing.T) {
	f := setup(t)

	tx, err := f.svc.Settle(context.Background(), Request{
		SenderWalletID:   f.sender.ID,
		ReceiverWalletID: f.receiver.ID,
		Amount:           dec("100"),
		Type:             models.TransactionTypeTransfer,
		Action:           models.ActionSendMoney,
		Audiences:        []models.CommissionAudience{models.AudienceUser},
	})
	require.NoError(t, err)
	assert.True(t, tx.Commission.IsZero())
	assert.True(t, f.balance(f.platform.ID).IsZero())
	assert.True(t, f.balance(f.sender.ID).Equal(dec("900")))
}

func TestSettle_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, req *Request)
		wantErr error
	}{
		{
			name:    "non-positive amount",
			mutate:  func(f *fixture, req *Request) { req.Amount = decimal.Zero },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "self transfer",
			mutate:  func(f *fixture, req *Request) { req.ReceiverWalletID = f.sender.ID },
			wantErr: ErrSelfTransferNotAllowed,
		},
		{
			name:    "unknown type",
			mutate:  func(f *fixture, req *Request) { req.Type = "chargeback" },
			wantErr: ErrInvalidType,
		},
		{
			name:    "insufficient funds",
			mutate:  func(f *fixture, req *Request) { req.Amount = dec("1000.01") },
			wantErr: ErrInsufficientFunds,
		},
		{
			name:    "missing receiver wallet",
			mutate:  func(f *fixture, req *Request) { req.ReceiverWalletID = 999 },
			wantErr: ErrWalletNotFound,
		},
		{
			name: "locked sender",
			mutate: func(f *fixture, req *Request) {
				f.store.WalletRows[f.sender.ID].Status = models.WalletStatusLocked
			},
			wantErr: ErrWalletLocked,
		},
		{
			name: "locked receiver",
			mutate: func(f *fixture, req *Request) {
				f.store.WalletRows[f.receiver.ID].Status = models.WalletStatusLocked
			},
			wantErr: ErrWalletLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			req := Request{
				SenderWalletID:   f.sender.ID,
				ReceiverWalletID: f.receiver.ID,
				Amount:           dec("100"),
				Type:             models.TransactionTypeTransfer,
			}
			tt.mutate(f, &req)

			_, err := f.svc.Settle(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)

			// Nothing may move on a rejected settlement.
			assert.True(t, f.balance(f.sender.ID).Equal(dec("1000")))
			assert.True(t, f.balance(f.receiver.ID).Equal(dec("1000")))
			assert.Empty(t, f.store.TransactionRows)
			assert.Empty(t, f.store.OutboxRows)
		})
	}
}

func TestSettle_CommissionSwallowingAmountRejected(t *testing.T) {
	f := setup(t)
	f.store.AddRule(models.CommissionRule{
		Action: models.ActionSendMoney, Audience: models.AudienceUser,
		Kind: models.CommissionFixed, Value: dec("100"),
	})

	_, err := f.svc.Settle(context.Background(), Request{
		SenderWalletID:   f.sender.ID,
		ReceiverWalletID: f.receiver.ID,
		Amount:           dec("100"),
		Type:             models.TransactionTypeTransfer,
		Action:           models.ActionSendMoney,
		Audiences:        []models.CommissionAudience{models.AudienceUser},
	})
	assert.ErrorIs(t, err, ErrCommissionExceedsAmount)
}

func TestSettle_OutboxWrittenWithLedger(t *testing.T) {
	f := setup(t)

	cart := models.Cart{{ItemID: 10, Name: "sim card", UnitPrice: dec("50"), Quantity: 2}}
	tx, err := f.svc.Settle(context.Background(), Request{
		SenderWalletID:   f.sender.ID,
		ReceiverWalletID: f.receiver.ID,
		Amount:           cart.Total(),
		Type:             models.TransactionTypePayment,
		Cart:             cart,
		Metadata:         models.JSON{MetadataReferrerWalletID: f.receiver.ID},
	})
	require.NoError(t, err)

	kinds := map[string]int{}
	for _, evt := range f.store.OutboxRows {
		kinds[evt.Kind]++
		assert.Equal(t, models.OutboxStatusPending, evt.Status)
		require.NotNil(t, evt.TransactionID)
		assert.Equal(t, tx.ID, *evt.TransactionID)
	}
	assert.Equal(t, 1, kinds[models.OutboxKindNotification])
	assert.Equal(t, 1, kinds[models.OutboxKindRewardAccrual], "payments accrue rewards")
	assert.Equal(t, 1, kinds[models.OutboxKindStockDecrement], "cart payments decrement stock")
	assert.Equal(t, 1, kinds[models.OutboxKindReferralBonus], "referrer metadata enqueues a bonus")
}

func TestSettle_TransferEnqueuesOnlyNotification(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Settle(context.Background(), Request{
		SenderWalletID:   f.sender.ID,
		ReceiverWalletID: f.receiver.ID,
		Amount:           dec("100"),
		Type:             models.TransactionTypeTransfer,
	})
	require.NoError(t, err)

	require.Len(t, f.store.OutboxRows, 1)
	for _, evt := range f.store.OutboxRows {
		assert.Equal(t, models.OutboxKindNotification, evt.Kind)
	}
}

func TestSettleIn_CallerReferencePreserved(t *testing.T) {
	f := setup(t)

	err := f.store.Atomic(context.Background(), func(store repositories.Store) error {
		tx, err := f.svc.SettleIn(context.Background(), store, Request{
			SenderWalletID:   f.sender.ID,
			ReceiverWalletID: f.receiver.ID,
			Amount:           dec("100"),
			Type:             models.TransactionTypeRefund,
			Reference:        "orig-ref-1",
		})
		if err != nil {
			return err
		}
		assert.Equal(t, "orig-ref-1", tx.Reference)
		return nil
	})
	require.NoError(t, err)
}
