package refund

import (
	"context"
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
	store    *repotest.Store
	svc      Service
	buyer    *models.Wallet
	merchant *models.Wallet
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	platform := store.AddWallet(1, decimal.Zero)
	buyer := store.AddWallet(2, dec("1000"))
	merchant := store.AddWallet(3, dec("1000"))

	walletSvc := wallet.NewService(store, nil, nil)
	commissionSvc := commission.NewService(store, nil)
	settlementSvc := settlement.NewService(store, commissionSvc, walletSvc, nil,
		settlement.Config{PlatformWalletID: platform.ID})

	return &fixture{
		store:    store,
		svc:      NewService(store, settlementSvc, walletSvc),
		buyer:    buyer,
		merchant: merchant,
	}
}

// pay settles a cart payment from buyer to merchant and returns the ledger row.
func (f *fixture) pay(t *testing.T, cart models.Cart) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		Type:             models.TransactionTypePayment,
		Status:           models.TransactionStatusCompleted,
		SenderWalletID:   &f.buyer.ID,
		ReceiverWalletID: &f.merchant.ID,
		Amount:           cart.Total(),
		Cart:             cart,
		Reference:        "pay-ref",
	}
	require.NoError(t, f.store.Transactions().Create(context.Background(), tx))
	f.store.WalletRows[f.buyer.ID].Balance = f.store.WalletRows[f.buyer.ID].Balance.Sub(tx.Amount)
	f.store.WalletRows[f.merchant.ID].Balance = f.store.WalletRows[f.merchant.ID].Balance.Add(tx.Amount)
	return tx
}

// payAmount settles a cartless payment of the given value.
func (f *fixture) payAmount(t *testing.T, amount string) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		Type:             models.TransactionTypePayment,
		Status:           models.TransactionStatusCompleted,
		SenderWalletID:   &f.buyer.ID,
		ReceiverWalletID: &f.merchant.ID,
		Amount:           dec(amount),
		Reference:        "pay-ref",
	}
	require.NoError(t, f.store.Transactions().Create(context.Background(), tx))
	f.store.WalletRows[f.buyer.ID].Balance = f.store.WalletRows[f.buyer.ID].Balance.Sub(tx.Amount)
	f.store.WalletRows[f.merchant.ID].Balance = f.store.WalletRows[f.merchant.ID].Balance.Add(tx.Amount)
	return tx
}

func threeLine() models.Cart {
	return models.Cart{
		{ItemID: 1, Name: "airtime", UnitPrice: dec("50"), Quantity: 2},
		{ItemID: 2, Name: "data pack", UnitPrice: dec("20"), Quantity: 1},
	}
}

func TestRefundItems_Partial(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine()) // total 120

	refundTx, err := f.svc.RefundItems(context.Background(), f.merchant.ID, orig.ID,
		[]ItemRefund{{ItemID: 1, Quantity: 1}})
	require.NoError(t, err)

	assert.True(t, refundTx.Amount.Equal(dec("50")))
	assert.Equal(t, models.TransactionTypeRefund, refundTx.Type)
	assert.Equal(t, orig.Reference, refundTx.Reference)
	assert.True(t, refundTx.Commission.IsZero(), "refunds carry no commission")

	updated := f.store.TransactionRows[orig.ID]
	assert.Equal(t, models.TransactionStatusPartiallyRefunded, updated.Status)
	assert.Equal(t, 1, updated.Cart[0].RefundedQuantity)

	assert.True(t, f.store.WalletRows[f.buyer.ID].Balance.Equal(dec("930")))
	assert.True(t, f.store.WalletRows[f.merchant.ID].Balance.Equal(dec("1070")))
}

func TestRefundItems_ExhaustingCartMarksRefunded(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine())

	_, err := f.svc.RefundItems(context.Background(), f.merchant.ID, orig.ID,
		[]ItemRefund{{ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusRefunded, f.store.TransactionRows[orig.ID].Status)
}

func TestRefundItems_OverRefundRejected(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine())

	_, err := f.svc.RefundItems(context.Background(), f.merchant.ID, orig.ID,
		[]ItemRefund{{ItemID: 1, Quantity: 1}})
	require.NoError(t, err)

	// Only one unit of item 1 remains.
	_, err = f.svc.RefundItems(context.Background(), f.merchant.ID, orig.ID,
		[]ItemRefund{{ItemID: 1, Quantity: 2}})
	assert.ErrorIs(t, err, ErrOverRefund)

	// The failed attempt must not move balances or bookkeeping.
	assert.Equal(t, 1, f.store.TransactionRows[orig.ID].Cart[0].RefundedQuantity)
	assert.True(t, f.store.WalletRows[f.buyer.ID].Balance.Equal(dec("930")))
}

func TestRefundItems_UnknownItem(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine())

	_, err := f.svc.RefundItems(context.Background(), f.merchant.ID, orig.ID,
		[]ItemRefund{{ItemID: 42, Quantity: 1}})
	assert.ErrorIs(t, err, ErrItemNotInCart)
}

func TestRefund_FullRemainder(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine())

	_, err := f.svc.RefundItems(context.Background(), f.merchant.ID, orig.ID,
		[]ItemRefund{{ItemID: 2, Quantity: 1}})
	require.NoError(t, err)

	refundTx, err := f.svc.Refund(context.Background(), f.merchant.ID, orig.ID)
	require.NoError(t, err)

	assert.True(t, refundTx.Amount.Equal(dec("100")), "refunds the remaining 2x50")
	assert.Equal(t, models.TransactionStatusRefunded, f.store.TransactionRows[orig.ID].Status)
	assert.True(t, f.store.WalletRows[f.buyer.ID].Balance.Equal(dec("1000")))
	assert.True(t, f.store.WalletRows[f.merchant.ID].Balance.Equal(dec("1000")))
}

func TestRefund_AlreadyRefunded(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine())

	_, err := f.svc.Refund(context.Background(), f.merchant.ID, orig.ID)
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), f.merchant.ID, orig.ID)
	assert.ErrorIs(t, err, ErrAlreadyRefunded)
}

func TestRefund_OnlyReceiverMayRefund(t *testing.T) {
	f := setup(t)
	orig := f.pay(t, threeLine())

	_, err := f.svc.Refund(context.Background(), f.buyer.ID, orig.ID)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestRefund_NonRefundableType(t *testing.T) {
	f := setup(t)
	tx := &models.Transaction{
		Type:             models.TransactionTypeWithdrawal,
		Status:           models.TransactionStatusCompleted,
		SenderWalletID:   &f.buyer.ID,
		ReceiverWalletID: &f.merchant.ID,
		Amount:           dec("100"),
	}
	require.NoError(t, f.store.Transactions().Create(context.Background(), tx))

	_, err := f.svc.Refund(context.Background(), f.merchant.ID, tx.ID)
	assert.ErrorIs(t, err, ErrNotRefundable)
}

func TestRefundManual(t *testing.T) {
	f := setup(t)
	orig := f.payAmount(t, "120")

	t.Run("partial amount", func(t *testing.T) {
		refundTx, err := f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, dec("20"))
		require.NoError(t, err)
		assert.True(t, refundTx.Amount.Equal(dec("20")))
		assert.Equal(t, models.TransactionStatusPartiallyRefunded, f.store.TransactionRows[orig.ID].Status)
	})

	t.Run("amount above remainder rejected", func(t *testing.T) {
		_, err := f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, dec("120.01"))
		assert.ErrorIs(t, err, ErrOverRefund)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestRefundManual_CumulativeAmountsCapped(t *testing.T) {
	f := setup(t)
	orig := f.payAmount(t, "100") // buyer 900, merchant 1100

	_, err := f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, dec("60"))
	require.NoError(t, err)

	// A second 60 would take the total past the original 100.
	_, err = f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, dec("60"))
	assert.ErrorIs(t, err, ErrOverRefund)

	updated := f.store.TransactionRows[orig.ID]
	assert.True(t, updated.RefundedAmount.Equal(dec("60")))
	assert.True(t, f.store.WalletRows[f.buyer.ID].Balance.Equal(dec("960")))
	assert.True(t, f.store.WalletRows[f.merchant.ID].Balance.Equal(dec("1040")))

	// The untouched 40 is still refundable.
	refundTx, err := f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, dec("40"))
	require.NoError(t, err)
	assert.True(t, refundTx.Amount.Equal(dec("40")))
	assert.Equal(t, models.TransactionStatusRefunded, f.store.TransactionRows[orig.ID].Status)
}

func TestRefund_AfterManualReversesOnlyRemainder(t *testing.T) {
	f := setup(t)
	orig := f.payAmount(t, "100")

	_, err := f.svc.RefundManual(context.Background(), f.merchant.ID, orig.ID, dec("60"))
	require.NoError(t, err)

	refundTx, err := f.svc.Refund(context.Background(), f.merchant.ID, orig.ID)
	require.NoError(t, err)
	assert.True(t, refundTx.Amount.Equal(dec("40")), "only the unrefunded remainder is reversed")

	assert.Equal(t, models.TransactionStatusRefunded, f.store.TransactionRows[orig.ID].Status)
	assert.True(t, f.store.WalletRows[f.buyer.ID].Balance.Equal(dec("1000")))
	assert.True(t, f.store.WalletRows[f.merchant.ID].Balance.Equal(dec("1000")))
}
