package statement

import (
	"context"
	"testing"
	"time"

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
	svc        Service
	settlement settlement.Service
	platform   *models.Wallet
	alice      *models.Wallet
	bob        *models.Wallet
	clock      time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	f := &fixture{store: store, clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	store.SetNow(func() time.Time { return f.clock })

	f.platform = store.AddWallet(1, dec("100000"))
	f.alice = store.AddWallet(2, decimal.Zero)
	f.bob = store.AddWallet(3, decimal.Zero)

	walletSvc := wallet.NewService(store, nil, nil)
	commissionSvc := commission.NewService(store, nil)
	f.settlement = settlement.NewService(store, commissionSvc, walletSvc, nil,
		settlement.Config{PlatformWalletID: f.platform.ID})
	f.svc = NewService(store, Config{PlatformWalletID: f.platform.ID})

	store.AddRule(models.CommissionRule{
		Action: models.ActionSendMoney, Audience: models.AudienceUser,
		Kind: models.CommissionPercentage, Value: dec("1"),
	})

	// Opening funds arrive through ledgered recharges so the full history
	// reconstructs every balance from transaction rows alone.
	f.recharge(t, f.alice.ID, "1000")
	f.recharge(t, f.bob.ID, "1000")
	return f
}

func (f *fixture) recharge(t *testing.T, to uint, amount string) {
	t.Helper()
	_, err := f.settlement.Settle(context.Background(), settlement.Request{
		SenderWalletID:   f.platform.ID,
		ReceiverWalletID: to,
		Amount:           dec(amount),
		Type:             models.TransactionTypeRecharge,
	})
	require.NoError(t, err)
}

func (f *fixture) transfer(t *testing.T, from, to uint, amount string) {
	t.Helper()
	_, err := f.settlement.Settle(context.Background(), settlement.Request{
		SenderWalletID:   from,
		ReceiverWalletID: to,
		Amount:           dec(amount),
		Type:             models.TransactionTypeTransfer,
		Action:           models.ActionSendMoney,
		Audiences:        []models.CommissionAudience{models.AudienceUser},
	})
	require.NoError(t, err)
}

func TestStatement_ClosingBalanceMatchesLiveBalance(t *testing.T) {
	f := setup(t)

	f.transfer(t, f.alice.ID, f.bob.ID, "100")
	f.transfer(t, f.bob.ID, f.alice.ID, "250")
	f.transfer(t, f.alice.ID, f.bob.ID, "33.33")

	for _, w := range []*models.Wallet{f.alice, f.bob, f.platform} {
		stmt, err := f.svc.Statement(context.Background(), w.ID, nil, nil)
		require.NoError(t, err)

		live := f.store.WalletRows[w.ID].Balance
		assert.True(t, stmt.ClosingBalance.Equal(live),
			"wallet %d: statement closes at %s, live balance is %s", w.ID, stmt.ClosingBalance, live)
		assert.True(t, stmt.OpeningBalance.IsZero())
	}
}

func TestStatement_LinesAndDirections(t *testing.T) {
	f := setup(t)
	f.transfer(t, f.alice.ID, f.bob.ID, "100")

	stmt, err := f.svc.Statement(context.Background(), f.alice.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, stmt.Lines, 2)

	assert.Equal(t, DirectionCredit, stmt.Lines[0].Direction)
	assert.True(t, stmt.Lines[0].Amount.Equal(dec("1000")), "the seeding recharge opens the history")

	line := stmt.Lines[1]
	assert.Equal(t, DirectionDebit, line.Direction)
	assert.True(t, line.Amount.Equal(dec("101")), "debit includes the commission, got %s", line.Amount)
	assert.True(t, line.RunningBalance.Equal(dec("899")))

	stmt, err = f.svc.Statement(context.Background(), f.bob.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, stmt.Lines, 2)
	assert.Equal(t, DirectionCredit, stmt.Lines[1].Direction)
	assert.True(t, stmt.Lines[1].Amount.Equal(dec("100")))
	assert.True(t, stmt.Lines[1].RunningBalance.Equal(dec("1100")))
}

func TestStatement_PlatformSeesCommissionCredits(t *testing.T) {
	f := setup(t)
	f.transfer(t, f.alice.ID, f.bob.ID, "100")

	stmt, err := f.svc.Statement(context.Background(), f.platform.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, stmt.Lines, 3, "two seeding recharges plus the commission credit")

	commLine := stmt.Lines[2]
	assert.Equal(t, DirectionCredit, commLine.Direction)
	assert.True(t, commLine.Amount.Equal(dec("1")))
	assert.True(t, stmt.ClosingBalance.Equal(dec("98001")))
}

func TestStatement_WindowedOpeningBalance(t *testing.T) {
	f := setup(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.clock = base
	f.transfer(t, f.alice.ID, f.bob.ID, "100")

	f.clock = base.Add(48 * time.Hour)
	f.transfer(t, f.alice.ID, f.bob.ID, "200")

	from := base.Add(24 * time.Hour)
	stmt, err := f.svc.Statement(context.Background(), f.alice.ID, &from, nil)
	require.NoError(t, err)

	// The seeding recharge and the first transfer (100 + 1 commission) fold
	// into the opening balance.
	assert.True(t, stmt.OpeningBalance.Equal(dec("899")), "opening %s", stmt.OpeningBalance)
	require.Len(t, stmt.Lines, 1)
	assert.True(t, stmt.ClosingBalance.Equal(dec("697")))
	assert.True(t, stmt.ClosingBalance.Equal(f.store.WalletRows[f.alice.ID].Balance))
}

func TestStatement_UnknownWallet(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Statement(context.Background(), 999, nil, nil)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}
