package wallet

import (
	"context"
	"testing"

	"moneta/internal/models"
	"moneta/internal/repositories/repotest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWallet_Idempotent(t *testing.T) {
	store := repotest.New()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	first, err := svc.CreateWallet(ctx, 7)
	require.NoError(t, err)

	second, err := svc.CreateWallet(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.WalletRows, 1)
}

func TestGetBalance(t *testing.T) {
	store := repotest.New()
	svc := NewService(store, nil, nil)
	w := store.AddWallet(1, decimal.NewFromInt(250))

	balance, err := svc.GetBalance(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(250)))

	_, err = svc.GetBalance(context.Background(), 999)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		status  string
		delta   int64
		wantErr error
		want    int64
	}{
		{name: "credit", balance: 100, status: models.WalletStatusActive, delta: 50, want: 150},
		{name: "debit", balance: 100, status: models.WalletStatusActive, delta: -100, want: 0},
		{name: "overdraw rejected", balance: 100, status: models.WalletStatusActive, delta: -101, wantErr: ErrInsufficientFunds},
		{name: "locked wallet rejected", balance: 100, status: models.WalletStatusLocked, delta: 50, wantErr: ErrWalletLocked},
		{name: "zero delta rejected", balance: 100, status: models.WalletStatusActive, delta: 0, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repotest.New()
			svc := NewService(store, nil, nil)
			w := store.AddWallet(1, decimal.NewFromInt(tt.balance))
			w.Status = tt.status

			err := svc.Adjust(context.Background(), w.ID, decimal.NewFromInt(tt.delta))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, store.WalletRows[w.ID].Balance.Equal(decimal.NewFromInt(tt.balance)),
					"failed adjustment must not move the balance")
				return
			}
			require.NoError(t, err)
			assert.True(t, store.WalletRows[w.ID].Balance.Equal(decimal.NewFromInt(tt.want)))
		})
	}
}

func TestLockUnlock(t *testing.T) {
	store := repotest.New()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	w := store.AddWallet(1, decimal.NewFromInt(100))

	require.NoError(t, svc.Lock(ctx, w.ID, "fraud review"))
	assert.Equal(t, models.WalletStatusLocked, store.WalletRows[w.ID].Status)
	assert.Equal(t, "fraud review", store.WalletRows[w.ID].StatusReason)

	assert.ErrorIs(t, svc.Adjust(ctx, w.ID, decimal.NewFromInt(10)), ErrWalletLocked)

	require.NoError(t, svc.Unlock(ctx, w.ID))
	assert.Equal(t, models.WalletStatusActive, store.WalletRows[w.ID].Status)
	assert.Empty(t, store.WalletRows[w.ID].StatusReason)

	assert.ErrorIs(t, svc.Lock(ctx, 999, "x"), ErrWalletNotFound)
}
