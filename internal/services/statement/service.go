// Package statement reconstructs per-account running balances from the
// ledger. Over the full history the closing balance reproduces the live
// wallet balance to the cent; a sender's delta therefore includes the
// commission that was debited alongside the amount, and the platform wallet
// additionally accrues every collected commission.
package statement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service reconstructs statements.
type Service interface {
	Statement(ctx context.Context, walletID uint, from, to *time.Time) (*Statement, error)
}

// Config holds statement configuration.
type Config struct {
	// PlatformWalletID marks the wallet whose statement includes commission
	// credits from every settlement.
	PlatformWalletID uint
}

type service struct {
	store repositories.Store
	cfg   Config
}

// NewService creates a statement service.
func NewService(store repositories.Store, cfg Config) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store, cfg: cfg}
}

func (s *service) Statement(ctx context.Context, walletID uint, from, to *time.Time) (*Statement, error) {
	if _, err := s.store.Wallets().GetByID(ctx, walletID); err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	isPlatform := walletID == s.cfg.PlatformWalletID

	opening := decimal.Zero
	if from != nil {
		var err error
		opening, err = s.openingBalance(ctx, walletID, isPlatform, *from)
		if err != nil {
			return nil, err
		}
	}

	txs, err := s.store.Transactions().ListBetween(ctx, walletID, isPlatform, from, to)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		WalletID:       walletID,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		ClosingBalance: opening,
		Lines:          make([]Line, 0, len(txs)),
	}

	running := opening
	for i := range txs {
		tx := &txs[i]
		delta := s.deltaFor(walletID, isPlatform, tx)
		if delta.IsZero() {
			continue
		}
		running = running.Add(delta)

		direction := DirectionCredit
		if isSender(tx, walletID) && !isReceiver(tx, walletID) {
			direction = DirectionDebit
		}
		stmt.Lines = append(stmt.Lines, Line{
			TransactionID:  tx.ID,
			Type:           tx.Type,
			Reference:      tx.Reference,
			Direction:      direction,
			Amount:         delta.Abs(),
			RunningBalance: running,
			CreatedAt:      tx.CreatedAt,
		})
	}
	stmt.ClosingBalance = running
	return stmt, nil
}

func (s *service) openingBalance(ctx context.Context, walletID uint, isPlatform bool, before time.Time) (decimal.Decimal, error) {
	received, err := s.store.Transactions().SumReceived(ctx, walletID, before)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute opening balance: %w", err)
	}
	sent, err := s.store.Transactions().SumSent(ctx, walletID, before)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute opening balance: %w", err)
	}
	opening := received.Sub(sent)

	if isPlatform {
		comm, err := s.store.Transactions().SumCommission(ctx, before)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to compute opening balance: %w", err)
		}
		opening = opening.Add(comm)
	}
	return opening, nil
}

// deltaFor is the signed balance effect of tx on the wallet: credits of the
// amount as receiver, debits of amount plus commission as sender, and
// commission credits for the platform wallet.
func (s *service) deltaFor(walletID uint, isPlatform bool, tx *models.Transaction) decimal.Decimal {
	delta := decimal.Zero
	if isReceiver(tx, walletID) {
		delta = delta.Add(tx.Amount)
	}
	if isSender(tx, walletID) {
		delta = delta.Sub(tx.Amount.Add(tx.Commission))
	}
	if isPlatform && tx.Commission.IsPositive() {
		delta = delta.Add(tx.Commission)
	}
	return delta
}

func isSender(tx *models.Transaction, walletID uint) bool {
	return tx.SenderWalletID != nil && *tx.SenderWalletID == walletID
}

func isReceiver(tx *models.Transaction, walletID uint) bool {
	return tx.ReceiverWalletID != nil && *tx.ReceiverWalletID == walletID
}
