package repotest

import (
	"context"
	"sort"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"

	"github.com/shopspring/decimal"
)

type walletRepo struct{ s *Store }

func (r walletRepo) Create(_ context.Context, w *models.Wallet) error {
	for _, existing := range r.s.WalletRows {
		if existing.OwnerID == w.OwnerID {
			return repositories.ErrWalletExists
		}
	}
	w.ID = r.s.id()
	w.CreatedAt = r.s.now()
	r.s.WalletRows[w.ID] = w
	return nil
}

func (r walletRepo) GetByID(_ context.Context, id uint) (*models.Wallet, error) {
	w, ok := r.s.WalletRows[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	copied := *w
	return &copied, nil
}

func (r walletRepo) GetByOwner(_ context.Context, ownerID uint) (*models.Wallet, error) {
	for _, w := range r.s.WalletRows {
		if w.OwnerID == ownerID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r walletRepo) GetForUpdate(ctx context.Context, id uint) (*models.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r walletRepo) SetStatus(_ context.Context, id uint, status, reason string) error {
	w, ok := r.s.WalletRows[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	w.Status = status
	w.StatusReason = reason
	return nil
}

func (r walletRepo) AdjustBalance(_ context.Context, id uint, delta decimal.Decimal) error {
	w, ok := r.s.WalletRows[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(delta)
	return nil
}

type txRepo struct{ s *Store }

func (r txRepo) Create(_ context.Context, tx *models.Transaction) error {
	tx.ID = r.s.id()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.s.now()
	}
	copied := *tx
	r.s.TransactionRows[tx.ID] = &copied
	return nil
}

func (r txRepo) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	tx, ok := r.s.TransactionRows[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r txRepo) GetByReference(_ context.Context, reference string) (*models.Transaction, error) {
	for _, tx := range r.s.TransactionRows {
		if tx.Reference == reference {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r txRepo) Update(_ context.Context, tx *models.Transaction) error {
	if _, ok := r.s.TransactionRows[tx.ID]; !ok {
		return repositories.ErrTransactionNotFound
	}
	copied := *tx
	r.s.TransactionRows[tx.ID] = &copied
	return nil
}

func (r txRepo) ListBetween(_ context.Context, walletID uint, includeCommission bool, from, to *time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range r.s.TransactionRows {
		touches := touchesWallet(tx, walletID)
		if includeCommission && tx.Commission.IsPositive() {
			touches = true
		}
		if !touches {
			continue
		}
		if from != nil && tx.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && tx.CreatedAt.After(*to) {
			continue
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r txRepo) SumReceived(_ context.Context, walletID uint, before time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range r.s.TransactionRows {
		if tx.ReceiverWalletID != nil && *tx.ReceiverWalletID == walletID && tx.CreatedAt.Before(before) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (r txRepo) SumSent(_ context.Context, walletID uint, before time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range r.s.TransactionRows {
		if tx.SenderWalletID != nil && *tx.SenderWalletID == walletID && tx.CreatedAt.Before(before) {
			total = total.Add(tx.Amount).Add(tx.Commission)
		}
	}
	return total, nil
}

func (r txRepo) SumCommission(_ context.Context, before time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range r.s.TransactionRows {
		if tx.Commission.IsPositive() && tx.CreatedAt.Before(before) {
			total = total.Add(tx.Commission)
		}
	}
	return total, nil
}

func touchesWallet(tx *models.Transaction, walletID uint) bool {
	if tx.SenderWalletID != nil && *tx.SenderWalletID == walletID {
		return true
	}
	if tx.ReceiverWalletID != nil && *tx.ReceiverWalletID == walletID {
		return true
	}
	return false
}

type ruleRepo struct{ s *Store }

func (r ruleRepo) Create(_ context.Context, rule *models.CommissionRule) error {
	rule.ID = r.s.id()
	rule.CreatedAt = r.s.now()
	copied := *rule
	r.s.RuleRows[rule.ID] = &copied
	return nil
}

func (r ruleRepo) ActiveRule(_ context.Context, action string, audience models.CommissionAudience) (*models.CommissionRule, error) {
	for _, rule := range r.s.RuleRows {
		if rule.Action == action && rule.Audience == audience && rule.IsActive {
			copied := *rule
			return &copied, nil
		}
	}
	return nil, repositories.ErrRuleNotFound
}

func (r ruleRepo) DeactivateActive(_ context.Context, action string, audience models.CommissionAudience) error {
	for _, rule := range r.s.RuleRows {
		if rule.Action == action && rule.Audience == audience && rule.IsActive {
			rule.IsActive = false
		}
	}
	return nil
}

func (r ruleRepo) List(_ context.Context) ([]models.CommissionRule, error) {
	var out []models.CommissionRule
	for _, rule := range r.s.RuleRows {
		out = append(out, *rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type scheduleRepo struct{ s *Store }

func (r scheduleRepo) Create(_ context.Context, st *models.ScheduledTransfer) error {
	st.ID = r.s.id()
	st.CreatedAt = r.s.now()
	st.UpdatedAt = st.CreatedAt
	copied := *st
	r.s.ScheduleRows[st.ID] = &copied
	return nil
}

func (r scheduleRepo) GetByID(_ context.Context, id uint) (*models.ScheduledTransfer, error) {
	st, ok := r.s.ScheduleRows[id]
	if !ok {
		return nil, repositories.ErrScheduledTransferNotFound
	}
	copied := *st
	return &copied, nil
}

func (r scheduleRepo) DuePending(_ context.Context, now time.Time, limit int) ([]models.ScheduledTransfer, error) {
	var out []models.ScheduledTransfer
	for _, st := range r.s.ScheduleRows {
		if st.Due(now) {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r scheduleRepo) Claim(_ context.Context, id uint) (bool, error) {
	st, ok := r.s.ScheduleRows[id]
	if !ok || st.Status != models.ScheduleStatusPending {
		return false, nil
	}
	st.Status = models.ScheduleStatusProcessing
	st.UpdatedAt = r.s.now()
	return true, nil
}

func (r scheduleRepo) ReleaseStale(_ context.Context, cutoff time.Time) (int64, error) {
	var released int64
	for _, st := range r.s.ScheduleRows {
		if st.Status == models.ScheduleStatusProcessing && st.UpdatedAt.Before(cutoff) {
			st.Status = models.ScheduleStatusPending
			st.UpdatedAt = r.s.now()
			released++
		}
	}
	return released, nil
}

func (r scheduleRepo) Update(_ context.Context, st *models.ScheduledTransfer) error {
	if _, ok := r.s.ScheduleRows[st.ID]; !ok {
		return repositories.ErrScheduledTransferNotFound
	}
	st.UpdatedAt = r.s.now()
	copied := *st
	r.s.ScheduleRows[st.ID] = &copied
	return nil
}

type fundingRepo struct{ s *Store }

func (r fundingRepo) CreateWithdrawal(_ context.Context, req *models.WithdrawalRequest) error {
	req.ID = r.s.id()
	req.CreatedAt = r.s.now()
	copied := *req
	r.s.WithdrawalRows[req.ID] = &copied
	return nil
}

func (r fundingRepo) GetWithdrawal(_ context.Context, id uint) (*models.WithdrawalRequest, error) {
	req, ok := r.s.WithdrawalRows[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r fundingRepo) ClaimWithdrawal(_ context.Context, id uint, to string) (bool, error) {
	req, ok := r.s.WithdrawalRows[id]
	if !ok || req.Status != models.RequestStatusPending {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (r fundingRepo) UpdateWithdrawal(_ context.Context, req *models.WithdrawalRequest) error {
	if _, ok := r.s.WithdrawalRows[req.ID]; !ok {
		return repositories.ErrRequestNotFound
	}
	copied := *req
	r.s.WithdrawalRows[req.ID] = &copied
	return nil
}

func (r fundingRepo) CreateRecharge(_ context.Context, req *models.RechargeRequest) error {
	req.ID = r.s.id()
	req.CreatedAt = r.s.now()
	copied := *req
	r.s.RechargeRows[req.ID] = &copied
	return nil
}

func (r fundingRepo) GetRecharge(_ context.Context, id uint) (*models.RechargeRequest, error) {
	req, ok := r.s.RechargeRows[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r fundingRepo) ClaimRecharge(_ context.Context, id uint, to string) (bool, error) {
	req, ok := r.s.RechargeRows[id]
	if !ok || req.Status != models.RequestStatusPending {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (r fundingRepo) UpdateRecharge(_ context.Context, req *models.RechargeRequest) error {
	if _, ok := r.s.RechargeRows[req.ID]; !ok {
		return repositories.ErrRequestNotFound
	}
	copied := *req
	r.s.RechargeRows[req.ID] = &copied
	return nil
}

type outboxRepo struct{ s *Store }

func (r outboxRepo) Enqueue(_ context.Context, evt *models.OutboxEvent) error {
	evt.ID = r.s.id()
	evt.CreatedAt = r.s.now()
	copied := *evt
	r.s.OutboxRows[evt.ID] = &copied
	return nil
}

func (r outboxRepo) Pending(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	for _, evt := range r.s.OutboxRows {
		if evt.Status == models.OutboxStatusPending {
			out = append(out, *evt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r outboxRepo) Update(_ context.Context, evt *models.OutboxEvent) error {
	if _, ok := r.s.OutboxRows[evt.ID]; !ok {
		return repositories.ErrRequestNotFound
	}
	copied := *evt
	r.s.OutboxRows[evt.ID] = &copied
	return nil
}

type productRepo struct{ s *Store }

func (r productRepo) Create(_ context.Context, p *models.Product) error {
	p.ID = r.s.id()
	p.CreatedAt = r.s.now()
	copied := *p
	r.s.ProductRows[p.ID] = &copied
	return nil
}

func (r productRepo) GetByID(_ context.Context, id uint) (*models.Product, error) {
	p, ok := r.s.ProductRows[id]
	if !ok {
		return nil, repositories.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (r productRepo) DecrementStock(_ context.Context, id uint, qty int) error {
	p, ok := r.s.ProductRows[id]
	if !ok {
		return repositories.ErrProductNotFound
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

type referralRepo struct{ s *Store }

func (r referralRepo) Create(_ context.Context, rb *models.ReferralBonus) error {
	for _, existing := range r.s.ReferralRows {
		if existing.ReferrerWalletID == rb.ReferrerWalletID && existing.RefereeWalletID == rb.RefereeWalletID {
			return repositories.ErrReferralAlreadyPaid
		}
	}
	rb.ID = r.s.id()
	rb.CreatedAt = r.s.now()
	copied := *rb
	r.s.ReferralRows[rb.ID] = &copied
	return nil
}

func (r referralRepo) Exists(_ context.Context, referrerWalletID, refereeWalletID uint) (bool, error) {
	for _, rb := range r.s.ReferralRows {
		if rb.ReferrerWalletID == referrerWalletID && rb.RefereeWalletID == refereeWalletID {
			return true, nil
		}
	}
	return false, nil
}
