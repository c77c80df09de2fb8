// Package schedule holds transfers requested for a future time and executes
// them through the settlement orchestrator when due. No balance is touched at
// request time. The sweep claims each entry with a conditional status
// transition so concurrent sweeps never double-execute an entry; entries that
// fail settlement stay pending and are retried until MaxAttempts, then marked
// failed. Entries stranded in processing by a dead claimant are returned to
// the queue after StaleAfter.
package schedule

import (
	"context"
	"errors"
	"log"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/services/settlement"

	"github.com/shopspring/decimal"
)

// Default sweep configuration
const (
	DefaultInterval    = time.Minute
	DefaultBatchSize   = 100
	DefaultMaxAttempts = 5
	DefaultStaleAfter  = 10 * time.Minute
)

// ScheduleRequest describes a future transfer.
type ScheduleRequest struct {
	SenderWalletID   uint
	ReceiverWalletID uint
	Amount           decimal.Decimal
	Type             string
	PlannedDate      *time.Time
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Claimed   int
	Completed int
	Failed    int
}

// Service is the scheduled transfer queue.
type Service interface {
	Schedule(ctx context.Context, req ScheduleRequest) (*models.ScheduledTransfer, error)
	Get(ctx context.Context, id uint) (*models.ScheduledTransfer, error)
	// Sweep executes all entries due at now.
	Sweep(ctx context.Context, now time.Time) (SweepResult, error)
	// Run sweeps periodically until ctx is cancelled.
	Run(ctx context.Context)
}

// Config holds sweep settings. Zero values fall back to the defaults.
type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// StaleAfter is how long an entry may sit in processing before a sweep
	// assumes its claimant died and returns it to the queue.
	StaleAfter time.Duration
}

type service struct {
	store      repositories.Store
	settlement settlement.Service
	cfg        Config
}

// NewService creates a scheduled transfer queue.
func NewService(store repositories.Store, settlementSvc settlement.Service, cfg Config) Service {
	if store == nil {
		panic("store is required")
	}
	if settlementSvc == nil {
		panic("settlement service is required")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	return &service{
		store:      store,
		settlement: settlementSvc,
		cfg:        cfg,
	}
}

func (s *service) Schedule(ctx context.Context, req ScheduleRequest) (*models.ScheduledTransfer, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.SenderWalletID == req.ReceiverWalletID {
		return nil, ErrSelfTransfer
	}
	switch req.Type {
	case models.ScheduledTypeDeferred:
	case models.ScheduledTypePlanned:
		if req.PlannedDate == nil {
			return nil, ErrPlannedDateRequired
		}
	default:
		return nil, ErrInvalidType
	}

	st := &models.ScheduledTransfer{
		SenderWalletID:   req.SenderWalletID,
		ReceiverWalletID: req.ReceiverWalletID,
		Amount:           req.Amount,
		Type:             req.Type,
		PlannedDate:      req.PlannedDate,
		Status:           models.ScheduleStatusPending,
	}
	if err := s.store.ScheduledTransfers().Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.ScheduledTransfer, error) {
	st, err := s.store.ScheduledTransfers().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrScheduledTransferNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *service) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	released, err := s.store.ScheduledTransfers().ReleaseStale(ctx, now.Add(-s.cfg.StaleAfter))
	if err != nil {
		return result, err
	}
	if released > 0 {
		log.Printf("sweep: returned %d stalled transfers to the queue", released)
	}

	due, err := s.store.ScheduledTransfers().DuePending(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	for i := range due {
		entry := due[i]
		claimed, err := s.store.ScheduledTransfers().Claim(ctx, entry.ID)
		if err != nil {
			log.Printf("sweep: failed to claim scheduled transfer %d: %v", entry.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		result.Claimed++

		if s.execute(ctx, &entry) {
			result.Completed++
		} else if entry.Status == models.ScheduleStatusFailed {
			result.Failed++
		}
	}
	return result, nil
}

// execute settles one claimed entry and records the outcome. Returns true on
// successful settlement.
func (s *service) execute(ctx context.Context, entry *models.ScheduledTransfer) bool {
	tx, err := s.settlement.Settle(ctx, settlement.Request{
		SenderWalletID:   entry.SenderWalletID,
		ReceiverWalletID: entry.ReceiverWalletID,
		Amount:           entry.Amount,
		Type:             models.TransactionTypeTransfer,
		Action:           models.ActionSendMoney,
		Audiences:        []models.CommissionAudience{models.AudienceUser},
		ScheduledType:    entry.Type,
	})

	entry.Attempts++
	if err != nil {
		entry.LastError = err.Error()
		if entry.Attempts >= s.cfg.MaxAttempts {
			entry.Status = models.ScheduleStatusFailed
			log.Printf("sweep: scheduled transfer %d failed permanently after %d attempts: %v", entry.ID, entry.Attempts, err)
		} else {
			entry.Status = models.ScheduleStatusPending
		}
	} else {
		entry.Status = models.ScheduleStatusCompleted
		entry.TransactionID = &tx.ID
		entry.LastError = ""
	}

	if updateErr := s.store.ScheduledTransfers().Update(ctx, entry); updateErr != nil {
		log.Printf("sweep: failed to update scheduled transfer %d: %v", entry.ID, updateErr)
	}
	return err == nil
}

func (s *service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Sweep(ctx, now); err != nil {
				log.Printf("sweep failed: %v", err)
			}
		}
	}
}
