package sideeffect

import (
	"context"
	"log"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"

	"github.com/sethvargo/go-retry"
)

// Default worker configuration
const (
	DefaultInterval    = 5 * time.Second
	DefaultBatchSize   = 50
	DefaultMaxAttempts = 5
	retryBaseDelay     = 100 * time.Millisecond
	retriesPerPass     = 2
)

// WorkerConfig holds outbox drain settings. Zero values fall back to the
// defaults.
type WorkerConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Worker drains pending outbox events through the dispatcher. Each pass
// retries a failing event with exponential backoff before bumping its attempt
// count; events that keep failing are marked failed and logged, never
// surfaced to the financial caller.
type Worker struct {
	store      repositories.Store
	dispatcher *Dispatcher
	cfg        WorkerConfig
}

// NewWorker creates an outbox drain worker.
func NewWorker(store repositories.Store, dispatcher *Dispatcher, cfg WorkerConfig) *Worker {
	if store == nil {
		panic("store is required")
	}
	if dispatcher == nil {
		panic("dispatcher is required")
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
	return &Worker{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Run drains the outbox periodically until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				log.Printf("outbox drain failed: %v", err)
			}
		}
	}
}

// Drain processes one batch of pending events.
func (w *Worker) Drain(ctx context.Context) error {
	events, err := w.store.Outbox().Pending(ctx, w.cfg.BatchSize)
	if err != nil {
		return err
	}

	for i := range events {
		evt := events[i]
		w.process(ctx, &evt)
	}
	return nil
}

func (w *Worker) process(ctx context.Context, evt *models.OutboxEvent) {
	backoff := retry.WithMaxRetries(retriesPerPass, retry.NewExponential(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(w.dispatcher.Dispatch(ctx, evt))
	})

	evt.Attempts++
	if err != nil {
		evt.LastError = err.Error()
		if evt.Attempts >= w.cfg.MaxAttempts {
			evt.Status = models.OutboxStatusFailed
			log.Printf("outbox event %d (%s) failed permanently after %d attempts: %v", evt.ID, evt.Kind, evt.Attempts, err)
		}
	} else {
		now := time.Now()
		evt.Status = models.OutboxStatusProcessed
		evt.ProcessedAt = &now
		evt.LastError = ""
	}

	if updateErr := w.store.Outbox().Update(ctx, evt); updateErr != nil {
		log.Printf("failed to update outbox event %d: %v", evt.ID, updateErr)
	}
}
