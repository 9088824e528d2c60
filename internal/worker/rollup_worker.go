// Package worker maintains the monthly_spend rollup from expense events,
// with a periodic full reconcile against the ledger.
package worker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Consumer delivers expense events to a handler until the context ends.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler amqp.Handler) error
}

// RollupWorker keeps the monthly_spend table in sync with the ledger.
type RollupWorker struct {
	repo           *storage.Repository
	consumer       Consumer
	queue          string
	reconcileEvery time.Duration
	logger         *log.Logger
}

// NewRollupWorker creates the worker. reconcileEvery bounds how stale the
// rollup can get when events are lost.
func NewRollupWorker(repo *storage.Repository, consumer Consumer, queue string, reconcileEvery time.Duration, logger *log.Logger) *RollupWorker {
	if reconcileEvery <= 0 {
		reconcileEvery = 15 * time.Minute
	}
	return &RollupWorker{
		repo:           repo,
		consumer:       consumer,
		queue:          queue,
		reconcileEvery: reconcileEvery,
		logger:         logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes events and reconciles periodically until ctx is canceled.
func (w *RollupWorker) Run(ctx context.Context) error {
	// Start from a consistent rollup.
	if err := w.Reconcile(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.consumer.Consume(ctx, w.queue, w.handle)
	})
	g.Go(func() error {
		ticker := time.NewTicker(w.reconcileEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Reconcile(ctx); err != nil {
					w.logger.ErrorContext(ctx, "reconcile failed", log.FieldError, err)
				}
			}
		}
	})
	return g.Wait()
}

func (w *RollupWorker) handle(ctx context.Context, event amqp.ExpenseEvent) error {
	s, err := w.repo.RecomputeMonthlySpend(ctx, event.Account, event.Month)
	if err != nil {
		return err
	}
	w.logger.DebugContext(ctx, "rollup updated",
		log.FieldAccount, s.Account,
		log.FieldMonth, s.Month,
		log.FieldAmount, s.Total,
	)
	return nil
}

// Reconcile rebuilds every rollup bucket from the ledger.
func (w *RollupWorker) Reconcile(ctx context.Context) error {
	buckets, err := w.repo.DistinctAccountMonths(ctx)
	if err != nil {
		return err
	}
	for _, b := range buckets {
		if _, err := w.repo.RecomputeMonthlySpend(ctx, b.Account, b.Month); err != nil {
			return err
		}
	}
	w.logger.InfoContext(ctx, "rollup reconciled", "buckets", len(buckets))
	return nil
}
