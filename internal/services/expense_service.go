// Package services holds the application logic between the HTTP layer and
// storage: ledger writes with event publication, and budget summaries.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// EventPublisher publishes ledger events for the rollup worker.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event amqp.ExpenseEvent) error
}

// ExpenseService owns ledger writes. Every successful write publishes an
// event; publish failures are logged and never fail the write.
type ExpenseService struct {
	repo      *storage.Repository
	publisher EventPublisher // nil when AMQP is not configured
	onChange  func(month string)
	logger    *log.Logger
}

// NewExpenseService creates the ledger service. onChange is called with the
// affected month key after every write (used to invalidate cached budget
// summaries); it may be nil.
func NewExpenseService(repo *storage.Repository, publisher EventPublisher, onChange func(month string), logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
		onChange:  onChange,
		logger:    logger.WithComponent("expense_service"),
	}
}

// Create validates and stores a new expense, assigning its ID and derived
// date fields.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = uuid.NewString()
	e.DeriveDateParts()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "expense created",
		log.FieldExpenseID, e.ID,
		log.FieldAccount, e.Account,
		log.FieldAmount, e.Amount,
	)
	s.notify(ctx, e, amqp.OpCreated)
	return e, nil
}

// Get fetches one expense.
func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

// List returns expenses matching the filter.
func (s *ExpenseService) List(ctx context.Context, p storage.ListExpensesParams) ([]core.Expense, error) {
	if p.Month != "" {
		if err := core.ValidateYearMonth(p.Month); err != nil {
			return nil, err
		}
	}
	return s.repo.ListExpenses(ctx, p)
}

// Update replaces an expense. When the account or month moved, events are
// published for both the old and new rollup buckets.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	prev, err := s.repo.GetExpense(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}

	e.DeriveDateParts()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "expense updated", log.FieldExpenseID, e.ID)
	s.notify(ctx, e, amqp.OpUpdated)
	if prev.Account != e.Account || prev.Month != e.Month {
		s.notify(ctx, prev, amqp.OpUpdated)
	}
	return e, nil
}

// Delete removes an expense.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	prev, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "expense deleted", log.FieldExpenseID, id)
	s.notify(ctx, prev, amqp.OpDeleted)
	return nil
}

func (s *ExpenseService) notify(ctx context.Context, e core.Expense, op string) {
	if s.onChange != nil {
		s.onChange(e.Month)
	}
	if s.publisher == nil {
		return
	}
	event := amqp.ExpenseEvent{
		ExpenseID: e.ID,
		Account:   e.Account,
		Month:     e.Month,
		Op:        op,
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		// The ledger write already succeeded; the periodic reconcile will
		// catch the rollup up.
		s.logger.WarnContext(ctx, "event publish failed",
			log.FieldExpenseID, e.ID,
			log.FieldOp, op,
			log.FieldError, fmt.Sprint(err),
		)
	}
}
