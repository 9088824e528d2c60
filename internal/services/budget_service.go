package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	// ErrNotCurrentMonth is returned when setting a budget for a past or
	// future month.
	ErrNotCurrentMonth = errors.New("budgets can only be set for the current month")

	// ErrUnknownAccount is returned when setting a budget for an account
	// outside the configured list.
	ErrUnknownAccount = errors.New("account is not in the configured budget accounts")
)

// BudgetSummary maps account name to its budget status for one month.
type BudgetSummary map[string]core.BudgetStatus

// BudgetService assembles per-account budget summaries and handles budget
// writes. Summaries are cached per month with a short TTL.
type BudgetService struct {
	repo     *storage.Repository
	accounts []string
	summary  *cache.Cache[string, BudgetSummary]
	now      func() time.Time
	logger   *log.Logger
}

// NewBudgetService creates the budget service. accounts is the configured
// budget account list; when empty, each summary falls back to the accounts
// with ledger activity in that month.
func NewBudgetService(repo *storage.Repository, accounts []string, ttl time.Duration, logger *log.Logger) *BudgetService {
	return &BudgetService{
		repo:     repo,
		accounts: accounts,
		summary:  cache.New[string, BudgetSummary](12, ttl),
		now:      time.Now,
		logger:   logger.WithComponent("budget_service"),
	}
}

// Summary returns the budget status for every tracked account in yearMonth.
// Accounts without a stored budget appear with a zero budget and their
// current spend.
func (s *BudgetService) Summary(ctx context.Context, yearMonth string) (BudgetSummary, error) {
	if err := core.ValidateYearMonth(yearMonth); err != nil {
		return nil, err
	}
	if cached, ok := s.summary.Get(yearMonth); ok {
		return cached, nil
	}

	accounts := s.accounts
	if len(accounts) == 0 {
		var err error
		accounts, err = s.repo.DistinctAccountsForMonth(ctx, yearMonth)
		if err != nil {
			return nil, err
		}
	}

	out := make(BudgetSummary, len(accounts))
	for _, account := range accounts {
		status := core.BudgetStatus{}

		entry, err := s.repo.GetBudget(ctx, yearMonth, account)
		switch {
		case err == nil:
			status.BudgetAmount = entry.BudgetAmount
			status.StartBalance = entry.StartBalance
			status.EndBalance = entry.EndBalance
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}

		spend, err := s.repo.MonthSpendByAccount(ctx, account, yearMonth)
		if err != nil {
			return nil, err
		}
		status.CurrentSpend = core.Round2(spend)
		out[account] = status
	}

	s.summary.Set(yearMonth, out)
	return out, nil
}

// SetBudget stores the budget for one account in the current month. Writes
// for any other month are rejected.
func (s *BudgetService) SetBudget(ctx context.Context, b core.BudgetEntry) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.YearMonth != s.now().UTC().Format(core.YearMonthLayout) {
		return ErrNotCurrentMonth
	}
	if len(s.accounts) > 0 && !slices.Contains(s.accounts, b.Account) {
		return ErrUnknownAccount
	}

	b.UpdatedAt = s.now().UTC()
	if err := s.repo.UpsertBudget(ctx, b); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "budget set",
		log.FieldAccount, b.Account,
		log.FieldMonth, b.YearMonth,
		log.FieldAmount, b.BudgetAmount,
	)
	s.summary.Delete(b.YearMonth)
	return nil
}

// InvalidateMonth drops the cached summary for a month. Called after ledger
// writes so current spend stays fresh.
func (s *BudgetService) InvalidateMonth(month string) {
	s.summary.Delete(month)
}
