package storage

import (
	"context"
	"database/sql"
	"time"

	"fintrack/internal/core"
)

// Queries holds the prepared SQL for the ledger, budget and rollup tables.
type Queries struct {
	db *sql.DB
}

// NewQueries creates a query layer over db.
func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const createExpense = `
INSERT INTO expenses (id, date, year, month, week, day_of_week, account, category, sub_category, type, user, amount)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		e.ID,
		e.Date.Format(core.DateLayout),
		e.Year,
		e.Month,
		e.Week,
		e.DayOfWeek,
		e.Account,
		e.Category,
		nullString(e.SubCategory),
		e.Type,
		e.User,
		e.Amount,
	)
	return err
}

const getExpense = `
SELECT id, date, year, month, week, day_of_week, account, category, sub_category, type, user, amount
FROM expenses WHERE id = ?
`

func (q *Queries) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	return scanExpense(row)
}

const listExpenses = `
SELECT id, date, year, month, week, day_of_week, account, category, sub_category, type, user, amount
FROM expenses
WHERE (?1 = '' OR month = ?1)
  AND (?2 = '' OR account = ?2)
  AND (?3 = '' OR category = ?3)
ORDER BY date DESC, id
LIMIT ?4 OFFSET ?5
`

// ListExpensesParams filters the expense listing. Empty fields match all.
type ListExpensesParams struct {
	Month    string
	Account  string
	Category string
	Limit    int
	Offset   int
}

func (q *Queries) ListExpenses(ctx context.Context, p ListExpensesParams) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, p.Month, p.Account, p.Category, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const updateExpense = `
UPDATE expenses
SET date = ?, year = ?, month = ?, week = ?, day_of_week = ?,
    account = ?, category = ?, sub_category = ?, type = ?, user = ?, amount = ?
WHERE id = ?
`

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpense,
		e.Date.Format(core.DateLayout),
		e.Year,
		e.Month,
		e.Week,
		e.DayOfWeek,
		e.Account,
		e.Category,
		nullString(e.SubCategory),
		e.Type,
		e.User,
		e.Amount,
		e.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const monthSpendByAccount = `
SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE account = ? AND month = ?
`

func (q *Queries) MonthSpendByAccount(ctx context.Context, account, month string) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, monthSpendByAccount, account, month).Scan(&total)
	return total, err
}

const distinctAccountsForMonth = `
SELECT DISTINCT account FROM expenses WHERE month = ? ORDER BY account
`

func (q *Queries) DistinctAccountsForMonth(ctx context.Context, month string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, distinctAccountsForMonth, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const distinctAccountMonths = `
SELECT DISTINCT account, month FROM expenses ORDER BY month, account
`

// AccountMonth is one ledger rollup bucket.
type AccountMonth struct {
	Account string
	Month   string
}

func (q *Queries) DistinctAccountMonths(ctx context.Context) ([]AccountMonth, error) {
	rows, err := q.db.QueryContext(ctx, distinctAccountMonths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountMonth
	for rows.Next() {
		var am AccountMonth
		if err := rows.Scan(&am.Account, &am.Month); err != nil {
			return nil, err
		}
		out = append(out, am)
	}
	return out, rows.Err()
}

const getBudget = `
SELECT year_month, account, budget_amount, start_balance, end_balance, updated_at
FROM monthly_budgets WHERE year_month = ? AND account = ?
`

func (q *Queries) GetBudget(ctx context.Context, yearMonth, account string) (core.BudgetEntry, error) {
	var (
		b         core.BudgetEntry
		start     sql.NullFloat64
		end       sql.NullFloat64
		updatedAt string
	)
	err := q.db.QueryRowContext(ctx, getBudget, yearMonth, account).
		Scan(&b.YearMonth, &b.Account, &b.BudgetAmount, &start, &end, &updatedAt)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	b.StartBalance = nullToPtr(start)
	b.EndBalance = nullToPtr(end)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

const upsertBudget = `
INSERT INTO monthly_budgets (year_month, account, budget_amount, start_balance, end_balance, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(year_month, account) DO UPDATE SET
    budget_amount = excluded.budget_amount,
    start_balance = excluded.start_balance,
    end_balance = excluded.end_balance,
    updated_at = excluded.updated_at
`

func (q *Queries) UpsertBudget(ctx context.Context, b core.BudgetEntry) error {
	_, err := q.db.ExecContext(ctx, upsertBudget,
		b.YearMonth,
		b.Account,
		b.BudgetAmount,
		ptrToNull(b.StartBalance),
		ptrToNull(b.EndBalance),
		b.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

const upsertMonthlySpend = `
INSERT INTO monthly_spend (account, month, total, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(account, month) DO UPDATE SET
    total = excluded.total,
    updated_at = excluded.updated_at
`

func (q *Queries) UpsertMonthlySpend(ctx context.Context, s core.MonthlySpend) error {
	_, err := q.db.ExecContext(ctx, upsertMonthlySpend,
		s.Account,
		s.Month,
		s.Total,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

const listMonthlySpend = `
SELECT account, month, total FROM monthly_spend
WHERE (?1 = '' OR month = ?1)
ORDER BY month DESC, account
`

func (q *Queries) ListMonthlySpend(ctx context.Context, month string) ([]core.MonthlySpend, error) {
	rows, err := q.db.QueryContext(ctx, listMonthlySpend, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.MonthlySpend
	for rows.Next() {
		var s core.MonthlySpend
		if err := rows.Scan(&s.Account, &s.Month, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e      core.Expense
		date   string
		subCat sql.NullString
	)
	err := row.Scan(&e.ID, &date, &e.Year, &e.Month, &e.Week, &e.DayOfWeek,
		&e.Account, &e.Category, &subCat, &e.Type, &e.User, &e.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date, err = time.Parse(core.DateLayout, date)
	if err != nil {
		return core.Expense{}, err
	}
	e.SubCategory = subCat.String
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullToPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func ptrToNull(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
