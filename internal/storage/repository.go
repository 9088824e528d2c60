// Package storage provides the SQLite-backed repository for the expense
// ledger, monthly budgets and the spend rollup, plus the sandboxed read-only
// executor used by the assistant.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// readOnlyTimeout bounds assistant-generated queries.
const readOnlyTimeout = 10 * time.Second

// Repository is the single storage entry point for the application.
type Repository struct {
	db      *sql.DB
	queries *Queries
}

// Open opens (or creates) the SQLite database at path, applies migrations
// and returns a ready repository.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db, queries: NewQueries(db)}, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping verifies the database connection, used by the readiness probe.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateExpense inserts a new ledger row.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) error {
	if err := r.queries.CreateExpense(ctx, e); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetExpense fetches a ledger row by ID.
func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns ledger rows matching the filter, newest first.
func (r *Repository) ListExpenses(ctx context.Context, p ListExpensesParams) ([]core.Expense, error) {
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	out, err := r.queries.ListExpenses(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// UpdateExpense replaces a ledger row.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	n, err := r.queries.UpdateExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpense removes a ledger row.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MonthSpendByAccount sums ledger amounts for an account and month.
func (r *Repository) MonthSpendByAccount(ctx context.Context, account, month string) (float64, error) {
	total, err := r.queries.MonthSpendByAccount(ctx, account, month)
	if err != nil {
		return 0, fmt.Errorf("month spend: %w", err)
	}
	return total, nil
}

// DistinctAccountsForMonth lists accounts with ledger activity in a month.
func (r *Repository) DistinctAccountsForMonth(ctx context.Context, month string) ([]string, error) {
	out, err := r.queries.DistinctAccountsForMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("distinct accounts: %w", err)
	}
	return out, nil
}

// DistinctAccountMonths lists every account/month bucket in the ledger.
func (r *Repository) DistinctAccountMonths(ctx context.Context) ([]AccountMonth, error) {
	out, err := r.queries.DistinctAccountMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct account months: %w", err)
	}
	return out, nil
}

// GetBudget fetches a budget entry, ErrNotFound when none is set.
func (r *Repository) GetBudget(ctx context.Context, yearMonth, account string) (core.BudgetEntry, error) {
	b, err := r.queries.GetBudget(ctx, yearMonth, account)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetEntry{}, ErrNotFound
	}
	if err != nil {
		return core.BudgetEntry{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// UpsertBudget inserts or replaces a budget entry.
func (r *Repository) UpsertBudget(ctx context.Context, b core.BudgetEntry) error {
	if err := r.queries.UpsertBudget(ctx, b); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// UpsertMonthlySpend writes one rollup row.
func (r *Repository) UpsertMonthlySpend(ctx context.Context, s core.MonthlySpend) error {
	if err := r.queries.UpsertMonthlySpend(ctx, s); err != nil {
		return fmt.Errorf("upsert monthly spend: %w", err)
	}
	return nil
}

// ListMonthlySpend returns rollup rows, optionally filtered to one month.
func (r *Repository) ListMonthlySpend(ctx context.Context, month string) ([]core.MonthlySpend, error) {
	out, err := r.queries.ListMonthlySpend(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list monthly spend: %w", err)
	}
	return out, nil
}

// RecomputeMonthlySpend rebuilds the rollup for one account and month from
// the ledger. Used by the worker on expense events and periodic reconcile.
func (r *Repository) RecomputeMonthlySpend(ctx context.Context, account, month string) (core.MonthlySpend, error) {
	total, err := r.MonthSpendByAccount(ctx, account, month)
	if err != nil {
		return core.MonthlySpend{}, err
	}
	s := core.MonthlySpend{Account: account, Month: month, Total: total}
	if err := r.UpsertMonthlySpend(ctx, s); err != nil {
		return core.MonthlySpend{}, err
	}
	return s, nil
}

// QueryResult is the tabular output of a read-only query.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// ExecuteReadOnly runs an assistant-generated SELECT against the ledger with
// a bounded timeout. Callers must validate the statement first.
func (r *Repository) ExecuteReadOnly(ctx context.Context, query string) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, readOnlyTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// Maps returns the result as one map per row, column name to value.
func (qr *QueryResult) Maps() []map[string]any {
	out := make([]map[string]any, 0, len(qr.Rows))
	for _, row := range qr.Rows {
		m := make(map[string]any, len(qr.Columns))
		for i, col := range qr.Columns {
			m[col] = row[i]
		}
		out = append(out, m)
	}
	return out
}

// Table renders the result as an aligned text table for the LLM context
// window. Returns a fixed message when there are no rows.
func (qr *QueryResult) Table() string {
	if len(qr.Rows) == 0 {
		return "Query returned no results."
	}

	widths := make([]int, len(qr.Columns))
	for i, c := range qr.Columns {
		widths[i] = len(c)
	}
	cells := make([][]string, len(qr.Rows))
	for ri, row := range qr.Rows {
		cells[ri] = make([]string, len(row))
		for ci, v := range row {
			s := formatCell(v)
			cells[ri][ci] = s
			if len(s) > widths[ci] {
				widths[ci] = len(s)
			}
		}
	}

	var b strings.Builder
	for i, c := range qr.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], c)
	}
	b.WriteByte('\n')
	for i, w := range widths {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	for _, row := range cells {
		b.WriteByte('\n')
		for i, s := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], s)
		}
	}
	return b.String()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
