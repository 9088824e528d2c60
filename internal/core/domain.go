package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// YearMonthLayout is the canonical month key format (e.g. "2025-05").
	YearMonthLayout = "2006-01"

	// DateLayout is the canonical ledger date format.
	DateLayout = "2006-01-02"
)

type (
	// Expense is a single ledger transaction. Year, Month, Week and DayOfWeek
	// are derived from Date and kept denormalized so that SQL over the ledger
	// can filter and group on them directly.
	Expense struct {
		ID          string
		Date        time.Time
		Year        int
		Month       string // YYYY-MM
		Week        string // ISO week, YYYY-Www
		DayOfWeek   string
		Account     string
		Category    string
		SubCategory string
		Type        string
		User        string
		Amount      float64
	}

	// BudgetEntry is the stored per-account monthly budget row.
	BudgetEntry struct {
		YearMonth    string
		Account      string
		BudgetAmount float64
		StartBalance *float64
		EndBalance   *float64
		UpdatedAt    time.Time
	}

	// BudgetStatus combines a budget entry with the computed spend for the month.
	BudgetStatus struct {
		BudgetAmount float64
		StartBalance *float64
		EndBalance   *float64
		CurrentSpend float64
	}

	// MonthlySpend is one row of the account/month rollup.
	MonthlySpend struct {
		Account string
		Month   string
		Total   float64
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyAccount     = errors.New("empty account")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyType        = errors.New("empty type")
	ErrEmptyUser        = errors.New("empty user")
	ErrInvalidYearMonth = errors.New("invalid year_month, expected YYYY-MM")
	ErrNegativeBudget   = errors.New("budget amount cannot be negative")
)

// DeriveDateParts fills Year, Month, Week and DayOfWeek from Date.
func (e *Expense) DeriveDateParts() {
	if e.Date.IsZero() {
		return
	}
	e.Year = e.Date.Year()
	e.Month = e.Date.Format(YearMonthLayout)
	isoYear, isoWeek := e.Date.ISOWeek()
	e.Week = fmt.Sprintf("%04d-W%02d", isoYear, isoWeek)
	e.DayOfWeek = e.Date.Weekday().String()
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Amount <= 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Account) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(e.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(e.User) == "" {
		return ErrEmptyUser
	}
	if len(e.Account) > 100 || len(e.Category) > 100 || len(e.SubCategory) > 100 {
		return errors.New("field too long (max 100 characters)")
	}
	return nil
}

func (b BudgetEntry) Validate() error {
	if err := ValidateYearMonth(b.YearMonth); err != nil {
		return err
	}
	if strings.TrimSpace(b.Account) == "" {
		return ErrEmptyAccount
	}
	if b.BudgetAmount < 0 || math.IsNaN(b.BudgetAmount) {
		return ErrNegativeBudget
	}
	return nil
}

// ValidateYearMonth checks the YYYY-MM month key format.
func ValidateYearMonth(s string) error {
	if _, err := time.Parse(YearMonthLayout, s); err != nil {
		return ErrInvalidYearMonth
	}
	return nil
}

// CurrentYearMonth returns the month key for now in UTC.
func CurrentYearMonth() string {
	return time.Now().UTC().Format(YearMonthLayout)
}

// Round2 rounds a monetary amount to two decimal places for API output.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
