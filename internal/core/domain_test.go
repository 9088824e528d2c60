package core

import (
	"errors"
	"testing"
	"time"
)

func TestExpense_DeriveDateParts(t *testing.T) {
	tests := []struct {
		name          string
		date          time.Time
		wantYear      int
		wantMonth     string
		wantWeek      string
		wantDayOfWeek string
	}{
		{
			name:          "mid month",
			date:          time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC),
			wantYear:      2025,
			wantMonth:     "2025-05",
			wantWeek:      "2025-W20",
			wantDayOfWeek: "Wednesday",
		},
		{
			name:          "iso week belongs to previous year",
			date:          time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			wantYear:      2027,
			wantMonth:     "2027-01",
			wantWeek:      "2026-W53",
			wantDayOfWeek: "Friday",
		},
		{
			name:          "single digit week is zero padded",
			date:          time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			wantYear:      2025,
			wantMonth:     "2025-01",
			wantWeek:      "2025-W02",
			wantDayOfWeek: "Monday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Expense{Date: tt.date}
			e.DeriveDateParts()
			if e.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", e.Year, tt.wantYear)
			}
			if e.Month != tt.wantMonth {
				t.Errorf("Month = %q, want %q", e.Month, tt.wantMonth)
			}
			if e.Week != tt.wantWeek {
				t.Errorf("Week = %q, want %q", e.Week, tt.wantWeek)
			}
			if e.DayOfWeek != tt.wantDayOfWeek {
				t.Errorf("DayOfWeek = %q, want %q", e.DayOfWeek, tt.wantDayOfWeek)
			}
		})
	}
}

func TestExpense_Validate(t *testing.T) {
	valid := Expense{
		Date:     time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC),
		Account:  "checking",
		Category: "Grocery",
		Type:     "Expense",
		User:     "alex",
		Amount:   125.50,
	}

	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{name: "valid", mutate: func(e *Expense) {}, wantErr: nil},
		{name: "zero date", mutate: func(e *Expense) { e.Date = time.Time{} }, wantErr: ErrInvalidDate},
		{name: "zero amount", mutate: func(e *Expense) { e.Amount = 0 }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(e *Expense) { e.Amount = -10 }, wantErr: ErrInvalidAmount},
		{name: "blank account", mutate: func(e *Expense) { e.Account = "  " }, wantErr: ErrEmptyAccount},
		{name: "blank category", mutate: func(e *Expense) { e.Category = "" }, wantErr: ErrEmptyCategory},
		{name: "blank type", mutate: func(e *Expense) { e.Type = "" }, wantErr: ErrEmptyType},
		{name: "blank user", mutate: func(e *Expense) { e.User = "" }, wantErr: ErrEmptyUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   BudgetEntry
		wantErr error
	}{
		{
			name:    "valid",
			entry:   BudgetEntry{YearMonth: "2025-05", Account: "checking", BudgetAmount: 500},
			wantErr: nil,
		},
		{
			name:    "zero budget is allowed",
			entry:   BudgetEntry{YearMonth: "2025-05", Account: "savings", BudgetAmount: 0},
			wantErr: nil,
		},
		{
			name:    "bad month key",
			entry:   BudgetEntry{YearMonth: "May 2025", Account: "checking", BudgetAmount: 500},
			wantErr: ErrInvalidYearMonth,
		},
		{
			name:    "blank account",
			entry:   BudgetEntry{YearMonth: "2025-05", Account: "", BudgetAmount: 500},
			wantErr: ErrEmptyAccount,
		},
		{
			name:    "negative budget",
			entry:   BudgetEntry{YearMonth: "2025-05", Account: "checking", BudgetAmount: -1},
			wantErr: ErrNegativeBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateYearMonth(t *testing.T) {
	for _, good := range []string{"2024-01", "2025-12", "1999-06"} {
		if err := ValidateYearMonth(good); err != nil {
			t.Errorf("ValidateYearMonth(%q) = %v, want nil", good, err)
		}
	}
	for _, bad := range []string{"", "2025", "2025-13", "2025-5", "05-2025", "2025-05-01"} {
		if err := ValidateYearMonth(bad); err == nil {
			t.Errorf("ValidateYearMonth(%q) = nil, want error", bad)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.344, 12.34},
		{12.346, 12.35},
		{0.1 + 0.2, 0.3},
		{100.0, 100.0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
