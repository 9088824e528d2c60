package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// maxBodyBytes caps request bodies, nothing here legitimately needs more.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeDomainError maps service and storage errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrNotCurrentMonth),
		errors.Is(err, services.ErrUnknownAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrInvalidYearMonth),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyAccount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyType),
		errors.Is(err, core.ErrEmptyUser),
		errors.Is(err, core.ErrNegativeBudget):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// apiExpense is the wire form of a ledger row.
type apiExpense struct {
	ID          string  `json:"id,omitempty"`
	Date        string  `json:"date"`
	Year        int     `json:"year,omitempty"`
	Month       string  `json:"month,omitempty"`
	Week        string  `json:"week,omitempty"`
	DayOfWeek   string  `json:"day_of_week,omitempty"`
	Account     string  `json:"account"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category,omitempty"`
	Type        string  `json:"type"`
	User        string  `json:"user"`
	Amount      float64 `json:"amount"`
}

func toAPIExpense(e core.Expense) apiExpense {
	return apiExpense{
		ID:          e.ID,
		Date:        e.Date.Format(core.DateLayout),
		Year:        e.Year,
		Month:       e.Month,
		Week:        e.Week,
		DayOfWeek:   e.DayOfWeek,
		Account:     e.Account,
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Type:        e.Type,
		User:        e.User,
		Amount:      e.Amount,
	}
}

func (a apiExpense) toDomain() (core.Expense, error) {
	date, err := time.Parse(core.DateLayout, a.Date)
	if err != nil {
		return core.Expense{}, core.ErrInvalidDate
	}
	return core.Expense{
		ID:          a.ID,
		Date:        date,
		Account:     a.Account,
		Category:    a.Category,
		SubCategory: a.SubCategory,
		Type:        a.Type,
		User:        a.User,
		Amount:      a.Amount,
	}, nil
}
