package http

import (
	"net/http"

	"fintrack/internal/core"
)

type apiBudgetStatus struct {
	BudgetAmount float64  `json:"budget_amount"`
	StartBalance *float64 `json:"start_balance"`
	EndBalance   *float64 `json:"end_balance"`
	CurrentSpend float64  `json:"current_spend"`
}

type setBudgetRequest struct {
	BudgetAmount float64  `json:"budget_amount"`
	StartBalance *float64 `json:"start_balance"`
	EndBalance   *float64 `json:"end_balance"`
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	yearMonth := r.PathValue("year_month")

	summary, err := s.deps.Budgets.Summary(r.Context(), yearMonth)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	accounts := make(map[string]apiBudgetStatus, len(summary))
	for account, status := range summary {
		accounts[account] = apiBudgetStatus{
			BudgetAmount: status.BudgetAmount,
			StartBalance: status.StartBalance,
			EndBalance:   status.EndBalance,
			CurrentSpend: status.CurrentSpend,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year_month": yearMonth,
		"accounts":   accounts,
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := core.BudgetEntry{
		YearMonth:    r.PathValue("year_month"),
		Account:      r.PathValue("account"),
		BudgetAmount: req.BudgetAmount,
		StartBalance: req.StartBalance,
		EndBalance:   req.EndBalance,
	}
	if err := s.deps.Budgets.SetBudget(r.Context(), entry); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"year_month": entry.YearMonth,
		"account":    entry.Account,
		"status":     "saved",
	})
}
