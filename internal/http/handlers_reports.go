package http

import (
	"net/http"

	"fintrack/internal/core"
)

type apiMonthlySpend struct {
	Account string  `json:"account"`
	Month   string  `json:"month"`
	Total   float64 `json:"total"`
}

// handleMonthlyReport serves the account/month rollup maintained by the
// worker. An optional month query parameter narrows it to one month.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" {
		if err := core.ValidateYearMonth(month); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	rows, ok := s.reports.Get(month)
	if !ok {
		var err error
		rows, err = s.deps.Repo.ListMonthlySpend(r.Context(), month)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.reports.Set(month, rows)
	}

	out := make([]apiMonthlySpend, 0, len(rows))
	for _, row := range rows {
		out = append(out, apiMonthlySpend{
			Account: row.Account,
			Month:   row.Month,
			Total:   core.Round2(row.Total),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out, "count": len(out)})
}
