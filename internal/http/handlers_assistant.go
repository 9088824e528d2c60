package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

type assistantRequest struct {
	Query string `json:"query"`
}

type assistantResponse struct {
	Classification string          `json:"classification"`
	SQLQuery       string          `json:"sql_query,omitempty"`
	Chart          json.RawMessage `json:"chart,omitempty"`
	Response       string          `json:"response"`
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	var req assistantRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}

	state, err := s.deps.Assistant.Run(r.Context(), req.Query)
	if err != nil {
		// Only context cancellation reaches here; node failures come back
		// as a friendly final response.
		writeError(w, http.StatusInternalServerError, "assistant unavailable")
		return
	}

	resp := assistantResponse{
		Classification: state.Classification,
		SQLQuery:       state.SQLQuery,
		Response:       state.FinalResponse,
	}
	if state.ChartJSON != "" {
		resp.Chart = json.RawMessage(state.ChartJSON)
	}
	writeJSON(w, http.StatusOK, resp)
}
