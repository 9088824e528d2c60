package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// scriptedLLM answers each node's prompt from a fixed script.
type scriptedLLM struct {
	classification string
	sql            string
	answer         string
	err            error
}

func (f *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(prompt, "classifier"):
		return f.classification, nil
	case strings.Contains(prompt, "SQLite"):
		return f.sql, nil
	default:
		return f.answer, nil
	}
}

func newTestGraph(t *testing.T, client *scriptedLLM) *Graph {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	for i, row := range []struct {
		date     string
		category string
		amount   float64
	}{
		{"2025-05-01", "Grocery", 40},
		{"2025-05-10", "Grocery", 60},
		{"2025-05-12", "Dining", 35},
	} {
		d, _ := time.Parse(core.DateLayout, row.date)
		e := core.Expense{
			ID:       "e" + string(rune('1'+i)),
			Date:     d,
			Account:  "checking",
			Category: row.category,
			Type:     "Expense",
			User:     "alex",
			Amount:   row.amount,
		}
		e.DeriveDateParts()
		if err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	logger := log.New(log.DefaultConfig())
	g, err := New(client, repo, `{"table":"expenses"}`, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func TestGraph_SimpleQuestion(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{
		classification: "simple",
		sql:            "```sql\nSELECT category, SUM(amount) AS total FROM expenses GROUP BY category ORDER BY total DESC;\n```",
		answer:         "You spent 100.00 on groceries and 35.00 on dining.",
	})

	state, err := g.Run(context.Background(), "how much did I spend per category?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Error != "" {
		t.Fatalf("state.Error = %q", state.Error)
	}
	if state.Classification != ClassSimple {
		t.Errorf("Classification = %q, want simple", state.Classification)
	}
	if !strings.HasPrefix(state.SQLQuery, "SELECT") || strings.Contains(state.SQLQuery, "```") {
		t.Errorf("SQLQuery = %q, fences not stripped", state.SQLQuery)
	}
	if !strings.Contains(state.SQLQuery, "LIMIT 200") {
		t.Errorf("SQLQuery = %q, missing injected LIMIT", state.SQLQuery)
	}
	if len(state.SQLResults) != 2 {
		t.Fatalf("len(SQLResults) = %d, want 2", len(state.SQLResults))
	}
	if state.ChartJSON == "" {
		t.Error("ChartJSON empty, want bar chart for category breakdown")
	}
	if !strings.HasPrefix(state.FinalResponse, "You spent 100.00 on groceries and 35.00 on dining.") {
		t.Errorf("FinalResponse = %q", state.FinalResponse)
	}
	if !strings.Contains(state.FinalResponse, "chart") {
		t.Errorf("FinalResponse = %q, want chart mention", state.FinalResponse)
	}
}

func TestGraph_AdvancedTreatedAsSimple(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{
		classification: "advanced",
		sql:            "SELECT month, SUM(amount) AS total FROM expenses GROUP BY month",
		answer:         "Spending is flat month over month.",
	})

	state, err := g.Run(context.Background(), "what's my spending trend?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Classification != ClassAdvanced {
		t.Errorf("Classification = %q, want advanced", state.Classification)
	}
	if state.SQLQuery == "" {
		t.Error("advanced question skipped SQL generation")
	}
	if state.FinalResponse == "" {
		t.Error("FinalResponse empty")
	}
}

func TestGraph_UnparseableLabelDefaultsToSimple(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{
		classification: "I think this is a simple question about expenses.",
		sql:            "SELECT COUNT(*) AS n FROM expenses",
		answer:         "You have 3 expenses.",
	})

	state, err := g.Run(context.Background(), "how many expenses do I have?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Classification != ClassSimple {
		t.Errorf("Classification = %q, want simple fallback", state.Classification)
	}
}

func TestGraph_LabelCleaning(t *testing.T) {
	for _, raw := range []string{"Irrelevant.", `"irrelevant"`, "'irrelevant'", " IRRELEVANT \n"} {
		g := newTestGraph(t, &scriptedLLM{classification: raw})
		state, err := g.Run(context.Background(), "what's the capital of France?")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if state.Classification != ClassIrrelevant {
			t.Errorf("Classification for %q = %q, want irrelevant", raw, state.Classification)
		}
		if state.SQLQuery != "" {
			t.Errorf("label %q went down the SQL path", raw)
		}
	}
}

func TestGraph_IrrelevantSkipsSQL(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{classification: "irrelevant"})

	state, err := g.Run(context.Background(), "what's the weather like?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.SQLQuery != "" {
		t.Errorf("SQLQuery = %q, want no SQL for irrelevant question", state.SQLQuery)
	}
	if !strings.Contains(state.FinalResponse, "expenses and budgets") {
		t.Errorf("FinalResponse = %q", state.FinalResponse)
	}
}

func TestGraph_EmptyQuestionIsIrrelevant(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{})

	state, err := g.Run(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Classification != ClassIrrelevant {
		t.Errorf("Classification = %q, want irrelevant", state.Classification)
	}
}

func TestGraph_ClassifierFailure(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{err: errors.New("quota exceeded")})

	state, err := g.Run(context.Background(), "how much did I spend?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(state.Error, errClassify) {
		t.Errorf("state.Error = %q, want classification failure", state.Error)
	}
	if !strings.Contains(state.FinalResponse, "rephrasing") {
		t.Errorf("FinalResponse = %q", state.FinalResponse)
	}
}

func TestGraph_RejectsUnsafeSQL(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{
		classification: "simple",
		sql:            "DELETE FROM expenses",
	})

	state, err := g.Run(context.Background(), "clear my expenses")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(state.Error, errSQLGen) {
		t.Errorf("state.Error = %q, want sql generation failure", state.Error)
	}
	if state.SQLResults != nil {
		t.Error("unsafe SQL was executed")
	}
}

func TestGraph_ExecutionFailure(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{
		classification: "simple",
		sql:            "SELECT nope FROM missing_table",
	})

	state, err := g.Run(context.Background(), "query a missing table")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(state.Error, errSQLExec) {
		t.Errorf("state.Error = %q, want execution failure", state.Error)
	}
	if !strings.Contains(state.FinalResponse, "went wrong") {
		t.Errorf("FinalResponse = %q", state.FinalResponse)
	}
}

func TestGraph_NoResultsAnsweredWithoutLLM(t *testing.T) {
	g := newTestGraph(t, &scriptedLLM{
		classification: "simple",
		sql:            "SELECT * FROM expenses WHERE month = '1999-01'",
		answer:         "should never be used",
	})

	state, err := g.Run(context.Background(), "what did I spend in january 1999?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.FinalResponse != "I couldn't find any matching expenses for that question." {
		t.Errorf("FinalResponse = %q", state.FinalResponse)
	}
	if state.ChartJSON != "" {
		t.Errorf("ChartJSON = %q, want empty for no results", state.ChartJSON)
	}
}
