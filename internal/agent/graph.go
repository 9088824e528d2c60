// Package agent implements the assistant pipeline: classify the question,
// generate and execute SQL over the ledger, build an optional chart and
// write the final answer.
package agent

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/llm"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Executor runs validated read-only SQL against the ledger.
type Executor interface {
	ExecuteReadOnly(ctx context.Context, query string) (*storage.QueryResult, error)
}

// Error markers carried through State.Error. The response node maps them to
// user-facing messages.
const (
	errClassify = "classification failed"
	errSQLGen   = "sql generation failed"
	errSQLExec  = "sql execution failed"
)

// Graph wires the pipeline nodes together.
type Graph struct {
	llm      llm.Client
	executor Executor
	prompts  prompts
	schema   string
	logger   *log.Logger
}

// New creates the assistant pipeline. schemaJSON is the ledger schema
// metadata interpolated into the SQL prompt.
func New(client llm.Client, executor Executor, schemaJSON string, logger *log.Logger) (*Graph, error) {
	if client == nil {
		return nil, llm.ErrNotConfigured
	}
	p, err := loadPrompts()
	if err != nil {
		return nil, err
	}
	return &Graph{
		llm:      client,
		executor: executor,
		prompts:  p,
		schema:   schemaJSON,
		logger:   logger.WithComponent(log.ComponentAgent),
	}, nil
}

// Run executes the pipeline for one question. Node failures are captured in
// the state and turned into a friendly final response; the returned error is
// reserved for context cancellation.
func (g *Graph) Run(ctx context.Context, query string) (*State, error) {
	state := &State{OriginalQuery: strings.TrimSpace(query)}

	g.classify(ctx, state)

	// Errors and irrelevant questions skip straight to the response.
	if !state.failed() && state.Classification != ClassIrrelevant {
		g.generateSQL(ctx, state)
		if !state.failed() {
			g.executeSQL(ctx, state)
		}
		if !state.failed() {
			g.generateChart(state)
		}
	}

	g.generateResponse(ctx, state)

	if err := ctx.Err(); err != nil {
		return state, err
	}
	return state, nil
}

func (g *Graph) classify(ctx context.Context, s *State) {
	if s.OriginalQuery == "" {
		s.Classification = ClassIrrelevant
		return
	}

	prompt, err := g.prompts.render("classify", map[string]string{"question": s.OriginalQuery})
	if err != nil {
		s.Error = fmt.Sprintf("%s: %v", errClassify, err)
		return
	}
	raw, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		s.Error = fmt.Sprintf("%s: %v", errClassify, err)
		return
	}

	// Models wrap the label in quotes or end it with a period often enough
	// to matter.
	label := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), `"'.`)
	switch label {
	case ClassSimple, ClassAdvanced, ClassIrrelevant:
		s.Classification = label
	default:
		// An unparseable label defaults to simple so the question still
		// gets a query attempt.
		s.Classification = ClassSimple
	}
	g.logger.DebugContext(ctx, "classified question", log.FieldClassification, s.Classification)
}

func (g *Graph) generateSQL(ctx context.Context, s *State) {
	prompt, err := g.prompts.render("sql", map[string]string{
		"question": s.OriginalQuery,
		"schema":   g.schema,
	})
	if err != nil {
		s.Error = fmt.Sprintf("%s: %v", errSQLGen, err)
		return
	}
	raw, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		s.Error = fmt.Sprintf("%s: %v", errSQLGen, err)
		return
	}

	query := CleanSQL(raw)
	if err := ValidateSQL(query); err != nil {
		s.Error = fmt.Sprintf("%s: %v", errSQLGen, err)
		return
	}
	s.SQLQuery = EnsureLimit(query)
}

func (g *Graph) executeSQL(ctx context.Context, s *State) {
	res, err := g.executor.ExecuteReadOnly(ctx, s.SQLQuery)
	if err != nil {
		g.logger.WarnContext(ctx, "query failed", log.FieldError, err)
		s.Error = fmt.Sprintf("%s: %v", errSQLExec, err)
		return
	}
	s.SQLColumns = res.Columns
	s.SQLResults = res.Maps()
	s.SQLResultsTable = res.Table()
	g.logger.DebugContext(ctx, "query executed", log.FieldRowCount, len(res.Rows))
}

func (g *Graph) generateChart(s *State) {
	if len(s.SQLResults) == 0 {
		return
	}
	chart, ok, err := BuildChart(s.SQLColumns, s.SQLResults)
	if err != nil || !ok {
		// A chart is optional, failures never block the answer.
		return
	}
	s.ChartJSON = chart
}

func (g *Graph) generateResponse(ctx context.Context, s *State) {
	switch {
	case strings.HasPrefix(s.Error, errClassify):
		s.FinalResponse = "Sorry, I had trouble understanding your question. Please try rephrasing it."
		return
	case strings.HasPrefix(s.Error, errSQLGen):
		s.FinalResponse = "Sorry, I couldn't work out how to look that up in your expenses. Try asking in a different way."
		return
	case strings.HasPrefix(s.Error, errSQLExec):
		s.FinalResponse = "Sorry, something went wrong while searching your expenses. Please try again."
		return
	case s.Classification == ClassIrrelevant:
		s.FinalResponse = "I can only help with questions about your expenses and budgets. Try asking about your spending."
		return
	case s.SQLResultsTable == "Query returned no results." || len(s.SQLResults) == 0:
		s.FinalResponse = "I couldn't find any matching expenses for that question."
		return
	}

	prompt, err := g.prompts.render("respond", map[string]string{
		"question": s.OriginalQuery,
		"results":  s.SQLResultsTable,
	})
	if err != nil {
		s.FinalResponse = fallbackAnswer(s)
		return
	}
	answer, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		// The data is already in hand, degrade to showing it raw.
		g.logger.WarnContext(ctx, "response generation failed", log.FieldError, err)
		s.FinalResponse = fallbackAnswer(s)
		return
	}
	s.FinalResponse = strings.TrimSpace(answer)
	if s.ChartJSON != "" {
		s.FinalResponse += "\n\nI've also prepared a chart of these numbers."
	}
}

// fallbackAnswer returns the raw result table when the model cannot phrase
// an answer.
func fallbackAnswer(s *State) string {
	return "Here is what I found:\n\n" + s.SQLResultsTable
}
