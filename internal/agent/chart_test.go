package agent

import (
	"encoding/json"
	"testing"
)

func decodeFigure(t *testing.T, s string) chartFigure {
	t.Helper()
	var fig chartFigure
	if err := json.Unmarshal([]byte(s), &fig); err != nil {
		t.Fatalf("chart JSON invalid: %v", err)
	}
	return fig
}

func TestBuildChart_LineForTimeSeries(t *testing.T) {
	rows := []map[string]any{
		{"month": "2025-03", "total_spend": 300.0},
		{"month": "2025-01", "total_spend": 100.0},
		{"month": "2025-02", "total_spend": 200.0},
	}
	chart, ok, err := BuildChart([]string{"month", "total_spend"}, rows)
	if err != nil {
		t.Fatalf("BuildChart() error = %v", err)
	}
	if !ok {
		t.Fatal("BuildChart() ok = false, want line chart")
	}

	fig := decodeFigure(t, chart)
	if len(fig.Data) != 1 || fig.Data[0].Type != "line" {
		t.Fatalf("trace = %+v, want one line trace", fig.Data)
	}
	// X axis sorted chronologically regardless of row order.
	wantX := []string{"2025-01", "2025-02", "2025-03"}
	for i, want := range wantX {
		if fig.Data[0].X[i] != want {
			t.Errorf("X[%d] = %v, want %s", i, fig.Data[0].X[i], want)
		}
	}
	if fig.Layout.XAxis.Title != "month" {
		t.Errorf("x axis title = %q, want month", fig.Layout.XAxis.Title)
	}
}

func TestBuildChart_BarForCategoryBreakdown(t *testing.T) {
	rows := []map[string]any{
		{"category": "Grocery", "total": 50.0},
		{"category": "Rent", "total": 900.0},
		{"category": "Dining", "total": 120.0},
	}
	chart, ok, err := BuildChart([]string{"category", "total"}, rows)
	if err != nil {
		t.Fatalf("BuildChart() error = %v", err)
	}
	if !ok {
		t.Fatal("BuildChart() ok = false, want bar chart")
	}

	fig := decodeFigure(t, chart)
	if fig.Data[0].Type != "bar" {
		t.Fatalf("trace type = %q, want bar", fig.Data[0].Type)
	}
	if fig.Data[0].X[0] != "Rent" {
		t.Errorf("X[0] = %v, want Rent (sorted by value desc)", fig.Data[0].X[0])
	}
}

func TestBuildChart_BarCapsAtTopN(t *testing.T) {
	var rows []map[string]any
	for i := 0; i < 30; i++ {
		rows = append(rows, map[string]any{"category": string(rune('a' + i)), "total": float64(i)})
	}
	chart, ok, err := BuildChart([]string{"category", "total"}, rows)
	if err != nil || !ok {
		t.Fatalf("BuildChart() = ok %v, err %v", ok, err)
	}
	fig := decodeFigure(t, chart)
	if len(fig.Data[0].X) != barTopN {
		t.Errorf("len(X) = %d, want %d", len(fig.Data[0].X), barTopN)
	}
}

func TestBuildChart_NoChartCases(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    []map[string]any
	}{
		{
			name:    "single row",
			columns: []string{"category", "total"},
			rows:    []map[string]any{{"category": "Grocery", "total": 50.0}},
		},
		{
			name:    "no rows",
			columns: []string{"category", "total"},
			rows:    nil,
		},
		{
			name:    "single column",
			columns: []string{"category"},
			rows:    []map[string]any{{"category": "a"}, {"category": "b"}},
		},
		{
			name:    "no numeric column",
			columns: []string{"category", "user"},
			rows: []map[string]any{
				{"category": "Grocery", "user": "alex"},
				{"category": "Dining", "user": "sam"},
			},
		},
		{
			name:    "time column with two numeric columns",
			columns: []string{"month", "grocery", "dining"},
			rows: []map[string]any{
				{"month": "2025-01", "grocery": 100.0, "dining": 40.0},
				{"month": "2025-02", "grocery": 120.0, "dining": 55.0},
			},
		},
		{
			name:    "id and year excluded from numerics",
			columns: []string{"user", "year"},
			rows: []map[string]any{
				{"user": "alex", "year": int64(2024)},
				{"user": "sam", "year": int64(2025)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := BuildChart(tt.columns, tt.rows)
			if err != nil {
				t.Fatalf("BuildChart() error = %v", err)
			}
			if ok {
				t.Error("BuildChart() ok = true, want no chart")
			}
		})
	}
}

func TestBuildChart_TimeColumnWins(t *testing.T) {
	// Both line and bar conditions hold; the time column takes precedence.
	rows := []map[string]any{
		{"month": "2025-01", "total": 10.0},
		{"month": "2025-02", "total": 20.0},
	}
	chart, ok, err := BuildChart([]string{"month", "total"}, rows)
	if err != nil || !ok {
		t.Fatalf("BuildChart() = ok %v, err %v", ok, err)
	}
	fig := decodeFigure(t, chart)
	if fig.Data[0].Type != "line" {
		t.Errorf("type = %q, want line", fig.Data[0].Type)
	}
}
