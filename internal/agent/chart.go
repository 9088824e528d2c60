package agent

import (
	"encoding/json"
	"fmt"
	"sort"
)

// barTopN caps bar charts to the largest categories.
const barTopN = 15

type chartTrace struct {
	Type string `json:"type"`
	X    []any  `json:"x"`
	Y    []any  `json:"y"`
	Name string `json:"name,omitempty"`
}

type chartAxis struct {
	Title string `json:"title"`
}

type chartLayout struct {
	Title string    `json:"title"`
	XAxis chartAxis `json:"xaxis"`
	YAxis chartAxis `json:"yaxis"`
}

type chartFigure struct {
	Data   []chartTrace `json:"data"`
	Layout chartLayout  `json:"layout"`
}

// timeColumns are ledger columns that order naturally along an x axis.
var timeColumns = map[string]bool{
	"date":  true,
	"month": true,
	"week":  true,
	"year":  true,
}

// BuildChart decides whether the query results support a chart and returns
// a Plotly figure as JSON. A time column plus exactly one numeric column
// becomes a line chart; a two-column result with one numeric column becomes
// a bar chart of the largest values. Single-row and unchartable results
// return ok=false.
func BuildChart(columns []string, rows []map[string]any) (string, bool, error) {
	if len(rows) <= 1 || len(columns) < 2 {
		return "", false, nil
	}

	numeric := numericColumns(columns, rows)
	timeCol := ""
	for _, c := range columns {
		if timeColumns[c] {
			timeCol = c
			break
		}
	}

	var fig *chartFigure
	switch {
	case timeCol != "" && len(numeric) == 1 && numeric[0] != timeCol:
		fig = lineChart(timeCol, numeric[0], rows)
	case len(columns) == 2 && len(numeric) == 1:
		catCol := columns[0]
		if catCol == numeric[0] {
			catCol = columns[1]
		}
		fig = barChart(catCol, numeric[0], rows)
	default:
		return "", false, nil
	}

	b, err := json.Marshal(fig)
	if err != nil {
		return "", false, fmt.Errorf("encode chart: %w", err)
	}
	return string(b), true, nil
}

// numericColumns returns columns whose values are numeric in every row,
// skipping identifier-like columns that chart badly.
func numericColumns(columns []string, rows []map[string]any) []string {
	var out []string
	for _, c := range columns {
		if c == "id" || c == "year" {
			continue
		}
		allNumeric := true
		for _, row := range rows {
			if _, ok := toFloat(row[c]); !ok {
				allNumeric = false
				break
			}
		}
		if allNumeric {
			out = append(out, c)
		}
	}
	return out
}

func lineChart(xCol, yCol string, rows []map[string]any) *chartFigure {
	sorted := make([]map[string]any, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fmt.Sprintf("%v", sorted[i][xCol]) < fmt.Sprintf("%v", sorted[j][xCol])
	})

	trace := chartTrace{Type: "line", Name: yCol}
	for _, row := range sorted {
		trace.X = append(trace.X, row[xCol])
		trace.Y = append(trace.Y, row[yCol])
	}
	return &chartFigure{
		Data: []chartTrace{trace},
		Layout: chartLayout{
			Title: fmt.Sprintf("%s over %s", yCol, xCol),
			XAxis: chartAxis{Title: xCol},
			YAxis: chartAxis{Title: yCol},
		},
	}
}

func barChart(catCol, valCol string, rows []map[string]any) *chartFigure {
	sorted := make([]map[string]any, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := toFloat(sorted[i][valCol])
		b, _ := toFloat(sorted[j][valCol])
		return a > b
	})
	if len(sorted) > barTopN {
		sorted = sorted[:barTopN]
	}

	trace := chartTrace{Type: "bar", Name: valCol}
	for _, row := range sorted {
		trace.X = append(trace.X, row[catCol])
		trace.Y = append(trace.Y, row[valCol])
	}
	return &chartFigure{
		Data: []chartTrace{trace},
		Layout: chartLayout{
			Title: fmt.Sprintf("%s by %s", valCol, catCol),
			XAxis: chartAxis{Title: catCol},
			YAxis: chartAxis{Title: valCol},
		},
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
