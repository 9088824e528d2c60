package agent

import (
	"strings"
	"testing"
)

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain query",
			in:   "SELECT * FROM expenses",
			want: "SELECT * FROM expenses",
		},
		{
			name: "trailing semicolon",
			in:   "SELECT * FROM expenses;",
			want: "SELECT * FROM expenses",
		},
		{
			name: "sql fence",
			in:   "```sql\nSELECT month, SUM(amount) FROM expenses GROUP BY month\n```",
			want: "SELECT month, SUM(amount) FROM expenses GROUP BY month",
		},
		{
			name: "bare fence with semicolon",
			in:   "```\nSELECT 1;\n```",
			want: "SELECT 1",
		},
		{
			name: "surrounding whitespace",
			in:   "  SELECT 1  \n",
			want: "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanSQL(tt.in); got != tt.want {
				t.Errorf("CleanSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{name: "valid select", query: "SELECT * FROM expenses"},
		{name: "lowercase select", query: "select month, sum(amount) from expenses group by month"},
		{name: "empty", query: "", wantErr: "empty"},
		{name: "multiple statements", query: "SELECT 1; DROP TABLE expenses", wantErr: "multiple statements"},
		{name: "not a select", query: "DELETE FROM expenses", wantErr: "only SELECT"},
		{name: "embedded drop", query: "SELECT * FROM expenses WHERE id IN (SELECT 1) UNION SELECT 1,2 -- drop", wantErr: "drop"},
		{name: "pragma function", query: "SELECT * FROM pragma_table_info('expenses')", wantErr: "pragma"},
		{name: "attach", query: "SELECT 1 FROM x attach database", wantErr: "attach"},
		{name: "column named created_at is fine", query: "SELECT created_at FROM expenses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSQL(tt.query)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateSQL() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateSQL() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureLimit(t *testing.T) {
	if got := EnsureLimit("SELECT * FROM expenses"); got != "SELECT * FROM expenses LIMIT 200" {
		t.Errorf("EnsureLimit() = %q", got)
	}
	withLimit := "SELECT * FROM expenses LIMIT 10"
	if got := EnsureLimit(withLimit); got != withLimit {
		t.Errorf("EnsureLimit() modified query with LIMIT: %q", got)
	}
}
