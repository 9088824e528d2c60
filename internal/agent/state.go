package agent

// Classification labels for a user question.
const (
	ClassSimple     = "simple"
	ClassAdvanced   = "advanced"
	ClassIrrelevant = "irrelevant"
)

// State accumulates the outputs of each pipeline node. Errors are carried as
// a string so that a failed node can hand off to the response node, which
// turns the failure into a user-facing message.
type State struct {
	OriginalQuery   string
	Classification  string
	SQLQuery        string
	SQLResultsTable string
	SQLColumns      []string
	SQLResults      []map[string]any
	ChartJSON       string
	FinalResponse   string
	Error           string
}

func (s *State) failed() bool {
	return s.Error != ""
}
