package amqp

import "time"

// Expense event operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ExpenseEvent is published after every ledger write. The rollup worker
// consumes it to keep the monthly_spend table current.
type ExpenseEvent struct {
	ExpenseID  string    `json:"expense_id"`
	Account    string    `json:"account"`
	Month      string    `json:"month"`
	Op         string    `json:"op"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey groups expense events on the exchange.
const RoutingKey = "expense.event"
