package log

// Component names identify the subsystem emitting a log record.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentAgent      = "agent"
	ComponentLLM        = "llm"
	ComponentMiddleware = "middleware"
	ComponentConfig     = "config"
	ComponentCache      = "cache"
)

// Standard field names for structured logging
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldError     = "error"
	FieldDuration  = "duration"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldRemoteAddr = "remote_addr"

	FieldExpenseID = "expense_id"
	FieldAccount   = "account"
	FieldMonth     = "month"
	FieldAmount    = "amount"
	FieldCategory  = "category"

	FieldQueue    = "queue"
	FieldExchange = "exchange"
	FieldOp       = "op"

	FieldNode           = "node"
	FieldClassification = "classification"
	FieldModel          = "model"
	FieldRowCount       = "row_count"
)
