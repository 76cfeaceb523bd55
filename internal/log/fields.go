package log

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent       = "component"
	FieldRequestID       = "request_id"
	FieldClientIP        = "client_ip"
	FieldMethod          = "method"
	FieldPath            = "path"
	FieldQuery           = "query"
	FieldStatusCode      = "status_code"
	FieldDuration        = "duration_ms"
	FieldDurationHuman   = "duration_human"
	FieldUserAgent       = "user_agent"
	FieldSuccess         = "success"
	FieldError           = "error"
	FieldErrorKind       = "error_kind"
	FieldOperation       = "operation"
	FieldUserID          = "user_id"
	FieldCategoryID      = "category_id"
	FieldTransactionID   = "transaction_id"
	FieldTransactionType = "transaction_type"
	FieldAmount          = "amount"
	FieldEventType       = "event_type"
	FieldSheetsRef       = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentAuth        = "auth"
	ComponentCategory    = "category"
	ComponentTransaction = "transaction"
	ComponentBalance     = "balance"
	ComponentUser        = "user"
	ComponentRecurrence  = "recurrence"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentRateLimit   = "rate_limit"
	ComponentTrace       = "trace"
	ComponentBackend     = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLink     = "link"
	OpUnlink   = "unlink"
	OpLogin    = "login"
	OpRegister = "register"
	OpRollover = "rollover"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message and, for domain failures, its kind.
func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	f[FieldError] = err.Error()
	if kind, ok := core.KindOf(err); ok {
		f[FieldErrorKind] = string(kind)
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUser adds the user id unless it is the zero UUID.
func (f LogFields) WithUser(id uuid.UUID) LogFields {
	if id != uuid.Nil {
		f[FieldUserID] = id.String()
	}
	return f
}

func (f LogFields) WithCategory(id int64) LogFields {
	f[FieldCategoryID] = id
	return f
}

// WithTransaction adds the transaction identity, type and signed amount.
func (f LogFields) WithTransaction(id int64, typ core.TransactionType, amount decimal.Decimal) LogFields {
	f[FieldTransactionID] = id
	f[FieldTransactionType] = string(typ)
	f[FieldAmount] = amount.String()
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
