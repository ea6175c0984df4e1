package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldDataset   = "dataset"
	FieldMonth     = "month"
	FieldRow       = "row"
	FieldRowRef    = "row_ref"
	FieldRowID     = "row_id"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldReason    = "reason"
	FieldMessageID = "message_id"
	FieldBackend   = "backend"
	FieldDuration  = "duration_ms"
)

// Component names
const (
	ComponentApp     = "app"
	ComponentMenu    = "menu"
	ComponentRecords = "records"
	ComponentReport  = "report"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Operation names
const (
	OpAppend   = "append"
	OpRead     = "read"
	OpSync     = "sync"
	OpValidate = "validate"
	OpParse    = "parse"
	OpReport   = "report"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRow adds the dataset and 1-based row number of a stored row.
func (f LogFields) WithRow(dataset string, row int) LogFields {
	f[FieldDataset] = dataset
	f[FieldRow] = row
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
