package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldWeekID     = "week_id"
	FieldUserID     = "user_id"
	FieldTaskID     = "task_id"
	FieldTaskType   = "task_type"
	FieldHoursTotal = "hours_total"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldLocked     = "locked"
	FieldSheetsRef  = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentImputation = "imputation"
	ComponentTaskType   = "task_type"
	ComponentTask       = "task"
	ComponentLock       = "lock"
	ComponentSummary    = "summary"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentAuth       = "auth"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLock     = "lock"
	OpSync     = "sync"
	OpExport   = "export"
	OpImport   = "import"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
