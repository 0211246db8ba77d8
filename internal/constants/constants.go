package constants

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Routing
const (
	APIPrefix    = "/api"
	LogsPath     = "/api/logs"
	DownloadPath = "/api/todos/download"
)

// ExportChunkSize bounds how many rows are loaded at once during export.
const ExportChunkSize = 500

// RequestIDHeader carries the request-correlation id.
const RequestIDHeader = "X-Request-ID"

// Log tasks used by the request cycle and the exception mapper
const (
	TaskAPIRequestCycle  = "api_request_cycle"
	TaskWebRequestCycle  = "web_request_cycle"
	TaskDefaultException = "default_exception_handling"
)

// Model names used in record-not-found messages
const (
	ModelTodo = "Todo"
)
