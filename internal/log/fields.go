package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldEntity     = "entity"
	FieldEntityID   = "entity_id"
	FieldUsername   = "username"
	FieldUserID     = "user_id"
	FieldClientIP   = "client_ip"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentSession   = "session"
	ComponentAPI       = "api"
	ComponentService   = "service"
	ComponentStorage   = "storage"
	ComponentDevServer = "devserver"
)

// Operations defines standard operation names
const (
	OpInitialize = "initialize"
	OpLogin      = "login"
	OpLogout     = "logout"
	OpRegister   = "register"
	OpList       = "list"
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
