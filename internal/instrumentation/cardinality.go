package instrumentation

// Operation types for Google API metrics and spans.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationList     = "list"
	OperationCreate   = "create"
	OperationDelete   = "delete"
	OperationUserinfo = "userinfo"
	OperationExchange = "exchange"
	OperationRevoke   = "revoke"
)
