package services

// Result kinds for user-visible operations. The set is closed: every
// failure a caller can see maps onto one of these, never a raw error.
const (
	KindUnauthorized = "unauthorized"
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindInternal     = "internal"
)

// ActionResult is the structured outcome of a user-visible operation.
type ActionResult struct {
	OK      bool   `json:"ok"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(data any) ActionResult {
	return ActionResult{OK: true, Data: data}
}

func Failure(kind, message string) ActionResult {
	return ActionResult{OK: false, Kind: kind, Message: message}
}
