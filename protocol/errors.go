package protocol

import (
	"errors"
	"fmt"
	"sync"
)

// Library-level protocol violations. These are never sent over the wire.
var (
	// ErrDeserialization is wrapped by every malformed-message failure.
	ErrDeserialization = errors.New("deserialization error")

	// ErrIdentity is wrapped by id-correlation failures: duplicate batch ids,
	// mismatched request/response ids, missing or extra batch responses.
	ErrIdentity = errors.New("identity error")
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeServerError is the first code of the implementation-defined server
	// error range -32000..-32099.
	CodeServerError = -32000
)

// Error is a JSON-RPC 2.0 error object. It implements the error interface
// and travels over the wire inside error responses.
//
// Two Errors match under errors.Is when their codes are equal, so handlers
// can raise application errors with pre-registered prototypes and clients
// can match rehydrated errors against the same prototypes.
type Error struct {
	Code    int
	Message string
	Data    Maybe[any]
}

// NewError creates an error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithData returns a copy of the error carrying additional data.
func (e *Error) WithData(data any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Data: Some(data)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("(%d) %s", e.Code, e.Message)
}

// Is matches errors by code, making registered prototypes usable as
// errors.Is targets.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Standard protocol error prototypes. Use WithData to attach detail.
var (
	ErrParse          = RegisterError(NewError(CodeParseError, "Parse error"))
	ErrInvalidRequest = RegisterError(NewError(CodeInvalidRequest, "Invalid Request"))
	ErrMethodNotFound = RegisterError(NewError(CodeMethodNotFound, "Method not found"))
	ErrInvalidParams  = RegisterError(NewError(CodeInvalidParams, "Invalid params"))
	ErrInternal       = RegisterError(NewError(CodeInternalError, "Internal error"))
	ErrServer         = RegisterError(NewError(CodeServerError, "Server error"))
)

var (
	errRegistryMu sync.RWMutex
	errRegistry   = map[int]*Error{}
)

// RegisterError records an application error prototype so that
// deserialization of its code rehydrates the canonical message even when the
// peer sent none. It returns the prototype, allowing registration at var
// initialization:
//
//	var ErrOrderNotFound = protocol.RegisterError(protocol.NewError(1001, "order not found"))
//
// Registration is meant to happen at program initialization, before any
// message crosses the wire.
func RegisterError(prototype *Error) *Error {
	errRegistryMu.Lock()
	defer errRegistryMu.Unlock()
	errRegistry[prototype.Code] = prototype
	return prototype
}

// RegisteredError returns the prototype registered for code, or nil.
func RegisteredError(code int) *Error {
	errRegistryMu.RLock()
	defer errRegistryMu.RUnlock()
	return errRegistry[code]
}

// ErrorToJSON serializes the error object, omitting absent data.
func (e *Error) ToJSON() any {
	obj := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if data, ok := e.Data.Get(); ok {
		obj["data"] = data
	}
	return obj
}

// ErrorFromJSON deserializes an error object from a decoded JSON value.
// Known codes rehydrate through the registered prototype; unknown codes
// produce a generic Error.
func ErrorFromJSON(v any) (*Error, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("error must be an object: %w", ErrDeserialization)
	}

	rawCode, ok := obj["code"]
	if !ok {
		return nil, fmt.Errorf("required field 'code' not found: %w", ErrDeserialization)
	}
	code, ok := toInt(rawCode)
	if !ok {
		return nil, fmt.Errorf("field 'code' must be an integer: %w", ErrDeserialization)
	}

	rawMessage, ok := obj["message"]
	if !ok {
		return nil, fmt.Errorf("required field 'message' not found: %w", ErrDeserialization)
	}
	message, ok := rawMessage.(string)
	if !ok {
		return nil, fmt.Errorf("field 'message' must be a string: %w", ErrDeserialization)
	}

	e := &Error{Code: code, Message: message}
	if prototype := RegisteredError(code); prototype != nil && message == "" {
		e.Message = prototype.Message
	}
	if data, ok := obj["data"]; ok {
		e.Data = Some(data)
	}
	return e, nil
}

// toInt normalizes the integer representations the supported codecs produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
