package protocol

import (
	"fmt"
)

// Version is the protocol version carried by every message.
const Version = "2.0"

type paramsKind uint8

const (
	paramsAbsent paramsKind = iota
	paramsPositional
	paramsNamed
)

// Params holds method parameters in one of the two JSON-RPC shapes:
// positional (array) or named (object). The shape is fixed per request and
// propagated to parameter binding. The zero Params is absent.
type Params struct {
	kind paramsKind
	list []any
	obj  map[string]any
}

// PositionalParams builds positional parameters.
func PositionalParams(args ...any) Params {
	if args == nil {
		args = []any{}
	}
	return Params{kind: paramsPositional, list: args}
}

// NamedParams builds named parameters.
func NamedParams(kwargs map[string]any) Params {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return Params{kind: paramsNamed, obj: kwargs}
}

// IsAbsent reports whether the request carries no params member.
func (p Params) IsAbsent() bool { return p.kind == paramsAbsent }

// IsPositional reports whether the params are an ordered list.
func (p Params) IsPositional() bool { return p.kind == paramsPositional }

// IsNamed reports whether the params are a name/value map.
func (p Params) IsNamed() bool { return p.kind == paramsNamed }

// List returns the positional arguments, or nil for other shapes.
func (p Params) List() []any { return p.list }

// Map returns the named arguments, or nil for other shapes.
func (p Params) Map() map[string]any { return p.obj }

// Interface returns the params as a generic JSON value.
func (p Params) Interface() any {
	switch p.kind {
	case paramsPositional:
		return p.list
	case paramsNamed:
		return p.obj
	default:
		return nil
	}
}

func parseParams(v any, present bool) (Params, error) {
	if !present {
		return Params{}, nil
	}
	switch pv := v.(type) {
	case []any:
		return PositionalParams(pv...), nil
	case map[string]any:
		return NamedParams(pv), nil
	default:
		return Params{}, fmt.Errorf("field 'params' must be an array or an object: %w", ErrDeserialization)
	}
}

// Request is a JSON-RPC 2.0 request. A request without an id is a
// notification and never produces a response. Requests are immutable
// per-call values; build them once and discard after serialization.
type Request struct {
	ID     ID
	Method string
	Params Params
}

// NewRequest creates a request.
func NewRequest(id ID, method string, params Params) *Request {
	return &Request{ID: id, Method: method, Params: params}
}

// NewNotification creates a request without an id.
func NewNotification(method string, params Params) *Request {
	return &Request{Method: method, Params: params}
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return r.ID.IsAbsent() || r.ID.IsNull()
}

func (r *Request) String() string {
	return fmt.Sprintf("%s(%v)", r.Method, r.Params.Interface())
}

// ToJSON serializes the request to a generic JSON value. Absent members are
// omitted entirely.
func (r *Request) ToJSON() any {
	obj := map[string]any{
		"jsonrpc": Version,
		"method":  r.Method,
	}
	if !r.ID.IsAbsent() && !r.ID.IsNull() {
		obj["id"] = r.ID.Interface()
	}
	if !r.Params.IsAbsent() {
		obj["params"] = r.Params.Interface()
	}
	return obj
}

// RequestFromJSON deserializes a request from a decoded JSON value.
func RequestFromJSON(v any) (*Request, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("request must be an object: %w", ErrDeserialization)
	}
	if err := checkVersion(obj); err != nil {
		return nil, err
	}

	rawID, idPresent := obj["id"]
	id, err := parseID(rawID, idPresent)
	if err != nil {
		return nil, err
	}
	// An explicit null id marks a notification just like a missing one.
	if id.IsNull() {
		id = ID{}
	}

	rawMethod, ok := obj["method"]
	if !ok {
		return nil, fmt.Errorf("required field 'method' not found: %w", ErrDeserialization)
	}
	method, ok := rawMethod.(string)
	if !ok {
		return nil, fmt.Errorf("field 'method' must be a string: %w", ErrDeserialization)
	}

	rawParams, paramsPresent := obj["params"]
	params, err := parseParams(rawParams, paramsPresent)
	if err != nil {
		return nil, err
	}

	return &Request{ID: id, Method: method, Params: params}, nil
}

// BatchRequest is a non-empty ordered sequence of requests. NewBatchRequest
// and BatchRequestFromJSON enforce that ids of non-notification items are
// unique; assembling the struct directly skips the check (non-strict mode).
type BatchRequest struct {
	Requests []*Request
}

// NewBatchRequest creates a batch, rejecting duplicate ids.
func NewBatchRequest(requests ...*Request) (*BatchRequest, error) {
	if err := checkUniqueRequestIDs(requests); err != nil {
		return nil, err
	}
	return &BatchRequest{Requests: requests}, nil
}

// IsNotification reports whether every item of the batch is a notification.
func (b *BatchRequest) IsNotification() bool {
	for _, r := range b.Requests {
		if !r.IsNotification() {
			return false
		}
	}
	return true
}

// ToJSON serializes the batch to a generic JSON array.
func (b *BatchRequest) ToJSON() any {
	out := make([]any, len(b.Requests))
	for i, r := range b.Requests {
		out[i] = r.ToJSON()
	}
	return out
}

// BatchRequestFromJSON deserializes a batch request from a decoded JSON
// array. Empty batches and duplicate ids are rejected.
func BatchRequestFromJSON(v any) (*BatchRequest, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("batch request must be an array: %w", ErrDeserialization)
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("batch request must not be empty: %w", ErrDeserialization)
	}

	requests := make([]*Request, len(arr))
	for i, item := range arr {
		r, err := RequestFromJSON(item)
		if err != nil {
			return nil, err
		}
		requests[i] = r
	}
	return NewBatchRequest(requests...)
}

func checkUniqueRequestIDs(requests []*Request) error {
	seen := make(map[ID]struct{}, len(requests))
	for _, r := range requests {
		if r.IsNotification() {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("duplicate request id %s: %w", r.ID, ErrIdentity)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func checkVersion(obj map[string]any) error {
	raw, ok := obj["jsonrpc"]
	if !ok {
		return fmt.Errorf("required field 'jsonrpc' not found: %w", ErrDeserialization)
	}
	if raw != Version {
		return fmt.Errorf("jsonrpc version %v is not supported: %w", raw, ErrDeserialization)
	}
	return nil
}
