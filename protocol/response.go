package protocol

import (
	"fmt"
)

// Response is a JSON-RPC 2.0 response carrying exactly one of a result or an
// error. The constructors uphold that invariant; there is no way to build a
// response with both or neither.
type Response struct {
	id     ID
	result Maybe[any]
	err    *Error
}

// NewResponse creates a success response. A nil result is a legal JSON null
// result, distinct from "no result".
func NewResponse(id ID, result any) *Response {
	return &Response{id: id, result: Some(result)}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{id: id, err: err}
}

// ID returns the correlation identifier.
func (r *Response) ID() ID { return r.id }

// IsError reports whether the response carries an error.
func (r *Response) IsError() bool { return r.err != nil }

// Err returns the response error, or nil on success.
func (r *Response) Err() *Error { return r.err }

// Result returns the raw result value. It is only meaningful when the
// response succeeded; use Unwrap to fold the error in.
func (r *Response) Result() any { return r.result.Value() }

// Unwrap returns the result, or the response error for failed responses.
func (r *Response) Unwrap() (any, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.result.Value(), nil
}

func (r *Response) String() string {
	if r.err != nil {
		return r.err.Error()
	}
	return fmt.Sprintf("%v", r.result.Value())
}

// ToJSON serializes the response. The id is always emitted, as null when the
// originating request id is unknown.
func (r *Response) ToJSON() any {
	obj := map[string]any{
		"jsonrpc": Version,
		"id":      r.id.Interface(),
	}
	if r.err != nil {
		obj["error"] = r.err.ToJSON()
	} else {
		obj["result"] = r.result.Value()
	}
	return obj
}

// ResponseFromJSON deserializes a response from a decoded JSON value,
// enforcing result/error exclusivity.
func ResponseFromJSON(v any) (*Response, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response must be an object: %w", ErrDeserialization)
	}
	if err := checkVersion(obj); err != nil {
		return nil, err
	}

	rawID, idPresent := obj["id"]
	id, err := parseID(rawID, idPresent)
	if err != nil {
		return nil, err
	}

	rawResult, hasResult := obj["result"]
	rawError, hasError := obj["error"]
	switch {
	case hasResult && hasError:
		return nil, fmt.Errorf("fields 'result' and 'error' are mutually exclusive: %w", ErrDeserialization)
	case !hasResult && !hasError:
		return nil, fmt.Errorf("either 'result' or 'error' field must be provided: %w", ErrDeserialization)
	case hasError:
		respErr, err := ErrorFromJSON(rawError)
		if err != nil {
			return nil, err
		}
		return NewErrorResponse(id, respErr), nil
	default:
		return NewResponse(id, rawResult), nil
	}
}

// BatchResponse is either an ordered sequence of responses or a single
// whole-batch fault, produced when the batch itself could not be processed
// (for example malformed JSON). The two variants are mutually exclusive.
type BatchResponse struct {
	responses []*Response
	fault     *Response
}

// NewBatchResponse creates a batch of per-item responses, rejecting
// duplicate non-null ids.
func NewBatchResponse(responses ...*Response) (*BatchResponse, error) {
	seen := make(map[ID]struct{}, len(responses))
	for _, r := range responses {
		id := r.ID()
		if id.IsAbsent() || id.IsNull() {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate response id %s: %w", id, ErrIdentity)
		}
		seen[id] = struct{}{}
	}
	return &BatchResponse{responses: responses}, nil
}

// NewBatchFault creates the whole-batch failure variant.
func NewBatchFault(err *Error) *BatchResponse {
	return &BatchResponse{fault: NewErrorResponse(NullID(), err)}
}

// IsFault reports whether the batch failed as a whole.
func (b *BatchResponse) IsFault() bool { return b.fault != nil }

// Fault returns the whole-batch error, or nil for the per-item variant.
func (b *BatchResponse) Fault() *Error {
	if b.fault == nil {
		return nil
	}
	return b.fault.Err()
}

// Responses returns the per-item responses, or nil for the fault variant.
func (b *BatchResponse) Responses() []*Response { return b.responses }

// ToJSON serializes the batch: an array for the per-item variant, a single
// error response object for the fault variant.
func (b *BatchResponse) ToJSON() any {
	if b.fault != nil {
		return b.fault.ToJSON()
	}
	out := make([]any, len(b.responses))
	for i, r := range b.responses {
		out[i] = r.ToJSON()
	}
	return out
}

// BatchResponseFromJSON deserializes a batch response. A top-level object is
// the whole-batch fault variant; a top-level array holds per-item responses.
func BatchResponseFromJSON(v any) (*BatchResponse, error) {
	switch data := v.(type) {
	case []any:
		responses := make([]*Response, len(data))
		for i, item := range data {
			r, err := ResponseFromJSON(item)
			if err != nil {
				return nil, err
			}
			responses[i] = r
		}
		return NewBatchResponse(responses...)
	case map[string]any:
		r, err := ResponseFromJSON(data)
		if err != nil {
			return nil, err
		}
		if !r.IsError() {
			return nil, fmt.Errorf("single response for a batch request must be an error: %w", ErrDeserialization)
		}
		return NewBatchFault(r.Err()), nil
	default:
		return nil, fmt.Errorf("batch response must be an array or an error object: %w", ErrDeserialization)
	}
}
