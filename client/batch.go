package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/searchktools/jsonrpc/protocol"
)

var ErrEmptyBatch = errors.New("batch holds no requests")

// Batch accumulates calls and notifications and sends them as one batch
// request. It is a builder for one shot: construct, fill, send, read
// results. Not safe for concurrent use.
//
//	b := cl.Batch()
//	b.Call("sum", 1, 2).Call("sub", 5, 3).Notify("ping")
//	results, err := b.Send(ctx)
type Batch struct {
	client   *Client
	requests []*protocol.Request
	response *protocol.BatchResponse
	sent     bool
}

// Batch creates a batch builder bound to the client.
func (cl *Client) Batch() *Batch {
	return &Batch{client: cl}
}

// Call queues a method call with positional arguments.
func (b *Batch) Call(method string, args ...any) *Batch {
	b.requests = append(b.requests, protocol.NewRequest(b.client.nextID(), method, positional(args)))
	return b
}

// CallNamed queues a method call with named arguments.
func (b *Batch) CallNamed(method string, kwargs map[string]any) *Batch {
	b.requests = append(b.requests, protocol.NewRequest(b.client.nextID(), method, named(kwargs)))
	return b
}

// Notify queues a notification.
func (b *Batch) Notify(method string, args ...any) *Batch {
	b.requests = append(b.requests, protocol.NewNotification(method, positional(args)))
	return b
}

// Add queues a prebuilt request.
func (b *Batch) Add(req *protocol.Request) *Batch {
	b.requests = append(b.requests, req)
	return b
}

// Requests returns the queued requests in order.
func (b *Batch) Requests() []*protocol.Request {
	return b.requests
}

// Send sends the accumulated batch and returns the per-item results in
// request order, notifications skipped. If any item failed, the first
// per-item error is returned. Use Response for the raw batch response.
func (b *Batch) Send(ctx context.Context) ([]any, error) {
	if len(b.requests) == 0 {
		return nil, ErrEmptyBatch
	}

	req, err := protocol.NewBatchRequest(b.requests...)
	if err != nil {
		if b.client.strict {
			return nil, err
		}
		req = &protocol.BatchRequest{Requests: b.requests}
	}

	resp, err := b.client.SendBatch(ctx, req)
	if err != nil {
		return nil, err
	}
	b.response = resp
	b.sent = true

	return b.Results()
}

// Response returns the raw batch response received by Send. It is nil when
// the batch consisted entirely of notifications.
func (b *Batch) Response() (*protocol.BatchResponse, error) {
	if !b.sent {
		return nil, errors.New("batch is not sent yet")
	}
	return b.response, nil
}

// Results correlates responses to requests by id and unwraps them in
// request order. In strict mode a request without a response, or a response
// without a matching request, is an identity error.
func (b *Batch) Results() ([]any, error) {
	if !b.sent {
		return nil, errors.New("batch is not sent yet")
	}
	if b.response == nil {
		return []any{}, nil
	}
	if b.response.IsFault() {
		return nil, b.response.Fault()
	}

	responses := b.response.Responses()
	byID := make(map[protocol.ID]*protocol.Response, len(responses))
	for _, resp := range responses {
		byID[resp.ID()] = resp
	}

	matched := 0
	results := make([]any, 0, len(b.requests))
	var firstErr error
	for _, req := range b.requests {
		if req.IsNotification() {
			continue
		}
		resp, ok := byID[req.ID]
		if !ok {
			if b.client.strict {
				return nil, fmt.Errorf("response %s is missing: %w", req.ID, protocol.ErrIdentity)
			}
			results = append(results, nil)
			continue
		}
		matched++

		result, err := resp.Unwrap()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results = append(results, result)
	}

	if b.client.strict && matched < len(byID) {
		return nil, fmt.Errorf("batch response holds %d unexpected responses: %w", len(byID)-matched, protocol.ErrIdentity)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
