// Package server dispatches raw JSON-RPC request payloads to registered
// methods. It is transport-agnostic: an HTTP handler, an AMQP consumer or a
// test feeds request bytes to Dispatcher.Dispatch and forwards whatever
// bytes come back (nil for notification-only traffic).
package server

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/searchktools/jsonrpc/codec"
	"github.com/searchktools/jsonrpc/protocol"
	"github.com/searchktools/jsonrpc/registry"
)

// Dispatcher routes requests through the middleware chain to registry
// methods and serializes the outcome. Build it fully before serving traffic.
type Dispatcher struct {
	registry     *registry.Registry
	codec        codec.Codec
	executor     Executor
	maxBatchSize int

	middlewares  []Middleware
	anyHandlers  []ErrorHandler
	codeHandlers map[int][]ErrorHandler

	handler Handler
}

// DispatcherOption configures a dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCodec sets the wire codec. JSON is the default.
func WithCodec(c codec.Codec) DispatcherOption {
	return func(d *Dispatcher) { d.codec = c }
}

// WithExecutor sets the batch execution strategy. SequentialExecutor is the
// default.
func WithExecutor(e Executor) DispatcherOption {
	return func(d *Dispatcher) { d.executor = e }
}

// WithMaxBatchSize rejects batches larger than n with an InvalidRequest
// error. Zero means unlimited.
func WithMaxBatchSize(n int) DispatcherOption {
	return func(d *Dispatcher) { d.maxBatchSize = n }
}

// WithMiddleware appends middlewares to the chain in invocation order.
func WithMiddleware(mw ...Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.middlewares = append(d.middlewares, mw...) }
}

// OnAnyError registers an error handler that runs for every error.
func OnAnyError(h ErrorHandler) DispatcherOption {
	return func(d *Dispatcher) { d.anyHandlers = append(d.anyHandlers, h) }
}

// OnError registers an error handler for a specific error code. It runs
// after the any-code handlers.
func OnError(code int, h ErrorHandler) DispatcherOption {
	return func(d *Dispatcher) { d.codeHandlers[code] = append(d.codeHandlers[code], h) }
}

// NewDispatcher creates a dispatcher over the given method registry.
func NewDispatcher(reg *registry.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:     reg,
		codec:        &codec.JSONCodec{},
		executor:     SequentialExecutor{},
		codeHandlers: make(map[int][]ErrorHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handler = chain(d.middlewares, d.invoke)
	return d
}

// Registry returns the dispatcher's method registry.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Dispatch deserializes a request payload, executes it and serializes the
// outcome. It returns nil output when the input was a notification (or a
// batch consisting entirely of notifications). The returned error reports
// response encoding failures only; protocol-level failures are reported to
// the peer as error responses.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) ([]byte, error) {
	var v any
	if err := d.codec.Decode(data, &v); err != nil {
		return d.encodeResponse(protocol.NewErrorResponse(protocol.NullID(), protocol.ErrParse.WithData(err.Error())))
	}

	if arr, ok := v.([]any); ok {
		return d.dispatchBatch(ctx, arr)
	}

	req, err := protocol.RequestFromJSON(v)
	if err != nil {
		return d.encodeResponse(protocol.NewErrorResponse(protocol.NullID(), protocol.ErrInvalidRequest.WithData(err.Error())))
	}

	resp := d.dispatchOne(ctx, req)
	if resp == nil {
		return nil, nil
	}
	return d.encodeResponse(resp)
}

func (d *Dispatcher) dispatchBatch(ctx context.Context, arr []any) ([]byte, error) {
	batch, err := protocol.BatchRequestFromJSON(arr)
	if err != nil {
		return d.encodeResponse(protocol.NewErrorResponse(protocol.NullID(), protocol.ErrInvalidRequest.WithData(err.Error())))
	}
	if d.maxBatchSize > 0 && len(batch.Requests) > d.maxBatchSize {
		return d.encodeResponse(protocol.NewErrorResponse(protocol.NullID(), protocol.ErrInvalidRequest.WithData("batch too large")))
	}

	all := d.executor.Execute(ctx, d.dispatchOne, batch.Requests)

	responses := make([]*protocol.Response, 0, len(all))
	for _, resp := range all {
		if resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil, nil
	}

	out, err := protocol.NewBatchResponse(responses...)
	if err != nil {
		return nil, err
	}
	return d.codec.Encode(out.ToJSON())
}

// dispatchOne runs one request through the middleware chain and folds any
// error through the error-handler chain. It returns nil for notifications.
func (d *Dispatcher) dispatchOne(ctx context.Context, req *protocol.Request) *protocol.Response {
	resp, err := d.handler(ctx, req)
	if err != nil {
		wireErr := d.toWireError(req, err)
		wireErr = d.applyErrorHandlers(ctx, req, wireErr)
		if req.IsNotification() {
			log.Printf("jsonrpc: notification %s failed: %v", req.Method, wireErr)
			return nil
		}
		return protocol.NewErrorResponse(req.ID, wireErr)
	}
	if req.IsNotification() {
		return nil
	}
	return resp
}

// invoke is the terminal handler: method resolution, parameter binding and
// execution.
func (d *Dispatcher) invoke(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
	method := d.registry.Get(req.Method)
	if method == nil {
		return nil, protocol.ErrMethodNotFound.WithData(req.Method)
	}

	call, err := method.Bind(ctx, req.Params)
	if err != nil {
		var ve *registry.ValidationError
		if errors.As(err, &ve) {
			return nil, protocol.ErrInvalidParams.WithData(ve.Error())
		}
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("jsonrpc: method %s panic: %v", req.Method, r)
			resp, err = nil, protocol.ErrServer
		}
	}()

	result, err := call()
	if err != nil {
		return nil, err
	}
	if req.IsNotification() {
		return nil, nil
	}
	return protocol.NewResponse(req.ID, result), nil
}

// toWireError maps an error to a wire error object. Intentional protocol
// errors pass through with code, message and data intact; anything else is
// logged with full detail server-side and masked as a generic server error.
func (d *Dispatcher) toWireError(req *protocol.Request, err error) *protocol.Error {
	var rpcErr *protocol.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	log.Printf("jsonrpc: method %s(%v) failed: %v", req.Method, req.Params.Interface(), err)
	return protocol.ErrServer
}

func (d *Dispatcher) applyErrorHandlers(ctx context.Context, req *protocol.Request, err *protocol.Error) *protocol.Error {
	for _, h := range d.anyHandlers {
		err = h(ctx, req, err)
	}
	for _, h := range d.codeHandlers[err.Code] {
		err = h(ctx, req, err)
	}
	return err
}

func (d *Dispatcher) encodeResponse(resp *protocol.Response) ([]byte, error) {
	out, err := d.codec.Encode(resp.ToJSON())
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
