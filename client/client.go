// Package client implements the client half of the engine: request
// building, id generation, middleware, response correlation and batch
// calls. It is transport-agnostic; callers plug in any carrier that can
// move bytes by implementing the single-method Transport interface.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/searchktools/jsonrpc/codec"
	"github.com/searchktools/jsonrpc/protocol"
)

var (
	// ErrUnexpectedResponse reports a non-empty response body received for a
	// notification in strict mode.
	ErrUnexpectedResponse = errors.New("unexpected response to a notification")
)

// Transport is the carrier primitive the client sends through: request
// bytes in, response bytes out. For notifications the transport should
// return nil response bytes. Transport failures propagate to the caller
// unchanged unless a retry middleware matches them.
type Transport interface {
	RoundTrip(ctx context.Context, request []byte, isNotification bool) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, request []byte, isNotification bool) ([]byte, error)

func (f TransportFunc) RoundTrip(ctx context.Context, request []byte, isNotification bool) ([]byte, error) {
	return f(ctx, request, isNotification)
}

// Message is an outgoing request: a *protocol.Request or a
// *protocol.BatchRequest.
type Message interface {
	ToJSON() any
	IsNotification() bool
}

// Reply is an incoming response: a *protocol.Response or a
// *protocol.BatchResponse, or nil for notifications.
type Reply interface {
	ToJSON() any
}

// Handler sends a message and returns the correlated reply.
type Handler func(ctx context.Context, req Message) (Reply, error)

// Middleware wraps the client send pipeline. The first registered
// middleware is the outermost.
type Middleware func(ctx context.Context, req Message, next Handler) (Reply, error)

// Client is a synchronous JSON-RPC client. It is safe for concurrent use:
// id generation is atomic and each call correlates its own response.
type Client struct {
	transport Transport
	codec     codec.Codec
	nextID    Generator
	strict    bool

	middlewares []Middleware
	tracers     []Tracer

	send Handler
}

// Option configures a client.
type Option func(*Client)

// WithCodec sets the wire codec. JSON is the default.
func WithCodec(c codec.Codec) Option {
	return func(cl *Client) { cl.codec = c }
}

// WithIDGenerator sets the request id generator. Sequential integer ids are
// the default.
func WithIDGenerator(g Generator) Option {
	return func(cl *Client) { cl.nextID = g }
}

// WithMiddleware appends middlewares to the send pipeline in invocation
// order.
func WithMiddleware(mw ...Middleware) Option {
	return func(cl *Client) { cl.middlewares = append(cl.middlewares, mw...) }
}

// WithTracer registers tracers invoked around every send.
func WithTracer(tracers ...Tracer) Option {
	return func(cl *Client) { cl.tracers = append(cl.tracers, tracers...) }
}

// NonStrict disables id correlation checks: response ids are not matched
// against request ids and notification responses are ignored.
func NonStrict() Option {
	return func(cl *Client) { cl.strict = false }
}

// New creates a client over the given transport.
func New(transport Transport, opts ...Option) *Client {
	cl := &Client{
		transport: transport,
		codec:     &codec.JSONCodec{},
		nextID:    SequentialIDs(1),
		strict:    true,
	}
	for _, opt := range opts {
		opt(cl)
	}

	h := cl.roundTrip
	for i := len(cl.middlewares) - 1; i >= 0; i-- {
		mw, next := cl.middlewares[i], h
		h = func(ctx context.Context, req Message) (Reply, error) {
			return mw(ctx, req, next)
		}
	}
	cl.send = h

	return cl
}

// Call invokes a method with positional arguments and returns its result. A
// response error is rehydrated and returned as a *protocol.Error.
func (cl *Client) Call(ctx context.Context, method string, args ...any) (any, error) {
	return cl.call(ctx, method, positional(args))
}

// CallNamed invokes a method with named arguments.
func (cl *Client) CallNamed(ctx context.Context, method string, kwargs map[string]any) (any, error) {
	return cl.call(ctx, method, named(kwargs))
}

func (cl *Client) call(ctx context.Context, method string, params protocol.Params) (any, error) {
	req := protocol.NewRequest(cl.nextID(), method, params)
	resp, err := cl.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Unwrap()
}

// Notify sends a notification with positional arguments. No response is
// expected; in strict mode a non-empty response body is an error.
func (cl *Client) Notify(ctx context.Context, method string, args ...any) error {
	_, err := cl.sendMessage(ctx, protocol.NewNotification(method, positional(args)))
	return err
}

// NotifyNamed sends a notification with named arguments.
func (cl *Client) NotifyNamed(ctx context.Context, method string, kwargs map[string]any) error {
	_, err := cl.sendMessage(ctx, protocol.NewNotification(method, named(kwargs)))
	return err
}

// Send sends a single request through the middleware chain and returns the
// correlated response (nil for notifications). In strict mode the response
// id must equal the request id.
func (cl *Client) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	reply, err := cl.sendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, nil
	}

	resp, ok := reply.(*protocol.Response)
	if !ok {
		return nil, fmt.Errorf("single request answered with a batch response: %w", protocol.ErrIdentity)
	}
	if cl.strict && resp.ID() != req.ID {
		return nil, fmt.Errorf("response id %s does not match request id %s: %w", resp.ID(), req.ID, protocol.ErrIdentity)
	}
	return resp, nil
}

// SendBatch sends a batch request and returns the raw batch response (nil
// when every item is a notification). Per-item correlation is the batch
// builder's job; use Client.Batch for the convenience form.
func (cl *Client) SendBatch(ctx context.Context, req *protocol.BatchRequest) (*protocol.BatchResponse, error) {
	reply, err := cl.sendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, nil
	}

	resp, ok := reply.(*protocol.BatchResponse)
	if !ok {
		return nil, fmt.Errorf("batch request answered with a single response: %w", protocol.ErrIdentity)
	}
	return resp, nil
}

// sendMessage drives the middleware chain with tracer hooks around it.
func (cl *Client) sendMessage(ctx context.Context, req Message) (Reply, error) {
	for _, t := range cl.tracers {
		t.OnRequestBegin(ctx, req)
	}

	reply, err := cl.send(ctx, req)
	if err != nil {
		for _, t := range cl.tracers {
			t.OnError(ctx, req, err)
		}
		return nil, err
	}

	for _, t := range cl.tracers {
		t.OnRequestEnd(ctx, req, reply)
	}
	return reply, nil
}

// roundTrip is the terminal handler: serialize, carry, deserialize.
func (cl *Client) roundTrip(ctx context.Context, req Message) (Reply, error) {
	data, err := cl.codec.Encode(req.ToJSON())
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	respData, err := cl.transport.RoundTrip(ctx, data, req.IsNotification())
	if err != nil {
		return nil, err
	}

	if req.IsNotification() {
		if len(respData) > 0 && cl.strict {
			return nil, ErrUnexpectedResponse
		}
		return nil, nil
	}

	var v any
	if err := cl.codec.Decode(respData, &v); err != nil {
		return nil, fmt.Errorf("decode response: %s: %w", err, protocol.ErrDeserialization)
	}

	if _, isBatch := req.(*protocol.BatchRequest); isBatch {
		return protocol.BatchResponseFromJSON(v)
	}
	return protocol.ResponseFromJSON(v)
}

func positional(args []any) protocol.Params {
	if len(args) == 0 {
		return protocol.Params{}
	}
	return protocol.PositionalParams(args...)
}

func named(kwargs map[string]any) protocol.Params {
	if len(kwargs) == 0 {
		return protocol.Params{}
	}
	return protocol.NamedParams(kwargs)
}
