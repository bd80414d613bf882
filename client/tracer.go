package client

import (
	"context"
	"log"
)

// Tracer observes the client send pipeline. The context is caller-supplied
// and opaque to the engine; it correlates the begin/end pair of one logical
// call. No ordering is guaranteed across concurrent calls.
type Tracer interface {
	OnRequestBegin(ctx context.Context, req Message)
	OnRequestEnd(ctx context.Context, req Message, reply Reply)
	OnError(ctx context.Context, req Message, err error)
}

// LoggingTracer logs request begin/end/error through the standard logger.
type LoggingTracer struct {
	Logger *log.Logger
}

func (t LoggingTracer) logf(format string, args ...any) {
	if t.Logger != nil {
		t.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (t LoggingTracer) OnRequestBegin(ctx context.Context, req Message) {
	t.logf("jsonrpc: sending request: %v", req)
}

func (t LoggingTracer) OnRequestEnd(ctx context.Context, req Message, reply Reply) {
	t.logf("jsonrpc: received response: %v", reply)
}

func (t LoggingTracer) OnError(ctx context.Context, req Message, err error) {
	t.logf("jsonrpc: request %v failed: %v", req, err)
}
