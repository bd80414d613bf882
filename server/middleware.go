package server

import (
	"context"

	"github.com/searchktools/jsonrpc/protocol"
)

// Handler processes one request. A nil response with a nil error means the
// request was a notification and produced no output.
type Handler func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Middleware wraps request handling. Middlewares compose into an explicit
// chain at dispatcher build time: the first registered middleware is the
// outermost, seeing the request first and the response last.
type Middleware func(ctx context.Context, req *protocol.Request, next Handler) (*protocol.Response, error)

// ErrorHandler inspects an error produced while handling a request and may
// replace it. Handlers registered for any code run before handlers
// registered for the specific code, each seeing the previous handler's
// (possibly rewritten) error.
type ErrorHandler func(ctx context.Context, req *protocol.Request, err *protocol.Error) *protocol.Error

// chain composes middlewares around a terminal handler.
func chain(middlewares []Middleware, terminal Handler) Handler {
	h := terminal
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw, next := middlewares[i], h
		h = func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return mw(ctx, req, next)
		}
	}
	return h
}
