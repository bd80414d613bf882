package server

import (
	"context"
	"sync"

	"github.com/searchktools/jsonrpc/protocol"
)

// ItemHandler processes one batch item and returns its response, or nil when
// the item is a notification.
type ItemHandler func(ctx context.Context, req *protocol.Request) *protocol.Response

// Executor runs the items of a batch request. The returned slice is aligned
// with the input: slot i holds the response for request i (nil for
// notifications), whatever the completion order.
type Executor interface {
	Execute(ctx context.Context, handle ItemHandler, requests []*protocol.Request) []*protocol.Response
}

// SequentialExecutor runs batch items one by one in input order. This is the
// default: side effects of batch items happen strictly in sequence.
type SequentialExecutor struct{}

func (SequentialExecutor) Execute(ctx context.Context, handle ItemHandler, requests []*protocol.Request) []*protocol.Response {
	responses := make([]*protocol.Response, len(requests))
	for i, req := range requests {
		responses[i] = handle(ctx, req)
	}
	return responses
}

// ConcurrentExecutor fans batch items out to goroutines and joins before
// returning. Result slots stay fixed to input order; no ordering is
// guaranteed between the side effects of concurrently executing items.
type ConcurrentExecutor struct {
	// Limit caps the number of items running at once. Zero means no cap.
	Limit int
}

func (e ConcurrentExecutor) Execute(ctx context.Context, handle ItemHandler, requests []*protocol.Request) []*protocol.Response {
	responses := make([]*protocol.Response, len(requests))

	var sem chan struct{}
	if e.Limit > 0 {
		sem = make(chan struct{}, e.Limit)
	}

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req *protocol.Request) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			responses[i] = handle(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return responses
}
