package retry

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/searchktools/jsonrpc/client"
	"github.com/searchktools/jsonrpc/protocol"
)

// Strategy pairs a backoff with the triggers that make a request worth
// retrying: response error codes and/or transport error targets (matched
// with errors.Is). Errors and responses matching neither propagate
// immediately without consuming a delay.
type Strategy struct {
	Backoff Backoff
	Codes   []int
	Errors  []error
}

func (s Strategy) matchesCode(code int) bool {
	for _, c := range s.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func (s Strategy) matchesError(err error) bool {
	for _, target := range s.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Middleware returns a client middleware retrying per the strategy. Each
// invocation obtains a fresh delay sequence; sleeps honor context
// cancellation.
func Middleware(s Strategy) client.Middleware {
	return func(ctx context.Context, req client.Message, next client.Handler) (client.Reply, error) {
		delays := s.Backoff.Delays()
		attempt := 0

		for {
			reply, err := next(ctx, req)

			if err != nil {
				if !s.matchesError(err) || attempt >= len(delays) {
					return reply, err
				}
				log.Printf("jsonrpc: retrying request: attempt=%d error=%v", attempt+1, err)
			} else {
				code, failed := replyErrorCode(reply)
				if !failed || !s.matchesCode(code) || attempt >= len(delays) {
					return reply, err
				}
				log.Printf("jsonrpc: retrying request: attempt=%d code=%d", attempt+1, code)
			}

			if err := sleep(ctx, delays[attempt]); err != nil {
				return nil, err
			}
			attempt++
		}
	}
}

// replyErrorCode extracts the error code of a failed reply: the error of a
// single response, or the whole-batch fault of a batch response.
func replyErrorCode(reply client.Reply) (int, bool) {
	switch r := reply.(type) {
	case *protocol.Response:
		if r.IsError() {
			return r.Err().Code, true
		}
	case *protocol.BatchResponse:
		if r.IsFault() {
			return r.Fault().Code, true
		}
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
