package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/jsonrpc/protocol"
	"github.com/searchktools/jsonrpc/registry"
)

type sumParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.MustAdd("sum", func(ctx context.Context, p *sumParams) (int, error) {
		return p.A + p.B, nil
	})
	r.MustAdd("fail", func(ctx context.Context) (int, error) {
		return 0, errors.New("database exploded")
	})
	r.MustAdd("fail_typed", func(ctx context.Context) (int, error) {
		return 0, protocol.NewError(100, "custom failure").WithData("details")
	})
	r.MustAdd("panics", func(ctx context.Context) (int, error) {
		panic("oops")
	})
	return r
}

func dispatchObject(t *testing.T, d *Dispatcher, payload string) map[string]any {
	t.Helper()
	out, err := d.Dispatch(context.Background(), []byte(payload))
	require.NoError(t, err)
	require.NotNil(t, out)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(out, &obj))
	return obj
}

func dispatchArray(t *testing.T, d *Dispatcher, payload string) []any {
	t.Helper()
	out, err := d.Dispatch(context.Background(), []byte(payload))
	require.NoError(t, err)
	require.NotNil(t, out)

	var arr []any
	require.NoError(t, json.Unmarshal(out, &arr))
	return arr
}

func errorCode(t *testing.T, obj map[string]any) int {
	t.Helper()
	errObj, ok := obj["error"].(map[string]any)
	require.True(t, ok, "expected an error response, got %v", obj)
	return int(errObj["code"].(float64))
}

func TestDispatchCall(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": {"a": 1, "b": 2}}`)
	assert.Equal(t, "2.0", obj["jsonrpc"])
	assert.Equal(t, float64(1), obj["id"])
	assert.Equal(t, float64(3), obj["result"])
	assert.NotContains(t, obj, "error")
}

func TestDispatchPositionalCall(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": "abc", "method": "sum", "params": [4, 5]}`)
	assert.Equal(t, "abc", obj["id"])
	assert.Equal(t, float64(9), obj["result"])
}

func TestDispatchNotification(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	out, err := d.Dispatch(context.Background(), []byte(`{"jsonrpc": "2.0", "method": "sum", "params": [1, 2]}`))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDispatchFailedNotificationSilent(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	out, err := d.Dispatch(context.Background(), []byte(`{"jsonrpc": "2.0", "method": "missing"}`))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDispatchMethodNotFound(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "missing"}`)
	assert.Equal(t, protocol.CodeMethodNotFound, errorCode(t, obj))
	assert.Equal(t, "missing", obj["error"].(map[string]any)["data"])
}

func TestDispatchInvalidParams(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": {"a": 1}}`)
	assert.Equal(t, protocol.CodeInvalidParams, errorCode(t, obj))
}

func TestDispatchParseError(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1,`)
	assert.Equal(t, protocol.CodeParseError, errorCode(t, obj))
	assert.Nil(t, obj["id"])
}

func TestDispatchInvalidRequest(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	tests := []struct {
		name    string
		payload string
	}{
		{"wrong version", `{"jsonrpc": "1.0", "id": 1, "method": "sum"}`},
		{"missing method", `{"jsonrpc": "2.0", "id": 1}`},
		{"scalar", `42`},
		{"bad id type", `{"jsonrpc": "2.0", "id": {}, "method": "sum"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := dispatchObject(t, d, tt.payload)
			assert.Equal(t, protocol.CodeInvalidRequest, errorCode(t, obj))
			assert.Nil(t, obj["id"])
		})
	}
}

func TestDispatchErrorMasking(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "fail"}`)
	errObj := obj["error"].(map[string]any)
	assert.Equal(t, protocol.CodeServerError, errorCode(t, obj))
	assert.Equal(t, "Server error", errObj["message"])
	assert.NotContains(t, errObj, "data")
}

func TestDispatchTypedErrorPassthrough(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "fail_typed"}`)
	errObj := obj["error"].(map[string]any)
	assert.Equal(t, 100, errorCode(t, obj))
	assert.Equal(t, "custom failure", errObj["message"])
	assert.Equal(t, "details", errObj["data"])
}

func TestDispatchPanicRecovery(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "panics"}`)
	assert.Equal(t, protocol.CodeServerError, errorCode(t, obj))
}

func TestDispatchBatch(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	arr := dispatchArray(t, d, `[
		{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": [1, 2]},
		{"jsonrpc": "2.0", "method": "sum", "params": [3, 4]},
		{"jsonrpc": "2.0", "id": 2, "method": "missing"}
	]`)
	require.Len(t, arr, 2)

	first := arr[0].(map[string]any)
	assert.Equal(t, float64(1), first["id"])
	assert.Equal(t, float64(3), first["result"])

	second := arr[1].(map[string]any)
	assert.Equal(t, float64(2), second["id"])
	assert.Equal(t, protocol.CodeMethodNotFound, errorCode(t, second))
}

func TestDispatchBatchAllNotifications(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	out, err := d.Dispatch(context.Background(), []byte(`[
		{"jsonrpc": "2.0", "method": "sum", "params": [1, 2]},
		{"jsonrpc": "2.0", "method": "sum", "params": [3, 4]}
	]`))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDispatchBatchDuplicateIDs(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `[
		{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": [1, 2]},
		{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": [3, 4]}
	]`)
	assert.Equal(t, protocol.CodeInvalidRequest, errorCode(t, obj))
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := NewDispatcher(testRegistry(t))

	obj := dispatchObject(t, d, `[]`)
	assert.Equal(t, protocol.CodeInvalidRequest, errorCode(t, obj))
}

func TestDispatchMaxBatchSize(t *testing.T) {
	d := NewDispatcher(testRegistry(t), WithMaxBatchSize(2))

	obj := dispatchObject(t, d, `[
		{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": [1, 2]},
		{"jsonrpc": "2.0", "id": 2, "method": "sum", "params": [3, 4]},
		{"jsonrpc": "2.0", "id": 3, "method": "sum", "params": [5, 6]}
	]`)
	assert.Equal(t, protocol.CodeInvalidRequest, errorCode(t, obj))
	assert.Equal(t, "batch too large", obj["error"].(map[string]any)["data"])
}

func TestDispatchConcurrentBatchOrder(t *testing.T) {
	d := NewDispatcher(testRegistry(t), WithExecutor(ConcurrentExecutor{Limit: 4}))

	var payload []string
	for i := 1; i <= 20; i++ {
		payload = append(payload, fmt.Sprintf(`{"jsonrpc": "2.0", "id": %d, "method": "sum", "params": [%d, 0]}`, i, i))
	}
	arr := dispatchArray(t, d, "["+strings.Join(payload, ",")+"]")
	require.Len(t, arr, 20)

	for i, item := range arr {
		obj := item.(map[string]any)
		assert.Equal(t, float64(i+1), obj["id"])
		assert.Equal(t, float64(i+1), obj["result"])
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var trace []string
	mw := func(label string) Middleware {
		return func(ctx context.Context, req *protocol.Request, next Handler) (*protocol.Response, error) {
			trace = append(trace, label+" in")
			resp, err := next(ctx, req)
			trace = append(trace, label+" out")
			return resp, err
		}
	}

	d := NewDispatcher(testRegistry(t), WithMiddleware(mw("first"), mw("second")))
	dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": [1, 2]}`)

	assert.Equal(t, []string{"first in", "second in", "second out", "first out"}, trace)
}

func TestMiddlewareShortCircuit(t *testing.T) {
	deny := func(ctx context.Context, req *protocol.Request, next Handler) (*protocol.Response, error) {
		return nil, protocol.NewError(-32001, "forbidden")
	}

	d := NewDispatcher(testRegistry(t), WithMiddleware(deny))
	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "sum", "params": [1, 2]}`)
	assert.Equal(t, -32001, errorCode(t, obj))
}

func TestErrorHandlerOrder(t *testing.T) {
	var trace []string

	d := NewDispatcher(testRegistry(t),
		OnAnyError(func(ctx context.Context, req *protocol.Request, err *protocol.Error) *protocol.Error {
			trace = append(trace, "any")
			return err
		}),
		OnError(protocol.CodeMethodNotFound, func(ctx context.Context, req *protocol.Request, err *protocol.Error) *protocol.Error {
			trace = append(trace, "code")
			return err
		}),
	)

	dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "missing"}`)
	assert.Equal(t, []string{"any", "code"}, trace)
}

func TestErrorHandlerRewrite(t *testing.T) {
	d := NewDispatcher(testRegistry(t),
		// The any-code handler rewrites the error; the code-specific
		// handler is then selected on the rewritten code.
		OnAnyError(func(ctx context.Context, req *protocol.Request, err *protocol.Error) *protocol.Error {
			if err.Code == protocol.CodeMethodNotFound {
				return protocol.NewError(-32050, "routed elsewhere")
			}
			return err
		}),
		OnError(-32050, func(ctx context.Context, req *protocol.Request, err *protocol.Error) *protocol.Error {
			return err.WithData("handled")
		}),
	)

	obj := dispatchObject(t, d, `{"jsonrpc": "2.0", "id": 1, "method": "missing"}`)
	errObj := obj["error"].(map[string]any)
	assert.Equal(t, -32050, errorCode(t, obj))
	assert.Equal(t, "handled", errObj["data"])
}
