package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRoundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{"int id, positional", NewRequest(IntID(1), "sum", PositionalParams(float64(1), float64(2)))},
		{"string id, named", NewRequest(StringID("a"), "sum", NamedParams(map[string]any{"a": float64(1)}))},
		{"notification, no params", NewNotification("ping", Params{})},
		{"int id, no params", NewRequest(IntID(2), "ping", Params{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := RequestFromJSON(jsonRoundTrip(t, tt.req.ToJSON()))
			require.NoError(t, err)
			assert.Equal(t, tt.req, decoded)
		})
	}
}

func TestRequestToJSONOmitsAbsentMembers(t *testing.T) {
	obj := NewNotification("ping", Params{}).ToJSON().(map[string]any)

	assert.Equal(t, "2.0", obj["jsonrpc"])
	assert.Equal(t, "ping", obj["method"])
	assert.NotContains(t, obj, "id")
	assert.NotContains(t, obj, "params")
}

func TestRequestFromJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
	}{
		{"not an object", "nope"},
		{"missing jsonrpc", map[string]any{"method": "m"}},
		{"wrong version", map[string]any{"jsonrpc": "1.0", "method": "m"}},
		{"missing method", map[string]any{"jsonrpc": "2.0"}},
		{"method not a string", map[string]any{"jsonrpc": "2.0", "method": 1.0}},
		{"params not a structure", map[string]any{"jsonrpc": "2.0", "method": "m", "params": "x"}},
		{"fractional id", map[string]any{"jsonrpc": "2.0", "method": "m", "id": 1.5}},
		{"bool id", map[string]any{"jsonrpc": "2.0", "method": "m", "id": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequestFromJSON(tt.data)
			assert.ErrorIs(t, err, ErrDeserialization)
		})
	}
}

func TestRequestNullIDIsNotification(t *testing.T) {
	req, err := RequestFromJSON(map[string]any{"jsonrpc": "2.0", "method": "m", "id": nil})
	require.NoError(t, err)
	assert.True(t, req.IsNotification())
	assert.True(t, req.ID.IsAbsent())
}

func TestBatchRequestUniqueIDs(t *testing.T) {
	_, err := NewBatchRequest(
		NewRequest(IntID(1), "a", Params{}),
		NewRequest(IntID(1), "b", Params{}),
	)
	assert.ErrorIs(t, err, ErrIdentity)

	// Notifications do not take part in the uniqueness check.
	batch, err := NewBatchRequest(
		NewRequest(IntID(1), "a", Params{}),
		NewNotification("b", Params{}),
		NewNotification("c", Params{}),
	)
	require.NoError(t, err)
	assert.False(t, batch.IsNotification())
}

func TestBatchRequestFromJSON(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		_, err := BatchRequestFromJSON([]any{})
		assert.ErrorIs(t, err, ErrDeserialization)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := BatchRequestFromJSON([]any{
			map[string]any{"jsonrpc": "2.0", "method": "a", "id": 1.0},
			map[string]any{"jsonrpc": "2.0", "method": "b", "id": 1.0},
		})
		assert.ErrorIs(t, err, ErrIdentity)
	})

	t.Run("round trip", func(t *testing.T) {
		batch, err := NewBatchRequest(
			NewRequest(IntID(1), "a", PositionalParams(float64(1))),
			NewNotification("b", Params{}),
		)
		require.NoError(t, err)

		decoded, err := BatchRequestFromJSON(jsonRoundTrip(t, batch.ToJSON()).([]any))
		require.NoError(t, err)
		assert.Equal(t, batch, decoded)
	})
}

func TestParamsShapes(t *testing.T) {
	p := PositionalParams(1, 2)
	assert.True(t, p.IsPositional())
	assert.False(t, p.IsNamed())
	assert.Equal(t, []any{1, 2}, p.List())

	n := NamedParams(map[string]any{"a": 1})
	assert.True(t, n.IsNamed())
	assert.Equal(t, map[string]any{"a": 1}, n.Map())

	var absent Params
	assert.True(t, absent.IsAbsent())
	assert.Nil(t, absent.Interface())
}

func TestIDComparable(t *testing.T) {
	m := map[ID]string{
		IntID(1):      "one",
		StringID("1"): "str",
	}
	assert.Equal(t, "one", m[IntID(1)])
	assert.Equal(t, "str", m[StringID("1")])
}
