package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToJSONOmitsAbsentData(t *testing.T) {
	obj := NewError(CodeInternalError, "Internal error").ToJSON().(map[string]any)
	assert.NotContains(t, obj, "data")

	obj = NewError(CodeInternalError, "Internal error").WithData(nil).ToJSON().(map[string]any)
	assert.Contains(t, obj, "data")
	assert.Nil(t, obj["data"])
}

func TestErrorFromJSON(t *testing.T) {
	e, err := ErrorFromJSON(map[string]any{"code": -32601.0, "message": "Method not found", "data": "sum"})
	require.NoError(t, err)
	assert.Equal(t, CodeMethodNotFound, e.Code)
	assert.Equal(t, "Method not found", e.Message)
	data, ok := e.Data.Get()
	require.True(t, ok)
	assert.Equal(t, "sum", data)

	assert.ErrorIs(t, e, ErrMethodNotFound)
}

func TestErrorFromJSONFailures(t *testing.T) {
	tests := []struct {
		name string
		data any
	}{
		{"not an object", []any{}},
		{"missing code", map[string]any{"message": "m"}},
		{"missing message", map[string]any{"code": -32000.0}},
		{"code not an integer", map[string]any{"code": "x", "message": "m"}},
		{"message not a string", map[string]any{"code": -32000.0, "message": 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ErrorFromJSON(tt.data)
			assert.ErrorIs(t, err, ErrDeserialization)
		})
	}
}

func TestRegisteredErrorRehydration(t *testing.T) {
	proto := RegisterError(NewError(1001, "order not found"))

	// A known code with an empty message rehydrates the canonical message.
	e, err := ErrorFromJSON(map[string]any{"code": 1001.0, "message": ""})
	require.NoError(t, err)
	assert.Equal(t, "order not found", e.Message)
	assert.ErrorIs(t, e, proto)

	// Unknown codes deserialize to a generic error.
	e, err = ErrorFromJSON(map[string]any{"code": 4242.0, "message": "mystery"})
	require.NoError(t, err)
	assert.Equal(t, 4242, e.Code)
	assert.Equal(t, "mystery", e.Message)
	assert.Nil(t, RegisteredError(4242))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	var target *Error
	err := error(ErrInvalidParams.WithData("missing 'a'"))

	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.NotErrorIs(t, err, ErrInternal)
	require.True(t, errors.As(err, &target))
	assert.Equal(t, CodeInvalidParams, target.Code)
}
