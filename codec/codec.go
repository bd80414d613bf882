// Package codec provides the wire encodings the engine speaks. The protocol
// packages operate on generic JSON values (map[string]any, []any, string,
// number, bool, nil); a Codec turns those trees into bytes and back.
package codec

import (
	"encoding/json"
	"errors"
)

var ErrUnsupportedCodec = errors.New("unsupported codec")

// Codec defines the interface for encoding/decoding RPC messages.
type Codec interface {
	// Encode encodes a value to bytes
	Encode(v any) ([]byte, error)

	// Decode decodes bytes to a value
	Decode(data []byte, v any) error

	// Name returns the codec name
	Name() string
}

// Type identifies a codec.
type Type byte

const (
	TypeJSON     Type = 0x01
	TypeCBOR     Type = 0x02
	TypeProtobuf Type = 0x03
)

// Get returns a codec by type.
func Get(typ Type) (Codec, error) {
	switch typ {
	case TypeJSON:
		return &JSONCodec{}, nil
	case TypeCBOR:
		return NewCBORCodec(), nil
	case TypeProtobuf:
		return &ProtobufCodec{}, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// JSONCodec implements JSON encoding/decoding.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return "json"
}
