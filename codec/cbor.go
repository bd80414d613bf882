package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBORCodec implements CBOR encoding/decoding. Maps decode as
// map[string]any so the protocol layer sees the same shapes as with JSON.
type CBORCodec struct {
	dec cbor.DecMode
}

// NewCBORCodec creates a CBOR codec.
func NewCBORCodec() *CBORCodec {
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return &CBORCodec{dec: dec}
}

func (c *CBORCodec) Encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (c *CBORCodec) Decode(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

func (c *CBORCodec) Name() string {
	return "cbor"
}
