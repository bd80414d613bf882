package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufCodec carries generic JSON values as protobuf Value messages
// (google.protobuf.Value). Concrete proto.Message values pass through
// unchanged.
type ProtobufCodec struct{}

func (c *ProtobufCodec) Encode(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}
	val, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return proto.Marshal(val)
}

func (c *ProtobufCodec) Decode(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, msg)
	}
	out, ok := v.(*any)
	if !ok {
		return fmt.Errorf("decode target must be *any or proto.Message, got %T", v)
	}
	val := &structpb.Value{}
	if err := proto.Unmarshal(data, val); err != nil {
		return err
	}
	*out = val.AsInterface()
	return nil
}

func (c *ProtobufCodec) Name() string {
	return "protobuf"
}
