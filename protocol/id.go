package protocol

import (
	"fmt"
	"math"
	"strconv"
)

type idKind uint8

const (
	idAbsent idKind = iota
	idNull
	idString
	idNumber
)

// ID is a JSON-RPC request/response identifier: a string, an integer, an
// explicit null, or absent. The zero ID is absent, which marks a request as
// a notification. ID is comparable and can be used as a map key for
// response correlation.
type ID struct {
	kind idKind
	str  string
	num  int64
}

// StringID returns a string identifier.
func StringID(s string) ID {
	return ID{kind: idString, str: s}
}

// IntID returns an integer identifier.
func IntID(n int64) ID {
	return ID{kind: idNumber, num: n}
}

// NullID returns an explicit null identifier. Servers respond with a null id
// when the originating request id could not be determined.
func NullID() ID {
	return ID{kind: idNull}
}

// IsAbsent reports whether the identifier is missing entirely.
func (id ID) IsAbsent() bool { return id.kind == idAbsent }

// IsNull reports whether the identifier is an explicit null.
func (id ID) IsNull() bool { return id.kind == idNull }

// Interface returns the identifier as a generic JSON value: a string, an
// int64, or nil for both null and absent identifiers.
func (id ID) Interface() any {
	switch id.kind {
	case idString:
		return id.str
	case idNumber:
		return id.num
	default:
		return nil
	}
}

func (id ID) String() string {
	switch id.kind {
	case idAbsent:
		return "<absent>"
	case idNull:
		return "null"
	case idString:
		return strconv.Quote(id.str)
	default:
		return strconv.FormatInt(id.num, 10)
	}
}

// parseID converts a decoded JSON value into an ID. present is false when the
// "id" member was missing from the enclosing object.
func parseID(v any, present bool) (ID, error) {
	if !present {
		return ID{}, nil
	}
	switch n := v.(type) {
	case nil:
		return NullID(), nil
	case string:
		return StringID(n), nil
	case int:
		return IntID(int64(n)), nil
	case int64:
		return IntID(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return ID{}, fmt.Errorf("field 'id' out of range: %w", ErrDeserialization)
		}
		return IntID(int64(n)), nil
	case float64:
		// Generic JSON decoding yields float64 for all numbers; a fractional
		// part means the id was not an integer.
		if math.Trunc(n) != n {
			return ID{}, fmt.Errorf("field 'id' must be an integer or a string: %w", ErrDeserialization)
		}
		return IntID(int64(n)), nil
	default:
		return ID{}, fmt.Errorf("field 'id' must be an integer or a string: %w", ErrDeserialization)
	}
}
