package client

import (
	"math/rand"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/searchktools/jsonrpc/protocol"
)

// Generator produces request identifiers. Generators handed to a client
// must be safe for concurrent use; the built-in ones are.
type Generator func() protocol.ID

// SequentialIDs returns consecutive integer ids starting from start.
func SequentialIDs(start int64) Generator {
	next := atomic.Int64{}
	next.Store(start - 1)
	return func() protocol.ID {
		return protocol.IntID(next.Add(1))
	}
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomIDs returns random string ids of the given length.
func RandomIDs(length int) Generator {
	return func() protocol.ID {
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = idAlphabet[rand.Intn(len(idAlphabet))]
		}
		return protocol.StringID(string(buf))
	}
}

// UUIDs returns random UUID string ids.
func UUIDs() Generator {
	return func() protocol.ID {
		return protocol.StringID(uuid.NewString())
	}
}
