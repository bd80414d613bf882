package protocol

// Maybe distinguishes an absent value from a present one, including a present
// null. JSON-RPC members such as "params", "data" and "result" are omitted
// from the wire entirely when absent; a present nil is encoded as null.
type Maybe[T any] struct {
	value T
	set   bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, set: true}
}

// None returns an absent value. The zero Maybe is also absent.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// IsSet reports whether the value is present.
func (m Maybe[T]) IsSet() bool {
	return m.set
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.set
}

// Value returns the value, or the zero value when absent.
func (m Maybe[T]) Value() T {
	return m.value
}
