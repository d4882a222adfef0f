// Package optimistic tracks a server-confirmed value alongside a locally
// applied guess that is later committed or rolled back.
package optimistic

// Token identifies one Apply call.
type Token uint64

// Value is not safe for concurrent use; owners guard it with their own lock.
type Value[T any] struct {
	confirmed T
	pending   *T
	last      Token
}

// New starts from a confirmed value.
func New[T any](confirmed T) Value[T] {
	return Value[T]{confirmed: confirmed}
}

// Get returns the pending guess if any, otherwise the confirmed value.
func (v *Value[T]) Get() T {
	if v.pending != nil {
		return *v.pending
	}
	return v.confirmed
}

// Confirmed returns the last server-confirmed value.
func (v *Value[T]) Confirmed() T {
	return v.confirmed
}

// Pending reports whether an optimistic guess is showing.
func (v *Value[T]) Pending() bool {
	return v.pending != nil
}

// Apply derives a guess from the current value and shows it until Commit or Rollback.
func (v *Value[T]) Apply(fn func(T) T) Token {
	next := fn(v.Get())
	v.pending = &next
	v.last++
	return v.last
}

// Commit records the server's value. The guess is cleared only if tok is the
// latest Apply; a newer guess keeps showing.
func (v *Value[T]) Commit(tok Token, server T) {
	v.confirmed = server
	if tok == v.last {
		v.pending = nil
	}
}

// Rollback discards the guess made by tok, restoring the confirmed value.
func (v *Value[T]) Rollback(tok Token) {
	if tok == v.last {
		v.pending = nil
	}
}

// Confirm replaces the confirmed value while keeping any guess showing.
func (v *Value[T]) Confirm(server T) {
	v.confirmed = server
}

// Set replaces the confirmed value and drops any guess.
func (v *Value[T]) Set(server T) {
	v.confirmed = server
	v.pending = nil
	v.last++
}
