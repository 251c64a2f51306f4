// Package secret provides a small generic wrapper for sensitive values
// (master keys, derived keys, passphrases) that zeroes its backing
// storage on destruction and never renders its contents through fmt's
// %v, %s, %q, %x, %X or %#v verbs.
package secret

import (
	"errors"
	"fmt"
	"runtime"
)

// errDestroyed is panicked by Expose when called after Destroy. It has
// no bearing on this module's error taxonomy: calling Expose on a
// destroyed Secret is a caller bug, not a failure condition a caller
// is expected to handle via errors.Is.
var errDestroyed = errors.New("secret: exposed after destroy")

// Zeroable is implemented by the concrete secret payloads this package
// knows how to wipe. []byte and fixed-size byte arrays passed by
// pointer both satisfy it via the wrappers below.
type Zeroable interface {
	zero()
}

// Bytes is a Zeroable backed by a slice; Destroy overwrites every byte.
type Bytes []byte

func (b Bytes) zero() {
	for i := range b {
		b[i] = 0
	}
}

// Array32 is a Zeroable backed by a fixed 32-byte array, the shape of a
// derived or master key.
type Array32 [32]byte

func (a *Array32) zero() {
	for i := range a {
		a[i] = 0
	}
}

// Secret holds a value of type T that must not be copied around or
// logged carelessly. T is constrained to the Zeroable payload shapes
// this package can actually wipe.
type Secret[T Zeroable] struct {
	value     T
	destroyed bool
}

// New wraps v in a Secret. The caller gives up ownership of the
// backing storage of v; it must not be used, mutated, or re-wrapped
// elsewhere.
func New[T Zeroable](v T) *Secret[T] {
	return &Secret[T]{value: v}
}

// Expose returns the wrapped value for use by a caller that needs the
// raw bytes (e.g. to hand them to an AEAD constructor). It panics if
// called after Destroy, since there is no meaningful zero value to
// return for an arbitrary T without risking a caller mistaking it for
// real key material.
func (s *Secret[T]) Expose() T {
	if s.destroyed {
		panic(errDestroyed)
	}
	return s.value
}

// Destroy zeroes the wrapped value's backing storage. It is safe to
// call more than once. runtime.KeepAlive pins the value through the
// wipe so the compiler cannot prove the writes are dead and elide
// them.
func (s *Secret[T]) Destroy() {
	if s.destroyed {
		return
	}
	s.value.zero()
	s.destroyed = true
	runtime.KeepAlive(s.value)
}

// Destroyed reports whether Destroy has already run.
func (s *Secret[T]) Destroyed() bool {
	return s.destroyed
}

// String never renders the wrapped value.
func (s *Secret[T]) String() string {
	return "[REDACTED]"
}

// GoString never renders the wrapped value; it governs %#v formatting.
func (s *Secret[T]) GoString() string {
	return "[REDACTED]"
}

var _ fmt.Stringer = (*Secret[Bytes])(nil)

// Clone returns a new Secret holding an independent copy of the
// exposed value's bytes in a freshly allocated slice.
func Clone(s *Secret[Bytes]) *Secret[Bytes] {
	v := s.Expose()
	cp := make(Bytes, len(v))
	copy(cp, v)
	return New(cp)
}

// CloneArray32 is Clone's counterpart for fixed 32-byte secrets.
func CloneArray32(s *Secret[*Array32]) *Secret[*Array32] {
	v := s.Expose()
	cp := new(Array32)
	*cp = *v
	return New(cp)
}

var _ Zeroable = (*Array32)(nil)
