// Package zcerr defines the sentinel error kinds surfaced by the
// serialization engine and deserialization verifier. Callers compare
// against these with errors.Is; wrapped errors carry the offending offset
// or field path via fmt.Errorf("%w: ...", ...).
package zcerr

import "errors"

var (
	// ErrFramingTooShort means the buffer is smaller than the framing
	// header its mode requires. A buffer too short for the root object
	// itself is reported as ErrOffsetOutOfBounds.
	ErrFramingTooShort = errors.New("zcerr: framing too short")

	// ErrFramingBadVersion means the buffer's type fingerprint does not
	// match the root type being deserialized.
	ErrFramingBadVersion = errors.New("zcerr: framing version mismatch")

	// ErrFramingBadChecksum means the integrity checksum over the payload
	// region does not match the stored value.
	ErrFramingBadChecksum = errors.New("zcerr: framing checksum mismatch")

	// ErrOffsetOutOfBounds means a pointer-like field's resolved address
	// does not lie within the buffer.
	ErrOffsetOutOfBounds = errors.New("zcerr: offset out of bounds")

	// ErrBadAlignment means a pointer-like field's resolved address is not
	// aligned for its declared pointee type.
	ErrBadAlignment = errors.New("zcerr: misaligned pointer target")

	// ErrOwnershipViolation means a container read from a buffer claims to
	// own its backing storage.
	ErrOwnershipViolation = errors.New("zcerr: borrowed container claims ownership")

	// ErrOversizedContainer means a container's declared length times its
	// element size would read past the end of the buffer, or that its used
	// count exceeds its allocated capacity.
	ErrOversizedContainer = errors.New("zcerr: container length exceeds buffer")

	// ErrHashTableInvariantViolated means a hash table's control bytes are
	// inconsistent with its declared capacity or entry count.
	ErrHashTableInvariantViolated = errors.New("zcerr: hash table invariant violated")

	// ErrIOFailure wraps a failure from the underlying sink or source.
	ErrIOFailure = errors.New("zcerr: i/o failure")

	// ErrOutOfMemory means an allocation failed on a mutation path.
	ErrOutOfMemory = errors.New("zcerr: out of memory")
)
