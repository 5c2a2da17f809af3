// Package offset implements the position-independent offset pointer that
// every zero-copy container in this module is built on top of: instead of
// storing an absolute address, a pointer-like field stores a signed integer
// that, added to the field's own location, yields the pointee's location.
package offset

import "math"

// Ptr is a self-relative offset stored at the pointer field's own address.
// A non-null Ptr p located at buffer position site refers to the address
// site + int64(p).
type Ptr int64

const (
	// NullSentinel marks a pointer as null. It is the most-negative int64,
	// chosen so it can never collide with a legitimate relative offset for
	// any buffer this library can address.
	NullSentinel Ptr = math.MinInt64

	// DanglingSentinel marks an outgoing pointer that has been reserved by
	// the serializer but not yet resolved to a pointee location. It never
	// appears in a valid serialized buffer.
	DanglingSentinel Ptr = NullSentinel + 1
)

// Null returns the null pointer value.
func Null() Ptr { return NullSentinel }

// Dangling returns the sentinel used while a pointee is still being placed.
func Dangling() Ptr { return DanglingSentinel }

// IsNull reports whether p is the null sentinel.
func (p Ptr) IsNull() bool { return p == NullSentinel }

// IsDangling reports whether p is the unresolved-outgoing-reference sentinel.
func (p Ptr) IsDangling() bool { return p == DanglingSentinel }

// Relative computes the offset that, stored at site, targets target.
func Relative(site, target int64) Ptr {
	return Ptr(target - site)
}

// Target resolves p against the address of the field that stores it. The
// caller must have already checked IsNull/IsDangling.
func (p Ptr) Target(site int64) int64 {
	return site + int64(p)
}

// Int64 returns the raw stored value, e.g. for writing into a sink.
func (p Ptr) Int64() int64 { return int64(p) }

// FromInt64 wraps a raw stored value read back from a buffer.
func FromInt64(v int64) Ptr { return Ptr(v) }
