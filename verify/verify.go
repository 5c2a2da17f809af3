// Package verify implements the deserialization-time validation pass
// (spec.md §4.5): before any pointer in a buffer is trusted, every offset,
// length, and alignment reachable from the root is checked against the
// buffer's bounds, and every hash table's live control bytes are counted
// and compared against its declared entry count. Grounded directly on the teacher's hive/verify.go and
// internal/repair/validator.go two-phase discipline: parse and check the
// fixed header first, then walk the structural graph validating each
// pointer before it is ever followed for real.
package verify

import (
	"fmt"
	"reflect"

	"github.com/offsetgraph/zerocopy/container"
	"github.com/offsetgraph/zerocopy/fingerprint"
	"github.com/offsetgraph/zerocopy/framing"
	"github.com/offsetgraph/zerocopy/internal/buf"
	"github.com/offsetgraph/zerocopy/internal/layout"
	"github.com/offsetgraph/zerocopy/zcerr"
)

// Root is the validated entry point into a deserialized buffer: the byte
// offset at which the root object's fixed-size record begins, and the
// framing header that preceded it.
type Root struct {
	Header framing.Header
	Offset int64
}

// Deserialize validates data against mode and the (reflect-derived) layout
// of T before returning a Root describing where T's image begins. It does
// not build a Go value; callers pass the Root's Offset to engine.Deserialize
// or to the container package's Borrow* views for a true zero-copy read.
//
// If mode includes ModeUnchecked, the fingerprint and checksum are not
// compared and the structural walk below is entirely skipped; only the
// framing header is parsed and the root record's alignment and bounds are
// checked, matching spec.md §6.2's
// "trust the buffer" fast path for data already known to be well-formed.
func Deserialize[T any](data []byte, mode framing.Mode) (Root, error) {
	var zero T
	t := reflect.TypeOf(zero)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	header, err := framing.Decode(data, mode)
	if err != nil {
		return Root{}, err
	}
	if mode.HasVersion() && !mode.Unchecked() {
		want := fingerprint.OfType(t)
		if fingerprint.Mismatch(want, header.Fingerprint) {
			return Root{}, fmt.Errorf("%w: want %x, got %x", zcerr.ErrFramingBadVersion, want, header.Fingerprint)
		}
	}
	rootOffset := int64(framing.HeaderSize(mode))
	size, align, err := layout.SizeAlign(t)
	if err != nil {
		return Root{}, err
	}
	if rootOffset%int64(align) != 0 {
		return Root{}, fmt.Errorf("%w: root offset %d is not %d-byte aligned", zcerr.ErrBadAlignment, rootOffset, align)
	}
	if rootOffset+int64(size) > int64(len(data)) {
		return Root{}, fmt.Errorf("%w: root object [%d,%d) exceeds buffer length %d", zcerr.ErrOffsetOutOfBounds, rootOffset, rootOffset+int64(size), len(data))
	}

	if mode.HasIntegrity() && !mode.Unchecked() {
		payloadStart := int64(framing.HeaderSize(mode))
		want := header.Checksum
		got := fnv1a64(data[payloadStart:])
		if want != got {
			return Root{}, fmt.Errorf("%w: want %x, got %x", zcerr.ErrFramingBadChecksum, want, got)
		}
	}

	if !mode.Unchecked() {
		v := &validator{data: data, bigEndian: mode.BigEndian(), deepCheck: mode.DeepCheck(), visited: make(map[visitKey]bool)}
		if err := v.checkStruct(rootOffset, t); err != nil {
			return Root{}, err
		}
	}

	return Root{Header: header, Offset: rootOffset}, nil
}

func fnv1a64(b []byte) uint64 {
	const (
		offsetBasis uint64 = 14695981039346656037
		prime       uint64 = 1099511628211
	)
	h := offsetBasis
	for _, c := range b {
		h ^= uint64(c)
		h *= prime
	}
	return h
}

// visitKey is the cycle/sharing-safety key the teacher's hive/walker bitmap
// tracks by cell index: here, a (type, offset) pair, since two different
// struct types can validly alias the same byte range only if one is a
// prefix of the other, which this module never produces.
type visitKey struct {
	offset int64
	typ    reflect.Type
}

type validator struct {
	data      []byte
	bigEndian bool
	deepCheck bool
	visited   map[visitKey]bool
}

func (v *validator) inBounds(off int64, n int) error {
	if !buf.Has(v.data, int(off), n) {
		return fmt.Errorf("%w: [%d,%d) exceeds buffer length %d", zcerr.ErrOffsetOutOfBounds, off, off+int64(n), len(v.data))
	}
	return nil
}

func (v *validator) checkAligned(off int64, align int) error {
	if off%int64(align) != 0 {
		return fmt.Errorf("%w: offset %d is not %d-byte aligned", zcerr.ErrBadAlignment, off, align)
	}
	return nil
}

func (v *validator) checkStruct(site int64, t reflect.Type) error {
	key := visitKey{offset: site, typ: t}
	if v.visited[key] {
		if !v.deepCheck {
			return nil
		}
	}
	v.visited[key] = true

	fields, err := layout.Fields(t)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := v.checkField(site+int64(f.Offset), f.Type); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}

func (v *validator) checkField(site int64, t reflect.Type) error {
	size, align, err := layout.SizeAlign(t)
	if err != nil {
		return err
	}
	if err := v.inBounds(site, size); err != nil {
		return err
	}
	if err := v.checkAligned(site, align); err != nil {
		return err
	}
	switch t.Kind() {
	case reflect.String:
		return v.checkString(site)
	case reflect.Slice:
		return v.checkSlice(site, t)
	case reflect.Map:
		return v.checkMap(site, t)
	case reflect.Ptr:
		return v.checkPointer(site, t)
	case reflect.Array:
		elemSize, _, err := layout.SizeAlign(t.Elem())
		if err != nil {
			return err
		}
		for i := 0; i < t.Len(); i++ {
			if err := v.checkField(site+int64(i*elemSize), t.Elem()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		return v.checkStruct(site, t)
	default:
		return nil
	}
}

func (v *validator) checkString(site int64) error {
	rec := v.data[site : site+container.SmallStringSize]
	_, dataPtr, heapLen, isHeap, err := container.DecodeSmallString(rec, v.bigEndian)
	if err != nil {
		return err
	}
	if !isHeap {
		return nil
	}
	target := dataPtr.Target(site)
	return v.inBounds(target, int(heapLen))
}

func (v *validator) checkSlice(site int64, t reflect.Type) error {
	rec := v.data[site : site+container.VectorMetaSize]
	dataPtr, used, allocated, selfAllocated := container.DecodeVectorMeta(rec, v.bigEndian)
	if used > allocated {
		return fmt.Errorf("%w: used %d exceeds allocated %d", zcerr.ErrOversizedContainer, used, allocated)
	}
	if selfAllocated {
		return fmt.Errorf("%w: serialized vector must not claim self-allocated storage", zcerr.ErrOwnershipViolation)
	}
	if used == 0 {
		return nil
	}
	elemType := t.Elem()
	elemSize, elemAlign, err := layout.SizeAlign(elemType)
	if err != nil {
		return err
	}
	target := dataPtr.Target(site)
	if err := v.checkAligned(target, elemAlign); err != nil {
		return err
	}
	if err := v.inBounds(target, int(used)*elemSize); err != nil {
		return fmt.Errorf("%w: vector payload: %w", zcerr.ErrOversizedContainer, err)
	}
	for i := 0; i < int(used); i++ {
		if err := v.checkField(target+int64(i*elemSize), elemType); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) checkMap(site int64, t reflect.Type) error {
	rec := v.data[site : site+container.HashMapMetaSize]
	dataPtr, capacity, count, selfAllocated := container.DecodeHashMapMeta(rec, v.bigEndian)
	if count > capacity {
		return fmt.Errorf("%w: count %d exceeds capacity %d", zcerr.ErrHashTableInvariantViolated, count, capacity)
	}
	if capacity == 0 {
		return nil
	}
	if selfAllocated {
		return fmt.Errorf("%w: serialized hash table must not claim self-allocated storage", zcerr.ErrOwnershipViolation)
	}
	keyType, valType := t.Key(), t.Elem()
	keySize, _, err := layout.SizeAlign(keyType)
	if err != nil {
		return err
	}
	valSize, _, err := layout.SizeAlign(valType)
	if err != nil {
		return err
	}
	stride := keySize + valSize
	base := dataPtr.Target(site)
	regionLen := int(capacity)*stride + int(capacity)
	if err := v.inBounds(base, regionLen); err != nil {
		return fmt.Errorf("%w: hash table region", err)
	}
	control := v.data[base+int64(capacity)*int64(stride) : base+int64(regionLen)]
	live := 0
	for i := 0; i < int(capacity); i++ {
		if control[i]&0x80 != 0 {
			continue
		}
		live++
		entrySite := base + int64(i*stride)
		if err := v.checkField(entrySite, keyType); err != nil {
			return err
		}
		if err := v.checkField(entrySite+int64(keySize), valType); err != nil {
			return err
		}
	}
	if live != int(count) {
		return fmt.Errorf("%w: control bytes show %d live slots, meta declares %d", zcerr.ErrHashTableInvariantViolated, live, count)
	}
	return nil
}

func (v *validator) checkPointer(site int64, t reflect.Type) error {
	p := container.GetPtr(v.data[site:site+8], v.bigEndian)
	if p.IsNull() {
		return nil
	}
	if p.IsDangling() {
		return fmt.Errorf("%w: pointer at %d is still the unresolved sentinel", zcerr.ErrOffsetOutOfBounds, site)
	}
	target := p.Target(site)
	elemType := t.Elem()
	size, align, err := layout.SizeAlign(elemType)
	if err != nil {
		return err
	}
	if err := v.inBounds(target, size); err != nil {
		return err
	}
	if err := v.checkAligned(target, align); err != nil {
		return err
	}
	return v.checkField(target, elemType)
}
