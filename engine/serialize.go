// Package engine implements the serialization side of the zero-copy engine
// (spec.md §4.4): a depth-first walk over an arbitrary Go value that places
// every aggregate at a canonically-laid-out position in a sink, resolves
// shared and cyclic pointers through a pending map, and defers newly
// discovered pointees onto a FIFO queue so recursion never outgrows the
// call stack on a deep or cyclic graph. Grounded on the teacher's
// hive/alloc bump-allocation idiom (reserve space, fill it in later) and
// internal/repair/writer.go's field-by-field emission style.
package engine

import (
	"fmt"
	"math"
	"reflect"

	"github.com/offsetgraph/zerocopy/container"
	"github.com/offsetgraph/zerocopy/fingerprint"
	"github.com/offsetgraph/zerocopy/framing"
	"github.com/offsetgraph/zerocopy/internal/buf"
	"github.com/offsetgraph/zerocopy/internal/layout"
	"github.com/offsetgraph/zerocopy/offset"
	"github.com/offsetgraph/zerocopy/sink"
)

const (
	fnvOffsetBasis uint64 = 14695981039346656037
	fnvPrime       uint64 = 1099511628211
)

// Options configures a Serialize call.
type Options struct {
	Mode framing.Mode
}

// Serialize encodes root into a freshly allocated in-memory buffer.
func Serialize(root any, opts Options) ([]byte, error) {
	b := sink.NewBuffer()
	if err := SerializeInto(b, root, opts); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// SerializeInto encodes root into s, which must be empty (offset 0).
func SerializeInto(s sink.Sink, root any, opts Options) error {
	if s.Size() != 0 {
		return fmt.Errorf("engine: SerializeInto requires an empty sink, got size %d", s.Size())
	}
	rv := reflect.ValueOf(root)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("engine: root must be a struct or pointer to struct, got %s", rv.Kind())
	}

	var fp uint64
	if opts.Mode.HasVersion() {
		fp = fingerprint.Of(rv.Interface())
	}
	if _, err := s.Append(framing.Encode(opts.Mode, fp, 0), 8); err != nil {
		return err
	}
	payloadStart := s.Size()

	size, align, err := layout.SizeAlign(rv.Type())
	if err != nil {
		return err
	}
	rootOffset, err := s.Append(make([]byte, size), align)
	if err != nil {
		return err
	}

	g := &graph{sink: s, bigEndian: opts.Mode.BigEndian(), pending: make(map[uintptr]int64)}
	root0 := &writer{g: g, local: s}
	if err := root0.fillStruct(rootOffset, rv); err != nil {
		return err
	}
	if err := g.drain(); err != nil {
		return err
	}

	if opts.Mode.HasIntegrity() {
		checksum := s.Checksum(payloadStart)
		field := make([]byte, 8)
		putU64(field, checksum, opts.Mode.BigEndian())
		if err := s.WriteAt(int64(framing.ChecksumFieldOffset(opts.Mode)), field); err != nil {
			return err
		}
	}
	return nil
}

type queueItem struct {
	offset int64
	value  reflect.Value
}

// graph holds the state shared by every writer created during one
// Serialize call: the real append-only sink every out-of-line region lands
// in permanently, the pointer-identity map that collapses shared pointees
// onto a single placement, and the FIFO queue that converts what would be
// unbounded recursion into an iterative drain.
type graph struct {
	sink      sink.Sink
	bigEndian bool
	pending   map[uintptr]int64
	queue     []queueItem
}

func (g *graph) drain() error {
	debugLog.Debug("drain start", "queued", len(g.queue))
	for len(g.queue) > 0 {
		item := g.queue[0]
		g.queue = g.queue[1:]
		w := &writer{g: g, local: g.sink}
		if err := w.fillStruct(item.offset, item.value); err != nil {
			return err
		}
	}
	debugLog.Debug("drain done", "sink_size", g.sink.Size())
	return nil
}

// ptrPatch records a self-relative pointer field that was written with a
// placeholder because, at the time it was encoded, its site lived inside a
// scratch buffer whose final position in the real sink was not yet known
// (the hash-table entry-building path, see map.go).
type ptrPatch struct {
	localSite int64
	target    int64
}

// writer encodes field values at sites measured against local, which is
// either the graph's real sink (the common case, where a pointer field's
// site and target already share one coordinate space) or a throwaway
// scratch buffer (while building a hash-map entry whose final placement is
// still unknown). patches is non-nil only in the scratch case; see
// writePtrField.
type writer struct {
	g       *graph
	local   sink.Sink
	patches *[]ptrPatch
}

func (w *writer) bigEndian() bool { return w.g.bigEndian }

// writePtrField writes the 8-byte self-relative pointer that begins every
// container meta record (SmallString, Vector, Box, HashMap) or a plain Go
// pointer field. When hasTarget is false it writes the null sentinel
// directly; there is never anything to patch for a null pointer. Otherwise,
// if this writer's local buffer is the real sink, site and target already
// share a coordinate space and the relative offset is computed and written
// immediately. If local is a scratch buffer, the final value can't be
// computed yet, so the fixup is queued in patches and applied once the
// scratch buffer's bytes are copied into the real sink at a known offset
// (see (*graph).applyPatches).
func (w *writer) writePtrField(site int64, hasTarget bool, target int64) error {
	if !hasTarget {
		return w.local.WriteAt(site, ptrBytes(offset.Null(), w.bigEndian()))
	}
	if w.local == w.g.sink {
		rel := offset.Relative(site, target)
		return w.local.WriteAt(site, ptrBytes(rel, w.bigEndian()))
	}
	*w.patches = append(*w.patches, ptrPatch{localSite: site, target: target})
	return nil
}

func ptrBytes(p offset.Ptr, bigEndian bool) []byte {
	b := make([]byte, 8)
	container.PutPtr(b, p, bigEndian)
	return b
}

// applyPatches resolves a scratch buffer's deferred pointer fields now that
// it has been copied into the real sink starting at blobOffset, and
// entryOffset further locates the particular entry within that blob.
func (g *graph) applyPatches(patches []ptrPatch, blobOffset, entryOffset int64) error {
	for _, p := range patches {
		site := blobOffset + entryOffset + p.localSite
		rel := offset.Relative(site, p.target)
		if err := g.sink.WriteAt(site, ptrBytes(rel, g.bigEndian)); err != nil {
			return err
		}
	}
	return nil
}

// fillStruct fills the already-reserved [site, site+sizeof(v.Type())) region
// field by field.
func (w *writer) fillStruct(site int64, v reflect.Value) error {
	fields, err := layout.Fields(v.Type())
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := w.encodeField(site+int64(f.Offset), f.Type, v.Field(f.Index)); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}

func (w *writer) encodeField(site int64, t reflect.Type, v reflect.Value) error {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Float32,
		reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint, reflect.Float64:
		return w.writeScalar(site, t.Kind(), v)
	case reflect.String:
		return w.encodeString(site, v.String())
	case reflect.Slice:
		return w.encodeSlice(site, v)
	case reflect.Map:
		return w.encodeMap(site, v)
	case reflect.Ptr:
		return w.encodePointer(site, t, v)
	case reflect.Array:
		elemType := t.Elem()
		elemSize, _, err := layout.SizeAlign(elemType)
		if err != nil {
			return err
		}
		for i := 0; i < t.Len(); i++ {
			if err := w.encodeField(site+int64(i*elemSize), elemType, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		return w.fillStruct(site, v)
	default:
		return fmt.Errorf("engine: unsupported field kind %s", t.Kind())
	}
}

func (w *writer) writeScalar(site int64, kind reflect.Kind, v reflect.Value) error {
	var b []byte
	bigEndian := w.bigEndian()
	switch kind {
	case reflect.Bool:
		b = []byte{0}
		if v.Bool() {
			b[0] = 1
		}
	case reflect.Int8:
		b = []byte{byte(v.Int())}
	case reflect.Uint8:
		b = []byte{byte(v.Uint())}
	case reflect.Int16:
		b = make([]byte, 2)
		putU16(b, uint16(v.Int()), bigEndian)
	case reflect.Uint16:
		b = make([]byte, 2)
		putU16(b, uint16(v.Uint()), bigEndian)
	case reflect.Int32:
		b = make([]byte, 4)
		putU32(b, uint32(v.Int()), bigEndian)
	case reflect.Uint32:
		b = make([]byte, 4)
		putU32(b, uint32(v.Uint()), bigEndian)
	case reflect.Float32:
		b = make([]byte, 4)
		putU32(b, math.Float32bits(float32(v.Float())), bigEndian)
	case reflect.Int64, reflect.Int:
		b = make([]byte, 8)
		putU64(b, uint64(v.Int()), bigEndian)
	case reflect.Uint64, reflect.Uint:
		b = make([]byte, 8)
		putU64(b, v.Uint(), bigEndian)
	case reflect.Float64:
		b = make([]byte, 8)
		putU64(b, math.Float64bits(v.Float()), bigEndian)
	default:
		return fmt.Errorf("engine: writeScalar: unsupported kind %s", kind)
	}
	return w.local.WriteAt(site, b)
}

func (w *writer) encodeString(site int64, s string) error {
	ss := container.NewSmallString(s)
	rec := ss.Encode(offset.Null(), w.bigEndian())
	if err := w.local.WriteAt(site, rec); err != nil {
		return err
	}
	if ss.IsInline() {
		return nil
	}
	payloadOffset, err := w.g.sink.Append(ss.HeapBytes(), 1)
	if err != nil {
		return err
	}
	return w.writePtrField(site, true, payloadOffset)
}

func (w *writer) encodeSlice(site int64, v reflect.Value) error {
	length := v.Len()
	elemType := v.Type().Elem()
	elemSize, elemAlign, err := layout.SizeAlign(elemType)
	if err != nil {
		return err
	}
	if err := w.local.WriteAt(site, vectorMeta(uint64(length), uint64(length), w.bigEndian())); err != nil {
		return err
	}
	if length == 0 {
		return w.writePtrField(site, false, 0)
	}
	payloadOffset, err := w.g.sink.Append(make([]byte, elemSize*length), elemAlign)
	if err != nil {
		return err
	}
	if err := w.writePtrField(site, true, payloadOffset); err != nil {
		return err
	}
	payload := &writer{g: w.g, local: w.g.sink}
	for i := 0; i < length; i++ {
		if err := payload.encodeField(payloadOffset+int64(i*elemSize), elemType, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) encodePointer(site int64, t reflect.Type, v reflect.Value) error {
	if v.IsNil() {
		return w.writePtrField(site, false, 0)
	}
	identity := v.Pointer()
	if existing, ok := w.g.pending[identity]; ok {
		return w.writePtrField(site, true, existing)
	}
	elemType := t.Elem()
	size, align, err := layout.SizeAlign(elemType)
	if err != nil {
		return err
	}
	newOffset, err := w.g.sink.Append(make([]byte, size), align)
	if err != nil {
		return err
	}
	w.g.pending[identity] = newOffset
	w.g.queue = append(w.g.queue, queueItem{offset: newOffset, value: v.Elem()})
	return w.writePtrField(site, true, newOffset)
}

// vectorMeta leaves the self-allocated byte (out[24]) cleared: spec.md
// §4.4 requires every emitted container to report borrowed, not owning,
// storage.
func vectorMeta(used, allocated uint64, bigEndian bool) []byte {
	out := make([]byte, container.VectorMetaSize)
	container.PutU64(out[8:16], used, bigEndian)
	container.PutU64(out[16:24], allocated, bigEndian)
	return out
}

func putU16(b []byte, v uint16, bigEndian bool) {
	if bigEndian {
		buf.PutU16BE(b, v)
	} else {
		buf.PutU16LE(b, v)
	}
}

func putU32(b []byte, v uint32, bigEndian bool) {
	if bigEndian {
		buf.PutU32BE(b, v)
	} else {
		buf.PutU32LE(b, v)
	}
}

func putU64(b []byte, v uint64, bigEndian bool) {
	if bigEndian {
		buf.PutU64BE(b, v)
	} else {
		buf.PutU64LE(b, v)
	}
}
