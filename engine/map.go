package engine

import (
	"fmt"
	"reflect"

	"github.com/offsetgraph/zerocopy/container"
	"github.com/offsetgraph/zerocopy/internal/layout"
	"github.com/offsetgraph/zerocopy/sink"
)

// encodeMap builds a swiss-style hash table from a Go map field. The final
// slot count is known up front (len(v)), so the table is sized once with
// container.NewHashMapSized and never grows mid-build: growth would
// relocate entries already holding resolved self-relative pointers into
// out-of-line payloads appended for earlier keys/values.
//
// Each key/value pair is first encoded into a throwaway scratch buffer
// rather than directly into the table's eventual entries region, because
// that region's own position in the real sink isn't known until every
// entry has been placed and the whole entries+control blob is appended in
// one shot. Any self-relative pointer discovered while encoding a key or
// value (a heap string, a slice payload, a nested map, a plain Go pointer)
// is recorded as a patch and resolved against the blob's real offset once
// that offset exists.
func (w *writer) encodeMap(site int64, v reflect.Value) error {
	keyType := v.Type().Key()
	valType := v.Type().Elem()
	keySize, _, err := layout.SizeAlign(keyType)
	if err != nil {
		return err
	}
	valSize, _, err := layout.SizeAlign(valType)
	if err != nil {
		return err
	}

	if err := w.local.WriteAt(site, hashMapMeta(0, 0, w.bigEndian())); err != nil {
		return err
	}
	n := v.Len()
	if n == 0 {
		return w.writePtrField(site, false, 0)
	}

	hm := container.NewHashMapSized(keySize, valSize, n)
	type builtEntry struct {
		entryOffset int
		patches     []ptrPatch
	}
	var built []builtEntry

	iter := v.MapRange()
	for iter.Next() {
		key, val := iter.Key(), iter.Value()

		scratch := sink.NewBuffer()
		var patches []ptrPatch
		entryWriter := &writer{g: w.g, local: scratch, patches: &patches}
		if _, err := scratch.Append(make([]byte, keySize+valSize), 1); err != nil {
			return err
		}
		if err := entryWriter.encodeField(0, keyType, key); err != nil {
			return err
		}
		if err := entryWriter.encodeField(int64(keySize), valType, val); err != nil {
			return err
		}
		entryBytes := scratch.Bytes()
		if len(entryBytes) != keySize+valSize {
			return fmt.Errorf("engine: map entry scratch buffer grew beyond its fixed region")
		}

		hash := contentHash(key)
		entryOffset, err := hm.InsertUnique(hash, entryBytes[:keySize], entryBytes[keySize:])
		if err != nil {
			return err
		}
		built = append(built, builtEntry{entryOffset: entryOffset, patches: patches})
	}

	blob := hm.EntriesAndControl()
	blobOffset, err := w.g.sink.Append(blob, container.MetaAlign)
	if err != nil {
		return err
	}
	debugLog.Debug("map blob placed", "entries", n, "capacity", hm.Capacity(), "offset", blobOffset)
	for _, e := range built {
		if err := w.g.applyPatches(e.patches, blobOffset, int64(e.entryOffset)); err != nil {
			return err
		}
	}

	if err := w.local.WriteAt(site, hashMapMeta(uint64(hm.Capacity()), uint64(hm.Len()), w.bigEndian())); err != nil {
		return err
	}
	return w.writePtrField(site, true, blobOffset)
}

// hashMapMeta leaves the self-allocated byte (out[24]) cleared: spec.md
// §4.4 requires every emitted container to report borrowed, not owning,
// storage.
func hashMapMeta(capacity, count uint64, bigEndian bool) []byte {
	out := make([]byte, container.HashMapMetaSize)
	container.PutU64(out[8:16], capacity, bigEndian)
	container.PutU64(out[16:24], count, bigEndian)
	return out
}
