package engine

import (
	"fmt"
	"math"
	"reflect"

	"github.com/offsetgraph/zerocopy/container"
	"github.com/offsetgraph/zerocopy/framing"
	"github.com/offsetgraph/zerocopy/internal/buf"
	"github.com/offsetgraph/zerocopy/internal/layout"
	"github.com/offsetgraph/zerocopy/verify"
)

// Deserialize runs verify.Deserialize on data and, if that succeeds,
// reconstructs a Go value of type T from it. This is the convenience decode path used by tests and the
// example programs; the zero-copy read path is the container package's
// Borrow* views returned directly from the validated buffer, which never
// copy out the payload the way Deserialize does.
func Deserialize[T any](data []byte, mode framing.Mode) (T, error) {
	var zero T
	root, err := verify.Deserialize[T](data, mode)
	if err != nil {
		return zero, err
	}
	t := reflect.TypeOf(zero)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	d := &decoder{data: data, bigEndian: mode.BigEndian(), seen: make(map[int64]reflect.Value)}
	rv, err := d.decodeStruct(root.Offset, t)
	if err != nil {
		return zero, err
	}
	out, ok := rv.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("engine: decoded value is not of the requested type")
	}
	return out, nil
}

type decoder struct {
	data      []byte
	bigEndian bool
	seen      map[int64]reflect.Value // pointee offset -> already-built value, for shared/cyclic pointers
}

func (d *decoder) decodeStruct(site int64, t reflect.Type) (reflect.Value, error) {
	fields, err := layout.Fields(t)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(t).Elem()
	for _, f := range fields {
		fv, err := d.decodeField(site+int64(f.Offset), f.Type)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out.Field(f.Index).Set(fv)
	}
	return out, nil
}

func (d *decoder) decodeField(site int64, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Float32,
		reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint, reflect.Float64:
		return d.decodeScalar(site, t)
	case reflect.String:
		return d.decodeString(site)
	case reflect.Slice:
		return d.decodeSlice(site, t)
	case reflect.Map:
		return d.decodeMap(site, t)
	case reflect.Ptr:
		return d.decodePointer(site, t)
	case reflect.Array:
		elemSize, _, err := layout.SizeAlign(t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.Len(); i++ {
			ev, err := d.decodeField(site+int64(i*elemSize), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Struct:
		return d.decodeStruct(site, t)
	default:
		return reflect.Value{}, fmt.Errorf("engine: unsupported field kind %s", t.Kind())
	}
}

func (d *decoder) decodeScalar(site int64, t reflect.Type) (reflect.Value, error) {
	b := d.data
	be := d.bigEndian
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		out.SetBool(b[site] != 0)
	case reflect.Int8:
		out.SetInt(int64(int8(b[site])))
	case reflect.Uint8:
		out.SetUint(uint64(b[site]))
	case reflect.Int16:
		out.SetInt(int64(int16(getU16(b[site:site+2], be))))
	case reflect.Uint16:
		out.SetUint(uint64(getU16(b[site:site+2], be)))
	case reflect.Int32:
		out.SetInt(int64(int32(getU32(b[site:site+4], be))))
	case reflect.Uint32:
		out.SetUint(uint64(getU32(b[site:site+4], be)))
	case reflect.Float32:
		out.SetFloat(float64(math.Float32frombits(getU32(b[site:site+4], be))))
	case reflect.Int64, reflect.Int:
		out.SetInt(int64(getU64(b[site:site+8], be)))
	case reflect.Uint64, reflect.Uint:
		out.SetUint(getU64(b[site:site+8], be))
	case reflect.Float64:
		out.SetFloat(math.Float64frombits(getU64(b[site:site+8], be)))
	}
	return out, nil
}

func (d *decoder) decodeString(site int64) (reflect.Value, error) {
	rec := d.data[site : site+container.SmallStringSize]
	inline, dataPtr, heapLen, isHeap, err := container.DecodeSmallString(rec, d.bigEndian)
	if err != nil {
		return reflect.Value{}, err
	}
	var s string
	if isHeap {
		target := dataPtr.Target(site)
		s = string(d.data[target : target+int64(heapLen)])
	} else {
		s = inline
	}
	out := reflect.New(reflect.TypeOf("")).Elem()
	out.SetString(s)
	return out, nil
}

func (d *decoder) decodeSlice(site int64, t reflect.Type) (reflect.Value, error) {
	rec := d.data[site : site+container.VectorMetaSize]
	dataPtr, used, _, _ := container.DecodeVectorMeta(rec, d.bigEndian)
	elemType := t.Elem()
	elemSize, _, err := layout.SizeAlign(elemType)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(t, int(used), int(used))
	if used == 0 {
		return out, nil
	}
	base := dataPtr.Target(site)
	for i := 0; i < int(used); i++ {
		ev, err := d.decodeField(base+int64(i*elemSize), elemType)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func (d *decoder) decodeMap(site int64, t reflect.Type) (reflect.Value, error) {
	rec := d.data[site : site+container.HashMapMetaSize]
	dataPtr, capacity, count, _ := container.DecodeHashMapMeta(rec, d.bigEndian)
	out := reflect.MakeMapWithSize(t, int(count))
	if count == 0 {
		return out, nil
	}
	keyType, valType := t.Key(), t.Elem()
	keySize, _, err := layout.SizeAlign(keyType)
	if err != nil {
		return reflect.Value{}, err
	}
	valSize, _, err := layout.SizeAlign(valType)
	if err != nil {
		return reflect.Value{}, err
	}
	stride := keySize + valSize
	base := dataPtr.Target(site)
	control := d.data[base+int64(capacity)*int64(stride) : base+int64(capacity)*int64(stride)+int64(capacity)]
	for i := 0; i < int(capacity); i++ {
		if control[i]&0x80 != 0 {
			continue // empty or deleted slot
		}
		entrySite := base + int64(i*stride)
		kv, err := d.decodeField(entrySite, keyType)
		if err != nil {
			return reflect.Value{}, err
		}
		vv, err := d.decodeField(entrySite+int64(keySize), valType)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(kv, vv)
	}
	return out, nil
}

func (d *decoder) decodePointer(site int64, t reflect.Type) (reflect.Value, error) {
	p := container.GetPtr(d.data[site:site+8], d.bigEndian)
	if p.IsNull() {
		return reflect.Zero(t), nil
	}
	target := p.Target(site)
	if existing, ok := d.seen[target]; ok {
		return existing, nil
	}
	elemType := t.Elem()
	ptrVal := reflect.New(elemType)
	d.seen[target] = ptrVal
	ev, err := d.decodeField(target, elemType)
	if err != nil {
		return reflect.Value{}, err
	}
	ptrVal.Elem().Set(ev)
	return ptrVal, nil
}

func getU16(b []byte, bigEndian bool) uint16 {
	if bigEndian {
		return buf.U16BE(b)
	}
	return buf.U16LE(b)
}

func getU32(b []byte, bigEndian bool) uint32 {
	if bigEndian {
		return buf.U32BE(b)
	}
	return buf.U32LE(b)
}

func getU64(b []byte, bigEndian bool) uint64 {
	if bigEndian {
		return buf.U64BE(b)
	}
	return buf.U64LE(b)
}
