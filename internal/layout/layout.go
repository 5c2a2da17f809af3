// Package layout computes the canonical on-buffer size and alignment of a
// Go type for this module's wire format. It is deliberately independent of
// Go's native in-memory struct layout (which this module never copies via
// unsafe); every field is packed by the same natural-alignment rule a C
// ABI would use, so the same computation run at serialize time and at
// verify time agrees on every field's byte offset (spec.md §3.1 invariant
// I2: "every field sits at an address that is a multiple of its own
// alignment").
package layout

import (
	"fmt"
	"reflect"

	"github.com/offsetgraph/zerocopy/container"
)

// Field describes one struct field's position in the canonical layout.
type Field struct {
	Index  int
	Name   string
	Type   reflect.Type
	Offset int
	Size   int
	Align  int
}

// Align rounds n up to the next multiple of align.
func Align(n, align int) int { return container.Align(n, align) }

// SizeAlign returns the canonical size and alignment of t. Every Go kind
// this module serializes has a static header size, even string, slice,
// map and pointer, whose dynamic payloads always live out-of-line, so
// SizeAlign never depends on a value, only on the type, exactly like cista's
// compile-time sizeof.
func SizeAlign(t reflect.Type) (size, align int, err error) {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1, 1, nil
	case reflect.Int16, reflect.Uint16:
		return 2, 2, nil
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4, 4, nil
	case reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint, reflect.Float64:
		return 8, 8, nil
	case reflect.String:
		return container.SmallStringSize, container.MetaAlign, nil
	case reflect.Slice:
		return container.VectorMetaSize, container.MetaAlign, nil
	case reflect.Map:
		return container.HashMapMetaSize, container.MetaAlign, nil
	case reflect.Ptr:
		return 8, 8, nil
	case reflect.Array:
		elemSize, elemAlign, err := SizeAlign(t.Elem())
		if err != nil {
			return 0, 0, err
		}
		return elemSize * t.Len(), elemAlign, nil
	case reflect.Struct:
		fields, err := Fields(t)
		if err != nil {
			return 0, 0, err
		}
		size, align := 0, 1
		for _, f := range fields {
			size = f.Offset + f.Size
			if f.Align > align {
				align = f.Align
			}
		}
		return Align(size, align), align, nil
	default:
		return 0, 0, fmt.Errorf("zcerr: type %s has no fixed wire layout", t)
	}
}

// Fields returns the canonical field layout of struct type t, in
// declaration order, skipping unexported fields that are not embedded.
func Fields(t reflect.Type) ([]Field, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("zcerr: %s is not a struct", t)
	}
	var out []Field
	offset := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		size, align, err := SizeAlign(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		offset = Align(offset, align)
		out = append(out, Field{Index: i, Name: sf.Name, Type: sf.Type, Offset: offset, Size: size, Align: align})
		offset += size
	}
	return out, nil
}
