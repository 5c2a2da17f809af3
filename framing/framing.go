// Package framing implements the fixed-layout prefix that precedes every
// serialized payload: an optional type fingerprint and an optional
// integrity checksum (spec.md §6.1). The mode bits that say which of those
// fields are present are not stored in the prefix; the reader must pass
// the same Mode the writer used. The layout is grounded on the teacher's REGF header: a
// block of fixed-offset fields validated by a signature/version check
// before any payload byte is trusted.
package framing

import (
	"fmt"

	"github.com/offsetgraph/zerocopy/internal/buf"
	"github.com/offsetgraph/zerocopy/zcerr"
)

// Mode is the bitset carried alongside every serialize/deserialize call. It
// must match between the call that produced a buffer and the call that
// reads it back.
type Mode uint8

const (
	// ModeUnchecked skips all verification on load (the framing fields are
	// still read if present, but not validated).
	ModeUnchecked Mode = 1 << iota
	// ModeWithVersion includes/requires the type fingerprint.
	ModeWithVersion
	// ModeWithIntegrity includes/requires the checksum.
	ModeWithIntegrity
	// ModeBigEndian stores all scalars and offsets big-endian.
	ModeBigEndian
	// ModeDeepCheck continues recursion past revisited offsets during
	// verification, to fully check shared subgraphs.
	ModeDeepCheck
)

func (m Mode) has(bit Mode) bool { return m&bit != 0 }

// HasVersion reports whether the fingerprint field is present.
func (m Mode) HasVersion() bool { return m.has(ModeWithVersion) }

// HasIntegrity reports whether the checksum field is present.
func (m Mode) HasIntegrity() bool { return m.has(ModeWithIntegrity) }

// BigEndian reports whether scalars are stored big-endian.
func (m Mode) BigEndian() bool { return m.has(ModeBigEndian) }

// Unchecked reports whether load-time verification is skipped entirely.
func (m Mode) Unchecked() bool { return m.has(ModeUnchecked) }

// DeepCheck reports whether shared subgraphs are fully re-walked on load.
func (m Mode) DeepCheck() bool { return m.has(ModeDeepCheck) }

// fieldSize is the byte width of each optional framing field.
const fieldSize = 8

// HeaderSize returns the number of bytes the framing prefix occupies for m,
// i.e. the offset at which the payload (root object image) begins.
func HeaderSize(m Mode) int {
	n := 0
	if m.HasVersion() {
		n += fieldSize
	}
	if m.HasIntegrity() {
		n += fieldSize
	}
	return n
}

// ChecksumFieldOffset returns the byte offset, from the start of the
// framing prefix, at which the checksum field lives for mode m. Callers
// compute the checksum after the payload has been fully written and then
// patch it in at this offset, since the checksum itself covers payload
// bytes that do not exist yet when the header is first reserved.
func ChecksumFieldOffset(m Mode) int {
	off := 0
	if m.HasVersion() {
		off += fieldSize
	}
	return off
}

// Header is the decoded framing prefix.
type Header struct {
	Mode        Mode
	Fingerprint uint64 // valid only if Mode.HasVersion()
	Checksum    uint64 // valid only if Mode.HasIntegrity()
}

// Encode serializes the framing prefix for the given mode. fingerprint and
// checksum are ignored when the corresponding mode bit is unset.
func Encode(m Mode, fingerprint, checksum uint64) []byte {
	out := make([]byte, HeaderSize(m))
	off := 0
	if m.HasVersion() {
		putU64(out[off:], fingerprint, m.BigEndian())
		off += fieldSize
	}
	if m.HasIntegrity() {
		putU64(out[off:], checksum, m.BigEndian())
		off += fieldSize
	}
	return out
}

// Decode parses the framing prefix at the start of data for mode m. It does
// not validate the fingerprint or checksum against anything; callers compare
// the returned Header against the expected values.
func Decode(data []byte, m Mode) (Header, error) {
	need := HeaderSize(m)
	if len(data) < need {
		return Header{}, fmt.Errorf("%w: need %d header bytes, have %d", zcerr.ErrFramingTooShort, need, len(data))
	}
	h := Header{Mode: m}
	off := 0
	if m.HasVersion() {
		h.Fingerprint = getU64(data[off:], m.BigEndian())
		off += fieldSize
	}
	if m.HasIntegrity() {
		h.Checksum = getU64(data[off:], m.BigEndian())
		off += fieldSize
	}
	return h, nil
}

func putU64(b []byte, v uint64, bigEndian bool) {
	if bigEndian {
		buf.PutU64BE(b, v)
	} else {
		buf.PutU64LE(b, v)
	}
}

func getU64(b []byte, bigEndian bool) uint64 {
	if bigEndian {
		return buf.U64BE(b)
	}
	return buf.U64LE(b)
}
