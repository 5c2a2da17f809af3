package verify_test

import (
	"errors"
	"testing"

	"github.com/offsetgraph/zerocopy/engine"
	"github.com/offsetgraph/zerocopy/examples/graph"
	"github.com/offsetgraph/zerocopy/framing"
	"github.com/offsetgraph/zerocopy/verify"
	"github.com/offsetgraph/zerocopy/zcerr"
)

func TestVerifyDeserializeAcceptsWellFormedBuffer(t *testing.T) {
	n := graph.NewCycle("a", "b", "c")
	mode := framing.ModeWithVersion | framing.ModeWithIntegrity
	data, err := engine.Serialize(*n, engine.Options{Mode: mode})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	root, err := verify.Deserialize[graph.Node](data, mode)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if root.Offset != int64(framing.HeaderSize(mode)) {
		t.Fatalf("Offset = %d, want %d", root.Offset, framing.HeaderSize(mode))
	}
}

func TestVerifyDeserializeRejectsTruncatedBuffer(t *testing.T) {
	n := graph.NewCycle("a", "b", "c")
	mode := framing.ModeWithVersion | framing.ModeWithIntegrity
	data, err := engine.Serialize(*n, engine.Options{Mode: mode})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// Offset closure: every reachable region must lie within the buffer, so
	// truncating anywhere after the header must surface an out-of-bounds or
	// checksum error rather than silently validating.
	truncated := data[:len(data)-8]
	if _, err := verify.Deserialize[graph.Node](truncated, mode); err == nil {
		t.Fatal("Deserialize accepted a truncated buffer")
	}
}

func TestVerifyDeserializeRejectsFingerprintMismatch(t *testing.T) {
	n := graph.NewCycle("a", "b", "c")
	mode := framing.ModeWithVersion
	data, err := engine.Serialize(*n, engine.Options{Mode: mode})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	for i := 0; i < 8; i++ {
		data[i] ^= 0xFF // corrupt the fingerprint field
	}
	_, err = verify.Deserialize[graph.Node](data, mode)
	if !errors.Is(err, zcerr.ErrFramingBadVersion) {
		t.Fatalf("expected ErrFramingBadVersion, got %v", err)
	}
}

func TestVerifyDeserializeRejectsChecksumMismatch(t *testing.T) {
	n := graph.NewCycle("a", "b", "c")
	mode := framing.ModeWithIntegrity
	data, err := engine.Serialize(*n, engine.Options{Mode: mode})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	_, err = verify.Deserialize[graph.Node](data, mode)
	if !errors.Is(err, zcerr.ErrFramingBadChecksum) {
		t.Fatalf("expected ErrFramingBadChecksum, got %v", err)
	}
}

func TestVerifyDeserializeUncheckedSkipsStructuralWalk(t *testing.T) {
	n := graph.NewCycle("a", "b", "c")
	mode := framing.ModeUnchecked
	data, err := engine.Serialize(*n, engine.Options{Mode: mode})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// Corrupt a pointer's target bytes deep in the buffer; ModeUnchecked
	// must not notice, since it only parses the header.
	data[len(data)-1] ^= 0xFF
	if _, err := verify.Deserialize[graph.Node](data, mode); err != nil {
		t.Fatalf("Deserialize under ModeUnchecked must not walk the structure: %v", err)
	}
}

func TestVerifyDeserializeSharedSubgraphDeepCheckRevisits(t *testing.T) {
	s := graph.NewSharedSubgraph("leaf")
	plain := framing.Mode(0)
	data, err := engine.Serialize(s, engine.Options{Mode: plain})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if _, err := verify.Deserialize[graph.SharedSubgraph](data, plain); err != nil {
		t.Fatalf("Deserialize (short-circuit): %v", err)
	}
	if _, err := verify.Deserialize[graph.SharedSubgraph](data, plain|framing.ModeDeepCheck); err != nil {
		t.Fatalf("Deserialize (deep check): %v", err)
	}
}
