package fingerprint

import "testing"

type leaf struct {
	A int32
	B uint64
}

type node struct {
	Name string
	Next *node
}

type withSlice struct {
	Items []leaf
}

type withMap struct {
	M map[string]int32
}

func TestSameTypeSameFingerprint(t *testing.T) {
	if Of(leaf{}) != Of(leaf{}) {
		t.Fatal("identical types must produce identical fingerprints")
	}
}

func TestDistinctlyNamedStructsDiffer(t *testing.T) {
	type ab struct {
		A int32
		B int32
	}
	type ba struct {
		B int32
		A int32
	}
	if Of(ab{}) == Of(ba{}) {
		t.Fatal("distinctly named struct types must not fingerprint equal")
	}
}

func TestCyclicTypeTerminates(t *testing.T) {
	// node contains *node; fingerprinting must terminate rather than
	// recursing forever.
	fp := Of(node{})
	if fp == 0 {
		t.Fatal("fingerprint of a cyclic type must be non-zero")
	}
}

func TestContainerKindsContributeDistinctTags(t *testing.T) {
	if Of(withSlice{}) == Of(withMap{}) {
		t.Fatal("slice and map fields must fingerprint differently")
	}
}

func TestMismatch(t *testing.T) {
	if !Mismatch(1, 2) {
		t.Fatal("Mismatch(1,2) must be true")
	}
	if Mismatch(5, 5) {
		t.Fatal("Mismatch(5,5) must be false")
	}
}
