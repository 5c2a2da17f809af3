package offset

import "testing"

func TestNullAndDangling(t *testing.T) {
	if !Null().IsNull() {
		t.Fatal("Null() must report IsNull")
	}
	if !Dangling().IsDangling() {
		t.Fatal("Dangling() must report IsDangling")
	}
	if Null().IsDangling() || Dangling().IsNull() {
		t.Fatal("null and dangling sentinels must be distinct")
	}
}

func TestRelativeRoundTrip(t *testing.T) {
	cases := []struct{ site, target int64 }{
		{0, 0}, {16, 16}, {16, 128}, {128, 16}, {1 << 20, 1 << 30},
	}
	for _, c := range cases {
		p := Relative(c.site, c.target)
		if got := p.Target(c.site); got != c.target {
			t.Fatalf("Relative(%d,%d).Target(%d) = %d, want %d", c.site, c.target, c.site, got, c.target)
		}
	}
}

func TestFromInt64RoundTrip(t *testing.T) {
	p := Relative(10, 42)
	if got := FromInt64(p.Int64()); got != p {
		t.Fatalf("FromInt64(Int64()) = %v, want %v", got, p)
	}
}
