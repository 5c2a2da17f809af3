package container

import (
	"math/rand"
	"testing"
)

func TestRTreeInsertSearchFindsContained(t *testing.T) {
	tr := NewRTree[int]()
	tr.Insert(Rect{0, 0, 10, 10}, 1)
	tr.Insert(Rect{20, 20, 30, 30}, 2)
	tr.Insert(Rect{5, 5, 15, 15}, 3)

	got := tr.Search(Rect{0, 0, 12, 12})
	want := map[int]bool{1: true, 3: true}
	if len(got) != len(want) {
		t.Fatalf("Search returned %v, want entries %v", got, want)
	}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("Search returned unexpected value %d", v)
		}
	}
}

func TestRTreeBulkInsertDeleteReinsert(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := NewRTree[int]()
	type entry struct {
		r Rect
		v int
	}
	entries := make([]entry, 0, 2000)
	for i := 0; i < 2000; i++ {
		x := rng.Float64() * 1000
		y := rng.Float64() * 1000
		r := Rect{x, y, x + 1, y + 1}
		tr.Insert(r, i)
		entries = append(entries, entry{r, i})
	}

	full := tr.Search(Rect{0, 0, 1000, 1000})
	if len(full) != len(entries) {
		t.Fatalf("after bulk insert, Search found %d, want %d", len(full), len(entries))
	}

	eq := func(a, b int) bool { return a == b }
	for i := 0; i < 500; i++ {
		if !tr.Delete(entries[i].r, entries[i].v, eq) {
			t.Fatalf("Delete(%d) reported not found", entries[i].v)
		}
	}

	remaining := tr.Search(Rect{0, 0, 1000, 1000})
	if len(remaining) != len(entries)-500 {
		t.Fatalf("after deletes, Search found %d, want %d", len(remaining), len(entries)-500)
	}

	for i := 0; i < 500; i++ {
		tr.Insert(entries[i].r, entries[i].v)
	}
	reinserted := tr.Search(Rect{0, 0, 1000, 1000})
	if len(reinserted) != len(entries) {
		t.Fatalf("after reinsert, Search found %d, want %d", len(reinserted), len(entries))
	}
}

// TestRTreeTenThousandInsertDeleteReinsert is the scenario spec.md §8
// names directly: 10000 rectangles inserted, a third deleted, then
// reinserted, checking containment and search completeness hold at each
// step rather than just the final count.
func TestRTreeTenThousandInsertDeleteReinsert(t *testing.T) {
	const n = 10000
	rng := rand.New(rand.NewSource(7))
	tr := NewRTree[int]()
	type entry struct {
		r Rect
		v int
	}
	entries := make([]entry, 0, n)
	for i := 0; i < n; i++ {
		x := rng.Float64() * 9999
		y := rng.Float64() * 9999
		r := Rect{x, y, x + 1, y + 1}
		tr.Insert(r, i)
		entries = append(entries, entry{r, i})
	}

	world := Rect{0, 0, 10000, 10000}
	full := tr.Search(world)
	if len(full) != n {
		t.Fatalf("after inserting %d rectangles, Search found %d", n, len(full))
	}
	for _, e := range entries {
		if !world.Contains(e.r) {
			t.Fatalf("entry %d: world rect must contain every inserted rect", e.v)
		}
	}

	eq := func(a, b int) bool { return a == b }
	const deleted = n / 3
	for i := 0; i < deleted; i++ {
		if !tr.Delete(entries[i].r, entries[i].v, eq) {
			t.Fatalf("Delete(%d) reported not found", entries[i].v)
		}
	}
	remaining := tr.Search(world)
	if len(remaining) != n-deleted {
		t.Fatalf("after deleting %d, Search found %d, want %d", deleted, len(remaining), n-deleted)
	}
	seen := make(map[int]bool, len(remaining))
	for _, v := range remaining {
		seen[v] = true
	}
	for i := deleted; i < n; i++ {
		if !seen[entries[i].v] {
			t.Fatalf("entry %d missing from search after unrelated deletes", entries[i].v)
		}
	}

	for i := 0; i < deleted; i++ {
		tr.Insert(entries[i].r, entries[i].v)
	}
	reinserted := tr.Search(world)
	if len(reinserted) != n {
		t.Fatalf("after reinsert, Search found %d, want %d", len(reinserted), n)
	}
}

func TestRTreeDeleteMissingReturnsFalse(t *testing.T) {
	tr := NewRTree[int]()
	tr.Insert(Rect{0, 0, 1, 1}, 1)
	if tr.Delete(Rect{5, 5, 6, 6}, 99, func(a, b int) bool { return a == b }) {
		t.Fatal("Delete of a non-existent entry must return false")
	}
}

// TestRTreeBranchRectanglesContainChildren is spec.md §8's R-tree
// containment property: every branch rectangle stored in a node must
// contain the bounding rectangle of the child it points at, all the way
// down the tree, after a sequence of inserts and deletes that forces
// splits and rebalancing.
func TestRTreeBranchRectanglesContainChildren(t *testing.T) {
	tr := NewRTree[int]()
	rng := rand.New(rand.NewSource(7))
	rects := make([]Rect, 3000)
	for i := range rects {
		x := rng.Float64() * 9999
		y := rng.Float64() * 9999
		rects[i] = Rect{x, y, x + 1, y + 1}
		tr.Insert(rects[i], i)
	}
	for i := 0; i < len(rects); i += 3 {
		tr.Delete(rects[i], i, func(a, b int) bool { return a == b })
	}

	var walk func(idx int32)
	walk = func(idx int32) {
		n := &tr.Nodes[idx]
		for i := 0; i < int(n.Count); i++ {
			if n.Leaf {
				continue
			}
			child := n.Children[i]
			childBounds := tr.bounds(child)
			if !n.Rects[i].Contains(childBounds) {
				t.Fatalf("node %d entry %d: stored rect %+v does not contain child %d's bounds %+v", idx, i, n.Rects[i], child, childBounds)
			}
			walk(child)
		}
	}
	walk(tr.Root)
}

func TestRectContainsAndIntersects(t *testing.T) {
	outer := Rect{0, 0, 10, 10}
	inner := Rect{2, 2, 5, 5}
	if !outer.Contains(inner) {
		t.Fatal("outer must contain inner")
	}
	disjoint := Rect{100, 100, 101, 101}
	if outer.Intersects(disjoint) {
		t.Fatal("outer must not intersect a disjoint rectangle")
	}
}
