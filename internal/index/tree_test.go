package index

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestSearch_FindsCoveringRange(t *testing.T) {
	tr := New()
	tr.Insert(1, 5, []byte("a"))
	tr.Insert(6, 10, []byte("b"))
	tr.Insert(11, 12, []byte("c"))

	n, err := tr.Search(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Start != 6 || n.End != 10 {
		t.Errorf("expected range [6,10], got [%d,%d]", n.Start, n.End)
	}
	if string(n.Payload) != "b" {
		t.Errorf("expected payload %q, got %q", "b", n.Payload)
	}
}

func TestSearch_OutsideAllRanges(t *testing.T) {
	tr := New()
	tr.Insert(1, 5, nil)
	tr.Insert(6, 10, nil)
	tr.Insert(11, 12, nil)

	if _, err := tr.Search(13); !errors.Is(err, ErrNotCovered) {
		t.Fatalf("expected ErrNotCovered, got %v", err)
	}
	if _, err := tr.Search(0); !errors.Is(err, ErrNotCovered) {
		t.Fatalf("expected ErrNotCovered for page 0, got %v", err)
	}
}

func TestSearch_EmptyTree(t *testing.T) {
	tr := New()
	if _, err := tr.Search(1); !errors.Is(err, ErrNotCovered) {
		t.Fatalf("expected ErrNotCovered, got %v", err)
	}
}

func TestInsert_FullCoverageNoGaps(t *testing.T) {
	// Tile [1,100] in batches of 5 and verify every page resolves to the
	// batch that contains it.
	tr := New()
	for start := 1; start <= 100; start += 5 {
		end := start + 4
		ok := tr.Insert(start, end, []byte(fmt.Sprintf("%d-%d", start, end)))
		if !ok {
			t.Fatalf("insert [%d,%d] reported duplicate", start, end)
		}
	}

	for p := 1; p <= 100; p++ {
		n, err := tr.Search(p)
		if err != nil {
			t.Fatalf("page %d: unexpected error: %v", p, err)
		}
		if p < n.Start || p > n.End {
			t.Errorf("page %d: returned range [%d,%d] does not contain it", p, n.Start, n.End)
		}
	}

	if _, err := tr.Search(101); !errors.Is(err, ErrNotCovered) {
		t.Errorf("expected ErrNotCovered for page 101, got %v", err)
	}
}

func TestInsert_DuplicateStartIsNoOp(t *testing.T) {
	tr := New()
	if ok := tr.Insert(1, 5, []byte("first")); !ok {
		t.Fatal("first insert should succeed")
	}
	if ok := tr.Insert(1, 8, []byte("second")); ok {
		t.Fatal("duplicate start should report false")
	}
	if tr.Size() != 1 {
		t.Fatalf("expected size 1, got %d", tr.Size())
	}

	n, err := tr.Search(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(n.Payload) != "first" {
		t.Errorf("expected original payload to survive, got %q", n.Payload)
	}
}

func TestInsert_BalanceInvariantAscendingOrder(t *testing.T) {
	// Ascending inserts are the worst case for an unbalanced BST.
	tr := New()
	const n = 1000
	for i := 0; i < n; i++ {
		start := i*3 + 1
		tr.Insert(start, start+2, nil)
	}

	checkBalance(t, tr.root)

	// AVL height bound: 1.44*log2(n+2).
	bound := int(math.Ceil(1.44 * math.Log2(float64(n+2))))
	if tr.Height() > bound {
		t.Errorf("height %d exceeds AVL bound %d for %d nodes", tr.Height(), bound, n)
	}
}

func TestInsert_BalanceInvariantMixedOrder(t *testing.T) {
	tr := New()
	// Deterministic but non-monotonic insertion order.
	starts := []int{50, 10, 90, 30, 70, 20, 80, 40, 60, 1, 100, 35, 65, 15, 85}
	for _, s := range starts {
		tr.Insert(s, s, nil)
	}
	if tr.Size() != len(starts) {
		t.Fatalf("expected %d nodes, got %d", len(starts), tr.Size())
	}
	checkBalance(t, tr.root)
}

// checkBalance walks the tree verifying the AVL height invariant on
// every node.
func checkBalance(t *testing.T, n *Node) int {
	t.Helper()
	if n == nil {
		return 0
	}
	lh := checkBalance(t, n.left)
	rh := checkBalance(t, n.right)

	if want := 1 + max(lh, rh); n.height != want {
		t.Errorf("node [%d,%d]: stored height %d, want %d", n.Start, n.End, n.height, want)
	}
	if diff := lh - rh; diff < -1 || diff > 1 {
		t.Errorf("node [%d,%d]: balance factor %d out of range", n.Start, n.End, diff)
	}
	return 1 + max(lh, rh)
}
