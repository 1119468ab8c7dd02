package index

import "errors"

// ErrNotCovered is returned by Search when no stored range contains the
// requested page. It indicates either a page outside the document or a
// gap left at ingest time.
var ErrNotCovered = errors.New("page not covered by any range")

// Node is one page-range entry in the tree. Nodes are owned exclusively
// by their Tree and are never shared between trees.
type Node struct {
	Start   int    // first page covered, inclusive
	End     int    // last page covered, inclusive
	Payload []byte // compressed batch payload

	left   *Node
	right  *Node
	height int
}

// Tree is an AVL-balanced search tree mapping page numbers to the batch
// payload covering them. Ranges must be non-overlapping with distinct
// start pages; that is a construction-time invariant of the ingest path,
// not something the tree checks. The tree is built once by a single
// writer and read-only afterwards.
type Tree struct {
	root *Node
	size int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Insert adds a range keyed by its start page and rebalances. A duplicate
// start page is a silent no-op and returns false; callers guarantee
// distinct starts by construction (see DESIGN.md).
func (t *Tree) Insert(start, end int, payload []byte) bool {
	before := t.size
	t.root = t.insert(t.root, start, end, payload)
	return t.size > before
}

func (t *Tree) insert(n *Node, start, end int, payload []byte) *Node {
	if n == nil {
		t.size++
		return &Node{Start: start, End: end, Payload: payload, height: 1}
	}

	switch {
	case start < n.Start:
		n.left = t.insert(n.left, start, end, payload)
	case start > n.Start:
		n.right = t.insert(n.right, start, end, payload)
	default:
		// Duplicate start: keep the existing node unchanged.
		return n
	}

	n.height = 1 + max(height(n.left), height(n.right))

	balance := height(n.left) - height(n.right)

	// Left-left.
	if balance > 1 && start < n.left.Start {
		return rotateRight(n)
	}
	// Right-right.
	if balance < -1 && start > n.right.Start {
		return rotateLeft(n)
	}
	// Left-right.
	if balance > 1 && start > n.left.Start {
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	}
	// Right-left.
	if balance < -1 && start < n.right.Start {
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}

	return n
}

// Search returns the node whose range contains page, or ErrNotCovered.
func (t *Tree) Search(page int) (*Node, error) {
	n := t.root
	for n != nil {
		if page >= n.Start && page <= n.End {
			return n, nil
		}
		if page < n.Start {
			n = n.left
		} else {
			n = n.right
		}
	}
	return nil, ErrNotCovered
}

// Size returns the number of stored ranges.
func (t *Tree) Size() int {
	return t.size
}

// Height returns the height of the tree (0 for an empty tree).
func (t *Tree) Height() int {
	return height(t.root)
}

func height(n *Node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func rotateRight(y *Node) *Node {
	x := y.left
	t2 := x.right

	x.right = y
	y.left = t2

	y.height = 1 + max(height(y.left), height(y.right))
	x.height = 1 + max(height(x.left), height(x.right))

	return x
}

func rotateLeft(x *Node) *Node {
	y := x.right
	t2 := y.left

	y.left = x
	x.right = t2

	x.height = 1 + max(height(x.left), height(x.right))
	y.height = 1 + max(height(y.left), height(y.right))

	return y
}
