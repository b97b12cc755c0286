package interval

import (
	"iter"
	"math"
)

// Entry is a value stored in a [Tree] under an interval.
type Entry[T any] struct {
	Interval Interval
	Value    T
}

type node[T any] struct {
	entry Entry[T]

	// max is the largest right bound in the subtree rooted here.
	max       float64
	maxClosed bool

	left, right, parent *node[T]
	red                 bool
}

// Tree indexes values by interval for point and overlap queries.
type Tree[T any] struct {
	root     *node[T]
	sentinel *node[T] // black leaf shared by every node
	size     int
}

// NewTree creates an empty tree.
func NewTree[T any]() *Tree[T] {
	s := &node[T]{max: math.Inf(-1)}
	s.left, s.right, s.parent = s, s, s
	return &Tree[T]{root: s, sentinel: s}
}

// Len returns the number of stored entries.
func (t *Tree[T]) Len() int { return t.size }

// Clear removes every entry.
func (t *Tree[T]) Clear() {
	t.root = t.sentinel
	t.size = 0
}

// Insert stores v under iv. Entries with equal intervals are kept side by side.
func (t *Tree[T]) Insert(iv Interval, v T) {
	z := &node[T]{
		entry:     Entry[T]{Interval: iv, Value: v},
		max:       iv.right,
		maxClosed: iv.rightClosed,
		left:      t.sentinel,
		right:     t.sentinel,
		red:       true,
	}

	y := t.sentinel
	x := t.root
	for x != t.sentinel {
		y = x
		x.absorb(z.max, z.maxClosed)
		if iv.Compare(x.entry.Interval) < 0 {
			x = x.left
		} else {
			x = x.right
		}
	}
	z.parent = y
	switch {
	case y == t.sentinel:
		t.root = z
	case iv.Compare(y.entry.Interval) < 0:
		y.left = z
	default:
		y.right = z
	}
	t.size++
	t.insertFixup(z)
}

// Delete removes one entry stored under exactly iv and returns its value.
func (t *Tree[T]) Delete(iv Interval) (T, bool) {
	return t.DeleteFunc(iv, nil)
}

// DeleteFunc removes the first entry, in key order, stored under exactly iv
// whose value satisfies match. A nil match accepts any value.
func (t *Tree[T]) DeleteFunc(iv Interval, match func(T) bool) (T, bool) {
	z := t.findFunc(t.root, iv, match)
	if z == t.sentinel {
		var zero T
		return zero, false
	}
	v := z.entry.Value
	t.deleteNode(z)
	return v, true
}

// Get returns the value of an entry stored under exactly iv.
func (t *Tree[T]) Get(iv Interval) (T, bool) {
	z := t.findFunc(t.root, iv, nil)
	if z == t.sentinel {
		var zero T
		return zero, false
	}
	return z.entry.Value, true
}

// Contains reports whether some entry is stored under exactly iv.
func (t *Tree[T]) Contains(iv Interval) bool {
	return t.findFunc(t.root, iv, nil) != t.sentinel
}

// AnyContaining returns an entry whose interval contains x.
func (t *Tree[T]) AnyContaining(x float64) (Entry[T], bool) {
	p := Interval{left: x, right: x, leftClosed: true, rightClosed: true}
	return t.AnyOverlapping(p)
}

// AllContaining returns every entry whose interval contains x, in key order.
func (t *Tree[T]) AllContaining(x float64) []Entry[T] {
	p := Interval{left: x, right: x, leftClosed: true, rightClosed: true}
	return t.AllOverlapping(p)
}

// AnyOverlapping returns an entry whose interval overlaps iv.
func (t *Tree[T]) AnyOverlapping(iv Interval) (Entry[T], bool) {
	var found *node[T]
	t.walkOverlapping(t.root, iv, func(n *node[T]) bool {
		found = n
		return false
	})
	if found == nil {
		return Entry[T]{}, false
	}
	return found.entry, true
}

// AllOverlapping returns every entry whose interval overlaps iv, in key order.
func (t *Tree[T]) AllOverlapping(iv Interval) []Entry[T] {
	var out []Entry[T]
	t.walkOverlapping(t.root, iv, func(n *node[T]) bool {
		out = append(out, n.entry)
		return true
	})
	return out
}

// InOrder returns all entries sorted by interval.
func (t *Tree[T]) InOrder() []Entry[T] {
	out := make([]Entry[T], 0, t.size)
	for iv, v := range t.All() {
		out = append(out, Entry[T]{Interval: iv, Value: v})
	}
	return out
}

// All iterates over the entries in key order.
func (t *Tree[T]) All() iter.Seq2[Interval, T] {
	return func(yield func(Interval, T) bool) {
		t.inorder(t.root, func(n *node[T]) bool {
			return yield(n.entry.Interval, n.entry.Value)
		})
	}
}

// First returns the entry with the smallest interval.
func (t *Tree[T]) First() (Entry[T], bool) {
	if t.root == t.sentinel {
		return Entry[T]{}, false
	}
	return t.minimum(t.root).entry, true
}

// Last returns the entry with the largest interval.
func (t *Tree[T]) Last() (Entry[T], bool) {
	if t.root == t.sentinel {
		return Entry[T]{}, false
	}
	n := t.root
	for n.right != t.sentinel {
		n = n.right
	}
	return n.entry, true
}

func (t *Tree[T]) inorder(n *node[T], visit func(*node[T]) bool) bool {
	if n == t.sentinel {
		return true
	}
	return t.inorder(n.left, visit) && visit(n) && t.inorder(n.right, visit)
}

// walkOverlapping visits, in key order, nodes overlapping iv until visit
// returns false. Subtrees whose largest right bound ends before iv are
// skipped, and so are right subtrees once a node starts after iv.
func (t *Tree[T]) walkOverlapping(n *node[T], iv Interval, visit func(*node[T]) bool) bool {
	if n == t.sentinel || !reaches(n.max, n.maxClosed, iv) {
		return true
	}
	if !t.walkOverlapping(n.left, iv, visit) {
		return false
	}
	if startsAfter(n.entry.Interval, iv) {
		return true
	}
	if n.entry.Interval.Overlaps(iv) && !visit(n) {
		return false
	}
	return t.walkOverlapping(n.right, iv, visit)
}

// reaches reports whether a right bound is at or past the start of iv.
func reaches(right float64, rightClosed bool, iv Interval) bool {
	if right != iv.left {
		return right > iv.left
	}
	return rightClosed && iv.leftClosed
}

// startsAfter reports whether a begins strictly after iv ends.
func startsAfter(a, iv Interval) bool {
	if a.left != iv.right {
		return a.left > iv.right
	}
	return !(a.leftClosed && iv.rightClosed)
}

func (t *Tree[T]) findFunc(n *node[T], iv Interval, match func(T) bool) *node[T] {
	for n != t.sentinel {
		c := iv.Compare(n.entry.Interval)
		if c < 0 {
			n = n.left
			continue
		}
		if c > 0 {
			n = n.right
			continue
		}
		if match == nil || match(n.entry.Value) {
			return n
		}
		// Equal keys may sit on either side after rotations.
		if found := t.findFunc(n.left, iv, match); found != t.sentinel {
			return found
		}
		n = n.right
	}
	return t.sentinel
}

func (t *Tree[T]) minimum(n *node[T]) *node[T] {
	for n.left != t.sentinel {
		n = n.left
	}
	return n
}

// absorb widens the subtree maximum to include a right bound.
func (n *node[T]) absorb(right float64, closed bool) {
	if compareRight(right, closed, n.max, n.maxClosed) > 0 {
		n.max, n.maxClosed = right, closed
	}
}

// update recomputes the subtree maximum from the node and its children.
func (t *Tree[T]) update(n *node[T]) {
	n.max, n.maxClosed = n.entry.Interval.right, n.entry.Interval.rightClosed
	if n.left != t.sentinel {
		n.absorb(n.left.max, n.left.maxClosed)
	}
	if n.right != t.sentinel {
		n.absorb(n.right.max, n.right.maxClosed)
	}
}

func (t *Tree[T]) rotateLeft(x *node[T]) {
	y := x.right
	x.right = y.left
	if y.left != t.sentinel {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.sentinel:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
	t.update(x)
	t.update(y)
}

func (t *Tree[T]) rotateRight(x *node[T]) {
	y := x.left
	x.left = y.right
	if y.right != t.sentinel {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.sentinel:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
	t.update(x)
	t.update(y)
}

func (t *Tree[T]) insertFixup(z *node[T]) {
	for z.parent.red {
		gp := z.parent.parent
		if z.parent == gp.left {
			y := gp.right
			if y.red {
				z.parent.red = false
				y.red = false
				gp.red = true
				z = gp
				continue
			}
			if z == z.parent.right {
				z = z.parent
				t.rotateLeft(z)
			}
			z.parent.red = false
			z.parent.parent.red = true
			t.rotateRight(z.parent.parent)
		} else {
			y := gp.left
			if y.red {
				z.parent.red = false
				y.red = false
				gp.red = true
				z = gp
				continue
			}
			if z == z.parent.left {
				z = z.parent
				t.rotateRight(z)
			}
			z.parent.red = false
			z.parent.parent.red = true
			t.rotateLeft(z.parent.parent)
		}
	}
	t.root.red = false
}

func (t *Tree[T]) transplant(u, v *node[T]) {
	switch {
	case u.parent == t.sentinel:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *Tree[T]) deleteNode(z *node[T]) {
	y := z
	yWasRed := y.red
	var x *node[T]

	switch {
	case z.left == t.sentinel:
		x = z.right
		t.transplant(z, z.right)
	case z.right == t.sentinel:
		x = z.left
		t.transplant(z, z.left)
	default:
		y = t.minimum(z.right)
		yWasRed = y.red
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.red = z.red
	}

	for n := x.parent; n != t.sentinel; n = n.parent {
		t.update(n)
	}
	t.size--

	if !yWasRed {
		t.deleteFixup(x)
	}
	t.sentinel.parent = t.sentinel
}

func (t *Tree[T]) deleteFixup(x *node[T]) {
	for x != t.root && !x.red {
		if x == x.parent.left {
			w := x.parent.right
			if w.red {
				w.red = false
				x.parent.red = true
				t.rotateLeft(x.parent)
				w = x.parent.right
			}
			if !w.left.red && !w.right.red {
				w.red = true
				x = x.parent
				continue
			}
			if !w.right.red {
				w.left.red = false
				w.red = true
				t.rotateRight(w)
				w = x.parent.right
			}
			w.red = x.parent.red
			x.parent.red = false
			w.right.red = false
			t.rotateLeft(x.parent)
			x = t.root
		} else {
			w := x.parent.left
			if w.red {
				w.red = false
				x.parent.red = true
				t.rotateRight(x.parent)
				w = x.parent.left
			}
			if !w.right.red && !w.left.red {
				w.red = true
				x = x.parent
				continue
			}
			if !w.left.red {
				w.right.red = false
				w.red = true
				t.rotateLeft(w)
				w = x.parent.left
			}
			w.red = x.parent.red
			x.parent.red = false
			w.left.red = false
			t.rotateRight(x.parent)
			x = t.root
		}
	}
	x.red = false
}
