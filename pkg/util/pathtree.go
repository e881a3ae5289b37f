package util

type (
	// PathTree indexes values by hierarchical string paths
	PathTree[T any] struct {
		root *pathNode[T]
	}

	pathNode[T any] struct {
		value    T
		hasValue bool
		children map[string]*pathNode[T]
	}
)

// NewPathTree creates a new hierarchical path index
func NewPathTree[T any]() *PathTree[T] {
	return &PathTree[T]{root: newPathNode[T]()}
}

// Insert stores a value at the exact path, replacing any previous value
func (t *PathTree[T]) Insert(path []string, v T) {
	cur := t.root
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			next = newPathNode[T]()
			cur.children[p] = next
		}
		cur = next
	}
	cur.value = v
	cur.hasValue = true
}

// Get returns the value stored at the exact path
func (t *PathTree[T]) Get(path []string) (T, bool) {
	cur := t.root
	for _, p := range path {
		next, ok := cur.children[p]
		if !ok {
			var zero T
			return zero, false
		}
		cur = next
	}
	return cur.value, cur.hasValue
}

// Remove clears the value at the exact path and prunes empty branches
func (t *PathTree[T]) Remove(path []string) {
	t.root.remove(path)
}

// Detach removes a prefix subtree and returns its values
func (t *PathTree[T]) Detach(prefix []string) []T {
	var res []T
	t.DetachWith(prefix, func(v T) {
		res = append(res, v)
	})
	return res
}

// DetachWith removes a prefix subtree, calling fn for each detached value
func (t *PathTree[T]) DetachWith(prefix []string, fn func(T)) {
	var n *pathNode[T]
	if len(prefix) == 0 {
		n, t.root = t.root, newPathNode[T]()
	} else {
		n = t.root.detach(prefix)
	}
	if n != nil {
		n.each(fn)
	}
}

func newPathNode[T any]() *pathNode[T] {
	return &pathNode[T]{children: map[string]*pathNode[T]{}}
}

func (n *pathNode[T]) remove(path []string) bool {
	if len(path) == 0 {
		var zero T
		n.value = zero
		n.hasValue = false
		return len(n.children) == 0
	}
	next, ok := n.children[path[0]]
	if !ok {
		return false
	}
	if next.remove(path[1:]) {
		delete(n.children, path[0])
	}
	return !n.hasValue && len(n.children) == 0
}

func (n *pathNode[T]) detach(prefix []string) *pathNode[T] {
	parent := n
	for _, p := range prefix[:len(prefix)-1] {
		next, ok := parent.children[p]
		if !ok {
			return nil
		}
		parent = next
	}
	last := prefix[len(prefix)-1]
	res, ok := parent.children[last]
	if !ok {
		return nil
	}
	delete(parent.children, last)
	return res
}

func (n *pathNode[T]) each(fn func(T)) {
	if n.hasValue {
		fn(n.value)
	}
	for _, child := range n.children {
		child.each(fn)
	}
}
