package yamlform

import gyaml "github.com/goccy/go-yaml"

// visitor receives the differences found while a node tree is walked against a target
// value. The walk itself never touches text.
type visitor interface {
	// scalarChanged is called for a scalar node whose value differs from a scalar target.
	scalarChanged(n *Node, target any)
	// replaced is called when n has to be rewritten as a whole: the kinds differ, or one
	// side is an empty container, or no mapping key survives.
	replaced(n *Node, target any)
	// keysRemoved lists the indexes of m.Pairs that are absent from the target.
	keysRemoved(m *Node, removed []int)
	// keysAdded lists the target entries that m does not have yet, in target order.
	// after is the last pair of m that is kept.
	keysAdded(m *Node, after Pair, items gyaml.MapSlice)
	// elementsRemoved drops s.Items[from:].
	elementsRemoved(s *Node, from int)
	// elementsAdded appends items after the last element of s.
	elementsAdded(s *Node, items []any)
}

// walk compares n with target (normalized) and reports every difference to v.
func walk(n *Node, target any, v visitor) {
	if equalNormalized(n.Value, target) {
		return
	}
	tk, _ := KindOf(target)
	switch {
	case n.Alias:
		if tk.IsContainer() {
			v.replaced(n, target)
			return
		}
		v.scalarChanged(n, target)
	case n.Kind.IsContainer():
		if tk != n.Kind || n.Empty() || isEmptyContainer(target) {
			v.replaced(n, target)
			return
		}
		if n.Kind == KindMapping {
			walkMapping(n, target.(gyaml.MapSlice), v)
			return
		}
		walkSequence(n, target.([]any), v)
	case tk.IsContainer():
		v.replaced(n, target)
	default:
		v.scalarChanged(n, target)
	}
}

func walkMapping(m *Node, target gyaml.MapSlice, v visitor) {
	var (
		removed []int
		after   = -1
		seen    = make(map[string]struct{}, len(m.Pairs))
	)
	for i, p := range m.Pairs {
		k := keyString(p.Key.Value)
		seen[k] = struct{}{}
		if _, ok := lookupKey(target, k); !ok {
			removed = append(removed, i)
			continue
		}
		after = i
	}
	if after < 0 {
		v.replaced(m, target)
		return
	}

	for _, p := range m.Pairs {
		if tv, ok := lookupKey(target, keyString(p.Key.Value)); ok {
			walk(p.Value, tv, v)
		}
	}
	if len(removed) > 0 {
		v.keysRemoved(m, removed)
	}

	var added gyaml.MapSlice
	for _, it := range target {
		if _, ok := seen[keyString(it.Key)]; !ok {
			added = append(added, it)
		}
	}
	if len(added) > 0 {
		v.keysAdded(m, m.Pairs[after], added)
	}
}

func walkSequence(s *Node, target []any, v visitor) {
	n := len(s.Items)
	if len(target) < n {
		n = len(target)
	}
	for i := 0; i < n; i++ {
		walk(s.Items[i], target[i], v)
	}
	switch {
	case len(s.Items) > len(target):
		v.elementsRemoved(s, len(target))
	case len(target) > len(s.Items):
		v.elementsAdded(s, target[len(s.Items):])
	}
}
