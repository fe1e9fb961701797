package progress

// BuildTree materializes a flat list of items into a forest of nodes with
// nested children, preserving every item exactly once.
//
// Two passes: the first indexes every item by ID, the second links each node
// to its parent's children list. An item whose ParentID is set but absent
// from the input is kept as a root rather than dropped. Purely data-shaping:
// statuses are never touched and Ancestors is never consulted. O(N).
func BuildTree(items []Item) []*Node {
	if len(items) == 0 {
		return []*Node{}
	}

	nodes := make(map[string]*Node, len(items))
	for _, it := range items {
		nodes[it.ID] = &Node{Item: it, Children: []*Node{}}
	}

	roots := make([]*Node, 0, len(items))
	for _, it := range items {
		node := nodes[it.ID]
		if parent, ok := nodes[it.ParentID]; ok && it.ParentID != "" {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	return roots
}

// Flatten is the inverse of BuildTree: depth-first, parents before children.
func Flatten(roots []*Node) []Item {
	items := make([]Item, 0, len(roots))
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			items = append(items, n.Item)
			walk(n.Children)
		}
	}
	walk(roots)
	return items
}
