package menu

// Node is one entry of the assembled menu tree.
type Node struct {
	// Key is the string form of the record ID. Keys double as selection ids.
	Key string `json:"key"`

	// Title is the display text.
	Title string `json:"title"`

	// Decoration is empty when the entry has no icon.
	Decoration Decoration `json:"decoration,omitempty"`

	// Children is nil for leaves.
	Children []Node `json:"children,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Count returns the number of nodes in the forest, descendants included.
func Count(nodes []Node) int {
	total := len(nodes)
	for _, n := range nodes {
		total += Count(n.Children)
	}

	return total
}
