package menu

// ItemType tells a menu widget how to draw a DisplayItem.
type ItemType string

const (
	// Leaf items are selectable entries.
	Leaf ItemType = "leaf"

	// Branch items expand into their Items.
	Branch ItemType = "branch"
)

// DisplayItem is the widget-facing form of a Node.
type DisplayItem struct {
	Type       ItemType      `json:"type"`
	Key        string        `json:"key"`
	Title      string        `json:"title"`
	Decoration Decoration    `json:"decoration,omitempty"`
	Items      []DisplayItem `json:"items,omitempty"`
}

// Render maps nodes to display items one to one, keeping order. A node with
// children becomes a Branch whose Items are its rendered children; every
// other node becomes a Leaf.
func Render(nodes []Node) []DisplayItem {
	items := make([]DisplayItem, 0, len(nodes))
	for _, n := range nodes {
		item := DisplayItem{
			Type:       Leaf,
			Key:        n.Key,
			Title:      n.Title,
			Decoration: n.Decoration,
		}

		if len(n.Children) > 0 {
			item.Type = Branch
			item.Items = Render(n.Children)
		}

		items = append(items, item)
	}

	return items
}

// Walk visits items in pre-order. Returning false from fn skips the
// item's descendants.
func Walk(items []DisplayItem, fn func(depth int, item DisplayItem) bool) {
	walk(items, 0, fn)
}

func walk(items []DisplayItem, depth int, fn func(int, DisplayItem) bool) {
	for _, item := range items {
		if fn(depth, item) {
			walk(item.Items, depth+1, fn)
		}
	}
}

// CountItems returns the number of display items, descendants included.
func CountItems(items []DisplayItem) int {
	var total int
	Walk(items, func(int, DisplayItem) bool {
		total++
		return true
	})

	return total
}

// Find returns the first item in pre-order whose key matches.
func Find(items []DisplayItem, key string) (DisplayItem, bool) {
	var (
		found DisplayItem
		ok    bool
	)

	Walk(items, func(_ int, item DisplayItem) bool {
		if ok {
			return false
		}
		if item.Key == key {
			found, ok = item, true
			return false
		}
		return true
	})

	return found, ok
}
