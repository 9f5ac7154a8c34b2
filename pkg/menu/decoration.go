package menu

// KindImage is the record kind that is shown with an icon.
const KindImage = "Image"

// Decoration is a toolkit-neutral visual marker. The zero value means the
// entry is not decorated.
type Decoration string

// AppStore is the marker used for image entries.
const AppStore Decoration = "appstore"

// Decorations maps record kinds to decorations. Kinds missing from the map
// are undecorated.
type Decorations map[string]Decoration

// DefaultDecorations returns the built-in kind table.
func DefaultDecorations() Decorations {
	return Decorations{KindImage: AppStore}
}

// For returns the decoration for kind. It is safe on a nil map.
func (d Decorations) For(kind string) Decoration {
	return d[kind]
}
