package shell

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/mchmarny/menutree/pkg/menu"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	markerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// WriteText draws the menu as an indented tree. The selected entry is
// highlighted and decorated entries carry their marker in brackets.
func (s *Shell) WriteText(w io.Writer) error {
	snap := s.Snapshot()

	var out string
	switch snap.Status {
	case StatusLoading:
		out = "Loading..."
	case StatusError:
		out = errorStyle.Render("Error: " + snap.Error)
	default:
		t := tree.Root(titleStyle.Render("Menu Tree")).
			Enumerator(tree.RoundedEnumerator)
		for _, item := range snap.Items {
			t.Child(textNode(item, snap.Current))
		}
		out = t.String()
	}

	_, err := fmt.Fprintln(w, out)

	return err
}

func textNode(item menu.DisplayItem, current string) any {
	label := item.Title
	if item.Decoration != "" {
		label = markerStyle.Render("["+string(item.Decoration)+"]") + " " + label
	}
	if item.Key == current {
		label = selectedStyle.Render(label)
	}

	if item.Type != menu.Branch {
		return label
	}

	t := tree.Root(label)
	for _, child := range item.Items {
		t.Child(textNode(child, current))
	}

	return t
}
