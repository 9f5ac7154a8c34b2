package menu

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Record is one flat menu entry as delivered by the menu API.
type Record struct {
	// ID uniquely identifies the record within a batch.
	ID ID `json:"menuId"`

	// ParentID is the ID of the logical parent, or Root for top-level records.
	ParentID ID `json:"parentId"`

	// Label is the display text.
	Label string `json:"item"`

	// Kind selects the decoration, see Decorations.
	Kind string `json:"type"`

	// Children holds records that arrived already nested under this one.
	Children []Record `json:"children,omitempty"`

	// malformedChildren is set when the payload carried a children value
	// that was not an array.
	malformedChildren bool
}

// UnmarshalJSON decodes a record, tolerating a children value that is not
// an array. Such a record decodes as a leaf and the builder reports it.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       ID              `json:"menuId"`
		ParentID ID              `json:"parentId"`
		Label    string          `json:"item"`
		Kind     string          `json:"type"`
		Children json.RawMessage `json:"children"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Record{
		ID:       raw.ID,
		ParentID: raw.ParentID,
		Label:    raw.Label,
		Kind:     raw.Kind,
	}

	children := bytes.TrimSpace(raw.Children)
	switch {
	case len(children) == 0 || bytes.Equal(children, []byte("null")):
	case children[0] == '[':
		if err := json.Unmarshal(children, &r.Children); err != nil {
			return err
		}
	default:
		r.malformedChildren = true
	}

	return nil
}

// Flatten returns the records and all of their nested children in
// pre-order. Returned records carry no Children.
func Flatten(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		children := rec.Children
		rec.Children = nil
		out = append(out, rec)
		out = append(out, Flatten(children)...)
	}

	return out
}
