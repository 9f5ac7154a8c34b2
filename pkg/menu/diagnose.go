package menu

// Report summarizes how a record batch maps onto the tree. It is purely
// informational; Build output does not depend on it.
type Report struct {
	// Total counts all records, nested ones included.
	Total int `json:"total"`

	// Reachable counts the distinct records that appear in the tree.
	Reachable int `json:"reachable"`

	// Nodes counts the nodes Build produces. With duplicate parent ids a
	// record can appear under every copy, so Nodes may exceed Reachable.
	Nodes int `json:"nodes"`

	// Orphans lists records whose parent is neither the root nor any record
	// in the batch.
	Orphans []ID `json:"orphans,omitempty"`

	// Duplicates lists IDs that occur more than once, in first-seen order.
	Duplicates []ID `json:"duplicates,omitempty"`
}

// Excluded returns the number of records that do not appear in the tree.
// It is never negative.
func (r Report) Excluded() int {
	return r.Total - r.Reachable
}

// Diagnose reports on records as b would build them.
func (b *Builder) Diagnose(records []Record) Report {
	flat := Flatten(records)

	seen := make(map[ID]int, len(flat))
	for _, rec := range flat {
		seen[rec.ID]++
	}

	r := Report{
		Total:     len(flat),
		Nodes:     Count(b.Build(records)),
	}

	reached := make(map[*Record]bool)
	b.mark(records, b.root, reached)
	r.Reachable = len(reached)

	reported := make(map[ID]bool)
	for _, rec := range flat {
		if rec.ParentID != b.root && seen[rec.ParentID] == 0 {
			r.Orphans = append(r.Orphans, rec.ID)
		}
		if seen[rec.ID] > 1 && !reported[rec.ID] {
			reported[rec.ID] = true
			r.Duplicates = append(r.Duplicates, rec.ID)
		}
	}

	return r
}

// mark follows the same child lookup as BuildFrom and records every input
// record it reaches. A record already reached is not expanded again.
func (b *Builder) mark(records []Record, parent ID, reached map[*Record]bool) {
	for i := range records {
		rec := &records[i]
		if rec.ParentID != parent || reached[rec] {
			continue
		}
		reached[rec] = true

		switch {
		case rec.malformedChildren:
		case len(rec.Children) > 0:
			b.mark(rec.Children, rec.ID, reached)
		default:
			b.mark(records, rec.ID, reached)
		}
	}
}

// Diagnose reports on records using the default builder.
func Diagnose(records []Record) Report {
	return NewBuilder().Diagnose(records)
}
