package menu

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
)

// ErrNotArray is returned by DecodeRecords when the payload is not a JSON array.
var ErrNotArray = errors.New("expected an array of menu records")

// payloadPreviewLen caps how much of a malformed payload ends up in logs.
const payloadPreviewLen = 128

// Builder assembles flat menu records into a tree.
//
// A Builder holds no state between calls, so one instance can be shared.
// Cyclic parent chains are not detected and recurse until the stack is
// exhausted; callers must supply acyclic input.
type Builder struct {
	root        ID
	decorations Decorations
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithRoot sets the parent ID that marks top-level records. Defaults to Root.
func WithRoot(root ID) Option {
	return func(b *Builder) { b.root = root }
}

// WithDecorations replaces the kind to decoration table.
func WithDecorations(d Decorations) Option {
	return func(b *Builder) { b.decorations = d }
}

// WithLogger sets the logger used for malformed input diagnostics.
// Defaults to slog.Default() at call time.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder with the given options applied.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		root:        Root,
		decorations: DefaultDecorations(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build assembles the tree below Root using the default builder.
func Build(records []Record) []Node {
	return NewBuilder().Build(records)
}

// BuildFrom assembles the tree below parent using the default builder.
func BuildFrom(records []Record, parent ID) []Node {
	return NewBuilder().BuildFrom(records, parent)
}

// BuildJSON decodes payload and assembles the tree using the default builder.
func BuildJSON(payload []byte) []Node {
	return NewBuilder().BuildJSON(payload)
}

// Root returns the configured top-level parent ID.
func (b *Builder) Root() ID {
	return b.root
}

// Build assembles the tree below the builder's root.
func (b *Builder) Build(records []Record) []Node {
	return b.BuildFrom(records, b.root)
}

// BuildFrom returns, in input order, a node for every record whose parent
// is parent. Records whose parent never appears are left out.
//
// Children come from one of two places. A record carrying pre-nested
// Children is expanded from that collection only, and each nested record is
// checked against the enclosing record's ID again instead of being trusted.
// A record without nested children is expanded from the same flat batch.
// A node gets Children only when that lookup finds at least one record.
//
// The returned slice is never nil.
func (b *Builder) BuildFrom(records []Record, parent ID) []Node {
	nodes := []Node{}
	for i := range records {
		if records[i].ParentID != parent {
			continue
		}
		nodes = append(nodes, b.node(records, &records[i]))
	}

	return nodes
}

func (b *Builder) node(batch []Record, rec *Record) Node {
	n := Node{
		Key:        rec.ID.String(),
		Title:      rec.Label,
		Decoration: b.decorations.For(rec.Kind),
	}

	scope := batch
	switch {
	case rec.malformedChildren:
		b.log().Warn("expected an array of menu records",
			"key", n.Key,
			"field", "children")
		return n
	case len(rec.Children) > 0:
		scope = rec.Children
	}

	if children := b.BuildFrom(scope, rec.ID); len(children) > 0 {
		n.Children = children
	}

	return n
}

// BuildJSON decodes a JSON array of records and assembles the tree below
// the builder's root. Malformed payloads are logged and yield an empty,
// non-nil result; BuildJSON never fails.
func (b *Builder) BuildJSON(payload []byte) []Node {
	records, err := DecodeRecords(payload)
	if err != nil {
		b.log().Warn("unable to build menu tree",
			"error", err,
			"payload", preview(payload))
		return []Node{}
	}

	nodes := b.Build(records)

	b.log().Debug("menu tree built",
		"records", len(records),
		"nodes", Count(nodes))

	return nodes
}

// DecodeRecords decodes a JSON array of records. Anything other than an
// array returns an error wrapping ErrNotArray.
func DecodeRecords(payload []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w, got %q", ErrNotArray, preview(trimmed))
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to decode menu records: %w", err)
	}

	return records, nil
}

func (b *Builder) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}

	return slog.Default()
}

func preview(payload []byte) string {
	if len(payload) > payloadPreviewLen {
		return string(payload[:payloadPreviewLen]) + "..."
	}

	return string(payload)
}
