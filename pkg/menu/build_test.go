package menu

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, parent int64, label, kind string) Record {
	return Record{ID: IntID(id), ParentID: IntID(parent), Label: label, Kind: kind}
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestBuild_Example(t *testing.T) {
	records := []Record{
		rec(1, 0, "Home", "Text"),
		rec(2, 0, "Settings", "Image"),
		rec(3, 2, "Profile", "Text"),
	}

	nodes := Build(records)
	require.Len(t, nodes, 2)

	// siblings keep input order
	assert.Equal(t, Node{Key: "1", Title: "Home"}, nodes[0])
	assert.True(t, nodes[0].IsLeaf())

	settings := nodes[1]
	assert.Equal(t, "2", settings.Key)
	assert.Equal(t, "Settings", settings.Title)
	assert.Equal(t, AppStore, settings.Decoration)
	require.Len(t, settings.Children, 1)
	assert.Equal(t, Node{Key: "3", Title: "Profile"}, settings.Children[0])
	assert.Nil(t, settings.Children[0].Children)
}

func TestBuild_MissingParentExcluded(t *testing.T) {
	// Silent exclusion of records with an unknown parent is the current
	// policy, not a hard requirement. A stricter policy would fail here.
	records := []Record{
		rec(1, 0, "Home", "Text"),
		rec(5, 99, "Lost", "Text"),
	}

	nodes := Build(records)
	require.Len(t, nodes, 1)
	assert.Equal(t, "1", nodes[0].Key)
	assert.Equal(t, 1, Count(nodes))
}

func TestBuild_OrphanSubtreeExcluded(t *testing.T) {
	records := []Record{
		rec(5, 99, "Lost", "Text"),
		rec(6, 5, "Lost child", "Text"),
	}

	assert.Empty(t, Build(records))
}

func TestBuild_EmptyInput(t *testing.T) {
	nodes := Build(nil)
	require.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestBuild_UnknownKindUndecorated(t *testing.T) {
	nodes := Build([]Record{rec(1, 0, "Docs", "Video")})
	require.Len(t, nodes, 1)
	assert.Empty(t, nodes[0].Decoration)
}

func TestBuild_NestedChildren(t *testing.T) {
	records := []Record{
		{
			ID: IntID(1), ParentID: Root, Label: "Admin", Kind: "Image",
			Children: []Record{
				rec(10, 1, "Users", "Text"),
				rec(11, 7, "Misfiled", "Text"),
				{
					ID: IntID(12), ParentID: IntID(1), Label: "Roles",
					Children: []Record{rec(120, 12, "Editors", "Text")},
				},
			},
		},
	}

	nodes := Build(records)
	require.Len(t, nodes, 1)

	admin := nodes[0]
	require.Len(t, admin.Children, 2, "nested child with a foreign parent id is dropped")
	assert.Equal(t, "10", admin.Children[0].Key)
	assert.Equal(t, "12", admin.Children[1].Key)
	require.Len(t, admin.Children[1].Children, 1)
	assert.Equal(t, "Editors", admin.Children[1].Children[0].Title)
}

func TestBuild_NestedChildrenAllForeign(t *testing.T) {
	records := []Record{
		{
			ID: IntID(1), ParentID: Root, Label: "Admin",
			Children: []Record{rec(10, 2, "Elsewhere", "Text")},
		},
	}

	nodes := Build(records)
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].IsLeaf())
}

func TestBuild_EmptyNestedChildrenIsLeaf(t *testing.T) {
	records := []Record{
		{ID: IntID(1), ParentID: Root, Label: "Home", Children: []Record{}},
	}

	nodes := Build(records)
	require.Len(t, nodes, 1)
	assert.Nil(t, nodes[0].Children)
}

func TestBuild_DuplicateSiblingIDs(t *testing.T) {
	// Duplicate ids are unspecified input. Today both records are emitted
	// under the same key; this test pins that behavior so a change is
	// deliberate.
	records := []Record{
		rec(1, 0, "First", "Text"),
		rec(1, 0, "Second", "Text"),
	}

	nodes := Build(records)
	require.Len(t, nodes, 2)
	assert.Equal(t, nodes[0].Key, nodes[1].Key)
	assert.Equal(t, "First", nodes[0].Title)
	assert.Equal(t, "Second", nodes[1].Title)
}

func TestBuild_Idempotent(t *testing.T) {
	records := []Record{
		rec(1, 0, "Home", "Text"),
		rec(2, 0, "Settings", "Image"),
		rec(3, 2, "Profile", "Text"),
	}

	assert.Equal(t, Build(records), Build(records))
}

func TestBuilder_Options(t *testing.T) {
	b := NewBuilder(
		WithRoot("root"),
		WithDecorations(Decorations{"Text": "doc"}),
	)

	records := []Record{
		{ID: "a", ParentID: "root", Label: "A", Kind: "Text"},
		{ID: "b", ParentID: "a", Label: "B", Kind: "Image"},
		{ID: "c", ParentID: Root, Label: "C", Kind: "Text"},
	}

	nodes := b.Build(records)
	require.Len(t, nodes, 1)
	assert.Equal(t, ID("root"), b.Root())
	assert.Equal(t, Decoration("doc"), nodes[0].Decoration)
	require.Len(t, nodes[0].Children, 1)
	assert.Empty(t, nodes[0].Children[0].Decoration)
}

func TestBuildFrom_Subtree(t *testing.T) {
	records := []Record{
		rec(1, 0, "Home", "Text"),
		rec(2, 0, "Settings", "Image"),
		rec(3, 2, "Profile", "Text"),
		rec(4, 2, "Security", "Text"),
	}

	nodes := BuildFrom(records, IntID(2))
	require.Len(t, nodes, 2)
	assert.Equal(t, "3", nodes[0].Key)
	assert.Equal(t, "4", nodes[1].Key)
}

func TestBuildJSON(t *testing.T) {
	payload := []byte(`[
		{"menuId": 1, "parentId": 0, "item": "Home", "type": "Text"},
		{"menuId": 2, "parentId": 0, "item": "Settings", "type": "Image"},
		{"menuId": 3, "parentId": 2, "item": "Profile", "type": "Text"}
	]`)

	nodes := BuildJSON(payload)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Home", nodes[0].Title)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, "3", nodes[1].Children[0].Key)
}

func TestBuildJSON_NestedPayload(t *testing.T) {
	payload := []byte(`[
		{"menuId": "m", "parentId": 0, "item": "Main", "type": "Image", "children": [
			{"menuId": "m1", "parentId": "m", "item": "One", "type": "Text"},
			{"menuId": "m2", "parentId": "m", "item": "Two", "type": "Text", "children": []}
		]}
	]`)

	nodes := BuildJSON(payload)
	require.Len(t, nodes, 1)
	assert.Equal(t, "m", nodes[0].Key)
	require.Len(t, nodes[0].Children, 2)
	assert.True(t, nodes[0].Children[1].IsLeaf())
}

func TestBuildJSON_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "object", payload: `{"data": []}`},
		{name: "string", payload: `"menu"`},
		{name: "number", payload: `42`},
		{name: "null", payload: `null`},
		{name: "empty", payload: ``},
		{name: "truncated", payload: `[{"menuId": 1,`},
		{name: "bad element", payload: `[{"menuId": true}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			b := NewBuilder(WithLogger(testLogger(&buf)))

			nodes := b.BuildJSON([]byte(tt.payload))
			require.NotNil(t, nodes)
			assert.Empty(t, nodes)
			assert.Contains(t, buf.String(), "unable to build menu tree")
		})
	}
}

func TestBuildJSON_MalformedNestedChildren(t *testing.T) {
	var buf bytes.Buffer
	b := NewBuilder(WithLogger(testLogger(&buf)))

	nodes := b.BuildJSON([]byte(`[
		{"menuId": 1, "parentId": 0, "item": "Home", "type": "Text", "children": "oops"},
		{"menuId": 2, "parentId": 1, "item": "Hidden", "type": "Text"}
	]`))

	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].IsLeaf())
	assert.Contains(t, buf.String(), "expected an array of menu records")
}

func TestDecodeRecords_NotArray(t *testing.T) {
	_, err := DecodeRecords([]byte(`{"menuId": 1}`))
	require.ErrorIs(t, err, ErrNotArray)
}
