package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ignoreIDs compares trees by structure and content only
var ignoreIDs = cmpopts.IgnoreFields(Node{}, "ID")

func leaf(name, data string) Node {
	return Node{ID: newNodeID(), Name: name, Data: strPtr(data)}
}

func container(name string, children ...Node) Node {
	return Node{ID: newNodeID(), Name: name, Children: children}
}

func TestOperationsOnMissingNameAreNoOps(t *testing.T) {
	tree := sampleTree()

	tests := []struct {
		name string
		op   func(Node) Node
	}{
		{"toggle", func(n Node) Node { return ToggleCollapse(n, "missing") }},
		{"set data", func(n Node) Node { return SetData(n, "missing", "v") }},
		{"add child", func(n Node) Node { return AddChild(n, "missing") }},
		{"rename", func(n Node) Node { return BeginOrCommitRename(n, "missing", true, "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op(tree)
			if diff := cmp.Diff(tree, got); diff != "" {
				t.Errorf("tree changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToggleCollapseFlipsOnlyTarget(t *testing.T) {
	tree := sampleTree()

	got := ToggleCollapse(tree, "child1")

	want := tree
	want.Children = append([]Node{}, tree.Children...)
	want.Children[0].Collapsed = true
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}

	back := ToggleCollapse(got, "child1")
	if diff := cmp.Diff(tree, back); diff != "" {
		t.Errorf("toggling twice should restore the tree (-want +got):\n%s", diff)
	}
}

func TestSetDataFansOutToDuplicateNames(t *testing.T) {
	tree := container("root",
		leaf("X", "one"),
		container("group", leaf("X", "two"), leaf("Y", "three")),
	)

	got := SetData(tree, "X", "v")

	assert.Equal(t, "v", got.Children[0].DataValue())
	assert.Equal(t, "v", got.Children[1].Children[0].DataValue())
	assert.Equal(t, "three", got.Children[1].Children[1].DataValue())
}

func TestSetDataKeepsChildren(t *testing.T) {
	tree := container("root", container("X", leaf("inner", "d")))

	got := SetData(tree, "X", "v")

	require.Len(t, got.Children[0].Children, 1)
	assert.Equal(t, "inner", got.Children[0].Children[0].Name)
	assert.Equal(t, "v", got.Children[0].DataValue())
}

func TestMatchedSubtreeIsNotSearched(t *testing.T) {
	tree := container("root", container("X", leaf("X", "nested")))

	got := SetData(tree, "X", "v")

	assert.Equal(t, "v", got.Children[0].DataValue())
	assert.Equal(t, "nested", got.Children[0].Children[0].DataValue())
	assert.Equal(t, 1, CountMatches(tree, MatchName("X")))
}

func TestAddChildTurnsLeafIntoContainer(t *testing.T) {
	tree := container("root", leaf("X", "d"))

	once := AddChild(tree, "X")
	x := once.Children[0]
	assert.Nil(t, x.Data)
	want := []Node{{Name: "New Child", Data: strPtr("Data")}}
	if diff := cmp.Diff(want, x.Children, ignoreIDs); diff != "" {
		t.Errorf("unexpected children (-want +got):\n%s", diff)
	}

	twice := AddChild(once, "X")
	x = twice.Children[0]
	require.Len(t, x.Children, 2)
	assert.Equal(t, once.Children[0].Children[0].ID, x.Children[0].ID, "first child must be preserved")
	assert.NotEqual(t, x.Children[0].ID, x.Children[1].ID)
	assert.Equal(t, "New Child", x.Children[1].Name)
	assert.Equal(t, "Data", x.Children[1].DataValue())
}

func TestAddChildAppendsAfterExistingChildren(t *testing.T) {
	tree := sampleTree()

	got := AddChild(tree, "child1")

	names := []string{}
	for _, c := range got.Children[0].Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"child1-child1", "child1-child2", "New Child"}, names)
}

func TestOperationsDoNotModifyInput(t *testing.T) {
	tree := sampleTree()
	snapshot := EnsureIDs(tree)

	_ = ToggleCollapse(tree, "child1")
	_ = SetData(tree, "child2", "changed")
	_ = AddChild(tree, "child1-child1")
	_ = BeginOrCommitRename(tree, "root", true, "")

	if diff := cmp.Diff(snapshot, tree); diff != "" {
		t.Errorf("input tree was modified (-want +got):\n%s", diff)
	}
}

func TestRenameBlankThenCommit(t *testing.T) {
	tree := container("root", leaf("X", "d"), leaf("Y", "e"))

	begun := BeginOrCommitRename(tree, "X", true, "")
	assert.True(t, begun.Children[0].Editing)
	assert.Equal(t, "", begun.Children[0].Name)

	committed := BeginOrCommitRename(begun, "", false, "NewName")
	assert.False(t, committed.Children[0].Editing)
	assert.Equal(t, "NewName", committed.Children[0].Name)
	assert.Equal(t, "Y", committed.Children[1].Name)
	assert.Equal(t, "d", committed.Children[0].DataValue())
}

func TestRenameTargetedByIDIsStable(t *testing.T) {
	tree := container("root", leaf("X", "d"), leaf("X", "e"))
	id := tree.Children[0].ID

	begun := Transform(tree, ByID(id).Matcher(), renamed(true, ""))
	committed := Transform(begun, ByID(id).Matcher(), renamed(false, "NewName"))

	assert.Equal(t, "NewName", committed.Children[0].Name)
	assert.Equal(t, "X", committed.Children[1].Name)
	assert.False(t, committed.Children[0].Editing)
}

func TestTrimForExport(t *testing.T) {
	tree := Node{
		Name:      "root",
		Collapsed: true,
		Editing:   true,
		Children: []Node{
			{Name: "a", Data: strPtr("hi"), Collapsed: true},
			{Name: "b", Data: strPtr(""), Editing: true},
		},
	}

	got := TrimForExport(EnsureIDs(tree))

	want := ExportNode{
		Name: "root",
		Children: []ExportNode{
			{Name: "a", Data: "hi"},
			{Name: "b"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected export (-want +got):\n%s", diff)
	}
}

func TestTrimForExportDropsEmptyChildren(t *testing.T) {
	got := TrimForExport(Node{Name: "root", Children: []Node{}})
	assert.Nil(t, got.Children)
}

func TestImportTreeAssignsFreshIDs(t *testing.T) {
	e := ExportNode{
		Name:     "root",
		Children: []ExportNode{{Name: "a", Data: "hi"}, {Name: "b"}},
	}

	got := ImportTree(e)

	rows := Flatten(got, false)
	seen := map[string]bool{}
	for _, row := range rows {
		assert.NotEmpty(t, row.ID)
		assert.False(t, seen[row.ID], "duplicate id %s", row.ID)
		seen[row.ID] = true
	}
	assert.Nil(t, got.Children[1].Data)
	if diff := cmp.Diff(e, TrimForExport(got)); diff != "" {
		t.Errorf("import/export mismatch (-want +got):\n%s", diff)
	}
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, `name ""`, ByName("").String())
	assert.Equal(t, "id abc", ByID("abc").String())
}

func TestFlattenVisibleOnly(t *testing.T) {
	tree := ToggleCollapse(sampleTree(), "child1")

	all := Flatten(tree, false)
	visible := Flatten(tree, true)

	assert.Len(t, all, 5)
	require.Len(t, visible, 3)
	assert.Equal(t, "child1", visible[1].Name)
	assert.True(t, visible[1].Collapsed)
	assert.Equal(t, 2, visible[1].Children)
	assert.Equal(t, "child2", visible[2].Name)
	assert.Equal(t, 1, visible[2].Depth)
	assert.True(t, visible[2].HasData)
}

func TestFindByID(t *testing.T) {
	tree := sampleTree()
	target := tree.Children[0].Children[1]

	found, ok := FindByID(tree, target.ID)
	require.True(t, ok)
	assert.Equal(t, "child1-child2", found.Name)

	_, ok = FindByID(tree, "nope")
	assert.False(t, ok)
}

func TestEnsureIDsKeepsExistingIDs(t *testing.T) {
	tree := Node{ID: "fixed", Name: "root", Children: []Node{{Name: "a"}}}

	got := EnsureIDs(tree)

	assert.Equal(t, "fixed", got.ID)
	assert.NotEmpty(t, got.Children[0].ID)
	assert.Empty(t, tree.Children[0].ID)
}
