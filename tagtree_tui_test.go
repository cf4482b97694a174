package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func newTestModel(t *testing.T) (TreeModel, *TagTreeCore) {
	t.Helper()
	core := NewTagTreeCore(sampleTree(), zap.NewNop())
	m := NewTreeModel(core, FormatJSON)
	require.NoError(t, m.err)
	return m, core
}

// press feeds keys to the model in order
func press(t *testing.T, m TreeModel, keys ...tea.KeyMsg) TreeModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		var ok bool
		m, ok = next.(TreeModel)
		require.True(t, ok)
	}
	return m
}

func typeText(t *testing.T, m TreeModel, text string) TreeModel {
	t.Helper()
	for _, r := range text {
		m = press(t, m, runeKey(string(r)))
	}
	return m
}

func TestTUINavigation(t *testing.T) {
	m, _ := newTestModel(t)
	require.Len(t, m.rows, 5)

	m = press(t, m, keyUp)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, keyDown, keyDown, runeKey("j"))
	assert.Equal(t, "child1-child2", m.rows[m.cursor].Name)

	m = press(t, m, keyDown, keyDown, keyDown)
	assert.Equal(t, "child2", m.rows[m.cursor].Name)

	m = press(t, m, runeKey("k"))
	assert.Equal(t, "child1-child2", m.rows[m.cursor].Name)
}

func TestTUIToggleHidesChildren(t *testing.T) {
	m, core := newTestModel(t)

	m = press(t, m, keyDown, keySpace)

	assert.Len(t, m.rows, 3)
	assert.Equal(t, "child1", m.rows[m.cursor].Name)
	tree, _ := core.GetTree()
	assert.True(t, tree.Children[0].Collapsed)

	m = press(t, m, keyEnter)
	assert.Len(t, m.rows, 5)
}

func TestTUIRename(t *testing.T) {
	m, core := newTestModel(t)
	m = press(t, m, keyDown, keyDown)
	id := m.rows[m.cursor].ID

	m = press(t, m, runeKey("r"))
	require.Equal(t, modeRename, m.mode)
	node, err := core.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, "", node.Name, "entering rename blanks the name")
	assert.True(t, node.Editing)

	m = typeText(t, m, "hello")
	node, _ = core.GetNode(id)
	assert.Equal(t, "hello", node.Name)
	assert.True(t, node.Editing)

	m = press(t, m, keyEnter)
	assert.Equal(t, modeBrowse, m.mode)
	node, _ = core.GetNode(id)
	assert.Equal(t, "hello", node.Name)
	assert.False(t, node.Editing)
	assert.Equal(t, id, m.rows[m.cursor].ID)
}

func TestTUIRenameEscCommits(t *testing.T) {
	m, core := newTestModel(t)
	id := m.rows[0].ID

	m = press(t, m, runeKey("r"), keyEsc)

	assert.Equal(t, modeBrowse, m.mode)
	node, _ := core.GetNode(id)
	assert.False(t, node.Editing)
	assert.Equal(t, "", node.Name)
}

func TestTUIEditData(t *testing.T) {
	m, core := newTestModel(t)
	m = press(t, m, keyDown, keyDown, keyDown, keyDown)
	require.Equal(t, "child2", m.rows[m.cursor].Name)

	m = press(t, m, runeKey("e"))
	require.Equal(t, modeEditData, m.mode)
	assert.Equal(t, "c2 World", m.input.Value())

	m = typeText(t, m, "!")
	m = press(t, m, keyEnter)

	assert.Equal(t, modeBrowse, m.mode)
	tree, _ := core.GetTree()
	assert.Equal(t, "c2 World!", tree.Children[1].DataValue())
}

func TestTUIEditDataOnContainer(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runeKey("e"))

	assert.Equal(t, modeBrowse, m.mode)
	assert.Contains(t, m.status, "not a leaf")
}

func TestTUIAddChild(t *testing.T) {
	m, core := newTestModel(t)
	m = press(t, m, keyDown, keyDown, keyDown, keyDown)

	m = press(t, m, runeKey("a"))

	row := m.rows[m.cursor]
	assert.Equal(t, "New Child", row.Name)
	assert.Equal(t, "Data", row.Data)
	assert.Equal(t, 2, row.Depth)

	tree, _ := core.GetTree()
	assert.Nil(t, tree.Children[1].Data)
	assert.Len(t, m.rows, 6)
}

func TestTUIExportModal(t *testing.T) {
	m, core := newTestModel(t)
	before, _ := core.GetTree()

	var copied string
	m.copyText = func(text string) error {
		copied = text
		return nil
	}

	m = press(t, m, runeKey("x"))
	require.Equal(t, modeExport, m.mode)
	want, _ := core.Export(FormatJSON)
	assert.Equal(t, want, m.exportText)
	assert.Contains(t, m.View(), `"name": "root"`)

	m = press(t, m, runeKey("c"))
	assert.Equal(t, want, copied)
	assert.Equal(t, "export copied to clipboard", m.status)

	m = press(t, m, keyEsc)
	assert.Equal(t, modeBrowse, m.mode)
	after, _ := core.GetTree()
	assert.Equal(t, before, after, "closing the export must not change the tree")
}

func TestTUIExportCopyError(t *testing.T) {
	m, _ := newTestModel(t)
	m.copyText = func(string) error { return errors.New("no clipboard") }

	m = press(t, m, runeKey("x"), runeKey("c"))

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "no clipboard")
}

func TestTUIStaleRowReportsError(t *testing.T) {
	m, core := newTestModel(t)
	m = press(t, m, keyDown)

	core.Replace(sampleTree())
	m = press(t, m, keySpace)

	assert.ErrorIs(t, m.err, ErrNodeNotFound)
	assert.Contains(t, m.View(), "error: ")

	m = press(t, m, keyDown)
	assert.NoError(t, m.err)
}

func TestTUIQuit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(runeKey("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTUIView(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(TreeModel)

	view := m.View()
	assert.Contains(t, view, "Tag Tree")
	assert.Contains(t, view, "child1-child1")
	assert.Contains(t, view, "c1-c1 Hello")
	assert.Contains(t, view, "[+ child]")

	lines := strings.Split(view, "\n")
	var selected []string
	for _, line := range lines {
		if strings.HasPrefix(line, "› ") {
			selected = append(selected, line)
		}
	}
	require.Len(t, selected, 1)
	assert.Contains(t, selected[0], "root")
}

func TestTUIScrollsToCursor(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 6})
	m = next.(TreeModel)

	m = press(t, m, keyDown, keyDown, keyDown, keyDown)

	assert.Equal(t, 4, m.cursor)
	assert.Equal(t, 3, m.offset)
	assert.Contains(t, m.View(), "child2")
	assert.NotContains(t, m.View(), "child1-child1")
}
