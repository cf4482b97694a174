package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// viewMode is what the keyboard currently drives
type viewMode int

const (
	modeBrowse viewMode = iota
	modeRename
	modeEditData
	modeExport
)

// TreeModel is the Bubble Tea view over a TagTreeCommands. It holds no tree
// of its own beyond the last copy read back after each operation.
type TreeModel struct {
	cmds   TagTreeCommands
	keys   KeyMap
	help   help.Model
	format Format

	tree   Node
	rows   []NodeRow
	cursor int
	offset int

	mode   viewMode
	editID string
	input  textinput.Model

	exportText string
	exportView viewport.Model
	copyText   func(string) error

	width  int
	height int
	status string
	err    error
}

// NewTreeModel creates the view and reads the initial tree.
func NewTreeModel(cmds TagTreeCommands, format Format) TreeModel {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 256

	m := TreeModel{
		cmds:       cmds,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		format:     format,
		input:      input,
		exportView: viewport.New(60, 15),
		copyText:   clipboard.WriteAll,
	}
	m.refresh()
	return m
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

// refresh re-reads the whole tree and keeps the cursor on the same node when
// it is still visible.
func (m *TreeModel) refresh() {
	selected := m.selectedID()

	tree, err := m.cmds.GetTree()
	if err != nil {
		m.err = err
		return
	}
	m.tree = tree
	m.rows = Flatten(tree, true)

	for i, row := range m.rows {
		if row.ID == selected {
			m.cursor = i
			break
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m TreeModel) selectedID() string {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.cursor].ID
}

func (m TreeModel) selectedRow() (NodeRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return NodeRow{}, false
	}
	return m.rows[m.cursor], true
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.exportView.Width = max(msg.Width-6, 20)
		m.exportView.Height = max(msg.Height-8, 5)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeRename:
			return m.updateRename(msg)
		case modeEditData:
			return m.updateEditData(msg)
		case modeExport:
			return m.updateExport(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m TreeModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.selectedRow(); ok {
			m.err = m.cmds.ToggleCollapse(ByID(row.ID))
			m.refresh()
		}

	case key.Matches(msg, m.keys.Rename):
		row, ok := m.selectedRow()
		if !ok {
			break
		}
		if err := m.cmds.Rename(ByID(row.ID), true, ""); err != nil {
			m.err = err
			break
		}
		m.refresh()
		m.mode = modeRename
		m.editID = row.ID
		m.input.SetValue("")
		focus := m.input.Focus()
		return m, focus

	case key.Matches(msg, m.keys.EditData):
		row, ok := m.selectedRow()
		if !ok {
			break
		}
		if !row.HasData {
			m.status = "not a leaf: press a to add a child"
			break
		}
		m.mode = modeEditData
		m.editID = row.ID
		m.input.SetValue(row.Data)
		m.input.CursorEnd()
		focus := m.input.Focus()
		return m, focus

	case key.Matches(msg, m.keys.AddChild):
		row, ok := m.selectedRow()
		if !ok {
			break
		}
		created, err := m.cmds.AddChild(ByID(row.ID))
		if err != nil {
			m.err = err
			break
		}
		m.refresh()
		if len(created) > 0 {
			for i, r := range m.rows {
				if r.ID == created[0] {
					m.cursor = i
					break
				}
			}
			m.status = "added child to " + row.Name
		}

	case key.Matches(msg, m.keys.Export):
		text, err := m.cmds.Export(m.format)
		if err != nil {
			m.err = err
			break
		}
		m.exportText = text
		m.exportView.SetContent(text)
		m.exportView.GotoTop()
		m.mode = modeExport
	}

	m.ensureCursorVisible()
	return m, nil
}

// updateRename edits the name in place: every keystroke is written to the
// node while it stays in editing mode, enter or esc commits.
func (m TreeModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Commit) || key.Matches(msg, m.keys.Cancel) {
		m.err = m.cmds.Rename(ByID(m.editID), false, m.input.Value())
		m.endEdit()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.err = m.cmds.Rename(ByID(m.editID), true, value)
		m.refresh()
	}
	return m, cmd
}

// updateEditData writes the data of a leaf on every keystroke
func (m TreeModel) updateEditData(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Commit) || key.Matches(msg, m.keys.Cancel) {
		m.endEdit()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.err = m.cmds.SetData(ByID(m.editID), value)
		m.refresh()
	}
	return m, cmd
}

func (m *TreeModel) endEdit() {
	m.input.Blur()
	m.input.SetValue("")
	m.mode = modeBrowse
	m.editID = ""
	m.refresh()
}

// updateExport handles the read-only export modal. Closing it never touches
// the tree.
func (m TreeModel) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.mode = modeBrowse
		m.exportText = ""
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if err := m.copyText(m.exportText); err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", err)
		} else {
			m.status = "export copied to clipboard"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.exportView, cmd = m.exportView.Update(msg)
	return m, cmd
}

// ensureCursorVisible scrolls the row window so the cursor stays on screen
func (m *TreeModel) ensureCursorVisible() {
	visible := m.visibleRowCount()
	if visible <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m TreeModel) visibleRowCount() int {
	if m.height == 0 {
		return len(m.rows)
	}
	// title, blank, status and help lines
	return max(m.height-4, 1)
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m TreeModel) View() string {
	if m.mode == modeExport {
		// The model is passed by pointer so both layers render the current state
		modal := overlay.New(
			&exportLayer{model: &m},
			&treeLayer{model: &m},
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return modal.View()
	}
	return m.renderTree()
}

func (m TreeModel) renderTree() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tag Tree"))
	b.WriteString("\n\n")

	end := len(m.rows)
	if visible := m.visibleRowCount(); m.offset+visible < end {
		end = m.offset + visible
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	switch m.mode {
	case modeRename, modeEditData:
		b.WriteString(m.help.ShortHelpView(m.keys.editHelp()))
	case modeExport:
	default:
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m TreeModel) renderExport() string {
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Export ("+string(m.format)+")"),
		m.exportView.View(),
		m.statusLine(),
		m.help.ShortHelpView(m.keys.exportHelp()),
	)
	return modalStyle.Render(body)
}

// treeLayer and exportLayer adapt the two halves of the export screen to the
// overlay. Input is handled by TreeModel itself.
type treeLayer struct {
	model *TreeModel
}

func (l *treeLayer) Init() tea.Cmd { return nil }
func (l *treeLayer) Update(tea.Msg) (tea.Model, tea.Cmd) { return l, nil }

func (l *treeLayer) View() string {
	tree := l.model.renderTree()
	if l.model.width == 0 || l.model.height == 0 {
		return tree
	}
	// fill the screen so the modal is centered on it rather than on the rows
	return lipgloss.Place(l.model.width, l.model.height, lipgloss.Left, lipgloss.Top, tree)
}

type exportLayer struct {
	model *TreeModel
}

func (l *exportLayer) Init() tea.Cmd { return nil }
func (l *exportLayer) Update(tea.Msg) (tea.Model, tea.Cmd) { return l, nil }
func (l *exportLayer) View() string { return l.model.renderExport() }

func (m TreeModel) renderRow(i int) string {
	row := m.rows[i]
	selected := i == m.cursor

	marker := "▼"
	if row.Collapsed {
		marker = ">"
	}

	name := row.Name
	if m.mode == modeRename && row.ID == m.editID {
		name = m.input.View()
	} else if selected {
		name = selectedStyle.Render(name)
	}

	line := strings.Repeat("  ", row.Depth) + markerStyle.Render(marker) + " " + name

	if !row.Collapsed {
		switch {
		case m.mode == modeEditData && row.ID == m.editID:
			line += ": " + m.input.View()
		case row.HasData:
			line += ": " + dataStyle.Render(row.Data)
		default:
			line += " " + hintStyle.Render("[+ child]")
		}
	}

	if selected {
		return "› " + line
	}
	return "  " + line
}

func (m TreeModel) statusLine() string {
	if m.err != nil {
		return errorStyle.Render("error: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return lipgloss.NewStyle().Foreground(colorMuted).Render(fmt.Sprintf("%d nodes", len(Flatten(m.tree, false))))
}

// RunTUI runs the tree view until the user quits.
func RunTUI(cmds TagTreeCommands, format Format) error {
	p := tea.NewProgram(NewTreeModel(cmds, format), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
