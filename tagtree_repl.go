package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

const replPrompt = "tagtree> "

// errREPLExit is returned by a command that ends the session
var errREPLExit = errors.New("exit")

// REPLCommand represents a parsed command
type REPLCommand struct {
	Verb string
	Args []string
}

// Sub returns the lowercased first argument, used for two-word commands
func (c *REPLCommand) Sub() string {
	if len(c.Args) == 0 {
		return ""
	}
	return strings.ToLower(c.Args[0])
}

// lineReader is the part of readline the REPL needs for multi-line input
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// REPLFormatter handles output formatting
type REPLFormatter struct {
	out      io.Writer
	useColor bool
}

// NewREPLFormatter creates a new formatter writing to out
func NewREPLFormatter(out io.Writer, useColor bool) *REPLFormatter {
	return &REPLFormatter{out: out, useColor: useColor}
}

// PrintSuccess prints a success message
func (f *REPLFormatter) PrintSuccess(message string) {
	f.printColored(color.FgGreen, "✓ %s\n", message)
}

// PrintError prints an error message
func (f *REPLFormatter) PrintError(message string) {
	f.printColored(color.FgRed, "✗ Error: %s\n", message)
}

// PrintInfo prints an info message
func (f *REPLFormatter) PrintInfo(message string) {
	f.printColored(color.FgCyan, "ℹ %s\n", message)
}

func (f *REPLFormatter) printColored(attr color.Attribute, format string, args ...interface{}) {
	if f.useColor {
		color.New(attr).Fprintf(f.out, format, args...)
		return
	}
	fmt.Fprintf(f.out, format, args...)
}

// PrintText prints text as-is
func (f *REPLFormatter) PrintText(text string) {
	fmt.Fprintln(f.out, text)
}

// PrintTable prints a formatted ASCII table
func (f *REPLFormatter) PrintTable(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i < len(headers)-1 {
				fmt.Fprintf(f.out, "%-*s  ", widths[i], cell)
			} else {
				fmt.Fprint(f.out, cell)
			}
		}
		fmt.Fprintln(f.out)
	}

	writeRow(headers)
	separator := make([]string, len(headers))
	for i := range headers {
		separator[i] = strings.Repeat("-", widths[i])
	}
	writeRow(separator)
	for _, row := range rows {
		writeRow(row)
	}
}

// PrintJSON prints formatted JSON
func (f *REPLFormatter) PrintJSON(data interface{}) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		f.PrintError("Failed to format JSON: " + err.Error())
		return
	}
	fmt.Fprintln(f.out, string(jsonBytes))
}

// PrintTree prints visible rows as a tree diagram
func (f *REPLFormatter) PrintTree(rows []NodeRow) {
	for i, row := range rows {
		branch := "├─ "
		if isLastSibling(rows, i) {
			branch = "└─ "
		}

		marker := "▼"
		if row.Collapsed {
			marker = ">"
		}

		name := row.Name
		if row.Editing {
			name += "*"
		}
		data := ""
		if row.HasData && !row.Collapsed {
			data = fmt.Sprintf(" = %q", row.Data)
		}
		id := "@" + shortID(row.ID)

		prefix := strings.Repeat("  ", row.Depth) + branch + marker + " "
		if f.useColor {
			fmt.Fprintln(f.out, prefix+color.CyanString(name)+color.YellowString(data)+" "+color.HiBlackString(id))
		} else {
			fmt.Fprintf(f.out, "%s%s%s %s\n", prefix, name, data, id)
		}
	}
}

// isLastSibling reports whether no later row shares the parent of rows[i]
func isLastSibling(rows []NodeRow, i int) bool {
	depth := rows[i].Depth
	for _, row := range rows[i+1:] {
		if row.Depth < depth {
			return true
		}
		if row.Depth == depth {
			return false
		}
	}
	return true
}

// ParseCommand parses a verb-first command string
func ParseCommand(input string) (*REPLCommand, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	parts := splitArgs(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	return &REPLCommand{
		Verb: strings.ToLower(parts[0]),
		Args: parts[1:],
	}, nil
}

// splitArgs splits a command string into arguments, respecting quotes.
// A quoted empty string is kept as an empty argument.
func splitArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	quoted := false
	quoteChar := rune(0)
	escaped := false

	for _, ch := range input {
		if escaped {
			current.WriteRune(ch)
			escaped = false
			continue
		}

		if ch == '\\' {
			escaped = true
			continue
		}

		if (ch == '"' || ch == '\'') && !inQuotes {
			inQuotes = true
			quoted = true
			quoteChar = ch
			continue
		}

		if ch == quoteChar && inQuotes {
			inQuotes = false
			quoteChar = 0
			continue
		}

		if ch == ' ' && !inQuotes {
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
			continue
		}

		current.WriteRune(ch)
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args
}

// resolveTarget turns a command argument into a Target. "@<prefix>" selects
// the node whose ID starts with prefix; anything else is a node name.
func resolveTarget(cmds TagTreeCommands, arg string) (Target, error) {
	if !strings.HasPrefix(arg, "@") {
		return ByName(arg), nil
	}

	prefix := strings.TrimPrefix(arg, "@")
	if prefix == "" {
		return Target{}, fmt.Errorf("empty node id")
	}

	rows, err := cmds.ListNodes()
	if err != nil {
		return Target{}, err
	}

	var found []string
	for _, row := range rows {
		if strings.HasPrefix(row.ID, prefix) {
			found = append(found, row.ID)
		}
	}

	switch len(found) {
	case 0:
		return Target{}, fmt.Errorf("%w: %s", ErrNodeNotFound, prefix)
	case 1:
		return ByID(found[0]), nil
	default:
		return Target{}, fmt.Errorf("node id prefix %q is ambiguous (%d nodes)", prefix, len(found))
	}
}

// ExecuteREPLCommand executes a REPL command. Failures of the command itself
// are printed; the returned error is errREPLExit or a fatal error.
func ExecuteREPLCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter, rl lineReader) error {
	switch cmd.Verb {
	// Tree operations
	case "toggle":
		return handleToggleCommand(cmd, cmds, formatter)
	case "edit":
		return handleEditCommand(cmd, cmds, formatter)
	case "rename":
		return handleRenameCommand(cmd, cmds, formatter)
	case "set":
		return handleSetCommand(cmd, cmds, formatter)
	case "add":
		return handleAddCommand(cmd, cmds, formatter)

	// Query commands
	case "show":
		return handleShowCommand(cmd, cmds, formatter)
	case "list":
		return handleListCommand(cmd, cmds, formatter)

	// Import/Export
	case "export":
		return handleExportCommand(cmd, cmds, formatter)
	case "import":
		return handleImportCommand(cmd, cmds, formatter, rl)

	// Utility commands
	case "help":
		return handleHelpCommand(cmd, formatter)
	case "quit", "exit":
		return errREPLExit
	case "clear":
		fmt.Fprint(formatter.out, "\033[2J\033[H")
		return nil

	default:
		formatter.PrintError(fmt.Sprintf("Unknown command: %s", cmd.Verb))
		formatter.PrintInfo("Type 'help' for available commands")
		return nil
	}
}

// Command handlers

func handleToggleCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	// toggle <target>
	if len(cmd.Args) < 1 {
		formatter.PrintError("toggle requires a node")
		return nil
	}
	target, err := resolveTarget(cmds, cmd.Args[0])
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}

	if err := cmds.ToggleCollapse(target); err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	formatter.PrintSuccess("Toggled " + target.String())
	return nil
}

func handleEditCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	// edit <target>: enter rename mode, which blanks the name
	if len(cmd.Args) < 1 {
		formatter.PrintError("edit requires a node")
		return nil
	}
	target, err := resolveTarget(cmds, cmd.Args[0])
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}

	if err := cmds.Rename(target, true, ""); err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	formatter.PrintSuccess("Editing " + target.String())
	if target.ByName {
		formatter.PrintInfo("The name is now blank; commit with: rename \"\" <new name>")
	}
	return nil
}

func handleRenameCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	// rename <target> <new name...>
	if len(cmd.Args) < 2 {
		formatter.PrintError("rename requires a node and a new name")
		return nil
	}
	target, err := resolveTarget(cmds, cmd.Args[0])
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	newName := strings.Join(cmd.Args[1:], " ")

	if err := cmds.Rename(target, false, newName); err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	formatter.PrintSuccess(fmt.Sprintf("Renamed %s to %q", target, newName))
	return nil
}

func handleSetCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	// set data <target> <text...>
	if cmd.Sub() != "data" {
		formatter.PrintError("set requires 'data' argument")
		return nil
	}
	if len(cmd.Args) < 2 {
		formatter.PrintError("set data requires a node")
		return nil
	}
	target, err := resolveTarget(cmds, cmd.Args[1])
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	data := strings.Join(cmd.Args[2:], " ")

	if err := cmds.SetData(target, data); err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	formatter.PrintSuccess("Data set on " + target.String())
	return nil
}

func handleAddCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	// add child <target>
	if cmd.Sub() != "child" {
		formatter.PrintError("add requires 'child' argument")
		return nil
	}
	if len(cmd.Args) < 2 {
		formatter.PrintError("add child requires a parent node")
		return nil
	}
	target, err := resolveTarget(cmds, cmd.Args[1])
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}

	created, err := cmds.AddChild(target)
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	if len(created) == 0 {
		formatter.PrintInfo("No node matched " + target.String())
		return nil
	}
	for _, id := range created {
		formatter.PrintSuccess("Created child node: @" + shortID(id))
	}
	return nil
}

func handleShowCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	switch cmd.Sub() {
	case "tree", "":
		tree, err := cmds.GetTree()
		if err != nil {
			formatter.PrintError(err.Error())
			return nil
		}
		formatter.PrintTree(Flatten(tree, true))

	case "node":
		// show node <target>
		if len(cmd.Args) < 2 {
			formatter.PrintError("show node requires a node")
			return nil
		}
		target, err := resolveTarget(cmds, cmd.Args[1])
		if err != nil {
			formatter.PrintError(err.Error())
			return nil
		}
		if !target.ByName {
			node, err := cmds.GetNode(target.ID)
			if err != nil {
				formatter.PrintError(err.Error())
				return nil
			}
			formatter.PrintJSON(node)
			return nil
		}

		tree, err := cmds.GetTree()
		if err != nil {
			formatter.PrintError(err.Error())
			return nil
		}
		matched := 0
		for _, row := range Flatten(tree, false) {
			if row.Name != target.Name {
				continue
			}
			if node, ok := FindByID(tree, row.ID); ok {
				formatter.PrintJSON(node)
				matched++
			}
		}
		if matched == 0 {
			formatter.PrintError("no node named " + fmt.Sprintf("%q", target.Name))
		}

	case "export":
		return handleExportCommand(&REPLCommand{Verb: "export", Args: cmd.Args[1:]}, cmds, formatter)

	default:
		formatter.PrintError("show requires 'tree', 'node' or 'export'")
	}
	return nil
}

func handleListCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	if sub := cmd.Sub(); sub != "nodes" && sub != "" {
		formatter.PrintError("list requires 'nodes' argument")
		return nil
	}

	rows, err := cmds.ListNodes()
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		kind := "node"
		switch {
		case row.Children > 0:
			kind = "container"
		case row.HasData:
			kind = "leaf"
		}
		table = append(table, []string{
			"@" + shortID(row.ID),
			strings.Repeat("  ", row.Depth) + row.Name,
			kind,
			shortenString(row.Data, 40),
		})
	}
	formatter.PrintTable([]string{"ID", "NAME", "KIND", "DATA"}, table)
	return nil
}

func handleExportCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter) error {
	// export [json|yaml|html]
	name := ""
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}
	format, err := ParseFormat(name)
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}

	text, err := cmds.Export(format)
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	formatter.PrintText(text)
	return nil
}

func handleImportCommand(cmd *REPLCommand, cmds TagTreeCommands, formatter *REPLFormatter, rl lineReader) error {
	// import [json|yaml|html], then the document, ended by a blank line
	name := ""
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}
	format, err := ParseFormat(name)
	if err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	if rl == nil {
		formatter.PrintError("import needs an interactive session")
		return nil
	}

	formatter.PrintInfo(fmt.Sprintf("Enter %s tree (end with blank line):", format))

	var lines []string
	rl.SetPrompt("")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if err != nil {
			break
		}

		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	rl.SetPrompt(replPrompt)

	if len(lines) == 0 {
		formatter.PrintError("import requires tree data")
		return nil
	}

	if err := cmds.Import(strings.Join(lines, "\n"), format); err != nil {
		formatter.PrintError(err.Error())
		return nil
	}
	formatter.PrintSuccess("Tree imported")
	return nil
}

func handleHelpCommand(cmd *REPLCommand, formatter *REPLFormatter) error {
	if len(cmd.Args) > 0 {
		showSpecificHelp(formatter.out, strings.ToLower(cmd.Args[0]))
	} else {
		showMainHelp(formatter.out)
	}
	return nil
}

func showMainHelp(out io.Writer) {
	fmt.Fprint(out, `
Tree:
  toggle <node>                 Collapse or expand a node
  edit <node>                   Start renaming a node (blanks its name)
  rename <node> <new name>      Commit a new name
  set data <node> <text>        Set the data of a node
  add child <node>              Append a "New Child" node

Query:
  show tree                     Show the tree (collapsed nodes hide their children)
  show node <node>              Show a node as JSON
  list nodes                    List every node in a table

Import/Export:
  export [json|yaml|html]       Print the trimmed tree
  import [json|yaml|html]       Replace the tree (end input with a blank line)

Other:
  help [command]                Show help
  clear                         Clear the screen
  quit                          Leave the REPL

A <node> is either a name or @<id prefix>. A name applies to every node
with that name. Quote names with spaces: toggle "New Child"
`)
}

func showSpecificHelp(out io.Writer, command string) {
	helps := map[string]string{
		"toggle": `
toggle <node>
  Flips the collapsed flag.

  Examples:
    toggle child1
    toggle @3f2a
`,
		"edit": `
edit <node>
  Marks the node as being edited and blanks its name. Targeting by name
  means the node is now reachable by the empty name:
    edit child2
    rename "" NewName
`,
		"rename": `
rename <node> <new name>
  Commits a name and clears the editing flag.
`,
		"set": `
set data <node> <text>
  Sets the data of a node. Children are not touched.
`,
		"add": `
add child <node>
  Clears the node's data and appends a "New Child" node with data "Data".
`,
		"show": `
show tree               Show the tree diagram
show node <node>        Show a node as JSON
show export [format]    Same as export
`,
		"export": `
export [json|yaml|html]
  Prints the tree without view state. Empty data is omitted.
`,
		"import": `
import [json|yaml|html]
  Reads a tree document until a blank line and replaces the current tree.
`,
	}

	if help, ok := helps[command]; ok {
		fmt.Fprintln(out, help)
	} else {
		fmt.Fprintf(out, "No help available for '%s'\n", command)
		fmt.Fprintln(out, "Type 'help' for a list of all commands")
	}
}

// REPLSession manages the REPL interactive session
type REPLSession struct {
	client    *SocketClient
	cmds      TagTreeCommands
	formatter *REPLFormatter
	socket    string
}

// NewREPLSession connects to the socket server at socketPath
func NewREPLSession(socketPath string, useColor bool) (*REPLSession, error) {
	client, err := NewSocketClient(socketPath)
	if err != nil {
		return nil, err
	}

	return &REPLSession{
		client:    client,
		cmds:      NewSocketClientCommands(client),
		formatter: NewREPLFormatter(os.Stdout, useColor),
		socket:    socketPath,
	}, nil
}

// Run starts the interactive REPL loop
func (rs *REPLSession) Run() error {
	defer rs.client.Close()

	rl, err := readline.New(replPrompt)
	if err != nil {
		return err
	}
	defer rl.Close()

	rs.formatter.PrintInfo("TagTree REPL")
	rs.formatter.PrintInfo("Connected to socket server at " + rs.socket)
	rs.formatter.PrintInfo("Type 'help' for available commands")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if err != nil {
			if errors.Is(err, io.EOF) || err.Error() == "EOF" {
				fmt.Fprintln(rs.formatter.out)
				break
			}
			rs.formatter.PrintError(err.Error())
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			rs.formatter.PrintError(err.Error())
			continue
		}

		if err := ExecuteREPLCommand(cmd, rs.cmds, rs.formatter, rl); err != nil {
			if errors.Is(err, errREPLExit) {
				break
			}
			rs.formatter.PrintError(err.Error())
		}
	}

	rs.formatter.PrintInfo("Goodbye!")
	return nil
}

// Helper functions

// shortID returns the first eight characters of an ID
func shortID(id string) string {
	runes := []rune(id)
	if len(runes) <= 8 {
		return id
	}
	return string(runes[:8])
}

// shortenString limits s to maxLen runes, marking a cut with "..."
func shortenString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
