package main

import "fmt"

// Matcher decides whether an operation applies to a node.
type Matcher func(Node) bool

// NodeFunc rewrites a single matched node.
type NodeFunc func(Node) Node

// MatchName matches every node whose name equals name exactly.
func MatchName(name string) Matcher {
	return func(n Node) bool { return n.Name == name }
}

// MatchID matches the node carrying the given identity.
func MatchID(id string) Matcher {
	return func(n Node) bool { return n.ID == id }
}

// Target selects the node(s) an operation applies to. A name target fans out
// to every node with that name; an ID target selects at most one node.
type Target struct {
	ID     string
	Name   string
	ByName bool
}

// ByID targets a node by identity.
func ByID(id string) Target {
	return Target{ID: id}
}

// ByName targets every node with the given name, including the empty name.
func ByName(name string) Target {
	return Target{Name: name, ByName: true}
}

// Matcher returns the matcher for this target.
func (t Target) Matcher() Matcher {
	if t.ByName {
		return MatchName(t.Name)
	}
	return MatchID(t.ID)
}

func (t Target) String() string {
	if t.ByName {
		return fmt.Sprintf("name %q", t.Name)
	}
	return "id " + t.ID
}

// Transform is the traversal shared by every tree operation. A matched node is
// replaced by fn(node) and its subtree is left to fn. Otherwise the node is
// rebuilt with transformed children, or returned unchanged when it has none.
// The input tree is never modified.
func Transform(node Node, match Matcher, fn NodeFunc) Node {
	if match(node) {
		return fn(node)
	}
	if node.Children != nil {
		children := make([]Node, len(node.Children))
		for i, child := range node.Children {
			children[i] = Transform(child, match, fn)
		}
		node.Children = children
	}
	return node
}

// Per-node transforms

func toggleCollapsed(n Node) Node {
	n.Collapsed = !n.Collapsed
	return n
}

func renamed(editing bool, newName string) NodeFunc {
	return func(n Node) Node {
		n.Editing = editing
		n.Name = newName
		return n
	}
}

func withData(data string) NodeFunc {
	return func(n Node) Node {
		n.Data = strPtr(data)
		return n
	}
}

// appendChild clears the node's data and appends a fresh default child. The
// created child is passed to created, when set.
func appendChild(created func(Node)) NodeFunc {
	return func(n Node) Node {
		child := newChild()
		children := make([]Node, 0, len(n.Children)+1)
		children = append(children, n.Children...)
		n.Children = append(children, child)
		n.Data = nil
		if created != nil {
			created(child)
		}
		return n
	}
}

// ToggleCollapse flips the collapsed flag of every node named targetName.
func ToggleCollapse(root Node, targetName string) Node {
	return Transform(root, MatchName(targetName), toggleCollapsed)
}

// BeginOrCommitRename sets the editing flag of every node named targetName and
// overwrites its name with newName. Beginning an edit passes "" so the name is
// blanked until the user types.
func BeginOrCommitRename(root Node, targetName string, editing bool, newName string) Node {
	return Transform(root, MatchName(targetName), renamed(editing, newName))
}

// SetData sets the data of every node named targetName. Children are untouched.
func SetData(root Node, targetName, newData string) Node {
	return Transform(root, MatchName(targetName), withData(newData))
}

// AddChild turns every node named parentName into a container: its data is
// cleared and a default child is appended after any existing children.
func AddChild(root Node, parentName string) Node {
	return Transform(root, MatchName(parentName), appendChild(nil))
}

// TrimForExport projects the tree onto name, non-empty children and non-empty
// data. View state and identity are dropped.
func TrimForExport(node Node) ExportNode {
	trimmed := ExportNode{Name: node.Name}
	if len(node.Children) > 0 {
		trimmed.Children = make([]ExportNode, len(node.Children))
		for i, child := range node.Children {
			trimmed.Children[i] = TrimForExport(child)
		}
	}
	if node.Data != nil && *node.Data != "" {
		trimmed.Data = *node.Data
	}
	return trimmed
}

// ImportTree builds a model tree from an export projection, giving every node
// a fresh ID.
func ImportTree(e ExportNode) Node {
	node := Node{
		ID:   newNodeID(),
		Name: e.Name,
	}
	if len(e.Children) > 0 {
		node.Children = make([]Node, len(e.Children))
		for i, child := range e.Children {
			node.Children[i] = ImportTree(child)
		}
	}
	if e.Data != "" {
		node.Data = strPtr(e.Data)
	}
	return node
}
