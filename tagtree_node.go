package main

import (
	"github.com/google/uuid"
)

const (
	defaultChildName = "New Child"
	defaultChildData = "Data"
)

// Node is a single entry in the tag tree. A node with children is a container,
// a node with data is a leaf.
type Node struct {
	ID        string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string  `json:"name" yaml:"name"`
	Children  []Node  `json:"children,omitempty" yaml:"children,omitempty"`
	Data      *string `json:"data,omitempty" yaml:"data,omitempty"`
	Collapsed bool    `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	Editing   bool    `json:"editing,omitempty" yaml:"editing,omitempty"`
}

// ExportNode is the trimmed projection of a Node: structure and content only.
// Field order is the serialized key order.
type ExportNode struct {
	Name     string       `json:"name" yaml:"name"`
	Children []ExportNode `json:"children,omitempty" yaml:"children,omitempty"`
	Data     string       `json:"data,omitempty" yaml:"data,omitempty"`
}

// NodeRow is a flattened view of one node, used for listings and rendering.
type NodeRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Depth     int    `json:"depth"`
	Data      string `json:"data,omitempty"`
	HasData   bool   `json:"has_data"`
	Children  int    `json:"children"`
	Collapsed bool   `json:"collapsed,omitempty"`
	Editing   bool   `json:"editing,omitempty"`
}

// newNodeID returns a fresh identity for a node.
var newNodeID = uuid.NewString

// strPtr returns a pointer to a copy of s.
func strPtr(s string) *string {
	return &s
}

// IsLeaf reports whether the node currently carries data.
func (n Node) IsLeaf() bool {
	return n.Data != nil
}

// DataValue returns the node data, or "" when absent.
func (n Node) DataValue() string {
	if n.Data == nil {
		return ""
	}
	return *n.Data
}

// newChild builds the node appended by AddChild.
func newChild() Node {
	return Node{
		ID:   newNodeID(),
		Name: defaultChildName,
		Data: strPtr(defaultChildData),
	}
}

// EnsureIDs returns a copy of root in which every node without an ID has been
// given one. Existing IDs are kept.
func EnsureIDs(root Node) Node {
	if root.ID == "" {
		root.ID = newNodeID()
	}
	if root.Children != nil {
		children := make([]Node, len(root.Children))
		for i, child := range root.Children {
			children[i] = EnsureIDs(child)
		}
		root.Children = children
	}
	return root
}

// FindByID searches the tree depth-first for the node with the given ID.
func FindByID(root Node, id string) (Node, bool) {
	if root.ID == id {
		return root, true
	}
	for _, child := range root.Children {
		if found, ok := FindByID(child, id); ok {
			return found, true
		}
	}
	return Node{}, false
}

// CountMatches counts the nodes an operation with the given matcher would
// touch. A matched node's subtree is not searched, mirroring Transform.
func CountMatches(root Node, match Matcher) int {
	if match(root) {
		return 1
	}
	count := 0
	for _, child := range root.Children {
		count += CountMatches(child, match)
	}
	return count
}

// Flatten lists the tree depth-first. When visibleOnly is set, the children
// of collapsed nodes are skipped.
func Flatten(root Node, visibleOnly bool) []NodeRow {
	var rows []NodeRow
	flattenInto(&rows, root, 0, visibleOnly)
	return rows
}

func flattenInto(rows *[]NodeRow, node Node, depth int, visibleOnly bool) {
	*rows = append(*rows, NodeRow{
		ID:        node.ID,
		Name:      node.Name,
		Depth:     depth,
		Data:      node.DataValue(),
		HasData:   node.IsLeaf(),
		Children:  len(node.Children),
		Collapsed: node.Collapsed,
		Editing:   node.Editing,
	})
	if visibleOnly && node.Collapsed {
		return
	}
	for _, child := range node.Children {
		flattenInto(rows, child, depth+1, visibleOnly)
	}
}

// sampleTree is the tree an editor starts with when no file is given.
func sampleTree() Node {
	return EnsureIDs(Node{
		Name: "root",
		Children: []Node{
			{
				Name: "child1",
				Children: []Node{
					{Name: "child1-child1", Data: strPtr("c1-c1 Hello")},
					{Name: "child1-child2", Data: strPtr("c1-c2 JS")},
				},
			},
			{Name: "child2", Data: strPtr("c2 World")},
		},
	})
}
