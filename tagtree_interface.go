package main

// TagTreeCommands defines the interface for all tag tree operations.
// Both TagTreeCore (direct implementation) and SocketClientCommands (socket wrapper)
// implement this interface, so views work the same whether they own the core
// or talk to a running server.
type TagTreeCommands interface {
	// =========================================================================
	// Tree operations - each replaces the current tree with a new one
	// =========================================================================

	// ToggleCollapse flips the collapsed flag of the targeted node(s)
	ToggleCollapse(target Target) error

	// Rename sets the editing flag and overwrites the name of the targeted node(s)
	Rename(target Target, editing bool, newName string) error

	// SetData sets the data of the targeted node(s)
	SetData(target Target, data string) error

	// AddChild appends a default child to the targeted node(s) and returns the new IDs
	AddChild(target Target) ([]string, error)

	// =========================================================================
	// Queries
	// =========================================================================

	// GetTree returns the current tree
	GetTree() (Node, error)

	// GetNode returns a single node by ID
	GetNode(nodeID string) (Node, error)

	// ListNodes returns every node depth-first with its depth
	ListNodes() ([]NodeRow, error)

	// =========================================================================
	// Import/Export
	// =========================================================================

	// Export returns the trimmed tree serialized in the given format
	Export(format Format) (string, error)

	// Import replaces the current tree with one parsed from text
	Import(text string, format Format) error
}
