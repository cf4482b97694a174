package main

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNodeNotFound is returned when an ID target names no node in the tree.
var ErrNodeNotFound = errors.New("node not found")

// ChangeCallback is called with the new tree after every replacement.
type ChangeCallback func(Node)

// TagTreeCore is the headless owner of the current tree. Every operation
// computes a new root with the pure model functions and swaps it in.
type TagTreeCore struct {
	mu        sync.Mutex
	tree      Node
	logger    *zap.Logger
	callbacks []ChangeCallback
}

// NewTagTreeCore creates a core holding root. Nodes without an ID get one.
func NewTagTreeCore(root Node, logger *zap.Logger) *TagTreeCore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagTreeCore{
		tree:   EnsureIDs(root),
		logger: logger,
	}
}

// OnChange registers a callback run after each tree replacement.
func (tc *TagTreeCore) OnChange(callback ChangeCallback) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.callbacks = append(tc.callbacks, callback)
}

// ============================================================================
// Tree Operations
// ============================================================================

// ToggleCollapse implements TagTreeCommands.ToggleCollapse
func (tc *TagTreeCore) ToggleCollapse(target Target) error {
	return tc.apply("toggle_collapse", target, toggleCollapsed)
}

// Rename implements TagTreeCommands.Rename
func (tc *TagTreeCore) Rename(target Target, editing bool, newName string) error {
	return tc.apply("rename", target, renamed(editing, newName))
}

// SetData implements TagTreeCommands.SetData
func (tc *TagTreeCore) SetData(target Target, data string) error {
	return tc.apply("set_data", target, withData(data))
}

// AddChild implements TagTreeCommands.AddChild
func (tc *TagTreeCore) AddChild(target Target) ([]string, error) {
	var created []string
	err := tc.apply("add_child", target, appendChild(func(child Node) {
		created = append(created, child.ID)
	}))
	if err != nil {
		return nil, err
	}
	return created, nil
}

// apply runs fn over the nodes selected by target and replaces the tree.
// A name target that matches nothing is a no-op; an unknown ID is an error.
func (tc *TagTreeCore) apply(op string, target Target, fn NodeFunc) error {
	tc.mu.Lock()

	match := target.Matcher()
	matches := CountMatches(tc.tree, match)
	if !target.ByName && matches == 0 {
		tc.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, target.ID)
	}
	if matches > 1 {
		tc.logger.Warn("operation applies to several nodes sharing a name",
			zap.String("op", op),
			zap.String("name", target.Name),
			zap.Int("matches", matches))
	}

	tc.tree = Transform(tc.tree, match, fn)
	tree := tc.tree
	callbacks := append([]ChangeCallback{}, tc.callbacks...)
	tc.mu.Unlock()

	tc.logger.Debug("tree updated",
		zap.String("op", op),
		zap.Stringer("target", target),
		zap.Int("matches", matches))

	for _, callback := range callbacks {
		callback(tree)
	}
	return nil
}

// Replace swaps in a whole new tree.
func (tc *TagTreeCore) Replace(root Node) {
	root = EnsureIDs(root)

	tc.mu.Lock()
	tc.tree = root
	callbacks := append([]ChangeCallback{}, tc.callbacks...)
	tc.mu.Unlock()

	tc.logger.Info("tree replaced", zap.String("root", root.Name))
	for _, callback := range callbacks {
		callback(root)
	}
}

// ============================================================================
// Query Methods
// ============================================================================

// GetTree implements TagTreeCommands.GetTree
func (tc *TagTreeCore) GetTree() (Node, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.tree, nil
}

// GetNode implements TagTreeCommands.GetNode
func (tc *TagTreeCore) GetNode(nodeID string) (Node, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	node, ok := FindByID(tc.tree, nodeID)
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return node, nil
}

// ListNodes implements TagTreeCommands.ListNodes
func (tc *TagTreeCore) ListNodes() ([]NodeRow, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return Flatten(tc.tree, false), nil
}

// ============================================================================
// Import/Export Methods
// ============================================================================

// Export implements TagTreeCommands.Export
func (tc *TagTreeCore) Export(format Format) (string, error) {
	tree, err := tc.GetTree()
	if err != nil {
		return "", err
	}
	return Encode(TrimForExport(tree), format)
}

// Import implements TagTreeCommands.Import
func (tc *TagTreeCore) Import(text string, format Format) error {
	root, err := LoadTree(text, format)
	if err != nil {
		return err
	}
	tc.Replace(root)
	return nil
}
