package main

// SocketClientCommands wraps a SocketClient to implement the TagTreeCommands interface.
// This allows the TUI to use the same interface whether connected to a socket server
// or using TagTreeCore directly.
type SocketClientCommands struct {
	client *SocketClient
}

// NewSocketClientCommands creates a new socket client wrapper
func NewSocketClientCommands(client *SocketClient) *SocketClientCommands {
	return &SocketClientCommands{client: client}
}

// ToggleCollapse implements TagTreeCommands.ToggleCollapse
func (s *SocketClientCommands) ToggleCollapse(target Target) error {
	return s.client.Call("toggle_collapse", targetParams(target), nil)
}

// Rename implements TagTreeCommands.Rename
func (s *SocketClientCommands) Rename(target Target, editing bool, newName string) error {
	params := targetParams(target)
	params["editing"] = editing
	params["new_name"] = newName
	return s.client.Call("rename", params, nil)
}

// SetData implements TagTreeCommands.SetData
func (s *SocketClientCommands) SetData(target Target, data string) error {
	params := targetParams(target)
	params["data"] = data
	return s.client.Call("set_data", params, nil)
}

// AddChild implements TagTreeCommands.AddChild
func (s *SocketClientCommands) AddChild(target Target) ([]string, error) {
	var result struct {
		NodeIDs []string `json:"node_ids"`
	}
	if err := s.client.Call("add_child", targetParams(target), &result); err != nil {
		return nil, err
	}
	return result.NodeIDs, nil
}

// GetTree implements TagTreeCommands.GetTree
func (s *SocketClientCommands) GetTree() (Node, error) {
	var result struct {
		Tree Node `json:"tree"`
	}
	if err := s.client.Call("get_tree", nil, &result); err != nil {
		return Node{}, err
	}
	return result.Tree, nil
}

// GetNode implements TagTreeCommands.GetNode
func (s *SocketClientCommands) GetNode(nodeID string) (Node, error) {
	var result struct {
		Node Node `json:"node"`
	}
	err := s.client.Call("get_node", map[string]interface{}{"node_id": nodeID}, &result)
	if err != nil {
		return Node{}, err
	}
	return result.Node, nil
}

// ListNodes implements TagTreeCommands.ListNodes
func (s *SocketClientCommands) ListNodes() ([]NodeRow, error) {
	var result struct {
		Nodes []NodeRow `json:"nodes"`
	}
	if err := s.client.Call("list_nodes", nil, &result); err != nil {
		return nil, err
	}
	return result.Nodes, nil
}

// Export implements TagTreeCommands.Export
func (s *SocketClientCommands) Export(format Format) (string, error) {
	var result struct {
		Text string `json:"text"`
	}
	err := s.client.Call("export", map[string]interface{}{"format": string(format)}, &result)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Import implements TagTreeCommands.Import
func (s *SocketClientCommands) Import(text string, format Format) error {
	return s.client.Call("import_tree", map[string]interface{}{
		"text":   text,
		"format": string(format),
	}, nil)
}
