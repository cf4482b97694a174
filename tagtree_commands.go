package main

import (
	"encoding/json"
	"errors"
)

// ErrMissingParam is returned when a command lacks a required parameter.
var ErrMissingParam = errors.New("missing required parameter")

// Command represents a JSON command sent over the socket
type Command struct {
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params"`
}

// Response represents a JSON response from command execution
type Response struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ExecuteCommand executes a JSON command and returns a JSON response
func (tc *TagTreeCore) ExecuteCommand(cmdJSON string) string {
	var cmd Command
	if err := json.Unmarshal([]byte(cmdJSON), &cmd); err != nil {
		return errorResponse("Invalid JSON: " + err.Error())
	}

	switch cmd.Action {
	case "get_tree":
		return tc.cmdGetTree(cmd.Params)
	case "get_node":
		return tc.cmdGetNode(cmd.Params)
	case "list_nodes":
		return tc.cmdListNodes(cmd.Params)
	case "toggle_collapse":
		return tc.cmdToggleCollapse(cmd.Params)
	case "rename":
		return tc.cmdRename(cmd.Params)
	case "set_data":
		return tc.cmdSetData(cmd.Params)
	case "add_child":
		return tc.cmdAddChild(cmd.Params)
	case "export":
		return tc.cmdExport(cmd.Params)
	case "import_tree":
		return tc.cmdImportTree(cmd.Params)
	default:
		return errorResponse("Unknown action: " + cmd.Action)
	}
}

// ============================================================================
// Command Handlers
// ============================================================================

func (tc *TagTreeCore) cmdGetTree(params map[string]interface{}) string {
	tree, err := tc.GetTree()
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"tree": tree,
	})
}

func (tc *TagTreeCore) cmdGetNode(params map[string]interface{}) string {
	nodeID := getStr(params, "node_id", "")
	if nodeID == "" {
		return errorResponse(ErrMissingParam.Error() + ": node_id")
	}

	node, err := tc.GetNode(nodeID)
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"node": node,
	})
}

func (tc *TagTreeCore) cmdListNodes(params map[string]interface{}) string {
	rows, err := tc.ListNodes()
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"nodes": rows,
	})
}

func (tc *TagTreeCore) cmdToggleCollapse(params map[string]interface{}) string {
	target, err := getTarget(params)
	if err != nil {
		return errorResponse(err.Error())
	}
	if err := tc.ToggleCollapse(target); err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"success": true,
	})
}

// cmdRename begins (editing=true) or commits (editing=false) a rename
func (tc *TagTreeCore) cmdRename(params map[string]interface{}) string {
	target, err := getTarget(params)
	if err != nil {
		return errorResponse(err.Error())
	}
	editing := getBool(params, "editing", false)
	newName := getStr(params, "new_name", "")

	if err := tc.Rename(target, editing, newName); err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"success": true,
	})
}

func (tc *TagTreeCore) cmdSetData(params map[string]interface{}) string {
	target, err := getTarget(params)
	if err != nil {
		return errorResponse(err.Error())
	}
	data, ok := params["data"].(string)
	if !ok {
		return errorResponse(ErrMissingParam.Error() + ": data")
	}

	if err := tc.SetData(target, data); err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"success": true,
	})
}

func (tc *TagTreeCore) cmdAddChild(params map[string]interface{}) string {
	target, err := getTarget(params)
	if err != nil {
		return errorResponse(err.Error())
	}

	created, err := tc.AddChild(target)
	if err != nil {
		return errorResponse(err.Error())
	}
	if created == nil {
		created = []string{}
	}
	return successResponse(map[string]interface{}{
		"node_ids": created,
	})
}

func (tc *TagTreeCore) cmdExport(params map[string]interface{}) string {
	format, err := ParseFormat(getStr(params, "format", ""))
	if err != nil {
		return errorResponse(err.Error())
	}

	text, err := tc.Export(format)
	if err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"format": format,
		"text":   text,
	})
}

func (tc *TagTreeCore) cmdImportTree(params map[string]interface{}) string {
	text := getStr(params, "text", "")
	if text == "" {
		return errorResponse(ErrMissingParam.Error() + ": text")
	}
	format, err := ParseFormat(getStr(params, "format", ""))
	if err != nil {
		return errorResponse(err.Error())
	}

	if err := tc.Import(text, format); err != nil {
		return errorResponse(err.Error())
	}
	return successResponse(map[string]interface{}{
		"success": true,
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// getStr safely extracts a string parameter, with a default value
func getStr(params map[string]interface{}, key, defaultValue string) string {
	if val, ok := params[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return defaultValue
}

// getBool safely extracts a boolean parameter, with a default value
func getBool(params map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := params[key]; ok {
		if boolVal, ok := val.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}

// getTarget reads node_id, or name when node_id is absent. A present but empty
// name is a valid target.
func getTarget(params map[string]interface{}) (Target, error) {
	if nodeID := getStr(params, "node_id", ""); nodeID != "" {
		return ByID(nodeID), nil
	}
	if name, ok := params["name"].(string); ok {
		return ByName(name), nil
	}
	return Target{}, errors.New(ErrMissingParam.Error() + ": node_id or name")
}

// targetParams is the inverse of getTarget, used by clients
func targetParams(target Target) map[string]interface{} {
	if target.ByName {
		return map[string]interface{}{"name": target.Name}
	}
	return map[string]interface{}{"node_id": target.ID}
}

// successResponse creates a successful response
func successResponse(result interface{}) string {
	resp := Response{
		Success: true,
		Result:  result,
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

// errorResponse creates an error response
func errorResponse(errorMsg string) string {
	resp := Response{
		Success: false,
		Error:   errorMsg,
	}
	data, _ := json.Marshal(resp)
	return string(data)
}
