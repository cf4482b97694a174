package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a textual tree representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// ErrUnknownFormat is returned for format names the serializer does not know.
var ErrUnknownFormat = errors.New("unknown format")

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatHTML}
}

// ParseFormat converts a user supplied format name. The empty string means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	format, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return format
}

// Serialize renders an export tree as canonical JSON text: two-space indent,
// keys in name, children, data order.
func Serialize(e ExportNode) (string, error) {
	return Encode(e, FormatJSON)
}

// ParseExport parses text produced by Serialize.
func ParseExport(text string) (ExportNode, error) {
	return Decode(text, FormatJSON)
}

// Encode renders an export tree in the given format.
func Encode(e ExportNode, format Format) (string, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e); err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(e); err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	case FormatHTML:
		return encodeHTML(e)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Decode parses an export tree from text in the given format.
func Decode(text string, format Format) (ExportNode, error) {
	var e ExportNode
	if strings.TrimSpace(text) == "" {
		return e, errors.New("empty document")
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return e, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(text), &e); err != nil {
			return e, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatHTML:
		return decodeHTML(text)
	default:
		return e, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return e, nil
}

// LoadTree parses a full tree document. JSON and YAML documents keep view
// state and IDs when present; nodes without an ID get one. HTML outlines
// carry structure and content only.
func LoadTree(text string, format Format) (Node, error) {
	var root Node
	if strings.TrimSpace(text) == "" {
		return root, errors.New("empty document")
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal([]byte(text), &root); err != nil {
			return root, fmt.Errorf("load json tree: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(text), &root); err != nil {
			return root, fmt.Errorf("load yaml tree: %w", err)
		}
	case FormatHTML:
		e, err := decodeHTML(text)
		if err != nil {
			return root, err
		}
		return ImportTree(e), nil
	default:
		return root, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return EnsureIDs(root), nil
}

// MarshalYAML builds the YAML document by hand so that strings starting with a
// newline are double quoted. yaml.v3 writes those as literal blocks and the
// leading newline is lost when the block is read back.
func (e ExportNode) MarshalYAML() (interface{}, error) {
	return yamlExportNode(e), nil
}

func yamlExportNode(e ExportNode) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content, yamlString("name"), yamlString(e.Name))

	if len(e.Children) > 0 {
		children := &yaml.Node{Kind: yaml.SequenceNode}
		for _, child := range e.Children {
			children.Content = append(children.Content, yamlExportNode(child))
		}
		node.Content = append(node.Content, yamlString("children"), children)
	}

	if e.Data != "" {
		node.Content = append(node.Content, yamlString("data"), yamlString(e.Data))
	}
	return node
}

func yamlString(s string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.HasPrefix(s, "\n") {
		node.Style = yaml.DoubleQuotedStyle
	}
	return node
}
