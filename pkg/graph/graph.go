package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input formats accepted by [ReadGraph].
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath infers the input format from a file extension.
// Anything that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Graph I/O
// =============================================================================

// MarshalGraph encodes a graph as indented JSON.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraphFile reads a JSON or YAML graph file and validates it.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f, FormatFromPath(path))
}

// ReadGraph decodes a graph in the given format and validates it.
func ReadGraph(r io.Reader, format string) (*Graph, error) {
	var g Graph
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&g); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&g); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	if err := Validate(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// =============================================================================
// Layout I/O
// =============================================================================

// MarshalLayout encodes a layout as indented JSON.
func MarshalLayout(l *Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout decodes a JSON layout.
func UnmarshalLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}

// WriteLayoutFile writes a layout to a JSON file.
func WriteLayoutFile(l *Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a JSON layout file.
func ReadLayoutFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

// IsLayoutDocument reports whether raw JSON looks like a positioned layout
// rather than an input graph.
func IsLayoutDocument(data []byte) bool {
	var head struct {
		Nodes []struct {
			Corner *Point `json:"bottom_left_corner"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return false
	}
	return len(head.Nodes) > 0 && head.Nodes[0].Corner != nil
}
