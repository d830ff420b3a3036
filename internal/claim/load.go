package claim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the decoder for a claims document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// document is the object form of a claims file. Functions carries the
// name/calls listing models commonly emit; each call becomes a CALL claim.
type document struct {
	Claims    []RawClaim      `json:"claims" yaml:"claims"`
	Functions []functionEntry `json:"functions" yaml:"functions"`
}

type functionEntry struct {
	Name  string   `json:"name" yaml:"name"`
	Calls []string `json:"calls" yaml:"calls"`
}

// LoadFile reads raw claims from a YAML or JSON file, chosen by extension.
func LoadFile(path string) ([]RawClaim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read claims file: %w", err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	raws, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return raws, nil
}

// Parse decodes a claims document. A top-level list is a list of raw claims;
// an object may hold "claims" and/or "functions". JSON wrapped in a markdown
// code fence is accepted.
func Parse(data []byte, format Format) ([]RawClaim, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(stripFence(data))
	default:
		return nil, fmt.Errorf("unsupported claims format %q", format)
	}
}

func parseJSON(data []byte) ([]RawClaim, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var raws []RawClaim
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, err
		}
		return raws, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.rawClaims(), nil
}

func parseYAML(data []byte) ([]RawClaim, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var raws []RawClaim
		if err := node.Decode(&raws); err != nil {
			return nil, err
		}
		return raws, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.rawClaims(), nil
}

func (d document) rawClaims() []RawClaim {
	out := append([]RawClaim(nil), d.Claims...)
	for _, fn := range d.Functions {
		for _, callee := range fn.Calls {
			out = append(out, RawClaim{
				Caller: fn.Name,
				Callee: callee,
				Text:   fmt.Sprintf("%s calls %s", fn.Name, callee),
			})
		}
	}
	return out
}

// stripFence returns the body of the first ``` fenced block, if any.
func stripFence(data []byte) []byte {
	s := string(data)
	start := strings.Index(s, "```")
	if start < 0 {
		return data
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the info string, e.g. ```json
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return []byte(body)
}
