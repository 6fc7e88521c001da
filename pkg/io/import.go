package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/causalog/pkg/dag"
	errs "github.com/matzehuels/causalog/pkg/errors"
)

// Format identifies a batch encoding.
type Format string

// Supported batch encodings.
const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. The empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "":
		return FormatJSON, nil
	case "ndjson":
		return FormatJSONL, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q (want json, jsonl or yaml)", s)
	}
}

// DetectFormat guesses the encoding from the file extension. Unknown
// extensions, including "-" for stdin, are treated as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type batch struct {
	Nodes []dag.LogNode `json:"nodes" yaml:"nodes"`
}

// ReadNodes decodes a batch of log records from r in the given format.
// Records keep their input order. ReadNodes does not close r.
func ReadNodes(r io.Reader, format Format) ([]dag.LogNode, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read batch")
	}

	var nodes []dag.LogNode
	switch format {
	case FormatJSON, "":
		nodes, err = decodeJSON(data)
	case FormatJSONL:
		nodes, err = decodeJSONL(data)
	case FormatYAML:
		nodes, err = decodeYAML(data)
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode %s batch", format)
	}
	return nodes, nil
}

func decodeJSON(data []byte) ([]dag.LogNode, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var nodes []dag.LogNode
		err := json.Unmarshal(trimmed, &nodes)
		return nodes, err
	}
	var b batch
	err := json.Unmarshal(trimmed, &b)
	return b.Nodes, err
}

func decodeJSONL(data []byte) ([]dag.LogNode, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var nodes []dag.LogNode
	for dec.More() {
		var n dag.LogNode
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(nodes)+1, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeYAML(data []byte) ([]dag.LogNode, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var nodes []dag.LogNode
		err := doc.Decode(&nodes)
		return nodes, err
	}
	var b batch
	err := doc.Decode(&b)
	return b.Nodes, err
}

// ImportNodes reads a batch from the file at path, detecting the format from
// the extension. A path of "-" reads JSON from stdin.
func ImportNodes(path string) ([]dag.LogNode, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	if path == "-" {
		return ReadNodes(os.Stdin, FormatJSON)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadNodes(f, DetectFormat(path))
}

// ValidateNodes checks every record id. Repeated ids are allowed: the graph
// treats a later record as a replacement of the earlier one. Parent
// references are not checked; unknown parents are the graph's concern.
func ValidateNodes(nodes []dag.LogNode) error {
	for i, n := range nodes {
		if err := errs.ValidateNodeID(n.ID); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidNode, err, "record %d", i)
		}
	}
	return nil
}

// Duplicates returns the ids that occur more than once in nodes, in order of
// their second occurrence.
func Duplicates(nodes []dag.LogNode) []string {
	seen := make(map[string]int, len(nodes))
	var dups []string
	for _, n := range nodes {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
	}
	return dups
}
