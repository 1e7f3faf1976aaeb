package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"loom/internal/graph"
	"loom/internal/task"
)

// nodeSpec is one entry of a graph file: a named application of a
// registered Func to a list of arguments, each either a JSON literal or a
// "$name" reference to an earlier node.
type nodeSpec struct {
	Name      string            `json:"name"`
	Func      string            `json:"func"`
	Args      []json.RawMessage `json:"args"`
	Persist   bool              `json:"persist,omitempty"`
	GetResult bool              `json:"get_result,omitempty"`
}

type graphFile struct {
	Nodes []nodeSpec `json:"nodes"`
	Root  string     `json:"root"`
}

// LoadGraphFromFile reads and parses the computation graph definition at
// path: a named sequence of Apply nodes, each referencing earlier nodes by
// a "$name" argument.
//
// Current supported format: JSON. The loader is deterministic — it
// disallows unknown fields and rejects trailing data — and nodes must
// appear in dependency order (a node's args may only reference nodes
// already defined above it).
func LoadGraphFromFile(path string) (graph.Computation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}

	var gf graphFile
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&gf); err != nil {
		return nil, fmt.Errorf("parse graph json: %w", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse graph json: trailing data")
		}
		return nil, fmt.Errorf("parse graph json: %w", err)
	}

	if len(gf.Nodes) == 0 {
		return nil, fmt.Errorf("parse graph json: no nodes")
	}
	if gf.Root == "" {
		return nil, fmt.Errorf("parse graph json: no root")
	}

	built := make(map[string]graph.Computation, len(gf.Nodes))
	for _, n := range gf.Nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("parse graph json: node with empty name")
		}
		if _, dup := built[n.Name]; dup {
			return nil, fmt.Errorf("parse graph json: duplicate node name %q", n.Name)
		}
		if n.Func == "" {
			return nil, fmt.Errorf("parse graph json: node %q has no func", n.Name)
		}

		args := make([]graph.Computation, 0, len(n.Args))
		for i, raw := range n.Args {
			arg, err := resolveArg(raw, built)
			if err != nil {
				return nil, fmt.Errorf("node %q arg %d: %w", n.Name, i, err)
			}
			args = append(args, arg)
		}

		c := task.Apply(n.Func, args...)
		if n.Persist {
			c.Persisted()
		}
		if n.GetResult {
			c.AsResult()
		}
		built[n.Name] = c
	}

	root, ok := built[gf.Root]
	if !ok {
		return nil, fmt.Errorf("parse graph json: root %q is not a defined node", gf.Root)
	}
	return root, nil
}

func resolveArg(raw json.RawMessage, built map[string]graph.Computation) (graph.Computation, error) {
	var ref string
	if err := json.Unmarshal(raw, &ref); err == nil && strings.HasPrefix(ref, "$") {
		name := strings.TrimPrefix(ref, "$")
		c, ok := built[name]
		if !ok {
			return nil, fmt.Errorf("reference to undefined node %q", name)
		}
		return c, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid argument literal: %w", err)
	}
	return task.Const(v), nil
}
