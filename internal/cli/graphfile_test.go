package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"loom/internal/task"
)

func writeGraphFile(t *testing.T, dir string, gf graphFile) string {
	t.Helper()
	path := filepath.Join(dir, "graph.json")
	b, err := json.Marshal(gf)
	if err != nil {
		t.Fatalf("marshal graph: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}
	return path
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestLoadGraphFromFile_BuildsApplyChainWithReferences(t *testing.T) {
	task.Register("cli-test.add", func(args ...any) (any, error) {
		return args[0].(float64) + args[1].(float64), nil
	})
	task.Register("cli-test.double", func(args ...any) (any, error) {
		return args[0].(float64) * 2, nil
	})

	dir := t.TempDir()
	path := writeGraphFile(t, dir, graphFile{
		Nodes: []nodeSpec{
			{Name: "a", Func: "cli-test.add", Args: []json.RawMessage{rawJSON(t, 1.0), rawJSON(t, 2.0)}},
			{Name: "b", Func: "cli-test.double", Args: []json.RawMessage{rawJSON(t, "$a")}},
		},
		Root: "b",
	})

	c, err := LoadGraphFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apply, ok := c.(*task.Computation)
	if !ok {
		t.Fatalf("expected *task.Computation root, got %T", c)
	}
	if apply.Name != "cli-test.double" {
		t.Fatalf("expected root func cli-test.double, got %q", apply.Name)
	}
	if len(apply.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(apply.Args))
	}
	if _, ok := apply.Args[0].(*task.Computation); !ok {
		t.Fatalf("expected referenced node to resolve to the earlier Apply computation")
	}
}

func TestLoadGraphFromFile_RejectsUnknownRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeGraphFile(t, dir, graphFile{
		Nodes: []nodeSpec{{Name: "a", Func: "cli-test.noop"}},
		Root:  "does-not-exist",
	})
	if _, err := LoadGraphFromFile(path); err == nil {
		t.Fatalf("expected an error for an unknown root")
	}
}

func TestLoadGraphFromFile_RejectsUndefinedReference(t *testing.T) {
	dir := t.TempDir()
	path := writeGraphFile(t, dir, graphFile{
		Nodes: []nodeSpec{
			{Name: "a", Func: "cli-test.noop", Args: []json.RawMessage{rawJSON(t, "$missing")}},
		},
		Root: "a",
	})
	if _, err := LoadGraphFromFile(path); err == nil {
		t.Fatalf("expected an error for an undefined reference")
	}
}

func TestLoadGraphFromFile_RejectsDuplicateNodeNames(t *testing.T) {
	dir := t.TempDir()
	path := writeGraphFile(t, dir, graphFile{
		Nodes: []nodeSpec{
			{Name: "a", Func: "cli-test.noop"},
			{Name: "a", Func: "cli-test.noop"},
		},
		Root: "a",
	})
	if _, err := LoadGraphFromFile(path); err == nil {
		t.Fatalf("expected an error for duplicate node names")
	}
}

func TestLoadGraphFromFile_RejectsTrailingData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	gf := graphFile{Nodes: []nodeSpec{{Name: "a", Func: "cli-test.noop"}}, Root: "a"}
	b, _ := json.Marshal(gf)
	b = append(b, []byte(`{"extra":true}`)...)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}
	if _, err := LoadGraphFromFile(path); err == nil {
		t.Fatalf("expected an error for trailing data")
	}
}
