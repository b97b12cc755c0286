package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	dynio "github.com/matzehuels/dynlayout/pkg/io"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
)

const testGraph = `{
  "nodes": [
    {"id": "a", "presence": [{"from": 0, "to": 4}]},
    {"id": "b", "presence": [{"from": 0, "to": 4}]},
    {"id": "c", "presence": [{"from": 2, "to": 4}]}
  ],
  "edges": [
    {"id": "ab", "from": "a", "to": "b", "presence": [{"from": 0, "to": 4}]},
    {"id": "bc", "from": "b", "to": "c", "presence": [{"from": 2, "to": 4}]}
  ]
}`

func TestMergeOptions(t *testing.T) {
	var opts pipeline.Options
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindLayoutFlags(fs, &opts)
	if err := fs.Parse([]string{"--iterations", "7", "--strategy", "solar"}); err != nil {
		t.Fatal(err)
	}

	file := pipeline.Options{Iterations: 99, Strategy: "identity", TauMode: "nodes", Bends: true}
	mergeOptions(fs, &opts, file)

	if opts.Iterations != 7 {
		t.Errorf("Iterations = %d, want flag value 7", opts.Iterations)
	}
	if opts.Strategy != "solar" {
		t.Errorf("Strategy = %q, want flag value solar", opts.Strategy)
	}
	if opts.TauMode != "nodes" {
		t.Errorf("TauMode = %q, want file value nodes", opts.TauMode)
	}
	if !opts.Bends {
		t.Error("Bends should come from the file")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, suffix, want string
	}{
		{"graph.json", ".layout.json", "graph.layout.json"},
		{"dir/g.json", ".layout.json", "dir/g.layout.json"},
		{"noext", ".layout.json", "noext.layout.json"},
		{"g.layout.json", "", "g.layout"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.suffix); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
		}
	}
}

func TestSnapshotName(t *testing.T) {
	tests := []struct {
		t    float64
		want string
	}{
		{0, "g.t0.svg"},
		{2.5, "g.t2.5.svg"},
		{-1, "g.t-1.svg"},
	}
	for _, tt := range tests {
		if got := snapshotName("g", tt.t, "svg"); got != tt.want {
			t.Errorf("snapshotName(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestRunLayoutAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "g.json")
	if err := os.WriteFile(input, []byte(testGraph), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(io.Discard, log.InfoLevel)
	ctx := context.Background()

	output := filepath.Join(dir, "g.layout.json")
	statsPath := filepath.Join(dir, "g.stats.json")
	opts := pipeline.Options{Algorithm: pipeline.AlgorithmSingle, Iterations: 10}
	if err := c.runLayout(ctx, input, output, statsPath, cacheNone, false, opts); err != nil {
		t.Fatalf("runLayout: %v", err)
	}

	g, err := dynio.ImportDynamic(output)
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	for _, n := range g.Nodes() {
		if _, ok := n.Attribute("nodePosition"); !ok {
			t.Errorf("node %s has no position", n.ID)
		}
	}
	if _, err := os.Stat(statsPath); err != nil {
		t.Errorf("stats file: %v", err)
	}

	snapDir := filepath.Join(dir, "snaps")
	snapOpts := pipeline.SnapshotOptions{Format: "dot", Scale: 1}
	if err := c.runSnapshot(ctx, output, []float64{1}, true, snapDir, cacheNone, snapOpts); err != nil {
		t.Fatalf("runSnapshot: %v", err)
	}
	entries, err := os.ReadDir(snapDir)
	if err != nil {
		t.Fatal(err)
	}
	// t=1 plus the event times 0, 2 and 4.
	if len(entries) != 4 {
		t.Errorf("rendered %d snapshots, want 4", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(snapDir, "g.layout.t1.dot"))
	if err != nil {
		t.Fatalf("snapshot at t=1: %v", err)
	}
	if strings.Contains(string(data), `"c"`) {
		t.Error("node c is not present at t=1")
	}
}
