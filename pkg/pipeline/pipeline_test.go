package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/cache"
	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/interval"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

func pathGraph(t *testing.T, n int) *dyngraph.Graph {
	t.Helper()
	g := dyngraph.New()
	for i := 0; i < n; i++ {
		node, err := g.AddNode(fmt.Sprintf("n%02d", i))
		if err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		node.SetPresent(interval.MustClosed(0, 10))
	}
	for i := 0; i+1 < n; i++ {
		e, err := g.AddEdge(fmt.Sprintf("e%02d", i), fmt.Sprintf("n%02d", i), fmt.Sprintf("n%02d", i+1))
		if err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
		e.SetPresent(interval.MustClosed(0, 10))
	}
	return g
}

func TestValidateAlgorithm(t *testing.T) {
	tests := []struct {
		algorithm string
		wantErr   bool
	}{
		{"multilevel", false},
		{"single", false},
		{"Multilevel", true}, // case-sensitive
		{"", true},
		{"spring", true},
	}

	for _, tt := range tests {
		err := ValidateAlgorithm(tt.algorithm)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAlgorithm(%q) error = %v, wantErr %v", tt.algorithm, err, tt.wantErr)
		}
	}
}

func TestValidateSampling(t *testing.T) {
	tests := []struct {
		sampling string
		wantErr  bool
	}{
		{"continuous", false},
		{"discrete", false},
		{"ticks", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateSampling(tt.sampling)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSampling(%q) error = %v, wantErr %v", tt.sampling, err, tt.wantErr)
		}
	}
}

func TestSetDefaults(t *testing.T) {
	var opts Options
	opts.SetDefaults()

	if opts.Algorithm != DefaultAlgorithm {
		t.Errorf("Algorithm = %q, want %q", opts.Algorithm, DefaultAlgorithm)
	}
	if opts.Sampling != DefaultSampling {
		t.Errorf("Sampling = %q, want %q", opts.Sampling, DefaultSampling)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", opts.Seed, DefaultSeed)
	}
	if opts.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", opts.Timeout(), DefaultTimeout)
	}
	if opts.MinShrink != multilevel.DefaultMinShrink {
		t.Errorf("MinShrink = %v, want %v", opts.MinShrink, multilevel.DefaultMinShrink)
	}
	if opts.Tau != 0 {
		t.Errorf("Tau = %v, want 0 (computed)", opts.Tau)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"algorithm", func(o *Options) { o.Algorithm = "spring" }},
		{"sampling", func(o *Options) { o.Sampling = "ticks" }},
		{"discrete without tick", func(o *Options) { o.Sampling = SamplingDiscrete }},
		{"negative iterations", func(o *Options) { o.Iterations = -1 }},
		{"negative edge length", func(o *Options) { o.EdgeLength = -2 }},
		{"negative tau", func(o *Options) { o.Tau = -0.5 }},
		{"tau mode", func(o *Options) { o.TauMode = "sometimes" }},
		{"strategy", func(o *Options) { o.Strategy = "galaxy" }},
		{"tuning", func(o *Options) { o.Tuning = "turbo" }},
		{"min shrink", func(o *Options) { o.MinShrink = 1.5 }},
		{"timeout", func(o *Options) { o.TimeoutSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts Options
			opts.SetDefaults()
			tt.modify(&opts)
			err := opts.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidOption) {
				t.Errorf("Validate() error = %v, want INVALID_OPTION", err)
			}
		})
	}

	// Strategy is ignored for single-level runs.
	opts := Options{Algorithm: AlgorithmSingle, Strategy: "galaxy"}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		t.Errorf("single with unknown strategy: %v", err)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Strategy: "solar"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	opts.Algorithm = "broken"
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	ml := Options{Strategy: "solar", Bends: true}
	ml.SetDefaults()
	single := ml
	single.Algorithm = AlgorithmSingle

	if k := ml.LayoutKeyOpts(); k.Strategy != "solar" || !k.Bends {
		t.Errorf("multilevel key = %+v", k)
	}
	if k := single.LayoutKeyOpts(); k.Strategy != "" || k.Bends {
		t.Errorf("single key should drop multilevel fields: %+v", k)
	}
	if k := ml.LayoutKeyOpts(); k.Tick != 0 {
		t.Errorf("continuous key should drop tick: %+v", k)
	}
}

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"opts.toml": "algorithm = \"single\"\niterations = 42\ntau_mode = \"nodes\"\ntimeout_seconds = 3\n",
		"opts.yaml": "algorithm: single\niterations: 42\ntau_mode: nodes\ntimeout_seconds: 3\n",
		"opts.json": `{"algorithm": "single", "iterations": 42, "tau_mode": "nodes", "timeout_seconds": 3}`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			opts, err := LoadOptionsFile(path)
			if err != nil {
				t.Fatalf("LoadOptionsFile() = %v", err)
			}
			if opts.Algorithm != AlgorithmSingle || opts.Iterations != 42 || opts.TauMode != "nodes" {
				t.Errorf("opts = %+v", opts)
			}
			if opts.Timeout() != 3*time.Second {
				t.Errorf("Timeout() = %v, want 3s", opts.Timeout())
			}
		})
	}

	if _, err := LoadOptionsFile(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	ini := filepath.Join(dir, "opts.ini")
	_ = os.WriteFile(ini, []byte("x=1"), 0o644)
	if _, err := LoadOptionsFile(ini); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ini error = %v", err)
	}
	bad := filepath.Join(dir, "bad.toml")
	_ = os.WriteFile(bad, []byte("iterations = ["), 0o644)
	if _, err := LoadOptionsFile(bad); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad toml error = %v", err)
	}
}

func TestResolveTau(t *testing.T) {
	g := pathGraph(t, 3)
	if got := ResolveTau(g, Options{Tau: 0.25}); got != 0.25 {
		t.Errorf("explicit tau = %v, want 0.25", got)
	}
	if got := ResolveTau(g, Options{}); got != 1 {
		t.Errorf("computed tau = %v, want 1", got)
	}
	if got := ResolveTau(dyngraph.New(), Options{}); got != 1 {
		t.Errorf("empty graph tau = %v, want default 1", got)
	}
}

func TestRunnerLayoutSingle(t *testing.T) {
	g := pathGraph(t, 4)
	r := NewRunner(nil, nil, nil)

	res, err := r.Layout(context.Background(), g, Options{Algorithm: AlgorithmSingle, Iterations: 20})
	if err != nil {
		t.Fatalf("Layout() = %v", err)
	}
	if res.RunID == "" || res.GraphHash == "" {
		t.Errorf("RunID = %q, GraphHash = %q", res.RunID, res.GraphHash)
	}
	if res.CacheHit {
		t.Error("null cache should never hit")
	}
	if v, ok := res.Stats.Value(stats.Iterations); !ok || v != 20 {
		t.Errorf("Iterations = %v, %v", v, ok)
	}
	if v, ok := res.Stats.Value(stats.Tau); !ok || v != res.Tau {
		t.Errorf("Tau stat = %v, want %v", v, res.Tau)
	}

	for _, n := range g.Nodes() {
		if _, ok := n.Attribute(dyngraph.AttrPosition); ok {
			t.Errorf("input node %s was given a position", n.ID)
		}
	}
	for _, n := range res.Graph.Nodes() {
		if n.Position().Len() == 0 {
			t.Errorf("laid-out node %s has no position", n.ID)
		}
	}
}

func TestRunnerLayoutMultilevel(t *testing.T) {
	g := pathGraph(t, 12)
	r := NewRunner(nil, nil, nil)

	var levels []multilevel.LevelInfo
	res, err := r.Layout(context.Background(), g, Options{
		TargetSize: 4,
		Iterations: 10,
		OnLevel:    func(info multilevel.LevelInfo) { levels = append(levels, info) },
	})
	if err != nil {
		t.Fatalf("Layout() = %v", err)
	}
	depth, ok := res.Stats.Value(stats.HierarchyDepth)
	if !ok || depth < 1 {
		t.Errorf("HierarchyDepth = %v, %v", depth, ok)
	}
	if len(levels) != int(depth)+1 {
		t.Errorf("OnLevel called %d times, want %d", len(levels), int(depth)+1)
	}
	if len(levels) > 0 && levels[len(levels)-1].Level != 0 {
		t.Errorf("last level = %d, want 0", levels[len(levels)-1].Level)
	}
}

func TestRunnerLayoutCache(t *testing.T) {
	g := pathGraph(t, 4)
	r := NewRunner(cache.NewMemoryCache(time.Minute, time.Minute), nil, nil)
	defer r.Close()
	opts := Options{Algorithm: AlgorithmSingle, Iterations: 10}

	first, err := r.Layout(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("first Layout() = %v", err)
	}
	second, err := r.Layout(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("second Layout() = %v", err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Fatalf("CacheHit = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if first.RunID == second.RunID {
		t.Error("cached result should get a fresh RunID")
	}
	for _, n := range first.Graph.Nodes() {
		m, ok := second.Graph.Node(n.ID)
		if !ok {
			t.Fatalf("cached graph lacks %s", n.ID)
		}
		a, b := n.Position().ValueAt(5), m.Position().ValueAt(5)
		if r3.Norm(r3.Sub(a, b)) > 1e-9 {
			t.Errorf("%s position %v, cached %v", n.ID, a, b)
		}
	}

	opts.Refresh = true
	third, err := r.Layout(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("refresh Layout() = %v", err)
	}
	if third.CacheHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestRunnerLayoutTimeout(t *testing.T) {
	g := pathGraph(t, 20)
	r := NewRunner(nil, nil, nil)

	_, err := r.Layout(context.Background(), g, Options{
		Algorithm:      AlgorithmSingle,
		Iterations:     5000,
		TimeoutSeconds: 1e-6,
	})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Fatalf("error = %v, want TIMEOUT", err)
	}
	for _, n := range g.Nodes() {
		if _, ok := n.Attribute(dyngraph.AttrPosition); ok {
			t.Errorf("input node %s was modified by the abandoned run", n.ID)
		}
	}
}

func TestLevelGuard(t *testing.T) {
	var got []int
	g := &levelGuard{fn: func(info multilevel.LevelInfo) { got = append(got, info.Level) }}
	g.report(multilevel.LevelInfo{Level: 2})
	g.abandon()
	g.report(multilevel.LevelInfo{Level: 1})
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("reported levels = %v, want [2]", got)
	}
}

func TestRunnerTimeoutSilencesLevels(t *testing.T) {
	g := pathGraph(t, 40)
	r := NewRunner(nil, nil, nil)

	var calls atomic.Int32
	_, err := r.Layout(context.Background(), g, Options{
		TargetSize:     4,
		Iterations:     200,
		TimeoutSeconds: 0.01,
		OnLevel:        func(multilevel.LevelInfo) { calls.Add(1) },
	})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Fatalf("error = %v, want TIMEOUT", err)
	}
	before := calls.Load()
	time.Sleep(300 * time.Millisecond)
	if after := calls.Load(); after != before {
		t.Errorf("OnLevel fired %d times after the run timed out", after-before)
	}
}

func TestRunnerLayoutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(nil, nil, nil)

	_, err := r.Layout(ctx, pathGraph(t, 20), Options{Algorithm: AlgorithmSingle, Iterations: 5000})
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Errorf("error = %v, want CANCELED", err)
	}
}

func TestRunnerLayoutInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Layout(context.Background(), pathGraph(t, 2), Options{Algorithm: "spring"})
	if !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("error = %v, want INVALID_OPTION", err)
	}
}

func TestRunnerSnapshot(t *testing.T) {
	r := NewRunner(cache.NewMemoryCache(time.Minute, time.Minute), nil, nil)
	defer r.Close()
	res, err := r.Layout(context.Background(), pathGraph(t, 3), Options{Algorithm: AlgorithmSingle, Iterations: 5})
	if err != nil {
		t.Fatalf("Layout() = %v", err)
	}

	dot, hit, err := r.Snapshot(context.Background(), res.Graph, SnapshotOptions{Time: 5, Format: "dot"})
	if err != nil {
		t.Fatalf("Snapshot() = %v", err)
	}
	if hit {
		t.Error("first snapshot should miss")
	}
	for _, id := range []string{`"n00"`, `"n01"`, `"n02"`} {
		if !strings.Contains(string(dot), id) {
			t.Errorf("snapshot missing %s", id)
		}
	}

	again, hit, err := r.Snapshot(context.Background(), res.Graph, SnapshotOptions{Time: 5, Format: "dot"})
	if err != nil || !hit || string(again) != string(dot) {
		t.Errorf("second snapshot hit = %v, err = %v", hit, err)
	}

	empty, _, err := r.Snapshot(context.Background(), res.Graph, SnapshotOptions{Time: 50, Format: "dot"})
	if err != nil {
		t.Fatalf("Snapshot(50) = %v", err)
	}
	if strings.Contains(string(empty), "n00") {
		t.Error("snapshot after presence ends should be empty")
	}

	if _, _, err := r.Snapshot(context.Background(), res.Graph, SnapshotOptions{Time: 5, Format: "gif"}); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("gif error = %v, want INVALID_OPTION", err)
	}
}
