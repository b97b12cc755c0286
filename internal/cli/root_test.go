package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	want := []string{"layout", "snapshot", "tau", "cache", "serve", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}

	for _, flag := range []string{"algorithm", "strategy", "tau", "tau-mode", "config", "progress", "cache"} {
		layout, _, _ := root.Find([]string{"layout"})
		if layout.Flags().Lookup(flag) == nil {
			t.Errorf("layout flag --%s missing", flag)
		}
	}

	serve, _, _ := root.Find([]string{"serve"})
	for _, flag := range []string{"addr", "cache", "namespace", "max-body"} {
		if serve.Flags().Lookup(flag) == nil {
			t.Errorf("serve flag --%s missing", flag)
		}
	}
}

func TestCompletion(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion bash: %v", err)
	}
	if !strings.Contains(out.String(), "dynlayout") {
		t.Error("bash completion does not mention dynlayout")
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug output at info level")
	}
	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug output missing after SetLogLevel(Debug)")
	}
}
