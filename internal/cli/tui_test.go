package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/dynlayout/pkg/fdl"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
)

func TestLayoutProgressModel(t *testing.T) {
	var m tea.Model = NewLayoutProgressModel("multilevel")

	m, _ = m.Update(iterationMsg(fdl.IterationInfo{Iteration: 49, Iterations: 100, Nodes: 12, MaxMovement: 0.5}))
	view := m.View()
	if !strings.Contains(view, "Computing multilevel layout") {
		t.Error("view missing title")
	}
	if !strings.Contains(view, "50/100") {
		t.Errorf("view missing iteration count:\n%s", view)
	}

	m, _ = m.Update(levelMsg(multilevel.LevelInfo{Level: 2, Depth: 2, Nodes: 5, Edges: 4, Duration: 3 * time.Millisecond}))
	m, _ = m.Update(levelMsg(multilevel.LevelInfo{Level: 1, Depth: 2, Nodes: 11, Edges: 10, Duration: 7 * time.Millisecond}))
	if got := len(m.(LayoutProgressModel).Levels); got != 2 {
		t.Fatalf("Levels = %d, want 2", got)
	}
	if view := m.View(); !strings.Contains(view, "1/2") || !strings.Contains(view, "11") {
		t.Errorf("view missing level row:\n%s", view)
	}

	res := &pipeline.Result{RunID: "r"}
	m, cmd := m.Update(layoutDoneMsg{result: res})
	if cmd == nil {
		t.Fatal("done message should quit")
	}
	final := m.(LayoutProgressModel)
	if final.Result != res || final.Err != nil {
		t.Errorf("Result = %v, Err = %v", final.Result, final.Err)
	}
	if strings.Contains(final.View(), "q quit") {
		t.Error("finished view should drop the key hint")
	}
}

func TestLayoutProgressModelQuit(t *testing.T) {
	var m tea.Model = NewLayoutProgressModel("single")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !m.(LayoutProgressModel).canceled {
		t.Error("q should cancel and quit")
	}

	m = NewLayoutProgressModel("single")
	m, _ = m.Update(layoutDoneMsg{err: errors.New("boom")})
	if m.(LayoutProgressModel).Err == nil {
		t.Error("error not recorded")
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(0, 0); got != "" {
		t.Errorf("renderBar(0, 0) = %q, want empty", got)
	}
	full := renderBar(10, 10)
	if strings.Count(full, "█") != progressBarWidth {
		t.Errorf("full bar has %d cells, want %d", strings.Count(full, "█"), progressBarWidth)
	}
	half := renderBar(5, 10)
	if strings.Count(half, "█") != progressBarWidth/2 || strings.Count(half, "░") != progressBarWidth/2 {
		t.Errorf("half bar = %q", half)
	}
}
