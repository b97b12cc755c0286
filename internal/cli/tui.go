package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/fdl"
	"github.com/matzehuels/dynlayout/pkg/multilevel"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
)

const progressBarWidth = 30

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type levelMsg multilevel.LevelInfo

type iterationMsg fdl.IterationInfo

type layoutDoneMsg struct {
	result *pipeline.Result
	err    error
}

// =============================================================================
// LayoutProgressModel - per-level layout progress
// =============================================================================

// LayoutProgressModel is the bubbletea model showing a running layout:
// the iteration bar of the current level and a table of refined levels.
type LayoutProgressModel struct {
	Algorithm string
	Levels    []multilevel.LevelInfo
	Iteration fdl.IterationInfo
	Result    *pipeline.Result
	Err       error

	start    time.Time
	done     bool
	canceled bool
}

// NewLayoutProgressModel creates a progress model for the given algorithm.
func NewLayoutProgressModel(algorithm string) LayoutProgressModel {
	return LayoutProgressModel{Algorithm: algorithm, start: time.Now()}
}

func (m LayoutProgressModel) Init() tea.Cmd {
	return nil
}

func (m LayoutProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.canceled = true
			return m, tea.Quit
		}
	case levelMsg:
		m.Levels = append(m.Levels, multilevel.LevelInfo(msg))
	case iterationMsg:
		m.Iteration = fdl.IterationInfo(msg)
	case layoutDoneMsg:
		m.Result, m.Err, m.done = msg.result, msg.err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m LayoutProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Computing %s layout", m.Algorithm)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s", time.Since(m.start).Round(100*time.Millisecond))))
	b.WriteString("\n\n")

	if !m.done && m.Iteration.Iterations > 0 {
		b.WriteString(renderBar(m.Iteration.Iteration+1, m.Iteration.Iterations))
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d  %d samples  moved %.3g",
			m.Iteration.Iteration+1, m.Iteration.Iterations, m.Iteration.Nodes, m.Iteration.MaxMovement)))
		b.WriteString("\n\n")
	}

	if len(m.Levels) > 0 {
		rows := make([][]string, len(m.Levels))
		for i, l := range m.Levels {
			rows[i] = []string{
				fmt.Sprintf("%d/%d", l.Level, l.Depth),
				fmt.Sprintf("%d", l.Nodes),
				fmt.Sprintf("%d", l.Edges),
				l.Duration.Round(time.Millisecond).String(),
			}
		}
		headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("Level", "Nodes", "Edges", "Time").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == -1 {
					return headerStyle
				}
				if row == len(rows)-1 {
					return StyleHighlight
				}
				return StyleValue
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString(StyleDim.Render("q quit"))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBar(done, total int) string {
	if total <= 0 {
		return ""
	}
	full := min(progressBarWidth*done/total, progressBarWidth)
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", progressBarWidth-full))
}

// =============================================================================
// Runner glue
// =============================================================================

// runWithProgress runs a layout while a LayoutProgressModel shows its
// levels and iterations on stderr. Quitting the view cancels the run.
func runWithProgress(ctx context.Context, runner *pipeline.Runner, g *dyngraph.Graph, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = pipeline.DefaultAlgorithm
	}
	p := tea.NewProgram(NewLayoutProgressModel(algorithm), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	opts.OnLevel = func(info multilevel.LevelInfo) { p.Send(levelMsg(info)) }
	opts.OnIteration = func(info fdl.IterationInfo) {
		if info.Iteration%10 == 0 || info.Iteration == info.Iterations-1 {
			p.Send(iterationMsg(info))
		}
	}

	go func() {
		result, err := runner.Layout(ctx, g, opts)
		p.Send(layoutDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m := final.(LayoutProgressModel)
	if m.canceled {
		return nil, context.Canceled
	}
	return m.Result, m.Err
}
