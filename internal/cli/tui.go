package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sketchforge/sketchforge/pkg/forge"
)

var (
	tuiStateStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiOKStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	tuiFailStyle   = lipgloss.NewStyle().Foreground(colorRed)
	tuiDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

// =============================================================================
// Messages
// =============================================================================

type stateChangeMsg struct{ to string }

type attemptStartMsg struct{ index int }

type attemptDoneMsg struct {
	index    int
	success  bool
	duration time.Duration
}

type libraryMsg struct {
	library string
	tier    string
}

type runDoneMsg struct {
	result *forge.Result
	err    error
}

// =============================================================================
// buildView - live progress for a compile-fix run
// =============================================================================

// buildView adapts forge hook events into a bubbletea progress display.
// Hook methods are called from the run goroutine and forward messages to the
// program; the model itself is only touched by bubbletea.
type buildView struct {
	program *tea.Program
}

func newBuildView(opts forge.Options) *buildView {
	model := buildModel{
		sketchPath: opts.SketchPath,
		board:      opts.Board,
		budget:     opts.RetryBudget,
		state:      string(forge.StateResolving),
	}
	return &buildView{program: tea.NewProgram(model)}
}

// wait runs the progress display until the run finishes or the user quits.
func (v *buildView) wait(ctx context.Context) error {
	model, err := v.program.Run()
	if err != nil {
		return err
	}
	if m, ok := model.(buildModel); ok && m.aborted {
		return context.Canceled
	}
	return ctx.Err()
}

// finish tells the view the run is over.
func (v *buildView) finish(result *forge.Result, err error) {
	v.program.Send(runDoneMsg{result: result, err: err})
}

// ForgeHooks implementation. RunIDs are ignored: the view observes a single
// run.

func (v *buildView) OnRunStart(context.Context, string, string, string) {}

func (v *buildView) OnRunComplete(context.Context, string, bool, int, time.Duration) {}

func (v *buildView) OnStateChange(_ context.Context, _ string, _, to string) {
	v.program.Send(stateChangeMsg{to: to})
}

func (v *buildView) OnAttemptStart(_ context.Context, _ string, index int) {
	v.program.Send(attemptStartMsg{index: index})
}

func (v *buildView) OnAttemptComplete(_ context.Context, _ string, index int, success bool, duration time.Duration) {
	v.program.Send(attemptDoneMsg{index: index, success: success, duration: duration})
}

func (v *buildView) OnLibraryResolved(_ context.Context, _ string, library, tier string) {
	v.program.Send(libraryMsg{library: library, tier: tier})
}

// =============================================================================
// buildModel
// =============================================================================

type attemptRow struct {
	index    int
	done     bool
	success  bool
	duration time.Duration
	libs     []libraryMsg
}

type buildModel struct {
	sketchPath string
	board      string
	budget     int
	state      string

	attempts []attemptRow
	result   *forge.Result
	err      error
	finished bool
	aborted  bool
}

func (m buildModel) Init() tea.Cmd {
	return nil
}

func (m buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	case stateChangeMsg:
		m.state = msg.to
	case attemptStartMsg:
		m.attempts = append(m.attempts, attemptRow{index: msg.index})
	case attemptDoneMsg:
		if i := msg.index; i < len(m.attempts) {
			m.attempts[i].done = true
			m.attempts[i].success = msg.success
			m.attempts[i].duration = msg.duration
		}
	case libraryMsg:
		if n := len(m.attempts); n > 0 {
			m.attempts[n-1].libs = append(m.attempts[n-1].libs, msg)
		}
	case runDoneMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m buildModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("sketchforge build"))
	b.WriteString("\n")
	b.WriteString(tuiDimStyle.Render(m.sketchPath) + "  " + tuiHeaderStyle.Render(m.board))
	b.WriteString("\n\n")

	for _, a := range m.attempts {
		label := fmt.Sprintf("attempt %d/%d", a.index+1, m.budget)
		switch {
		case !a.done:
			b.WriteString(tuiStateStyle.Render("▸ " + label + " · " + m.state))
		case a.success:
			b.WriteString(tuiOKStyle.Render(iconSuccess+" "+label) + tuiDimStyle.Render(fmt.Sprintf(" (%s)", a.duration.Round(time.Millisecond))))
		default:
			b.WriteString(tuiFailStyle.Render(iconError+" "+label) + tuiDimStyle.Render(fmt.Sprintf(" (%s)", a.duration.Round(time.Millisecond))))
		}
		b.WriteString("\n")
		for _, lib := range a.libs {
			b.WriteString(tuiDimStyle.Render("    "+lib.library) + " " + tuiDimStyle.Render(lib.tier) + "\n")
		}
	}

	if m.finished {
		b.WriteString("\n")
		switch {
		case m.err != nil:
			b.WriteString(tuiFailStyle.Render(iconError + " " + m.err.Error()))
		case m.result != nil && m.result.Success():
			b.WriteString(tuiOKStyle.Render(iconSuccess + " sketch compiles"))
		default:
			b.WriteString(tuiFailStyle.Render(iconError + " retry budget exhausted"))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("\n" + tuiDimStyle.Render("q to abort"))
	}

	return b.String()
}
