package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/enginesim/internal/engine"
)

// CycleMsg reports a completed cycle of the current operating point.
type CycleMsg struct {
	Cycle, Cycles int
	Time          float64
}

// PointMsg announces the start of a new operating point.
type PointMsg struct {
	Index int
	Speed float64
}

// ResultMsg carries a finished operating point.
type ResultMsg engine.Performance

// DoneMsg ends the sweep; Err is nil on success.
type DoneMsg struct{ Err error }

// SweepModel is a Bubble Tea model showing the progress of a speed sweep.
type SweepModel struct {
	title  string
	speeds []float64
	point  int
	cycle  int
	cycles int
	time   float64
	done   []engine.Performance
	err    error
	final  bool
	cancel func()
}

// NewSweepModel builds the view; cancel is called when the user quits early.
func NewSweepModel(title string, speeds []float64, cancel func()) SweepModel {
	return SweepModel{title: title, speeds: speeds, cancel: cancel}
}

func (m SweepModel) Init() tea.Cmd { return nil }

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case PointMsg:
		m.point, m.cycle, m.cycles = msg.Index, 0, 0
	case CycleMsg:
		m.cycle, m.cycles, m.time = msg.Cycle, msg.Cycles, msg.Time
	case ResultMsg:
		m.done = append(m.done, engine.Performance(msg))
	case DoneMsg:
		m.err, m.final = msg.Err, true
		return m, tea.Quit
	}
	return m, nil
}

// Results returns the operating points finished so far.
func (m SweepModel) Results() []engine.Performance { return m.done }

func (m SweepModel) Err() error { return m.err }

func (m SweepModel) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(m.title))
	b.WriteString("\n\n")

	total := len(m.speeds)
	if total > 0 && m.point < total {
		b.WriteString(MetricLabel.Render("speed  "))
		b.WriteString(MetricValue.Render(fmt.Sprintf("%.0f RPM", m.speeds[m.point])))
		b.WriteString(MetricLabel.Render(fmt.Sprintf("  (%d/%d)", m.point+1, total)))
		b.WriteByte('\n')
	}
	frac := 0.0
	if m.cycles > 0 {
		frac = float64(m.cycle) / float64(m.cycles)
	}
	b.WriteString(MetricLabel.Render("cycle  "))
	b.WriteString(ProgressBar(frac, 30))
	b.WriteString(MetricLabel.Render(fmt.Sprintf(" %d/%d  t=%.4f s", m.cycle, m.cycles, m.time)))
	b.WriteString("\n\n")

	if len(m.done) > 0 {
		imep := make([]float64, len(m.done))
		for i, p := range m.done {
			imep[i] = p.IMEP
		}
		b.WriteString(MetricLabel.Render("IMEP   "))
		b.WriteString(SparkHigh.Render(Sparkline(imep, 30)))
		b.WriteByte('\n')
		b.WriteString(PerformanceTable(m.done))
		b.WriteByte('\n')
	}
	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
		b.WriteByte('\n')
	case m.final:
		b.WriteString(Subtle.Render("done"))
		b.WriteByte('\n')
	default:
		b.WriteString(Subtle.Render("q to abort"))
		b.WriteByte('\n')
	}
	return b.String()
}

// ProgramObserver forwards cycle events to a running Bubble Tea program.
type ProgramObserver struct {
	Program *tea.Program
}

func (o ProgramObserver) OnCycle(cycle, cycles int, t float64) {
	o.Program.Send(CycleMsg{Cycle: cycle, Cycles: cycles, Time: t})
}
