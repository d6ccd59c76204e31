package ui

import (
	"fmt"
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"buildlens/internal/progress"
)

type progressModel struct {
	title   string
	events  <-chan progress.Event
	spinner spinner.Model
	prog    bprogress.Model
	stages  []stageItem
	units   []unitItem
	index   map[string]int
	width   int
	done    bool
}

type stageItem struct {
	stage  progress.Stage
	status progress.Status
	count  int
}

type unitItem struct {
	name   string
	stage  progress.Stage
	status progress.Status
	count  int
}

type eventMsg progress.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders analysis progress.
// sources are listed up front; files touched by remediation appear as they
// are reported. The model quits when events is closed.
func NewProgressModel(title string, sources []string, events <-chan progress.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := bprogress.New(bprogress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int, len(sources)),
		width:   80,
	}
	for _, st := range progress.Stages() {
		m.stages = append(m.stages, stageItem{stage: st, status: progress.StatusQueued})
	}
	for _, s := range sources {
		m.unit(progress.StageParse, s)
	}
	return m
}

func (m *progressModel) unit(st progress.Stage, name string) *unitItem {
	key := string(st) + "\x00" + name
	if i, ok := m.index[key]; ok {
		return &m.units[i]
	}
	m.index[key] = len(m.units)
	m.units = append(m.units, unitItem{name: name, stage: st, status: progress.StatusQueued})
	return &m.units[len(m.units)-1]
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(progress.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case bprogress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(bprogress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if st, ok := m.current(); ok {
		header = fmt.Sprintf("%s (%s)", header, stageLabel(st))
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, s := range m.stages {
		label := statusLabel(s.stage, s.status)
		line := fmt.Sprintf("  %s %s", styleStatus(s.status).Render(fmt.Sprintf("%12s", label)), s.stage)
		if s.status == progress.StatusDone {
			line += fmt.Sprintf(" (%d)", s.count)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.units) > 0 {
		b.WriteString("\n")
	}
	for _, u := range m.units {
		name := truncate(u.name, nameWidth)
		label := statusLabel(u.stage, u.status)
		b.WriteString(fmt.Sprintf("  %s %s\n", styleStatus(u.status).Render(fmt.Sprintf("%12s", label)), name))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) current() (progress.Stage, bool) {
	for _, s := range m.stages {
		if s.status == progress.StatusWorking {
			return s.stage, true
		}
	}
	return "", false
}

func (m *progressModel) applyEvent(ev progress.Event) tea.Cmd {
	if ev.Unit == "" {
		for i := range m.stages {
			if m.stages[i].stage == ev.Stage {
				m.stages[i].status = ev.Status
				m.stages[i].count = ev.Count
			}
		}
	} else {
		u := m.unit(ev.Stage, ev.Unit)
		u.status = ev.Status
		u.count = ev.Count
	}
	return m.prog.SetPercent(m.percent())
}

// percent counts finished stages as whole steps and the running stage by
// the share of its units that have finished.
func (m *progressModel) percent() float64 {
	total := 0.0
	for _, s := range m.stages {
		switch s.status {
		case progress.StatusDone, progress.StatusSkipped, progress.StatusError:
			total += 1.0
		case progress.StatusWorking:
			total += m.unitShare(s.stage)
		}
	}
	return total / float64(len(m.stages))
}

func (m *progressModel) unitShare(st progress.Stage) float64 {
	n, finished := 0, 0
	for _, u := range m.units {
		if u.stage != st {
			continue
		}
		n++
		if u.status == progress.StatusDone || u.status == progress.StatusError {
			finished++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(finished) / float64(n)
}

func statusLabel(stage progress.Stage, status progress.Status) string {
	if status == progress.StatusWorking {
		return stageLabel(stage)
	}
	return string(status)
}

func stageLabel(stage progress.Stage) string {
	switch stage {
	case progress.StageParse:
		return "parsing"
	case progress.StageClassify:
		return "classifying"
	case progress.StageCorrelate:
		return "correlating"
	case progress.StageRemediate:
		return "fixing"
	case progress.StageReport:
		return "reporting"
	default:
		return ""
	}
}

func styleStatus(status progress.Status) lipgloss.Style {
	switch status {
	case progress.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case progress.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case progress.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	case progress.StatusSkipped:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
