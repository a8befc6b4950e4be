package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"doccheck/internal/driver"
)

// state is one row label of the file list, with how far along the file is
// and the color it is drawn in.
type state struct {
	label  string
	weight float64 // share of the file's work done on entering this state
	color  lipgloss.Color
	final  bool
}

var (
	stateQueued = state{label: "queued", color: "7"}
	stateDone   = state{label: "done", weight: 1, color: "2", final: true}
	stateCached = state{label: "cached", weight: 1, color: "2", final: true}
	stateError  = state{label: "error", weight: 1, color: "1", final: true}

	working = map[driver.Stage]state{
		driver.StageLoad:    {label: "loading", weight: 0.05, color: "6"},
		driver.StageExtract: {label: "extracting", weight: 0.2, color: "6"},
		driver.StageCheck:   {label: "checking", weight: 0.5, color: "6"},
		driver.StageRemap:   {label: "remapping", weight: 0.9, color: "6"},
	}
)

// stateOf maps a driver event to a row state; ok is false for events the
// list does not show.
func stateOf(ev driver.Event) (state, bool) {
	switch ev.Status {
	case driver.StatusQueued:
		return stateQueued, true
	case driver.StatusDone:
		return stateDone, true
	case driver.StatusCached:
		return stateCached, true
	case driver.StatusError:
		return stateError, true
	case driver.StatusWorking:
		st, ok := working[ev.Stage]
		return st, ok
	}
	return state{}, false
}

const statusWidth = 12

type row struct {
	path  string
	state state
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byPath  map[string]int
	errors  int
	width   int
	done    bool
}

type eventMsg driver.Event

type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model listing files with their
// check status above an overall progress bar. It quits once events closes.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]row, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = row{path: file, state: stateQueued}
		m.byPath[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.next())
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
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-4, 20)
	for _, r := range m.rows {
		status := lipgloss.NewStyle().Foreground(r.state.color).Render(fmt.Sprintf("%*s", statusWidth, r.state.label))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(r.path, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) header() string {
	finished := 0
	for _, r := range m.rows {
		if r.state.final {
			finished++
		}
	}
	h := fmt.Sprintf("%s %d/%d", m.title, finished, len(m.rows))
	if m.errors > 0 {
		h += fmt.Sprintf(", %d failed", m.errors)
	}
	if m.done {
		return "done: " + h
	}
	return m.spinner.View() + " " + h
}

// next waits for one driver event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, known := m.byPath[ev.File]
	st, shown := stateOf(ev)
	if !known || !shown {
		return nil
	}
	if st == stateError && m.rows[idx].state != stateError {
		m.errors++
	}
	m.rows[idx].state = st

	var sum float64
	for _, r := range m.rows {
		sum += r.state.weight
	}
	return m.bar.SetPercent(sum / float64(len(m.rows)))
}

// truncate shortens value to width terminal cells, ending in "..." when
// there is room for it.
func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width-3, "...")
	}
}
