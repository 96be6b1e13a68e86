package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"rustmsg/internal/diag"
	"rustmsg/internal/pipeline"
)

type fileItem struct {
	path     string
	errors   int
	warnings int
	extras   int // notes + helps
}

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	items   []fileItem
	index   map[string]int
	records int
	width   int
	done    bool
	runErr  error
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file
// diagnostic counts while the record stream drains.
func NewProgressModel(title string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.applyEvent(pipeline.Event(msg))
		return m, m.listenForEvent()
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
		}
		return m, nil
	}
	return m, nil
}

func (m *progressModel) View() string {
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	countWidth := 24
	nameWidth := m.width - countWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	// Отображаем в стабильном порядке, независимо от порядка событий.
	items := make([]fileItem, len(m.items))
	copy(items, m.items)
	sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })

	for _, item := range items {
		counts := styleCounts(item)
		b.WriteString(fmt.Sprintf("  %s %s\n", counts, truncate(item.path, nameWidth)))
	}

	b.WriteString(fmt.Sprintf("\n%d records", m.records))
	if m.runErr != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).
			Render(fmt.Sprintf("  stream error: %v", m.runErr)))
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

func (m *progressModel) applyEvent(ev pipeline.Event) {
	if ev.Status == pipeline.StatusDone {
		m.runErr = ev.Err
		return
	}
	m.records++
	if ev.Status != pipeline.StatusInserted || ev.File == "" {
		return
	}
	idx, ok := m.index[ev.File]
	if !ok {
		m.items = append(m.items, fileItem{path: ev.File})
		idx = len(m.items) - 1
		m.index[ev.File] = idx
	}
	switch ev.Severity {
	case diag.SevError:
		m.items[idx].errors++
	case diag.SevWarning:
		m.items[idx].warnings++
	default:
		m.items[idx].extras++
	}
}

func styleCounts(item fileItem) string {
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	extraStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return fmt.Sprintf("%s %s %s",
		errStyle.Render(fmt.Sprintf("%3dE", item.errors)),
		warnStyle.Render(fmt.Sprintf("%3dW", item.warnings)),
		extraStyle.Render(fmt.Sprintf("%3d+", item.extras)),
	)
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
