// Package tui implements the live worker dashboard: a bubbletea Model
// polling reactor.Worker.Snapshot on a tick and rendering it through a
// bubbles/table, with a clipboard-copy keybinding for pasting a
// snapshot elsewhere. Grounded on the teacher's own bubble_tea.TextArea
// and Selector models: an embedded bubbles sub-model plus an
// Init/Update/View wrapper around it.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flywheel/infrastructure/reactor"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

type copyResultMsg struct {
	err error
}

// Source supplies the live workers to poll.
type Source func() []*reactor.Worker

var columns = []table.Column{
	{Title: "worker", Width: 8},
	{Title: "accepted", Width: 10},
	{Title: "handled", Width: 10},
	{Title: "closed", Width: 10},
	{Title: "open", Width: 8},
	{Title: "death_queued", Width: 14},
}

// Model is the dashboard's bubbletea model.
type Model struct {
	source Source
	table  table.Model
	rows   []reactor.Snapshot
	status string
	period time.Duration
}

// New returns a dashboard model polling source every period.
func New(source Source, period time.Duration) Model {
	if period <= 0 {
		period = time.Second
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return Model{source: source, table: t, period: period}
}

func (m Model) Init() tea.Cmd {
	return tick(m.period)
}

func tick(period time.Duration) tea.Cmd {
	return tea.Tick(period, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			snapshot := m.renderPlain()
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(snapshot)}
			}
		}
	case copyResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.status = "snapshot copied to clipboard"
		}
		return m, nil
	case tickMsg:
		m.rows = m.collect()
		m.table.SetRows(toRows(m.rows))
		return m, tick(m.period)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) collect() []reactor.Snapshot {
	workers := m.source()
	out := make([]reactor.Snapshot, len(workers))
	for i, w := range workers {
		out[i] = w.Snapshot()
	}
	return out
}

func toRows(snapshots []reactor.Snapshot) []table.Row {
	rows := make([]table.Row, len(snapshots))
	for i, s := range snapshots {
		rows[i] = table.Row{
			strconv.Itoa(s.WorkerID),
			strconv.FormatInt(s.Accepted, 10),
			strconv.FormatInt(s.Handled, 10),
			strconv.FormatInt(s.Closed, 10),
			strconv.FormatInt(s.Open, 10),
			strconv.Itoa(s.DeathQueued),
		}
	}
	return rows
}

func (m Model) renderPlain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "worker  accepted  handled  closed  open  death_queued\n")
	for _, s := range m.rows {
		fmt.Fprintf(&b, "%-6d  %-8d  %-7d  %-6d  %-4d  %d\n", s.WorkerID, s.Accepted, s.Handled, s.Closed, s.Open, s.DeathQueued)
	}
	return b.String()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("reactor dashboard") + "\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n" + footerStyle.Render("q: quit   c: copy snapshot to clipboard"))
	if m.status != "" {
		b.WriteString("\n" + footerStyle.Render(m.status))
	}
	return b.String()
}
