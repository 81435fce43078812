// Package tui is a terminal dashboard over the ingest service's /latest
// endpoint.
package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/hostmon/internal/model"
)

const defaultFetchTimeout = 5 * time.Second

// Source is the read side of the ingest service.
type Source interface {
	Latest(ctx context.Context, limit int, host string) ([]model.MetricSample, error)
}

// SamplesMsg carries one fetch result back to the model.
type SamplesMsg struct {
	Samples []model.MetricSample
	Err     error
	At      time.Time
}

// tickMsg drives periodic refreshes. Ticks from a superseded interval carry
// an old generation and are dropped.
type tickMsg struct {
	gen int
}

// HostSummary is one table row: the newest sample seen for a host.
type HostSummary struct {
	Host   string
	Latest model.MetricSample
	Count  int
}

var availableIntervals = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
}

// Model is the Bubble Tea model for hostmon-top.
type Model struct {
	src     Source
	label   string
	limit   int
	timeout time.Duration

	keys  KeyMap
	help  help.Model
	table table.Model

	intervalIdx int
	tickGen     int

	samples   []model.MetricSample
	hosts     []HostSummary
	selected  string
	lastErr   error
	lastFetch time.Time
	fetching  bool
	paused    bool

	width  int
	height int
}

// NewModel builds a dashboard reading up to limit samples from src every
// interval. label names the source in the status line.
func NewModel(src Source, label string, interval time.Duration, limit int) *Model {
	idx := 3
	for i, d := range availableIntervals {
		if d == interval {
			idx = i
			break
		}
	}

	t := table.New(
		table.WithColumns(tableColumns()),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(headerColor)
	styles.Selected = styles.Selected.Foreground(selectedFg).Background(selectedBg)
	t.SetStyles(styles)

	return &Model{
		src:         src,
		label:       label,
		limit:       model.ClampLimit(limit),
		timeout:     defaultFetchTimeout,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		table:       t,
		intervalIdx: idx,
	}
}

func (m *Model) interval() time.Duration {
	return availableIntervals[m.intervalIdx]
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startFetch(), m.tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		if m.paused {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.tickCmd(), m.startFetch())

	case SamplesMsg:
		m.fetching = false
		m.lastFetch = msg.At
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		m.lastErr = nil
		m.applySamples(msg.Samples)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.ForceQuit), key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Up):
		m.table.MoveUp(1)
		m.syncSelection()

	case key.Matches(msg, k.Down):
		m.table.MoveDown(1)
		m.syncSelection()

	case key.Matches(msg, k.Refresh):
		return m, m.startFetch()

	case key.Matches(msg, k.Pause):
		m.paused = !m.paused

	case key.Matches(msg, k.IntervalUp):
		m.intervalIdx = (m.intervalIdx + 1) % len(availableIntervals)
		m.tickGen++
		return m, m.tickCmd()

	case key.Matches(msg, k.IntervalDown):
		m.intervalIdx = (m.intervalIdx - 1 + len(availableIntervals)) % len(availableIntervals)
		m.tickGen++
		return m, m.tickCmd()
	}
	return m, nil
}

func (m *Model) tickCmd() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.interval(), func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// startFetch returns a command that queries the source, or nil while a
// previous fetch is still in flight.
func (m *Model) startFetch() tea.Cmd {
	if m.fetching || m.src == nil {
		return nil
	}
	m.fetching = true
	src, limit, timeout := m.src, m.limit, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		samples, err := src.Latest(ctx, limit, "")
		return SamplesMsg{Samples: samples, Err: err, At: time.Now()}
	}
}

func (m *Model) applySamples(samples []model.MetricSample) {
	m.samples = samples
	m.hosts = summarizeHosts(samples)

	rows := make([]table.Row, 0, len(m.hosts))
	cursor := 0
	for i, h := range m.hosts {
		rows = append(rows, hostRow(h))
		if h.Host == m.selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
	m.syncSelection()
}

func (m *Model) syncSelection() {
	if len(m.hosts) == 0 {
		m.selected = ""
		return
	}
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.hosts) {
		idx = 0
	}
	m.selected = m.hosts[idx].Host
}

func (m *Model) resize() {
	rows := m.height - chartHeight - 10
	if rows < 3 {
		rows = 3
	}
	m.table.SetHeight(rows)
	m.help.Width = m.width
}

// summarizeHosts collapses newest-first samples into one row per host,
// sorted by host name.
func summarizeHosts(samples []model.MetricSample) []HostSummary {
	byHost := make(map[string]int)
	var out []HostSummary
	for _, s := range samples {
		if i, ok := byHost[s.Host]; ok {
			out[i].Count++
			continue
		}
		byHost[s.Host] = len(out)
		out = append(out, HostSummary{Host: s.Host, Latest: s, Count: 1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}

// hostHistory returns host's samples oldest-first.
func hostHistory(samples []model.MetricSample, host string) []model.MetricSample {
	var out []model.MetricSample
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Host == host {
			out = append(out, samples[i])
		}
	}
	return out
}
