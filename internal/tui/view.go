package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	chartHeight  = 8
	defaultWidth = 100
)

var (
	headerColor = lipgloss.Color("39")
	selectedFg  = lipgloss.Color("229")
	selectedBg  = lipgloss.Color("57")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	cpuLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Background(lipgloss.Color("42"))
	cpuMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Background(lipgloss.Color("220"))
	cpuHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("196"))
)

func tableColumns() []table.Column {
	return []table.Column{
		{Title: "Host", Width: 24},
		{Title: "CPU %", Width: 7},
		{Title: "Mem %", Width: 7},
		{Title: "Disk %", Width: 7},
		{Title: "Rx kbps", Width: 10},
		{Title: "Tx kbps", Width: 10},
		{Title: "Ping", Width: 9},
		{Title: "Last seen", Width: 10},
	}
}

func hostRow(h HostSummary) table.Row {
	s := h.Latest
	return table.Row{
		s.Host,
		fmt.Sprintf("%.1f", s.CPUPct),
		fmt.Sprintf("%.1f", s.MemPct),
		fmt.Sprintf("%.1f", s.DiskPct),
		fmt.Sprintf("%.1f", s.RxKbps),
		fmt.Sprintf("%.1f", s.TxKbps),
		formatPing(s.PingMs),
		s.Timestamp.Local().Format("15:04:05"),
	}
}

func formatPing(ms *float64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fms", *ms)
}

func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("hostmon-top"))
	b.WriteString("  ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if len(m.hosts) == 0 {
		b.WriteString(dimStyle.Render("waiting for samples..."))
		b.WriteString("\n")
	} else {
		b.WriteString(sectionStyle.Render(m.table.View()))
		b.WriteString("\n")
		b.WriteString(m.renderDetail(width))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine() string {
	parts := []string{
		dimStyle.Render(m.label),
		dimStyle.Render("every " + m.interval().String()),
	}
	if m.paused {
		parts = append(parts, pausedStyle.Render("PAUSED"))
	}
	if !m.lastFetch.IsZero() {
		parts = append(parts, dimStyle.Render("updated "+m.lastFetch.Format(time.TimeOnly)))
	}
	if m.lastErr != nil {
		parts = append(parts, errorStyle.Render("error: "+m.lastErr.Error()))
	}
	return strings.Join(parts, dimStyle.Render(" │ "))
}

func (m *Model) renderDetail(width int) string {
	history := hostHistory(m.samples, m.selected)
	values := make([]float64, 0, len(history))
	for _, s := range history {
		values = append(values, s.CPUPct)
	}

	chartWidth := width - 6
	if chartWidth < 20 {
		chartWidth = 20
	}

	header := fmt.Sprintf("CPU history  %s  (%d samples)", titleStyle.Render(m.selected), len(values))
	var legend string
	if n := len(history); n > 0 {
		last := history[n-1]
		legend = dimStyle.Render(fmt.Sprintf("cpu %.1f%%  mem %.1f%%  disk %.1f%%  rx %.1f  tx %.1f kbps  ping %s",
			last.CPUPct, last.MemPct, last.DiskPct, last.RxKbps, last.TxKbps, formatPing(last.PingMs)))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, renderHistory(values, chartWidth, chartHeight), legend)
	return sectionStyle.Render(body)
}

// renderHistory draws one bar per value, newest on the right, keeping only
// as many values as fit in width.
func renderHistory(values []float64, width, height int) string {
	if len(values) == 0 {
		return dimStyle.Render("no samples")
	}
	maxBars := width / 2
	if len(values) > maxBars {
		values = values[len(values)-maxBars:]
	}

	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	for _, v := range values {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: "cpu", Value: v, Style: cpuStyle(v)},
			},
		})
	}
	bc.Draw()
	return bc.View()
}

func cpuStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return cpuHigh
	case pct >= 50:
		return cpuMid
	default:
		return cpuLow
	}
}
