package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SessionStats holds the counters of one watch session
type SessionStats struct {
	PageURL    string
	StartTime  time.Time
	Injections int64
	Copies     int64
	Failures   int64
	Mutations  int64
}

var (
	statsStyle = borderStyle.
			BorderForeground(lipgloss.Color("99"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
)

// elapsed formats the session duration as hh:mm:ss
func elapsed(start, now time.Time) string {
	if start.IsZero() {
		return "00:00:00"
	}
	d := now.Sub(start)
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d.Hours()),
		int(d.Minutes())%60,
		int(d.Seconds())%60,
	)
}

// RenderStats renders the session summary panel
func RenderStats(s SessionStats, now time.Time) string {
	rows := []struct {
		label string
		value string
	}{
		{"Page", s.PageURL},
		{"Elapsed", elapsed(s.StartTime, now)},
		{"Button injections", fmt.Sprint(s.Injections)},
		{"Mutation batches", fmt.Sprint(s.Mutations)},
		{"Copies", fmt.Sprint(s.Copies)},
		{"Failures", fmt.Sprint(s.Failures)},
	}

	var sb strings.Builder
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", r.label)))
		sb.WriteString(valueStyle.Render(r.value))
	}
	return statsStyle.Render(sb.String())
}
