// Package ui renders chimectl's terminal output.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ringdown/chimed/internal/item"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Bright cyan
			Bold(true)

	AlarmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	ReminderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")) // Soft green

	ActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")).
			Bold(true)
)

// Formatter renders items and messages, optionally colored.
type Formatter struct {
	colored bool
}

// NewFormatter creates a formatter.
func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

// FormatItems renders a table of items.
func (f *Formatter) FormatItems(items []item.Item) string {
	if len(items) == 0 {
		return f.dim("No alarms or reminders set.")
	}

	var b strings.Builder
	b.WriteString(f.header(fmt.Sprintf("%-20s %-9s %-22s %-9s %-10s %s",
		"ID", "KIND", "NEXT", "REPEAT", "STATUS", "NAME")))
	b.WriteString("\n")

	for _, it := range items {
		line := fmt.Sprintf("%-20s %-9s %-22s %-9s %-10s %s",
			truncate(it.ID, 20), it.Kind,
			formatTime(it.ScheduledTime), formatRepeat(it),
			it.Status, it.DisplayName)
		b.WriteString(f.itemLine(it, line))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatItem renders one item in detail.
func (f *Formatter) FormatItem(it item.Item) string {
	var b strings.Builder
	b.WriteString(f.header(it.DisplayName))
	b.WriteString("\n")

	rows := []struct{ label, value string }{
		{"id", it.ID},
		{"kind", string(it.Kind)},
		{"next", formatTime(it.ScheduledTime)},
		{"repeat", formatRepeat(it)},
		{"status", string(it.Status)},
		{"enabled", fmt.Sprintf("%v", it.Enabled)},
	}
	if it.Message != "" {
		rows = append(rows, struct{ label, value string }{"message", it.Message})
	}
	if it.SoundRef != "" {
		rows = append(rows, struct{ label, value string }{"sound", it.SoundRef})
	}
	if it.Target != "" {
		rows = append(rows, struct{ label, value string }{"target", it.Target})
	}
	if it.LastStoppedAt != nil {
		rows = append(rows, struct{ label, value string }{"last stopped", formatTime(*it.LastStoppedAt)})
	}

	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n", f.dim(fmt.Sprintf("%-13s", row.label)), row.value))
	}
	return b.String()
}

// FormatError renders an error message.
func (f *Formatter) FormatError(err error) string {
	msg := "Error: " + err.Error()
	if f.colored {
		return ErrorStyle.Render(msg)
	}
	return msg
}

// FormatSuccess renders a confirmation message.
func (f *Formatter) FormatSuccess(msg string) string {
	if f.colored {
		return SuccessStyle.Render(msg)
	}
	return msg
}

func (f *Formatter) header(s string) string {
	if f.colored {
		return HeaderStyle.Render(s)
	}
	return s
}

func (f *Formatter) dim(s string) string {
	if f.colored {
		return DimStyle.Render(s)
	}
	return s
}

func (f *Formatter) itemLine(it item.Item, line string) string {
	if !f.colored {
		return line
	}
	switch {
	case it.Status == item.StatusActive:
		return ActiveStyle.Render(line)
	case !it.Enabled:
		return DimStyle.Render(line)
	case it.IsAlarm():
		return AlarmStyle.Render(line)
	default:
		return ReminderStyle.Render(line)
	}
}

func formatTime(t time.Time) string {
	return t.Format("Mon Jan 2 15:04")
}

func formatRepeat(it item.Item) string {
	if it.Repeat == item.RepeatWeekly {
		return strings.Join(it.RepeatDays.Names(), ",")
	}
	return string(it.Repeat)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
