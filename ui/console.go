package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLevel represents the severity of a console line
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "INFO"
	}
}

// Define common styles
var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	errorLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	infoLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// Console prints user-facing lines to a terminal. Diagnostics go through
// the logger; the console carries what the user is meant to read.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewConsole creates a console writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, now: time.Now}
}

// Line writes one timestamped line at the given level
func (c *Console) Line(level LogLevel, msg string) {
	var style lipgloss.Style
	switch level {
	case LevelError:
		style = errorLogStyle
	case LevelWarning:
		style = warningLogStyle
	default:
		style = infoLogStyle
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s [%s] %s\n",
		timestampStyle.Render(c.now().Format("15:04:05")),
		style.Render(level.String()),
		msg,
	)
}

func (c *Console) Info(msg string)  { c.Line(LevelInfo, msg) }
func (c *Console) Warn(msg string)  { c.Line(LevelWarning, msg) }
func (c *Console) Error(msg string) { c.Line(LevelError, msg) }

// Preview renders a copied Markdown block in a titled box
func (c *Console) Preview(title, markdown string) {
	box := borderStyle.Render(strings.TrimRight(markdown, "\n"))

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s\n%s\n", titleStyle.Render(title), box)
}

// Raw writes text unstyled, for piping
func (c *Console) Raw(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, text)
}
