// Package styles holds the lipgloss styles for xmod's terminal output.
//
// Every style only sets colors and emphasis, never padding or borders, so
// rendered text keeps its exact bytes when the output is not a terminal and
// lipgloss falls back to the ASCII profile.
package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	ErrorColor   = lipgloss.Color("#F87171") // Red
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	ChangedColor = lipgloss.Color("#10B981") // Green

	Prompt  = lipgloss.NewStyle().Bold(true).Foreground(WarningColor)
	Status  = lipgloss.NewStyle().Foreground(PrimaryColor)
	Error   = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Changed = lipgloss.NewStyle().Foreground(ChangedColor)
)

// Renderer styles text for one output stream. The color profile is detected
// from w, so a pipe or a file gets plain text.
type Renderer struct {
	r *lipgloss.Renderer
}

// NewRenderer creates a Renderer bound to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{r: lipgloss.NewRenderer(w)}
}

func (r *Renderer) render(style lipgloss.Style, s string) string {
	if r == nil || r.r == nil {
		return s
	}
	return style.Renderer(r.r).Render(s)
}

// Prompt renders a confirmation question.
func (r *Renderer) Prompt(s string) string { return r.render(Prompt, s) }

// Status renders a status-query report line.
func (r *Renderer) Status(s string) string { return r.render(Status, s) }

// Error renders an error line.
func (r *Renderer) Error(s string) string { return r.render(Error, s) }

// Muted renders low-importance output such as "retained" messages.
func (r *Renderer) Muted(s string) string { return r.render(Muted, s) }

// Changed renders a "changed" message.
func (r *Renderer) Changed(s string) string { return r.render(Changed, s) }
