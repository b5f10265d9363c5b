package theme

import (
	"github.com/charmbracelet/lipgloss/v2"
)

// Styles are the lipgloss styles derived from a Palette
type Styles struct {
	Title     lipgloss.Style
	Row       lipgloss.Style
	Cursor    lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Hint      lipgloss.Style
	Key       lipgloss.Style
	TabActive lipgloss.Style
	Tab       lipgloss.Style
	Panel     lipgloss.Style
	Focused   lipgloss.Style
	Modal     lipgloss.Style
	Danger    lipgloss.Style
}

// NewStyles builds Styles for p
func NewStyles(p Palette) Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
		Row:       lipgloss.NewStyle().Foreground(p.Text),
		Cursor:    lipgloss.NewStyle().Background(p.CursorBG).Foreground(lipgloss.Color("0")),
		Selected:  lipgloss.NewStyle().Background(p.SelectedBG).Foreground(lipgloss.Color("0")).Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(p.Dim),
		Error:     lipgloss.NewStyle().Foreground(p.Danger),
		Success:   lipgloss.NewStyle().Foreground(p.Success),
		Hint:      lipgloss.NewStyle().Foreground(p.Dim),
		Key:       lipgloss.NewStyle().Foreground(p.Info).Bold(true),
		TabActive: lipgloss.NewStyle().Background(p.Accent).Foreground(lipgloss.Color("0")).Bold(true).Padding(0, 1),
		Tab:       lipgloss.NewStyle().Foreground(p.Dim).Padding(0, 1),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1),
		Focused:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Accent).Padding(0, 1),
		Modal:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Accent).Padding(1, 2),
		Danger:    lipgloss.NewStyle().Foreground(p.Danger).Bold(true),
	}
}

var current = NewStyles(Default())

// Current returns the active styles
func Current() Styles {
	return current
}

// Apply makes p the active palette
func Apply(p Palette) {
	current = NewStyles(p)
}
