package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
)

// DefaultName is used when no theme is configured
const DefaultName = "default"

var presets = map[string]Palette{
	"dracula": {
		Accent:     lipgloss.Color("#bd93f9"),
		Warning:    lipgloss.Color("#f1fa8c"),
		Dim:        lipgloss.Color("#6272a4"),
		Success:    lipgloss.Color("#50fa7b"),
		Danger:     lipgloss.Color("#ff5555"),
		Info:       lipgloss.Color("#8be9fd"),
		Text:       lipgloss.Color("#f8f8f2"),
		SelectedBG: lipgloss.Color("#bd93f9"),
		CursorBG:   lipgloss.Color("#8be9fd"),
		Border:     lipgloss.Color("#6272a4"),
	},
	"nord": {
		Accent:     lipgloss.Color("#81a1c1"),
		Warning:    lipgloss.Color("#ebcb8b"),
		Dim:        lipgloss.Color("#4c566a"),
		Success:    lipgloss.Color("#a3be8c"),
		Danger:     lipgloss.Color("#bf616a"),
		Info:       lipgloss.Color("#88c0d0"),
		Text:       lipgloss.Color("#eceff4"),
		SelectedBG: lipgloss.Color("#81a1c1"),
		CursorBG:   lipgloss.Color("#88c0d0"),
		Border:     lipgloss.Color("#4c566a"),
	},
	"gruvbox": {
		Accent:     lipgloss.Color("#d3869b"),
		Warning:    lipgloss.Color("#fabd2f"),
		Dim:        lipgloss.Color("#928374"),
		Success:    lipgloss.Color("#b8bb26"),
		Danger:     lipgloss.Color("#fb4934"),
		Info:       lipgloss.Color("#83a598"),
		Text:       lipgloss.Color("#ebdbb2"),
		SelectedBG: lipgloss.Color("#d3869b"),
		CursorBG:   lipgloss.Color("#83a598"),
		Border:     lipgloss.Color("#928374"),
	},
	"catppuccin-mocha": {
		Accent:     lipgloss.Color("#cba6f7"),
		Warning:    lipgloss.Color("#f9e2af"),
		Dim:        lipgloss.Color("#7f849c"),
		Success:    lipgloss.Color("#a6e3a1"),
		Danger:     lipgloss.Color("#f38ba8"),
		Info:       lipgloss.Color("#94e2d5"),
		Text:       lipgloss.Color("#cdd6f4"),
		SelectedBG: lipgloss.Color("#cba6f7"),
		CursorBG:   lipgloss.Color("#94e2d5"),
		Border:     lipgloss.Color("#7f849c"),
	},
}

// Names returns the available theme names, sorted
func Names() []string {
	out := []string{DefaultName}
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FromName returns a preset by name, or Default() if unknown
func FromName(name string) Palette {
	if p, ok := presets[strings.ToLower(name)]; ok {
		return p
	}
	return Default()
}

// Get returns a preset and whether it exists
func Get(name string) (Palette, bool) {
	if strings.EqualFold(name, DefaultName) {
		return Default(), true
	}
	p, ok := presets[strings.ToLower(name)]
	return p, ok
}
