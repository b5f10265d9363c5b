package theme

import (
	"image/color"
	"os"

	"github.com/charmbracelet/lipgloss/v2"
)

// Palette defines the colors used by the console. Values are
// color.Color so themes can be ANSI indices or truecolor hex.
type Palette struct {
	Accent  color.Color // tab highlight, modal border
	Warning color.Color // headings, hints
	Dim     color.Color // subtle text, descriptor fields

	Success color.Color // success messages
	Danger  color.Color // errors, destructive prompts
	Info    color.Color // keys in hint lines
	Text    color.Color // bright text

	SelectedBG color.Color // row matching the navigation selection
	CursorBG   color.Color // row under the cursor
	Border     color.Color // panel borders
}

// Default returns the stock ANSI palette
func Default() Palette {
	return Palette{
		Accent:     lipgloss.Color("13"),
		Warning:    lipgloss.Color("11"),
		Dim:        lipgloss.Color("8"),
		Success:    lipgloss.Color("10"),
		Danger:     lipgloss.Color("9"),
		Info:       lipgloss.Color("14"),
		Text:       lipgloss.Color("15"),
		SelectedBG: lipgloss.Color("13"),
		CursorBG:   lipgloss.Color("14"),
		Border:     lipgloss.Color("8"),
	}
}

// FromEnv overlays base with colors from the environment.
// Hex values like "#88c0d0" or ANSI numbers like "33" are both supported.
//
// Supported variables:
//
//	MONGONAUT_COLOR_ACCENT
//	MONGONAUT_COLOR_WARNING
//	MONGONAUT_COLOR_DIM
//	MONGONAUT_COLOR_SUCCESS
//	MONGONAUT_COLOR_DANGER
//	MONGONAUT_COLOR_INFO
//	MONGONAUT_COLOR_TEXT
//	MONGONAUT_COLOR_BORDER
//	MONGONAUT_BG_SELECTED
//	MONGONAUT_BG_CURSOR
func FromEnv(base Palette) Palette {
	set := func(env string, apply func(color.Color)) {
		if v := os.Getenv(env); v != "" {
			apply(lipgloss.Color(v))
		}
	}

	set("MONGONAUT_COLOR_ACCENT", func(c color.Color) { base.Accent = c; base.SelectedBG = c })
	set("MONGONAUT_COLOR_WARNING", func(c color.Color) { base.Warning = c })
	set("MONGONAUT_COLOR_DIM", func(c color.Color) { base.Dim = c })
	set("MONGONAUT_COLOR_SUCCESS", func(c color.Color) { base.Success = c })
	set("MONGONAUT_COLOR_DANGER", func(c color.Color) { base.Danger = c })
	set("MONGONAUT_COLOR_INFO", func(c color.Color) { base.Info = c })
	set("MONGONAUT_COLOR_TEXT", func(c color.Color) { base.Text = c })
	set("MONGONAUT_COLOR_BORDER", func(c color.Color) { base.Border = c })
	set("MONGONAUT_BG_SELECTED", func(c color.Color) { base.SelectedBG = c })
	set("MONGONAUT_BG_CURSOR", func(c color.Color) { base.CursorBG = c })
	return base
}
