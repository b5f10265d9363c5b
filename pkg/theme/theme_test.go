package theme

import (
	"image/color"
	"testing"

	"github.com/charmbracelet/lipgloss/v2"
)

func TestAllPresetsHaveRequiredColors(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, ok := Get(name)
			if !ok {
				t.Fatalf("Get(%q) not found", name)
			}
			colors := map[string]color.Color{
				"Accent":     p.Accent,
				"Warning":    p.Warning,
				"Dim":        p.Dim,
				"Success":    p.Success,
				"Danger":     p.Danger,
				"Info":       p.Info,
				"Text":       p.Text,
				"SelectedBG": p.SelectedBG,
				"CursorBG":   p.CursorBG,
				"Border":     p.Border,
			}
			for field, c := range colors {
				if c == nil {
					t.Errorf("%s color is nil", field)
				}
			}
		})
	}
}

func TestFromName_UnknownFallsBackToDefault(t *testing.T) {
	got := FromName("does-not-exist")
	if got != Default() {
		t.Errorf("FromName(unknown) = %+v, want Default()", got)
	}
	if FromName("NORD") != presets["nord"] {
		t.Error("FromName should be case-insensitive")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MONGONAUT_COLOR_ACCENT", "#123456")
	t.Setenv("MONGONAUT_COLOR_DANGER", "196")

	p := FromEnv(Default())
	if p.Accent != lipgloss.Color("#123456") {
		t.Errorf("Accent = %v", p.Accent)
	}
	if p.SelectedBG != lipgloss.Color("#123456") {
		t.Errorf("SelectedBG should follow Accent, got %v", p.SelectedBG)
	}
	if p.Danger != lipgloss.Color("196") {
		t.Errorf("Danger = %v", p.Danger)
	}
	if p.Success != Default().Success {
		t.Errorf("unset variables must keep the base color")
	}
}
