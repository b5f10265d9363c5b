package confirm

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/theme"
)

// View renders the modal box, or "" when closed
func (m *Modal) View(width int) string {
	if !m.state.IsOpen() {
		return ""
	}
	st := theme.Current()

	var lines []string
	lines = append(lines, st.Title.Render(m.opts.Title), "")

	if m.state.Mode == model.ModeDelete {
		lines = append(lines, st.Danger.Render(m.opts.Prompt))
	} else {
		labelWidth := 0
		for _, f := range m.opts.Fields {
			labelWidth = max(labelWidth, lipgloss.Width(f.Label))
		}
		for i, f := range m.opts.Fields {
			label := lipgloss.NewStyle().Width(labelWidth + 2).Render(f.Label + ":")
			if i == m.focus {
				label = st.Key.Render(label)
			}
			lines = append(lines, label+m.inputs[i].View())
		}
	}

	lines = append(lines, "")
	switch {
	case m.state.Phase == model.PhaseSubmitting:
		lines = append(lines, m.spinner.View()+" Working…")
	case m.state.Phase == model.PhaseSucceeded:
		lines = append(lines, st.Success.Render(m.state.Message))
	case m.state.Phase == model.PhaseFailed:
		lines = append(lines, st.Error.Render(m.state.Message))
	case m.fieldErr != "":
		lines = append(lines, st.Error.Render(m.fieldErr))
	}
	lines = append(lines, m.hints())

	boxWidth := 56
	if width > 0 && width-4 < boxWidth {
		boxWidth = max(24, width-4)
	}
	return st.Modal.Width(boxWidth).Render(strings.Join(lines, "\n"))
}

func (m *Modal) hints() string {
	st := theme.Current()
	hint := func(key, label string) string {
		return st.Key.Render(key) + " " + st.Hint.Render(label)
	}
	switch m.state.Phase {
	case model.PhaseSubmitting:
		return st.Hint.Render("please wait")
	case model.PhaseSucceeded:
		return hint("enter", "close")
	}
	if m.state.Mode == model.ModeDelete {
		return hint("y", "confirm") + "  " + hint("n/esc", "cancel")
	}
	label := m.opts.SubmitLabel
	if label == "" {
		label = "create"
	}
	submit := hint("enter", label)
	if !m.CanSubmit() {
		submit = st.Hint.Render("enter " + label + " (fill in all fields)")
	}
	return submit + "  " + hint("tab", "next field") + "  " + hint("esc", "cancel")
}
