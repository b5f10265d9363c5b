package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/theme"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
)

func (m *Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// bodySize is the area between the header and the status line
func (m *Model) bodySize() (int, int) {
	w, h := m.size()
	return w, max(3, h-2)
}

// View implements tea.Model. The console owns the whole screen.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	w, bodyHeight := m.bodySize()
	header := m.renderHeader(w)
	status := m.renderStatusLine(w)

	var body string
	if m.screen == screenConnections {
		body = m.renderConnections(w, bodyHeight)
	} else {
		switch m.ActiveTab() {
		case model.TabDatabase:
			body = m.tree.View(w, bodyHeight)
		case model.TabHelp:
			body = m.renderHelp(w)
		case model.TabConsole:
			body = m.renderConsole(w, bodyHeight)
		case model.TabSettings:
			body = m.renderSettings(w)
		}
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m *Model) renderHeader(width int) string {
	st := theme.Current()
	title := st.Title.Render("mongonaut")
	if m.screen == screenConnections {
		return title + "  " + st.Dim.Render("connections")
	}

	tabs := make([]string, len(model.Tabs))
	for i, tab := range model.Tabs {
		label := fmt.Sprintf("%d %s", i+1, tab)
		if tab == m.ActiveTab() {
			tabs[i] = st.TabActive.Render(label)
		} else {
			tabs[i] = st.Tab.Render(label)
		}
	}
	left := title + "  " + strings.Join(tabs, "")
	right := st.Dim.Render(m.conn.Name + " · " + m.conn.Address())
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderStatusLine(width int) string {
	st := theme.Current()
	text := m.status.Text
	style := st.Dim
	if m.status.Error {
		style = st.Error
	}
	right := "q quit"
	if m.screen == screenBrowser {
		right = "1-4 tabs · X disconnect · q quit"
	}
	gap := max(1, width-lipgloss.Width(text)-lipgloss.Width(right))
	return style.Render(text) + strings.Repeat(" ", gap) + st.Hint.Render(right)
}

func (m *Model) renderConnections(width, height int) string {
	st := theme.Current()
	if m.dialog.IsOpen() {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.dialog.View(min(width-4, 72)))
	}

	lines := []string{st.Title.Render("CONNECTIONS")}
	if len(m.profiles) == 0 {
		lines = append(lines, st.Dim.Render("no saved connections, press n to add one"))
	} else {
		start, end := m.cursor.Window()
		for i := start; i < end; i++ {
			p := m.profiles[i]
			row := fmt.Sprintf("%-20s %-28s %s", p.Name, p.Connection().Address(), p.Username)
			if p.Name == m.connecting {
				row += "  connecting…"
			}
			if i == m.cursor.Cursor() {
				row = st.Cursor.Render(row)
			} else {
				row = st.Row.Render(row)
			}
			lines = append(lines, row)
		}
	}
	if m.profilesErr != "" {
		lines = append(lines, st.Error.Render("! "+m.profilesErr))
	}
	lines = append(lines, "", hintLine(
		"enter", "connect", "p", "password", "n", "new", "d", "delete", "r", "reload"))
	return st.Panel.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func hintLine(pairs ...string) string {
	st := theme.Current()
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, st.Key.Render(pairs[i])+" "+st.Hint.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Navigation", [][2]string{
		{"1-4, [ ]", "switch tabs"},
		{"j/k, ↑/↓", "move cursor"},
		{"enter, l", "select"},
		{"tab", "switch panel"},
		{"h, ←", "back to databases"},
		{"/", "filter the focused list"},
	}},
	{"Databases, collections, buckets", [][2]string{
		{"N", "new database"},
		{"n", "new entry in the focused list"},
		{"d", "drop the entry under the cursor"},
		{"b", "toggle collections / GridFS buckets"},
		{"y", "copy the namespace under the cursor"},
		{"r", "reload the focused list"},
	}},
	{"Dialogs", [][2]string{
		{"enter", "next field / confirm"},
		{"y / n", "confirm / cancel a drop"},
		{"esc", "cancel or close"},
	}},
	{"Session", [][2]string{
		{"X", "disconnect"},
		{"q, ctrl+c", "quit"},
	}},
}

func (m *Model) renderHelp(width int) string {
	st := theme.Current()
	var b strings.Builder
	for i, section := range helpSections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(st.Title.Render(section.title) + "\n")
		for _, k := range section.keys {
			b.WriteString("  " + st.Key.Width(14).Render(k[0]) + st.Row.Render(k[1]) + "\n")
		}
	}
	return st.Panel.Width(width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

// renderConsole lists the most recent gateway calls, newest first
func (m *Model) renderConsole(width, height int) string {
	st := theme.Current()
	entries := m.deps.History.Entries()
	lines := []string{st.Title.Render(fmt.Sprintf("GATEWAY CALLS (%d)", len(entries)))}
	if len(entries) == 0 {
		lines = append(lines, st.Dim.Render("no calls yet"))
	}
	room := max(1, height-3)
	for i := len(entries) - 1; i >= 0 && len(lines) <= room; i-- {
		e := entries[i]
		outcome := st.Success.Render(e.Outcome)
		if e.Outcome != "ok" {
			outcome = st.Error.Render(e.Outcome)
		}
		line := fmt.Sprintf("%s %-6s %s %s %s",
			st.Dim.Render(e.At.Format("15:04:05")), e.Method, e.Path, outcome,
			st.Dim.Render(e.Duration.String()))
		if e.Detail != "" {
			line += " " + st.Hint.Render(e.Detail)
		}
		lines = append(lines, line)
	}
	return st.Panel.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderSettings shows the effective configuration as TOML
func (m *Model) renderSettings(width int) string {
	st := theme.Current()
	lines := []string{
		st.Title.Render("SETTINGS"),
		st.Dim.Render("config: " + m.deps.ConfigPath),
		"",
	}
	data, err := m.deps.Config.Encode()
	if err != nil {
		lines = append(lines, st.Error.Render("! "+err.Error()))
	} else {
		lines = append(lines, strings.TrimRight(string(data), "\n"))
	}
	return st.Panel.Width(width - 2).Render(strings.Join(lines, "\n"))
}
