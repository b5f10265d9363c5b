package navtree

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/darksworm/mongonaut/pkg/theme"
)

// View renders the database and child panels side by side, with the open
// modal placed over the middle of the area.
func (t *Tree) View(width, height int) string {
	st := theme.Current()

	if m := t.ActiveModal(); m != nil {
		box := m.View(min(width-4, 72))
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}

	left := width / 3
	right := width - left - 1
	inner := height - 2

	dbView := st.Dim.Render("connecting…")
	if t.dbPanel != nil {
		dbView = t.dbPanel.View(t.state, left-2)
	}
	childView := st.Hint.Render("select a database  ·  N new database  ·  b toggle buckets")
	if t.childPanel != nil {
		childView = t.childPanel.View(t.state, right-2)
	}

	leftStyle, rightStyle := st.Focused, st.Panel
	if t.FocusChild() {
		leftStyle, rightStyle = st.Panel, st.Focused
	}
	leftStyle = leftStyle.Width(left - 2).Height(inner)
	rightStyle = rightStyle.Width(right - 2).Height(inner)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(dbView), " ", rightStyle.Render(childView))
}
