package listpanel

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/theme"
)

// EntryRow renders one entity. It holds no selection state of its own;
// Selected is always derived from the NavigationState it is given.
type EntryRow struct {
	Entity model.Entity

	onSelect func(model.Entity) tea.Cmd
	onDelete func(model.Entity) bool
}

// Selected reports whether the row's entity is the selection for its level
func (r EntryRow) Selected(nav model.NavigationState) bool {
	return nav.IsSelected(r.Entity)
}

// OnSelect forwards the row's entity to the panel's selection callback
func (r EntryRow) OnSelect() tea.Cmd {
	if r.onSelect == nil {
		return nil
	}
	return r.onSelect(r.Entity)
}

// OnDeleteTrigger opens the delete modal bound to the row's entity
func (r EntryRow) OnDeleteTrigger() bool {
	if r.onDelete == nil {
		return false
	}
	return r.onDelete(r.Entity)
}

// View renders the row for the given width
func (r EntryRow) View(nav model.NavigationState, cursor bool, width int) string {
	st := theme.Current()

	marker := "  "
	if r.Selected(nav) {
		marker = "▸ "
	}
	text := marker + r.Entity.Name

	var extras []string
	for _, info := range r.Entity.Info {
		extras = append(extras, info.Key+"="+info.Value)
	}
	if len(extras) > 0 && width > 0 {
		detail := " " + strings.Join(extras, " ")
		if room := width - len([]rune(text)) - 1; room > 3 {
			if len([]rune(detail)) > room {
				detail = string([]rune(detail)[:room-1]) + "…"
			}
			text += st.Dim.Render(detail)
		}
	}

	switch {
	case cursor:
		return st.Cursor.Width(width).Render(text)
	case r.Selected(nav):
		return st.Selected.Width(width).Render(text)
	default:
		return st.Row.Width(width).Render(text)
	}
}
