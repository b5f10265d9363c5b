package listpanel

import (
	"fmt"
	"strings"

	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/theme"
)

// View renders the panel body. The row window comes from SetHeight.
func (p *Panel) View(nav model.NavigationState, width int) string {
	st := theme.Current()

	header := strings.ToUpper(p.cfg.Kind.Plural())
	if p.cfg.Kind.IsChild() {
		header += " · " + p.cfg.Database
	}
	if p.loading {
		header += " " + p.spinner.View()
	}
	lines := []string{st.Title.Render(header)}

	if p.filtering || p.filter.Value() != "" {
		lines = append(lines, p.filter.View())
	}

	rows := p.Rows()

	switch {
	case len(rows) == 0 && !p.list.Loaded() && p.err == "":
		lines = append(lines, st.Dim.Render("loading…"))
	case len(rows) == 0 && p.filter.Value() != "":
		lines = append(lines, st.Dim.Render("no matches"))
	case len(rows) == 0 && p.list.Loaded():
		lines = append(lines, st.Dim.Render(fmt.Sprintf("no %s", p.cfg.Kind.Plural())))
	default:
		start, end := p.nav.Window()
		for i := start; i < end && i < len(rows); i++ {
			lines = append(lines, rows[i].View(nav, i == p.nav.Cursor(), width))
		}
	}

	if p.err != "" {
		lines = append(lines, st.Error.Render("! "+p.err))
	} else if p.list.Loaded() {
		lines = append(lines, st.Dim.Render(fmt.Sprintf("%d %s · %s",
			len(p.list.Items), p.cfg.Kind.Plural(), p.list.LastFetchedAt.Format("15:04:05"))))
	}
	return strings.Join(lines, "\n")
}
