// Package listpanel shows one level of the hierarchy: the databases of a
// connection, or the collections or buckets of a database.
package listpanel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/tui/clipboard"
	"github.com/darksworm/mongonaut/pkg/tui/confirm"
	"github.com/darksworm/mongonaut/pkg/tui/listnav"
)

var lastID int64

// Config wires a panel to its parent scope and callbacks
type Config struct {
	Kind         model.EntityKind
	ConnectionID string
	Database     string

	Gateway Gateway
	Guard   *confirm.Guard

	// OnSelect is called when the operator picks a row
	OnSelect func(model.Entity) tea.Cmd
	// OnDeleted is called after a successful drop, before the refresh
	OnDeleted func(model.Entity)
	// OnLoaded is called after every applied fetch; its command is returned
	// from Update
	OnLoaded func(model.ListState) tea.Cmd

	AutoCloseDelay time.Duration
}

// Panel owns the ListState for one level
type Panel struct {
	id  int
	cfg Config

	list    model.ListState
	seq     int
	loading bool
	err     string
	mounted bool
	dead    bool
	height  int

	modal     *confirm.Modal
	nav       *listnav.Navigator
	filter    textinput.Model
	filtering bool
	spinner   spinner.Model

	logger *cblog.Logger
}

// New creates an unmounted panel
func New(cfg Config) *Panel {
	id := int(atomic.AddInt64(&lastID, 1))

	modal := confirm.New(cfg.Guard)
	if cfg.AutoCloseDelay > 0 {
		modal.AutoCloseDelay = cfg.AutoCloseDelay
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter"

	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return &Panel{
		id:      id,
		cfg:     cfg,
		modal:   modal,
		nav:     listnav.New(),
		filter:  filter,
		spinner: s,
		logger: cblog.With("component", "listpanel", "kind", cfg.Kind,
			"database", cfg.Database, "panel", id),
	}
}

// ID returns the instance id carried by this panel's fetch results
func (p *Panel) ID() int { return p.id }

// Kind returns the entity kind listed by the panel
func (p *Panel) Kind() model.EntityKind { return p.cfg.Kind }

// Database returns the parent database for child panels
func (p *Panel) Database() string { return p.cfg.Database }

// List returns the current ListState
func (p *Panel) List() model.ListState { return p.list }

// Items returns the current items in server order
func (p *Panel) Items() []model.Entity { return p.list.Items }

// Loading reports whether the latest issued fetch is outstanding
func (p *Panel) Loading() bool { return p.loading }

// Err returns the panel-level error from the latest failed fetch
func (p *Panel) Err() string { return p.err }

// Modal exposes the panel's confirm modal
func (p *Panel) Modal() *confirm.Modal { return p.modal }

// Destroyed reports whether the panel has been unmounted
func (p *Panel) Destroyed() bool { return p.dead }

// Mount issues the initial fetch. Further calls do nothing.
func (p *Panel) Mount() tea.Cmd {
	if p.mounted || p.dead {
		return nil
	}
	p.mounted = true
	return p.Refresh()
}

// Refresh issues a fetch scoped to the panel's parent. Only the response
// to the most recently issued fetch is applied.
func (p *Panel) Refresh() tea.Cmd {
	if p.dead {
		return nil
	}
	p.seq++
	p.loading = true

	id, seq := p.id, p.seq
	gw, kind, conn, database := p.cfg.Gateway, p.cfg.Kind, p.cfg.ConnectionID, p.cfg.Database
	fetch := func() tea.Msg {
		items, err := gw.List(context.Background(), conn, kind, database)
		return model.ListLoadedMsg{PanelID: id, Seq: seq, Items: items, FetchedAt: time.Now(), Err: err}
	}
	return tea.Batch(fetch, p.spinner.Tick)
}

func (p *Panel) apply(msg model.ListLoadedMsg) tea.Cmd {
	if p.dead || msg.Seq != p.seq {
		return nil
	}
	p.loading = false

	if msg.Err != nil {
		p.err = apperrors.UserMessage(msg.Err)
		p.logger.Warn("Fetch failed, keeping previous list", "seq", msg.Seq, "err", msg.Err)
		return nil
	}

	var current *model.Entity
	if rows := p.visible(); p.nav.Cursor() < len(rows) {
		e := rows[p.nav.Cursor()]
		current = &e
	}

	p.err = ""
	p.list = model.NewListState(msg.Items, msg.FetchedAt)
	p.logger.Debug("Fetched", "seq", msg.Seq, "count", len(p.list.Items))

	rows := p.visible()
	p.nav.SetCount(len(rows))
	if current != nil {
		for i, e := range rows {
			if e.Key() == current.Key() {
				p.nav.Set(i)
				break
			}
		}
	}

	if p.cfg.OnLoaded != nil {
		return p.cfg.OnLoaded(p.list)
	}
	return nil
}

// SetHeight sets the lines available to the panel, header and status
// line included
func (p *Panel) SetHeight(h int) {
	p.height = h
	p.layout()
}

// layout sizes the row window from the height and the visible chrome
func (p *Panel) layout() {
	if p.height <= 0 {
		return
	}
	chrome := 2
	if p.filtering || p.filter.Value() != "" {
		chrome++
	}
	p.nav.SetHeight(p.height - chrome)
}

// OpenDelete opens the destructive-confirm modal for e
func (p *Panel) OpenDelete(e model.Entity) bool {
	if p.dead {
		return false
	}
	return p.modal.Open(DeleteDialog(p.cfg.Gateway, e, func() tea.Cmd {
		if p.cfg.OnDeleted != nil {
			p.cfg.OnDeleted(e)
		}
		return p.Refresh()
	}))
}

// OpenCreate opens the create-form modal for the panel's kind
func (p *Panel) OpenCreate() bool {
	if p.dead {
		return false
	}
	return p.modal.Open(CreateDialog(p.cfg.Gateway, p.cfg.Kind, p.cfg.ConnectionID, p.cfg.Database, p.Refresh))
}

// Destroy unmounts the panel. Pending fetches and modal results become no-ops.
func (p *Panel) Destroy() {
	if p.dead {
		return
	}
	p.dead = true
	p.loading = false
	p.modal.Destroy()
	p.logger.Debug("Destroyed")
}

// Rows returns the EntryRows for the visible (filtered) items
func (p *Panel) Rows() []EntryRow {
	visible := p.visible()
	rows := make([]EntryRow, len(visible))
	for i, e := range visible {
		rows[i] = EntryRow{Entity: e, onSelect: p.cfg.OnSelect, onDelete: p.OpenDelete}
	}
	return rows
}

// Current returns the row under the cursor
func (p *Panel) Current() (EntryRow, bool) {
	rows := p.Rows()
	if c := p.nav.Cursor(); c < len(rows) {
		return rows[c], true
	}
	return EntryRow{}, false
}

// Filtering reports whether the filter input has focus
func (p *Panel) Filtering() bool { return p.filtering }

// visible applies the filter for display only; the ListState is untouched
func (p *Panel) visible() []model.Entity {
	query := p.filter.Value()
	if query == "" {
		return p.list.Items
	}
	out := make([]model.Entity, 0, len(p.list.Items))
	for _, e := range p.list.Items {
		if fuzzyMatch(query, e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// Update handles fetch results, modal traffic and keys
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	if p.dead {
		return nil
	}
	switch msg := msg.(type) {
	case model.ListLoadedMsg:
		if msg.PanelID == p.id {
			return p.apply(msg)
		}
		return nil
	case model.ModalResultMsg, model.ModalAutoCloseMsg:
		return p.modal.Update(msg)
	case spinner.TickMsg:
		cmd := p.modal.Update(msg)
		if p.loading && msg.ID == p.spinner.ID() {
			var spin tea.Cmd
			p.spinner, spin = p.spinner.Update(msg)
			return tea.Batch(cmd, spin)
		}
		return cmd
	case tea.KeyPressMsg:
		if p.modal.IsOpen() {
			return p.modal.Update(msg)
		}
		if p.filtering {
			return p.handleFilterKey(msg)
		}
		return p.handleKey(msg)
	}
	return nil
}

func (p *Panel) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		p.nav.Down()
	case "k", "up":
		p.nav.Up()
	case "g", "home":
		p.nav.Top()
	case "G", "end":
		p.nav.Bottom()
	case "enter", "l", "right":
		if row, ok := p.Current(); ok {
			return row.OnSelect()
		}
	case "d", "x", "delete":
		if row, ok := p.Current(); ok {
			row.OnDeleteTrigger()
		}
	case "y":
		if row, ok := p.Current(); ok {
			return clipboard.CopyCmd(row.Entity.Namespace())
		}
	case "n", "c":
		p.OpenCreate()
	case "r":
		return p.Refresh()
	case "/":
		p.filtering = true
		p.layout()
		return p.filter.Focus()
	}
	return nil
}

func (p *Panel) handleFilterKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.filter.SetValue("")
		p.filter.Blur()
		p.filtering = false
		p.nav.SetCount(len(p.visible()))
		p.layout()
		return nil
	case "enter":
		p.filter.Blur()
		p.filtering = false
		p.layout()
		return nil
	}
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	p.nav.SetCount(len(p.visible()))
	p.nav.Top()
	return cmd
}
