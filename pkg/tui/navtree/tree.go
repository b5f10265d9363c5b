// Package navtree is the root of the database browser. It owns the
// NavigationState and the mounted list panels, and relays refresh requests
// between parts of the tree that cannot see each other.
package navtree

import (
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/tui/confirm"
	"github.com/darksworm/mongonaut/pkg/tui/listpanel"
)

// Config wires the tree to a connection
type Config struct {
	Connection     model.Connection
	Gateway        listpanel.Gateway
	Guard          *confirm.Guard
	ChildKind      model.EntityKind
	AutoCloseDelay time.Duration
}

type refresher struct {
	token int
	fn    func() tea.Cmd
}

// Tree holds the navigation state for one connection
type Tree struct {
	cfg   Config
	state model.NavigationState

	dbPanel    *listpanel.Panel
	childPanel *listpanel.Panel
	childKind  model.EntityKind
	focusChild bool

	// selection parked while the panels are unmounted; restored once a
	// fresh list contains it
	pendingDB    *model.Entity
	pendingChild *model.Entity

	width, height int

	createDB   *confirm.Modal
	refreshers []refresher
	lastToken  int
	unregister func()

	logger *cblog.Logger
}

// New creates a tree on the DATABASE tab with nothing mounted
func New(cfg Config) *Tree {
	if cfg.Guard == nil {
		cfg.Guard = confirm.NewGuard()
	}
	if cfg.ChildKind != model.KindBucket {
		cfg.ChildKind = model.KindCollection
	}
	t := &Tree{
		cfg:       cfg,
		state:     model.NewNavigationState(),
		childKind: cfg.ChildKind,
		logger:    cblog.With("component", "navtree", "connectionId", cfg.Connection.ID),
	}
	t.createDB = t.newModal()
	return t
}

func (t *Tree) newModal() *confirm.Modal {
	m := confirm.New(t.cfg.Guard)
	if t.cfg.AutoCloseDelay > 0 {
		m.AutoCloseDelay = t.cfg.AutoCloseDelay
	}
	return m
}

// State returns a copy of the navigation state
func (t *Tree) State() model.NavigationState { return t.state }

// Connection returns the connection the tree browses
func (t *Tree) Connection() model.Connection { return t.cfg.Connection }

// DatabasePanel returns the mounted database panel, or nil
func (t *Tree) DatabasePanel() *listpanel.Panel { return t.dbPanel }

// ChildPanel returns the mounted collection/bucket panel, or nil
func (t *Tree) ChildPanel() *listpanel.Panel { return t.childPanel }

// ChildKind returns what the child panel lists
func (t *Tree) ChildKind() model.EntityKind { return t.childKind }

// CreateDatabaseModal returns the tree-level create-database modal
func (t *Tree) CreateDatabaseModal() *confirm.Modal { return t.createDB }

// FocusChild reports whether keys go to the child panel
func (t *Tree) FocusChild() bool { return t.focusChild && t.childPanel != nil }

// CapturingInput reports whether a modal or a panel filter is taking keys
func (t *Tree) CapturingInput() bool {
	if t.ActiveModal() != nil {
		return true
	}
	for _, p := range []*listpanel.Panel{t.dbPanel, t.childPanel} {
		if p != nil && p.Filtering() {
			return true
		}
	}
	return false
}

// Pending returns the parked database selection, or nil
func (t *Tree) Pending() *model.Entity { return t.pendingDB }

// SelectTab switches tabs. Leaving DATABASE unmounts the panels and parks
// the selection; it comes back once the database list loads and still
// contains it.
func (t *Tree) SelectTab(tab model.Tab) {
	if tab == t.state.ActiveTab {
		return
	}
	t.state.ActiveTab = tab
	if tab != model.TabDatabase {
		if t.state.SelectedDatabase != nil {
			t.pendingDB = t.state.SelectedDatabase
			t.pendingChild = t.state.SelectedCollection
		}
		t.state.SelectedDatabase = nil
		t.state.SelectedCollection = nil
		t.unmountChild()
		t.unmountDatabases()
		t.createDB.Destroy()
		t.createDB = t.newModal()
	}
}

// EnsureMounted mounts whatever the DATABASE tab should show
func (t *Tree) EnsureMounted() tea.Cmd {
	if t.state.ActiveTab != model.TabDatabase {
		return nil
	}
	var cmds []tea.Cmd
	if t.dbPanel == nil {
		t.dbPanel = listpanel.New(listpanel.Config{
			Kind:           model.KindDatabase,
			ConnectionID:   t.cfg.Connection.ID,
			Gateway:        t.cfg.Gateway,
			Guard:          t.cfg.Guard,
			AutoCloseDelay: t.cfg.AutoCloseDelay,
			OnSelect:       t.SetSelectedEntity,
			OnDeleted:      t.onDeleted,
			OnLoaded:       t.reconcile(model.KindDatabase),
		})
		t.unregister = t.RegisterRefresher(t.dbPanel.Refresh)
		t.layout()
		cmds = append(cmds, t.dbPanel.Mount())
	}
	return tea.Batch(cmds...)
}

// Resize sets the area the panels are laid out in
func (t *Tree) Resize(width, height int) {
	t.width, t.height = width, height
	t.layout()
}

func (t *Tree) layout() {
	if t.height <= 0 {
		return
	}
	for _, p := range []*listpanel.Panel{t.dbPanel, t.childPanel} {
		if p != nil {
			p.SetHeight(t.height - 2)
		}
	}
}

// SetSelectedEntity selects e at its level. Selecting a database mounts a
// fresh child panel for it. Entities absent from the current list are ignored.
func (t *Tree) SetSelectedEntity(e model.Entity) tea.Cmd {
	switch e.Kind {
	case model.KindDatabase:
		if t.dbPanel == nil || !t.dbPanel.List().Contains(e) {
			return nil
		}
		selected := e
		t.state.SelectedDatabase = &selected
		t.state.SelectedCollection = nil
		t.pendingDB, t.pendingChild = nil, nil
		t.unmountChild()
		t.focusChild = true
		t.logger.Debug("Selected database", "name", e.Name)
		return t.mountChild(e.Name)
	case model.KindCollection, model.KindBucket:
		if t.childPanel == nil || !t.childPanel.List().Contains(e) {
			return nil
		}
		selected := e
		t.state.SelectedCollection = &selected
		t.logger.Debug("Selected", "kind", e.Kind, "name", e.Path())
	}
	return nil
}

// SetChildKind switches the child panel between collections and buckets
func (t *Tree) SetChildKind(kind model.EntityKind) tea.Cmd {
	if !kind.IsChild() || kind == t.childKind {
		return nil
	}
	t.childKind = kind
	t.state.SelectedCollection = nil
	t.pendingChild = nil
	if t.childPanel == nil || t.state.SelectedDatabase == nil {
		return nil
	}
	t.unmountChild()
	return t.mountChild(t.state.SelectedDatabase.Name)
}

// ClearSelection resets the selection for kind's level without touching
// the active tab. Clearing the database also clears the level below.
func (t *Tree) ClearSelection(kind model.EntityKind) {
	if kind == model.KindDatabase {
		t.state.SelectedDatabase = nil
		t.state.SelectedCollection = nil
		t.pendingDB, t.pendingChild = nil, nil
		t.unmountChild()
		t.focusChild = false
		return
	}
	t.state.SelectedCollection = nil
}

// RegisterRefresher adds fn as the target of RequestChildRefresh. The most
// recently registered function wins; the returned func removes it.
func (t *Tree) RegisterRefresher(fn func() tea.Cmd) (unregister func()) {
	t.lastToken++
	token := t.lastToken
	t.refreshers = append(t.refreshers, refresher{token: token, fn: fn})
	return func() {
		for i, r := range t.refreshers {
			if r.token == token {
				t.refreshers = append(t.refreshers[:i:i], t.refreshers[i+1:]...)
				return
			}
		}
	}
}

// RequestChildRefresh forwards to the registered refresher, if any
func (t *Tree) RequestChildRefresh() tea.Cmd {
	if len(t.refreshers) == 0 {
		return nil
	}
	return t.refreshers[len(t.refreshers)-1].fn()
}

// OpenCreateDatabase opens the tree-level create-database modal
func (t *Tree) OpenCreateDatabase() bool {
	if t.state.ActiveTab != model.TabDatabase {
		return false
	}
	return t.createDB.Open(listpanel.CreateDialog(t.cfg.Gateway, model.KindDatabase,
		t.cfg.Connection.ID, "", t.RequestChildRefresh))
}

// ActiveModal returns whichever modal in the tree is open, or nil
func (t *Tree) ActiveModal() *confirm.Modal {
	if t.createDB.IsOpen() {
		return t.createDB
	}
	for _, p := range []*listpanel.Panel{t.dbPanel, t.childPanel} {
		if p != nil && p.Modal().IsOpen() {
			return p.Modal()
		}
	}
	return nil
}

// Destroy unmounts everything; used when the connection goes away
func (t *Tree) Destroy() {
	t.unmountChild()
	t.unmountDatabases()
	t.createDB.Destroy()
}

// Update routes messages to live components. Messages for destroyed
// components match no live id and are dropped.
func (t *Tree) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case model.ListLoadedMsg, model.ModalResultMsg, model.ModalAutoCloseMsg, spinner.TickMsg:
		return t.broadcast(msg)
	case tea.KeyPressMsg:
		return t.handleKey(msg)
	}
	return nil
}

func (t *Tree) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, t.createDB.Update(msg))
	// Child first: a database-level callback may unmount it
	if t.childPanel != nil {
		cmds = append(cmds, t.childPanel.Update(msg))
	}
	if t.dbPanel != nil {
		cmds = append(cmds, t.dbPanel.Update(msg))
	}
	return tea.Batch(cmds...)
}

func (t *Tree) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if t.state.ActiveTab != model.TabDatabase {
		return nil
	}
	if t.createDB.IsOpen() {
		return t.createDB.Update(msg)
	}
	for _, p := range []*listpanel.Panel{t.dbPanel, t.childPanel} {
		if p != nil && p.Modal().IsOpen() {
			return p.Update(msg)
		}
	}

	focused := t.dbPanel
	if t.FocusChild() {
		focused = t.childPanel
	}
	if focused != nil && focused.Filtering() {
		return focused.Update(msg)
	}

	switch msg.String() {
	case "tab":
		if t.childPanel != nil {
			t.focusChild = !t.focusChild
		}
		return nil
	case "h", "left", "backspace":
		t.focusChild = false
		return nil
	case "b":
		if t.childKind == model.KindCollection {
			return t.SetChildKind(model.KindBucket)
		}
		return t.SetChildKind(model.KindCollection)
	case "N":
		t.OpenCreateDatabase()
		return nil
	}
	if focused == nil {
		return nil
	}
	return focused.Update(msg)
}

func (t *Tree) mountChild(database string) tea.Cmd {
	kind := t.childKind
	t.childPanel = listpanel.New(listpanel.Config{
		Kind:           kind,
		ConnectionID:   t.cfg.Connection.ID,
		Database:       database,
		Gateway:        t.cfg.Gateway,
		Guard:          t.cfg.Guard,
		AutoCloseDelay: t.cfg.AutoCloseDelay,
		OnSelect:       t.SetSelectedEntity,
		OnDeleted:      t.onDeleted,
		OnLoaded:       t.reconcile(kind),
	})
	t.layout()
	return t.childPanel.Mount()
}

func (t *Tree) unmountChild() {
	if t.childPanel == nil {
		return
	}
	t.childPanel.Destroy()
	t.childPanel = nil
	t.focusChild = false
}

func (t *Tree) unmountDatabases() {
	if t.dbPanel == nil {
		return
	}
	if t.unregister != nil {
		t.unregister()
		t.unregister = nil
	}
	t.dbPanel.Destroy()
	t.dbPanel = nil
}

// onDeleted clears the selection when the selected entity is dropped
func (t *Tree) onDeleted(e model.Entity) {
	if t.state.IsSelected(e) {
		t.logger.Debug("Selected entity dropped", "kind", e.Kind, "name", e.Path())
		t.ClearSelection(e.Kind)
	}
}

// reconcile runs after every applied fetch. It clears a selection missing
// from the fresh list and restores a parked one the list still contains.
func (t *Tree) reconcile(kind model.EntityKind) func(model.ListState) tea.Cmd {
	return func(list model.ListState) tea.Cmd {
		if cmd, ok := t.restore(kind, list); ok {
			return cmd
		}
		selected := t.state.Selected(kind)
		if selected == nil {
			return nil
		}
		if kind.IsChild() && selected.Kind != kind {
			return nil
		}
		if !list.Contains(*selected) {
			t.logger.Debug("Selection vanished from list", "kind", kind, "name", selected.Name)
			t.ClearSelection(kind)
		}
		return nil
	}
}

func (t *Tree) restore(kind model.EntityKind, list model.ListState) (tea.Cmd, bool) {
	if kind == model.KindDatabase {
		parked := t.pendingDB
		if parked == nil {
			return nil, false
		}
		t.pendingDB = nil
		if !list.Contains(*parked) {
			t.logger.Debug("Parked selection vanished", "name", parked.Name)
			t.pendingChild = nil
			return nil, true
		}
		t.state.SelectedDatabase = parked
		t.unmountChild()
		return t.mountChild(parked.Name), true
	}

	parked := t.pendingChild
	if parked == nil || parked.Kind != kind || t.state.SelectedDatabase == nil ||
		parked.Database != t.state.SelectedDatabase.Name {
		return nil, false
	}
	t.pendingChild = nil
	if list.Contains(*parked) {
		t.state.SelectedCollection = parked
	}
	return nil, true
}
