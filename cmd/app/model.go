package main

import (
	"context"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/api"
	"github.com/darksworm/mongonaut/pkg/config"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/store"
	"github.com/darksworm/mongonaut/pkg/tui/clipboard"
	"github.com/darksworm/mongonaut/pkg/tui/confirm"
	"github.com/darksworm/mongonaut/pkg/tui/listnav"
	"github.com/darksworm/mongonaut/pkg/tui/listpanel"
	"github.com/darksworm/mongonaut/pkg/tui/navtree"
)

// ProfileStore persists saved connection profiles
type ProfileStore interface {
	List(ctx context.Context) ([]store.Profile, error)
	Create(ctx context.Context, p store.Profile) (store.Profile, error)
	Delete(ctx context.Context, name string) error
	Touch(ctx context.Context, name string) error
}

// SessionManager logs profiles in and out of the gateway
type SessionManager interface {
	Login(ctx context.Context, conn model.Connection, password string, remember bool) (model.Connection, error)
	Logout(ctx context.Context, connectionID string) error
	Remember(profile, password string) error
	Forget(profile string) error
}

// Deps are the services the console runs on
type Deps struct {
	Config     *config.MongonautConfig
	ConfigPath string
	Profiles   ProfileStore
	Sessions   SessionManager
	Gateway    listpanel.Gateway
	History    *api.History
}

type screen int

const (
	screenConnections screen = iota
	screenBrowser
)

type profilesLoadedMsg struct {
	profiles []store.Profile
	err      error
}

// Model is the root Bubble Tea model: a connections screen and, once
// logged in, the tabbed browser around the navigation tree.
type Model struct {
	deps   Deps
	screen screen

	width  int
	height int

	// connections screen
	profiles    []store.Profile
	profilesErr string
	cursor      *listnav.Navigator
	connecting  string

	// one guard for every modal in the console
	guard  *confirm.Guard
	dialog *confirm.Modal

	// browser
	conn model.Connection
	tree *navtree.Tree

	status model.StatusMsg
	logger *cblog.Logger
}

// NewModel creates the console on its connections screen
func NewModel(deps Deps) *Model {
	if deps.Config == nil {
		deps.Config = config.GetDefaultConfig()
	}
	if deps.History == nil {
		deps.History = api.NewHistory(0)
	}
	m := &Model{
		deps:   deps,
		screen: screenConnections,
		cursor: listnav.New(),
		guard:  confirm.NewGuard(),
		logger: cblog.With("component", "app"),
	}
	m.dialog = m.newDialog()
	m.resize()
	return m
}

// resize lays out the profile list and the tree for the current size
func (m *Model) resize() {
	w, h := m.bodySize()
	m.cursor.SetHeight(max(1, h-4))
	if m.tree != nil {
		m.tree.Resize(w, h)
	}
}

func (m *Model) newDialog() *confirm.Modal {
	d := confirm.New(m.guard)
	d.AutoCloseDelay = m.deps.Config.AutoCloseDelay()
	return d
}

// Connected reports whether the browser holds a live connection
func (m *Model) Connected() bool {
	return m.screen == screenBrowser && m.conn.ID != ""
}

// ActiveTab returns the browser tab, DATABASE on the connections screen
func (m *Model) ActiveTab() model.Tab {
	if m.tree == nil {
		return model.TabDatabase
	}
	return m.tree.State().ActiveTab
}

func (m *Model) Init() tea.Cmd {
	return m.loadProfiles()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case profilesLoadedMsg:
		m.applyProfiles(msg)
		return m, nil

	case model.ConnectedMsg:
		return m, m.handleConnected(msg)

	case model.DisconnectedMsg:
		m.handleDisconnected(msg)
		return m, nil

	case model.StatusMsg:
		m.status = msg
		return m, nil

	case clipboard.CopyMsg:
		if msg.Success {
			m.status = model.StatusMsg{Text: "Copied " + msg.Text}
		} else if msg.Text != "" {
			m.status = model.StatusMsg{Text: "Could not copy " + msg.Text, Error: true}
		}
		return m, nil

	case model.ListLoadedMsg, model.ModalResultMsg, model.ModalAutoCloseMsg, spinner.TickMsg:
		cmds := []tea.Cmd{m.dialog.Update(msg)}
		if m.tree != nil {
			cmds = append(cmds, m.tree.Update(msg))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == screenConnections {
			return m, m.handleConnectionsKey(msg)
		}
		return m, m.handleBrowserKey(msg)
	}
	return m, nil
}

func (m *Model) handleBrowserKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.tree.CapturingInput() {
		return m.tree.Update(msg)
	}
	switch msg.String() {
	case "q":
		return tea.Quit
	case "X":
		return m.disconnect()
	case "1", "2", "3", "4":
		return m.selectTab(model.Tabs[int(msg.String()[0]-'1')])
	case "]":
		return m.selectTab(model.Tabs[(m.tabIndex()+1)%len(model.Tabs)])
	case "[":
		return m.selectTab(model.Tabs[(m.tabIndex()+len(model.Tabs)-1)%len(model.Tabs)])
	}
	if m.ActiveTab() != model.TabDatabase {
		return nil
	}
	return m.tree.Update(msg)
}

func (m *Model) tabIndex() int {
	for i, t := range model.Tabs {
		if t == m.ActiveTab() {
			return i
		}
	}
	return 0
}

// selectTab switches tabs; only the DATABASE tab loads anything
func (m *Model) selectTab(tab model.Tab) tea.Cmd {
	m.tree.SelectTab(tab)
	return m.tree.EnsureMounted()
}

func (m *Model) handleConnected(msg model.ConnectedMsg) tea.Cmd {
	name := m.connecting
	m.connecting = ""
	if msg.Err != nil {
		return m.loginFailed(name, msg.Err)
	}
	if m.Connected() {
		// a password dialog reports success on submit and again on close
		return nil
	}

	// The dialog that logged us in belongs to the connections screen
	m.dialog.Destroy()
	m.dialog = m.newDialog()

	m.conn = msg.Connection
	m.screen = screenBrowser
	m.tree = navtree.New(navtree.Config{
		Connection:     msg.Connection,
		Gateway:        m.deps.Gateway,
		Guard:          m.guard,
		ChildKind:      m.deps.Config.ChildKind(),
		AutoCloseDelay: m.deps.Config.AutoCloseDelay(),
	})
	m.resize()
	m.status = model.StatusMsg{Text: "Connected to " + msg.Connection.Address()}
	m.logger.Info("Connected", "profile", msg.Connection.Name, "connectionId", msg.Connection.ID)
	return tea.Batch(m.tree.EnsureMounted(), m.touchProfile(msg.Connection.Name))
}

func (m *Model) disconnect() tea.Cmd {
	id := m.conn.ID
	sessions := m.deps.Sessions
	return func() tea.Msg {
		return model.DisconnectedMsg{Err: sessions.Logout(context.Background(), id)}
	}
}

func (m *Model) handleDisconnected(msg model.DisconnectedMsg) {
	if m.tree != nil {
		m.tree.Destroy()
		m.tree = nil
	}
	m.conn = model.Connection{}
	m.screen = screenConnections
	if msg.Err != nil {
		// the gateway drops the connection either way
		m.logger.Warn("Logout failed", "err", msg.Err)
		m.status = model.StatusMsg{Text: "Disconnected: " + apperrors.UserMessage(msg.Err), Error: true}
		return
	}
	m.status = model.StatusMsg{Text: "Disconnected"}
}
