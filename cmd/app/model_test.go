package main

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/darksworm/mongonaut/pkg/api"
	"github.com/darksworm/mongonaut/pkg/config"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/store"
)

// fakeProfiles keeps profiles in memory, most recently used first
type fakeProfiles struct {
	items   []store.Profile
	touched []string
}

func (f *fakeProfiles) List(ctx context.Context) ([]store.Profile, error) {
	return append([]store.Profile(nil), f.items...), nil
}

func (f *fakeProfiles) Create(ctx context.Context, p store.Profile) (store.Profile, error) {
	if err := p.Validate(); err != nil {
		return store.Profile{}, err
	}
	for _, existing := range f.items {
		if existing.Name == p.Name {
			return store.Profile{}, apperrors.ConflictError("PROFILE_EXISTS", "Profile "+p.Name+" already exists")
		}
	}
	f.items = append(f.items, p)
	return p, nil
}

func (f *fakeProfiles) Delete(ctx context.Context, name string) error {
	for i, p := range f.items {
		if p.Name == name {
			f.items = append(f.items[:i:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperrors.New(apperrors.ErrorValidation, "PROFILE_NOT_FOUND", "Profile "+name+" not found")
}

func (f *fakeProfiles) Touch(ctx context.Context, name string) error {
	f.touched = append(f.touched, name)
	return nil
}

// MockSessions implements SessionManager with overridable funcs
type MockSessions struct {
	LoginFunc    func(ctx context.Context, conn model.Connection, password string, remember bool) (model.Connection, error)
	LogoutFunc   func(ctx context.Context, connectionID string) error
	remembered   map[string]string
	forgotten    []string
	loggedOut    []string
	lastRemember bool
}

func (m *MockSessions) Login(ctx context.Context, conn model.Connection, password string, remember bool) (model.Connection, error) {
	m.lastRemember = remember
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, conn, password, remember)
	}
	conn.ID = "1_abc"
	return conn, nil
}

func (m *MockSessions) Logout(ctx context.Context, connectionID string) error {
	m.loggedOut = append(m.loggedOut, connectionID)
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, connectionID)
	}
	return nil
}

func (m *MockSessions) Remember(profile, password string) error {
	if m.remembered == nil {
		m.remembered = map[string]string{}
	}
	m.remembered[profile] = password
	return nil
}

func (m *MockSessions) Forget(profile string) error {
	m.forgotten = append(m.forgotten, profile)
	return nil
}

// fakeGateway serves two databases
type fakeGateway struct{}

func (fakeGateway) List(ctx context.Context, connectionID string, kind model.EntityKind, database string) ([]model.Entity, error) {
	names := []string{"shop", "crm"}
	if kind.IsChild() {
		names = []string{"orders", "users"}
	}
	out := make([]model.Entity, len(names))
	for i, n := range names {
		out[i] = model.Entity{Kind: kind, Name: n, ConnectionID: connectionID, Database: database}
	}
	return out, nil
}

func (fakeGateway) Create(ctx context.Context, target model.Entity, opts api.CreateOptions) (api.Result, error) {
	return api.Result{Success: true}, nil
}

func (fakeGateway) Drop(ctx context.Context, target model.Entity) (api.Result, error) {
	return api.Result{Success: true}, nil
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// pump runs cmd and feeds every resulting message back into m
func pump(m *Model, cmd tea.Cmd) {
	queue := collect(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		switch msg.(type) {
		case profilesLoadedMsg, model.ConnectedMsg, model.DisconnectedMsg, model.StatusMsg,
			model.ListLoadedMsg, model.ModalResultMsg, model.ModalAutoCloseMsg:
			_, next := m.Update(msg)
			queue = append(queue, collect(next)...)
		}
	}
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "ctrl+s":
		return tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
	}
	r := []rune(s)
	return tea.KeyPressMsg{Code: r[0], Text: s}
}

func press(m *Model, s string) {
	_, cmd := m.Update(key(s))
	pump(m, cmd)
}

type fixture struct {
	model    *Model
	profiles *fakeProfiles
	sessions *MockSessions
	history  *api.History
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.UI.AutoCloseMS = 5
	f := &fixture{
		profiles: &fakeProfiles{items: []store.Profile{
			{Name: "local", Host: "127.0.0.1", Port: 27017},
			{Name: "prod", Host: "db.internal", Port: 27017, Username: "admin"},
		}},
		sessions: &MockSessions{},
		history:  api.NewHistory(10),
	}
	f.model = NewModel(Deps{
		Config:     cfg,
		ConfigPath: "/tmp/mongonaut/config.toml",
		Profiles:   f.profiles,
		Sessions:   f.sessions,
		Gateway:    fakeGateway{},
		History:    f.history,
	})
	pump(f.model, f.model.Init())
	return f
}

func TestModel_InitLoadsProfiles(t *testing.T) {
	f := newFixture(t)
	if len(f.model.profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(f.model.profiles))
	}
	view := f.model.render()
	if !strings.Contains(view, "local") || !strings.Contains(view, "db.internal:27017") {
		t.Fatalf("connections view missing profiles:\n%s", view)
	}
}

func TestModel_ConnectOpensBrowser(t *testing.T) {
	f := newFixture(t)
	press(f.model, "enter")

	if !f.model.Connected() {
		t.Fatal("not connected")
	}
	if f.model.ActiveTab() != model.TabDatabase {
		t.Fatalf("tab = %s", f.model.ActiveTab())
	}
	panel := f.model.tree.DatabasePanel()
	if panel == nil {
		t.Fatal("database panel not mounted")
	}
	if got := panel.List().Names(); !reflect.DeepEqual(got, []string{"shop", "crm"}) {
		t.Fatalf("databases = %v", got)
	}
	if !reflect.DeepEqual(f.profiles.touched, []string{"local"}) {
		t.Fatalf("touched = %v", f.profiles.touched)
	}
}

func TestModel_RejectedLoginAsksForPassword(t *testing.T) {
	f := newFixture(t)
	f.sessions.LoginFunc = func(ctx context.Context, conn model.Connection, password string, remember bool) (model.Connection, error) {
		if password != "pw" {
			return model.Connection{}, apperrors.New(apperrors.ErrorAuth, "INVALID_USERNAME", "Invalid username or password")
		}
		conn.ID = "2_def"
		return conn, nil
	}

	press(f.model, "j")
	press(f.model, "enter")

	if f.model.Connected() {
		t.Fatal("connected with a rejected password")
	}
	if !f.model.status.Error {
		t.Error("login failure not shown in the status line")
	}
	dialog := f.model.Dialog()
	if !dialog.IsOpen() || dialog.State().Mode != model.ModeCreate {
		t.Fatal("password dialog did not open")
	}

	dialog.SetValue("password", "pw")
	pump(f.model, dialog.Submit())

	if !f.model.Connected() || f.model.conn.ID != "2_def" {
		t.Fatalf("conn = %+v", f.model.conn)
	}
	if !f.sessions.lastRemember {
		t.Error("remember defaults to yes")
	}
	if f.model.Dialog().IsOpen() {
		t.Error("password dialog still open after connect")
	}
}

func TestModel_CreateProfile(t *testing.T) {
	f := newFixture(t)
	press(f.model, "n")

	dialog := f.model.Dialog()
	if !dialog.IsOpen() {
		t.Fatal("create dialog did not open")
	}
	dialog.SetValue("name", "staging")
	dialog.SetValue("host", "10.0.0.5")
	dialog.SetValue("port", "27018")
	dialog.SetValue("username", "ops")
	dialog.SetValue("password", "hunter2")
	dialog.SetValue("databases", "shop, crm")
	pump(f.model, dialog.Submit())

	if len(f.model.profiles) != 3 {
		t.Fatalf("profiles = %d, want 3", len(f.model.profiles))
	}
	got := f.profiles.items[2]
	if got.Name != "staging" || got.Port != 27018 || !reflect.DeepEqual(got.Databases, []string{"shop", "crm"}) {
		t.Fatalf("saved profile = %+v", got)
	}
	if f.sessions.remembered["staging"] != "hunter2" {
		t.Error("password not handed to the keychain")
	}
}

func TestModel_CreateProfileConflictKeepsDialogOpen(t *testing.T) {
	f := newFixture(t)
	press(f.model, "n")

	dialog := f.model.Dialog()
	dialog.SetValue("name", "local")
	pump(f.model, dialog.Submit())

	if dialog.Phase() != model.PhaseFailed {
		t.Fatalf("phase = %s, want failed", dialog.Phase())
	}
	if !strings.Contains(dialog.State().Message, "Profile local already exists") {
		t.Fatalf("message = %q", dialog.State().Message)
	}
	if len(f.profiles.items) != 2 {
		t.Fatal("duplicate profile saved")
	}
}

func TestModel_CreateProfileValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{"missing name", "name", ""},
		{"port out of range", "port", "70000"},
		{"port not a number", "port", "mongo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			press(f.model, "n")
			dialog := f.model.Dialog()
			dialog.SetValue("name", "x")
			dialog.SetValue(tt.field, tt.value)

			if cmd := dialog.Submit(); cmd != nil {
				t.Fatal("invalid form reached the store")
			}
			if dialog.Phase() != model.PhaseOpen {
				t.Fatalf("phase = %s", dialog.Phase())
			}
		})
	}
}

func TestModel_DeleteProfile(t *testing.T) {
	f := newFixture(t)
	press(f.model, "d")
	if f.model.Dialog().State().Mode != model.ModeDelete {
		t.Fatal("delete dialog did not open")
	}
	press(f.model, "y")

	if len(f.model.profiles) != 1 || f.model.profiles[0].Name != "prod" {
		t.Fatalf("profiles = %+v", f.model.profiles)
	}
	if !reflect.DeepEqual(f.sessions.forgotten, []string{"local"}) {
		t.Fatalf("forgotten = %v", f.sessions.forgotten)
	}
}

func TestModel_TabsUnmountAndRemount(t *testing.T) {
	f := newFixture(t)
	press(f.model, "enter")

	press(f.model, "2")
	if f.model.ActiveTab() != model.TabHelp {
		t.Fatalf("tab = %s", f.model.ActiveTab())
	}
	if f.model.tree.DatabasePanel() != nil {
		t.Fatal("database panel still mounted on HELP")
	}
	if !strings.Contains(f.model.render(), "Navigation") {
		t.Error("help tab not rendered")
	}

	press(f.model, "[")
	if f.model.ActiveTab() != model.TabDatabase {
		t.Fatalf("tab = %s", f.model.ActiveTab())
	}
	if p := f.model.tree.DatabasePanel(); p == nil || !p.List().Loaded() {
		t.Fatal("database panel not remounted")
	}
}

func TestModel_TabKeysGoToFilter(t *testing.T) {
	f := newFixture(t)
	press(f.model, "enter")

	press(f.model, "/")
	press(f.model, "2")
	if f.model.ActiveTab() != model.TabDatabase {
		t.Fatal("tab switched while the filter had focus")
	}
}

func TestModel_ConsoleAndSettingsTabs(t *testing.T) {
	f := newFixture(t)
	press(f.model, "enter")
	f.history.Add(api.Entry{At: time.Now(), Method: "GET", Path: "db?connectionId=1_abc", Outcome: "ok"})

	press(f.model, "3")
	if view := f.model.render(); !strings.Contains(view, "db?connectionId=1_abc") {
		t.Fatalf("console view missing call:\n%s", view)
	}

	press(f.model, "4")
	view := f.model.render()
	if !strings.Contains(view, "auto_close_ms = 5") || !strings.Contains(view, "/tmp/mongonaut/config.toml") {
		t.Fatalf("settings view:\n%s", view)
	}
}

func TestModel_Disconnect(t *testing.T) {
	f := newFixture(t)
	press(f.model, "enter")

	press(f.model, "X")
	if f.model.Connected() || f.model.screen != screenConnections {
		t.Fatal("still connected after X")
	}
	if f.model.tree != nil {
		t.Fatal("tree kept after disconnect")
	}
	if !reflect.DeepEqual(f.sessions.loggedOut, []string{"1_abc"}) {
		t.Fatalf("logged out = %v", f.sessions.loggedOut)
	}
}

func TestModel_LateListAfterDisconnectIsIgnored(t *testing.T) {
	f := newFixture(t)
	press(f.model, "enter")
	pending := f.model.tree.DatabasePanel().Refresh()

	press(f.model, "X")
	pump(f.model, pending)

	if f.model.Connected() || f.model.tree != nil {
		t.Fatal("late list response revived the browser")
	}
}
