package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/darksworm/mongonaut/pkg/api"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/store"
	"github.com/darksworm/mongonaut/pkg/tui/confirm"
)

func (m *Model) loadProfiles() tea.Cmd {
	profiles := m.deps.Profiles
	return func() tea.Msg {
		list, err := profiles.List(context.Background())
		return profilesLoadedMsg{profiles: list, err: err}
	}
}

func (m *Model) applyProfiles(msg profilesLoadedMsg) {
	if msg.err != nil {
		// keep showing what we had
		m.profilesErr = apperrors.UserMessage(msg.err)
		m.logger.Warn("Could not list profiles", "err", msg.err)
		return
	}
	m.profilesErr = ""
	m.profiles = msg.profiles
	m.cursor.SetCount(len(m.profiles))
}

func (m *Model) touchProfile(name string) tea.Cmd {
	profiles := m.deps.Profiles
	return func() tea.Msg {
		if err := profiles.Touch(context.Background(), name); err != nil {
			m.logger.Debug("Could not record profile use", "profile", name, "err", err)
		}
		list, err := profiles.List(context.Background())
		return profilesLoadedMsg{profiles: list, err: err}
	}
}

// CurrentProfile returns the profile under the cursor
func (m *Model) CurrentProfile() (store.Profile, bool) {
	if len(m.profiles) == 0 {
		return store.Profile{}, false
	}
	return m.profiles[m.cursor.Cursor()], true
}

// Dialog returns the connections-screen modal
func (m *Model) Dialog() *confirm.Modal { return m.dialog }

func (m *Model) handleConnectionsKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.dialog.IsOpen() {
		return m.dialog.Update(msg)
	}
	if m.connecting != "" {
		return nil
	}
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		m.cursor.Up()
	case "down", "j":
		m.cursor.Down()
	case "g", "home":
		m.cursor.Top()
	case "G", "end":
		m.cursor.Bottom()
	case "n":
		m.dialog.Open(m.createProfileDialog())
	case "d", "delete":
		if p, ok := m.CurrentProfile(); ok {
			m.dialog.Open(m.deleteProfileDialog(p))
		}
	case "p":
		if p, ok := m.CurrentProfile(); ok {
			m.dialog.Open(m.passwordDialog(p))
		}
	case "r":
		return m.loadProfiles()
	case "enter":
		if p, ok := m.CurrentProfile(); ok {
			return m.connect(p)
		}
	}
	return nil
}

// connect logs in with the stored password, if any
func (m *Model) connect(p store.Profile) tea.Cmd {
	m.connecting = p.Name
	m.status = model.StatusMsg{Text: "Connecting to " + p.Name + "…"}
	sessions := m.deps.Sessions
	conn := p.Connection()
	return func() tea.Msg {
		connected, err := sessions.Login(context.Background(), conn, "", false)
		return model.ConnectedMsg{Connection: connected, Err: err}
	}
}

// loginFailed reports the error and asks for a password when the gateway
// rejected the stored (or missing) one
func (m *Model) loginFailed(name string, err error) tea.Cmd {
	m.status = model.StatusMsg{Text: apperrors.UserMessage(err), Error: true}
	m.logger.Info("Login failed", "profile", name, "err", err)

	appErr, ok := apperrors.As(err)
	if !ok || !appErr.IsCategory(apperrors.ErrorAuth) {
		return nil
	}
	for _, p := range m.profiles {
		if p.Name == name {
			m.dialog.Open(m.passwordDialog(p))
			break
		}
	}
	return nil
}

func (m *Model) passwordDialog(p store.Profile) confirm.Options {
	sessions := m.deps.Sessions
	conn := p.Connection()
	var connected model.Connection

	user := p.Username
	if user == "" {
		user = "anonymous"
	}
	return confirm.Options{
		Mode:        model.ModeCreate,
		Title:       fmt.Sprintf("Log in to %s as %s", p.Name, user),
		SubmitLabel: "connect",
		Fields: []confirm.Field{
			{Name: "password", Label: "Password", Secret: true,
				Rules: []confirm.Rule{confirm.Required("Password")}},
			{Name: "remember", Label: "Remember", Placeholder: "y/n", Default: "y",
				Rules: []confirm.Rule{confirm.YesNo("Remember")}},
		},
		Submit: func(ctx context.Context, values confirm.Values) (api.Result, error) {
			c, err := sessions.Login(ctx, conn, values["password"], values.Bool("remember"))
			if err != nil {
				return api.Result{}, err
			}
			connected = c
			return api.Result{Success: true}, nil
		},
		OnSuccess: func() tea.Cmd {
			return func() tea.Msg { return model.ConnectedMsg{Connection: connected} }
		},
		SuccessMessage: func(confirm.Values) string { return "Connected to " + p.Name },
	}
}

func (m *Model) createProfileDialog() confirm.Options {
	profiles := m.deps.Profiles
	sessions := m.deps.Sessions
	return confirm.Options{
		Mode:        model.ModeCreate,
		Title:       "New connection",
		SubmitLabel: "save",
		Fields: []confirm.Field{
			{Name: "name", Label: "Name", Placeholder: "local",
				Rules: []confirm.Rule{confirm.Required("Name")}},
			{Name: "host", Label: "Host", Default: "127.0.0.1",
				Rules: []confirm.Rule{confirm.Required("Host")}},
			{Name: "port", Label: "Port", Default: "27017",
				Rules: []confirm.Rule{confirm.Required("Port"), confirm.Integer("Port", 1, 65535)}},
			{Name: "username", Label: "Username", Placeholder: "optional"},
			{Name: "password", Label: "Password", Placeholder: "optional", Secret: true},
			{Name: "databases", Label: "Databases", Placeholder: "admin, shop"},
		},
		Submit: func(ctx context.Context, values confirm.Values) (api.Result, error) {
			port, _ := strconv.Atoi(values.Get("port"))
			p := store.Profile{
				Name:      values.Get("name"),
				Host:      values.Get("host"),
				Port:      port,
				Username:  values.Get("username"),
				Databases: splitList(values.Get("databases")),
			}
			if _, err := profiles.Create(ctx, p); err != nil {
				return api.Result{}, err
			}
			if p.Username != "" {
				if err := sessions.Remember(p.Name, values["password"]); err != nil {
					m.logger.Warn("Could not store password", "profile", p.Name, "err", err)
				}
			}
			return api.Result{Success: true}, nil
		},
		OnSuccess: m.loadProfiles,
		SuccessMessage: func(values confirm.Values) string {
			return "Profile " + values.Get("name") + " saved"
		},
	}
}

func (m *Model) deleteProfileDialog(p store.Profile) confirm.Options {
	profiles := m.deps.Profiles
	sessions := m.deps.Sessions
	return confirm.Options{
		Mode:   model.ModeDelete,
		Title:  "Delete connection",
		Prompt: fmt.Sprintf("Delete profile %s (%s)? Its saved password is removed too.", p.Name, p.Connection().Address()),
		Submit: func(ctx context.Context, values confirm.Values) (api.Result, error) {
			if err := profiles.Delete(ctx, p.Name); err != nil {
				return api.Result{}, err
			}
			if err := sessions.Forget(p.Name); err != nil {
				m.logger.Warn("Could not remove stored password", "profile", p.Name, "err", err)
			}
			return api.Result{Success: true}, nil
		},
		OnSuccess: m.loadProfiles,
		SuccessMessage: func(confirm.Values) string {
			return "Profile " + p.Name + " deleted"
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
