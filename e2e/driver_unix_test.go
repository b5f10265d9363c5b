//go:build e2e && unix

package main

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/darksworm/mongonaut/pkg/config"
	"github.com/darksworm/mongonaut/pkg/gateway"
	"github.com/darksworm/mongonaut/pkg/store"
)

const scrollback = 1 << 20

// strips CSI and OSC sequences plus carriage returns
var ansiRe = regexp.MustCompile(`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|(?:\x1b\][^\x07]*\x07)|\r`)

// screenBuffer keeps the last scrollback bytes the console wrote
type screenBuffer struct {
	mu   sync.Mutex
	data []byte
}

func (b *screenBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	if over := len(b.data) - scrollback; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
	}
	return len(p), nil
}

func (b *screenBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}

// TUITestFramework runs the console binary in a PTY
type TUITestFramework struct {
	t      *testing.T
	pty    *os.File
	cmd    *exec.Cmd
	screen screenBuffer

	workspace  string
	configPath string
}

func NewTUITest(t *testing.T) *TUITestFramework {
	t.Helper()
	return &TUITestFramework{t: t}
}

// Gateway is an in-process gateway over in-memory databases
type Gateway struct {
	Server  *httptest.Server
	URL     string
	Backend *gateway.MemoryBackend
}

// StartGateway serves seed behind the real gateway handlers
func StartGateway(t *testing.T, readOnly bool, users map[string]string, seed ...gateway.SeedDatabase) *Gateway {
	t.Helper()
	cfg := config.DefaultGatewayServerConfig()
	cfg.ReadOnly = readOnly
	backend := gateway.NewMemoryBackend(seed...)
	registry := gateway.NewRegistry(&gateway.MemoryDialer{Backend: backend, Users: users})
	srv := httptest.NewServer(gateway.NewServer(cfg, registry).Handler())
	t.Cleanup(srv.Close)
	return &Gateway{Server: srv, URL: srv.URL + cfg.BasePath, Backend: backend}
}

// DefaultSeed is a small shop/crm layout
func DefaultSeed() []gateway.SeedDatabase {
	return []gateway.SeedDatabase{
		{Name: "admin", Collections: []string{"system.version"}},
		{Name: "shop", Collections: []string{"orders", "users", "images.files", "images.chunks"}},
		{Name: "crm", Collections: []string{"leads"}},
	}
}

// SetupWorkspace creates an isolated HOME with a config pointing at
// gatewayURL and a profile store holding profiles
func (tf *TUITestFramework) SetupWorkspace(gatewayURL string, profiles ...store.Profile) error {
	tf.t.Helper()
	dir := tf.t.TempDir()
	tf.workspace = dir

	cfg := config.GetDefaultConfig()
	cfg.Gateway.URL = gatewayURL
	cfg.UI.AutoCloseMS = 300
	cfg.Store.Path = filepath.Join(dir, "profiles.db")
	tf.configPath = filepath.Join(dir, ".config", "mongonaut", "config.toml")
	if err := config.SaveMongonautConfig(tf.configPath, cfg); err != nil {
		return err
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, p := range profiles {
		if _, err := s.Create(context.Background(), p); err != nil {
			return err
		}
	}
	return nil
}

// StartApp runs the compiled binary in a 40x120 terminal
func (tf *TUITestFramework) StartApp(extraEnv ...string) error {
	tf.t.Helper()
	cmd := exec.Command(binPath, "-config="+tf.configPath)
	cmd.Dir = tf.workspace
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.workspace,
		"XDG_CONFIG_HOME="+filepath.Join(tf.workspace, ".config"),
		"MONGONAUT_KEYRING_SERVICE=mongonaut-e2e",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return err
	}
	tf.cmd, tf.pty = cmd, f
	go func() { _, _ = io.Copy(&tf.screen, f) }()
	return nil
}

func (tf *TUITestFramework) Send(keys string) error { _, err := tf.pty.Write([]byte(keys)); return err }
func (tf *TUITestFramework) CtrlC() error           { return tf.Send("\x03") }
func (tf *TUITestFramework) Enter() error           { return tf.Send("\r") }
func (tf *TUITestFramework) Esc() error             { return tf.Send("\x1b") }

// SnapshotPlain is everything written so far without escape sequences
func (tf *TUITestFramework) SnapshotPlain() string {
	return ansiRe.ReplaceAllString(tf.screen.String(), "")
}

func (tf *TUITestFramework) WaitForPlain(substr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(tf.SnapshotPlain(), substr) {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return false
}

// MustSee fails the test when substr does not show up in time
func (tf *TUITestFramework) MustSee(substr string) {
	tf.t.Helper()
	if !tf.WaitForPlain(substr, 3*time.Second) {
		tf.t.Log(tf.SnapshotPlain())
		tf.t.Fatalf("did not see %q", substr)
	}
}

// Connect starts the app and logs into the first profile
func (tf *TUITestFramework) Connect() {
	tf.t.Helper()
	if err := tf.StartApp(); err != nil {
		tf.t.Fatalf("start app: %v", err)
	}
	tf.MustSee("CONNECTIONS")
	_ = tf.Enter()
	tf.MustSee("DATABASES")
}

func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		_ = tf.cmd.Process.Kill()
		_, _ = tf.cmd.Process.Wait()
	}
}

func localProfile() store.Profile {
	return store.Profile{Name: "local", Host: "127.0.0.1", Port: 27017}
}
