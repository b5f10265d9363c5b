// Package main provides a demo orchestrator for mongonaut.
// It starts an in-process gateway over curated in-memory databases, writes
// a temporary config and profile store, and runs the mongonaut binary.
// Designed for use with VHS (charmbracelet/vhs) tape recordings.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/config"
	"github.com/darksworm/mongonaut/pkg/gateway"
	"github.com/darksworm/mongonaut/pkg/store"
)

const demoPassword = "demo"

func demoData() []gateway.SeedDatabase {
	return []gateway.SeedDatabase{
		{Name: "admin", Collections: []string{"system.version", "system.users"}},
		{Name: "shop", Collections: []string{"orders", "customers", "products", "invoices", "images.files", "images.chunks"}},
		{Name: "crm", Collections: []string{"leads", "accounts", "contacts", "attachments.files", "attachments.chunks"}},
		{Name: "analytics", Collections: []string{"events", "sessions", "daily_rollups"}},
		{Name: "logs", Collections: []string{"app", "audit"}},
	}
}

func demoProfiles(scenario string) []store.Profile {
	profiles := []store.Profile{
		{Name: "local", Host: "127.0.0.1", Port: 27017},
		{Name: "reporting", Host: "127.0.0.1", Port: 27018, Databases: []string{"analytics"}},
	}
	if scenario == "auth" {
		profiles = append(profiles, store.Profile{Name: "staging", Host: "127.0.0.1", Port: 27019, Username: "ops"})
	}
	return profiles
}

// startGateway serves the demo data the same way cmd/gateway serves MongoDB
func startGateway(readOnly bool) (*httptest.Server, string) {
	cfg := config.DefaultGatewayServerConfig()
	cfg.ReadOnly = readOnly
	registry := gateway.NewRegistry(&gateway.MemoryDialer{
		Backend: gateway.NewMemoryBackend(demoData()...),
		Users:   map[string]string{"ops": demoPassword},
	})
	srv := httptest.NewServer(gateway.NewServer(cfg, registry).Handler())
	return srv, srv.URL + cfg.BasePath
}

func seedProfiles(path, scenario string) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, p := range demoProfiles(scenario) {
		if _, err := s.Create(context.Background(), p); err != nil {
			return err
		}
	}
	return nil
}

func findBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	self, _ := os.Executable()
	dir := filepath.Dir(self)
	candidates := []string{
		filepath.Join(dir, "mongonaut"),
		filepath.Join(dir, "..", "..", "bin", "mongonaut"),
		"mongonaut",
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c); err == nil {
			return c
		}
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func main() {
	scenario := flag.String("scenario", "", "Demo scenario (overview, auth, readonly)")
	binFlag := flag.String("bin", "", "Path to mongonaut binary (auto-detected if empty)")
	theme := flag.String("theme", "catppuccin-mocha", "Theme to use")
	flag.Parse()

	// Allow env var override so VHS tapes can just type "mongonaut"
	if *scenario == "" {
		if env := os.Getenv("MONGONAUT_DEMO_SCENARIO"); env != "" {
			*scenario = env
		} else {
			*scenario = "overview"
		}
	}
	valid := map[string]bool{"overview": true, "auth": true, "readonly": true}
	if !valid[*scenario] {
		fmt.Fprintf(os.Stderr, "Unknown scenario: %s\nAvailable: overview, auth, readonly\n", *scenario)
		os.Exit(1)
	}

	bin := findBinary(*binFlag)
	if bin == "" {
		fmt.Fprintln(os.Stderr, "Error: could not find mongonaut binary. Use --bin to specify its path.")
		os.Exit(1)
	}

	// The gateway logs to the default logger; keep it off the terminal
	cblog.SetOutput(io.Discard)

	srv, gatewayURL := startGateway(*scenario == "readonly")
	defer srv.Close()

	workspace, err := os.MkdirTemp("", "mongonaut-demo-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create workspace: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workspace)

	cfg := config.GetDefaultConfig()
	cfg.Gateway.URL = gatewayURL
	cfg.UI.Theme = *theme
	cfg.Store.Path = filepath.Join(workspace, "profiles.db")
	cfgPath := filepath.Join(workspace, ".config", "mongonaut", "config.toml")
	if err := config.SaveMongonautConfig(cfgPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write mongonaut config: %v\n", err)
		os.Exit(1)
	}
	if err := seedProfiles(cfg.Store.Path, *scenario); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed profiles: %v\n", err)
		os.Exit(1)
	}
	if *scenario == "auth" {
		fmt.Fprintf(os.Stderr, "staging profile password: %s\n", demoPassword)
	}

	cmd := exec.Command(bin, "-config="+cfgPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"HOME="+workspace,
		"XDG_CONFIG_HOME="+filepath.Join(workspace, ".config"),
		"MONGONAUT_CONFIG="+cfgPath,
		// remembered demo passwords stay out of the real profile entries
		"MONGONAUT_KEYRING_SERVICE=mongonaut-demo",
	)

	// Forward signals to child
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigCh {
			if cmd.Process != nil {
				_ = cmd.Process.Signal(sig)
			}
		}
	}()

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Failed to run mongonaut: %v\n", err)
		os.Exit(1)
	}
}
