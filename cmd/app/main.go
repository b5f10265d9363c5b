package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/api"
	"github.com/darksworm/mongonaut/pkg/auth"
	"github.com/darksworm/mongonaut/pkg/config"
	appcontext "github.com/darksworm/mongonaut/pkg/context"
	"github.com/darksworm/mongonaut/pkg/store"
	"github.com/darksworm/mongonaut/pkg/theme"
	"github.com/darksworm/mongonaut/pkg/trust"
	"github.com/darksworm/mongonaut/pkg/tui/clipboard"
)

// appVersion is overridden at build time: go build -ldflags "-X main.appVersion=1.0.0"
var appVersion = "dev"

func main() {
	setupLogging()

	var (
		gatewayFlag string
		configFlag  string
		storeFlag   string
		themeFlag   string
		showVersion bool
	)
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&gatewayFlag, "gateway", "", "Gateway base URL (overrides config)")
	fs.StringVar(&configFlag, "config", "", "Path to config.toml")
	fs.StringVar(&storeFlag, "store", "", "Path to the saved-profile database")
	fs.StringVar(&themeFlag, "theme", "", fmt.Sprintf("UI theme preset (%s)", strings.Join(theme.Names(), ", ")))
	fs.BoolVar(&showVersion, "version", false, "Show version information and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if showVersion {
		fmt.Println(appVersion)
		return
	}

	logger := cblog.With("component", "app")

	configPath := configFlag
	if configPath == "" {
		configPath = config.GetMongonautConfigPath()
	}
	cfg, err := config.LoadMongonautConfig(configPath)
	if err != nil {
		logger.Warn("Could not load config, using defaults", "err", err)
		cfg = config.GetDefaultConfig()
	}
	if gatewayFlag != "" {
		cfg.Gateway.URL = gatewayFlag
	}
	if storeFlag != "" {
		cfg.Store.Path = storeFlag
	}
	if themeFlag != "" {
		cfg.UI.Theme = themeFlag
	}

	theme.Apply(theme.FromEnv(theme.FromName(cfg.UI.Theme)))
	clipboard.SetCopyCommand(cfg.UI.CopyCommand)

	token := cfg.Gateway.Token
	if env := os.Getenv("MONGONAUT_GATEWAY_TOKEN"); env != "" {
		token = env
	}
	hc, err := trust.NewHTTPClient(trust.Options{
		CACertFile:     cfg.Gateway.CACert,
		CACertDir:      cfg.Gateway.CAPath,
		ClientCertFile: cfg.Gateway.ClientCert,
		ClientKeyFile:  cfg.Gateway.ClientKey,
		Token:          token,
		Timeout:        cfg.GatewayTimeout(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: gateway TLS setup: %v\n", err)
		os.Exit(1)
	}
	api.SetHTTPClient(hc)
	appcontext.SetRequestTimeout(cfg.GatewayTimeout())
	history := api.NewHistory(api.DefaultHistoryLimit)
	entities := api.NewEntityService(api.NewClient(cfg.Gateway.URL, history))

	profiles, err := store.Open(cfg.StorePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer profiles.Close()

	logger.Info("Starting console", "gateway", cfg.Gateway.URL, "store", cfg.StorePath())

	m := NewModel(Deps{
		Config:     cfg,
		ConfigPath: configPath,
		Profiles:   profiles,
		Sessions:   auth.NewAuthManager(entities, auth.NewKeychain(os.Getenv("MONGONAUT_KEYRING_SERVICE"))),
		Gateway:    entities,
		History:    history,
	})

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	// Leave no connection open on the gateway
	if fm, ok := final.(*Model); ok && fm.Connected() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := fm.deps.Sessions.Logout(ctx, fm.conn.ID); err != nil {
			logger.Warn("Logout on exit failed", "err", err)
		}
	}
}

// setupLogging sends logs to a temp file; the TUI owns the terminal
func setupLogging() {
	f, err := os.CreateTemp("", "mongonaut-*.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create temp log file: %v\n", err)
		cblog.SetOutput(io.Discard)
		return
	}
	_ = os.Setenv("MONGONAUT_LOG_FILE", f.Name())

	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logger := cblog.NewWithOptions(f, cblog.Options{ReportTimestamp: true})
	switch strings.ToUpper(os.Getenv("MONGONAUT_LOG_LEVEL")) {
	case "DEBUG":
		logger.SetLevel(cblog.DebugLevel)
	case "WARN":
		logger.SetLevel(cblog.WarnLevel)
	case "ERROR":
		logger.SetLevel(cblog.ErrorLevel)
	default:
		logger.SetLevel(cblog.InfoLevel)
	}
	cblog.SetDefault(logger)

	cblog.With("component", "app").Info("mongonaut started", "logFile", f.Name())
}
