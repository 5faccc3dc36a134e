// Package main is the entry point for the Family Helper console, a terminal
// front-end for the Family Helper backend: support tooling, public registry
// and Secret Santa screens, driven over the backend HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/familyhelper-app/console/internal/api"
	"github.com/familyhelper-app/console/internal/auth"
	"github.com/familyhelper-app/console/internal/browser"
	"github.com/familyhelper-app/console/internal/buildinfo"
	"github.com/familyhelper-app/console/internal/config"
	"github.com/familyhelper-app/console/internal/deeplink"
	"github.com/familyhelper-app/console/internal/logging"
	"github.com/familyhelper-app/console/internal/tui"
	"github.com/familyhelper-app/console/internal/watcher"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var configPath string
	var showVersion bool
	var debug bool
	flag.StringVar(&configPath, "config", defaultConfigPath(), "path to the config file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("Family Helper Console %s (%s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	// .env is optional; environment variables override the config file.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if debug {
		cfg.Debug = true
	}
	if err = cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logging.SetLogLevel(cfg)
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	if err = run(cfg, configPath); err != nil {
		log.WithError(err).Error("console exited with error")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := auth.NewFileStore(cfg.CredentialsDir)
	provider := auth.NewIdentityProvider(cfg)
	client := api.NewClient(cfg, store, provider)

	// Deep-link bridge: share links and the OAuth callback land here.
	navigator := &tui.Bridge{}
	bridge := deeplink.NewServer(cfg.DeepLinkPort, navigator)
	if err := bridge.Start(); err != nil {
		return err
	}
	defer func() {
		if err := bridge.Stop(context.Background()); err != nil {
			log.WithError(err).Warn("deep-link bridge shutdown failed")
		}
	}()

	// Hot-reload applies what is safe to change while running: log level,
	// debug body logging, and feature flags. Endpoint changes need a restart.
	w := watcher.New(configPath, func(next *config.Config) {
		logging.SetLogLevel(next)
		navigator.ReloadConfig(next)
		if next.APIBaseURL != cfg.APIBaseURL {
			log.Warn("api-base-url changed; restart the console to apply it")
		}
	})
	if err := w.Start(ctx); err != nil {
		log.WithError(err).Warn("config watcher unavailable")
	}

	deps := tui.NewLoginDeps(provider, store, cfg.APIBaseURL, bridge.RedirectURI(), bridge.Callbacks(), browser.OpenURL)
	app := tui.NewApp(cfg, client, store, deps)
	program := tea.NewProgram(app, tea.WithAltScreen())
	navigator.Attach(program)

	_, err := program.Run()
	return err
}

func defaultConfigPath() string {
	if env := os.Getenv("FH_CONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".familyhelper", "config.yaml")
}
