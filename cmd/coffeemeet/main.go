package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/coffeemeet/internal/api"
	"github.com/nhle/coffeemeet/internal/app"
	"github.com/nhle/coffeemeet/internal/archive"
	"github.com/nhle/coffeemeet/internal/credential"
	"github.com/nhle/coffeemeet/internal/model"
	"github.com/nhle/coffeemeet/internal/notify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coffeemeet: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := model.DefaultConfigPath()
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// The token may come from the environment (CI, scripting) or the
	// system keyring (normal interactive use).
	token := os.Getenv("COFFEEMEET_TOKEN")
	if token == "" {
		token, _ = credential.Get(credential.TokenKey)
	}

	client := api.NewClient(cfg.Server.BaseURL, token, cfg.ClientID)

	var arch *archive.Archive
	if cfg.Archive.Enabled {
		arch, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			// The archive is a convenience; run without it.
			logger.Warn("opening archive", zap.Error(err))
		} else {
			defer arch.Close()
		}
	}

	opts := notify.Options{
		API:          client,
		Logger:       logger,
		PageSize:     cfg.Sync.PageSize,
		PollInterval: time.Duration(cfg.Sync.PollIntervalSec) * time.Second,
		SettleDelay:  time.Duration(cfg.Sync.SettleDelaySec) * time.Second,
		Freshness:    time.Duration(cfg.Sync.FreshnessSec) * time.Second,
	}
	if arch != nil {
		opts.Archive = arch
	}

	engine := notify.NewEngine(opts)
	defer engine.Close()

	// Usable iff we have somewhere to talk to and something to say.
	engine.SetUsable(cfg.Server.BaseURL != "" && token != "")

	m := app.New(engine, client, cfg, cfgPath)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	return nil
}

// newLogger builds a file-backed zap logger; the TUI owns stdout.
func newLogger(path string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
