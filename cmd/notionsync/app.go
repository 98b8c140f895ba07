package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/sync"
	"github.com/openmined/notionsync/internal/vault"
	"github.com/openmined/notionsync/internal/workspace"
)

var errNoAPIKey = errors.New("no Notion API key: run `notionsync set-key <secret>` or set NOTIONSYNC_API_KEY")

// app is the wiring behind every command that touches the vault.
type app struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	settings *config.Store
	vault    *vault.Vault
	client   *notion.Client // nil for local-only commands without a key
	journal  *sync.Journal
	engine   *sync.Engine
}

// newApp locks the data dir and builds the engine. With remote set a missing
// API key is an error; otherwise local-only commands run without a gateway.
func newApp(remote bool) (*app, error) {
	cfg, err := currentConfig()
	if err != nil {
		return nil, err
	}

	ws, err := workspace.NewWorkspace(cfg.DataDir, cfg.VaultDir)
	if err != nil {
		return nil, err
	}
	if err := ws.Setup(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, ws: ws}
	if err := a.init(remote); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(remote bool) error {
	var err error

	if a.settings, err = config.OpenStore(a.cfg.SettingsPath); err != nil {
		return err
	}
	if a.vault, err = vault.New(a.cfg.VaultDir); err != nil {
		return err
	}
	if a.journal, err = sync.OpenJournal(a.cfg.JournalPath()); err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	key := a.cfg.APIKey
	if key == "" {
		key = a.settings.Get().APIKey
	}
	var gateway sync.Gateway
	switch {
	case key != "":
		a.client, err = notion.New(&notion.Config{BaseURL: a.cfg.BaseURL, APIKey: key})
		if err != nil {
			return err
		}
		gateway = a.client
	case remote:
		return errNoAPIKey
	default:
		slog.Debug("no api key, remote calls disabled")
	}

	a.engine = sync.New(gateway, a.vault, a.settings, sync.WithRecorder(a.journal))
	return nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			slog.Warn("close journal", "error", err)
		}
	}
	if err := a.ws.Unlock(); err != nil {
		slog.Warn("unlock data dir", "error", err)
	}
}
