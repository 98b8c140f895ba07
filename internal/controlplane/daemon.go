package controlplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmined/notionsync/internal/sync"
	"golang.org/x/sync/errgroup"
)

const watchDebounce = 2 * time.Second

// VaultWatcher reports changed documents.
type VaultWatcher interface {
	Start(ctx context.Context) error
	Stop()
	Events() <-chan string
}

// Daemon serves the control plane and, when interval is set, runs an
// unforced pass on every tick. With a watcher it also runs one shortly after
// documents change.
type Daemon struct {
	server   *Server
	engine   Engine
	watcher  VaultWatcher
	interval time.Duration
	debounce time.Duration
}

func NewDaemon(config *Config, svc *Services, interval time.Duration) (*Daemon, error) {
	server, err := NewServer(config, svc)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		server:   server,
		engine:   svc.Engine,
		watcher:  svc.Watcher,
		interval: interval,
		debounce: watchDebounce,
	}, nil
}

func (d *Daemon) Server() *Server {
	return d.server
}

func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("daemon start", "interval", d.interval, "watch", d.watcher != nil)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := d.server.Start(egCtx); err != nil {
			return fmt.Errorf("failed to start control plane: %w", err)
		}
		return nil
	})

	if d.interval > 0 {
		eg.Go(func() error {
			d.syncLoop(egCtx)
			return nil
		})
	}

	if d.watcher != nil {
		eg.Go(func() error {
			return d.watchLoop(egCtx)
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("stopping daemon")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return d.server.Stop(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("daemon failure", "error", err)
		return err
	}

	slog.Info("daemon stopped")
	return nil
}

func (d *Daemon) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runPass(ctx, "scheduled")
		}
	}
}

// watchLoop waits for document changes to settle, then runs one pass.
// Changes seen while that pass runs are mostly its own downloads and are
// dropped.
func (d *Daemon) watchLoop(ctx context.Context) error {
	if err := d.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start vault watcher: %w", err)
	}
	defer d.watcher.Stop()

	timer := time.NewTimer(d.debounce)
	timer.Stop()
	defer timer.Stop()

	events := d.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case rel, ok := <-events:
			if !ok {
				return nil
			}
			slog.Debug("vault changed", "path", rel)
			timer.Reset(d.debounce)
		case <-timer.C:
			d.runPass(ctx, "watch")
			drain(events)
		}
	}
}

func (d *Daemon) runPass(ctx context.Context, trigger string) {
	_, err := d.engine.Sync(ctx, sync.DirectionNone)
	switch {
	case errors.Is(err, sync.ErrSyncAlreadyRunning):
		slog.Debug("sync skipped", "trigger", trigger, "reason", err)
	case err != nil && ctx.Err() == nil:
		slog.Error("sync", "trigger", trigger, "error", err)
	}
}

func drain(events <-chan string) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
