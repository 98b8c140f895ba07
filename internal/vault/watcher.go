package vault

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rjeczalik/notify"
)

// Watcher reports documents changed on disk, as vault-relative paths.
type Watcher struct {
	vault  *Vault
	raw    chan notify.EventInfo
	events chan string
}

func NewWatcher(v *Vault) *Watcher {
	return &Watcher{
		vault:  v,
		raw:    make(chan notify.EventInfo, 64),
		events: make(chan string, 64),
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	slog.Info("vault watcher start", "dir", w.vault.Root())

	recursivePath := filepath.Join(w.vault.Root(), "...")
	if err := notify.Watch(recursivePath, w.raw, notify.Write, notify.Create, notify.Remove, notify.Rename); err != nil {
		return err
	}

	go w.forward(ctx)
	return nil
}

// Stop ends the watch. Events stays open until the forwarder drains.
func (w *Watcher) Stop() {
	notify.Stop(w.raw)
	close(w.raw)
	slog.Info("vault watcher stop")
}

func (w *Watcher) Events() <-chan string {
	return w.events
}

func (w *Watcher) forward(ctx context.Context) {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.raw:
			if !ok {
				return
			}
			rel, ok := w.relevant(ev.Path())
			if !ok {
				continue
			}
			select {
			case w.events <- rel:
			default:
				// dropped; a queued event already triggers a pass
			}
		}
	}
}

// relevant maps an absolute path to a document path, dropping anything that
// is not a synced document.
func (w *Watcher) relevant(abs string) (string, bool) {
	rel, err := filepath.Rel(w.vault.Root(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(rel, Ext) || w.vault.Ignored(rel) {
		return "", false
	}
	return rel, true
}
