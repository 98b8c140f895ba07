package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"

	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/vault"
)

// ConflictSet holds the pairs waiting for an operator decision. Subscribers
// receive a snapshot whenever the set changes.
type ConflictSet struct {
	mu    gosync.RWMutex
	pairs []*Pair
	subs  map[chan []*Pair]struct{}
}

func NewConflictSet() *ConflictSet {
	return &ConflictSet{subs: make(map[chan []*Pair]struct{})}
}

// Pending returns a snapshot of the unresolved pairs.
func (s *ConflictSet) Pending() []*Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Pair(nil), s.pairs...)
}

func (s *ConflictSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairs)
}

// Subscribe returns a channel that carries the latest snapshot. Slow readers
// only ever see the newest one.
func (s *ConflictSet) Subscribe() <-chan []*Pair {
	ch := make(chan []*Pair, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *ConflictSet) Unsubscribe(ch <-chan []*Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if sub == ch {
			delete(s.subs, sub)
			close(sub)
			return
		}
	}
}

func (s *ConflictSet) get(id string) *Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pairs {
		if sameID(p.ID(), id) {
			return p
		}
	}
	return nil
}

func (s *ConflictSet) replace(pairs []*Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append([]*Pair(nil), pairs...)
	s.notifyLocked()
}

func (s *ConflictSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pairs[:0]
	for _, p := range s.pairs {
		if !sameID(p.ID(), id) {
			kept = append(kept, p)
		}
	}
	s.pairs = kept
	s.notifyLocked()
}

func (s *ConflictSet) notifyLocked() {
	snapshot := append([]*Pair(nil), s.pairs...)
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Resolve applies the operator's choice to one conflicting record and drops
// it from the pending set. Both sides are re-read first, so the transfer
// uses current content. A conflict persisted by an earlier process is found
// through the settings. allResolved is true once nothing is left pending.
func (e *Engine) Resolve(ctx context.Context, recordID string, direction Direction) (allResolved bool, err error) {
	if direction != DirectionDownload && direction != DirectionUpload {
		return false, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}

	e.muSync.Lock()
	defer e.muSync.Unlock()

	settings := e.settings.Get()
	pending := false
	for _, id := range settings.LastConflicts {
		if sameID(id, recordID) {
			pending = true
			break
		}
	}
	if !pending && e.conflicts.get(recordID) == nil {
		return false, fmt.Errorf("%w: %s", ErrConflictNotFound, recordID)
	}

	page, err := e.gateway.GetPage(ctx, recordID, true)
	if err != nil {
		return false, fmt.Errorf("fetch record: %w", err)
	}
	dir, err := e.boundDir(settings, page.Parent.DatabaseID)
	if err != nil {
		return false, err
	}
	doc, err := e.findDocument(dir, page.ID)
	if err != nil {
		return false, err
	}

	switch direction {
	case DirectionDownload:
		if _, err := e.download(ctx, page, doc, dir); err != nil {
			return false, fmt.Errorf("download %s: %w", page.ID, err)
		}
	case DirectionUpload:
		if doc == nil {
			return false, fmt.Errorf("%w: no document for %s", vault.ErrNotFound, page.ID)
		}
		if err := e.upload(ctx, page, doc); err != nil && !errors.Is(err, errNothingToPush) {
			return false, err
		}
	}

	e.conflicts.remove(recordID)
	remaining := []string{}
	for _, id := range settings.LastConflicts {
		if !sameID(id, recordID) {
			remaining = append(remaining, id)
		}
	}
	if _, err := e.settings.ApplyPatch(config.SettingsPatch{LastConflicts: &remaining}); err != nil {
		return false, fmt.Errorf("persist conflicts: %w", err)
	}

	slog.Info("conflict resolved", "record", recordID, "direction", direction, "remaining", len(remaining))
	return len(remaining) == 0 && e.conflicts.Len() == 0, nil
}
