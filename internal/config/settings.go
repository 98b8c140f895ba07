package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	gosync "sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/openmined/notionsync/internal/utils"
)

// Binding maps one collection to a vault directory.
type Binding struct {
	Path string `json:"path"`
}

// Settings is the persisted sync state.
type Settings struct {
	Files         map[string]Binding `json:"files"`
	APIKey        string             `json:"apiKey"`
	LastSync      int64              `json:"lastSync"` // epoch millis
	LastConflicts []string           `json:"lastConflicts"`
}

// Watermark is the end of the last completed pass, zero if none.
func (s Settings) Watermark() time.Time {
	if s.LastSync <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastSync)
}

func (s Settings) clone() Settings {
	out := s
	out.Files = make(map[string]Binding, len(s.Files))
	for id, b := range s.Files {
		out.Files[id] = b
	}
	out.LastConflicts = slices.Clone(s.LastConflicts)
	if out.LastConflicts == nil {
		out.LastConflicts = []string{}
	}
	return out
}

// SettingsPatch is a partial update. Nil fields are left as they are; Files
// entries are merged key by key.
type SettingsPatch struct {
	Files         map[string]Binding
	APIKey        *string
	LastSync      *int64
	LastConflicts *[]string
}

// Store owns the settings file. Every mutation goes through ApplyPatch.
type Store struct {
	path     string
	mu       gosync.RWMutex
	settings Settings
}

// OpenStore loads the settings at path. A missing file yields empty settings.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, settings: Settings{}.clone()}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.settings = loaded.clone()
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// ApplyPatch merges p into the settings and persists the result. The in-memory
// copy changes only when the write succeeds.
func (s *Store) ApplyPatch(p SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings.clone()
	for id, b := range p.Files {
		next.Files[id] = b
	}
	if p.APIKey != nil {
		next.APIKey = *p.APIKey
	}
	if p.LastSync != nil {
		next.LastSync = *p.LastSync
	}
	if p.LastConflicts != nil {
		next.LastConflicts = slices.Clone(*p.LastConflicts)
		if next.LastConflicts == nil {
			next.LastConflicts = []string{}
		}
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := utils.EnsureParent(s.path); err != nil {
		return Settings{}, err
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return Settings{}, fmt.Errorf("write settings: %w", err)
	}

	s.settings = next
	return next.clone(), nil
}
