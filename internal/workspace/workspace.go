package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/openmined/notionsync/internal/utils"
)

const (
	logsDir  = "logs"
	lockFile = "notionsync.lock"
)

var (
	ErrLocked = errors.New("data dir locked by another notionsync process")
)

// Workspace is the on-disk layout of one notionsync instance: the data dir
// holding settings, journal and logs, and the vault it syncs.
type Workspace struct {
	DataDir  string
	VaultDir string
	LogsDir  string

	flock *flock.Flock
}

func NewWorkspace(dataDir, vaultDir string) (*Workspace, error) {
	data, err := utils.ResolvePath(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dataDir, err)
	}
	vault, err := utils.ResolvePath(vaultDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", vaultDir, err)
	}

	return &Workspace{
		DataDir:  data,
		VaultDir: vault,
		LogsDir:  filepath.Join(data, logsDir),
		flock:    flock.New(filepath.Join(data, lockFile)),
	}, nil
}

func (w *Workspace) LockPath() string {
	return w.flock.Path()
}

// Lock takes the single-instance lock on the data dir.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.DataDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.DataDir, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock data dir: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

func (w *Workspace) Unlock() error {
	// only the holder removes the lock file
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock data dir: %w", err)
	}

	return os.Remove(w.flock.Path())
}

// Setup locks the workspace and creates its directories. The vault must
// already exist.
func (w *Workspace) Setup() error {
	if err := w.Lock(); err != nil {
		return err
	}

	if !utils.DirExists(w.VaultDir) {
		w.Unlock() //nolint:errcheck
		return fmt.Errorf("vault dir %s: %w", w.VaultDir, os.ErrNotExist)
	}

	if err := utils.EnsureDir(w.LogsDir); err != nil {
		w.Unlock() //nolint:errcheck
		return fmt.Errorf("failed to create directory %s: %w", w.LogsDir, err)
	}

	slog.Info("workspace", "data", w.DataDir, "vault", w.VaultDir)
	return nil
}
