// Package vault stores documents as markdown files with YAML front matter
// under a single root directory. Paths are slash separated and relative to
// that root.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/djherbis/times"
	"github.com/openmined/notionsync/internal/utils"
)

const Ext = ".md"

var (
	ErrIndexUnavailable = errors.New("vault: document index unavailable")
	ErrNotDocument      = errors.New("vault: not a markdown document")
	ErrNotFound         = errors.New("vault: document not found")
	ErrExists           = errors.New("vault: destination already exists")
	ErrOutsideRoot      = errors.New("vault: path escapes vault root")
)

// Document is one markdown file and its parsed front matter.
type Document struct {
	Path     string
	Metadata Metadata
	ModTime  time.Time
	// CTime is the inode change time. It moves on renames and metadata
	// changes that leave ModTime alone. Falls back to ModTime where the
	// platform has no change time.
	CTime time.Time
}

func changeTime(info fs.FileInfo) time.Time {
	ts := times.Get(info)
	if ts.HasChangeTime() {
		return ts.ChangeTime()
	}
	return info.ModTime()
}

// Name is the file name without extension.
func (d *Document) Name() string {
	return strings.TrimSuffix(path.Base(d.Path), Ext)
}

func (d *Document) Dir() string {
	return path.Dir(d.Path)
}

type Vault struct {
	root string
	mu   gosync.Mutex // serialises front matter rewrites
}

func New(root string) (*Vault, error) {
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("vault root: %w", err)
	}
	return &Vault{root: resolved}, nil
}

func (v *Vault) Root() string {
	return v.root
}

// Available reports ErrIndexUnavailable when the vault root is missing.
func (v *Vault) Available() error {
	if !utils.DirExists(v.root) {
		return fmt.Errorf("%w: %s", ErrIndexUnavailable, v.root)
	}
	return nil
}

// NotePath joins a directory and a title into a document path.
func NotePath(dir, name string) string {
	return path.Join(dir, name+Ext)
}

func (v *Vault) abs(rel string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(rel, `\`, "/"))
	if clean == "/" {
		return v.root, nil
	}
	full := filepath.Join(v.root, filepath.FromSlash(clean[1:]))
	if full != v.root && !strings.HasPrefix(full, v.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return full, nil
}

func cleanRel(rel string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(rel, `\`, "/")), "/")
}

func (v *Vault) Exists(rel string) bool {
	full, err := v.abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// CreateOrGet returns the document at rel, creating an empty one and any
// missing parent directories when it does not exist.
func (v *Vault) CreateOrGet(rel string) (*Document, error) {
	if !strings.HasSuffix(rel, Ext) {
		return nil, fmt.Errorf("%w: %s", ErrNotDocument, rel)
	}
	full, err := v.abs(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotDocument, rel)
	case errors.Is(err, fs.ErrNotExist):
		if err := utils.EnsureParent(full); err != nil {
			return nil, fmt.Errorf("create parent of %s: %w", rel, err)
		}
		f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil && !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create %s: %w", rel, err)
		}
		if f != nil {
			f.Close()
		}
		slog.Debug("vault create", "path", rel)
	case err != nil:
		return nil, err
	}

	return v.Stat(rel)
}

// Stat reads a document and its front matter.
func (v *Vault) Stat(rel string) (*Document, error) {
	full, err := v.abs(rel)
	if err != nil {
		return nil, err
	}
	return v.load(cleanRel(rel), full)
}

func (v *Vault) load(rel, full string) (*Document, error) {
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() || !strings.HasSuffix(rel, Ext) {
		return nil, fmt.Errorf("%w: %s", ErrNotDocument, rel)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	front, _ := splitFrontMatter(content)
	meta, err := parseFrontMatter(front)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	return &Document{
		Path:     rel,
		Metadata: meta,
		ModTime:  info.ModTime(),
		CTime:    changeTime(info),
	}, nil
}

func (v *Vault) ReadMetadata(rel string) (Metadata, error) {
	doc, err := v.Stat(rel)
	if err != nil {
		return nil, err
	}
	return doc.Metadata, nil
}

// WriteMetadata applies fn to the document's front matter and writes the
// result atomically. Nothing is written when fn returns an error.
func (v *Vault) WriteMetadata(rel string, fn func(Metadata) error) error {
	full, err := v.abs(rel)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	content, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	front, body := splitFrontMatter(content)
	meta, err := parseFrontMatter(front)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}

	if err := fn(meta); err != nil {
		return err
	}

	out, err := joinFrontMatter(meta, body)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	return utils.WriteFileAtomic(full, out, 0o644)
}

// SetBody replaces the text after the front matter.
func (v *Vault) SetBody(rel string, body []byte) error {
	full, err := v.abs(rel)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	content, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	front, _ := splitFrontMatter(content)
	meta, err := parseFrontMatter(front)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	out, err := joinFrontMatter(meta, body)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(full, out, 0o644)
}

// Rename moves a document or a directory. It never replaces an existing entry.
func (v *Vault) Rename(oldRel, newRel string) error {
	if cleanRel(oldRel) == cleanRel(newRel) {
		return nil
	}
	from, err := v.abs(oldRel)
	if err != nil {
		return err
	}
	to, err := v.abs(newRel)
	if err != nil {
		return err
	}

	if _, err := os.Stat(from); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, oldRel)
	}
	if _, err := os.Lstat(to); err == nil && !sameFile(from, to) {
		return fmt.Errorf("%w: %s", ErrExists, newRel)
	}
	if err := utils.EnsureParent(to); err != nil {
		return fmt.Errorf("create parent of %s: %w", newRel, err)
	}

	slog.Debug("vault rename", "from", oldRel, "to", newRel)
	return os.Rename(from, to)
}

// sameFile lets a case-only rename through on case-insensitive filesystems.
func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func (v *Vault) Delete(rel string) error {
	full, err := v.abs(rel)
	if err != nil {
		return err
	}
	if full == v.root {
		return fmt.Errorf("%w: refusing to delete vault root", ErrOutsideRoot)
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return err
	}
	slog.Debug("vault delete", "path", rel)
	return nil
}

// List returns every document under dir, including nested folders. Hidden
// folders such as .obsidian and .trash are skipped, as is anything matched
// by the ignore file. A document whose front matter cannot be parsed is
// listed with empty metadata.
func (v *Vault) List(dir string) ([]*Document, error) {
	if err := v.Available(); err != nil {
		return nil, err
	}
	base, err := v.abs(dir)
	if err != nil {
		return nil, err
	}
	if !utils.DirExists(base) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(base), "**/*"+Ext, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	prefix := cleanRel(dir)
	ignore := v.ignoreList()
	docs := make([]*Document, 0, len(matches))
	for _, match := range matches {
		rel := path.Join(prefix, match)
		if hidden(rel) || ignore.MatchesPath(rel) {
			continue
		}
		full := filepath.Join(base, filepath.FromSlash(match))

		doc, err := v.load(rel, full)
		if err != nil {
			slog.Warn("vault list", "path", rel, "error", err)
			info, statErr := os.Stat(full)
			if statErr != nil {
				continue
			}
			doc = &Document{Path: rel, Metadata: Metadata{}, ModTime: info.ModTime(), CTime: changeTime(info)}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
