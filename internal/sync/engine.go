// Package sync reconciles Notion databases with folders of a markdown vault.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	gosync "sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/property"
	"github.com/openmined/notionsync/internal/vault"
	"golang.org/x/sync/errgroup"
)

// CorrelationKey is the front matter field holding the linked record id.
const CorrelationKey = "Notion ID"

var (
	ErrSyncAlreadyRunning = errors.New("sync already running")
	ErrIndexUnavailable   = errors.New("local document index unavailable")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrConflictNotFound   = errors.New("conflict not found")
	ErrNotBound           = errors.New("collection is not bound to a folder")
	ErrPushRejected       = errors.New("push rejected")
	ErrFolderTaken        = errors.New("destination folder is not free")
)

// Gateway is the remote side of a sync.
type Gateway interface {
	property.Resolver
	QueryDatabase(ctx context.Context, databaseID string, filter *notion.Filter) ([]*notion.Page, error)
	GetDatabase(ctx context.Context, databaseID string) (*notion.Database, error)
	GetPage(ctx context.Context, pageID string, refresh bool) (*notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]notion.PropertyValue) (*notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, properties map[string]notion.PropertyValue) (*notion.Page, error)
}

// LocalStore is the vault side of a sync.
type LocalStore interface {
	Available() error
	Exists(path string) bool
	CreateOrGet(path string) (*vault.Document, error)
	Stat(path string) (*vault.Document, error)
	WriteMetadata(path string, fn func(vault.Metadata) error) error
	Rename(oldPath, newPath string) error
	Delete(path string) error
	List(dir string) ([]*vault.Document, error)
}

type SettingsStore interface {
	Get() config.Settings
	ApplyPatch(p config.SettingsPatch) (config.Settings, error)
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

type Option func(*Engine)

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	gateway   Gateway
	store     LocalStore
	settings  SettingsStore
	recorder  Recorder
	conflicts *ConflictSet
	now       func() time.Time

	muSync  gosync.Mutex
	muLast  gosync.RWMutex
	lastRun *Run
}

func New(gateway Gateway, store LocalStore, settings SettingsStore, opts ...Option) *Engine {
	e := &Engine{
		gateway:   gateway,
		store:     store,
		settings:  settings,
		conflicts: NewConflictSet(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Conflicts() *ConflictSet {
	return e.conflicts
}

// LastRun is the most recent pass of this engine, nil before the first one.
func (e *Engine) LastRun() *Run {
	e.muLast.RLock()
	defer e.muLast.RUnlock()
	return e.lastRun
}

// pass carries the state shared read-only by every collection of one run.
type pass struct {
	settings  config.Settings
	watermark time.Time
	force     Direction
	pending   mapset.Set[string]
}

// Sync runs one pass over every bound collection. Collections run
// concurrently; within a collection all downloads complete before uploads
// start. The watermark advances once every collection has finished.
func (e *Engine) Sync(ctx context.Context, force Direction) (*Run, error) {
	if !e.muSync.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer e.muSync.Unlock()

	if err := e.store.Available(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	settings := e.settings.Get()
	p := &pass{
		settings:  settings,
		watermark: settings.Watermark(),
		force:     force,
		pending:   mapset.NewSet[string](),
	}
	if force != DirectionNone {
		// a forced pass re-evaluates everything
		p.watermark = time.Time{}
	}
	for _, id := range settings.LastConflicts {
		p.pending.Add(normalizeID(id))
	}

	run := &Run{
		ID:        uuid.NewString(),
		Force:     force,
		StartedAt: e.now(),
	}

	ids := make([]string, 0, len(settings.Files))
	for id, binding := range settings.Files {
		if strings.TrimSpace(binding.Path) == "" {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		run.Collections = append(run.Collections, &CollectionRun{
			CollectionID: id,
			Path:         cleanDir(settings.Files[id].Path),
		})
	}

	slog.Info("sync start", "run", run.ID, "force", force, "collections", len(run.Collections), "watermark", p.watermark)

	var g errgroup.Group
	for _, cr := range run.Collections {
		g.Go(func() error {
			if err := e.syncCollection(ctx, p, cr); err != nil {
				cr.Err = err
				slog.Error("sync collection", "collection", cr.CollectionID, "path", cr.Path, "error", err)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	run.FinishedAt = e.now()
	lastSync := ceilMillis(run.FinishedAt)
	conflictIDs := e.nextConflictIDs(settings.LastConflicts, run)
	if _, err := e.settings.ApplyPatch(config.SettingsPatch{
		LastSync:      &lastSync,
		LastConflicts: &conflictIDs,
	}); err != nil {
		return run, fmt.Errorf("persist sync state: %w", err)
	}

	e.conflicts.replace(run.Conflicts())

	e.muLast.Lock()
	e.lastRun = run
	e.muLast.Unlock()

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, run); err != nil {
			slog.Warn("sync journal", "run", run.ID, "error", err)
		}
	}

	s := run.Summary()
	slog.Info("sync done", "run", run.ID, "took", run.FinishedAt.Sub(run.StartedAt),
		"downloaded", s.Downloaded,
		"uploaded", s.Uploaded,
		"skipped", s.Skipped,
		"conflicts", s.Conflicts,
		"failed", s.Failed,
		"failedCollections", s.FailedCollections,
	)
	return run, nil
}

// nextConflictIDs keeps this run's conflicts plus any earlier ones the run
// never reached, e.g. because their collection failed to fetch.
func (e *Engine) nextConflictIDs(previous []string, run *Run) []string {
	touched := run.touched()
	out := []string{}
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, pair := range run.Conflicts() {
		if seen.Add(normalizeID(pair.ID())) {
			out = append(out, pair.ID())
		}
	}
	for _, id := range previous {
		n := normalizeID(id)
		if touched.Contains(n) || seen.Contains(n) {
			continue
		}
		seen.Add(n)
		out = append(out, id)
	}
	return out
}

func (e *Engine) syncCollection(ctx context.Context, p *pass, cr *CollectionRun) error {
	var filter *notion.Filter
	if p.force != DirectionDownload && !p.watermark.IsZero() {
		filter = notion.EditedSince(p.watermark)
	}

	pages, err := e.gateway.QueryDatabase(ctx, cr.CollectionID, filter)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	docs, err := e.store.List(cr.Path)
	if err != nil {
		return fmt.Errorf("list %s: %w", cr.Path, err)
	}

	byID := make(map[string]*vault.Document, len(docs))
	var unlinked []*vault.Document
	note := folderNote(cr.Path)
	for _, doc := range docs {
		if doc.Path == note {
			continue
		}
		// documents under a nested binding belong to that collection
		if owner, err := e.collectionFor(p.settings, doc.Path); err != nil || owner != cr.CollectionID {
			continue
		}
		id := correlationID(doc.Metadata)
		if id == "" {
			unlinked = append(unlinked, doc)
			continue
		}
		if other, dup := byID[normalizeID(id)]; dup {
			slog.Warn("duplicate correlation id", "record", id, "path", doc.Path, "kept", other.Path)
			continue
		}
		byID[normalizeID(id)] = doc
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	linked := mapset.NewThreadUnsafeSet[string]()
	var uploads []*Pair

	decide := func(page *notion.Page, doc *vault.Document) {
		pair := &Pair{CollectionID: cr.CollectionID, Record: page, Document: doc}
		switch classifyPair(page, doc, p) {
		case DecisionDownload:
			e.downloadRecord(ctx, cr, page, doc, cr.Path)
		case DecisionUpload:
			uploads = append(uploads, pair)
		case DecisionConflict:
			slog.Info("sync conflict", "record", page.ID, "path", doc.Path)
			cr.conflict(pair)
		default:
			cr.skipped(page.ID, doc.Path)
		}
	}

	for _, page := range pages {
		key := normalizeID(page.ID)
		if !seen.Add(key) {
			continue
		}
		doc, ok := byID[key]
		if !ok {
			if path, ok := e.downloadRecord(ctx, cr, page, nil, cr.Path); ok {
				linked.Add(path)
			}
			continue
		}
		decide(page, doc)
	}

	// correlated documents whose record the filtered query did not return
	for _, key := range sortedKeys(byID) {
		doc := byID[key]
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		id := correlationID(doc.Metadata)
		if !localChanged(doc, p.watermark, p.force) && !(p.force == DirectionNone && p.pending.Contains(key)) {
			cr.skipped(id, doc.Path)
			continue
		}
		page, err := e.gateway.GetPage(ctx, id, true)
		if err != nil {
			slog.Warn("sync fetch record", "record", id, "path", doc.Path, "error", err)
			cr.failed(id, doc.Path, err)
			continue
		}
		if page.Archived {
			slog.Warn("sync record archived", "record", id, "path", doc.Path)
			cr.skipped(id, doc.Path)
			continue
		}
		decide(page, doc)
	}

	for _, pair := range uploads {
		e.uploadRecord(ctx, cr, pair.Record, pair.Document)
	}

	if p.force == DirectionDownload {
		return nil
	}

	var titleKey string
	for _, doc := range unlinked {
		if linked.Contains(doc.Path) {
			continue
		}
		if titleKey == "" {
			db, err := e.gateway.GetDatabase(ctx, cr.CollectionID)
			if err != nil {
				return fmt.Errorf("get database: %w", err)
			}
			if titleKey, err = db.TitleKey(); err != nil {
				return fmt.Errorf("database %s: %w", cr.CollectionID, err)
			}
		}
		e.createRecord(ctx, cr, titleKey, doc)
	}

	return nil
}

// sortedKeys orders correlated documents by path.
func sortedKeys(byID map[string]*vault.Document) []string {
	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return strings.Compare(byID[a].Path, byID[b].Path)
	})
	return keys
}

func correlationID(meta vault.Metadata) string {
	v, ok := meta[CorrelationKey]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func cleanDir(dir string) string {
	dir = strings.Trim(path.Clean("/"+strings.ReplaceAll(dir, `\`, "/")), "/")
	return dir
}

// folderNote is the note named after its folder, e.g. Tasks/Tasks.md.
func folderNote(dir string) string {
	dir = cleanDir(dir)
	if dir == "" {
		return ""
	}
	return vault.NotePath(dir, path.Base(dir))
}

func ceilMillis(t time.Time) int64 {
	ns := t.UnixNano()
	ms := ns / int64(time.Millisecond)
	if ns%int64(time.Millisecond) != 0 {
		ms++
	}
	return ms
}
