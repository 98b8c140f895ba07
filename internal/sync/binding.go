package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/vault"
)

// UpdateBinding points a collection at a new folder and moves its folder
// note to follow: clearing the path deletes the note, binding a fresh
// collection creates it, and re-binding renames the note before moving the
// folder.
func (e *Engine) UpdateBinding(ctx context.Context, collectionID, dir string) error {
	if err := e.store.Available(); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	e.muSync.Lock()
	defer e.muSync.Unlock()

	settings := e.settings.Get()
	oldDir := cleanDir(settings.Files[collectionID].Path)
	newDir := cleanDir(dir)

	switch {
	case oldDir == newDir:
	case newDir == "":
		if err := e.store.Delete(folderNote(oldDir)); err != nil && !errors.Is(err, vault.ErrNotFound) {
			return fmt.Errorf("delete folder note: %w", err)
		}
	case oldDir == "" || !e.store.Exists(oldDir):
		if _, err := e.store.CreateOrGet(folderNote(newDir)); err != nil {
			return fmt.Errorf("create folder note: %w", err)
		}
	default:
		if e.store.Exists(newDir) || strings.HasPrefix(newDir, oldDir+"/") {
			return fmt.Errorf("%w: %s", ErrFolderTaken, newDir)
		}
		note := folderNote(oldDir)
		renamed := vault.NotePath(oldDir, path.Base(newDir))
		moved := false
		if e.store.Exists(note) && note != renamed {
			if err := e.store.Rename(note, renamed); err != nil {
				return fmt.Errorf("rename folder note: %w", err)
			}
			moved = true
		}
		if err := e.store.Rename(oldDir, newDir); err != nil {
			if moved {
				if rbErr := e.store.Rename(renamed, note); rbErr != nil {
					slog.Error("restore folder note", "path", note, "error", rbErr)
				}
			}
			return fmt.Errorf("move folder: %w", err)
		}
		if _, err := e.store.CreateOrGet(folderNote(newDir)); err != nil {
			return fmt.Errorf("create folder note: %w", err)
		}
	}

	_, err := e.settings.ApplyPatch(config.SettingsPatch{
		Files: map[string]config.Binding{collectionID: {Path: newDir}},
	})
	if err != nil {
		return fmt.Errorf("persist binding: %w", err)
	}

	slog.Info("binding updated", "collection", collectionID, "from", oldDir, "to", newDir)
	return nil
}

// GetPage returns a record, served from the gateway cache when possible.
func (e *Engine) GetPage(ctx context.Context, pageID string) (*notion.Page, error) {
	return e.gateway.GetPage(ctx, pageID, false)
}

// DownloadPage pulls one record into its bound folder and returns the
// document path.
func (e *Engine) DownloadPage(ctx context.Context, pageID string) (string, error) {
	if err := e.store.Available(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	e.muSync.Lock()
	defer e.muSync.Unlock()

	page, err := e.gateway.GetPage(ctx, pageID, true)
	if err != nil {
		return "", err
	}
	dir, err := e.boundDir(e.settings.Get(), page.Parent.DatabaseID)
	if err != nil {
		return "", err
	}
	doc, err := e.findDocument(dir, page.ID)
	if err != nil {
		return "", err
	}
	return e.download(ctx, page, doc, dir)
}

// UploadFile pushes one document. An unlinked document creates its record.
// It returns the record id.
func (e *Engine) UploadFile(ctx context.Context, docPath string) (string, error) {
	if err := e.store.Available(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	e.muSync.Lock()
	defer e.muSync.Unlock()

	doc, err := e.store.Stat(docPath)
	if err != nil {
		return "", err
	}

	id := correlationID(doc.Metadata)
	if id == "" {
		collectionID, err := e.collectionFor(e.settings.Get(), doc.Path)
		if err != nil {
			return "", err
		}
		db, err := e.gateway.GetDatabase(ctx, collectionID)
		if err != nil {
			return "", err
		}
		titleKey, err := db.TitleKey()
		if err != nil {
			return "", err
		}
		return e.create(ctx, collectionID, titleKey, doc)
	}

	page, err := e.gateway.GetPage(ctx, id, true)
	if err != nil {
		return id, err
	}
	if err := e.upload(ctx, page, doc); err != nil && !errors.Is(err, errNothingToPush) {
		return id, err
	}
	return id, nil
}

func (e *Engine) boundDir(settings config.Settings, collectionID string) (string, error) {
	for id, binding := range settings.Files {
		if sameID(id, collectionID) {
			if dir := cleanDir(binding.Path); dir != "" {
				return dir, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotBound, collectionID)
}

// collectionFor finds the binding whose folder contains docPath. The deepest
// folder wins when bindings nest.
func (e *Engine) collectionFor(settings config.Settings, docPath string) (string, error) {
	best, bestLen := "", -1
	for id, binding := range settings.Files {
		dir := cleanDir(binding.Path)
		if dir == "" || !strings.HasPrefix(docPath, dir+"/") {
			continue
		}
		if len(dir) > bestLen || (len(dir) == bestLen && id < best) {
			best, bestLen = id, len(dir)
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no binding contains %s", ErrNotBound, docPath)
	}
	return best, nil
}

// findDocument returns the document linked to recordID under dir, or nil.
func (e *Engine) findDocument(dir, recordID string) (*vault.Document, error) {
	docs, err := e.store.List(dir)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if sameID(correlationID(doc.Metadata), recordID) {
			return doc, nil
		}
	}
	return nil, nil
}
