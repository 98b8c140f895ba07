package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/property"
	"github.com/openmined/notionsync/internal/vault"
)

const untitled = "Untitled"

var (
	invalidNameChars = regexp.MustCompile(`[\\/:*?"<>|#^\[\]\x00-\x1f]`)
	// "Title (2)" is how colliding titles are disambiguated on disk
	numberedName = regexp.MustCompile(`^(.*) \((\d+)\)$`)
)

// downloadRecord records the outcome of download in cr. It reports the
// document path on success.
func (e *Engine) downloadRecord(ctx context.Context, cr *CollectionRun, page *notion.Page, doc *vault.Document, dir string) (string, bool) {
	target, err := e.download(ctx, page, doc, dir)
	if err != nil {
		docPath := ""
		if doc != nil {
			docPath = doc.Path
		}
		slog.Warn("sync download", "record", page.ID, "path", docPath, "error", err)
		cr.failed(page.ID, docPath, err)
		return "", false
	}
	slog.Debug("sync download", "record", page.ID, "path", target)
	cr.downloaded(page.ID, target)
	return target, true
}

// download writes a record into the vault. Properties are translated before
// anything is touched on disk. An existing document is renamed to follow the
// record title before its front matter is rewritten; a new one is created in
// dir.
func (e *Engine) download(ctx context.Context, page *notion.Page, doc *vault.Document, dir string) (string, error) {
	title, err := page.Title()
	if err != nil {
		return "", fmt.Errorf("record %s: %w", page.ID, err)
	}

	values := make(map[string]any, len(page.Properties))
	for key, prop := range page.Properties {
		if prop.Type == notion.TypeTitle {
			continue
		}
		local, err := property.ToLocal(ctx, e.gateway, prop)
		if errors.Is(err, property.ErrUnsupported) {
			slog.Debug("sync skip property", "record", page.ID, "property", key, "type", prop.Type)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("property %q: %w", key, err)
		}
		values[key] = local
	}

	name := fileName(title)
	var target string
	if doc != nil {
		target = doc.Path
		if !matchesTitle(doc.Name(), name) {
			target = e.renameTarget(doc, name)
		}
	} else {
		target, err = e.newDocumentPath(dir, name, page.ID)
		if err != nil {
			return "", err
		}
		if _, err := e.store.CreateOrGet(target); err != nil {
			return "", err
		}
	}

	err = e.store.WriteMetadata(target, func(m vault.Metadata) error {
		for key, value := range values {
			m[key] = value
		}
		m[CorrelationKey] = page.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return target, nil
}

// renameTarget moves doc to follow a new title, staying in its folder. When
// the name is taken the document keeps its path.
func (e *Engine) renameTarget(doc *vault.Document, name string) string {
	target := vault.NotePath(doc.Dir(), name)
	if err := e.store.Rename(doc.Path, target); err != nil {
		slog.Warn("sync rename", "from", doc.Path, "to", target, "error", err)
		return doc.Path
	}
	slog.Info("sync rename", "from", doc.Path, "to", target)
	return target
}

// newDocumentPath picks dir/name.md, or a numbered variant when that path
// already belongs to a different record.
func (e *Engine) newDocumentPath(dir, name, recordID string) (string, error) {
	for n := 1; n < 1000; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s (%d)", name, n)
		}
		target := vault.NotePath(dir, candidate)
		if !e.store.Exists(target) {
			return target, nil
		}
		existing, err := e.store.Stat(target)
		if err != nil {
			if errors.Is(err, vault.ErrNotDocument) {
				continue
			}
			return "", err
		}
		if id := correlationID(existing.Metadata); id == "" || sameID(id, recordID) {
			return target, nil
		}
	}
	return "", fmt.Errorf("no free document name for %q in %s", name, dir)
}

// fileName makes a record title safe for use as a base name.
func fileName(title string) string {
	name := invalidNameChars.ReplaceAllString(title, "")
	name = strings.Trim(strings.TrimSpace(name), ".")
	name = strings.TrimSpace(name)
	if name == "" {
		return untitled
	}
	return name
}

func matchesTitle(docName, name string) bool {
	if docName == name {
		return true
	}
	m := numberedName.FindStringSubmatch(docName)
	return m != nil && m[1] == name
}
