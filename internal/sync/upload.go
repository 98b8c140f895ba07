package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/property"
	"github.com/openmined/notionsync/internal/vault"
)

var errNothingToPush = errors.New("no changed properties")

func (e *Engine) uploadRecord(ctx context.Context, cr *CollectionRun, page *notion.Page, doc *vault.Document) {
	err := e.upload(ctx, page, doc)
	switch {
	case errors.Is(err, errNothingToPush):
		slog.Debug("sync upload", "record", page.ID, "path", doc.Path, "result", "unchanged")
		cr.skipped(page.ID, doc.Path)
	case err != nil:
		cr.failed(page.ID, doc.Path, err)
	default:
		slog.Debug("sync upload", "record", page.ID, "path", doc.Path)
		cr.uploaded(page.ID, doc.Path)
	}
}

// buildPatch collects the front matter values that differ from the record.
// Keys the record does not have, the correlation key and kinds that cannot
// be written remotely are left out. A renamed document contributes its new
// title.
func (e *Engine) buildPatch(ctx context.Context, page *notion.Page, doc *vault.Document) (map[string]notion.PropertyValue, error) {
	titleKey, titleProp, err := page.TitleProperty()
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", page.ID, err)
	}

	patch := make(map[string]notion.PropertyValue)
	for key, remote := range page.Properties {
		if key == CorrelationKey || remote.Type == notion.TypeTitle {
			continue
		}
		local, ok := doc.Metadata[key]
		if !ok {
			continue
		}
		out, ok := property.ToRemote(remote.Type, local)
		if !ok {
			continue
		}
		if current, err := property.ToLocal(ctx, e.gateway, remote); err == nil && property.Equal(current, local) {
			continue
		}
		patch[key] = out
	}

	if name := doc.Name(); !matchesTitle(name, fileName(notion.PlainText(titleProp.Title))) {
		title, _ := property.ToRemote(notion.TypeTitle, name)
		patch[titleKey] = title
	}

	return patch, nil
}

// upload pushes the document's values onto the record. A rejected patch is
// logged with its payload and never retried; local state is left as it is.
func (e *Engine) upload(ctx context.Context, page *notion.Page, doc *vault.Document) error {
	patch, err := e.buildPatch(ctx, page, doc)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return errNothingToPush
	}

	if _, err := e.gateway.UpdatePage(ctx, page.ID, patch); err != nil {
		payload, _ := json.Marshal(patch)
		slog.Error("sync push rejected", "record", page.ID, "path", doc.Path, "payload", string(payload), "error", err)
		return fmt.Errorf("%w: %w", ErrPushRejected, err)
	}
	return nil
}

// createRecord turns an unlinked document into a new record. The record id
// is written into the document before its properties are pushed, so an
// interrupted upload still leaves the pair correlated.
func (e *Engine) createRecord(ctx context.Context, cr *CollectionRun, titleKey string, doc *vault.Document) {
	id, err := e.create(ctx, cr.CollectionID, titleKey, doc)
	if err != nil {
		slog.Warn("sync create", "collection", cr.CollectionID, "path", doc.Path, "error", err)
		cr.failed(id, doc.Path, err)
		return
	}
	slog.Info("sync create", "collection", cr.CollectionID, "record", id, "path", doc.Path)
	cr.uploaded(id, doc.Path)
}

func (e *Engine) create(ctx context.Context, collectionID, titleKey string, doc *vault.Document) (string, error) {
	title, _ := property.ToRemote(notion.TypeTitle, doc.Name())
	created, err := e.gateway.CreatePage(ctx, collectionID, map[string]notion.PropertyValue{titleKey: title})
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	err = e.store.WriteMetadata(doc.Path, func(m vault.Metadata) error {
		m[CorrelationKey] = created.ID
		return nil
	})
	if err != nil {
		return created.ID, fmt.Errorf("link %s: %w", created.ID, err)
	}

	page, err := e.gateway.GetPage(ctx, created.ID, true)
	if err != nil {
		return created.ID, fmt.Errorf("fetch created record: %w", err)
	}
	linked, err := e.store.Stat(doc.Path)
	if err != nil {
		return created.ID, err
	}

	if err := e.upload(ctx, page, linked); err != nil && !errors.Is(err, errNothingToPush) {
		return created.ID, err
	}
	return created.ID, nil
}
