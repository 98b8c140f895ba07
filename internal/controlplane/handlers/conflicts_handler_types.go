package handlers

import (
	"time"

	"github.com/openmined/notionsync/internal/sync"
)

type ConflictItem struct {
	RecordID       string    `json:"recordId"`
	CollectionID   string    `json:"collectionId,omitempty"`
	Title          string    `json:"title"`
	Path           string    `json:"path"`
	RemoteEditedAt time.Time `json:"remoteEditedAt"`
	LocalEditedAt  time.Time `json:"localEditedAt"`
}

type ConflictsResponse struct {
	Conflicts []ConflictItem `json:"conflicts"`
}

type ResolveRequest struct {
	RecordID  string `json:"recordId" binding:"required"`
	Direction string `json:"direction" binding:"required"`
}

type ResolveResponse struct {
	Code        string `json:"code"`
	AllResolved bool   `json:"allResolved"`
}

func newConflictItems(pairs []*sync.Pair) []ConflictItem {
	items := make([]ConflictItem, 0, len(pairs))
	for _, p := range pairs {
		title, _ := p.Record.Title()
		items = append(items, ConflictItem{
			RecordID:       p.ID(),
			CollectionID:   p.CollectionID,
			Title:          title,
			Path:           p.Document.Path,
			RemoteEditedAt: p.Record.LastEditedTime,
			LocalEditedAt:  p.Document.ModTime,
		})
	}
	return items
}
