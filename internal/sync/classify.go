package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/vault"
)

// Direction forces a pass or a resolution to one side.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionDownload
	DirectionUpload
)

func (d Direction) String() string {
	switch d {
	case DirectionDownload:
		return "download"
	case DirectionUpload:
		return "upload"
	}
	return "none"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DirectionNone, nil
	case "download", "down", "pull":
		return DirectionDownload, nil
	case "upload", "up", "push":
		return DirectionUpload, nil
	}
	return DirectionNone, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

type Decision int

const (
	DecisionSkip Decision = iota
	DecisionDownload
	DecisionUpload
	DecisionConflict
)

var decisionNames = []string{"skip", "download", "upload", "conflict"}

func (d Decision) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Classify decides the transfer for a correlated pair. A change on both sides
// is a conflict unless the pass is forced.
func Classify(downloading, uploading bool, force Direction) Decision {
	switch {
	case downloading && uploading:
		switch force {
		case DirectionDownload:
			return DecisionDownload
		case DirectionUpload:
			return DecisionUpload
		}
		return DecisionConflict
	case downloading:
		return DecisionDownload
	case uploading:
		return DecisionUpload
	}
	return DecisionSkip
}

// remoteChanged reports whether the record moved past the watermark. An
// upload-forced pass never considers the remote side.
func remoteChanged(page *notion.Page, watermark time.Time, force Direction) bool {
	if force == DirectionUpload {
		return false
	}
	return page.LastEditedTime.After(watermark) || page.CreatedTime.After(watermark)
}

// localChanged is the upload-side counterpart of remoteChanged.
func localChanged(doc *vault.Document, watermark time.Time, force Direction) bool {
	if force == DirectionDownload {
		return false
	}
	return doc.ModTime.After(watermark) || doc.CTime.After(watermark)
}

func classifyPair(page *notion.Page, doc *vault.Document, p *pass) Decision {
	if p.force == DirectionNone && p.pending.Contains(normalizeID(page.ID)) {
		return DecisionConflict
	}
	return Classify(
		remoteChanged(page, p.watermark, p.force),
		localChanged(doc, p.watermark, p.force),
		p.force,
	)
}

// normalizeID strips dashes so ids copied from URLs match API ids.
func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}

func sameID(a, b string) bool {
	return a != "" && normalizeID(a) == normalizeID(b)
}
