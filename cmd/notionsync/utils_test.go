package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/sync"
	"github.com/openmined/notionsync/internal/vault"
	"github.com/stretchr/testify/assert"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in   string
		want sync.Direction
		ok   bool
	}{
		{"u", sync.DirectionUpload, true},
		{" Upload\n", sync.DirectionUpload, true},
		{"d", sync.DirectionDownload, true},
		{"DOWN", sync.DirectionDownload, true},
		{"s", sync.DirectionNone, false},
		{"", sync.DirectionNone, false},
		{"push", sync.DirectionNone, false},
	}
	for _, tt := range tests {
		got, ok := parseChoice(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestSince(t *testing.T) {
	assert.Equal(t, "never", since(time.Time{}))
	assert.Contains(t, since(time.Now().Add(-3*time.Hour)), "hours ago")
}

func TestPrintSummary(t *testing.T) {
	start := time.Now()
	conflict := &sync.Pair{
		Record:   &notion.Page{ID: "p3"},
		Document: &vault.Document{Path: "Tasks/Both.md"},
	}
	run := &sync.Run{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Collections: []*sync.CollectionRun{
			{
				CollectionID: "db1",
				Path:         "Tasks",
				Outcomes: []sync.Outcome{
					{RecordID: "p1", Path: "Tasks/A.md", Result: sync.ResultDownloaded},
					{RecordID: "p2", Path: "Tasks/B.md", Result: sync.ResultUploaded},
					{RecordID: "p3", Path: "Tasks/Both.md", Result: sync.ResultConflict},
					{RecordID: "p4", Result: sync.ResultFailed, Err: errors.New("validation_error")},
				},
				Conflicts: []*sync.Pair{conflict},
			},
			{CollectionID: "db2", Path: "Notes", Err: errors.New("object_not_found")},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, run)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "Sync run-1")
	assert.Contains(t, out, "1.5s")
	assert.Regexp(t, `Downloaded\s+1\n`, out)
	assert.Regexp(t, `Uploaded\s+1\n`, out)
	assert.Regexp(t, `Skipped\s+0\n`, out)
	assert.Regexp(t, `Conflicts\s+1\n`, out)
	assert.Regexp(t, `Failed\s+1\n`, out)
	assert.Contains(t, out, "✗ Notes object_not_found")
	assert.Contains(t, out, "✗ p4 validation_error")
	assert.Contains(t, out, "! Tasks/Both.md p3")
}
