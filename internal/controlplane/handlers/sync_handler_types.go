package handlers

import (
	"time"

	"github.com/openmined/notionsync/internal/sync"
)

type SyncResponse struct {
	RunID      string            `json:"runId"`
	Force      string            `json:"force"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Summary    sync.Summary      `json:"summary"`
	Downloaded []string          `json:"downloaded"`
	Uploaded   []string          `json:"uploaded"`
	Skipped    []string          `json:"skipped"`
	Failed     []FailedRecord    `json:"failed"`
	Conflicts  []ConflictItem    `json:"conflicts"`
	Errors     []CollectionError `json:"errors,omitempty"`
}

type FailedRecord struct {
	RecordID string `json:"recordId"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error"`
}

type CollectionError struct {
	CollectionID string `json:"collectionId"`
	Path         string `json:"path"`
	Error        string `json:"error"`
}

func newSyncResponse(run *sync.Run) *SyncResponse {
	resp := &SyncResponse{
		RunID:      run.ID,
		Force:      run.Force.String(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    run.Summary(),
		Downloaded: nonNil(run.Downloaded()),
		Uploaded:   nonNil(run.Uploaded()),
		Skipped:    nonNil(run.Skipped()),
		Failed:     []FailedRecord{},
		Conflicts:  newConflictItems(run.Conflicts()),
	}
	for _, c := range run.Collections {
		if c.Err != nil {
			resp.Errors = append(resp.Errors, CollectionError{
				CollectionID: c.CollectionID,
				Path:         c.Path,
				Error:        c.Err.Error(),
			})
		}
		for _, o := range c.Outcomes {
			if o.Result != sync.ResultFailed {
				continue
			}
			f := FailedRecord{RecordID: o.RecordID, Path: o.Path}
			if o.Err != nil {
				f.Error = o.Err.Error()
			}
			resp.Failed = append(resp.Failed, f)
		}
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
