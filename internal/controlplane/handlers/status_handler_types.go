package handlers

import "github.com/openmined/notionsync/internal/sync"

type StatusResponse struct {
	Status           string          `json:"status"`
	Timestamp        string          `json:"ts"`
	Version          string          `json:"version"`
	Revision         string          `json:"revision"`
	BuildDate        string          `json:"buildDate"`
	HasAPIKey        bool            `json:"hasApiKey"`
	Bindings         int             `json:"bindings"`
	LastSync         string          `json:"lastSync,omitempty"`
	PendingConflicts int             `json:"pendingConflicts"`
	LastRun          *sync.RunRecord `json:"lastRun,omitempty"`
}
