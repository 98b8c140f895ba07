package handlers

import "time"

const EventConflicts = "conflicts"

type ConflictsEvent struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"ts"`
	Conflicts []ConflictItem `json:"conflicts"`
}
