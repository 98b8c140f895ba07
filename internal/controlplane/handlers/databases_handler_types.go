package handlers

import "time"

type DatabaseItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	URL            string    `json:"url,omitempty"`
	LastEditedTime time.Time `json:"lastEditedTime"`
	BoundPath      string    `json:"boundPath,omitempty"`
}

type DatabasesResponse struct {
	Databases []DatabaseItem `json:"databases"`
}
