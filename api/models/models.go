// Package models tracks all api models for request and responses
package models

import (
	"github.com/aouyang1/einkframe/photocache"
	"github.com/aouyang1/einkframe/slideshow"
)

type PhotoResponse struct {
	Photo slideshow.PhotoRef `json:"photo"`
}

type PhotoListResponse struct {
	Photos []slideshow.PhotoRef `json:"photos"`
	Total  int                  `json:"total"`
}

type StartRequest struct {
	IntervalMinutes *int `json:"interval_minutes,omitempty"`
}

type StatusResponse struct {
	slideshow.Status
	Cache photocache.Stats `json:"cache"`
}

type SyncResponse struct {
	Downloaded int `json:"downloaded"`
	Deleted    int `json:"deleted"`
}

type ClearCacheResponse struct {
	Removed int `json:"removed"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DisplayStateResponse struct {
	Enabled bool `json:"enabled"`
}
