package models

import (
	"encoding/json"
	"time"
)

// DownloadStatus is the backend-reported acquisition state of a track.
type DownloadStatus string

const (
	StatusUnknown     DownloadStatus = "unknown"
	StatusQueued      DownloadStatus = "pending"
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
)

// ParseDownloadStatus normalizes a backend status string.
// Unrecognized or empty values map to [StatusUnknown].
func ParseDownloadStatus(s string) DownloadStatus {
	switch s {
	case "pending", "queued":
		return StatusQueued
	case "downloading":
		return StatusDownloading
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the status is a terminal acquisition state.
func (s DownloadStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// UnmarshalJSON normalizes the wire value through [ParseDownloadStatus].
// The backend sends null for tracks it has never tried to acquire.
func (s *DownloadStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StatusUnknown
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseDownloadStatus(raw)
	return nil
}

// Track represents one song, local or remote.
//
// A track that came from an external search has no local ID and an unknown
// download status; a track from the library listing carries the backend's
// authoritative state.
type Track struct {
	ID             int            `json:"id"`
	Title          string         `json:"title"`
	Artist         string         `json:"artist"`
	Album          string         `json:"album,omitempty"`
	Duration       int            `json:"duration,omitempty"` // whole seconds
	SpotifyID      string         `json:"spotify_id,omitempty"`
	YouTubeURL     string         `json:"youtube_url,omitempty"`
	FilePath       string         `json:"file_path,omitempty"`
	ThumbnailURL   string         `json:"thumbnail_url,omitempty"`
	DownloadStatus DownloadStatus `json:"download_status,omitempty"`
	CreatedAt      time.Time      `json:"created_at,omitzero"`
}

// CanPlay reports whether the track is locally playable: acquisition
// completed and a file locator present.
func (t Track) CanPlay() bool {
	return t.DownloadStatus == StatusCompleted && t.FilePath != ""
}

// Streamable reports whether the track can be addressed by the stream
// endpoint at all. Without a Spotify ID there is no stream URL.
func (t Track) Streamable() bool {
	return t.SpotifyID != ""
}

// ExternalTrack is a Spotify search result proxied by the backend.
type ExternalTrack struct {
	SpotifyID    string `json:"spotify_id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	Duration     int    `json:"duration"`
	PreviewURL   string `json:"preview_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Track converts an external result into a [Track] with unknown acquisition state.
func (e ExternalTrack) Track() Track {
	return Track{
		Title:          e.Title,
		Artist:         e.Artist,
		Album:          e.Album,
		Duration:       e.Duration,
		SpotifyID:      e.SpotifyID,
		ThumbnailURL:   e.ThumbnailURL,
		DownloadStatus: StatusUnknown,
	}
}
