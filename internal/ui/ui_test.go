package ui

import (
	"strings"
	"testing"

	"github.com/mree-music/mree/internal/models"
)

func TestTrackItem(t *testing.T) {
	t.Run("Playable", func(t *testing.T) {
		item := trackItem{track: models.Track{
			Title: "One More Time", Artist: "Daft Punk", Album: "Discovery",
			Duration: 320, FilePath: "/music/omt.mp3",
			DownloadStatus: models.StatusCompleted,
		}}

		if item.Title() != "One More Time" {
			t.Errorf("unexpected title: %q", item.Title())
		}
		if !strings.Contains(item.Description(), "Daft Punk") ||
			!strings.Contains(item.Description(), "Discovery") ||
			!strings.Contains(item.Description(), "5:20") {
			t.Errorf("unexpected description: %q", item.Description())
		}
		if item.FilterValue() != "One More Time" {
			t.Errorf("unexpected filter value: %q", item.FilterValue())
		}
	})

	t.Run("Not Downloaded", func(t *testing.T) {
		item := trackItem{track: models.Track{
			Title: "Song", Artist: "Artist", DownloadStatus: models.StatusDownloading,
		}}
		if !strings.Contains(item.Title(), "not downloaded") {
			t.Errorf("pending tracks should be labeled: %q", item.Title())
		}
	})
}

func TestKeyMap(t *testing.T) {
	keys := newKeyMap()

	if len(keys.ShortHelp()) == 0 {
		t.Error("short help should list bindings")
	}

	full := keys.FullHelp()
	if len(full) != 3 {
		t.Errorf("expected 3 help rows, got %d", len(full))
	}
}
