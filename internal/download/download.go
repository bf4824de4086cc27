// package download implements the acquisition side of the track lifecycle:
// asking the backend to obtain a playable file for an external-catalog
// track, and reconciling against the library until the transition to
// "completed" (or "failed") is observed.
//
// The controller never retries the mutating request and performs no local
// locking: the backend guarantees at most one enqueue per Spotify ID, and
// a request that races an in-flight download simply reports "downloading".
package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/shared"
)

// ErrDownloadFailed surfaces a backend-reported failed acquisition. The
// controller does not auto-retry; a new Request is caller-initiated.
var ErrDownloadFailed = fmt.Errorf("download failed")

// defaultPollInterval paces library reconciliation in Await.
const defaultPollInterval = 2 * time.Second

// Status classifies the backend's answer to an acquisition request.
type Status string

const (
	// StatusQueued means a new download job was enqueued.
	StatusQueued Status = "queued"
	// StatusDownloading means a job for this track is already in flight;
	// the duplicate request was a no-op.
	StatusDownloading Status = "downloading"
	// StatusAlreadyCompleted means the track is already playable; the
	// backend added it to the caller's library if it was not there.
	StatusAlreadyCompleted Status = "already_completed"
)

// ParseStatus maps the backend's response status strings.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "queued":
		return StatusQueued, nil
	case "downloading":
		return StatusDownloading, nil
	case "instant_add", "already_owned":
		return StatusAlreadyCompleted, nil
	default:
		return "", fmt.Errorf("unrecognized download status %q", s)
	}
}

// Pending reports whether the status still needs reconciliation before the
// track is playable.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusDownloading
}

// Result is the outcome of one acquisition request.
type Result struct {
	Message   string
	SpotifyID string
	Status    Status
	TaskID    string // set only for newly queued jobs
}

// Update is one observation from Await's reconciliation loop.
type Update struct {
	SpotifyID string
	Status    models.DownloadStatus
	Track     *models.Track
}

// APIClient is the transport surface the controller needs.
// Implemented by [api.Client].
type APIClient interface {
	Do(ctx context.Context, method, path string, body, result any) (*api.Response, error)
}

// Catalog is the library view the controller reconciles against.
type Catalog interface {
	Library(ctx context.Context) ([]models.Track, error)
}

// Controller drives the acquisition state machine from the client side.
type Controller struct {
	api     APIClient
	catalog Catalog
	logger  *log.Logger
	limiter *rate.Limiter
}

// NewController creates a Controller. The limiter paces Await's library
// polling; nil gets the default of one poll every two seconds.
func NewController(apiClient APIClient, cat Catalog, logger *log.Logger, limiter *rate.Limiter) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(defaultPollInterval), 1)
	}
	return &Controller{api: apiClient, catalog: cat, logger: logger, limiter: limiter}
}

// Request asks the backend to acquire a track. Exactly one mutating call is
// made; interpreting concurrent duplicates is the backend's job.
func (c *Controller) Request(ctx context.Context, spotifyID string) (*Result, error) {
	if !models.ValidSpotifyID(spotifyID) {
		return nil, fmt.Errorf("%w: malformed spotify id %q", shared.ErrInvalidInput, spotifyID)
	}

	var payload struct {
		Message   string `json:"message"`
		SpotifyID string `json:"spotify_id"`
		Status    string `json:"status"`
		TaskID    string `json:"task_id"`
	}

	if _, err := c.api.Do(ctx, http.MethodPost, "/search/download/"+spotifyID, nil, &payload); err != nil {
		return nil, err
	}

	status, err := ParseStatus(payload.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	c.logger.Debug("download requested", "spotify_id", spotifyID, "status", status)

	return &Result{
		Message:   payload.Message,
		SpotifyID: spotifyID,
		Status:    status,
		TaskID:    payload.TaskID,
	}, nil
}

// Acquire requests the track and, when the backend queues or is already
// running a job for it, waits for the terminal outcome.
func (c *Controller) Acquire(ctx context.Context, spotifyID string, progress chan<- Update) (*models.Track, error) {
	result, err := c.Request(ctx, spotifyID)
	if err != nil {
		return nil, err
	}

	if !result.Status.Pending() {
		return c.find(ctx, spotifyID)
	}

	return c.Await(ctx, spotifyID, progress)
}

// Await polls the library until the track reports completed or failed, or
// the context is canceled. Each observed state change is offered on progress
// without blocking; a slow consumer misses updates rather than stalling the
// loop. On failure the returned error wraps [ErrDownloadFailed].
func (c *Controller) Await(ctx context.Context, spotifyID string, progress chan<- Update) (*models.Track, error) {
	last := models.StatusUnknown

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		track, err := c.find(ctx, spotifyID)
		if err != nil {
			if errors.Is(err, shared.ErrTrackNotFound) {
				// Queued jobs may not have a library row yet.
				continue
			}
			return nil, err
		}

		if track.DownloadStatus != last {
			last = track.DownloadStatus
			c.logger.Debug("download progress", "spotify_id", spotifyID, "status", last)
			sendUpdate(progress, Update{SpotifyID: spotifyID, Status: last, Track: track})
		}

		switch track.DownloadStatus {
		case models.StatusCompleted:
			return track, nil
		case models.StatusFailed:
			return track, fmt.Errorf("%w: %s", ErrDownloadFailed, spotifyID)
		}
	}
}

// find fetches the library and returns the row for spotifyID, or a
// [shared.ErrTrackNotFound] wrap when it is not listed yet.
func (c *Controller) find(ctx context.Context, spotifyID string) (*models.Track, error) {
	tracks, err := c.catalog.Library(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tracks {
		if tracks[i].SpotifyID == spotifyID {
			return &tracks[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, spotifyID)
}

func sendUpdate(progress chan<- Update, update Update) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
