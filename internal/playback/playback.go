// package playback manages the single active listening session: starting a
// stream for a track, pausing and resuming it, seeking, and tearing it down
// when another track takes over.
//
// At most one track is active at a time. Starting a new track supersedes any
// in-flight stream request; a superseded response is closed and dropped so a
// slow server can never resurrect an abandoned session.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/shared"
)

var (
	// ErrMissingIdentifier rejects playback of a track with no Spotify ID.
	ErrMissingIdentifier = fmt.Errorf("track has no stream identifier")
	// ErrUnauthorized means the stream endpoint rejected the credential.
	ErrUnauthorized = fmt.Errorf("stream request unauthorized")
	// ErrStreamUnavailable covers tracks the server cannot serve right now.
	ErrStreamUnavailable = fmt.Errorf("stream unavailable")
	// ErrNetworkFailure means no response was obtained from the server at all.
	ErrNetworkFailure = fmt.Errorf("stream network failure")
)

// State is the playback session lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateErrored State = "errored"
)

// Snapshot is a point-in-time copy of the session for display code.
type Snapshot struct {
	Track    *models.Track
	State    State
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Loading reports whether a stream request is in flight.
func (s Snapshot) Loading() bool { return s.State == StateLoading }

// Playing reports whether audio is actively advancing.
func (s Snapshot) Playing() bool { return s.State == StatePlaying }

// Streamer is the transport surface the manager needs.
// Implemented by [api.Client].
type Streamer interface {
	Stream(ctx context.Context, spotifyID string) (*api.StreamResponse, error)
	MarkPlayed(ctx context.Context, spotifyID string) error
}

// Sink consumes one decoded audio stream. Implementations must tolerate
// Close being called at any point, including before playback starts.
type Sink interface {
	SetPaused(paused bool)
	Position() time.Duration
	Seek(pos time.Duration) error
	Close() error
}

// OpenSink decodes and starts playing one stream body. The sink owns the
// body and closes it. onDone fires once when the stream plays out on its
// own (not on Close).
type OpenSink func(stream *api.StreamResponse, onDone func()) (Sink, error)

// Manager owns the active playback session.
type Manager struct {
	mu     sync.Mutex
	api    Streamer
	open   OpenSink
	logger *log.Logger

	// gen identifies the current session. Responses arriving for an older
	// generation are closed and dropped.
	gen   uint64
	state State
	track *models.Track
	sink  Sink
	err   error
}

// NewManager creates an idle Manager. open may be nil only in tests that
// never reach a successful stream.
func NewManager(apiClient Streamer, open OpenSink, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{api: apiClient, open: open, logger: logger, state: StateIdle}
}

// Play starts streaming the given track, superseding any current session.
// A track without a Spotify ID is rejected before any network traffic.
func (m *Manager) Play(ctx context.Context, track models.Track) error {
	if track.SpotifyID == "" {
		return fmt.Errorf("%w: %s", ErrMissingIdentifier, track.Title)
	}

	m.mu.Lock()
	m.teardownLocked()
	m.gen++
	gen := m.gen
	t := track
	m.track = &t
	m.state = StateLoading
	m.err = nil
	m.mu.Unlock()

	stream, err := m.api.Stream(ctx, track.SpotifyID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		// Superseded while the request was in flight.
		if stream != nil {
			stream.Body.Close()
		}
		m.logger.Debug("dropping superseded stream", "spotify_id", track.SpotifyID)
		return nil
	}

	if err != nil {
		m.err = classifyStreamError(err)
		m.state = StateErrored
		return m.err
	}

	sink, err := m.open(stream, m.doneFunc(gen))
	if err != nil {
		stream.Body.Close()
		m.err = fmt.Errorf("%w: %v", ErrStreamUnavailable, err)
		m.state = StateErrored
		return m.err
	}

	m.sink = sink
	m.state = StatePlaying

	go m.markPlayed(track.SpotifyID)

	return nil
}

// Pause suspends audio output. A no-op unless something is playing.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePlaying || m.sink == nil {
		return
	}
	m.sink.SetPaused(true)
	m.state = StatePaused
}

// Resume continues a paused session. A no-op unless paused.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused || m.sink == nil {
		return
	}
	m.sink.SetPaused(false)
	m.state = StatePlaying
}

// TogglePause flips between playing and paused. A no-op in other states.
func (m *Manager) TogglePause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return
	}
	switch m.state {
	case StatePlaying:
		m.sink.SetPaused(true)
		m.state = StatePaused
	case StatePaused:
		m.sink.SetPaused(false)
		m.state = StatePlaying
	}
}

// Seek moves the playhead. Positions are clamped to the track bounds; when
// the track's duration is unknown there are no bounds to clamp to and the
// call is a no-op.
func (m *Manager) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil || m.track == nil {
		return nil
	}
	max := time.Duration(m.track.Duration) * time.Second
	if max <= 0 {
		return nil
	}
	if pos < 0 {
		pos = 0
	}
	if pos > max {
		pos = max
	}
	return m.sink.Seek(pos)
}

// Stop tears the session down and returns to idle.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	m.gen++
	m.track = nil
	m.state = StateIdle
	m.err = nil
}

// Snapshot returns the current session state for rendering.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{State: m.state, Err: m.err}
	if m.track != nil {
		t := *m.track
		snap.Track = &t
		snap.Duration = time.Duration(t.Duration) * time.Second
	}
	if m.sink != nil {
		snap.Position = m.sink.Position()
	}
	return snap
}

// teardownLocked closes the active sink. Callers hold m.mu.
func (m *Manager) teardownLocked() {
	if m.sink == nil {
		return
	}
	if err := m.sink.Close(); err != nil {
		m.logger.Debug("sink close", "err", err)
	}
	m.sink = nil
}

// doneFunc returns the natural-completion callback for generation gen.
func (m *Manager) doneFunc(gen uint64) func() {
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.gen {
			return
		}
		m.teardownLocked()
		m.state = StateIdle
	}
}

// markPlayed records the play on the server. Failures only affect
// recommendation quality, so they are logged and swallowed.
func (m *Manager) markPlayed(spotifyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.api.MarkPlayed(ctx, spotifyID); err != nil {
		m.logger.Debug("mark-played failed", "spotify_id", spotifyID, "err", err)
	}
}

// classifyStreamError maps transport failures onto the playback error set.
func classifyStreamError(err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if errors.Is(err, shared.ErrNetwork) {
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.NotFound() {
			return fmt.Errorf("%w: track not available: %v", ErrStreamUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrStreamUnavailable, err)
	}
	return err
}
