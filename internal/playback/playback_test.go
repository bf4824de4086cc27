package playback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/shared"
	tu "github.com/mree-music/mree/internal/testing"
)

// fakeSink records control calls without touching audio hardware.
type fakeSink struct {
	mu     sync.Mutex
	paused bool
	pos    time.Duration
	seeks  []time.Duration
	closed bool
}

func (s *fakeSink) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *fakeSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *fakeSink) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeks = append(s.seeks, pos)
	s.pos = pos
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeStreamer scripts the transport. When gateFirst is set the first Stream
// call blocks until the gate is released.
type fakeStreamer struct {
	mu        sync.Mutex
	calls     int
	err       error
	gateFirst chan struct{}
	bodies    []*tu.RecordingCloser
	marked    chan string
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{marked: make(chan string, 8)}
}

func (f *fakeStreamer) Stream(ctx context.Context, spotifyID string) (*api.StreamResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	gate := f.gateFirst
	f.mu.Unlock()

	if call == 1 && gate != nil {
		<-gate
	}

	if f.err != nil {
		return nil, f.err
	}

	body := &tu.RecordingCloser{Reader: strings.NewReader("mp3-bytes-" + spotifyID)}
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	return &api.StreamResponse{Body: body, Partial: true, ContentType: "audio/mpeg"}, nil
}

func (f *fakeStreamer) MarkPlayed(ctx context.Context, spotifyID string) error {
	f.marked <- spotifyID
	return nil
}

func (f *fakeStreamer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// openFake builds an OpenSink that hands back the given sink and captures
// the completion callback.
func openFake(sink *fakeSink, onDone *func()) OpenSink {
	return func(stream *api.StreamResponse, done func()) (Sink, error) {
		if onDone != nil {
			*onDone = done
		}
		return sink, nil
	}
}

func playableTrack(id string) models.Track {
	return models.Track{
		Title: "Song", Artist: "Artist", Duration: 100,
		SpotifyID: id, FilePath: "/music/song.mp3",
		DownloadStatus: models.StatusCompleted,
	}
}

func TestPlay(t *testing.T) {
	t.Run("Rejects Track Without Identifier", func(t *testing.T) {
		streamer := newFakeStreamer()
		m := NewManager(streamer, openFake(&fakeSink{}, nil), nil)

		track := playableTrack("")
		err := m.Play(context.Background(), track)
		if !errors.Is(err, ErrMissingIdentifier) {
			t.Fatalf("expected ErrMissingIdentifier, got %v", err)
		}
		if streamer.callCount() != 0 {
			t.Errorf("expected zero stream requests, got %d", streamer.callCount())
		}
		if m.Snapshot().State == StatePlaying {
			t.Error("session must not start for an unidentified track")
		}
	})

	t.Run("Starts Session And Marks Played", func(t *testing.T) {
		streamer := newFakeStreamer()
		sink := &fakeSink{}
		m := NewManager(streamer, openFake(sink, nil), nil)

		if err := m.Play(context.Background(), playableTrack("track00000000000000001")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		snap := m.Snapshot()
		if !snap.Playing() {
			t.Errorf("expected playing state, got %q", snap.State)
		}
		if snap.Duration != 100*time.Second {
			t.Errorf("expected duration from track metadata, got %v", snap.Duration)
		}

		select {
		case id := <-streamer.marked:
			if id != "track00000000000000001" {
				t.Errorf("marked wrong track: %s", id)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("play was never recorded")
		}
	})

	t.Run("Superseded Response Is Closed And Dropped", func(t *testing.T) {
		streamer := newFakeStreamer()
		gate := make(chan struct{})
		streamer.gateFirst = gate

		var opened int
		var mu sync.Mutex
		open := func(stream *api.StreamResponse, done func()) (Sink, error) {
			mu.Lock()
			defer mu.Unlock()
			opened++
			return &fakeSink{}, nil
		}

		m := NewManager(streamer, open, nil)

		firstDone := make(chan error, 1)
		go func() {
			firstDone <- m.Play(context.Background(), playableTrack("trackAAAAAAAAAAAAAAAAA"))
		}()

		// Wait for the first request to be in flight.
		deadline := time.After(5 * time.Second)
		for streamer.callCount() == 0 {
			select {
			case <-deadline:
				t.Fatal("first stream request never started")
			default:
				time.Sleep(time.Millisecond)
			}
		}

		if err := m.Play(context.Background(), playableTrack("trackBBBBBBBBBBBBBBBBB")); err != nil {
			t.Fatalf("second play failed: %v", err)
		}

		close(gate)
		if err := <-firstDone; err != nil {
			t.Fatalf("superseded play should return nil, got %v", err)
		}

		snap := m.Snapshot()
		if snap.Track == nil || snap.Track.SpotifyID != "trackBBBBBBBBBBBBBBBBB" {
			t.Errorf("expected second track active, got %+v", snap.Track)
		}

		// Bodies are recorded in arrival order; the gated first request
		// lands second and must be closed, never handed to a sink.
		streamer.mu.Lock()
		bodies := len(streamer.bodies)
		lateClosed := bodies == 2 && streamer.bodies[1].Closed
		streamer.mu.Unlock()
		if bodies != 2 {
			t.Fatalf("expected 2 stream responses, got %d", bodies)
		}
		if !lateClosed {
			t.Error("superseded stream body should be closed")
		}

		mu.Lock()
		sinksOpened := opened
		mu.Unlock()
		if sinksOpened != 1 {
			t.Errorf("only the winning session should open a sink, got %d", sinksOpened)
		}
	})

	t.Run("Unauthorized Stream", func(t *testing.T) {
		streamer := newFakeStreamer()
		streamer.err = newBackendError(http.StatusUnauthorized, "Could not validate credentials")
		m := NewManager(streamer, openFake(&fakeSink{}, nil), nil)

		err := m.Play(context.Background(), playableTrack("track00000000000000001"))
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if m.Snapshot().State != StateErrored {
			t.Errorf("expected errored state, got %q", m.Snapshot().State)
		}
	})

	t.Run("Network Failure Keeps Its Class", func(t *testing.T) {
		streamer := newFakeStreamer()
		streamer.err = fmt.Errorf("%w: connection refused", shared.ErrNetwork)
		m := NewManager(streamer, openFake(&fakeSink{}, nil), nil)

		err := m.Play(context.Background(), playableTrack("track00000000000000001"))
		if !errors.Is(err, ErrNetworkFailure) {
			t.Fatalf("expected ErrNetworkFailure, got %v", err)
		}
		if !errors.Is(err, shared.ErrNetwork) {
			t.Error("transport cause should stay in the error chain")
		}
		if errors.Is(err, ErrStreamUnavailable) {
			t.Error("a network failure is not a backend refusal")
		}
	})

	t.Run("Backend Refusal Maps To Unavailable", func(t *testing.T) {
		streamer := newFakeStreamer()
		streamer.err = newBackendError(http.StatusNotFound, "Song not found")
		m := NewManager(streamer, openFake(&fakeSink{}, nil), nil)

		err := m.Play(context.Background(), playableTrack("track00000000000000001"))
		if !errors.Is(err, ErrStreamUnavailable) {
			t.Fatalf("expected ErrStreamUnavailable, got %v", err)
		}
		if errors.Is(err, ErrNetworkFailure) {
			t.Error("a backend refusal is not a network failure")
		}
	})
}

func TestPauseResume(t *testing.T) {
	t.Run("No-Ops Without A Session", func(t *testing.T) {
		m := NewManager(newFakeStreamer(), nil, nil)
		m.Pause()
		m.Resume()
		m.TogglePause()
		if m.Snapshot().State != StateIdle {
			t.Errorf("expected idle, got %q", m.Snapshot().State)
		}
	})

	t.Run("Pause And Resume", func(t *testing.T) {
		streamer := newFakeStreamer()
		sink := &fakeSink{}
		m := NewManager(streamer, openFake(sink, nil), nil)
		m.Play(context.Background(), playableTrack("track00000000000000001"))

		m.Pause()
		if m.Snapshot().State != StatePaused || !sink.paused {
			t.Error("pause should suspend the sink")
		}

		// Pausing twice stays paused.
		m.Pause()
		if m.Snapshot().State != StatePaused {
			t.Error("double pause should be a no-op")
		}

		m.Resume()
		if m.Snapshot().State != StatePlaying || sink.paused {
			t.Error("resume should continue the sink")
		}

		m.TogglePause()
		if m.Snapshot().State != StatePaused {
			t.Error("toggle from playing should pause")
		}
		m.TogglePause()
		if m.Snapshot().State != StatePlaying {
			t.Error("toggle from paused should play")
		}
	})
}

func TestSeek(t *testing.T) {
	t.Run("Clamps To Track Bounds", func(t *testing.T) {
		streamer := newFakeStreamer()
		sink := &fakeSink{}
		m := NewManager(streamer, openFake(sink, nil), nil)
		m.Play(context.Background(), playableTrack("track00000000000000001"))

		m.Seek(-10 * time.Second)
		m.Seek(42 * time.Second)
		m.Seek(9999 * time.Second)

		want := []time.Duration{0, 42 * time.Second, 100 * time.Second}
		sink.mu.Lock()
		defer sink.mu.Unlock()
		if len(sink.seeks) != len(want) {
			t.Fatalf("expected %d seeks, got %d", len(want), len(sink.seeks))
		}
		for i, pos := range want {
			if sink.seeks[i] != pos {
				t.Errorf("seek %d: expected %v, got %v", i, pos, sink.seeks[i])
			}
		}
	})

	t.Run("Unknown Duration Is A No-Op", func(t *testing.T) {
		streamer := newFakeStreamer()
		sink := &fakeSink{}
		m := NewManager(streamer, openFake(sink, nil), nil)
		track := playableTrack("track00000000000000001")
		track.Duration = 0
		m.Play(context.Background(), track)

		if err := m.Seek(500 * time.Second); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		sink.mu.Lock()
		defer sink.mu.Unlock()
		if len(sink.seeks) != 0 {
			t.Errorf("seek without a known duration should not reach the sink, got %v", sink.seeks)
		}
	})
}

func TestStop(t *testing.T) {
	streamer := newFakeStreamer()
	sink := &fakeSink{}
	m := NewManager(streamer, openFake(sink, nil), nil)
	m.Play(context.Background(), playableTrack("track00000000000000001"))

	m.Stop()

	snap := m.Snapshot()
	if snap.State != StateIdle || snap.Track != nil {
		t.Errorf("expected idle empty session, got %+v", snap)
	}
	if !sink.closed {
		t.Error("stop should close the sink")
	}
}

func TestNaturalCompletion(t *testing.T) {
	streamer := newFakeStreamer()
	sink := &fakeSink{}
	var onDone func()
	m := NewManager(streamer, openFake(sink, &onDone), nil)
	m.Play(context.Background(), playableTrack("track00000000000000001"))

	if onDone == nil {
		t.Fatal("completion callback was not wired")
	}
	onDone()

	if m.Snapshot().State != StateIdle {
		t.Errorf("expected idle after natural completion, got %q", m.Snapshot().State)
	}
	if !sink.closed {
		t.Error("completed sink should be closed")
	}

	// A completion callback from a superseded session must not disturb the
	// current one.
	m.Play(context.Background(), playableTrack("track00000000000000002"))
	staleDone := onDone
	m.Play(context.Background(), playableTrack("track00000000000000003"))
	staleDone()
	if m.Snapshot().State != StatePlaying {
		t.Errorf("stale completion should be ignored, got %q", m.Snapshot().State)
	}
}

func TestBufferedBody(t *testing.T) {
	underlying := &tu.RecordingCloser{Reader: strings.NewReader("mp3-bytes")}
	body := &bufferedBody{
		Reader: bufio.NewReaderSize(underlying, 4*1024),
		closer: underlying,
	}

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("unexpected content: %q", data)
	}

	if err := body.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !underlying.Closed {
		t.Error("closing the buffer should close the stream body")
	}
}

// newBackendError builds the transport's error type for a status.
func newBackendError(status int, detail string) error {
	return &api.Error{Status: status, Detail: detail}
}
