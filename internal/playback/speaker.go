package playback

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/mree-music/mree/internal/api"
)

// The speaker is process-global and keeps the sample rate of the first
// track; later tracks are resampled by the backend to the same rate so in
// practice this never matters.
var (
	speakerOnce sync.Once
	speakerErr  error
)

// speakerSink plays one MP3 stream through the system audio device.
type speakerSink struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

var _ Sink = (*speakerSink)(nil)

// NewSpeakerSinkOpener returns an [OpenSink] that reads the stream body
// through a buffer of bufferKB kilobytes before decoding, smoothing out
// network jitter. Non-positive sizes use the decoder's own buffering.
func NewSpeakerSinkOpener(bufferKB int) OpenSink {
	return func(stream *api.StreamResponse, onDone func()) (Sink, error) {
		body := stream.Body
		if bufferKB > 0 {
			body = &bufferedBody{
				Reader: bufio.NewReaderSize(stream.Body, bufferKB*1024),
				closer: stream.Body,
			}
		}
		return openSpeakerSink(body, onDone)
	}
}

// OpenSpeakerSink decodes the stream body as MP3 and starts playing it with
// the decoder's default buffering. It satisfies [OpenSink].
func OpenSpeakerSink(stream *api.StreamResponse, onDone func()) (Sink, error) {
	return openSpeakerSink(stream.Body, onDone)
}

// bufferedBody pairs a buffered reader with the underlying body's Close.
type bufferedBody struct {
	*bufio.Reader
	closer io.Closer
}

func (b *bufferedBody) Close() error { return b.closer.Close() }

func openSpeakerSink(body io.ReadCloser, onDone func()) (Sink, error) {
	streamer, format, err := mp3.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5))
	})
	if speakerErr != nil {
		streamer.Close()
		return nil, fmt.Errorf("failed to initialize speaker: %w", speakerErr)
	}

	s := &speakerSink{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
	}

	speaker.Play(beep.Seq(s.ctrl, beep.Callback(onDone)))

	return s, nil
}

func (s *speakerSink) SetPaused(paused bool) {
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

func (s *speakerSink) Position() time.Duration {
	speaker.Lock()
	pos := s.format.SampleRate.D(s.streamer.Position())
	speaker.Unlock()
	return pos
}

func (s *speakerSink) Seek(pos time.Duration) error {
	speaker.Lock()
	err := s.streamer.Seek(s.format.SampleRate.N(pos))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

func (s *speakerSink) Close() error {
	speaker.Clear()
	return s.streamer.Close()
}
