package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/mree-music/mree/internal/shared"
)

// StreamResponse is an open audio stream. The caller owns Body and must
// close it.
type StreamResponse struct {
	Body          io.ReadCloser
	Partial       bool // server honored the range request (206)
	ContentType   string
	ContentLength int64
}

// Stream opens the audio stream for a track. The request asks for a range
// from byte zero so the backend can serve partial content; a full 200
// response is accepted too and simply buffers from the start.
//
// The body is NOT read here: playback consumes it incrementally.
func (c *Client) Stream(ctx context.Context, spotifyID string) (*StreamResponse, error) {
	if spotifyID == "" {
		return nil, fmt.Errorf("%w: spotify id is required", shared.ErrInvalidInput)
	}

	base, err := c.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/stream/play/%s", base, spotifyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Range", "bytes=0-")
	req.Header.Set("Accept-Encoding", "identity")
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if err := c.checkStatus(resp.StatusCode, body); err != nil {
			return nil, err
		}
	}

	return &StreamResponse{
		Body:          resp.Body,
		Partial:       resp.StatusCode == http.StatusPartialContent,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// MarkPlayed notifies the backend that a track was played. Callers treat
// this as fire-and-forget; failures never affect playback.
func (c *Client) MarkPlayed(ctx context.Context, spotifyID string) error {
	if spotifyID == "" {
		return fmt.Errorf("%w: spotify id is required", shared.ErrInvalidInput)
	}

	_, err := c.Do(ctx, http.MethodPost, "/stream/mark-played/"+spotifyID, nil, nil)
	return err
}
