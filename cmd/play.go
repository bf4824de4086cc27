package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/playback"
	"github.com/mree-music/mree/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play streams one track to the speakers and blocks until it finishes.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	spotifyID := cmd.StringArg("spotify-id")
	if spotifyID == "" {
		return fmt.Errorf("%w: spotify-id", shared.ErrMissingArgument)
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	track, err := r.resolveTrack(ctx, svc, spotifyID)
	if err != nil {
		return err
	}

	if !track.CanPlay() {
		return fmt.Errorf("%w: %s is not downloaded yet, run 'mree download %s'",
			shared.ErrTrackNotFound, spotifyID, spotifyID)
	}

	r.writePlain("♪ %s — %s [%s]\n", track.Artist, track.Title, shared.FormatDuration(track.Duration))

	if err := svc.playback.Play(ctx, *track); err != nil {
		if errors.Is(err, playback.ErrUnauthorized) {
			return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		return err
	}
	defer svc.playback.Stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := svc.playback.Snapshot()
			switch snap.State {
			case playback.StateIdle:
				r.writePlain("\n✓ Done\n")
				return nil
			case playback.StateErrored:
				return snap.Err
			default:
				r.writePlain("\r  %s / %s",
					shared.FormatDuration(int(snap.Position.Seconds())),
					shared.FormatDuration(int(snap.Duration.Seconds())))
			}
		}
	}
}

// resolveTrack finds a library track by Spotify ID, preferring the cached
// snapshot and falling back to a server listing.
func (r *Runner) resolveTrack(ctx context.Context, svc *services, spotifyID string) (*models.Track, error) {
	if track, err := svc.library.GetBySpotifyID(spotifyID); err == nil {
		return track, nil
	}

	tracks, err := svc.catalog.Library(ctx)
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

// Health probes the backend liveness endpoint.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	status, err := svc.api.Health(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("Status:  %s\n", status.Status)
	r.writePlain("Version: %s\n", status.Version)
	r.writePlain("Uptime:  %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	return nil
}
