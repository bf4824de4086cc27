package main

import (
	"context"
	"fmt"

	"github.com/mree-music/mree/internal/download"
	"github.com/mree-music/mree/internal/shared"
	"github.com/urfave/cli/v3"
)

// Download asks the server to acquire a track. With --wait it follows the
// job until the library reports a terminal state.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	spotifyID := cmd.StringArg("spotify-id")
	if spotifyID == "" {
		return fmt.Errorf("%w: spotify-id", shared.ErrMissingArgument)
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.downloads.Request(ctx, spotifyID)
	if err != nil {
		return err
	}

	switch result.Status {
	case download.StatusAlreadyCompleted:
		r.writePlain("✓ %s\n", result.Message)
		return nil
	case download.StatusDownloading:
		r.writePlain("Download already in progress\n")
	case download.StatusQueued:
		r.writePlain("Queued (task %s)\n", result.TaskID)
	}

	if !cmd.Bool("wait") {
		r.writePlain("Run 'mree library' to check progress\n")
		return nil
	}

	progress := make(chan download.Update, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("  %s: %s\n", update.SpotifyID, update.Status)
		}
	}()

	track, err := svc.downloads.Await(ctx, spotifyID, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Downloaded %s — %s\n", track.Artist, track.Title)
	return nil
}

// MarkPlayed records a play without streaming.
func (r *Runner) MarkPlayed(ctx context.Context, cmd *cli.Command) error {
	spotifyID := cmd.StringArg("spotify-id")
	if spotifyID == "" {
		return fmt.Errorf("%w: spotify-id", shared.ErrMissingArgument)
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.api.MarkPlayed(ctx, spotifyID); err != nil {
		return err
	}

	r.writePlain("✓ Marked %s as played\n", spotifyID)
	return nil
}
