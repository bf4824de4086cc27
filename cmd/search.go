package main

import (
	"context"
	"fmt"

	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries both catalogs and prints the two result sets separately.
// Library results are playable now; external results need a download first.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.catalog.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Library (%d)", len(results.Library)))
	if len(results.Library) == 0 {
		r.writePlain("no matches\n")
	}
	for _, track := range results.Library {
		r.printTrack(track)
	}

	r.writePlainHeader(fmt.Sprintf("Spotify (%d of %d)", len(results.External), results.Total))
	if len(results.External) == 0 {
		r.writePlain("no matches\n")
	}
	for _, ext := range results.External {
		r.writePlain("  %s — %s [%s] (%s)\n",
			ext.Artist, ext.Title, shared.FormatDuration(ext.Duration), ext.SpotifyID)
	}

	return nil
}

// Library lists downloaded tracks, from the server or the local snapshot.
func (r *Runner) Library(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	var tracks []models.Track
	if cmd.Bool("cached") {
		tracks, err = svc.catalog.CachedLibrary()
	} else {
		tracks, err = svc.catalog.Library(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlainHeader(fmt.Sprintf("Library (%d tracks)", len(tracks)))
	for _, track := range tracks {
		r.printTrack(track)
	}
	return nil
}

// LibraryPopular lists the most-played tracks.
func (r *Runner) LibraryPopular(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	tracks, err := svc.catalog.Popular(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlainHeader("Popular")
	for i, track := range tracks {
		r.writePlain("%2d. ", i+1)
		r.printTrack(track)
	}
	return nil
}

// LibraryArtist lists downloaded tracks for one artist.
func (r *Runner) LibraryArtist(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.StringArg("name")
	if artist == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	tracks, err := svc.catalog.ByArtist(ctx, artist, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", artist, len(tracks)))
	for _, track := range tracks {
		r.printTrack(track)
	}
	return nil
}

// printTrack writes one library row with a playability marker.
func (r *Runner) printTrack(track models.Track) {
	marker := " "
	switch {
	case track.CanPlay():
		marker = "▶"
	case track.DownloadStatus == models.StatusFailed:
		marker = "✗"
	case !track.DownloadStatus.Terminal():
		marker = "…"
	}
	r.writePlain("%s %s — %s [%s] (%s)\n",
		marker, track.Artist, track.Title, shared.FormatDuration(track.Duration), track.SpotifyID)
}
