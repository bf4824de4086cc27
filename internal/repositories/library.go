package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/shared"
)

// LibraryRepository caches the backend's library listing.
//
// Tracks are keyed by Spotify ID; a sync replaces the snapshot wholesale so
// the cache never disagrees with the last listing it saw.
type LibraryRepository struct {
	db *sql.DB
}

// NewLibraryRepository creates a new LibraryRepository with the given database connection
func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// Replace swaps the cached snapshot for the given listing.
func (r *LibraryRepository) Replace(tracks []models.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM library"); err != nil {
		return fmt.Errorf("failed to clear library cache: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO library (spotify_id, remote_id, title, artist, album, duration, file_path, thumbnail_url, download_status, created_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, track := range tracks {
		if track.SpotifyID == "" {
			continue
		}
		_, err := tx.Exec(query,
			track.SpotifyID,
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			track.Duration,
			track.FilePath,
			track.ThumbnailURL,
			string(track.DownloadStatus),
			track.CreatedAt,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.SpotifyID, err)
		}
	}

	return tx.Commit()
}

// GetBySpotifyID retrieves a cached track.
func (r *LibraryRepository) GetBySpotifyID(spotifyID string) (*models.Track, error) {
	query := `
		SELECT spotify_id, remote_id, title, artist, album, duration, file_path, thumbnail_url, download_status, created_at
		FROM library
		WHERE spotify_id = ?
	`

	track, err := scanTrack(r.db.QueryRow(query, spotifyID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, spotifyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return track, nil
}

// List returns the cached snapshot ordered by artist then title.
func (r *LibraryRepository) List() ([]models.Track, error) {
	query := `
		SELECT spotify_id, remote_id, title, artist, album, duration, file_path, thumbnail_url, download_status, created_at
		FROM library
		ORDER BY artist ASC, title ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query library cache: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, *track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanner covers both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		spotifyID    string
		remoteID     int
		title        string
		artist       string
		album        sql.NullString
		duration     int
		filePath     sql.NullString
		thumbnailURL sql.NullString
		status       string
		createdAt    sql.NullTime
	)

	err := row.Scan(&spotifyID, &remoteID, &title, &artist, &album, &duration, &filePath, &thumbnailURL, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	track := &models.Track{
		ID:             remoteID,
		Title:          title,
		Artist:         artist,
		Album:          album.String,
		Duration:       duration,
		SpotifyID:      spotifyID,
		FilePath:       filePath.String,
		ThumbnailURL:   thumbnailURL.String,
		DownloadStatus: models.ParseDownloadStatus(status),
	}
	if createdAt.Valid {
		track.CreatedAt = createdAt.Time
	}

	return track, nil
}
