package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/shared"
)

var _ api.TokenStore = (*SessionRepository)(nil)

// SessionRepository persists the bearer credential.
//
// At most one credential is held at a time: saving a new one replaces any
// existing row. Clearing is how the transport reacts to a 401.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Token returns the stored credential, or nil when none is held.
func (r *SessionRepository) Token() (*oauth2.Token, error) {
	query := `
		SELECT access_token, token_type, expires_at
		FROM sessions
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		accessToken string
		tokenType   string
		expiresAt   sql.NullTime
	)

	err := r.db.QueryRow(query).Scan(&accessToken, &tokenType, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	token := &oauth2.Token{AccessToken: accessToken, TokenType: tokenType}
	if expiresAt.Valid {
		token.Expiry = expiresAt.Time
	}

	return token, nil
}

// Save stores a new credential, silently discarding any previous one.
func (r *SessionRepository) Save(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty credential", shared.ErrInvalidInput)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to discard old session: %w", err)
	}

	var expiresAt any
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	_, err = tx.Exec(
		"INSERT INTO sessions (id, access_token, token_type, expires_at, created_at) VALUES (?, ?, ?, ?, ?)",
		shared.GenerateID(),
		token.AccessToken,
		token.Type(),
		expiresAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return tx.Commit()
}

// Clear removes any stored credential. Clearing an empty slot is not an error.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
