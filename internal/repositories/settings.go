package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mree-music/mree/internal/api"
)

// Setting keys.
const (
	SettingServerAddress = "server_address"
)

var _ api.SettingsSource = (*SettingsRepository)(nil)

// SettingsRepository is a key-value store for client settings.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value for key, or "" when unset.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a setting value.
func (r *SettingsRepository) Set(key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting. Deleting an unset key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// ServerAddress returns the stored backend address override, or "" when the
// configured default should be used.
func (r *SettingsRepository) ServerAddress() (string, error) {
	return r.Get(SettingServerAddress)
}

// SetServerAddress stores the backend address override. Callers should
// Refresh the transport's resolver afterwards.
func (r *SettingsRepository) SetServerAddress(addr string) error {
	return r.Set(SettingServerAddress, addr)
}
