package api

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/mree-music/mree/internal/shared"
)

// SettingsSource supplies the user's server address override.
// An empty string means no override is stored.
type SettingsSource interface {
	ServerAddress() (string, error)
}

// Resolver owns the backend base address.
//
// The address is resolved lazily on first use and cached; Refresh drops the
// cache so the next call re-reads the settings store (the user can repoint
// the client at a different backend at runtime).
type Resolver struct {
	mu       sync.Mutex
	cached   *url.URL
	fallback string
	settings SettingsSource
}

// NewResolver creates a Resolver with a config-file fallback address and an
// optional settings store that can override it.
func NewResolver(fallback string, settings SettingsSource) *Resolver {
	return &Resolver{fallback: fallback, settings: settings}
}

// Resolve returns the backend base URL, consulting the settings override
// first and the configured fallback second.
func (r *Resolver) Resolve() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return r.cached, nil
	}

	addr := r.fallback
	if r.settings != nil {
		override, err := r.settings.ServerAddress()
		if err != nil {
			return nil, fmt.Errorf("failed to read server address: %w", err)
		}
		if override != "" {
			addr = override
		}
	}

	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("%w: no server address configured", shared.ErrMissingConfig)
	}

	parsed, err := url.Parse(strings.TrimRight(addr, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid server address %q: %v", shared.ErrInvalidConfig, addr, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid server address %q", shared.ErrInvalidConfig, addr)
	}

	r.cached = parsed
	return parsed, nil
}

// Refresh invalidates the cached address; the next Resolve re-reads it.
func (r *Resolver) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}
