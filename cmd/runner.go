package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/catalog"
	"github.com/mree-music/mree/internal/download"
	"github.com/mree-music/mree/internal/playback"
	"github.com/mree-music/mree/internal/repositories"
	"github.com/mree-music/mree/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	openSink   playback.OpenSink
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	OpenSink   playback.OpenSink
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenSink == nil {
		opts.OpenSink = playback.NewSpeakerSinkOpener(opts.Config.Playback.BufferKB)
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		openSink:   opts.OpenSink,
	}
}

// services bundles the per-invocation dependency graph. Commands open it,
// use what they need, and close it before returning.
type services struct {
	db        *sql.DB
	api       *api.Client
	catalog   *catalog.Client
	downloads *download.Controller
	playback  *playback.Manager
	sessions  *repositories.SessionRepository
	settings  *repositories.SettingsRepository
	library   *repositories.LibraryRepository
}

func (s *services) Close() error {
	return s.db.Close()
}

// connect opens the local database and wires the client stack on top of it.
func (r *Runner) connect() (*services, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	sessions := repositories.NewSessionRepository(db)
	settings := repositories.NewSettingsRepository(db)
	library := repositories.NewLibraryRepository(db)

	httpClient := r.httpClient
	if httpClient == nil {
		httpClient = api.NewHTTPClient(time.Duration(r.config.Server.TimeoutSeconds) * time.Second)
	}

	resolver := api.NewResolver(r.config.Server.BaseURL, settings)
	apiClient := api.NewClient(resolver, sessions, httpClient, r.logger)

	cat := catalog.NewClient(apiClient, library, r.logger)

	return &services{
		db:        db,
		api:       apiClient,
		catalog:   cat,
		downloads: download.NewController(apiClient, cat, r.logger, nil),
		playback:  playback.NewManager(apiClient, r.openSink, r.logger),
		sessions:  sessions,
		settings:  settings,
		library:   library,
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
