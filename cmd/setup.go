package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mree-music/mree/internal/repositories"
	"github.com/mree-music/mree/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the config file, database and schema.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.config = config
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// ServerSet stores a backend address override.
func (r *Runner) ServerSet(ctx context.Context, cmd *cli.Command) error {
	addr := strings.TrimSpace(cmd.StringArg("address"))
	if addr == "" {
		return fmt.Errorf("%w: address", shared.ErrMissingArgument)
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.settings.SetServerAddress(addr); err != nil {
		return err
	}

	r.writePlain("Server address set to %s\n", addr)
	return nil
}

// ServerShow prints the effective backend address.
func (r *Runner) ServerShow(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	override, err := svc.settings.ServerAddress()
	if err != nil {
		return err
	}

	if override != "" {
		r.writePlain("%s (override)\n", override)
	} else {
		r.writePlain("%s (config)\n", r.config.Server.BaseURL)
	}
	return nil
}

// ServerClear removes the address override.
func (r *Runner) ServerClear(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.settings.Delete(repositories.SettingServerAddress); err != nil {
		return err
	}

	r.writePlain("Server override cleared, using %s\n", r.config.Server.BaseURL)
	return nil
}
