package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mree-music/mree/internal/api"
	"github.com/urfave/cli/v3"
)

// AuthLogin authenticates and stores the bearer credential locally.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")

	if password == "" {
		r.writePlain("Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	token, err := svc.api.Login(ctx, username, password)
	if err != nil {
		return err
	}

	r.logger.Info("logged in", "username", username)
	r.writePlain("✓ Logged in as %s (token valid for %ds)\n", username, token.ExpiresIn)
	return nil
}

// AuthRegister creates an account. The user still needs to log in afterwards.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	user, err := svc.api.Register(ctx, api.RegisterParams{
		Username:    cmd.String("username"),
		Email:       cmd.String("email"),
		Password:    cmd.String("password"),
		DisplayName: cmd.String("display-name"),
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Account created: %s <%s>\n", user.Username, user.Email)
	r.writePlain("Run 'mree auth login -u %s' to log in\n", user.Username)
	return nil
}

// AuthWhoami validates the stored credential against the backend.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	user, err := svc.api.Me(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			r.writePlain("Not logged in\n")
			return nil
		}
		return err
	}

	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	r.writePlain("%s <%s>\n", name, user.Email)
	return nil
}

// AuthLogout discards the stored credential. Purely local; the backend keeps
// no session state.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.connect()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.sessions.Clear(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}
