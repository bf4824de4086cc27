// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serverCommand, authCommand, searchCommand, libraryCommand,
		downloadCommand, playCommand, tuiCommand, healthCommand, markPlayedCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setupCommand initializes the local database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize local database and configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// serverCommand manages the backend address override.
func serverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Manage the backend server address",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store a backend address override",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "address"},
				},
				Action: r.ServerSet,
			},
			{
				Name:   "show",
				Usage:  "Show the effective backend address",
				Action: r.ServerShow,
			},
			{
				Name:   "clear",
				Usage:  "Remove the override and fall back to the config file",
				Action: r.ServerClear,
			},
		},
	}
}

// authCommand handles account and credential operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and store the session credential",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
					&cli.StringFlag{Name: "display-name", Usage: "Optional display name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "whoami",
				Usage:  "Show the authenticated user",
				Action: r.AuthWhoami,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored credential",
				Action: r.AuthLogout,
			},
		},
	}
}

// searchCommand searches both catalogs for a query.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the library and the external catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum results per catalog",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// libraryCommand lists downloaded tracks.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib", "ls"},
		Usage:   "List your library",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Use the local snapshot without contacting the server",
			},
		},
		Action: r.Library,
		Commands: []*cli.Command{
			{
				Name:  "popular",
				Usage: "List the most-played tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.LibraryPopular,
			},
			{
				Name:  "artist",
				Usage: "List downloaded tracks by artist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 50},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.LibraryArtist,
			},
		},
	}
}

// downloadCommand requests track acquisition.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl", "get"},
		Usage:   "Ask the server to download a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "spotify-id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Wait until the download completes or fails",
			},
		},
		Action: r.Download,
	}
}

// playCommand streams a track to the speakers.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Stream a track from your library",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "spotify-id"},
		},
		Action: r.Play,
	}
}

// tuiCommand launches the interactive player.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive library browser and player",
		Action:  r.TUI,
	}
}

// healthCommand probes the backend.
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check backend availability",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Health,
	}
}

// markPlayedCommand records a play without streaming. Useful for testing
// recommendation behavior, not part of the normal workflow.
func markPlayedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "mark-played",
		Usage:  "Record a play for a track",
		Hidden: true,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "spotify-id"},
		},
		Action: r.MarkPlayed,
	}
}
