// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spta/internal/matching"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/desertthunder/spta/internal/tasks"
	"github.com/urfave/cli/v3"
)

// globalFlags are accepted before any command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Log level [off|error|warn|info|debug|trace]",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path (default file will be created if it does not exist)",
			Value:   shared.DefaultConfigPath,
		},
	}
}

// importCommand imports playlists from a Spotify data export.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Aliases:   []string{"import-spotify-gdpr-playlists-to-apple-music-api", "spotify-playlist-to-apple", "spta"},
		Usage:     "Import Spotify GDPR data dump (my_spotify_data / MyData) playlists to Apple Music via API",
		ArgsUsage: "<playlist-file>",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "playlist-file",
				UsageText: "Path to MyData/Playlist1.json file from Spotify GDPR export",
			},
		},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "playlists",
				Usage: "Playlist names to include (repeatable; pre-checked in the interactive selector)",
			},
			&cli.BoolFlag{
				Name:  "dry",
				Usage: "Search the catalog without creating or changing playlists",
			},
			&cli.FloatFlag{
				Name:  "min-score",
				Usage: "Minimum compound match score (0-3) a candidate must exceed",
				Value: matching.DefaultMinScore,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Catalog search results considered per track",
				Value: tasks.DefaultSearchLimit,
			},
			&cli.BoolFlag{
				Name:  "append",
				Usage: "Add matched tracks to playlists that already exist instead of skipping them",
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: "Catalog search locale (BCP 47, e.g. en-US)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write outcomes to a .json, .csv or .md file",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Record the run in this SQLite journal (overrides databasePath)",
			},
		},
		Action: r.Import,
	}
}

// searchCommand queries the catalog and shows how candidates score.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the Apple Music catalog and score candidates",
		ArgsUsage: "<term>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "term"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "artist",
				Usage: "Artist name to score candidates against",
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Album name to score candidates against",
			},
			&cli.StringFlag{
				Name:  "track",
				Usage: "Track name to score candidates against (defaults to the term)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of candidates",
				Value: tasks.DefaultSearchLimit,
			},
			&cli.FloatFlag{
				Name:  "min-score",
				Usage: "Minimum compound match score used to mark the selected candidate",
				Value: matching.DefaultMinScore,
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: "Catalog search locale (BCP 47, e.g. en-US)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// libraryCommand lists the user's Apple Music library.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Apple Music library operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List library playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "tracks",
						Usage: "Also fetch every playlist's tracks",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "songs",
				Usage: "List library songs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LibrarySongs,
			},
		},
	}
}

// historyCommand reads the import journal.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded import runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite journal path (overrides databasePath)",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show the playlist outcomes of one run",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only runs with this status [running|completed|failed]",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs",
				Value: 20,
			},
		},
		Action: r.History,
	}
}

// configCommand manages the config file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create a default configuration file",
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with the user token masked",
				Action: r.ConfigShow,
			},
		},
	}
}
