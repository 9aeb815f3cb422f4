// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/yunx/internal/formatter"
	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles configuration, credentials and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the default template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "cookie",
				Usage: "Save the session cookie from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Cookie file path (default: netease.cookie_path)",
					},
				},
				Action: r.SetupCookie,
			},
			{
				Name:   "database",
				Usage:  "Initialize the SQLite database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// songCommand handles song metadata lookups
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Song metadata operations",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show song metadata, fetching it on a cache miss",
				ArgsUsage: "<id>...",
				Flags:     outputFlags(),
				Action:    r.SongGet,
			},
			{
				Name:      "open",
				Usage:     "Open the song page in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongOpen,
			},
		},
	}
}

// playlistCommand handles playlist lookups and exports
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a playlist with its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, md, json)",
						Value:   formatter.FormatText,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.PlaylistGet,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist as README.md with its cover image",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (default: playlist ID)",
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:      "open",
				Usage:     "Open the playlist page in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PlaylistOpen,
			},
		},
	}
}

// lyricCommand handles lyric lookups
func lyricCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyric",
		Usage: "Lyric operations",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print a song's LRC lyric",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "srt",
						Usage: "Convert to SubRip",
					},
				},
				Action: r.LyricGet,
			},
			{
				Name:      "export",
				Usage:     "Write a song's lyric as an .srt file",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (default: download.directory)",
					},
				},
				Action: r.LyricExport,
			},
		},
	}
}

func downloadFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "quality",
			Aliases: []string{"q"},
			Usage:   "Audio quality (standard, high, lossless, hires)",
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Local copy directory (default: download.directory)",
		},
		&cli.BoolFlag{
			Name:  "no-local",
			Usage: "Keep audio in the blob cache only",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show an interactive progress view",
		},
	}, outputFlags()...)
}

// downloadCommand handles audio downloads and the download log
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download audio through the blob cache",
		Commands: []*cli.Command{
			{
				Name:      "songs",
				Usage:     "Download songs by id",
				ArgsUsage: "<id>...",
				Flags:     downloadFlags(),
				Action:    r.DownloadSongs,
			},
			{
				Name:      "playlist",
				Usage:     "Download every track of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     downloadFlags(),
				Action:    r.DownloadPlaylist,
			},
			{
				Name:  "list",
				Usage: "List recorded local copies",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 50,
					},
				}, outputFlags()...),
				Action: r.DownloadList,
			},
		},
	}
}

// cacheCommand reports on the metadata cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local caches",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show document counts per collection",
				Flags:  outputFlags(),
				Action: r.CacheStats,
			},
		},
	}
}

// encodeCommand prints an encrypted request payload for debugging
func encodeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Encrypt a JSON field map the way API requests are encrypted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "JSON object of request fields",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Fixed 16-character session key (default: random)",
			},
		},
		Action: r.Encode,
	}
}
