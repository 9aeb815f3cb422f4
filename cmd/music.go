package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/yunx/internal/formatter"
	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/ui"
	"github.com/urfave/cli/v3"
)

func requireArg(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return nil
}

// SongGet prints metadata for one or more songs.
//
// A single id goes through the song path; several ids share one batched lookup.
func (r *Runner) SongGet(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one song id", shared.ErrMissingArgument)
	}

	fetcher, err := r.ensureFetcher(ctx)
	if err != nil {
		return err
	}

	var songs []models.Song
	if len(ids) == 1 {
		song, err := fetcher.Song(ctx, ids[0])
		if err != nil {
			return fmt.Errorf("failed to get song %s: %w", ids[0], err)
		}
		songs = []models.Song{*song}
	} else if songs, err = fetcher.Songs(ctx, ids); err != nil {
		return fmt.Errorf("failed to get songs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	for _, s := range songs {
		r.writePlain("%s  %s\n", s.ID, s.DisplayName())
		if s.Album.Name != "" {
			r.writePlain("    Album: %s\n", s.Album.Name)
		}
		r.writePlain("    Duration: %s\n", shared.FormatDuration(s.Duration))
	}
	if missing := len(ids) - len(songs); missing > 0 {
		r.writePlainln("%s", ui.Warning(fmt.Sprintf("%d songs unavailable", missing)))
	}
	return nil
}

// SongOpen opens a song's web page.
func (r *Runner) SongOpen(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("song id", id); err != nil {
		return err
	}
	return shared.OpenBrowser(shared.SongPageURL(id))
}

// PlaylistGet renders a playlist in the requested format.
func (r *Runner) PlaylistGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("playlist id", id); err != nil {
		return err
	}

	fetcher, err := r.ensureFetcher(ctx)
	if err != nil {
		return err
	}

	playlist, err := fetcher.Playlist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get playlist %s: %w", id, err)
	}

	data, err := formatter.Export(playlist, cmd.String("format"))
	if err != nil {
		return err
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		r.logger.Info("playlist written", "playlist_id", id, "path", outputFile)
		return nil
	}

	_, err = r.output.Write(data)
	return err
}

// PlaylistExport writes a Markdown export with the cover image into a directory.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("playlist id", id); err != nil {
		return err
	}

	fetcher, err := r.ensureFetcher(ctx)
	if err != nil {
		return err
	}

	playlist, err := fetcher.Playlist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get playlist %s: %w", id, err)
	}

	result, err := formatter.WriteMarkdownExport(r.httpClient, playlist, cmd.String("dir"))
	if err != nil {
		return err
	}
	if result.Warning != nil {
		r.logger.Warn("cover image skipped", "playlist_id", id, "err", result.Warning)
	}

	r.writePlain("✓ Exported %s (%d tracks)\n", playlist.Name, len(playlist.Tracks))
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// PlaylistOpen opens a playlist's web page.
func (r *Runner) PlaylistOpen(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("playlist id", id); err != nil {
		return err
	}
	return shared.OpenBrowser(shared.PlaylistPageURL(id))
}

// LyricGet prints a song's lyric as LRC, or as SubRip with --srt.
func (r *Runner) LyricGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("song id", id); err != nil {
		return err
	}

	fetcher, err := r.ensureFetcher(ctx)
	if err != nil {
		return err
	}

	lyric, err := fetcher.Lyric(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get lyric for %s: %w", id, err)
	}
	if lyric == "" {
		r.logger.Info("song has no lyric", "song_id", id)
		return nil
	}

	if cmd.Bool("srt") {
		lyric = formatter.LyricToSRT(lyric)
	}
	return r.writePlain("%s\n", lyric)
}

// LyricExport writes .srt files for each song id. A failure for one song does
// not stop the others.
func (r *Runner) LyricExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one song id", shared.ErrMissingArgument)
	}

	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Download.Directory
	}

	fetcher, err := r.ensureFetcher(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, id := range ids {
		path, err := fetcher.ExportLyric(ctx, id, dir)
		if err != nil {
			failed++
			r.logger.Error("lyric export failed", "song_id", id, "err", err)
			r.writePlain("%s\n", ui.Failure(fmt.Sprintf("✗ %s: %v", id, err)))
			continue
		}
		r.writePlain("%s\n", ui.Success("✓ "+path))
	}

	if failed == len(ids) {
		return fmt.Errorf("no lyrics exported")
	}
	return nil
}
