package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/tasks"
	"github.com/desertthunder/yunx/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// downloadView is the JSON shape of a [tasks.AudioResult].
type downloadView struct {
	ID     string       `json:"id"`
	Source string       `json:"source"`
	URL    string       `json:"url,omitempty"`
	Path   string       `json:"path,omitempty"`
	Size   int64        `json:"size"`
	Song   *models.Song `json:"song,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func newDownloadView(res tasks.AudioResult) downloadView {
	v := downloadView{ID: res.ID, Source: res.Source.String(), URL: res.URL, Path: res.Path, Size: res.Size, Song: res.Song}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

// DownloadSongs downloads the songs named on the command line.
func (r *Runner) DownloadSongs(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one song id", shared.ErrMissingArgument)
	}
	return r.download(ctx, cmd, func(context.Context, *tasks.Fetcher) ([]string, error) {
		return ids, nil
	})
}

// DownloadPlaylist downloads every available track of a playlist.
func (r *Runner) DownloadPlaylist(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("playlist id", id); err != nil {
		return err
	}

	return r.download(ctx, cmd, func(ctx context.Context, fetcher *tasks.Fetcher) ([]string, error) {
		playlist, err := fetcher.Playlist(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
		}
		r.logger.Info("downloading playlist", "playlist_id", id, "name", playlist.Name, "tracks", len(playlist.TrackIDs))
		return playlist.TrackIDs, nil
	})
}

func (r *Runner) downloadOpts(cmd *cli.Command) tasks.DownloadOpts {
	quality := cmd.String("quality")
	if quality == "" {
		quality = r.config.Netease.Quality
	}

	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Download.Directory
	}
	if cmd.Bool("no-local") {
		dir = ""
	}

	return tasks.DownloadOpts{Quality: models.ParseQuality(quality), Directory: dir}
}

// download resolves the song ids to fetch and runs the download with plain or TUI progress.
func (r *Runner) download(ctx context.Context, cmd *cli.Command, songIDs func(context.Context, *tasks.Fetcher) ([]string, error)) error {
	if cmd.Bool("tui") {
		// Keep log lines off the screen the TUI owns
		restore, err := r.redirectLogs(tuiLogPath)
		if err != nil {
			return err
		}
		defer restore()
	}

	fetcher, err := r.ensureFetcher(ctx)
	if err != nil {
		return err
	}

	ids, err := songIDs(ctx, fetcher)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return r.writePlain("Nothing to download\n")
	}

	opts := r.downloadOpts(cmd)
	run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) ([]tasks.AudioResult, error) {
		return fetcher.Download(ctx, ids, opts, progress)
	}

	r.logger.Info("starting download", "songs", len(ids), "quality", opts.Quality, "dir", opts.Directory)

	var results []tasks.AudioResult
	if cmd.Bool("tui") {
		results, err = r.downloadTUI(ctx, run)
	} else {
		results, err = r.downloadPlain(ctx, run, !cmd.Bool("json"))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lo.Map(results, func(res tasks.AudioResult, _ int) downloadView { return newDownloadView(res) }), cmd.Bool("pretty"))
	}

	ok, failed, size := ui.Summarize(results)
	r.writePlain("\n")
	r.writePlainHeader("Download Complete")
	r.writePlain("Downloaded: %d (%s)\n", ok, humanize.Bytes(uint64(size)))
	if failed > 0 {
		r.writePlain("%s\n", ui.Warning(fmt.Sprintf("Failed: %d", failed)))
		for _, res := range results {
			if res.Err != nil {
				r.writePlain("  - %s: %v\n", res.ID, res.Err)
			}
		}
	}

	if ok == 0 && failed > 0 {
		return fmt.Errorf("no songs downloaded")
	}
	return nil
}

// downloadPlain runs a download, printing progress lines when verbose and logging them otherwise.
func (r *Runner) downloadPlain(ctx context.Context, run ui.RunFunc, verbose bool) ([]tasks.AudioResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if !verbose {
				r.logger.Debug(update.Message, "phase", update.Phase, "run_id", update.RunID)
				continue
			}
			switch update.Phase {
			case tasks.Transfer:
				r.writePlain("   %s\n", update.Message)
			case tasks.Done:
			default:
				r.writePlain("📥 %s\n", update.Message)
			}
		}
	}()

	results, err := run(ctx, progressCh)
	close(progressCh)
	<-done

	return results, err
}

// DownloadList prints the most recent local copies.
func (r *Runner) DownloadList(ctx context.Context, cmd *cli.Command) error {
	log, err := r.downloadLog(ctx)
	if err != nil {
		return err
	}

	downloads, err := log.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(downloads, cmd.Bool("pretty"))
	}

	if len(downloads) == 0 {
		return r.writePlain("No downloads recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("Downloads (%d)", len(downloads)))
	for _, d := range downloads {
		r.writePlain("%-12s %-8s %-9s %8s  %s  %s\n",
			d.SongID, d.Source, d.Quality, humanize.Bytes(uint64(max(d.Size, 0))), humanize.Time(d.DownloadedAt), d.Path)
	}
	return nil
}
