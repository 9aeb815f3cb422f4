package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/services"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/tasks"
	"github.com/desertthunder/yunx/internal/weapi"
	"github.com/urfave/cli/v3"
)

// DownloadLog records and lists local copies.
type DownloadLog interface {
	tasks.DownloadRecorder
	List(ctx context.Context, limit int) ([]*models.Download, error)
}

// CacheStats reports document counts per collection.
type CacheStats interface {
	Stats(ctx context.Context) (map[string]int, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The caches are opened on first use, so commands that never touch them
// (config, encode) work without a database or object store.
type Runner struct {
	config     *shared.Config
	api        tasks.MusicAPI
	encoder    services.PayloadEncoder
	fetcher    *tasks.Fetcher
	downloads  DownloadLog
	stats      CacheStats
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	closers    []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Fetcher, Downloads and Stats are normally left nil and opened from Config.
type RunnerOpts struct {
	Config     *shared.Config
	API        tasks.MusicAPI
	Encoder    services.PayloadEncoder
	Fetcher    *tasks.Fetcher
	Downloads  DownloadLog
	Stats      CacheStats
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Encoder == nil {
		opts.Encoder = weapi.NewEncoder()
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		encoder:    opts.Encoder,
		fetcher:    opts.Fetcher,
		downloads:  opts.Downloads,
		stats:      opts.Stats,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, e.g. to keep logs off a TUI's screen.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases every backend opened by the runner.
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songCommand, playlistCommand, lyricCommand, downloadCommand, cacheCommand, encodeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
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
