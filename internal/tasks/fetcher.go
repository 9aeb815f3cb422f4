package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yunx/internal/formatter"
	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/services"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPresignTTL  = time.Hour
	defaultConcurrency = 4
)

// MusicAPI is the remote service the fetcher falls back to on a cache miss.
//
// Implemented by [services.NeteaseService].
type MusicAPI interface {
	FetchPlaylist(ctx context.Context, id string) (*services.PlaylistDetail, error)
	FetchSongs(ctx context.Context, ids []string) ([]services.NeteaseSong, error)
	FetchLyric(ctx context.Context, id string) (string, error)
	ResolvePlaybackURLs(ctx context.Context, ids []string, q models.Quality) ([]models.PlaybackURL, error)
	Open(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// DownloadRecorder keeps a log of local copies.
type DownloadRecorder interface {
	Record(ctx context.Context, d *models.Download) error
}

// AudioResult is the outcome of audio resolution for one song id.
type AudioResult struct {
	ID     string
	Source models.Source // tier that supplied the audio
	URL    string        // presigned blob URL on a hit, remote playback URL otherwise
	Path   string        // local copy, when a directory was requested
	Size   int64
	Song   *models.Song // best-effort annotation; nil when metadata was unavailable
	Err    error
}

// OK reports whether the audio was resolved.
func (r AudioResult) OK() bool { return r.Err == nil }

// DownloadOpts controls audio resolution.
type DownloadOpts struct {
	Quality   models.Quality
	Directory string // local copy target; empty keeps audio in the blob cache only
}

// Fetcher resolves songs, playlists, lyrics and audio against the metadata and
// blob caches before calling the remote service.
//
// Misses are collected and resolved with one batched remote call. Results are
// correlated by id, never by position.
type Fetcher struct {
	api         MusicAPI
	metadata    models.MetadataCache
	blobs       models.BlobCache
	downloads   DownloadRecorder
	logger      *log.Logger
	presignTTL  time.Duration
	concurrency int
}

// FetcherOpts configures a [Fetcher]. API, Metadata and Blobs are required.
type FetcherOpts struct {
	API         MusicAPI
	Metadata    models.MetadataCache
	Blobs       models.BlobCache
	Downloads   DownloadRecorder // optional
	Logger      *log.Logger
	PresignTTL  time.Duration
	Concurrency int
}

func NewFetcher(opts FetcherOpts) *Fetcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = defaultPresignTTL
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}

	return &Fetcher{
		api:         opts.API,
		metadata:    opts.Metadata,
		blobs:       opts.Blobs,
		downloads:   opts.Downloads,
		logger:      shared.WithLogger(opts.Logger, "component", "fetcher"),
		presignTTL:  opts.PresignTTL,
		concurrency: opts.Concurrency,
	}
}

// normalizeSong maps a raw record onto the cached shape, taking the first artist as the singer.
func normalizeSong(raw services.NeteaseSong) models.Song {
	song := models.Song{
		ID:   raw.SongID(),
		Name: raw.Name,
		Album: models.Album{
			ID:     strconv.FormatInt(raw.Album.ID, 10),
			Name:   raw.Album.Name,
			PicURL: raw.Album.PicURL,
		},
		Duration: raw.Duration,
	}
	if len(raw.Artists) > 0 {
		ar := raw.Artists[0]
		song.Singer = models.Singer{ID: strconv.FormatInt(ar.ID, 10), Name: ar.Name, Alias: ar.Alias}
	}
	return song
}

// Song returns a song from the metadata cache, fetching and caching it on a miss.
func (f *Fetcher) Song(ctx context.Context, id string) (*models.Song, error) {
	cached, err := f.metadata.GetSong(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		f.logger.Debug("song cache hit", "song_id", id)
		return cached, nil
	}

	records, err := f.api.FetchSongs(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	raw, ok := lo.Find(records, func(r services.NeteaseSong) bool { return r.SongID() == id })
	if !ok {
		return nil, fmt.Errorf("%w: song %s", models.ErrNotFound, id)
	}

	song := normalizeSong(raw)
	if err := f.metadata.PutSong(ctx, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// Songs resolves a list of ids with at most one remote call for the ids that
// are not cached. The result keeps the order of ids; duplicates are collapsed
// and ids the remote service has no record for are dropped.
func (f *Fetcher) Songs(ctx context.Context, ids []string) ([]models.Song, error) {
	ids = lo.Uniq(ids)
	found := make(map[string]models.Song, len(ids))
	var misses []string

	for _, id := range ids {
		cached, err := f.metadata.GetSong(ctx, id)
		if err != nil {
			return nil, err
		}
		if cached == nil {
			misses = append(misses, id)
			continue
		}
		found[id] = *cached
	}

	if len(misses) > 0 {
		f.logger.Debug("fetching songs", "hits", len(found), "misses", len(misses))

		records, err := f.api.FetchSongs(ctx, misses)
		if err != nil {
			return nil, err
		}

		wanted := lo.Associate(misses, func(id string) (string, struct{}) { return id, struct{}{} })
		fresh := lo.FilterMap(records, func(r services.NeteaseSong, _ int) (models.Song, bool) {
			_, ok := wanted[r.SongID()]
			return normalizeSong(r), ok
		})
		fresh = lo.UniqBy(fresh, func(s models.Song) string { return s.ID })

		if len(fresh) > 0 {
			if err := f.metadata.PutSongs(ctx, fresh); err != nil {
				return nil, err
			}
		}
		for id, s := range lo.KeyBy(fresh, func(s models.Song) string { return s.ID }) {
			found[id] = s
		}
	}

	songs := make([]models.Song, 0, len(found))
	for _, id := range ids {
		s, ok := found[id]
		if !ok {
			f.logger.Warn("song unavailable", "song_id", id)
			continue
		}
		songs = append(songs, s)
	}
	return songs, nil
}

// Playlist returns a playlist with its tracks assembled from the song cache.
//
// Track ids come from the cached playlist document when present. Tracks are
// resolved on every call since the song cache changes independently.
func (f *Fetcher) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	playlist, err := f.metadata.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}

	if playlist == nil {
		detail, err := f.api.FetchPlaylist(ctx, id)
		if err != nil {
			return nil, err
		}

		playlist = &models.Playlist{
			ID:          id,
			Name:        detail.Name,
			Description: detail.Description,
			TrackIDs:    detail.TrackIDs,
		}
		if err := f.metadata.PutPlaylist(ctx, playlist); err != nil {
			return nil, err
		}
	} else {
		f.logger.Debug("playlist cache hit", "playlist_id", id)
	}

	tracks, err := f.Songs(ctx, playlist.TrackIDs)
	if err != nil {
		return nil, err
	}
	playlist.Tracks = tracks
	return playlist, nil
}

// Lyric returns a song's LRC lyric.
//
// A stored lyric, even an empty one, is returned without a remote call.
func (f *Fetcher) Lyric(ctx context.Context, id string) (string, error) {
	song, err := f.songWithLyric(ctx, id)
	if err != nil {
		return "", err
	}
	return song.LyricText(), nil
}

// ExportLyric writes a song's lyric as SubRip into dir and returns the file path.
func (f *Fetcher) ExportLyric(ctx context.Context, id, dir string) (string, error) {
	song, err := f.songWithLyric(ctx, id)
	if err != nil {
		return "", err
	}
	return formatter.WriteSRT(song, dir)
}

func (f *Fetcher) songWithLyric(ctx context.Context, id string) (*models.Song, error) {
	song, err := f.Song(ctx, id)
	if err != nil {
		return nil, err
	}
	if song.HasLyric() {
		return song, nil
	}

	lyric, err := f.api.FetchLyric(ctx, id)
	if err != nil {
		return nil, err
	}

	song.SetLyric(lyric)
	if err := f.metadata.PutSong(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

// Download resolves audio for ids.
//
// Songs already in the blob cache get a presigned URL and no remote call.
// The rest are resolved with one playback URL request, streamed to a
// temporary file, and uploaded to the blob cache once complete. When
// opts.Directory is set every resolved song is also copied there as
// "{id}.mp3".
//
// Per-song failures are reported in the results and never abort the other
// songs. The returned error is non-nil only when ctx is done.
func (f *Fetcher) Download(ctx context.Context, ids []string, opts DownloadOpts, progress chan<- ProgressUpdate) ([]AudioResult, error) {
	ids = lo.Uniq(ids)
	runID := shared.GenerateID()
	send := func(u ProgressUpdate) {
		u.RunID = runID
		sendProgress(progress, u)
	}

	results := make([]AudioResult, len(ids))
	for i, id := range ids {
		results[i].ID = id
	}

	if opts.Directory != "" {
		if err := os.MkdirAll(opts.Directory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create download directory: %w", err)
		}
	}

	send(checkBlobsUpdate(len(ids)))
	var misses []int
	for i := range results {
		res := &results[i]
		key := models.BlobKey(res.ID)

		exists, err := f.blobs.Exists(ctx, key)
		if err != nil {
			res.Err = err
			continue
		}
		if !exists {
			misses = append(misses, i)
			continue
		}

		u, err := f.blobs.PresignedGet(ctx, key, f.presignTTL)
		if err != nil {
			res.Err = err
			continue
		}
		res.Source = models.SourceBlob
		res.URL = u
	}

	if len(misses) > 0 {
		send(resolveURLsUpdate(len(misses), len(ids)))
		f.resolveURLs(ctx, results, misses, opts.Quality)
	}

	send(fetchMetadataUpdate(len(ids)))
	f.annotate(ctx, results)

	var step atomic.Int64
	total := len(results)
	report := func(res *AudioResult) {
		send(transferUpdate(int(step.Add(1)), total, res))
	}

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i := range results {
		res := &results[i]
		if res.Err != nil || (res.Source == models.SourceBlob && opts.Directory == "") {
			report(res)
			continue
		}

		g.Go(func() error {
			var err error
			if res.Source == models.SourceBlob {
				err = f.copyBlob(ctx, res, opts.Directory)
			} else {
				err = f.transfer(ctx, res, opts.Directory)
			}
			if err != nil {
				res.Err = err
				f.logger.Warn("download failed", "song_id", res.ID, "err", err)
			}
			report(res)
			return nil
		})
	}
	_ = g.Wait()

	f.record(ctx, results, opts.Quality)
	send(doneUpdate(results))

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// resolveURLs issues one playback URL request for the misses and correlates the answers by id.
func (f *Fetcher) resolveURLs(ctx context.Context, results []AudioResult, misses []int, q models.Quality) {
	ids := lo.Map(misses, func(i int, _ int) string { return results[i].ID })

	urls, err := f.api.ResolvePlaybackURLs(ctx, ids, q)
	if err != nil {
		for _, i := range misses {
			results[i].Err = err
		}
		return
	}

	byID := lo.KeyBy(urls, func(u models.PlaybackURL) string { return u.ID })
	for _, i := range misses {
		res := &results[i]
		u, ok := byID[res.ID]
		if !ok || !u.Available() {
			res.Err = fmt.Errorf("%w: no playback URL for song %s at %s quality", models.ErrNotFound, res.ID, q)
			continue
		}
		res.Source = models.SourceRemote
		res.URL = u.URL
		res.Size = u.Size
	}
}

// annotate attaches song metadata. Failures are logged and ignored.
func (f *Fetcher) annotate(ctx context.Context, results []AudioResult) {
	ids := lo.Map(results, func(r AudioResult, _ int) string { return r.ID })
	songs, err := f.Songs(ctx, ids)
	if err != nil {
		f.logger.Warn("song metadata unavailable", "err", err)
		return
	}

	byID := lo.KeyBy(songs, func(s models.Song) string { return s.ID })
	for i := range results {
		if s, ok := byID[results[i].ID]; ok {
			results[i].Song = &s
		}
	}
}

// transfer streams remote audio to a temporary file, uploads the completed
// file to the blob cache, and then moves it into dir or removes it.
func (f *Fetcher) transfer(ctx context.Context, res *AudioResult, dir string) error {
	body, size, err := f.api.Open(ctx, res.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, n, err := writeTemp(ctx, dir, body, size)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := f.upload(ctx, res.ID, tmp, n); err != nil {
		return err
	}

	res.Size = n
	if dir == "" {
		return nil
	}
	return commit(tmp, dir, res)
}

func (f *Fetcher) upload(ctx context.Context, id, path string, size int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return f.blobs.Put(ctx, models.BlobKey(id), file, size)
}

// copyBlob copies a cached object into dir.
func (f *Fetcher) copyBlob(ctx context.Context, res *AudioResult, dir string) error {
	body, err := f.blobs.Get(ctx, models.BlobKey(res.ID))
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, n, err := writeTemp(ctx, dir, body, -1)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	res.Size = n
	return commit(tmp, dir, res)
}

// writeTemp copies r into a new temporary file in dir and returns its path.
// A known size that does not match the bytes read is an error. The file is
// removed on any failure.
func writeTemp(ctx context.Context, dir string, r io.Reader, size int64) (path string, n int64, err error) {
	file, err := os.CreateTemp(dir, ".yunx-"+uuid.NewString()+"-*.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(file.Name()))
		}
	}()

	n, err = io.Copy(file, contextReader{ctx: ctx, r: r})
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, err
	}
	if size >= 0 && n != size {
		return "", 0, fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, n, size)
	}
	return file.Name(), n, nil
}

func commit(tmp, dir string, res *AudioResult) error {
	dest := filepath.Join(dir, models.BlobKey(res.ID))
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	res.Path = dest
	return nil
}

func (f *Fetcher) record(ctx context.Context, results []AudioResult, q models.Quality) {
	if f.downloads == nil {
		return
	}
	for _, res := range results {
		if res.Err != nil || res.Path == "" {
			continue
		}
		d := &models.Download{SongID: res.ID, Path: res.Path, Size: res.Size, Quality: q, Source: res.Source.String()}
		if err := f.downloads.Record(ctx, d); err != nil {
			f.logger.Warn("failed to record download", "song_id", res.ID, "err", err)
		}
	}
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
