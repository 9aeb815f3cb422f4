// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/services"
)

// MemoryMetadata is an in-memory [models.MetadataCache] with call counters.
type MemoryMetadata struct {
	mu        sync.Mutex
	songs     map[string]models.Song
	playlists map[string]models.Playlist

	SongGets  int
	SongPuts  int
	BatchPuts int
	Err       error // returned by every call when set
}

func NewMemoryMetadata() *MemoryMetadata {
	return &MemoryMetadata{songs: map[string]models.Song{}, playlists: map[string]models.Playlist{}}
}

// Seed stores songs without counting the writes.
func (m *MemoryMetadata) Seed(songs ...models.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range songs {
		m.songs[s.ID] = s
	}
}

// Song returns a stored song for assertions.
func (m *MemoryMetadata) Song(id string) (models.Song, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	return s, ok
}

func (m *MemoryMetadata) GetSong(ctx context.Context, id string) (*models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SongGets++
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.songs[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryMetadata) PutSong(ctx context.Context, song *models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SongPuts++
	if m.Err != nil {
		return m.Err
	}
	m.songs[song.ID] = *song
	return nil
}

func (m *MemoryMetadata) PutSongs(ctx context.Context, songs []models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchPuts++
	if m.Err != nil {
		return m.Err
	}
	for _, s := range songs {
		m.songs[s.ID] = s
	}
	return nil
}

func (m *MemoryMetadata) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.playlists[id]
	if !ok {
		return nil, nil
	}
	p.TrackIDs = slices.Clone(p.TrackIDs)
	return &p, nil
}

func (m *MemoryMetadata) PutPlaylist(ctx context.Context, playlist *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.playlists[playlist.ID] = playlist.Document()
	return nil
}

// MemoryBlobs is an in-memory [models.BlobCache].
type MemoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte

	Puts     int
	PutErr   error
	ExistErr error
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{objects: map[string][]byte{}}
}

// Seed stores an object without counting the write.
func (b *MemoryBlobs) Seed(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
}

// Object returns a stored object for assertions.
func (b *MemoryBlobs) Object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	return data, ok
}

func (b *MemoryBlobs) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ExistErr != nil {
		return false, b.ExistErr
	}
	_, ok := b.objects[key]
	return ok, nil
}

func (b *MemoryBlobs) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.Puts++
	if b.PutErr != nil {
		return b.PutErr
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: got %d, want %d", len(data), size)
	}
	b.objects[key] = data
	return nil
}

func (b *MemoryBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *MemoryBlobs) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://blobs.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

// FakeMusicAPI is a scripted remote client that records every call.
type FakeMusicAPI struct {
	mu sync.Mutex

	Playlists map[string]*services.PlaylistDetail
	Songs     map[string]services.NeteaseSong
	Lyrics    map[string]string
	URLs      map[string]string // id -> url; missing ids resolve to a null url
	Audio     map[string]string // url -> body

	SongsErr   error
	ResolveErr error

	PlaylistCalls []string
	SongCalls     [][]string
	LyricCalls    []string
	ResolveCalls  [][]string
	OpenCalls     []string
}

func NewFakeMusicAPI() *FakeMusicAPI {
	return &FakeMusicAPI{
		Playlists: map[string]*services.PlaylistDetail{},
		Songs:     map[string]services.NeteaseSong{},
		Lyrics:    map[string]string{},
		URLs:      map[string]string{},
		Audio:     map[string]string{},
	}
}

// RemoteCalls counts every call except Open.
func (f *FakeMusicAPI) RemoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.PlaylistCalls) + len(f.SongCalls) + len(f.LyricCalls) + len(f.ResolveCalls)
}

func (f *FakeMusicAPI) FetchPlaylist(ctx context.Context, id string) (*services.PlaylistDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PlaylistCalls = append(f.PlaylistCalls, id)
	p, ok := f.Playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", models.ErrNotFound, id)
	}
	return p, nil
}

// FetchSongs returns known records in reverse request order, so callers must correlate by id.
func (f *FakeMusicAPI) FetchSongs(ctx context.Context, ids []string) ([]services.NeteaseSong, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SongCalls = append(f.SongCalls, slices.Clone(ids))
	if f.SongsErr != nil {
		return nil, f.SongsErr
	}
	var out []services.NeteaseSong
	for i := len(ids) - 1; i >= 0; i-- {
		if s, ok := f.Songs[ids[i]]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *FakeMusicAPI) FetchLyric(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LyricCalls = append(f.LyricCalls, id)
	return f.Lyrics[id], nil
}

// ResolvePlaybackURLs answers in reverse request order, with an empty URL for unknown ids.
func (f *FakeMusicAPI) ResolvePlaybackURLs(ctx context.Context, ids []string, q models.Quality) ([]models.PlaybackURL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResolveCalls = append(f.ResolveCalls, slices.Clone(ids))
	if f.ResolveErr != nil {
		return nil, f.ResolveErr
	}
	out := make([]models.PlaybackURL, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, models.PlaybackURL{ID: ids[i], URL: f.URLs[ids[i]]})
	}
	return out, nil
}

func (f *FakeMusicAPI) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenCalls = append(f.OpenCalls, url)
	body, ok := f.Audio[url]
	if !ok {
		return nil, 0, &models.RemoteAPIError{Endpoint: url, StatusCode: 404}
	}
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

// NeteaseSong builds a raw song record with one artist and an album.
func NeteaseSong(id int64, name, singer string) services.NeteaseSong {
	return services.NeteaseSong{
		ID:       id,
		Name:     name,
		Artists:  []services.NeteaseArtist{{ID: id + 1000, Name: singer}},
		Album:    services.NeteaseAlbum{ID: id + 2000, Name: name + " LP"},
		Duration: 180_000,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
