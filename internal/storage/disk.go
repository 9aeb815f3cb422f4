package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/shared"
)

var errInvalidKey = errors.New("invalid object key")

// DiskStore implements [models.BlobCache] on a local directory.
//
// Objects are written to a temporary file and renamed into place, so readers
// never observe a partial object.
type DiskStore struct {
	root string
}

// NewDiskStore creates root if needed and returns a store rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, models.CacheErr("resolve "+root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, models.CacheErr("create "+abs, err)
	}
	return &DiskStore{root: abs}, nil
}

// Root returns the absolute store directory.
func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", models.CacheErr(key, errInvalidKey)
	}
	return filepath.Join(s.root, key), nil
}

func (s *DiskStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, models.CacheErr("stat "+key, err)
	default:
		return info.Mode().IsRegular(), nil
	}
}

// Put copies r into key. When size is non-negative, a short or long read is
// rejected and nothing is stored.
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-"+shared.GenerateID()+"-*")
	if err != nil {
		return models.CacheErr("create temp for "+key, err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	closeErr := tmp.Close()

	if err == nil && closeErr != nil {
		err = closeErr
	}
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("size mismatch: wrote %d bytes, expected %d", n, size)
	}
	if err != nil {
		os.Remove(tmpPath)
		return models.CacheErr("put "+key, err)
	}

	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		return models.CacheErr("put "+key, err)
	}
	return nil
}

func (s *DiskStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: object %s", models.ErrNotFound, key)
	}
	if err != nil {
		return nil, models.CacheErr("get "+key, err)
	}
	return f, nil
}

// PresignedGet returns a file:// URL. Local files do not expire, so ttl is ignored.
func (s *DiskStore) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", models.CacheErr("presign "+key, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
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
