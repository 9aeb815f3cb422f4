package models

import (
	"context"
	"io"
	"time"
)

// MetadataCache is keyed persistence for song and playlist documents.
//
// Getters return (nil, nil) on a miss; a miss is never an error. All writes are
// upserts on the document id, so repeated or concurrent writes are last-write-wins.
type MetadataCache interface {
	GetSong(ctx context.Context, id string) (*Song, error)
	PutSong(ctx context.Context, song *Song) error
	PutSongs(ctx context.Context, songs []Song) error
	GetPlaylist(ctx context.Context, id string) (*Playlist, error)
	PutPlaylist(ctx context.Context, playlist *Playlist) error
}

// BlobCache is a content-addressed object store for audio files.
type BlobCache interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Put stores size bytes read from r under key. A negative size means unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// Get opens a stored object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// PresignedGet returns a time-limited retrieval URL for key.
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
