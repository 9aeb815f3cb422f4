package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/yunx/internal/models"
)

// SQLiteCache implements [models.MetadataCache] on a [DocumentStore].
type SQLiteCache struct {
	store *DocumentStore
}

// NewSQLiteCache creates a metadata cache over a migrated SQLite database.
func NewSQLiteCache(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{store: NewDocumentStore(db)}
}

func (c *SQLiteCache) GetSong(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	found, err := c.store.Get(ctx, models.SongCollection, id, &song)
	if err != nil || !found {
		return nil, err
	}
	return &song, nil
}

func (c *SQLiteCache) PutSong(ctx context.Context, song *models.Song) error {
	return c.store.Put(ctx, models.SongCollection, *song)
}

func (c *SQLiteCache) PutSongs(ctx context.Context, songs []models.Song) error {
	return PutDocuments(ctx, c.store, models.SongCollection, songs)
}

// GetPlaylist returns the stored playlist without its track view.
func (c *SQLiteCache) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	found, err := c.store.Get(ctx, models.PlaylistCollection, id, &playlist)
	if err != nil || !found {
		return nil, err
	}
	return &playlist, nil
}

// PutPlaylist stores the playlist's durable fields. Tracks are never persisted.
func (c *SQLiteCache) PutPlaylist(ctx context.Context, playlist *models.Playlist) error {
	return c.store.Put(ctx, models.PlaylistCollection, playlist.Document())
}

// Stats counts cached documents per collection.
func (c *SQLiteCache) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int, 2)
	for _, collection := range []string{models.SongCollection, models.PlaylistCollection} {
		n, err := c.store.Count(ctx, collection)
		if err != nil {
			return nil, err
		}
		stats[collection] = n
	}
	return stats, nil
}
