package repositories

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/desertthunder/yunx/internal/models"
)

type unencodable struct {
	ID    string
	Value float64
}

func (u unencodable) DocumentID() string { return u.ID }

func TestSQLiteCacheErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		cache := NewSQLiteCache(db)
		db.Close()

		song := testSong("1", "Song")
		if err := cache.PutSong(ctx, &song); !errors.Is(err, models.ErrCache) {
			t.Errorf("expected ErrCache from PutSong, got %v", err)
		}
		if _, err := cache.GetSong(ctx, "1"); !errors.Is(err, models.ErrCache) {
			t.Errorf("expected ErrCache from GetSong, got %v", err)
		}
		if err := cache.PutSongs(ctx, []models.Song{song}); !errors.Is(err, models.ErrCache) {
			t.Errorf("expected ErrCache from PutSongs, got %v", err)
		}
	})

	t.Run("corrupt body", func(t *testing.T) {
		db := setupTestDB(t)
		if _, err := db.Exec("INSERT INTO documents (collection, id, body) VALUES ('song', '1', 'not json')"); err != nil {
			t.Fatalf("failed to seed corrupt row: %v", err)
		}

		_, err := NewSQLiteCache(db).GetSong(ctx, "1")
		if !errors.Is(err, models.ErrCache) {
			t.Errorf("expected ErrCache, got %v", err)
		}
	})

	t.Run("batch encoding failure writes nothing", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewDocumentStore(db)

		docs := []unencodable{{ID: "1", Value: 1}, {ID: "2", Value: math.NaN()}}
		if err := PutDocuments(ctx, store, "test", docs); !errors.Is(err, models.ErrCache) {
			t.Fatalf("expected ErrCache, got %v", err)
		}

		n, err := store.Count(ctx, "test")
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no documents after failed batch, got %d", n)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		cache := NewSQLiteCache(setupTestDB(t))
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		if err := cache.PutSongs(canceled, []models.Song{testSong("1", "Song")}); err == nil {
			t.Error("expected error for canceled context")
		}
		got, _ := cache.GetSong(ctx, "1")
		if got != nil {
			t.Error("canceled batch should not write")
		}
	})
}

func TestDownloadRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Record requires a song id", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if err := repo.Record(ctx, &models.Download{Path: "x.mp3"}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		got, err := repo.Get(ctx, "missing")
		if err != nil || got != nil {
			t.Errorf("expected nil, nil, got %v, %v", got, err)
		}
	})

	t.Run("Delete missing", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if err := repo.Delete(ctx, "missing"); err == nil {
			t.Error("expected error deleting a missing download")
		}
	})
}
