package repositories

import (
	"testing"

	"github.com/desertthunder/yunx/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongoDocuments(t *testing.T) {
	t.Run("playlist document omits tracks", func(t *testing.T) {
		playlist := models.Playlist{
			ID:       "919939187",
			Name:     "Favorites",
			TrackIDs: []string{"1", "2"},
			Tracks:   []models.Song{testSong("1", "One")},
		}

		raw, err := bson.Marshal(playlist.Document())
		if err != nil {
			t.Fatalf("failed to marshal playlist: %v", err)
		}

		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("failed to unmarshal playlist: %v", err)
		}
		if _, ok := doc["tracks"]; ok {
			t.Error("tracks should not be stored")
		}
		if doc["id"] != "919939187" {
			t.Errorf("expected id field, got %v", doc["id"])
		}
		if ids, ok := doc["track_ids"].(bson.A); !ok || len(ids) != 2 {
			t.Errorf("expected track_ids array, got %v", doc["track_ids"])
		}
	})

	t.Run("song lyric states", func(t *testing.T) {
		song := testSong("1", "Song")

		raw, _ := bson.Marshal(song)
		var unset bson.M
		bson.Unmarshal(raw, &unset)
		if _, ok := unset["lyric"]; ok {
			t.Error("nil lyric should be omitted")
		}

		song.SetLyric("")
		raw, _ = bson.Marshal(song)
		var decoded models.Song
		if err := bson.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("failed to unmarshal song: %v", err)
		}
		if !decoded.HasLyric() {
			t.Error("empty lyric should survive a round trip")
		}
	})

	t.Run("upsertModels", func(t *testing.T) {
		songs := []models.Song{testSong("1", "One"), testSong("2", "Two")}
		writes := upsertModels(songs)

		if len(writes) != 2 {
			t.Fatalf("expected 2 writes, got %d", len(writes))
		}

		for i, w := range writes {
			model, ok := w.(*mongo.ReplaceOneModel)
			if !ok {
				t.Fatalf("expected ReplaceOneModel, got %T", w)
			}
			if model.Upsert == nil || !*model.Upsert {
				t.Errorf("write %d should be an upsert", i)
			}
			filter, ok := model.Filter.(bson.M)
			if !ok || filter["id"] != songs[i].ID {
				t.Errorf("write %d has unexpected filter %v", i, model.Filter)
			}
		}
	})

	t.Run("idIndex is unique on id", func(t *testing.T) {
		index := idIndex()
		if index.Options == nil || index.Options.Unique == nil || !*index.Options.Unique {
			t.Error("expected unique index")
		}
		keys, ok := index.Keys.(bson.D)
		if !ok || len(keys) != 1 || keys[0].Key != "id" {
			t.Errorf("unexpected index keys %v", index.Keys)
		}
	})
}
