package repositories

import (
	"context"
	"errors"

	"github.com/desertthunder/yunx/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCache implements [models.MetadataCache] with one MongoDB collection per document type.
type MongoCache struct {
	songs     *mongo.Collection
	playlists *mongo.Collection
}

// NewMongoCache binds the song and playlist collections of db and ensures a
// unique index on their id field.
func NewMongoCache(ctx context.Context, db *mongo.Database) (*MongoCache, error) {
	c := &MongoCache{
		songs:     db.Collection(models.SongCollection),
		playlists: db.Collection(models.PlaylistCollection),
	}

	for _, coll := range []*mongo.Collection{c.songs, c.playlists} {
		if _, err := coll.Indexes().CreateOne(ctx, idIndex()); err != nil {
			return nil, models.CacheErr("create index on "+coll.Name(), err)
		}
	}

	return c, nil
}

func idIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("id_unique"),
	}
}

func (c *MongoCache) GetSong(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	found, err := findByID(ctx, c.songs, id, &song)
	if err != nil || !found {
		return nil, err
	}
	return &song, nil
}

func (c *MongoCache) PutSong(ctx context.Context, song *models.Song) error {
	return replaceByID(ctx, c.songs, song.ID, song)
}

// PutSongs writes all songs in one unordered bulk upsert.
func (c *MongoCache) PutSongs(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}

	_, err := c.songs.BulkWrite(ctx, upsertModels(songs), options.BulkWrite().SetOrdered(false))
	if err != nil {
		return models.CacheErr("bulk put "+models.SongCollection, err)
	}
	return nil
}

func (c *MongoCache) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	found, err := findByID(ctx, c.playlists, id, &playlist)
	if err != nil || !found {
		return nil, err
	}
	return &playlist, nil
}

func (c *MongoCache) PutPlaylist(ctx context.Context, playlist *models.Playlist) error {
	doc := playlist.Document()
	return replaceByID(ctx, c.playlists, doc.ID, doc)
}

func findByID(ctx context.Context, coll *mongo.Collection, id string, v any) (bool, error) {
	err := coll.FindOne(ctx, bson.M{"id": id}).Decode(v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, models.CacheErr("get "+coll.Name(), err)
	}
	return true, nil
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return models.CacheErr("put "+coll.Name(), err)
	}
	return nil
}

// upsertModels builds one replace-or-insert write per document.
func upsertModels[T models.Document](docs []T) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, len(docs))
	for i, doc := range docs {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": doc.DocumentID()}).
			SetReplacement(doc).
			SetUpsert(true)
	}
	return writes
}

// Stats returns the document count per collection.
func (c *MongoCache) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int, 2)
	for _, coll := range []*mongo.Collection{c.songs, c.playlists} {
		n, err := coll.CountDocuments(ctx, bson.D{})
		if err != nil {
			return nil, models.CacheErr("count "+coll.Name(), err)
		}
		stats[coll.Name()] = int(n)
	}
	return stats, nil
}
