// package models defines the data model for the music cache
package models

import (
	"strings"
	"time"
)

// Collection names shared by every [MetadataCache] backend.
const (
	SongCollection     = "song"
	PlaylistCollection = "playlist"
)

// Document is implemented by every entity stored in the metadata cache.
type Document interface {
	DocumentID() string // DocumentID returns the unique key within the collection
}

// Singer is the primary artist credited on a [Song].
type Singer struct {
	ID    string   `json:"id" bson:"id"`
	Name  string   `json:"name" bson:"name"`
	Alias []string `json:"alias,omitempty" bson:"alias,omitempty"`
}

// Album is the release a [Song] belongs to.
type Album struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	PicURL string `json:"pic_url,omitempty" bson:"pic_url,omitempty"`
}

// Song is a normalized track document.
//
// Lyric is nil until a lyric lookup has been made. An empty, non-nil lyric
// means the remote service has none for this song.
type Song struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Singer   Singer  `json:"singer" bson:"singer"`
	Album    Album   `json:"album" bson:"album"`
	Duration int     `json:"duration,omitempty" bson:"duration,omitempty"` // milliseconds
	Lyric    *string `json:"lyric,omitempty" bson:"lyric,omitempty"`
}

func (s Song) DocumentID() string { return s.ID }

// HasLyric reports whether a lyric lookup has already been stored.
func (s Song) HasLyric() bool { return s.Lyric != nil }

// LyricText returns the stored lyric or an empty string.
func (s Song) LyricText() string {
	if s.Lyric == nil {
		return ""
	}
	return *s.Lyric
}

// SetLyric attaches a lyric, including an empty one.
func (s *Song) SetLyric(lyric string) {
	s.Lyric = &lyric
}

// DisplayName formats the song as "Singer - Name", falling back to the ID.
func (s Song) DisplayName() string {
	switch {
	case s.Name == "":
		return s.ID
	case s.Singer.Name == "":
		return s.Name
	default:
		return s.Singer.Name + " - " + s.Name
	}
}

// Playlist is a playlist document.
//
// TrackIDs is the durable ordering from the remote service. Tracks is assembled
// from the song cache on every read and is never persisted.
type Playlist struct {
	ID          string   `json:"id" bson:"id"`
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	TrackIDs    []string `json:"track_ids" bson:"track_ids"`
	Tracks      []Song   `json:"tracks,omitempty" bson:"-"`
}

func (p Playlist) DocumentID() string { return p.ID }

// Document returns a copy of the playlist without the derived track view.
func (p Playlist) Document() Playlist {
	p.Tracks = nil
	return p
}

// Source identifies the tier that satisfied a lookup.
type Source int

const (
	SourceNone Source = iota
	SourceBlob
	SourceDB
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceBlob:
		return "blob"
	case SourceDB:
		return "db"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// PlaybackURL is one item of a playback URL resolution.
//
// URL is empty when the remote service cannot serve the song at the requested
// quality (region locks, paid tiers).
type PlaybackURL struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Bitrate int    `json:"br"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	MD5     string `json:"md5"`
}

// Available reports whether the remote service returned a URL.
func (p PlaybackURL) Available() bool { return p.URL != "" }

// BlobKey returns the object name for a song's audio.
func BlobKey(songID string) string {
	return strings.TrimSpace(songID) + ".mp3"
}

// Download records a local copy written by the download command.
type Download struct {
	SongID       string    `json:"song_id"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Quality      Quality   `json:"quality"`
	Source       string    `json:"source"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
