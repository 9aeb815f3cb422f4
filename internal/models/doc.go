// Package models defines the domain entities, cache interfaces, and error taxonomy shared by the yunx packages.
//
// The package contains three categories of types:
//
// 1. Documents: entities persisted in the metadata cache
//   - [Song] : normalized track metadata with an optional cached lyric
//   - [Playlist] : remotely sourced track ordering plus a cache-assembled track view
//
// 2. Transient values: produced per call and never persisted
//   - [PlaybackURL] : one item of a playback URL resolution batch
//   - [QualityProfile] : level and bitrate parameters for a [Quality]
//
// 3. Collaborator interfaces
//   - [MetadataCache] : keyed document persistence for songs and playlists
//   - [BlobCache] : content-addressed audio storage with presigned retrieval
//
// Errors are sentinels ([ErrEncoding], [ErrRemoteAPI], [ErrNotFound], [ErrCache]) matched with [errors.Is].
package models
