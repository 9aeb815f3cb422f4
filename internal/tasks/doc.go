// Package tasks resolves songs, playlists, lyrics and audio against the cache
// tiers before paying for a remote call.
//
// # Tiers
//
// [Fetcher] consults, in order:
//
//  1. the blob cache ([models.BlobCache]) for audio, keyed "{id}.mp3"
//  2. the metadata cache ([models.MetadataCache]) for songs and playlists
//  3. the remote service ([MusicAPI])
//
// Cache misses are collected first and resolved with exactly one batched
// remote call. Remote records are correlated back to the request by id, never
// by position. Everything fetched remotely is written back so later calls hit
// the cache; writes are upserts, so concurrent duplicate resolutions are
// harmless.
//
// # Downloads
//
// [Fetcher.Download] streams each resolved URL to a temporary file and uploads
// it to the blob cache only once the file is complete. A local copy, when
// requested, is moved into place with a rename. Transfers run concurrently up
// to the configured limit and a failure is recorded on that song's
// [AudioResult] without affecting the others.
//
// # Progress Reporting
//
// Download emits [ProgressUpdate] values on an optional channel. Sends never
// block; updates are dropped when the channel is full.
package tasks
