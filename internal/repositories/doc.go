// Package repositories implements the metadata cache backends and the local download log.
//
// Key Implementations:
//   - [SQLiteCache] : [models.MetadataCache] over a single documents table keyed by (collection, id)
//   - [MongoCache] : [models.MetadataCache] with one MongoDB collection per document type
//   - [DownloadRepository] : history of local copies written by the download command
//
// Both caches store whole documents and treat every write as an upsert, so
// concurrent writers are last-write-wins. Batch writes are all-or-nothing in
// SQLite (one transaction) and unordered bulk upserts in MongoDB. Store failures
// are wrapped with [models.ErrCache]; a missing document is reported as (nil, nil).
package repositories
