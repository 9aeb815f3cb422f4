// Package storage implements the audio blob cache.
//
// [MinioStore] keeps objects in an S3-compatible bucket and hands out presigned
// GET URLs. [DiskStore] keeps them in a local directory for single-machine use
// and returns file:// URLs. Both implement [models.BlobCache] and key objects
// by [models.BlobKey].
package storage
