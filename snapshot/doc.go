// Package snapshot persists record stores to a blobstore.BlobStore.
//
// A snapshot called name consists of two blobs:
//
//	name            encoded (and optionally compressed) record store
//	name.manifest   JSON metadata: codec, compression, entry count, sources, size, CRC32
//
// Publish additionally points CURRENT at the snapshot, so readers can always
// find the latest published store with LoadCurrent.
//
// A blob without a manifest is read as a plain JSON record store, which is
// the format written by earlier scrapers.
package snapshot
