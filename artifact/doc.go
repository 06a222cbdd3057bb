// Package artifact reads and writes feature bundles.
//
// A bundle is a small set of blobs in a blobstore.BlobStore:
//
//	manifest.json                  shape, codec, compression and blob checksums
//	features-<crc>.f32[.zst|.lz4]  row-major little-endian float32 matrix
//	tracks-<crc>.json              track ids and cluster assignments
//	model-<crc>.json               scaler and centroids (fitted bundles only)
//
// Data blobs are named after the CRC32C of their content, so writing a
// new bundle never overwrites a blob an existing manifest points at. The
// manifest is written last and is the commit point: readers see either
// the previous bundle or the new one. The previous bundle's blobs are kept
// until the next write, so a reader that loaded its manifest just before a
// commit can still fetch them.
package artifact
