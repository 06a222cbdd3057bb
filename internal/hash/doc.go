// Package hash provides the CRC32-Castagnoli checksums used for artifact
// integrity.
//
// Bundle manifests record the CRC32C of every blob they reference, and
// the S3 store sends it with uploads so the service validates the body:
//
//	sum := hash.CRC32C(data)
//	header := hash.CRC32CBase64(data)
//
// Go's hash/crc32 uses hardware instructions (SSE4.2, ARM CRC) when
// available.
package hash
