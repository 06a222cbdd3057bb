// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("bundles/gtzan/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	eng, err := soundalike.Load(ctx, store)
//
// # Features
//
//   - Range reads for partial fetches
//   - CRC32C-checksummed single-part uploads for manifests and indexes
//   - Multipart uploads for large feature matrices
//   - Automatic pagination for listing
package s3
