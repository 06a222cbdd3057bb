// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible servers (Ceph, Garage,
// SeaweedFS) and needs no AWS dependencies, which suits self-hosted
// deployments that keep artifact bundles next to the audio corpus.
//
// # Basic Usage
//
//	store, err := minioblob.Dial("localhost:9000", "minioadmin", "minioadmin", false,
//	    "artifacts", "bundles/gtzan/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng, err := soundalike.Load(ctx, store)
//
// Use NewStore to wrap a pre-configured *minio.Client.
package minio
