// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible servers (Ceph, Garage, SeaweedFS)
// without pulling in the AWS SDK configuration chain.
//
// # Basic Usage
//
//	store, err := minioblob.New("localhost:9000", "minioadmin", "minioadmin", "cache",
//	    minioblob.WithPrefix("embeddings/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache := embedcache.NewBlobCache(store)
package minio
