// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("embeddings/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	cache := embedcache.NewBlobCache(store)
//
// Credentials and region are resolved with the standard AWS configuration chain.
// Uploads go through the transfer manager, so large blobs use multipart uploads.
package s3
