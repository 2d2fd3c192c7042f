// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("xrd/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// To make snapshot publication safe with concurrent writers, wrap the store in
// a DDBCommitStore. The CURRENT pointer is then committed with a DynamoDB
// conditional write instead of an S3 overwrite:
//
//	commits := s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), "xrd-commits", "s3://my-bucket/xrd/")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart streaming uploads for large record stores
//   - CRC32C integrity checks on Put
//   - Automatic pagination for listing
package s3
