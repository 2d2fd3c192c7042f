// Package minio stores record snapshots on MinIO or any S3-compatible server
// (Ceph, Garage, SeaweedFS) through the native MinIO client.
//
//	store, err := minio.Connect(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "xrd",
//	    Prefix:    "snapshots/",
//	})
//
// Connect creates the bucket when it does not exist yet.
package minio
