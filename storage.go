package xrdgo

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/blobstore/minio"
	"github.com/hupe1980/xrdgo/blobstore/s3"
)

// OpenBlobStore opens the blob store selected by cfg.Backend.
//
// The s3 backend publishes CURRENT through a DynamoDB commit store when
// cfg.CommitTable is set, so concurrent scrapers cannot overwrite each other's
// pointer.
func OpenBlobStore(ctx context.Context, cfg StorageConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case "", "local":
		return blobstore.NewLocalStore(cfg.Path), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		var opts []s3.Option
		if cfg.Prefix != "" {
			opts = append(opts, s3.WithPrefix(cfg.Prefix))
		}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		store, err := s3.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		if cfg.CommitTable == "" {
			return store, nil
		}

		var loadOpts []func(*config.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		baseURI := "s3://" + path.Join(cfg.Bucket, cfg.Prefix)
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.CommitTable, baseURI), nil
	case "minio":
		store, err := minio.Connect(ctx, minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
