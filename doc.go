// Package xrdgo builds space group classification datasets from X-ray
// diffraction patterns in the Materials Project database.
//
// The pipeline has three steps:
//
//   - Scrape queries every entry in the chemical systems of an element pool,
//     discretizes its peak lists onto a 1800 bin grid (0 to 180 degrees two
//     theta at 0.1 degree resolution) and publishes the records as a snapshot.
//   - BuildDataset loads the current snapshot, keeps the space groups with
//     enough instances, encodes labels, balances classes with SMOTE and splits
//     train and test partitions.
//   - ModelSpec declares the DeepXRD, aCNN or seqXRD topology for an external
//     trainer.
//
// # Quick Start
//
//	cfg, _ := xrdgo.LoadConfig("xrdgo.yaml")
//	p, _ := xrdgo.New(ctx, cfg)
//	defer p.Close()
//
//	src, _ := p.Source(ctx)
//	defer src.Close()
//	manifest, report, _ := p.Scrape(ctx, src)
//
//	ds, _ := p.BuildDataset(ctx)
//	spec, _ := p.ModelSpec(len(ds.Classes))
//
// # Storage
//
// Snapshots live in a blobstore.BlobStore: a local directory, memory, S3
// (optionally with a DynamoDB commit table guarding the CURRENT pointer) or
// MinIO. See OpenBlobStore.
//
// # Observability
//
// Logging goes through Logger, a thin slog wrapper. Metrics are reported to a
// MetricsCollector; cmd/xrdgo exports them to Prometheus.
package xrdgo
