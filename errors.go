package xrdgo

import (
	"errors"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/mp"
	"github.com/hupe1980/xrdgo/scrape"
	"github.com/hupe1980/xrdgo/snapshot"
)

var (
	// ErrNotFound is returned when a blob or snapshot does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrNoSnapshot is returned by BuildDataset before the first scrape was published.
	ErrNoSnapshot = snapshot.ErrNoCurrent

	// ErrEmptyDataset is returned when filtering or selection leaves no samples.
	ErrEmptyDataset = dataset.ErrEmptyDataset

	// ErrMissingAPIKey is returned by Scrape without an API key.
	ErrMissingAPIKey = mp.ErrMissingAPIKey

	// ErrEmptyPool is returned by Scrape when no elements are configured.
	ErrEmptyPool = errors.New("empty element pool")

	// ErrClosed is returned by operations on a closed Pipeline.
	ErrClosed = errors.New("pipeline closed")
)

// QueryError is a failed or malformed remote query. It names the entry.
type QueryError = scrape.QueryError

// StageError names the dataset builder stage that failed.
type StageError = dataset.StageError

// ChecksumMismatchError reports a corrupted snapshot.
type ChecksumMismatchError = snapshot.ChecksumMismatchError
