package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/codec"
	"github.com/hupe1980/xrdgo/record"
)

const (
	// CurrentName is the blob holding the name of the published snapshot.
	CurrentName = "CURRENT"
	// ManifestSuffix is appended to the snapshot name to form its manifest blob.
	ManifestSuffix = ".manifest"
	// FormatVersion is the manifest format written by Save.
	FormatVersion = 1
)

// ErrNoCurrent is returned by LoadCurrent when nothing was published yet.
var ErrNoCurrent = errors.New("snapshot: no current snapshot")

// Manifest describes a stored snapshot.
type Manifest struct {
	Version     int         `json:"version"`
	Name        string      `json:"name"`
	CreatedAt   time.Time   `json:"created_at"`
	Codec       string      `json:"codec"`
	Compression Compression `json:"compression"`
	Entries     int         `json:"entries"`
	Sources     []string    `json:"sources"`
	Size        int64       `json:"size"`
	RawSize     int64       `json:"raw_size"`
	Checksum    uint32      `json:"crc32"`
}

type options struct {
	codec       codec.Codec
	compression Compression
	now         func() time.Time
}

// Option configures Save and Publish.
type Option func(*options)

// WithCodec sets the codec used to encode the record store.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression sets the compression of the stored bytes.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

func manifestName(name string) string { return name + ManifestSuffix }

// Save writes store as snapshot name. The data blob is written first, so a
// manifest always refers to complete data.
func Save(ctx context.Context, bs blobstore.BlobStore, name string, store *record.Store, optFns ...Option) (*Manifest, error) {
	if name == "" || name == CurrentName || strings.HasSuffix(name, ManifestSuffix) {
		return nil, fmt.Errorf("snapshot: invalid name %q", name)
	}
	opts := options{codec: codec.Default, compression: CompressionNone, now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	raw, err := opts.codec.Marshal(store.Map())
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: encode: %w", name, err)
	}

	w, err := bs.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	cw := newChecksumWriter(w)
	if err := compress(cw, raw, opts.compression); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("snapshot %s: write: %w", name, err)
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("snapshot %s: sync: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("snapshot %s: close: %w", name, err)
	}

	m := &Manifest{
		Version:     FormatVersion,
		Name:        name,
		CreatedAt:   opts.now().UTC(),
		Codec:       opts.codec.Name(),
		Compression: opts.compression,
		Entries:     store.Len(),
		Sources:     store.Sources(),
		Size:        cw.n,
		RawSize:     int64(len(raw)),
		Checksum:    cw.Sum(),
	}
	data, err := codec.Default.Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := bs.Put(ctx, manifestName(name), data); err != nil {
		return nil, fmt.Errorf("snapshot %s: manifest: %w", name, err)
	}
	return m, nil
}

// Publish saves the snapshot and makes it current.
func Publish(ctx context.Context, bs blobstore.BlobStore, name string, store *record.Store, optFns ...Option) (*Manifest, error) {
	m, err := Save(ctx, bs, name, store, optFns...)
	if err != nil {
		return nil, err
	}
	if err := bs.Put(ctx, CurrentName, []byte(name)); err != nil {
		return nil, fmt.Errorf("snapshot %s: publish: %w", name, err)
	}
	return m, nil
}

// Current returns the name of the published snapshot.
func Current(ctx context.Context, bs blobstore.BlobStore) (string, error) {
	data, err := blobstore.Get(ctx, bs, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoCurrent
		}
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoCurrent
	}
	return name, nil
}

// ReadManifest reads the manifest of snapshot name.
func ReadManifest(ctx context.Context, bs blobstore.BlobStore, name string) (*Manifest, error) {
	data, err := blobstore.Get(ctx, bs, manifestName(name))
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := codec.Default.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("snapshot %s: manifest: %w", name, err)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported manifest version %d", name, m.Version)
	}
	return m, nil
}

// Load reads snapshot name. The manifest is nil for snapshots written without one.
func Load(ctx context.Context, bs blobstore.BlobStore, name string) (*record.Store, *Manifest, error) {
	m, err := ReadManifest(ctx, bs, name)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil, err
	}

	data, err := blobstore.Get(ctx, bs, name)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", name, err)
	}

	dec := codec.Codec(codec.JSON{})
	if m != nil {
		if err := verify(name, data, m.Checksum); err != nil {
			return nil, nil, err
		}
		if data, err = decompress(data, m.Compression); err != nil {
			return nil, nil, fmt.Errorf("snapshot %s: decompress: %w", name, err)
		}
		c, ok := codec.ByName(m.Codec)
		if !ok {
			return nil, nil, fmt.Errorf("snapshot %s: unknown codec %q", name, m.Codec)
		}
		dec = c
	}

	raw := make(map[string]record.Record)
	if err := dec.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: decode: %w", name, err)
	}
	store, err := record.FromMap(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	if m != nil && store.Len() != m.Entries {
		return nil, nil, fmt.Errorf("snapshot %s: manifest lists %d entries, found %d", name, m.Entries, store.Len())
	}
	return store, m, nil
}

// LoadCurrent loads the published snapshot.
func LoadCurrent(ctx context.Context, bs blobstore.BlobStore) (*record.Store, *Manifest, error) {
	name, err := Current(ctx, bs)
	if err != nil {
		return nil, nil, err
	}
	return Load(ctx, bs, name)
}

// List returns the manifests of all snapshots, ordered by name.
// Unreadable manifests are skipped.
func List(ctx context.Context, bs blobstore.BlobStore) ([]*Manifest, error) {
	names, err := bs.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []*Manifest
	for _, n := range names {
		if !strings.HasSuffix(n, ManifestSuffix) {
			continue
		}
		m, err := ReadManifest(ctx, bs, strings.TrimSuffix(n, ManifestSuffix))
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Delete removes snapshot name. The published snapshot cannot be deleted.
func Delete(ctx context.Context, bs blobstore.BlobStore, name string) error {
	current, err := Current(ctx, bs)
	if err != nil && !errors.Is(err, ErrNoCurrent) {
		return err
	}
	if current == name {
		return fmt.Errorf("snapshot %s: cannot delete the current snapshot", name)
	}
	if err := bs.Delete(ctx, manifestName(name)); err != nil {
		return err
	}
	return bs.Delete(ctx, name)
}
