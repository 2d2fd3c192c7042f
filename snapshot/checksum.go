package snapshot

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// checksumWriter computes a running CRC32 (IEEE) and byte count of everything written.
type checksumWriter struct {
	w    io.Writer
	hash hash.Hash32
	n    int64
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, hash: crc32.NewIEEE()}
}

func (cw *checksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	_, _ = cw.hash.Write(p[:n])
	cw.n += int64(n)
	return n, err
}

func (cw *checksumWriter) Sum() uint32 { return cw.hash.Sum32() }

// ChecksumMismatchError is returned when the stored bytes do not match the manifest.
type ChecksumMismatchError struct {
	Name     string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot %s: checksum mismatch: expected 0x%08x, got 0x%08x", e.Name, e.Expected, e.Actual)
}

func verify(name string, data []byte, expected uint32) error {
	if actual := crc32.ChecksumIEEE(data); actual != expected {
		return &ChecksumMismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return nil
}
