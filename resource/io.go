package resource

import (
	"context"
	"io"
)

type limitedReader struct {
	ctx context.Context
	r   io.Reader
	c   *Controller
}

// NewReader returns r throttled to the controller's BytesPerSecond.
// Without a bandwidth limit r is returned unchanged.
func NewReader(ctx context.Context, r io.Reader, c *Controller) io.Reader {
	if c == nil || c.bandwidth == nil {
		return r
	}
	return &limitedReader{ctx: ctx, r: r, c: c}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		// Charge after the read: the body length is unknown up front.
		if werr := l.c.waitBytes(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
