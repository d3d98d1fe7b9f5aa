package bgremoval

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultCropPadding is the margin kept around the subject when cropping
const DefaultCropPadding = 8

// Channel is the client side of the worker protocol
type Channel struct {
	worker *Worker
	nextID atomic.Uint64
}

// NewChannel creates a client for w
func NewChannel(w *Worker) *Channel {
	return &Channel{worker: w}
}

// RemoveBackground sends buf to the worker and waits for the result. A
// positive timeout starts once the worker accepts the request. If the wait
// is abandoned the job still runs to completion.
func (c *Channel) RemoveBackground(ctx context.Context, buf []byte, mimeType string, timeout time.Duration, onProgress func(percent int, stage string)) ([]byte, string, error) {
	req := ProcessImageRequest{ID: c.nextID.Add(1), Buffer: buf, MimeType: mimeType}
	return c.call(ctx, req, timeout, onProgress)
}

// Crop trims transparent margins from buf
func (c *Channel) Crop(ctx context.Context, buf []byte, mimeType string, timeout time.Duration) ([]byte, string, error) {
	req := CropImageRequest{ID: c.nextID.Add(1), Buffer: buf, MimeType: mimeType, Padding: DefaultCropPadding}
	return c.call(ctx, req, timeout, nil)
}

func (c *Channel) call(ctx context.Context, req Request, timeout time.Duration, onProgress func(int, string)) ([]byte, string, error) {
	progress := make(chan Response, 16)
	done := make(chan Response, 1)
	if err := c.worker.submit(ctx, envelope{req: req, progress: progress, done: done}); err != nil {
		return nil, "", err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// handle reports whether r was terminal
	handle := func(r Response) (buf []byte, mimeType string, terminal bool, err error) {
		switch m := r.(type) {
		case Progress:
			if onProgress != nil {
				onProgress(m.Percent, m.Stage)
			}
			return nil, "", false, nil
		case Result:
			return m.Buffer, m.MimeType, true, nil
		case Error:
			return nil, "", true, m
		default:
			return nil, "", true, fmt.Errorf("unexpected response type %T", r)
		}
	}

	for {
		select {
		case r := <-progress:
			handle(r)
		case r := <-done:
			for drained := false; !drained; {
				select {
				case p := <-progress:
					handle(p)
				default:
					drained = true
				}
			}
			buf, mt, _, err := handle(r)
			return buf, mt, err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, "", fmt.Errorf("%s timed out: %w", req.Type(), ctx.Err())
			}
			return nil, "", ctx.Err()
		}
	}
}
