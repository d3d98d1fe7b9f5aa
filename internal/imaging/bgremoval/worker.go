package bgremoval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"sync"

	"go.uber.org/zap"
)

// ErrWorkerClosed is returned when a request is sent to a stopped worker
var ErrWorkerClosed = errors.New("background removal worker is closed")

// Segmenter separates the subject from the background, returning an image
// whose background pixels are transparent.
type Segmenter interface {
	Segment(img *image.NRGBA, report func(percent int, stage string)) (*image.NRGBA, error)
}

type envelope struct {
	req      Request
	progress chan<- Response // Best effort, never blocks the worker
	done     chan<- Response // Capacity 1, receives exactly one terminal response
}

// Worker executes requests one at a time on its own goroutine
type Worker struct {
	seg      Segmenter
	logger   *zap.Logger
	requests chan envelope
	quit     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewWorker creates a worker. Call Start before sending requests.
func NewWorker(seg Segmenter, logger *zap.Logger) *Worker {
	if seg == nil {
		seg = NewBorderSegmenter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		seg:      seg,
		logger:   logger,
		requests: make(chan envelope),
		quit:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. It stops when ctx is done or Close is called.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.quit:
				return
			case env := <-w.requests:
				w.handle(env)
			}
		}
	}()
}

// Close stops the worker after the current request finishes
func (w *Worker) Close() {
	w.once.Do(func() { close(w.quit) })
	w.wg.Wait()
}

func (w *Worker) submit(ctx context.Context, env envelope) error {
	select {
	case w.requests <- env:
		return nil
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) handle(env envelope) {
	id := env.req.requestID()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("background_removal_worker_panic", zap.Any("panic", r), zap.Uint64("request_id", id))
			env.done <- Error{ID: id, Message: fmt.Sprintf("worker crashed: %v", r)}
		}
	}()

	report := func(percent int, stage string) {
		select {
		case env.progress <- Progress{ID: id, Percent: percent, Stage: stage}:
		default:
		}
	}

	var (
		out []byte
		err error
	)
	switch req := env.req.(type) {
	case ProcessImageRequest:
		out, err = w.process(req.Buffer, report)
	case CropImageRequest:
		out, err = crop(req.Buffer, req.Padding)
	default:
		err = fmt.Errorf("unknown request type %T", req)
	}
	if err != nil {
		env.done <- Error{ID: id, Message: err.Error()}
		return
	}
	env.done <- Result{ID: id, Buffer: out, MimeType: "image/png"}
}

func (w *Worker) process(buf []byte, report func(int, string)) ([]byte, error) {
	report(5, "Loading image")
	img, err := decodeNRGBA(buf)
	if err != nil {
		return nil, err
	}
	out, err := w.seg.Segment(img, report)
	if err != nil {
		return nil, err
	}
	report(95, "Encoding result")
	return encode(out)
}

func decodeNRGBA(buf []byte) (*image.NRGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("unsupported input: %w", err)
	}
	if n, ok := src.(*image.NRGBA); ok {
		return n, nil
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

func encode(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return out.Bytes(), nil
}

// crop trims fully transparent margins, keeping padding pixels around the subject
func crop(buf []byte, padding int) ([]byte, error) {
	img, err := decodeNRGBA(buf)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < minX {
		return nil, errors.New("image is fully transparent")
	}
	rect := image.Rect(minX-padding, minY-padding, maxX+1+padding, maxY+1+padding).Intersect(b)
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return encode(dst)
}
