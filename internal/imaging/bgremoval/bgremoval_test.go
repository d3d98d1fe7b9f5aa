package bgremoval

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"
)

// subjectOnBackdrop draws a red square on a white backdrop
func subjectOnBackdrop(t *testing.T, size, inset int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
			if x >= inset && x < size-inset && y >= inset && y < size-inset {
				c = color.NRGBA{R: 200, G: 30, B: 40, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, buf []byte) *image.NRGBA {
	t.Helper()
	img, err := decodeNRGBA(buf)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img
}

type funcSegmenter struct {
	segment func(img *image.NRGBA, report func(int, string)) (*image.NRGBA, error)
}

func (f funcSegmenter) Segment(img *image.NRGBA, report func(int, string)) (*image.NRGBA, error) {
	return f.segment(img, report)
}

func startWorker(t *testing.T, seg Segmenter) *Channel {
	t.Helper()
	w := NewWorker(seg, nil)
	w.Start(context.Background())
	t.Cleanup(w.Close)
	return NewChannel(w)
}

func TestBorderSegmenter(t *testing.T) {
	t.Parallel()

	img := decode(t, subjectOnBackdrop(t, 40, 10))
	out, err := NewBorderSegmenter().Segment(img, func(int, string) {})
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("Expected corner to be transparent, alpha = %d", a)
	}
	if a := out.NRGBAAt(20, 20).A; a != 255 {
		t.Errorf("Expected subject to stay opaque, alpha = %d", a)
	}
}

func TestBorderSegmenter_NoSubject(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if _, err := NewBorderSegmenter().Segment(img, func(int, string) {}); !errors.Is(err, ErrNoSubject) {
		t.Errorf("Expected ErrNoSubject, got %v", err)
	}
}

func TestChannel_RemoveBackground(t *testing.T) {
	t.Parallel()

	ch := startWorker(t, nil)
	var mu sync.Mutex
	var percents []int
	out, mt, err := ch.RemoveBackground(context.Background(), subjectOnBackdrop(t, 32, 8), "image/png", 0, func(p int, stage string) {
		mu.Lock()
		defer mu.Unlock()
		if stage == "" {
			t.Error("Expected a stage label with progress")
		}
		percents = append(percents, p)
	})
	if err != nil {
		t.Fatalf("RemoveBackground() error = %v", err)
	}
	if mt != "image/png" {
		t.Errorf("Expected image/png, got %s", mt)
	}
	if a := decode(t, out).NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("Expected transparent background, alpha = %d", a)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(percents) == 0 {
		t.Error("Expected progress reports")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("Expected non-decreasing progress, got %v", percents)
			break
		}
	}
}

func TestChannel_ErrorResponse(t *testing.T) {
	t.Parallel()

	ch := startWorker(t, nil)
	_, _, err := ch.RemoveBackground(context.Background(), []byte("not an image"), "image/png", 0, nil)
	var werr Error
	if !errors.As(err, &werr) {
		t.Fatalf("Expected worker Error response, got %v", err)
	}
	if werr.Message == "" {
		t.Error("Expected an error message")
	}
}

func TestWorker_RecoversPanic(t *testing.T) {
	t.Parallel()

	ch := startWorker(t, funcSegmenter{segment: func(*image.NRGBA, func(int, string)) (*image.NRGBA, error) {
		panic("model exploded")
	}})
	_, _, err := ch.RemoveBackground(context.Background(), subjectOnBackdrop(t, 8, 2), "image/png", 0, nil)
	var werr Error
	if !errors.As(err, &werr) {
		t.Fatalf("Expected panic converted to Error, got %v", err)
	}

	// The worker survives and serves the next request
	if _, _, err := ch.Crop(context.Background(), subjectOnBackdrop(t, 8, 2), "image/png", 0); err != nil {
		t.Errorf("Expected worker to keep serving after a panic, got %v", err)
	}
}

func TestChannel_TimeoutLetsJobFinish(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	finished := make(chan struct{})
	ch := startWorker(t, funcSegmenter{segment: func(img *image.NRGBA, _ func(int, string)) (*image.NRGBA, error) {
		<-release
		close(finished)
		return img, nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := ch.RemoveBackground(ctx, subjectOnBackdrop(t, 8, 2), "image/png", 0, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}

	close(release)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected dispatched job to run to completion")
	}
}

func TestChannel_TimeoutStartsWhenAccepted(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	ch := startWorker(t, funcSegmenter{segment: func(img *image.NRGBA, _ func(int, string)) (*image.NRGBA, error) {
		blocked := false
		once.Do(func() { blocked = true })
		if blocked {
			close(started)
			<-release
		}
		return img, nil
	}})

	busy := make(chan error, 1)
	go func() {
		_, _, err := ch.RemoveBackground(context.Background(), subjectOnBackdrop(t, 8, 2), "image/png", 0, nil)
		busy <- err
	}()
	<-started

	// The second job queues behind the first for three times its timeout
	time.AfterFunc(150*time.Millisecond, func() { close(release) })
	if _, _, err := ch.RemoveBackground(context.Background(), subjectOnBackdrop(t, 8, 2), "image/png", 50*time.Millisecond, nil); err != nil {
		t.Errorf("Expected queued job to get its full timeout once accepted, got %v", err)
	}
	if err := <-busy; err != nil {
		t.Errorf("first job error = %v", err)
	}
}

func TestCrop(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 50, 40))
	for y := 10; y < 20; y++ {
		for x := 20; x < 30; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	ch := startWorker(t, nil)
	out, _, err := ch.Crop(context.Background(), buf.Bytes(), "image/png", 0)
	if err != nil {
		t.Fatalf("Crop() error = %v", err)
	}
	b := decode(t, out).Bounds()
	want := 10 + 2*DefaultCropPadding
	if b.Dx() != want || b.Dy() != want {
		t.Errorf("Expected %dx%d, got %dx%d", want, want, b.Dx(), b.Dy())
	}
}

func TestWorker_Closed(t *testing.T) {
	t.Parallel()

	w := NewWorker(nil, nil)
	w.Start(context.Background())
	w.Close()
	if _, _, err := NewChannel(w).RemoveBackground(context.Background(), nil, "image/png", 0, nil); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("Expected ErrWorkerClosed, got %v", err)
	}
}
