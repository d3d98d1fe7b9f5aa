package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/benvon/smart-wardrobe/internal/imaging/bgremoval"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var (
	red   = color.NRGBA{R: 200, G: 30, B: 40, A: 255}
	navy  = color.NRGBA{R: 25, G: 35, B: 80, A: 255}
	white = color.NRGBA{R: 245, G: 245, B: 245, A: 255}
)

func TestConvert(t *testing.T) {
	t.Parallel()

	img := solid(4, 4, red)
	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		data        []byte
		declared    string
		wantMime    string
		wantChanged bool
		wantErr     bool
	}{
		{"png passes through", pngBytes(t, img), "image/png", "image/png", false, false},
		{"bmp becomes png", bmpBuf.Bytes(), "image/bmp", "image/png", true, false},
		{"garbage passes original through", []byte("definitely not an image"), "image/heic", "image/heic", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Convert(tt.data, tt.declared)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Convert() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.MimeType != tt.wantMime || got.Changed != tt.wantChanged {
				t.Errorf("Convert() = %s changed=%v, want %s changed=%v", got.MimeType, got.Changed, tt.wantMime, tt.wantChanged)
			}
			if tt.wantErr && !bytes.Equal(got.Data, tt.data) {
				t.Error("Expected original bytes on failure")
			}
		})
	}
}

func TestResize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"landscape", 2048, 1024, 1024, 1024, 512},
		{"portrait", 600, 3000, 1024, 204, 1024},
		{"within bounds", 300, 200, 1024, 300, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := Resize(image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.max).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Resize() = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestExtractColors(t *testing.T) {
	t.Parallel()

	// 70% navy, 25% red, 5% transparent white
	img := image.NewNRGBA(image.Rect(0, 0, 100, 1))
	for x := 0; x < 100; x++ {
		switch {
		case x < 70:
			img.SetNRGBA(x, 0, navy)
		case x < 95:
			img.SetNRGBA(x, 0, red)
		default:
			img.SetNRGBA(x, 0, color.NRGBA{R: 245, G: 245, B: 245, A: 10})
		}
	}

	got := ExtractColors(img, DefaultColorOptions())
	if len(got) != 2 || got[0] != "navy" || got[1] != "red" {
		t.Errorf("ExtractColors() = %v, want [navy red]", got)
	}
}

func TestExtractColors_MinShare(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 100, 1))
	for x := 0; x < 100; x++ {
		c := navy
		if x < 2 {
			c = red
		}
		img.SetNRGBA(x, 0, c)
	}
	if got := ExtractColors(img, DefaultColorOptions()); len(got) != 1 || got[0] != "navy" {
		t.Errorf("Expected red below 5%% share to be dropped, got %v", got)
	}
}

func TestExtractColors_FullyTransparent(t *testing.T) {
	t.Parallel()

	if got := ExtractColors(image.NewNRGBA(image.Rect(0, 0, 10, 10)), DefaultColorOptions()); got != nil {
		t.Errorf("Expected no colors, got %v", got)
	}
}

func TestCompressForAnalysis(t *testing.T) {
	t.Parallel()

	uri, err := CompressForAnalysis(solid(2000, 1000, red))
	if err != nil {
		t.Fatal(err)
	}
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("Expected JPEG data URI, got %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width > AnalysisMaxDimension || cfg.Height > AnalysisMaxDimension {
		t.Errorf("Expected at most %dpx, got %dx%d", AnalysisMaxDimension, cfg.Width, cfg.Height)
	}
}

func TestThumbnail(t *testing.T) {
	t.Parallel()

	// Transparent left margin, as left by background removal
	src := solid(400, 200, red)
	for y := range 200 {
		for x := range 40 {
			src.SetNRGBA(x, y, color.NRGBA{})
		}
	}
	data, err := Thumbnail(src)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Expected PNG thumbnail: %v", err)
	}
	if b := img.Bounds(); b.Dx() != PreviewMaxDimension || b.Dy() != PreviewMaxDimension/2 {
		t.Errorf("Expected %dx%d, got %v", PreviewMaxDimension, PreviewMaxDimension/2, b)
	}
	if !HasTransparency(img) {
		t.Error("Expected alpha to survive in the preview")
	}
}

func TestCompressForStorage(t *testing.T) {
	t.Parallel()

	transparent := solid(1200, 900, red)
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			transparent.SetNRGBA(x, y, color.NRGBA{})
		}
	}

	tests := []struct {
		name     string
		img      image.Image
		wantMime string
	}{
		{"opaque becomes jpeg", solid(1200, 900, red), "image/jpeg"},
		{"transparent stays png", transparent, "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, mt, err := CompressForStorage(tt.img)
			if err != nil {
				t.Fatal(err)
			}
			if mt != tt.wantMime {
				t.Errorf("mime = %s, want %s", mt, tt.wantMime)
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Width != StorageMaxDimension {
				t.Errorf("width = %d, want %d", cfg.Width, StorageMaxDimension)
			}
		})
	}
}

type mockRemover struct {
	removeBackground func(ctx context.Context, buf []byte, mimeType string, onProgress func(int, string)) ([]byte, string, error)
	gotSize          image.Point
}

func (m *mockRemover) RemoveBackground(ctx context.Context, buf []byte, mimeType string, timeout time.Duration, onProgress func(int, string)) ([]byte, string, error) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(buf)); err == nil {
		m.gotSize = image.Pt(cfg.Width, cfg.Height)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return m.removeBackground(ctx, buf, mimeType, onProgress)
}

func TestPipeline_Process(t *testing.T) {
	t.Parallel()

	// Red subject on a white backdrop; the remover clears the backdrop
	src := solid(2048, 2048, white)
	for y := 512; y < 1536; y++ {
		for x := 512; x < 1536; x++ {
			src.SetNRGBA(x, y, red)
		}
	}
	remover := &mockRemover{removeBackground: func(_ context.Context, buf []byte, _ string, onProgress func(int, string)) ([]byte, string, error) {
		onProgress(50, "Segmenting subject")
		img, err := Decode(buf)
		if err != nil {
			return nil, "", err
		}
		out := image.NewNRGBA(img.Bounds())
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if c.R > 240 && c.G > 240 {
					c.A = 0
				}
				out.SetNRGBA(x, y, c)
			}
		}
		data, err := EncodePNG(out)
		return data, "image/png", err
	}}

	var labels []string
	res, err := NewPipeline(remover, nil).Process(context.Background(), pngBytes(t, src), "image/png", func(_ int, stage string) {
		labels = append(labels, stage)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if remover.gotSize.X > MaxProcessingDimension || remover.gotSize.Y > MaxProcessingDimension {
		t.Errorf("Expected resize before background removal, remover got %v", remover.gotSize)
	}
	if !res.BackgroundRemoved {
		t.Error("Expected background removed")
	}
	if len(res.Colors) != 1 || res.Colors[0] != "red" {
		t.Errorf("Expected only the subject color, got %v", res.Colors)
	}

	wantOrder := []Stage{StageConvert, StageResize, StageBackground, StageColors}
	if len(res.Stages) != len(wantOrder) {
		t.Fatalf("Expected %d stages, got %d", len(wantOrder), len(res.Stages))
	}
	for i, s := range wantOrder {
		if res.Stages[i].Stage != s || !res.Stages[i].OK {
			t.Errorf("Stage %d = %+v, want %s ok", i, res.Stages[i], s)
		}
	}
	if labels[len(labels)-1] != "Done" {
		t.Errorf("Expected final progress label Done, got %v", labels)
	}
}

func TestPipeline_BackgroundFailureFallsBack(t *testing.T) {
	t.Parallel()

	remover := &mockRemover{removeBackground: func(ctx context.Context, _ []byte, _ string, _ func(int, string)) ([]byte, string, error) {
		<-ctx.Done()
		return nil, "", ctx.Err()
	}}
	p := NewPipeline(remover, nil, WithBackgroundTimeout(10*time.Millisecond))
	res, err := p.Process(context.Background(), pngBytes(t, solid(64, 64, navy)), "image/png", nil)
	if err != nil {
		t.Fatalf("Expected fallback, got error %v", err)
	}
	if res.BackgroundRemoved {
		t.Error("Expected background removal to be reported as failed")
	}
	sr, ok := res.Stage(StageBackground)
	if !ok || sr.OK || !errors.Is(sr.Err, context.DeadlineExceeded) {
		t.Errorf("Expected timed-out background stage, got %+v", sr)
	}
	if len(res.Colors) == 0 || res.Colors[0] != "navy" {
		t.Errorf("Expected colors from resized image, got %v", res.Colors)
	}
	if len(res.Data) == 0 || res.MimeType != "image/png" {
		t.Error("Expected processed data for the fallback image")
	}
}

type slowSegmenter struct {
	delay time.Duration
}

func (s slowSegmenter) Segment(img *image.NRGBA, report func(int, string)) (*image.NRGBA, error) {
	report(50, "Segmenting subject")
	time.Sleep(s.delay)
	return img, nil
}

func TestPipeline_ConcurrentJobsShareWorker(t *testing.T) {
	t.Parallel()

	// Each job fits its timeout, but the last one waits longer than the
	// timeout for the worker to become free
	w := bgremoval.NewWorker(slowSegmenter{delay: 400 * time.Millisecond}, nil)
	w.Start(context.Background())
	t.Cleanup(w.Close)
	p := NewPipeline(bgremoval.NewChannel(w), nil, WithBackgroundTimeout(600*time.Millisecond))

	data := pngBytes(t, solid(32, 32, red))
	const jobs = 3
	results := make([]*Result, jobs)
	errs := make([]error, jobs)
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = p.Process(context.Background(), data, "image/png", nil)
		}()
	}
	wg.Wait()

	for i := range jobs {
		if errs[i] != nil {
			t.Fatalf("job %d: Process() error = %v", i, errs[i])
		}
		if !results[i].BackgroundRemoved {
			sr, _ := results[i].Stage(StageBackground)
			t.Errorf("job %d: expected background removed, stage = %+v", i, sr)
		}
	}
}

func TestPipeline_NoRemoverSkips(t *testing.T) {
	t.Parallel()

	res, err := NewPipeline(nil, nil).Process(context.Background(), pngBytes(t, solid(8, 8, red)), "image/png", nil)
	if err != nil {
		t.Fatal(err)
	}
	if sr, _ := res.Stage(StageBackground); !sr.Skipped {
		t.Errorf("Expected background stage skipped, got %+v", sr)
	}
}

func TestPipeline_Undecodable(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(nil, nil).Process(context.Background(), []byte("nope"), "image/jpeg", nil)
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("Expected ErrUndecodable, got %v", err)
	}
}

func TestPipeline_Options(t *testing.T) {
	t.Parallel()

	// Three quarters red, one quarter navy
	src := solid(128, 64, red)
	for y := range 64 {
		for x := 96; x < 128; x++ {
			src.SetNRGBA(x, y, navy)
		}
	}
	opts := ColorOptions{MaxColors: 1, MinShare: 0.01, AlphaThreshold: 128, MaxSamples: 500}
	p := NewPipeline(nil, nil, WithMaxDimension(32), WithColorOptions(opts))

	res, err := p.Process(context.Background(), pngBytes(t, src), "image/png", nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	b := res.Image.Bounds()
	if b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("Expected 32x16 after resize, got %dx%d", b.Dx(), b.Dy())
	}
	if len(res.Colors) != 1 || res.Colors[0] != "red" {
		t.Errorf("Expected only the dominant color, got %v", res.Colors)
	}
}
