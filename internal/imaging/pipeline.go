package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
)

// DefaultBackgroundTimeout bounds one background-removal job once it has started
const DefaultBackgroundTimeout = 60 * time.Second

// ProgressFunc receives overall pipeline progress (0-100) with a human-readable stage label
type ProgressFunc func(percent int, stage string)

// BackgroundRemover runs foreground extraction outside the caller's goroutine.
// Ownership of buf passes to the remover. timeout counts from the moment the
// remover starts the job; time spent queued behind other jobs is bounded by
// ctx alone.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, buf []byte, mimeType string, timeout time.Duration, onProgress func(percent int, stage string)) ([]byte, string, error)
}

// Cropper trims transparent margins after background removal. timeout has
// the same meaning as for RemoveBackground.
type Cropper interface {
	Crop(ctx context.Context, buf []byte, mimeType string, timeout time.Duration) ([]byte, string, error)
}

// Stage identifies one pipeline step
type Stage string

const (
	StageConvert    Stage = "convert"
	StageResize     Stage = "resize"
	StageBackground Stage = "background-removal"
	StageColors     Stage = "color-extraction"
)

// StageResult records how one stage finished
type StageResult struct {
	Stage    Stage
	OK       bool
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Result is the output of stages 1-4
type Result struct {
	Image             image.Image
	Data              []byte // Lossless PNG of Image
	MimeType          string
	Colors            []string
	BackgroundRemoved bool
	Stages            []StageResult
}

// Stage returns the outcome of s
func (r *Result) Stage(s Stage) (StageResult, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageResult{}, false
}

// Pipeline runs the preprocessing stages strictly in order. Every stage has
// a fallback; only an undecodable input aborts.
type Pipeline struct {
	remover      BackgroundRemover
	timeout      time.Duration
	maxDimension int
	colorOpts    ColorOptions
	logger       *zap.Logger
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithBackgroundTimeout overrides the background-removal timeout
func WithBackgroundTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithColorOptions overrides color extraction settings
func WithColorOptions(o ColorOptions) PipelineOption {
	return func(p *Pipeline) { p.colorOpts = o }
}

// WithMaxDimension overrides the resize bound
func WithMaxDimension(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxDimension = n
		}
	}
}

// NewPipeline creates a pipeline. A nil remover skips background removal.
func NewPipeline(remover BackgroundRemover, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		remover:      remover,
		timeout:      DefaultBackgroundTimeout,
		maxDimension: MaxProcessingDimension,
		colorOpts:    DefaultColorOptions(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs convert, resize, background removal and color extraction
func (p *Pipeline) Process(ctx context.Context, data []byte, mimeType string, onProgress ProgressFunc) (*Result, error) {
	if onProgress == nil {
		onProgress = func(int, string) {}
	}
	res := &Result{}
	record := func(s Stage, start time.Time, err error, skipped bool) {
		res.Stages = append(res.Stages, StageResult{
			Stage:    s,
			OK:       err == nil && !skipped,
			Skipped:  skipped,
			Err:      err,
			Duration: time.Since(start),
		})
	}

	// 1. Format conversion
	onProgress(5, "Converting format")
	start := time.Now()
	conv, err := Convert(data, mimeType)
	record(StageConvert, start, err, false)
	if err != nil {
		p.logger.Warn("format_conversion_fallback", zap.String("mime_type", mimeType), zap.Error(err))
	}
	img, err := Decode(conv.Data)
	if err != nil {
		return res, err
	}

	// 2. Resize before background removal
	onProgress(15, "Resizing")
	start = time.Now()
	img = Resize(img, p.maxDimension)
	record(StageResize, start, nil, false)

	// 3. Background removal
	start = time.Now()
	if p.remover == nil {
		record(StageBackground, start, nil, true)
	} else {
		onProgress(20, "Removing background")
		removed, err := p.removeBackground(ctx, img, onProgress)
		record(StageBackground, start, err, false)
		if err != nil {
			p.logger.Warn("background_removal_fallback", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		} else {
			img = removed
			res.BackgroundRemoved = true
		}
	}

	// 4. Color extraction on the (possibly transparent) subject
	onProgress(90, "Extracting colors")
	start = time.Now()
	res.Colors = ExtractColors(img, p.colorOpts)
	var colorErr error
	if len(res.Colors) == 0 {
		colorErr = errors.New("no opaque pixels to sample")
	}
	record(StageColors, start, colorErr, false)

	out, err := EncodePNG(img)
	if err != nil {
		return res, err
	}
	res.Image = img
	res.Data = out
	res.MimeType = "image/png"
	onProgress(100, "Done")
	return res, nil
}

func (p *Pipeline) removeBackground(ctx context.Context, img image.Image, onProgress ProgressFunc) (image.Image, error) {
	buf, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	out, mt, err := p.remover.RemoveBackground(ctx, buf, "image/png", p.timeout, func(percent int, stage string) {
		// Worker progress maps onto 20-85 of the overall bar
		onProgress(20+percent*65/100, stage)
	})
	if err != nil {
		return nil, err
	}

	if cropper, ok := p.remover.(Cropper); ok {
		if cropped, cmt, cerr := cropper.Crop(ctx, out, mt, p.timeout); cerr == nil {
			out, mt = cropped, cmt
		} else {
			p.logger.Debug("smart_crop_skipped", zap.Error(cerr))
		}
	}

	removed, err := Decode(out)
	if err != nil {
		return nil, fmt.Errorf("decode %s from worker: %w", mt, err)
	}
	return removed, nil
}
