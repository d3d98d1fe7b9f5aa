package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/batch"
	"github.com/benvon/smart-wardrobe/internal/imagestore"
	"github.com/benvon/smart-wardrobe/internal/imaging"
	"github.com/benvon/smart-wardrobe/internal/logger"
	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/palette"
)

// Upload is a raw file handed to AddBatchFiles
type Upload struct {
	Name     string
	Data     []byte
	MimeType string
}

// AddBatchFiles enqueues files and preprocesses them: pipeline stages 1-4
// followed by AI analysis. The whole request is rejected with
// store.ErrQueueFull when it would overflow the queue. Per-file failures are
// recorded on the file and counted in the summary, never returned.
func (e *Engine) AddBatchFiles(ctx context.Context, uploads []Upload) (batch.Summary, error) {
	files := make([]models.QueuedFile, len(uploads))
	for i, u := range uploads {
		files[i] = models.QueuedFile{
			ID:       e.newID(),
			Name:     u.Name,
			Data:     u.Data,
			MimeType: u.MimeType,
			Status:   models.FileStatusPending,
			AIStatus: models.AIStatusPending,
		}
	}
	if err := e.store.EnqueueFiles(files); err != nil {
		return batch.Summary{}, err
	}

	e.logger.Info("batch_files_enqueued", zap.Int("count", len(files)))

	e.store.SetBatchProgress(models.BatchUploadProgress{Total: len(files), InProgress: true})
	summary := e.batch.Run(ctx, len(files), func(ctx context.Context, i int) error {
		return e.preprocess(ctx, files[i])
	}, e.progressFunc(files))
	e.finishProgress(summary)
	return summary, nil
}

func (e *Engine) progressFunc(files []models.QueuedFile) batch.ProgressFunc {
	return func(p batch.Progress, index int, _ error) {
		e.store.SetBatchProgress(models.BatchUploadProgress{
			Total:        p.Total,
			Processed:    p.Processed,
			SuccessCount: p.Success,
			ErrorCount:   p.Errors,
			InProgress:   p.Processed < p.Total,
			CurrentFile:  files[index].Name,
		})
	}
}

func (e *Engine) finishProgress(s batch.Summary) {
	e.store.UpdateBatchProgress(func(p *models.BatchUploadProgress) {
		p.InProgress = false
		p.CurrentFile = ""
	})
	e.logger.Info("batch_run_finished",
		zap.Int("total", s.Total),
		zap.Int("processed", s.Processed),
		zap.Int("success", s.Success),
		zap.Int("errors", s.Errors),
		zap.Bool("cancelled", s.Cancelled),
		zap.Int("final_window", s.FinalWindow),
	)
}

func (e *Engine) preprocess(ctx context.Context, f models.QueuedFile) error {
	name := logger.FileName(f.Name)
	e.store.UpdateQueuedFile(f.ID, func(q *models.QueuedFile) {
		q.Status = models.FileStatusPreprocessing
	})

	res, err := e.pipeline.Process(ctx, f.Data, f.MimeType, func(percent int, stage string) {
		e.onFile(f.ID, percent, stage)
	})
	if err != nil {
		e.logger.Warn("preprocessing_failed", logger.File(f.Name), zap.Error(err))
		e.store.UpdateQueuedFile(f.ID, func(q *models.QueuedFile) {
			q.Status = models.FileStatusFailed
			q.Error = err.Error()
		})
		return fmt.Errorf("preprocess %s: %w", name, err)
	}

	analysisImage, err := imaging.CompressForAnalysis(res.Image)
	if err != nil {
		e.logger.Warn("analysis_compression_failed", logger.File(f.Name), zap.Error(err))
	}
	preview, err := imaging.Thumbnail(res.Image)
	if err != nil {
		e.logger.Warn("preview_failed", logger.File(f.Name), zap.Error(err))
	}

	e.store.UpdateQueuedFile(f.ID, func(q *models.QueuedFile) {
		q.Preview = preview
		q.ProcessedData = res.Data
		q.ProcessedMimeType = res.MimeType
		q.Colors = res.Colors
		q.AnalysisImage = analysisImage
		q.Status = models.FileStatusAIAnalyzing
		q.AIStatus = models.AIStatusAnalyzing
	})

	analysis, err := e.analyze(ctx, analysisImage)
	e.store.UpdateQueuedFile(f.ID, func(q *models.QueuedFile) {
		q.Status = models.FileStatusReady
		if err != nil {
			q.AIStatus = models.AIStatusFailed
			q.Error = err.Error()
			return
		}
		q.AIStatus = models.AIStatusSuccess
		q.AIAnalysis = analysis
		if q.Category == nil && analysis.SuggestedCategory.Valid() {
			c := analysis.SuggestedCategory
			q.Category = &c
		}
	})
	if err != nil {
		e.logger.Info("ai_analysis_skipped", logger.File(f.Name), zap.Error(err))
	}
	e.onFile(f.ID, 100, "Ready")
	return nil
}

func (e *Engine) analyze(ctx context.Context, dataURI string) (*models.AIClothingAnalysis, error) {
	if e.analyzer == nil {
		return nil, errors.New("analysis service not configured")
	}
	if dataURI == "" {
		return nil, errors.New("no analysis image")
	}
	resp, err := e.analyzer.AnalyzeClothing(ctx, dataURI, e.store.Snapshot().Profile.StylePreferences)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Analysis == nil {
		msg := resp.Error
		if msg == "" {
			msg = "analysis missing from response"
		}
		return nil, errors.New(msg)
	}
	return resp.Analysis, nil
}

// AssignCategory sets the category of a queued file manually
func (e *Engine) AssignCategory(fileID string, category models.Category) error {
	if !category.Valid() {
		return fmt.Errorf("invalid category %q", category)
	}
	if _, ok := e.store.Snapshot().QueuedFile(fileID); !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	e.store.UpdateQueuedFile(fileID, func(q *models.QueuedFile) {
		q.Category = &category
	})
	return nil
}

// RemoveQueuedFile drops a file from the upload queue
func (e *Engine) RemoveQueuedFile(fileID string) {
	e.store.RemoveQueuedFile(fileID)
}

// ClearQueue discards every queued file
func (e *Engine) ClearQueue() {
	e.store.ClearQueue()
}

// StartBatchUpload commits every ready file that has a category: storage
// compression, image persistence, then a ClothingItem in the wardrobe. A
// committed file leaves the queue; a failed one stays with its error set.
func (e *Engine) StartBatchUpload(ctx context.Context) (batch.Summary, error) {
	var ready []models.QueuedFile
	for _, f := range e.store.Snapshot().Batch.Queue {
		if f.ReadyForCommit() {
			ready = append(ready, f)
		}
	}
	if len(ready) == 0 {
		return batch.Summary{}, nil
	}

	e.store.SetBatchProgress(models.BatchUploadProgress{Total: len(ready), InProgress: true})
	summary := e.batch.Run(ctx, len(ready), func(ctx context.Context, i int) error {
		return e.commit(ctx, ready[i])
	}, e.progressFunc(ready))
	e.finishProgress(summary)
	return summary, nil
}

func (e *Engine) commit(ctx context.Context, f models.QueuedFile) error {
	name := logger.FileName(f.Name)
	fail := func(err error) error {
		e.logger.Warn("batch_commit_failed", logger.File(f.Name), zap.Error(err))
		e.store.UpdateQueuedFile(f.ID, func(q *models.QueuedFile) {
			q.Error = err.Error()
		})
		return fmt.Errorf("commit %s: %w", name, err)
	}

	category, _ := f.ResolvedCategory()

	img, err := imaging.Decode(f.ProcessedData)
	if err != nil {
		return fail(err)
	}
	data, mimeType, err := imaging.CompressForStorage(img)
	if err != nil {
		return fail(err)
	}

	now := e.now()
	key := imagestore.ImageKey(now, f.ID)
	if err := e.images.Put(ctx, key, data, mimeType); err != nil {
		return fail(err)
	}

	item := models.ClothingItem{
		ID:         e.newID(),
		Category:   category,
		Colors:     itemColors(f),
		ImageID:    key,
		UploadedAt: now,
		AIAnalysis: f.AIAnalysis,
	}
	if f.AIAnalysis != nil {
		item.Style = f.AIAnalysis.SuggestedStyles
	}

	if err := e.store.AddClothingItem(ctx, item); err != nil {
		if derr := e.images.Delete(ctx, key); derr != nil {
			e.logger.Warn("orphan_image_cleanup_failed", zap.String("image_id", key), zap.Error(derr))
		}
		return fail(err)
	}
	e.store.RemoveQueuedFile(f.ID)

	e.logger.Info("clothing_item_added",
		zap.String("item_id", item.ID),
		zap.String("category", string(item.Category)),
		zap.Int("image_bytes", len(data)),
	)
	return nil
}

// itemColors prefers extracted colors and falls back to the AI's detected ones
func itemColors(f models.QueuedFile) []string {
	if len(f.Colors) > 0 || f.AIAnalysis == nil {
		return f.Colors
	}
	colors := make([]string, 0, len(f.AIAnalysis.DetectedColors))
	for _, c := range f.AIAnalysis.DetectedColors {
		if pc, ok := palette.Lookup(c); ok {
			colors = append(colors, pc.Name)
		}
	}
	return colors
}

// RemoveItem removes a wardrobe item with its outfit references, then
// deletes its image. Image deletion is best-effort. Unknown ids are a no-op.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	item, ok := e.store.Snapshot().Item(id)
	if !ok {
		e.logger.Debug("remove_item_unknown", zap.String("item_id", id))
		return nil
	}
	if err := e.store.RemoveClothingItem(ctx, id); err != nil {
		return err
	}
	if item.ImageID != "" && e.images != nil {
		if err := e.images.Delete(ctx, item.ImageID); err != nil && !errors.Is(err, imagestore.ErrNotFound) {
			e.logger.Warn("image_delete_failed", zap.String("image_id", item.ImageID), zap.Error(err))
		}
	}
	return nil
}
