package models

// FileStatus is the preprocessing state of a queued upload
type FileStatus string

const (
	FileStatusPending       FileStatus = "pending"
	FileStatusPreprocessing FileStatus = "preprocessing"
	FileStatusAIAnalyzing   FileStatus = "ai-analyzing"
	FileStatusReady         FileStatus = "ready"
	FileStatusFailed        FileStatus = "failed"
)

// AIStatus is the state of the optional AI analysis step for a queued upload
type AIStatus string

const (
	AIStatusPending   AIStatus = "pending"
	AIStatusAnalyzing AIStatus = "analyzing"
	AIStatusSuccess   AIStatus = "success"
	AIStatusFailed    AIStatus = "failed"
)

// QueuedFile is a batch upload intermediate. It is never persisted.
type QueuedFile struct {
	ID                string
	Name              string
	Data              []byte
	MimeType          string
	Preview           []byte // PNG thumbnail, set once preprocessing succeeds
	ProcessedData     []byte
	ProcessedMimeType string
	AnalysisImage     string // base64 data URI sent to the analysis service
	Colors            []string
	AIAnalysis        *AIClothingAnalysis
	AIStatus          AIStatus
	Category          *Category
	Status            FileStatus
	Error             string
}

// ReadyForCommit reports whether the file has finished preprocessing and has a category
func (f QueuedFile) ReadyForCommit() bool {
	return f.Status == FileStatusReady && f.Category != nil
}

// ResolvedCategory returns the category to commit: the assigned one, else the AI suggestion
func (f QueuedFile) ResolvedCategory() (Category, bool) {
	if f.Category != nil {
		return *f.Category, true
	}
	if f.AIStatus == AIStatusSuccess && f.AIAnalysis != nil && f.AIAnalysis.SuggestedCategory.Valid() {
		return f.AIAnalysis.SuggestedCategory, true
	}
	return "", false
}

// BatchUploadProgress is the aggregate progress of a batch run
type BatchUploadProgress struct {
	Total        int    `json:"total"`
	Processed    int    `json:"processed"`
	SuccessCount int    `json:"successCount"`
	ErrorCount   int    `json:"errorCount"`
	InProgress   bool   `json:"inProgress"`
	CurrentFile  string `json:"currentFile,omitempty"`
}
