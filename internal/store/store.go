package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// DefaultMaxQueueSize bounds the batch upload queue
const DefaultMaxQueueSize = 20

// Transition is a pure state transition
type Transition func(State) (State, error)

// Store is the single shared mutable holder of State. Each action applies
// one transition atomically; async workflows commit several in sequence.
type Store struct {
	mu           sync.RWMutex
	state        State
	blobs        BlobStore
	logger       *zap.Logger
	now          func() time.Time
	maxQueueSize int
}

// Option configures a Store
type Option func(*Store)

// WithMaxQueueSize overrides the upload queue bound
func WithMaxQueueSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxQueueSize = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store holding the initial state. Call Load to rehydrate.
func New(blobs BlobStore, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		state:        Initial(),
		blobs:        blobs,
		logger:       logger,
		now:          time.Now,
		maxQueueSize: DefaultMaxQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load rehydrates from durable storage, migrates older schemas and repairs
// duplicate outfits once. A missing blob leaves the initial state in place.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.blobs.Get(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("state_initialized")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read persisted state: %w", err)
	}

	loaded, report, err := decodeState(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = loaded

	s.logger.Info("state_loaded",
		zap.Int("schema_version", report.FromVersion),
		zap.Int("wardrobe_size", len(loaded.Wardrobe)),
		zap.Int("history_size", len(loaded.OutfitHistory)),
		zap.Bool("profile_backfilled", report.ProfileBackfill),
		zap.Int("legacy_outfits", report.LegacyOutfits),
		zap.Int("dangling_outfits", report.DanglingOutfits),
		zap.Int("duplicate_outfits", report.DuplicateOutfits),
	)

	if report.Changed() {
		return s.persistLocked(ctx)
	}
	return nil
}

// Snapshot returns the current state. Treat it as read-only.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies a transition and persists the durable slice. A failed
// transition leaves the state unchanged. A failed write keeps the new
// in-memory state and returns the error.
func (s *Store) Dispatch(ctx context.Context, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := t(s.state)
	if err != nil {
		return err
	}
	s.state = next
	return s.persistLocked(ctx)
}

// DispatchTransient applies a transition to non-durable state (batch, weather)
func (s *Store) DispatchTransient(t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := t(s.state)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := encodeState(s.state)
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, StorageKey, data); err != nil {
		s.logger.Error("state_persist_failed", zap.Error(err))
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

func pure(f func(State) State) Transition {
	return func(s State) (State, error) { return f(s), nil }
}

// AddClothingItem appends an item to the wardrobe
func (s *Store) AddClothingItem(ctx context.Context, item models.ClothingItem) error {
	return s.Dispatch(ctx, pure(func(st State) State { return AddClothingItem(st, item) }))
}

// RemoveClothingItem removes an item and cascades into every outfit reference
func (s *Store) RemoveClothingItem(ctx context.Context, id string) error {
	return s.Dispatch(ctx, pure(func(st State) State { return RemoveClothingItem(st, id) }))
}

// AddOutfit records an outfit in history; duplicates are silently ignored.
// It reports whether the outfit was new.
func (s *Store) AddOutfit(ctx context.Context, o models.Outfit) (bool, error) {
	var added bool
	err := s.Dispatch(ctx, func(st State) (State, error) {
		var next State
		next, added = AddOutfit(st, o)
		return next, nil
	})
	return added, err
}

// RemoveDuplicateOutfits repairs history, returning how many entries were dropped
func (s *Store) RemoveDuplicateOutfits(ctx context.Context) (int, error) {
	var removed int
	err := s.Dispatch(ctx, pure(func(st State) State {
		next := RemoveDuplicateOutfits(st)
		removed = len(st.OutfitHistory) - len(next.OutfitHistory)
		return next
	}))
	return removed, err
}

// SetDailySuggestions caches the day's outfits and sets today's pick to the first one
func (s *Store) SetDailySuggestions(ctx context.Context, date string, outfits []models.Outfit, source models.OutfitSource) error {
	return s.Dispatch(ctx, pure(func(st State) State {
		st = SetDailySuggestions(st, date, outfits, source)
		var pick *models.Outfit
		if len(st.DailySuggestions.Outfits) > 0 {
			pick = &st.DailySuggestions.Outfits[0]
		}
		return SetTodaysPick(st, pick)
	}))
}

// SetTodaysPick sets or clears today's pick
func (s *Store) SetTodaysPick(ctx context.Context, o *models.Outfit) error {
	return s.Dispatch(ctx, pure(func(st State) State { return SetTodaysPick(st, o) }))
}

// ClearDailySuggestions forces the next daily request to regenerate
func (s *Store) ClearDailySuggestions(ctx context.Context) error {
	return s.Dispatch(ctx, pure(ClearDailySuggestions))
}

// CompleteOnboarding finishes the basic questionnaire
func (s *Store) CompleteOnboarding(ctx context.Context, u ProfileUpdate) error {
	return s.Dispatch(ctx, func(st State) (State, error) { return CompleteOnboarding(st, u, s.now()) })
}

// CompleteOnboardingEnhanced finishes the extended questionnaire, merging into the profile
func (s *Store) CompleteOnboardingEnhanced(ctx context.Context, u ProfileUpdate) error {
	return s.Dispatch(ctx, func(st State) (State, error) { return CompleteOnboardingEnhanced(st, u, s.now()) })
}

// ResetOnboarding clears the completion flag only
func (s *Store) ResetOnboarding(ctx context.Context) error {
	return s.Dispatch(ctx, pure(ResetOnboarding))
}

// UpdateProfile applies a settings edit
func (s *Store) UpdateProfile(ctx context.Context, u ProfileUpdate) error {
	return s.Dispatch(ctx, func(st State) (State, error) { return UpdateProfile(st, u) })
}

// SetTheme sets the UI theme
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	return s.Dispatch(ctx, func(st State) (State, error) { return SetTheme(st, t) })
}

// ResetApp reinitializes everything to defaults
func (s *Store) ResetApp(ctx context.Context) error {
	return s.Dispatch(ctx, pure(Reset))
}

// SetWeather commits a successful weather fetch
func (s *Store) SetWeather(w models.WeatherData, fetchedAt time.Time) {
	_ = s.DispatchTransient(pure(func(st State) State { return SetWeather(st, w, fetchedAt) }))
}

// SetWeatherError records a failed weather fetch
func (s *Store) SetWeatherError(msg string) {
	_ = s.DispatchTransient(pure(func(st State) State { return SetWeatherError(st, msg) }))
}

// EnqueueFiles adds files to the upload queue or rejects all of them with ErrQueueFull
func (s *Store) EnqueueFiles(files []models.QueuedFile) error {
	return s.DispatchTransient(func(st State) (State, error) { return EnqueueFiles(st, files, s.maxQueueSize) })
}

// UpdateQueuedFile mutates a copy of one queued file
func (s *Store) UpdateQueuedFile(id string, fn func(*models.QueuedFile)) {
	_ = s.DispatchTransient(pure(func(st State) State { return UpdateQueuedFile(st, id, fn) }))
}

// RemoveQueuedFile drops a file from the queue
func (s *Store) RemoveQueuedFile(id string) {
	_ = s.DispatchTransient(pure(func(st State) State { return RemoveQueuedFile(st, id) }))
}

// ClearQueue discards the queue and resets progress
func (s *Store) ClearQueue() {
	_ = s.DispatchTransient(pure(ClearQueue))
}

// SetBatchProgress replaces the aggregate progress
func (s *Store) SetBatchProgress(p models.BatchUploadProgress) {
	_ = s.DispatchTransient(pure(func(st State) State { return SetBatchProgress(st, p) }))
}

// UpdateBatchProgress applies fn to the current progress atomically
func (s *Store) UpdateBatchProgress(fn func(*models.BatchUploadProgress)) {
	_ = s.DispatchTransient(pure(func(st State) State {
		p := st.Batch.Progress
		fn(&p)
		return SetBatchProgress(st, p)
	}))
}

// MaxQueueSize returns the upload queue bound
func (s *Store) MaxQueueSize() int {
	return s.maxQueueSize
}
