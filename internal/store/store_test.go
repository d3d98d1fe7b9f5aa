package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// memBlobs is an in-memory BlobStore
type memBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	puts   int
	putErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: make(map[string][]byte)}
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestStore_LoadMissingBlob(t *testing.T) {
	t.Parallel()

	s := New(newMemBlobs(), nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.Profile.HasCompletedOnboarding || len(snap.Wardrobe) != 0 || snap.Theme != ThemeSystem {
		t.Errorf("Expected initial state, got %+v", snap)
	}
}

func TestStore_PersistsDurableSliceOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newMemBlobs()
	s := New(blobs, nil)

	if err := s.AddClothingItem(ctx, testItem("a", models.CategoryTop)); err != nil {
		t.Fatal(err)
	}
	if err := s.EnqueueFiles([]models.QueuedFile{{ID: "f1", Data: []byte("raw")}}); err != nil {
		t.Fatal(err)
	}
	s.SetWeather(models.WeatherData{Temperature: 20}, time.Now())
	if err := s.SetTheme(ctx, ThemeDark); err != nil {
		t.Fatal(err)
	}

	raw, err := blobs.Get(ctx, StorageKey)
	if err != nil {
		t.Fatalf("Expected persisted state, got %v", err)
	}
	var env struct {
		Version int                        `json:"version"`
		State   map[string]json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatal(err)
	}
	if env.Version != PersistVersion {
		t.Errorf("Expected version %d, got %d", PersistVersion, env.Version)
	}
	for _, k := range []string{"profile", "wardrobe", "outfitHistory", "todaysPick", "dailySuggestions", "theme"} {
		if _, ok := env.State[k]; !ok {
			t.Errorf("Expected %q in persisted state", k)
		}
	}
	for _, k := range []string{"batch", "Batch", "queue", "weather", "Weather"} {
		if _, ok := env.State[k]; ok {
			t.Errorf("Expected %q to be excluded from persisted state", k)
		}
	}

	reloaded := New(blobs, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	snap := reloaded.Snapshot()
	if len(snap.Wardrobe) != 1 || snap.Theme != ThemeDark {
		t.Errorf("Expected wardrobe and theme to round-trip, got %+v", snap)
	}
	if len(snap.Batch.Queue) != 0 || snap.Weather != nil {
		t.Error("Expected batch and weather to start empty after reload")
	}
}

func TestStore_FailedTransitionDoesNotPersist(t *testing.T) {
	t.Parallel()

	blobs := newMemBlobs()
	s := New(blobs, nil)
	err := s.CompleteOnboarding(context.Background(), ProfileUpdate{FavoriteColors: []string{"red"}})
	if !errors.Is(err, ErrTooFewFavoriteColors) {
		t.Fatalf("Expected ErrTooFewFavoriteColors, got %v", err)
	}
	if blobs.puts != 0 {
		t.Errorf("Expected no writes, got %d", blobs.puts)
	}
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()

	blobs := newMemBlobs()
	blobs.putErr = errors.New("disk full")
	s := New(blobs, nil)
	if err := s.AddClothingItem(context.Background(), testItem("a", models.CategoryTop)); err == nil {
		t.Fatal("Expected persist error")
	}
	if len(s.Snapshot().Wardrobe) != 1 {
		t.Error("Expected in-memory state to keep the item")
	}
}

func TestStore_SetDailySuggestionsSetsPick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(newMemBlobs(), nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.AddClothingItem(ctx, testItem(id, models.CategoryTop)); err != nil {
			t.Fatal(err)
		}
	}
	err := s.SetDailySuggestions(ctx, "2026-01-02", []models.Outfit{
		testOutfit("d1", "a", "b"),
		testOutfit("d2", "b", "a"),
		testOutfit("d3", "c"),
	}, models.OutfitSourceAI)
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if got := len(snap.DailySuggestions.Outfits); got != 2 {
		t.Errorf("Expected 2 distinct suggestions, got %d", got)
	}
	if snap.TodaysPick == nil || snap.TodaysPick.ID != "d1" {
		t.Errorf("Expected today's pick d1, got %+v", snap.TodaysPick)
	}
}

func TestStore_EnqueueRespectsBound(t *testing.T) {
	t.Parallel()

	s := New(newMemBlobs(), nil, WithMaxQueueSize(2))
	if err := s.EnqueueFiles([]models.QueuedFile{{ID: "1"}, {ID: "2"}, {ID: "3"}}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, got %v", err)
	}
	if n := len(s.Snapshot().Batch.Queue); n != 0 {
		t.Errorf("Expected empty queue, got %d", n)
	}
}

func TestStore_ConcurrentAddOutfit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(newMemBlobs(), nil)
	for _, id := range []string{"a", "b"} {
		if err := s.AddClothingItem(ctx, testItem(id, models.CategoryTop)); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddOutfit(ctx, testOutfit("o", "a", "b"))
		}()
	}
	wg.Wait()

	if n := len(s.Snapshot().OutfitHistory); n != 1 {
		t.Errorf("Expected 1 outfit after concurrent adds, got %d", n)
	}
}

func TestWeatherCache_TTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := NewWeatherCache(newMemBlobs(), DefaultWeatherTTL)
	cache.now = func() time.Time { return base }

	if _, _, ok := cache.Get(ctx); ok {
		t.Fatal("Expected empty cache to miss")
	}
	if _, err := cache.Put(ctx, models.WeatherData{Temperature: 14, Condition: "Cloudy"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		fresh   bool
	}{
		{"immediately", 0, true},
		{"29 minutes", 29 * time.Minute, true},
		{"exactly 30 minutes", 30 * time.Minute, false},
		{"31 minutes", 31 * time.Minute, false},
	}
	for _, tt := range tests {
		cache.now = func() time.Time { return base.Add(tt.elapsed) }
		w, cachedAt, ok := cache.Get(ctx)
		if ok != tt.fresh {
			t.Errorf("%s: fresh = %v, want %v", tt.name, ok, tt.fresh)
		}
		if ok && (w.Condition != "Cloudy" || !cachedAt.Equal(base)) {
			t.Errorf("%s: unexpected cached value %+v at %v", tt.name, w, cachedAt)
		}
	}
}

func TestFileBlobStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Get(ctx, StorageKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := fs.Put(ctx, StorageKey, []byte(`{"version":2}`)); err != nil {
		t.Fatal(err)
	}
	got, err := fs.Get(ctx, StorageKey)
	if err != nil || string(got) != `{"version":2}` {
		t.Errorf("Get() = %q, %v", got, err)
	}
	if err := fs.Delete(ctx, StorageKey); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete(ctx, StorageKey); err != nil {
		t.Errorf("Expected deleting a missing blob to succeed, got %v", err)
	}
	if err := fs.Put(ctx, "../escape", nil); err == nil {
		t.Error("Expected path traversal key to be rejected")
	}
}
