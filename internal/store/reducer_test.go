package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
)

func testItem(id string, cat models.Category) models.ClothingItem {
	return models.ClothingItem{ID: id, Category: cat, Colors: []string{"black"}, UploadedAt: time.Unix(0, 0)}
}

func testOutfit(id string, itemIDs ...string) models.Outfit {
	return models.Outfit{ID: id, ItemIDs: itemIDs, Source: models.OutfitSourceClassic}
}

func stateWithItems(ids ...string) State {
	s := Initial()
	for _, id := range ids {
		s = AddClothingItem(s, testItem(id, models.CategoryTop))
	}
	return s
}

func assertNoDuplicates(t *testing.T, outfits []models.Outfit) {
	t.Helper()
	seen := outfit.NewSet()
	for _, o := range outfits {
		if !seen.Add(outfit.Of(o)) {
			t.Errorf("Duplicate outfit fingerprint %q", outfit.Of(o))
		}
	}
}

func assertResolvable(t *testing.T, s State) {
	t.Helper()
	check := func(where string, o models.Outfit) {
		for _, id := range o.ItemIDs {
			if _, ok := s.Item(id); !ok {
				t.Errorf("%s outfit %s references missing item %s", where, o.ID, id)
			}
		}
	}
	for _, o := range s.OutfitHistory {
		check("history", o)
	}
	if s.DailySuggestions != nil {
		for _, o := range s.DailySuggestions.Outfits {
			check("daily", o)
		}
	}
	if s.TodaysPick != nil {
		check("todaysPick", *s.TodaysPick)
	}
}

func TestAddOutfit_IgnoresDuplicates(t *testing.T) {
	t.Parallel()

	s := stateWithItems("a", "b", "c")
	sequence := []models.Outfit{
		testOutfit("o1", "a", "b"),
		testOutfit("o2", "b", "a"),
		testOutfit("o3", "a", "b", "c"),
		testOutfit("o4", "a", "b", "b"),
		testOutfit("o5", "c", "b", "a"),
	}
	added := 0
	for _, o := range sequence {
		var ok bool
		s, ok = AddOutfit(s, o)
		if ok {
			added++
		}
	}
	if added != 2 {
		t.Errorf("Expected 2 outfits to be added, got %d", added)
	}
	assertNoDuplicates(t, s.OutfitHistory)
	if s.OutfitHistory[0].ID != "o1" || s.OutfitHistory[1].ID != "o3" {
		t.Errorf("Expected first-seen outfits to win, got %s, %s", s.OutfitHistory[0].ID, s.OutfitHistory[1].ID)
	}
}

func TestAddOutfit_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	before := stateWithItems("a", "b")
	after, ok := AddOutfit(before, testOutfit("o1", "a", "b"))
	if !ok {
		t.Fatal("Expected outfit to be added")
	}
	if len(before.OutfitHistory) != 0 {
		t.Errorf("Expected previous snapshot to be unchanged, got %d outfits", len(before.OutfitHistory))
	}
	if len(after.OutfitHistory) != 1 {
		t.Errorf("Expected 1 outfit, got %d", len(after.OutfitHistory))
	}
}

func TestRemoveDuplicateOutfits_Idempotent(t *testing.T) {
	t.Parallel()

	s := stateWithItems("a", "b", "c")
	s.OutfitHistory = []models.Outfit{
		testOutfit("o1", "a", "b"),
		testOutfit("o2", "b", "a"),
		testOutfit("o3", "c"),
		testOutfit("o4", "a", "b"),
	}
	s.DailySuggestions = &models.DailySuggestions{
		Date:    "2026-01-02",
		Outfits: []models.Outfit{testOutfit("d1", "c"), testOutfit("d2", "c")},
	}

	once := RemoveDuplicateOutfits(s)
	twice := RemoveDuplicateOutfits(once)

	if len(once.OutfitHistory) != 2 {
		t.Fatalf("Expected 2 outfits after dedup, got %d", len(once.OutfitHistory))
	}
	if once.OutfitHistory[0].ID != "o1" || once.OutfitHistory[1].ID != "o3" {
		t.Errorf("Expected o1, o3 to survive, got %s, %s", once.OutfitHistory[0].ID, once.OutfitHistory[1].ID)
	}
	if len(once.DailySuggestions.Outfits) != 1 {
		t.Errorf("Expected 1 daily suggestion after dedup, got %d", len(once.DailySuggestions.Outfits))
	}
	if len(twice.OutfitHistory) != len(once.OutfitHistory) || len(twice.DailySuggestions.Outfits) != len(once.DailySuggestions.Outfits) {
		t.Error("Expected a second dedup to change nothing")
	}
	if len(s.OutfitHistory) != 4 {
		t.Error("Expected input snapshot to be unchanged")
	}
}

func TestRemoveClothingItem_Cascades(t *testing.T) {
	t.Parallel()

	s := stateWithItems("a", "b", "c", "d")
	s, _ = AddOutfit(s, testOutfit("o1", "a", "b"))
	s, _ = AddOutfit(s, testOutfit("o2", "c", "d"))
	s = SetDailySuggestions(s, "2026-01-02", []models.Outfit{
		testOutfit("d1", "a", "c"),
		testOutfit("d2", "b", "d"),
	}, models.OutfitSourceClassic)
	pick := testOutfit("d1", "a", "c")
	s = SetTodaysPick(s, &pick)

	s = RemoveClothingItem(s, "a")

	if _, ok := s.Item("a"); ok {
		t.Error("Expected item a to be removed")
	}
	if len(s.OutfitHistory) != 1 || s.OutfitHistory[0].ID != "o2" {
		t.Errorf("Expected only o2 in history, got %+v", s.OutfitHistory)
	}
	if s.DailySuggestions == nil || len(s.DailySuggestions.Outfits) != 1 || s.DailySuggestions.Outfits[0].ID != "d2" {
		t.Errorf("Expected only d2 in daily suggestions, got %+v", s.DailySuggestions)
	}
	if s.TodaysPick != nil {
		t.Error("Expected today's pick to be cleared")
	}
	assertResolvable(t, s)

	s = RemoveClothingItem(s, "d")
	if s.DailySuggestions != nil {
		t.Error("Expected daily suggestions to be cleared once empty")
	}
	assertResolvable(t, s)
}

func TestRemoveClothingItem_UnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	s := stateWithItems("a")
	s, _ = AddOutfit(s, testOutfit("o1", "a"))
	after := RemoveClothingItem(s, "missing")
	if len(after.Wardrobe) != 1 || len(after.OutfitHistory) != 1 {
		t.Errorf("Expected no change, got %d items and %d outfits", len(after.Wardrobe), len(after.OutfitHistory))
	}
}

func TestCompleteOnboarding(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		update  ProfileUpdate
		wantErr error
	}{
		{"three colors", ProfileUpdate{FavoriteColors: []string{"red", "blue", "green"}}, nil},
		{"two colors", ProfileUpdate{FavoriteColors: []string{"red", "blue"}}, ErrTooFewFavoriteColors},
		{"no colors", ProfileUpdate{}, ErrTooFewFavoriteColors},
		{"score out of range", ProfileUpdate{
			FavoriteColors:   []string{"red", "blue", "green"},
			StylePreferences: map[models.StyleTag]int{models.StyleCasual: 11},
		}, ErrInvalidStyleScore},
		{"unknown style", ProfileUpdate{
			FavoriteColors:   []string{"red", "blue", "green"},
			StylePreferences: map[models.StyleTag]int{"grunge": 5},
		}, ErrInvalidStyleScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := CompleteOnboarding(Initial(), tt.update, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if s.Profile.HasCompletedOnboarding {
					t.Error("Expected onboarding to stay incomplete on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !s.Profile.HasCompletedOnboarding || s.Profile.CompletedAt == nil || !s.Profile.CompletedAt.Equal(now) {
				t.Errorf("Expected onboarding completed at %v, got %+v", now, s.Profile)
			}
		})
	}
}

func TestCompleteOnboardingEnhanced_Merges(t *testing.T) {
	t.Parallel()

	s := Initial()
	s, err := UpdateProfile(s, ProfileUpdate{
		StylePreferences: map[models.StyleTag]int{models.StyleFormal: 9},
		Location:         &models.Location{Latitude: 51.5, Longitude: -0.12},
		Lifestyle:        &models.Lifestyle{WorkEnvironment: "office", ActivityLevel: "high"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	s, err = CompleteOnboardingEnhanced(s, ProfileUpdate{
		StylePreferences: map[models.StyleTag]int{models.StyleCasual: 2},
		FavoriteColors:   []string{"navy", "white", "olive"},
		Lifestyle:        &models.Lifestyle{ActivityLevel: "low"},
	}, time.Unix(100, 0))
	if err != nil {
		t.Fatalf("CompleteOnboardingEnhanced() error = %v", err)
	}

	p := s.Profile
	if p.StyleScore(models.StyleFormal) != 9 || p.StyleScore(models.StyleCasual) != 2 {
		t.Errorf("Expected style scores merged, got %v", p.StylePreferences)
	}
	if p.Location == nil || p.Location.Latitude != 51.5 {
		t.Error("Expected location to survive the enhanced questionnaire")
	}
	if p.Lifestyle.WorkEnvironment != "office" || p.Lifestyle.ActivityLevel != "low" {
		t.Errorf("Expected lifestyle merged, got %+v", p.Lifestyle)
	}
}

func TestCompleteOnboarding_ReplacesStylePreferences(t *testing.T) {
	t.Parallel()

	s, err := UpdateProfile(Initial(), ProfileUpdate{StylePreferences: map[models.StyleTag]int{models.StyleFormal: 9}})
	if err != nil {
		t.Fatal(err)
	}
	s, err = CompleteOnboarding(s, ProfileUpdate{
		StylePreferences: map[models.StyleTag]int{models.StyleSporty: 8},
		FavoriteColors:   []string{"red", "blue", "green"},
	}, time.Unix(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Profile.StyleScore(models.StyleFormal); got != models.DefaultStyleScore {
		t.Errorf("Expected formal to fall back to default, got %d", got)
	}
	if got := s.Profile.StyleScore(models.StyleSporty); got != 8 {
		t.Errorf("Expected sporty=8, got %d", got)
	}
}

func TestResetOnboarding_KeepsData(t *testing.T) {
	t.Parallel()

	s := stateWithItems("a")
	s, err := CompleteOnboarding(s, ProfileUpdate{FavoriteColors: []string{"red", "blue", "green"}}, time.Unix(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	s = ResetOnboarding(s)
	if s.Profile.HasCompletedOnboarding || s.Profile.CompletedAt != nil {
		t.Error("Expected onboarding flag cleared")
	}
	if len(s.Profile.FavoriteColors) != 3 || len(s.Wardrobe) != 1 {
		t.Error("Expected profile data and wardrobe to be kept")
	}
}

func TestUpdateProfile_NoMinimumColors(t *testing.T) {
	t.Parallel()

	s, err := UpdateProfile(Initial(), ProfileUpdate{FavoriteColors: []string{"red"}})
	if err != nil {
		t.Fatalf("Expected settings edit below the onboarding minimum to succeed, got %v", err)
	}
	if len(s.Profile.FavoriteColors) != 1 {
		t.Errorf("Expected 1 favorite color, got %d", len(s.Profile.FavoriteColors))
	}
}

func TestEnqueueFiles_RejectsOutright(t *testing.T) {
	t.Parallel()

	files := func(n int) []models.QueuedFile {
		out := make([]models.QueuedFile, n)
		for i := range out {
			out[i] = models.QueuedFile{ID: fmt.Sprintf("f%d", i), Name: fmt.Sprintf("f%d.jpg", i)}
		}
		return out
	}

	s, err := EnqueueFiles(Initial(), files(18), 20)
	if err != nil {
		t.Fatalf("EnqueueFiles() error = %v", err)
	}
	for _, f := range s.Batch.Queue {
		if f.Status != models.FileStatusPending || f.AIStatus != models.AIStatusPending {
			t.Fatalf("Expected pending statuses, got %s/%s", f.Status, f.AIStatus)
		}
	}

	after, err := EnqueueFiles(s, files(3), 20)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, got %v", err)
	}
	if len(after.Batch.Queue) != 18 {
		t.Errorf("Expected queue unchanged at 18, got %d", len(after.Batch.Queue))
	}

	if _, err := EnqueueFiles(s, files(2), 20); err != nil {
		t.Errorf("Expected filling to the limit to succeed, got %v", err)
	}
}

func TestUpdateQueuedFile(t *testing.T) {
	t.Parallel()

	s, err := EnqueueFiles(Initial(), []models.QueuedFile{{ID: "f1"}, {ID: "f2"}}, 20)
	if err != nil {
		t.Fatal(err)
	}
	next := UpdateQueuedFile(s, "f2", func(f *models.QueuedFile) { f.Status = models.FileStatusReady })
	if f, _ := next.QueuedFile("f2"); f.Status != models.FileStatusReady {
		t.Errorf("Expected f2 ready, got %s", f.Status)
	}
	if f, _ := s.QueuedFile("f2"); f.Status != models.FileStatusPending {
		t.Error("Expected previous snapshot to be unchanged")
	}

	next = RemoveQueuedFile(next, "f1")
	if len(next.Batch.Queue) != 1 {
		t.Errorf("Expected 1 queued file, got %d", len(next.Batch.Queue))
	}
	next = ClearQueue(next)
	if len(next.Batch.Queue) != 0 {
		t.Error("Expected queue cleared")
	}
}

func TestSetTheme(t *testing.T) {
	t.Parallel()

	s, err := SetTheme(Initial(), ThemeDark)
	if err != nil || s.Theme != ThemeDark {
		t.Errorf("SetTheme(dark) = %s, %v", s.Theme, err)
	}
	if _, err := SetTheme(s, "sepia"); !errors.Is(err, ErrInvalidTheme) {
		t.Errorf("Expected ErrInvalidTheme, got %v", err)
	}
}

func TestWeatherTransitions(t *testing.T) {
	t.Parallel()

	at := time.Unix(1000, 0)
	s := SetWeather(Initial(), models.WeatherData{Temperature: 12}, at)
	if s.Weather == nil || s.WeatherError != "" || !s.WeatherFetchedAt.Equal(at) {
		t.Fatalf("Unexpected weather state: %+v", s)
	}
	s = SetWeatherError(s, "location unavailable")
	if s.Weather != nil || s.WeatherError == "" {
		t.Errorf("Expected weather nil with error, got %+v / %q", s.Weather, s.WeatherError)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	s := stateWithItems("a")
	s, _ = AddOutfit(s, testOutfit("o1", "a"))
	s, _ = SetTheme(s, ThemeDark)
	s = Reset(s)
	if len(s.Wardrobe) != 0 || len(s.OutfitHistory) != 0 || s.Theme != ThemeSystem {
		t.Errorf("Expected initial state, got %+v", s)
	}
}
