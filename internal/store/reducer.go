package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
)

var (
	// ErrQueueFull is returned when an enqueue would exceed the queue bound. Nothing is enqueued.
	ErrQueueFull = errors.New("upload queue is full")
	// ErrTooFewFavoriteColors is returned when onboarding completes with fewer than the minimum colors
	ErrTooFewFavoriteColors = fmt.Errorf("at least %d favorite colors are required", models.MinFavoriteColors)
	// ErrInvalidStyleScore is returned for style ratings outside 0-10 or unknown style tags
	ErrInvalidStyleScore = errors.New("invalid style preference")
	// ErrInvalidTheme is returned for unknown themes
	ErrInvalidTheme = errors.New("invalid theme")
)

// ProfileUpdate carries profile fields supplied by a questionnaire or a settings edit.
// Nil fields were not supplied and are left untouched.
type ProfileUpdate struct {
	StylePreferences   map[models.StyleTag]int
	FavoriteColors     []string
	Location           *models.Location
	Occasions          []string
	FitPreferences     *models.FitPreferences
	WeatherSensitivity *models.WeatherSensitivity
	Lifestyle          *models.Lifestyle
	ColorPreferences   *models.ColorPreferences
	PatternPreferences []string
	Goals              []string
}

func (u ProfileUpdate) validate() error {
	for tag, score := range u.StylePreferences {
		if !tag.Valid() {
			return fmt.Errorf("%w: unknown style %q", ErrInvalidStyleScore, tag)
		}
		if score < 0 || score > models.MaxStyleScore {
			return fmt.Errorf("%w: %s=%d", ErrInvalidStyleScore, tag, score)
		}
	}
	return nil
}

// AddClothingItem appends an item to the wardrobe
func AddClothingItem(s State, item models.ClothingItem) State {
	wardrobe := make([]models.ClothingItem, len(s.Wardrobe), len(s.Wardrobe)+1)
	copy(wardrobe, s.Wardrobe)
	s.Wardrobe = append(wardrobe, item)
	return s
}

// RemoveClothingItem removes an item and every outfit that references it from
// history, daily suggestions and today's pick. Unknown ids are a no-op.
func RemoveClothingItem(s State, id string) State {
	wardrobe := make([]models.ClothingItem, 0, len(s.Wardrobe))
	for _, item := range s.Wardrobe {
		if item.ID != id {
			wardrobe = append(wardrobe, item)
		}
	}
	s.Wardrobe = wardrobe
	s.OutfitHistory = withoutItem(s.OutfitHistory, id)

	if s.DailySuggestions != nil {
		remaining := withoutItem(s.DailySuggestions.Outfits, id)
		if len(remaining) == 0 {
			s.DailySuggestions = nil
		} else {
			ds := *s.DailySuggestions
			ds.Outfits = remaining
			s.DailySuggestions = &ds
		}
	}

	if s.TodaysPick != nil && s.TodaysPick.References(id) {
		s.TodaysPick = nil
	}
	return s
}

func withoutItem(outfits []models.Outfit, id string) []models.Outfit {
	out := make([]models.Outfit, 0, len(outfits))
	for _, o := range outfits {
		if !o.References(id) {
			out = append(out, o)
		}
	}
	return out
}

// AddOutfit appends an outfit to history unless its item set is already there.
// It reports whether the outfit was added.
func AddOutfit(s State, o models.Outfit) (State, bool) {
	fp := outfit.Of(o)
	for _, existing := range s.OutfitHistory {
		if outfit.Of(existing) == fp {
			return s, false
		}
	}
	history := make([]models.Outfit, len(s.OutfitHistory), len(s.OutfitHistory)+1)
	copy(history, s.OutfitHistory)
	s.OutfitHistory = append(history, o.Clone())
	return s, true
}

// dedupe keeps the first outfit per fingerprint, preserving order
func dedupe(outfits []models.Outfit) []models.Outfit {
	seen := make(outfit.Set, len(outfits))
	out := make([]models.Outfit, 0, len(outfits))
	for _, o := range outfits {
		if seen.Add(outfit.Of(o)) {
			out = append(out, o)
		}
	}
	return out
}

// RemoveDuplicateOutfits collapses history and daily suggestions to the first
// outfit seen per item set. It is idempotent.
func RemoveDuplicateOutfits(s State) State {
	s.OutfitHistory = dedupe(s.OutfitHistory)
	if s.DailySuggestions != nil {
		ds := *s.DailySuggestions
		ds.Outfits = dedupe(ds.Outfits)
		s.DailySuggestions = &ds
	}
	return s
}

// SetDailySuggestions replaces the day's suggestions, dropping repeated item sets
func SetDailySuggestions(s State, date string, outfits []models.Outfit, source models.OutfitSource) State {
	s.DailySuggestions = &models.DailySuggestions{
		Date:    date,
		Outfits: dedupe(models.CloneOutfits(outfits)),
		Source:  source,
	}
	return s
}

// ClearDailySuggestions drops cached suggestions so they are regenerated
func ClearDailySuggestions(s State) State {
	s.DailySuggestions = nil
	return s
}

// SetTodaysPick sets or clears today's pick
func SetTodaysPick(s State, o *models.Outfit) State {
	if o == nil {
		s.TodaysPick = nil
		return s
	}
	c := o.Clone()
	s.TodaysPick = &c
	return s
}

// applyUpdate copies supplied fields into p. With deep set, nested values are
// merged key by key instead of replaced.
func applyUpdate(p models.UserProfile, u ProfileUpdate, deep bool) models.UserProfile {
	p = p.Clone()
	if u.StylePreferences != nil {
		if !deep {
			p.StylePreferences = make(map[models.StyleTag]int, len(models.StyleTags))
		}
		for tag, score := range u.StylePreferences {
			p.StylePreferences[tag] = score
		}
	}
	if u.FavoriteColors != nil {
		p.FavoriteColors = append([]string(nil), u.FavoriteColors...)
	}
	if u.Location != nil {
		l := *u.Location
		p.Location = &l
	}
	if u.Occasions != nil {
		p.Occasions = append([]string(nil), u.Occasions...)
	}
	if u.FitPreferences != nil {
		f := *u.FitPreferences
		if deep && p.FitPreferences != nil {
			if f.Top == "" {
				f.Top = p.FitPreferences.Top
			}
			if f.Bottom == "" {
				f.Bottom = p.FitPreferences.Bottom
			}
		}
		p.FitPreferences = &f
	}
	if u.WeatherSensitivity != nil {
		w := *u.WeatherSensitivity
		p.WeatherSensitivity = &w
	}
	if u.Lifestyle != nil {
		l := *u.Lifestyle
		if deep && p.Lifestyle != nil {
			if l.WorkEnvironment == "" {
				l.WorkEnvironment = p.Lifestyle.WorkEnvironment
			}
			if l.ActivityLevel == "" {
				l.ActivityLevel = p.Lifestyle.ActivityLevel
			}
		}
		p.Lifestyle = &l
	}
	if u.ColorPreferences != nil {
		c := *u.ColorPreferences
		c.Avoid = append([]string(nil), u.ColorPreferences.Avoid...)
		if deep && p.ColorPreferences != nil {
			if c.Palette == "" {
				c.Palette = p.ColorPreferences.Palette
			}
			if u.ColorPreferences.Avoid == nil {
				c.Avoid = append([]string(nil), p.ColorPreferences.Avoid...)
			}
		}
		p.ColorPreferences = &c
	}
	if u.PatternPreferences != nil {
		p.PatternPreferences = append([]string(nil), u.PatternPreferences...)
	}
	if u.Goals != nil {
		p.Goals = append([]string(nil), u.Goals...)
	}
	models.ApplyProfileDefaults(&p)
	return p
}

func completeOnboarding(s State, u ProfileUpdate, now time.Time, deep bool) (State, error) {
	if err := u.validate(); err != nil {
		return s, err
	}
	p := applyUpdate(s.Profile, u, deep)
	if len(p.FavoriteColors) < models.MinFavoriteColors {
		return s, ErrTooFewFavoriteColors
	}
	p.HasCompletedOnboarding = true
	t := now
	p.CompletedAt = &t
	s.Profile = p
	return s, nil
}

// CompleteOnboarding finishes the basic questionnaire. Supplied top-level
// fields replace existing ones; at least MinFavoriteColors are required.
func CompleteOnboarding(s State, u ProfileUpdate, now time.Time) (State, error) {
	return completeOnboarding(s, u, now, false)
}

// CompleteOnboardingEnhanced finishes the extended questionnaire. It merges
// into the existing profile so fields the questionnaire does not ask about survive.
func CompleteOnboardingEnhanced(s State, u ProfileUpdate, now time.Time) (State, error) {
	return completeOnboarding(s, u, now, true)
}

// ResetOnboarding clears the completion flag and timestamp only
func ResetOnboarding(s State) State {
	p := s.Profile.Clone()
	p.HasCompletedOnboarding = false
	p.CompletedAt = nil
	s.Profile = p
	return s
}

// UpdateProfile applies a settings edit. Onboarding minimums are not re-enforced.
func UpdateProfile(s State, u ProfileUpdate) (State, error) {
	if err := u.validate(); err != nil {
		return s, err
	}
	s.Profile = applyUpdate(s.Profile, u, true)
	return s, nil
}

// SetTheme sets the UI theme
func SetTheme(s State, t Theme) (State, error) {
	if !t.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	s.Theme = t
	return s, nil
}

// SetWeather commits a successful weather fetch and clears any error
func SetWeather(s State, w models.WeatherData, fetchedAt time.Time) State {
	s.Weather = &w
	s.WeatherError = ""
	s.WeatherFetchedAt = fetchedAt
	return s
}

// SetWeatherError records a failed fetch. Weather is left nil.
func SetWeatherError(s State, msg string) State {
	s.Weather = nil
	s.WeatherError = msg
	return s
}

// EnqueueFiles appends files to the upload queue. If the queue would exceed
// maxSize the whole request is rejected and the state is unchanged.
func EnqueueFiles(s State, files []models.QueuedFile, maxSize int) (State, error) {
	if len(s.Batch.Queue)+len(files) > maxSize {
		return s, fmt.Errorf("%w: %d queued, %d requested, limit %d", ErrQueueFull, len(s.Batch.Queue), len(files), maxSize)
	}
	queue := make([]models.QueuedFile, len(s.Batch.Queue), len(s.Batch.Queue)+len(files))
	copy(queue, s.Batch.Queue)
	for _, f := range files {
		if f.Status == "" {
			f.Status = models.FileStatusPending
		}
		if f.AIStatus == "" {
			f.AIStatus = models.AIStatusPending
		}
		queue = append(queue, f)
	}
	s.Batch.Queue = queue
	return s, nil
}

// UpdateQueuedFile applies fn to a copy of the queued file with the given id.
// Unknown ids are a no-op.
func UpdateQueuedFile(s State, id string, fn func(*models.QueuedFile)) State {
	queue := make([]models.QueuedFile, len(s.Batch.Queue))
	copy(queue, s.Batch.Queue)
	for i := range queue {
		if queue[i].ID == id {
			fn(&queue[i])
			break
		}
	}
	s.Batch.Queue = queue
	return s
}

// RemoveQueuedFile drops a file from the upload queue
func RemoveQueuedFile(s State, id string) State {
	queue := make([]models.QueuedFile, 0, len(s.Batch.Queue))
	for _, f := range s.Batch.Queue {
		if f.ID != id {
			queue = append(queue, f)
		}
	}
	s.Batch.Queue = queue
	return s
}

// ClearQueue discards every queued file and resets progress
func ClearQueue(s State) State {
	s.Batch = BatchState{}
	return s
}

// SetBatchProgress replaces the aggregate batch progress
func SetBatchProgress(s State, p models.BatchUploadProgress) State {
	s.Batch.Progress = p
	return s
}

// Reset reinitializes everything. It is the only transition that clears
// wardrobe, history and profile together.
func Reset(State) State {
	return Initial()
}
