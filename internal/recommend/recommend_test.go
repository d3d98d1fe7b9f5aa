package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
)

// mockRecommender is a function-field mock of the remote service
type mockRecommender struct {
	recommendFunc func(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error)
	calls         int
}

func (m *mockRecommender) RecommendOutfits(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	m.calls++
	return m.recommendFunc(ctx, req)
}

func testWardrobe() []models.ClothingItem {
	var w []models.ClothingItem
	add := func(prefix string, cat models.Category, n int) {
		for i := 0; i < n; i++ {
			w = append(w, models.ClothingItem{
				ID:       fmt.Sprintf("%s-%d", prefix, i),
				Category: cat,
				Colors:   []string{"black"},
				ImageID:  fmt.Sprintf("img-%s-%d", prefix, i),
			})
		}
	}
	add("top", models.CategoryTop, 5)
	add("bottom", models.CategoryBottom, 3)
	add("shoes", models.CategoryShoes, 2)
	return w
}

func TestBuildRequest_NoImageData(t *testing.T) {
	t.Parallel()

	w := testWardrobe()
	w[0].AIAnalysis = &models.AIClothingAnalysis{Description: "linen shirt", Season: models.SeasonSummer}

	req := BuildRequest(w, models.DefaultProfile(), nil, []string{"navy"}, 3)
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(raw), "img-") || strings.Contains(string(raw), "base64") {
		t.Errorf("Request leaks image references: %s", raw)
	}
	if req.Wardrobe[0].AIAnalysis != "linen shirt; season=summer" {
		t.Errorf("AIAnalysis summary = %q", req.Wardrobe[0].AIAnalysis)
	}
	if len(req.Preferences) != len(models.StyleTags) {
		t.Errorf("Expected all style tags in preferences, got %v", req.Preferences)
	}
}

func TestAdapter_Recommend_ShapeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *models.RecommendationResponse
		wantErr error
	}{
		{"failure without error text", &models.RecommendationResponse{Success: false}, ai.ErrInvalidResponseShape},
		{"missing outfits", &models.RecommendationResponse{Success: true}, ai.ErrInvalidResponseShape},
		{"nil reply", nil, ai.ErrInvalidResponseShape},
		{"every id unknown", &models.RecommendationResponse{Success: true, Outfits: []models.RecommendedOutfit{{ItemIDs: []string{"ghost"}}}}, ErrNoUsableOutfits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &mockRecommender{recommendFunc: func(context.Context, *models.RecommendationRequest) (*models.RecommendationResponse, error) {
				return tt.resp, nil
			}}
			_, err := NewAdapter(m).Recommend(context.Background(), testWardrobe(), models.DefaultProfile(), nil, nil, 3)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Recommend() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("failure with error text", func(t *testing.T) {
		t.Parallel()
		m := &mockRecommender{recommendFunc: func(context.Context, *models.RecommendationRequest) (*models.RecommendationResponse, error) {
			return &models.RecommendationResponse{Success: false, Error: "model overloaded"}, nil
		}}
		_, err := NewAdapter(m).Recommend(context.Background(), testWardrobe(), models.DefaultProfile(), nil, nil, 3)
		var apiErr *ai.APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "model overloaded" {
			t.Errorf("Recommend() error = %v, want APIError", err)
		}
	})
}

func TestAdapter_Reconcile(t *testing.T) {
	t.Parallel()

	a := NewAdapter(nil)
	got := a.Reconcile([]models.RecommendedOutfit{
		{ItemIDs: []string{"top-0", "ghost", "bottom-0", "shoes-0"}, Score: 90},
		{ItemIDs: []string{"ghost-1", "ghost-2"}, Score: 85},
		{ItemIDs: []string{"shoes-0", "bottom-0", "top-0"}, Score: 80},
		{ItemIDs: []string{"top-1", "top-1", "bottom-1"}, Score: 70},
	}, testWardrobe())

	if len(got) != 2 {
		t.Fatalf("Reconcile() returned %d outfits, want 2: %+v", len(got), got)
	}
	if strings.Join(got[0].ItemIDs, ",") != "top-0,bottom-0,shoes-0" {
		t.Errorf("Unresolved id not dropped: %v", got[0].ItemIDs)
	}
	if strings.Join(got[1].ItemIDs, ",") != "top-1,bottom-1" {
		t.Errorf("Repeated id not collapsed: %v", got[1].ItemIDs)
	}
	for _, o := range got {
		if o.Source != models.OutfitSourceAI {
			t.Errorf("Source = %q, want ai", o.Source)
		}
	}
}

func TestService_FallsBackOn401(t *testing.T) {
	t.Parallel()

	m := &mockRecommender{recommendFunc: func(context.Context, *models.RecommendationRequest) (*models.RecommendationResponse, error) {
		return nil, ai.ErrServerConfiguration
	}}
	svc := NewService(NewAdapter(m), outfit.NewGenerator(outfit.DefaultConfig()), nil)

	in := Input{Wardrobe: testWardrobe(), Profile: models.DefaultProfile(), Count: 5}
	res := svc.Recommend(context.Background(), in, ModeAI)

	if !errors.Is(res.Err, ai.ErrServerConfiguration) {
		t.Errorf("Err = %v, want ErrServerConfiguration", res.Err)
	}
	if res.Warning == "" {
		t.Error("Expected a non-fatal warning")
	}
	if res.Source != models.OutfitSourceClassic {
		t.Errorf("Source = %q, want classic", res.Source)
	}
	if len(res.Outfits) != 5 {
		t.Errorf("Expected 5 classic outfits, got %d", len(res.Outfits))
	}

	// The fallback is sticky for the session
	res = svc.Recommend(context.Background(), in, ModeAI)
	if m.calls != 1 {
		t.Errorf("Expected the AI path to be skipped after a failure, got %d calls", m.calls)
	}
	if res.Source != models.OutfitSourceClassic || res.Warning != SessionFallbackWarning {
		t.Errorf("Unexpected second result: source=%q warning=%q", res.Source, res.Warning)
	}
	if res.Err != nil {
		t.Errorf("Expected no new AI error on the sticky path, got %v", res.Err)
	}

	// Explicit classic requests carry no warning
	if res = svc.Recommend(context.Background(), in, ModeClassic); res.Warning != "" {
		t.Errorf("Classic mode warning = %q, want none", res.Warning)
	}
	if fell, err := svc.FellBack(); !fell || !errors.Is(err, ai.ErrServerConfiguration) {
		t.Errorf("FellBack() = %v, %v", fell, err)
	}
}

func TestService_AISuccess(t *testing.T) {
	t.Parallel()

	m := &mockRecommender{recommendFunc: func(_ context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
		if req.Count != 2 {
			t.Errorf("Count = %d, want 2", req.Count)
		}
		return &models.RecommendationResponse{Success: true, Outfits: []models.RecommendedOutfit{
			{ItemIDs: []string{"top-0", "bottom-0", "shoes-0"}, Score: 91, Reasoning: "sharp"},
			{ItemIDs: []string{"top-1", "bottom-1", "shoes-1"}, Score: 88},
		}}, nil
	}}
	svc := NewService(NewAdapter(m), outfit.NewGenerator(outfit.DefaultConfig()), nil)

	res := svc.Recommend(context.Background(), Input{Wardrobe: testWardrobe(), Profile: models.DefaultProfile(), Count: 2}, ModeAI)
	if res.Source != models.OutfitSourceAI || len(res.Outfits) != 2 || res.Err != nil {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestService_ClassicModeSkipsAI(t *testing.T) {
	t.Parallel()

	m := &mockRecommender{recommendFunc: func(context.Context, *models.RecommendationRequest) (*models.RecommendationResponse, error) {
		t.Error("AI path must not be called in classic mode")
		return nil, nil
	}}
	svc := NewService(NewAdapter(m), outfit.NewGenerator(outfit.DefaultConfig()), nil)

	res := svc.Recommend(context.Background(), Input{Wardrobe: testWardrobe(), Profile: models.DefaultProfile(), Count: 3}, ModeClassic)
	if res.Source != models.OutfitSourceClassic || len(res.Outfits) != 3 {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestWarningFor_RateLimit(t *testing.T) {
	t.Parallel()

	msg := WarningFor(&ai.RateLimitError{StatusCode: 429, RetryAfter: ai.DefaultRetryAfter})
	if !strings.Contains(msg, "1m0s") {
		t.Errorf("Expected retry hint in warning, got %q", msg)
	}
}
