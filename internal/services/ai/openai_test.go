package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/benvon/smart-wardrobe/internal/models"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   DefaultOpenAIModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProviderWithLogger("sk-test-key", srv.URL, "", nil, false), &calls
}

func TestOpenAIProvider_AnalyzeClothing(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{
			"description": "white oxford shirt",
			"suggestedCategory": "top",
			"detectedColors": ["white"],
			"suggestedStyles": ["formal", "grunge"],
			"season": "all-season",
			"formality": "business",
			"occasion": ["work"],
			"occasionScores": {"work": 9, "party": 14},
			"confidence": 0.93,
			"reasoning": "collared button-down"
		}`)))
	})

	analysis, err := p.AnalyzeClothing(context.Background(), "data:image/jpeg;base64,AAAA", map[models.StyleTag]int{models.StyleFormal: 7})
	if err != nil {
		t.Fatalf("AnalyzeClothing() error = %v", err)
	}
	if analysis.SuggestedCategory != models.CategoryTop {
		t.Errorf("SuggestedCategory = %q, want top", analysis.SuggestedCategory)
	}
	if len(analysis.SuggestedStyles) != 1 || analysis.SuggestedStyles[0] != models.StyleFormal {
		t.Errorf("Expected unknown styles dropped, got %v", analysis.SuggestedStyles)
	}
	if analysis.OccasionScores["party"] != 10 {
		t.Errorf("Expected occasion score clamped to 10, got %d", analysis.OccasionScores["party"])
	}
	if len(analysis.OccasionScores) != len(models.OccasionKeys) {
		t.Errorf("Expected all %d occasion keys, got %v", len(models.OccasionKeys), analysis.OccasionScores)
	}

	if temp, ok := gotBody["temperature"].(float64); !ok || temp != 0 {
		t.Errorf("Expected temperature 0 in request, got %v", gotBody["temperature"])
	}
	if rf, ok := gotBody["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
		t.Errorf("Expected json_object response format, got %v", gotBody["response_format"])
	}
}

func TestOpenAIProvider_TypedFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		header map[string]string
		check  func(*testing.T, error)
	}{
		{
			name:   "401 is a server configuration error",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrServerConfiguration) {
					t.Errorf("Expected ErrServerConfiguration, got %v", err)
				}
			},
		},
		{
			name:   "429 is a rate limit with status",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			header: map[string]string{"Retry-After": "12"},
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				if !errors.As(err, &rl) {
					t.Fatalf("Expected RateLimitError, got %v", err)
				}
				if rl.StatusCode != http.StatusTooManyRequests {
					t.Errorf("StatusCode = %d, want 429", rl.StatusCode)
				}
				if rl.RetryAfter.Seconds() != 12 {
					t.Errorf("RetryAfter = %v, want 12s", rl.RetryAfter)
				}
			},
		},
		{
			name:   "quota exhaustion is permanent",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			check: func(t *testing.T, err error) {
				if !IsQuotaError(err) {
					t.Errorf("Expected quota error, got %v", err)
				}
				if IsRateLimitError(err) {
					t.Error("Quota exhaustion must not look like a transient rate limit")
				}
			},
		},
		{
			name:   "missing outfits is an invalid shape",
			status: http.StatusOK,
			body:   completionBody(`{"looks": []}`),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrInvalidResponseShape) {
					t.Errorf("Expected ErrInvalidResponseShape, got %v", err)
				}
			},
		},
		{
			name:   "empty content",
			status: http.StatusOK,
			body:   completionBody(""),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyContent) {
					t.Errorf("Expected ErrEmptyContent, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, calls := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.RecommendOutfits(context.Background(), &models.RecommendationRequest{
				Wardrobe:    []models.WardrobeEntry{{ID: "a", Category: models.CategoryTop}},
				Preferences: map[models.StyleTag]int{models.StyleCasual: 5},
				Count:       3,
			})
			if err == nil {
				t.Fatal("Expected error")
			}
			tt.check(t, err)
			if n := atomic.LoadInt32(calls); n != 1 {
				t.Errorf("Expected exactly one request (no retries), got %d", n)
			}
		})
	}
}

func TestBuildRecommendationPrompt(t *testing.T) {
	t.Parallel()

	req := &models.RecommendationRequest{
		Wardrobe: []models.WardrobeEntry{
			{ID: "top-1", Category: models.CategoryTop, Colors: []string{"navy"}, AIAnalysis: "linen shirt"},
			{ID: "shoes-1", Category: models.CategoryShoes, Colors: []string{"white"}},
		},
		Weather:        &models.WeatherData{Temperature: 21, FeelsLike: 20, Condition: "Clear", Precipitation: 5},
		Preferences:    map[models.StyleTag]int{models.StyleMinimalist: 9, models.StyleCasual: 6},
		FavoriteColors: []string{"navy", "olive"},
		Count:          4,
		Profile:        &models.UserProfile{WeatherSensitivity: &models.WeatherSensitivity{RunsCold: true}},
	}

	prompt := buildRecommendationPrompt(req, 0)
	for _, want := range []string{
		"Select 4 outfits",
		"id=top-1 category=top colors=navy analysis=linen shirt",
		"id=shoes-1",
		"feels like 20C",
		"casual=6 minimalist=9",
		"Favorite colors: navy, olive",
		"runs cold",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestDescribeWardrobe_RespectsTokenBudget(t *testing.T) {
	t.Parallel()

	entries := make([]models.WardrobeEntry, 100)
	for i := range entries {
		entries[i] = models.WardrobeEntry{ID: strings.Repeat("x", 36), Category: models.CategoryTop, Colors: []string{"black"}}
	}
	_, included := describeWardrobe(entries, 100)
	if included == 0 || included >= len(entries) {
		t.Errorf("Expected the budget to include some but not all items, got %d", included)
	}
}

func TestParseRecommendationResponse(t *testing.T) {
	t.Parallel()

	outfits, err := parseRecommendationResponse("Sure! {\"outfits\": [{\"itemIds\": [\"a\",\"b\"], \"reasoning\": \"ok\", \"score\": 130}]}")
	if err != nil {
		t.Fatalf("parseRecommendationResponse() error = %v", err)
	}
	if len(outfits) != 1 || outfits[0].Score != 100 {
		t.Errorf("Expected one outfit with clamped score, got %+v", outfits)
	}

	outfits, err = parseRecommendationResponse(`{"outfits": []}`)
	if err != nil || len(outfits) != 0 {
		t.Errorf("Expected an empty list to be a valid shape, got %v, %v", outfits, err)
	}
}
