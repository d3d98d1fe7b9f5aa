package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// ImageDetail is the vision detail level. Low detail keeps the token cost per image fixed.
	ImageDetail = "low"
)

// OpenAIProvider implements the AIProvider interface using OpenAI's API
type OpenAIProvider struct {
	client            openai.Client
	model             string
	maxWardrobeTokens int
	logger            *zap.Logger
	debugMode         bool
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	// Failures surface to the caller, which owns the fallback decision
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	if logger != nil {
		logger.Info("openai_provider_created",
			zap.String("model", model),
			zap.String("base_url", baseURL),
			zap.String("api_key", RedactAPIKey(apiKey)),
		)
	}

	return &OpenAIProvider{
		client:            client,
		model:             model,
		maxWardrobeTokens: DefaultMaxWardrobeTokens,
		logger:            logger,
		debugMode:         debugMode,
	}
}

// AnalyzeClothing classifies a garment image at zero temperature in strict JSON mode
func (p *OpenAIProvider) AnalyzeClothing(ctx context.Context, imageDataURI string, preferences map[models.StyleTag]int) (*models.AIClothingAnalysis, error) {
	prompt := buildAnalysisPrompt(preferences)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a fashion assistant that classifies clothing from photos. Respond with valid JSON only."),
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    imageDataURI,
				Detail: ImageDetail,
			}),
		}),
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "analyze_clothing"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("image", RedactDataURI(imageDataURI)),
			zap.Int("image_length", len(imageDataURI)),
			zap.String("request_id", RequestIDFrom(ctx)),
		)
	}

	content, err := p.complete(ctx, "analyze_clothing", messages)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze clothing: %w", err)
	}
	analysis, err := parseAnalysisResponse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze clothing: %w", err)
	}
	return analysis, nil
}

// RecommendOutfits asks the model to pick outfits from the wardrobe description
func (p *OpenAIProvider) RecommendOutfits(ctx context.Context, req *models.RecommendationRequest) ([]models.RecommendedOutfit, error) {
	prompt := buildRecommendationPrompt(req, p.maxWardrobeTokens)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a personal stylist that builds outfits from a user's wardrobe. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "recommend_outfits"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.Int("wardrobe_size", len(req.Wardrobe)),
			zap.String("prompt_preview", Preview(prompt, true)),
			zap.String("request_id", RequestIDFrom(ctx)),
		)
	}

	content, err := p.complete(ctx, "recommend_outfits", messages)
	if err != nil {
		return nil, fmt.Errorf("failed to recommend outfits: %w", err)
	}
	outfits, err := parseRecommendationResponse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to recommend outfits: %w", err)
	}
	return outfits, nil
}

// complete sends one chat completion and returns the first choice's content
func (p *OpenAIProvider) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    messages,
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := RequestIDFrom(ctx)
	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if typed := ExtractAPIError(err); typed != nil {
			return "", typed
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyContent
	}
	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", Preview(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger, debugMode bool) {
	registry.Register("openai", func(cfg ProviderConfig) (AIProvider, error) {
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAIProviderWithLogger(cfg.APIKey, cfg.BaseURL, cfg.Model, logger, debugMode), nil
	})
}
