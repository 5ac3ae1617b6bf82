package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// contentRequest is a provider-agnostic content generation request.
type contentRequest struct {
	Parts             []*genai.Part
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
	OutputSchema      *genai.Schema // JSON schema for structured output (Gemini only)
}

// Provider generates content through cloud model APIs. Clients are created
// lazily and memoized; all calls share one rate limiter so the combined
// request rate stays inside the configured per-minute quota.
type Provider struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger
	limiter      *rate.Limiter
	retryConfig  *RetryConfig
	geminiClient *genai.Client
	claudeClient anthropic.Client
	claudeReady  bool
}

// NewProvider creates a cloud provider from pipeline configuration.
func NewProvider(cfg *common.PipelinesConfig, logger arbor.ILogger) *Provider {
	rpm := cfg.LLM.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	return &Provider{
		geminiConfig: &cfg.Gemini,
		claudeConfig: &cfg.Claude,
		llmConfig:    &cfg.LLM,
		logger:       logger,
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		retryConfig:  NewDefaultRetryConfig(),
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-haiku-4-5" -> Claude
// - "claude/claude-haiku-4-5" -> Claude (with prefix)
// - "gemini-2.0-flash" -> Gemini
// - Empty string -> uses default provider from config
func (p *Provider) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(p.llmConfig.DefaultProvider)
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return ProviderType(p.llmConfig.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (p *Provider) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// getGeminiClient returns a Gemini client, creating one if necessary
func (p *Provider) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	if p.geminiClient != nil {
		return p.geminiClient, nil
	}

	if p.geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured (set GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p.geminiClient = client
	return client, nil
}

// getClaudeClient returns a Claude client, creating one if necessary
func (p *Provider) getClaudeClient() (anthropic.Client, error) {
	if p.claudeReady {
		return p.claudeClient, nil
	}

	if p.claudeConfig.APIKey == "" {
		return anthropic.Client{}, fmt.Errorf("anthropic API key not configured (set ANTHROPIC_API_KEY)")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(p.claudeConfig.APIKey),
	)

	p.claudeClient = client
	p.claudeReady = true
	return client, nil
}

// generateContent generates content using the appropriate provider based on
// the request's model string.
func (p *Provider) generateContent(ctx context.Context, request *contentRequest) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	provider := p.DetectProvider(request.Model)
	model := p.NormalizeModel(request.Model)

	p.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return p.generateWithClaude(ctx, request, model)
	default:
		return p.generateWithGemini(ctx, request, model)
	}
}

// generateWithClaude generates content using Claude API. Claude requests
// carry text parts only; structured output and vision go through Gemini.
func (p *Provider) generateWithClaude(ctx context.Context, request *contentRequest, model string) (string, error) {
	client, err := p.getClaudeClient()
	if err != nil {
		return "", err
	}

	if model == "" {
		model = p.claudeConfig.Model
	}

	var prompt strings.Builder
	for _, part := range request.Parts {
		prompt.WriteString(part.Text)
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.claudeConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.String())),
		},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.claudeConfig.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= p.retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}

		if attempt == p.retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = p.retryConfig.CalculateBackoff(attempt, 0)
		}

		p.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Claude API call failed after %d retries: %w", p.retryConfig.MaxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}

// generateWithGemini generates content using Gemini API
func (p *Provider) generateWithGemini(ctx context.Context, request *contentRequest, model string) (string, error) {
	client, err := p.getGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = p.geminiConfig.Model
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.geminiConfig.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}

	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}

	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}

	// When a schema is provided, Gemini enforces JSON output matching it.
	if request.OutputSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = request.OutputSchema
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(request.Parts, genai.RoleUser),
	}

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= p.retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(ctx, model, contents, config)
		if apiErr == nil {
			break
		}

		if attempt == p.retryConfig.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			apiDelay := ExtractRetryDelay(apiErr)
			backoff = p.retryConfig.CalculateBackoff(attempt, apiDelay)
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		p.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Gemini API call failed after %d retries: %w", p.retryConfig.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	return responseText, nil
}

// Close closes all provider clients
func (p *Provider) Close() error {
	p.geminiClient = nil
	p.claudeClient = anthropic.Client{}
	p.claudeReady = false
	return nil
}
