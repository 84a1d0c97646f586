package repository

import (
	"context"
	"fmt"

	"apex-hub/config"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/ratelimit"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// geminiProvider calls Gemini through the GenAI SDK, keeping a per-minute
// token budget counted before each request.
type geminiProvider struct {
	client       *genai.Client
	model        string
	tokenBudget  int
	tokenLimiter *ratelimit.TokenLimiter
	logger       *logger.Logger
}

func newGeminiProvider(ctx context.Context, cfg config.AI, log *logger.Logger) (*geminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}

	return &geminiProvider{
		client:       client,
		model:        model,
		tokenBudget:  cfg.MaxTokenPerMinute,
		tokenLimiter: ratelimit.NewTokenLimiter(cfg.MaxTokenPerMinute),
		logger:       log,
	}, nil
}

func (p *geminiProvider) Name() string {
	return ProviderGemini
}

func (p *geminiProvider) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	tokenResp, err := p.client.Models.CountTokens(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to count tokens: %w", err)
	}

	p.logger.DebugContext(ctx, "Gemini token count",
		logger.IntField("total_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining", p.tokenLimiter.GetRemaining()),
	)
	if err := p.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return "", fmt.Errorf("failed to wait for gemini token limit: %w", err)
	}
	if int(tokenResp.TotalTokens) > p.tokenBudget/2 {
		p.logger.WarnContext(ctx, "Token has exceeded 50% of the limit", logger.IntField("remaining", p.tokenLimiter.GetRemaining()))
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   int32(maxTokens),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini response has no text content")
	}
	return text, nil
}
