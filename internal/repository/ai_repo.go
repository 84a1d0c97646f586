package repository

import (
	"context"
	"fmt"
	"time"

	"apex-hub/config"
	"apex-hub/internal/dto"
	"apex-hub/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// AIRepository turns a prompt into an analysis. Failures come back as an
// error marker inside the result, never as a Go error.
type AIRepository interface {
	Analyze(ctx context.Context, prompt string) dto.AnalysisResult
}

// completionProvider sends one request to a language model and returns its text reply.
type completionProvider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

type aiRepository struct {
	cfg            config.AI
	logger         *logger.Logger
	provider       completionProvider
	requestLimiter *rate.Limiter
}

// NewAIRepository builds the client for cfg.AI.Provider. Without an API key
// no provider is created and every call returns the missing credential marker.
func NewAIRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	if cfg.AI.APIKey == "" {
		log.Warn("AI API key is not configured, signals will be stored without analysis")
		return newAIRepository(cfg.AI, nil, log), nil
	}

	var (
		provider completionProvider
		err      error
	)
	switch cfg.AI.Provider {
	case ProviderGemini:
		provider, err = newGeminiProvider(ctx, cfg.AI, log)
	case ProviderAnthropic, "":
		provider = newAnthropicProvider(cfg.AI)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.AI.Provider)
	}
	if err != nil {
		return nil, err
	}

	log.Info("AI provider configured", logger.StringField("provider", provider.Name()))
	return newAIRepository(cfg.AI, provider, log), nil
}

func newAIRepository(cfg config.AI, provider completionProvider, log *logger.Logger) *aiRepository {
	limit := rate.Inf
	if cfg.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestPerMinute))
	}
	return &aiRepository{
		cfg:            cfg,
		logger:         log,
		provider:       provider,
		requestLimiter: rate.NewLimiter(limit, 1),
	}
}

func (r *aiRepository) Analyze(ctx context.Context, prompt string) dto.AnalysisResult {
	if r.provider == nil {
		return dto.NewAnalysisError(dto.AnalysisErrMissingCredential, "missing credential")
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.logger.WarnContext(ctx, "AI request limiter wait failed", logger.ErrorField(err))
		return dto.NewAnalysisError(dto.AnalysisErrProvider, fmt.Sprintf("rate limiter: %v", err))
	}

	start := time.Now()
	text, err := r.provider.Complete(ctx, SignalSystemInstruction, prompt, r.cfg.MaxTokens)
	if err != nil {
		r.logger.WarnContext(ctx, "AI provider request failed",
			logger.StringField("provider", r.provider.Name()),
			logger.ErrorField(err))
		return dto.NewAnalysisError(dto.AnalysisErrProvider, err.Error())
	}

	result, err := parseAnalysis(text)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to parse AI response",
			logger.StringField("provider", r.provider.Name()),
			logger.ErrorField(err))
		return dto.NewAnalysisError(dto.AnalysisErrParse, err.Error())
	}

	r.logger.DebugContext(ctx, "AI analysis completed",
		logger.StringField("provider", r.provider.Name()),
		logger.DurationField("elapsed", time.Since(start)),
		logger.FloatField("probability", result.ProbabilityValue()))
	return result
}
