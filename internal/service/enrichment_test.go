package service

import (
	"context"
	"testing"

	"apex-hub/internal/dto"
	"apex-hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichmentService_Process(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	signalRepo := newTestSignalRepo(t)
	aiRepo := &fakeAIRepo{result: dto.AnalysisResult{Probability: dto.NewNumber(74), Bias: "BULLISH"}}
	notifier := &fakeNotifier{}

	enrichment := NewEnrichmentService(cfg, logger.NewNop(), aiRepo, signalRepo, notifier, newTestRecorder())

	signal, err := enrichment.Process(ctx, mustPayload(t, btcPayload))
	require.NoError(t, err)

	assert.NotZero(t, signal.ID)
	assert.Equal(t, 74.0, signal.Prob)
	require.Len(t, aiRepo.prompts, 1)
	assert.Contains(t, aiRepo.prompts[0], "BTC/USD")
	assert.Empty(t, notifier.texts, "notifications are disabled")
}

func TestEnrichmentService_NotifiesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Telegram.Enabled = true
	aiRepo := &fakeAIRepo{result: dto.AnalysisResult{Probability: dto.NewNumber(74), ChannelSummary: "BTC long, 74%"}}
	notifier := &fakeNotifier{}

	enrichment := NewEnrichmentService(cfg, logger.NewNop(), aiRepo, newTestSignalRepo(t), notifier, newTestRecorder())

	_, err := enrichment.Process(ctx, mustPayload(t, btcPayload))
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC long, 74%"}, notifier.texts)
}

func TestEnrichmentService_AnalysisErrorStillPersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Telegram.Enabled = true
	signalRepo := newTestSignalRepo(t)
	aiRepo := &fakeAIRepo{result: dto.NewAnalysisError(dto.AnalysisErrProvider, "overloaded")}
	notifier := &fakeNotifier{}

	enrichment := NewEnrichmentService(cfg, logger.NewNop(), aiRepo, signalRepo, notifier, newTestRecorder())

	signal, err := enrichment.Process(ctx, mustPayload(t, btcPayload))
	require.NoError(t, err)
	assert.Equal(t, 0.0, signal.Prob)
	assert.JSONEq(t, `{"error":"overloaded","error_kind":"provider_error"}`, string(signal.Analysis))

	require.Len(t, notifier.texts, 1)
	assert.Contains(t, notifier.texts[0], "Prob: ?%")

	count, err := signalRepo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEnrichmentService_DeliveryFailureDoesNotBlockPersistence(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Telegram.Enabled = true
	signalRepo := newTestSignalRepo(t)
	sender := &fakeSender{configured: true, err: assert.AnError}
	recorder := newTestRecorder()

	enrichment := NewEnrichmentService(cfg, logger.NewNop(), &fakeAIRepo{}, signalRepo, NewNotifierService(logger.NewNop(), sender, recorder), recorder)

	signal, err := enrichment.Process(ctx, mustPayload(t, btcPayload))
	require.NoError(t, err)
	assert.NotNil(t, signal)
	assert.Len(t, sender.sent(), 1)
}

func TestEnrichmentService_StorageFailure(t *testing.T) {
	enrichment := NewEnrichmentService(testConfig(), logger.NewNop(), &fakeAIRepo{}, failingSignalRepo{}, &fakeNotifier{}, newTestRecorder())

	signal, err := enrichment.Process(context.Background(), mustPayload(t, btcPayload))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Nil(t, signal)
}
