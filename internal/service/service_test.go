package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"apex-hub/config"
	"apex-hub/internal/dto"
	"apex-hub/internal/model"
	"apex-hub/internal/repository"
	"apex-hub/pkg/cache"
	"apex-hub/pkg/database"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const btcPayload = `{"asset":"BTC/USD","score":{"total":4},"signal":{"direction":"buy","tf_aligned":true,"path_clear":true},"levels":{"entry":100,"stop":95,"tp1":105,"tp2":110,"tp3":115}}`

func testConfig() *config.Config {
	return &config.Config{
		App:        config.App{Name: "apex-hub", Version: "2.0.0"},
		AI:         config.AI{Provider: repository.ProviderAnthropic, MaxTokens: 1500, MaxRequestPerMinute: 60, MaxTokenPerMinute: 100000},
		Intake:     config.Intake{MinScore: 3, RequireTFAlignment: true},
		Enrichment: config.Enrichment{Workers: 2, QueueSize: 16},
		Cache:      config.Cache{StatsTTL: time.Minute},
		Retention:  config.Retention{MaxAge: 24 * time.Hour},
	}
}

func newTestRecorder() *metrics.Recorder {
	return metrics.New(prometheus.NewRegistry())
}

func newTestSignalRepo(t *testing.T) repository.SignalRepository {
	t.Helper()
	db, err := database.NewDB(config.Database{Driver: database.DriverSQLite, Path: ":memory:", LogLevel: "Silent"}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := repository.NewSignalRepository(db.DB, cache.NewCache(time.Minute, time.Minute), time.Minute)
	require.NoError(t, err)
	return repo
}

func mustPayload(t *testing.T, raw string) *dto.SignalPayload {
	t.Helper()
	p, err := dto.ParseSignalPayload([]byte(raw), time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

type fakeAIRepo struct {
	mu      sync.Mutex
	result  dto.AnalysisResult
	prompts []string
}

func (f *fakeAIRepo) Analyze(ctx context.Context, prompt string) dto.AnalysisResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.result
}

type fakeSender struct {
	mu         sync.Mutex
	configured bool
	err        error
	messages   []string
}

func (f *fakeSender) Configured() bool {
	return f.configured
}

func (f *fakeSender) SendChannelMessage(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeNotifier) Deliver(ctx context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
}

// failingSignalRepo fails every write.
type failingSignalRepo struct {
	repository.SignalRepository
}

func (failingSignalRepo) Append(ctx context.Context, payload *dto.SignalPayload, analysis dto.AnalysisResult) (*model.Signal, error) {
	return nil, errors.New("database is locked")
}

type fakeDispatcher struct {
	mu       sync.Mutex
	err      error
	payloads []*dto.SignalPayload
}

func (f *fakeDispatcher) Enqueue(payload *dto.SignalPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeDispatcher) Start() {}

func (f *fakeDispatcher) Stop() {}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}
