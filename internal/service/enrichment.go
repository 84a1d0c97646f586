package service

import (
	"context"
	"fmt"
	"time"

	"apex-hub/config"
	"apex-hub/internal/dto"
	"apex-hub/internal/model"
	"apex-hub/internal/repository"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/metrics"
)

const (
	RunOutcomePersisted     = "persisted"
	RunOutcomePersistedNoAI = "persisted_without_analysis"
	RunOutcomeStorageFailed = "storage_failed"
)

const (
	stageAnalyze = "analyze"
	stageNotify  = "notify"
	stagePersist = "persist"
)

// EnrichmentService runs prompt, analysis, optional notification and
// persistence for one accepted signal, in that order.
type EnrichmentService interface {
	Process(ctx context.Context, payload *dto.SignalPayload) (*model.Signal, error)
}

type enrichmentService struct {
	cfg        *config.Config
	log        *logger.Logger
	aiRepo     repository.AIRepository
	signalRepo repository.SignalRepository
	notifier   NotifierService
	metrics    *metrics.Recorder
}

func NewEnrichmentService(
	cfg *config.Config,
	log *logger.Logger,
	aiRepo repository.AIRepository,
	signalRepo repository.SignalRepository,
	notifier NotifierService,
	recorder *metrics.Recorder,
) EnrichmentService {
	return &enrichmentService{
		cfg:        cfg,
		log:        log,
		aiRepo:     aiRepo,
		signalRepo: signalRepo,
		notifier:   notifier,
		metrics:    recorder,
	}
}

// Process only fails when the record cannot be stored. Analysis and delivery
// failures are carried in the stored analysis or logged.
func (e *enrichmentService) Process(ctx context.Context, payload *dto.SignalPayload) (*model.Signal, error) {
	log := e.log.With(
		logger.StringField("asset", payload.Asset()),
		logger.StringField("direction", payload.Direction()),
		logger.FloatField("score", payload.ScoreTotal()),
	)
	ctx = logger.NewContext(ctx, log)
	log.Info("Processing signal")

	prompt := repository.BuildSignalPrompt(payload)

	start := time.Now()
	analysis := e.aiRepo.Analyze(ctx, prompt)
	e.observe(stageAnalyze, start)
	if analysis.IsError() {
		log.Warn("Signal analysis unavailable",
			logger.StringField("error_kind", string(analysis.ErrorKind)),
			logger.StringField("error", analysis.Error))
		if e.metrics != nil {
			e.metrics.RecordAnalysisFailure(string(analysis.ErrorKind))
		}
	}

	if e.cfg.Telegram.Enabled {
		start = time.Now()
		e.notifier.Deliver(ctx, FormatSignalMessage(payload, analysis))
		e.observe(stageNotify, start)
	}

	start = time.Now()
	signal, err := e.signalRepo.Append(ctx, payload, analysis)
	e.observe(stagePersist, start)
	if err != nil {
		log.ErrorContextWithAlert(ctx, "Failed to persist signal, record is lost", logger.ErrorField(err))
		e.recordRun(RunOutcomeStorageFailed)
		return nil, fmt.Errorf("failed to persist signal: %w", err)
	}

	outcome := RunOutcomePersisted
	if analysis.IsError() {
		outcome = RunOutcomePersistedNoAI
	}
	e.recordRun(outcome)

	log.Info("Signal processed",
		logger.IntField("signal_id", int(signal.ID)),
		logger.FloatField("probability", signal.Prob))
	return signal, nil
}

func (e *enrichmentService) observe(stage string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordStage(stage, time.Since(start).Seconds())
	}
}

func (e *enrichmentService) recordRun(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordRun(outcome)
	}
}
