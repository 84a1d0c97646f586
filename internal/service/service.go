package service

import (
	"apex-hub/config"
	"apex-hub/internal/repository"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/metrics"
)

type Service struct {
	IntakeService     IntakeService
	EnrichmentService EnrichmentService
	Dispatcher        Dispatcher
	NotifierService   NotifierService
	SignalService     SignalService
	SchedulerService  SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	sender ChannelSender,
	recorder *metrics.Recorder,
) *Service {
	notifierService := NewNotifierService(log, sender, recorder)
	enrichmentService := NewEnrichmentService(cfg, log, repo.AIRepo, repo.SignalRepo, notifierService, recorder)
	dispatcher := NewDispatcher(log, recorder, enrichmentService, cfg.Enrichment.Workers, cfg.Enrichment.QueueSize)

	return &Service{
		IntakeService:     NewIntakeService(cfg.Intake, log, dispatcher, recorder),
		EnrichmentService: enrichmentService,
		Dispatcher:        dispatcher,
		NotifierService:   notifierService,
		SignalService:     NewSignalService(cfg, repo.SignalRepo),
		SchedulerService:  NewSchedulerService(cfg.Retention, log, repo.SignalRepo),
	}
}
