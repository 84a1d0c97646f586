package service

import (
	"context"
	"fmt"
	"time"

	"apex-hub/config"
	"apex-hub/internal/repository"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the retention job that prunes old signals.
type SchedulerService interface {
	Start() error
	Stop()
	RunRetention(ctx context.Context) (int64, error)
}

type schedulerService struct {
	cfg        config.Retention
	log        *logger.Logger
	signalRepo repository.SignalRepository
	cronParser cron.Parser
	cron       *cron.Cron
}

func NewSchedulerService(cfg config.Retention, log *logger.Logger, signalRepo repository.SignalRepository) SchedulerService {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &schedulerService{
		cfg:        cfg,
		log:        log,
		signalRepo: signalRepo,
		cronParser: parser,
		cron:       cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
	}
}

// Start registers the retention job. An empty retention.cron disables it.
func (s *schedulerService) Start() error {
	if s.cfg.Cron == "" {
		s.log.Info("Retention job disabled")
		return nil
	}
	if s.cfg.MaxAge <= 0 {
		return fmt.Errorf("retention max_age must be positive, got %s", s.cfg.MaxAge)
	}

	if _, err := s.cron.AddFunc(s.cfg.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.RunRetention(ctx); err != nil {
			s.log.ErrorContextWithAlert(ctx, "Retention job failed", logger.ErrorField(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule retention job %q: %w", s.cfg.Cron, err)
	}

	s.cron.Start()
	schedule, _ := s.cronParser.Parse(s.cfg.Cron)
	s.log.Info("Retention job scheduled",
		logger.StringField("cron", s.cfg.Cron),
		logger.DurationField("max_age", s.cfg.MaxAge),
		logger.StringField("next_run", utils.PrettyDate(schedule.Next(utils.TimeNowUTC()))))
	return nil
}

func (s *schedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *schedulerService) RunRetention(ctx context.Context) (int64, error) {
	if s.cfg.MaxAge <= 0 {
		return 0, fmt.Errorf("retention max_age must be positive, got %s", s.cfg.MaxAge)
	}
	cutoff := utils.TimeNowUTC().Add(-s.cfg.MaxAge)
	deleted, err := s.signalRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.log.InfoContext(ctx, "Retention job completed",
		logger.IntField("deleted", int(deleted)),
		logger.StringField("cutoff", cutoff.Format(time.RFC3339)))
	return deleted, nil
}
