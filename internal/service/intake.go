package service

import (
	"context"
	"errors"
	"fmt"

	"apex-hub/config"
	"apex-hub/internal/dto"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/metrics"
	"apex-hub/pkg/utils"
)

var ErrMalformedInput = errors.New("malformed input")

const (
	ReasonScoreBelowMinimum = "score below minimum"
	ReasonTFNotAligned      = "timeframes not aligned"
)

// IntakeService applies the acceptance policy to webhook submissions.
type IntakeService interface {
	Submit(ctx context.Context, raw []byte) (dto.Decision, error)
}

type intakeService struct {
	cfg        config.Intake
	log        *logger.Logger
	dispatcher Dispatcher
	metrics    *metrics.Recorder
}

func NewIntakeService(cfg config.Intake, log *logger.Logger, dispatcher Dispatcher, recorder *metrics.Recorder) IntakeService {
	return &intakeService{cfg: cfg, log: log, dispatcher: dispatcher, metrics: recorder}
}

// Submit returns ErrMalformedInput when raw is not a JSON object and
// ErrQueueFull when an accepted signal cannot be scheduled. Every accepted
// decision schedules exactly one enrichment run.
func (s *intakeService) Submit(ctx context.Context, raw []byte) (dto.Decision, error) {
	payload, err := dto.ParseSignalPayload(raw, utils.TimeNowUTC())
	if err != nil {
		s.record("malformed")
		return dto.Decision{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	score := payload.ScoreTotal()
	if score < s.cfg.MinScore {
		reason := fmt.Sprintf("%s (%s < %s)", ReasonScoreBelowMinimum, utils.FormatNumber(score), utils.FormatNumber(s.cfg.MinScore))
		s.log.InfoContext(ctx, "Signal ignored",
			logger.StringField("asset", payload.Asset()),
			logger.StringField("reason", reason))
		s.record(string(dto.DecisionIgnored))
		return dto.NewIgnoredDecision(reason), nil
	}

	if s.cfg.RequireTFAlignment && !payload.TFAligned() {
		s.log.InfoContext(ctx, "Signal ignored",
			logger.StringField("asset", payload.Asset()),
			logger.StringField("reason", ReasonTFNotAligned))
		s.record(string(dto.DecisionIgnored))
		return dto.NewIgnoredDecision(ReasonTFNotAligned), nil
	}

	if err := s.dispatcher.Enqueue(payload); err != nil {
		s.log.WarnContext(ctx, "Failed to schedule signal enrichment",
			logger.StringField("asset", payload.Asset()),
			logger.ErrorField(err))
		s.record("rejected")
		return dto.Decision{}, err
	}

	s.log.InfoContext(ctx, "Signal accepted",
		logger.StringField("asset", payload.Asset()),
		logger.StringField("direction", payload.Direction()),
		logger.FloatField("score", score))
	s.record(string(dto.DecisionAccepted))
	return dto.NewAcceptedDecision(payload), nil
}

func (s *intakeService) record(status string) {
	if s.metrics != nil {
		s.metrics.RecordDecision(status)
	}
}
