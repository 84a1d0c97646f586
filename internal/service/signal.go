package service

import (
	"context"
	"time"

	"apex-hub/config"
	"apex-hub/internal/dto"
	"apex-hub/internal/model"
	"apex-hub/internal/repository"
)

type SignalService interface {
	List(ctx context.Context, req dto.ListSignalsRequest) ([]model.Signal, error)
	Latest(ctx context.Context, asset string) (*model.Signal, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*model.SignalStats, error)
	Health(ctx context.Context) (*dto.HealthResponse, error)
}

type signalService struct {
	cfg        *config.Config
	signalRepo repository.SignalRepository
	now        func() time.Time
}

func NewSignalService(cfg *config.Config, signalRepo repository.SignalRepository) SignalService {
	return &signalService{cfg: cfg, signalRepo: signalRepo, now: time.Now}
}

func (s *signalService) List(ctx context.Context, req dto.ListSignalsRequest) ([]model.Signal, error) {
	signals, err := s.signalRepo.Query(ctx, model.SignalFilter{
		Limit:     req.Limit,
		Asset:     req.Asset,
		Direction: req.Direction,
	})
	if err != nil {
		return nil, err
	}
	if signals == nil {
		signals = []model.Signal{}
	}
	return signals, nil
}

func (s *signalService) Latest(ctx context.Context, asset string) (*model.Signal, error) {
	return s.signalRepo.Latest(ctx, asset)
}

func (s *signalService) Delete(ctx context.Context, id uint) error {
	return s.signalRepo.Delete(ctx, id)
}

func (s *signalService) Stats(ctx context.Context) (*model.SignalStats, error) {
	return s.signalRepo.Stats(ctx)
}

func (s *signalService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	total, err := s.signalRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.HealthResponse{
		Status:       "ok",
		Version:      s.cfg.App.Version,
		Timestamp:    s.now().UTC().Format(time.RFC3339),
		SignalsTotal: total,
	}, nil
}
