package repository

import (
	"context"

	"apex-hub/config"
	"apex-hub/pkg/cache"
	"apex-hub/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	SignalRepo SignalRepository
	AIRepo     AIRepository
}

func NewRepository(ctx context.Context, cfg *config.Config, db *gorm.DB, c cache.Cache, log *logger.Logger) (*Repository, error) {
	signalRepo, err := NewSignalRepository(db, c, cfg.Cache.StatsTTL)
	if err != nil {
		return nil, err
	}

	aiRepo, err := NewAIRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		SignalRepo: signalRepo,
		AIRepo:     aiRepo,
	}, nil
}
