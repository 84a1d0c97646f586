package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"apex-hub/internal/dto"
	"apex-hub/internal/model"
	"apex-hub/pkg/cache"
	"apex-hub/pkg/common"
	"apex-hub/pkg/utils"

	"gorm.io/gorm"
)

const DefaultSignalLimit = 50

type SignalRepository interface {
	Append(ctx context.Context, payload *dto.SignalPayload, analysis dto.AnalysisResult) (*model.Signal, error)
	Query(ctx context.Context, filter model.SignalFilter) ([]model.Signal, error)
	Latest(ctx context.Context, asset string) (*model.Signal, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*model.SignalStats, error)
	Count(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, date time.Time) (int64, error)
}

type signalRepository struct {
	db       *gorm.DB
	cache    cache.Cache
	statsTTL time.Duration

	// serialises writes so SQLite hands out ids in commit order
	writeMu sync.Mutex
}

// NewSignalRepository creates the signals table if it does not exist.
func NewSignalRepository(db *gorm.DB, c cache.Cache, statsTTL time.Duration) (SignalRepository, error) {
	if err := db.AutoMigrate(&model.Signal{}); err != nil {
		return nil, fmt.Errorf("failed to migrate signals table: %w", err)
	}
	return &signalRepository{db: db, cache: c, statsTTL: statsTTL}, nil
}

func (s *signalRepository) Append(ctx context.Context, payload *dto.SignalPayload, analysis dto.AnalysisResult) (*model.Signal, error) {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	payloadJSON := payload.Raw
	if len(payloadJSON) == 0 {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	signal := &model.Signal{
		Timestamp: payload.Timestamp.String(),
		Asset:     payload.Asset(),
		Direction: payload.Direction(),
		Score:     payload.ScoreTotal(),
		Entry:     payload.Levels.Entry.Ptr(),
		Stop:      payload.Levels.Stop.Ptr(),
		TP1:       payload.Levels.TP1.Ptr(),
		TP2:       payload.Levels.TP2.Ptr(),
		TP3:       payload.Levels.TP3.Ptr(),
		Prob:      analysis.ProbabilityValue(),
		PathClear: payload.PathClear(),
		IsWeekend: payload.Weekend(),
		Analysis:  analysisJSON,
		Payload:   payloadJSON,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.db.WithContext(ctx).Create(signal).Error; err != nil {
		return nil, err
	}
	s.invalidateStats()
	return signal, nil
}

func (s *signalRepository) Query(ctx context.Context, filter model.SignalFilter) ([]model.Signal, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSignalLimit
	}

	opts := []utils.DBOption{utils.WithLimit(limit)}
	if filter.Asset != "" {
		opts = append(opts, utils.WithWhere("asset = ?", filter.Asset))
	}
	if filter.Direction != "" {
		opts = append(opts, utils.WithWhere("direction = ?", filter.Direction))
	}

	var signals []model.Signal
	query := utils.ApplyOptions(s.db.WithContext(ctx).Model(&model.Signal{}), opts...)
	if err := query.Order("id DESC").Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}

// Latest returns nil when nothing matches.
func (s *signalRepository) Latest(ctx context.Context, asset string) (*model.Signal, error) {
	signals, err := s.Query(ctx, model.SignalFilter{Limit: 1, Asset: asset})
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return nil, nil
	}
	return &signals[0], nil
}

// Delete removes the record; a missing id is not an error.
func (s *signalRepository) Delete(ctx context.Context, id uint) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.db.WithContext(ctx).Delete(&model.Signal{}, id).Error; err != nil {
		return err
	}
	s.invalidateStats()
	return nil
}

func (s *signalRepository) Stats(ctx context.Context) (*model.SignalStats, error) {
	if stats, ok := cache.GetFromCache[*model.SignalStats](s.cache, common.KEY_SIGNAL_STATS); ok {
		return stats, nil
	}

	db := s.db.WithContext(ctx)
	stats := &model.SignalStats{Assets: []string{}}

	if err := db.Model(&model.Signal{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count signals: %w", err)
	}
	if err := db.Model(&model.Signal{}).Where("direction = ?", common.DirectionBuy).Count(&stats.Buys).Error; err != nil {
		return nil, fmt.Errorf("failed to count buys: %w", err)
	}
	if err := db.Model(&model.Signal{}).Where("direction = ?", common.DirectionSell).Count(&stats.Sells).Error; err != nil {
		return nil, fmt.Errorf("failed to count sells: %w", err)
	}

	var avgScore, avgProb float64
	if err := db.Model(&model.Signal{}).Select("COALESCE(AVG(score), 0)").Row().Scan(&avgScore); err != nil {
		return nil, fmt.Errorf("failed to average score: %w", err)
	}
	if err := db.Model(&model.Signal{}).Where("prob > 0").Select("COALESCE(AVG(prob), 0)").Row().Scan(&avgProb); err != nil {
		return nil, fmt.Errorf("failed to average probability: %w", err)
	}
	stats.AvgScore = round(avgScore, 2)
	stats.AvgProb = round(avgProb, 1)

	var assets []string
	if err := db.Model(&model.Signal{}).Where("asset <> ''").Distinct().Order("asset ASC").Pluck("asset", &assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	if len(assets) > 0 {
		stats.Assets = assets
	}

	if s.cache != nil && s.statsTTL > 0 {
		s.cache.Set(common.KEY_SIGNAL_STATS, stats, s.statsTTL)
	}
	return stats, nil
}

func (s *signalRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Signal{}).Count(&total).Error
	return total, err
}

func (s *signalRepository) DeleteOlderThan(ctx context.Context, date time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result := s.db.WithContext(ctx).Where("created_at < ?", date.UTC()).Delete(&model.Signal{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.invalidateStats()
	}
	return result.RowsAffected, nil
}

func (s *signalRepository) invalidateStats() {
	if s.cache != nil {
		s.cache.Delete(common.KEY_SIGNAL_STATS)
	}
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
