package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"apex-hub/config"
	"apex-hub/internal/dto"
	"apex-hub/internal/model"
	"apex-hub/pkg/cache"
	"apex-hub/pkg/database"
	"apex-hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSignalRepo(t *testing.T) SignalRepository {
	t.Helper()
	db, err := database.NewDB(config.Database{Driver: database.DriverSQLite, Path: ":memory:", LogLevel: "Silent"}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewSignalRepository(db.DB, cache.NewCache(time.Minute, time.Minute), time.Minute)
	require.NoError(t, err)
	return repo
}

func mustPayload(t *testing.T, raw string) *dto.SignalPayload {
	t.Helper()
	p, err := dto.ParseSignalPayload([]byte(raw), time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

func analysisWithProb(prob float64) dto.AnalysisResult {
	return dto.AnalysisResult{Probability: dto.NewNumber(prob), Bias: "BULLISH"}
}

const btcPayload = `{"asset":"BTC/USD","score":{"total":4},"signal":{"direction":"buy","tf_aligned":true,"path_clear":true},"levels":{"entry":100,"stop":95,"tp1":105,"tp2":110,"tp3":115},"is_weekend":true}`

func TestSignalRepository_AppendQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	payload := mustPayload(t, btcPayload)
	saved, err := repo.Append(ctx, payload, analysisWithProb(72))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	signals, err := repo.Query(ctx, model.SignalFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, signals, 1)

	got := signals[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "BTC/USD", got.Asset)
	assert.Equal(t, "buy", got.Direction)
	assert.Equal(t, 4.0, got.Score)
	require.NotNil(t, got.Entry)
	assert.Equal(t, 100.0, *got.Entry)
	assert.Equal(t, 95.0, *got.Stop)
	assert.Equal(t, 105.0, *got.TP1)
	assert.Equal(t, 110.0, *got.TP2)
	assert.Equal(t, 115.0, *got.TP3)
	assert.Equal(t, 72.0, got.Prob)
	assert.True(t, got.PathClear)
	assert.True(t, got.IsWeekend)
	assert.Equal(t, "2026-03-07T09:00:00Z", got.Timestamp)
	assert.Equal(t, btcPayload, string(got.Payload))

	var analysis map[string]any
	require.NoError(t, json.Unmarshal(got.Analysis, &analysis))
	assert.Equal(t, "BULLISH", analysis["bias"])
}

func TestSignalRepository_AppendErrorMarker(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	saved, err := repo.Append(ctx, mustPayload(t, `{"asset":"ETH/USD"}`), dto.NewAnalysisError(dto.AnalysisErrMissingCredential, "missing credential"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, saved.Prob)
	assert.Nil(t, saved.Entry)
	assert.JSONEq(t, `{"error":"missing credential","error_kind":"missing_credential"}`, string(saved.Analysis))
}

func TestSignalRepository_QueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	rows := []string{
		`{"asset":"BTC/USD","signal":{"direction":"buy"}}`,
		`{"asset":"ETH/USD","signal":{"direction":"sell"}}`,
		`{"asset":"BTC/USD","signal":{"direction":"sell"}}`,
		`{"asset":"BTC/USD","signal":{"direction":"buy"}}`,
	}
	var ids []uint
	for _, raw := range rows {
		s, err := repo.Append(ctx, mustPayload(t, raw), analysisWithProb(50))
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	tests := []struct {
		name   string
		filter model.SignalFilter
		want   []uint
	}{
		{name: "all newest first", filter: model.SignalFilter{}, want: []uint{ids[3], ids[2], ids[1], ids[0]}},
		{name: "limit", filter: model.SignalFilter{Limit: 2}, want: []uint{ids[3], ids[2]}},
		{name: "asset", filter: model.SignalFilter{Asset: "BTC/USD"}, want: []uint{ids[3], ids[2], ids[0]}},
		{name: "asset and direction", filter: model.SignalFilter{Asset: "BTC/USD", Direction: "sell"}, want: []uint{ids[2]}},
		{name: "direction is exact match", filter: model.SignalFilter{Direction: "BUY"}, want: nil},
		{name: "unknown asset", filter: model.SignalFilter{Asset: "XRP/USD"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals, err := repo.Query(ctx, tt.filter)
			require.NoError(t, err)

			var got []uint
			for _, s := range signals {
				got = append(got, s.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignalRepository_QueryDefaultLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	for i := 0; i < DefaultSignalLimit+5; i++ {
		_, err := repo.Append(ctx, mustPayload(t, `{"asset":"BTC/USD"}`), analysisWithProb(0))
		require.NoError(t, err)
	}

	signals, err := repo.Query(ctx, model.SignalFilter{})
	require.NoError(t, err)
	assert.Len(t, signals, DefaultSignalLimit)
}

func TestSignalRepository_Latest(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	latest, err := repo.Latest(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = repo.Append(ctx, mustPayload(t, `{"asset":"BTC/USD"}`), analysisWithProb(10))
	require.NoError(t, err)
	eth, err := repo.Append(ctx, mustPayload(t, `{"asset":"ETH/USD"}`), analysisWithProb(20))
	require.NoError(t, err)
	btc, err := repo.Append(ctx, mustPayload(t, `{"asset":"BTC/USD"}`), analysisWithProb(30))
	require.NoError(t, err)

	latest, err = repo.Latest(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, btc.ID, latest.ID)

	latest, err = repo.Latest(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, eth.ID, latest.ID)

	latest, err = repo.Latest(ctx, "SOL/USD")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSignalRepository_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	saved, err := repo.Append(ctx, mustPayload(t, btcPayload), analysisWithProb(60))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved.ID))
	require.NoError(t, repo.Delete(ctx, saved.ID))
	require.NoError(t, repo.Delete(ctx, 9999))

	signals, err := repo.Query(ctx, model.SignalFilter{})
	require.NoError(t, err)
	for _, s := range signals {
		assert.NotEqual(t, saved.ID, s.ID)
	}
}

func TestSignalRepository_StatsEmpty(t *testing.T) {
	repo := newTestSignalRepo(t)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.SignalStats{Assets: []string{}}, stats)

	b, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"buys":0,"sells":0,"avg_score":0,"avg_prob":0,"assets":[]}`, string(b))
}

func TestSignalRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	appendSignal := func(raw string, analysis dto.AnalysisResult) {
		_, err := repo.Append(ctx, mustPayload(t, raw), analysis)
		require.NoError(t, err)
	}
	appendSignal(`{"asset":"ETH/USD","score":{"total":3},"signal":{"direction":"buy"}}`, analysisWithProb(70))
	appendSignal(`{"asset":"BTC/USD","score":{"total":4},"signal":{"direction":"sell"}}`, analysisWithProb(65))
	appendSignal(`{"asset":"BTC/USD","score":{"total":4},"signal":{"direction":"buy"}}`, analysisWithProb(66))
	appendSignal(`{"score":{"total":5},"signal":{"direction":"neutral"}}`, dto.NewAnalysisError(dto.AnalysisErrParse, "bad json"))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Buys)
	assert.Equal(t, int64(1), stats.Sells)
	assert.Equal(t, 4.0, stats.AvgScore)
	assert.Equal(t, 67.0, stats.AvgProb)
	assert.Equal(t, []string{"BTC/USD", "ETH/USD"}, stats.Assets)
}

func TestSignalRepository_StatsRounding(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	for _, score := range []int{3, 4, 4} {
		_, err := repo.Append(ctx, mustPayload(t, fmt.Sprintf(`{"asset":"BTC/USD","score":{"total":%d}}`, score)), analysisWithProb(float64(score*10)+0.55))
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.67, stats.AvgScore)
	assert.Equal(t, 37.2, stats.AvgProb)
}

func TestSignalRepository_StatsInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)

	saved, err := repo.Append(ctx, mustPayload(t, btcPayload), analysisWithProb(80))
	require.NoError(t, err)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)

	require.NoError(t, repo.Delete(ctx, saved.ID))

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
}

func TestSignalRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	_, err := repo.Append(ctx, mustPayload(t, btcPayload), analysisWithProb(80))
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSignalRepository_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	repo := newTestSignalRepo(t)

	const writers = 20
	payload := mustPayload(t, btcPayload)
	var wg sync.WaitGroup
	ids := make(chan uint, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := repo.Append(ctx, payload, analysisWithProb(50))
			assert.NoError(t, err)
			if err == nil {
				ids <- s.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), count)
}
