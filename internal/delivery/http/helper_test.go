package http

import (
	"testing"
	"time"

	"apex-hub/internal/dto"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *dto.SignalPayload {
	t.Helper()
	p, err := dto.ParseSignalPayload([]byte(raw), time.Now())
	require.NoError(t, err)
	return p
}

func analysis() dto.AnalysisResult {
	return dto.AnalysisResult{Probability: dto.NewNumber(70), Bias: "BULLISH"}
}
