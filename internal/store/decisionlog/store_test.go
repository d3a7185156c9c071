package decisionlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertAndRecent(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, Record{
		Asset: "EURUSD", Direction: "call", Pattern: "engulfing",
		Regime: "trend", Score: 0.82, Prob: 0.7, Admitted: true,
		Context: map[string]any{"trend_bias": 0.9},
	}))
	require.NoError(t, s.Insert(ctx, Record{
		Asset: "GBPUSD", Direction: "put", Score: 0.4,
		Reason: "score below floor",
	}))

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Newest first.
	assert.Equal(t, "GBPUSD", recs[0].Asset)
	assert.False(t, recs[0].Admitted)
	assert.Equal(t, "score below floor", recs[0].Reason)

	assert.Equal(t, "EURUSD", recs[1].Asset)
	assert.True(t, recs[1].Admitted)
	assert.NotZero(t, recs[1].Timestamp)
	ctxDoc, ok := recs[1].Context.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.9, ctxDoc["trend_bias"])
}

func TestStoreRequiresPath(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
