package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotBuilder_Uptrend(t *testing.T) {
	builder, err := NewSnapshotBuilder(SnapshotConfig{})
	require.NoError(t, err)

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	for _, bar := range barsFromCloses(closes...) {
		require.NoError(t, builder.Add(bar))
	}

	require.True(t, builder.Ready())
	snapshot, err := builder.Snapshot()
	require.NoError(t, err)

	// A steady uptrend: fast MA above slow MA, positive MACD, maxed RSI
	assert.Greater(t, snapshot.MA20, snapshot.MA50)
	assert.Greater(t, snapshot.MACD, 0.0)
	assert.InDelta(t, 100.0, snapshot.RSI, 0.01)
	assert.Equal(t, 1000.0, snapshot.Volume)
	require.NotNil(t, snapshot.Volatility)
	assert.Greater(t, *snapshot.Volatility, 0.0)
}

func TestSnapshotBuilder_NotReady(t *testing.T) {
	builder, err := NewSnapshotBuilder(SnapshotConfig{})
	require.NoError(t, err)

	for _, bar := range barsFromCloses(100, 101, 102) {
		require.NoError(t, builder.Add(bar))
	}

	assert.False(t, builder.Ready())
	_, err = builder.Snapshot()
	require.Error(t, err)
}

func TestSnapshotBuilder_VolatilityOptional(t *testing.T) {
	// A volatility window longer than the history leaves Volatility nil
	// while the rest of the snapshot is valid.
	builder, err := NewSnapshotBuilder(SnapshotConfig{VolatilityWindow: 100})
	require.NoError(t, err)

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	for _, bar := range barsFromCloses(closes...) {
		require.NoError(t, builder.Add(bar))
	}

	snapshot, err := builder.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snapshot.Volatility)
	assert.False(t, snapshot.HasVolatility())
}

func TestSnapshotBuilder_InvalidConfig(t *testing.T) {
	_, err := NewSnapshotBuilder(SnapshotConfig{FastMAPeriod: 50, SlowMAPeriod: 20})
	require.Error(t, err)
}

func TestSnapshotBuilder_RejectsInvalidBar(t *testing.T) {
	builder, err := NewSnapshotBuilder(SnapshotConfig{})
	require.NoError(t, err)

	bad := barsFromCloses(100)[0]
	bad.High = bad.Low - 1
	require.Error(t, builder.Add(bad))
	require.Error(t, builder.Add(nil))
}

func TestBuildSnapshot(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}

	snapshot, err := BuildSnapshot(barsFromCloses(closes...), SnapshotConfig{})
	require.NoError(t, err)

	// Downtrend: fast MA below slow MA, negative MACD, floored RSI
	assert.Less(t, snapshot.MA20, snapshot.MA50)
	assert.Less(t, snapshot.MACD, 0.0)
	assert.InDelta(t, 0.0, snapshot.RSI, 0.01)

	_, err = BuildSnapshot(barsFromCloses(100, 101), SnapshotConfig{})
	require.Error(t, err)
}

func TestSnapshotBuilder_Reset(t *testing.T) {
	builder, err := NewSnapshotBuilder(SnapshotConfig{})
	require.NoError(t, err)

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	for _, bar := range barsFromCloses(closes...) {
		require.NoError(t, builder.Add(bar))
	}
	require.True(t, builder.Ready())

	builder.Reset()
	assert.False(t, builder.Ready())
	assert.Equal(t, 0, builder.BarsProcessed())
}
