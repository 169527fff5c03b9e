package cost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateAdaptive_ZeroRowsUsesPrior(t *testing.T) {
	cfg := AdaptiveConfig{PriorMeanMicros: 100_000}

	got := EstimateAdaptive(nil, time.Now(), cfg)

	assert.True(t, got.UsedFallback)
	assert.Equal(t, Micros(100_000), got.MeanMicros)
	assert.Equal(t, Micros(125_000), got.P90Micros)
	assert.Zero(t, got.SampleWeight)
}

func TestEstimateAdaptive_RecentSampleOutweighsOldSample(t *testing.T) {
	now := time.Now()
	cfg := AdaptiveConfig{
		PriorMeanMicros: 50_000,
		HalfLife:        24 * time.Hour,
	}

	recent := EstimateAdaptive([]UsageRow{
		{EstimatedCostMicros: 200_000, CreatedAt: now.Add(-time.Second)},
	}, now, cfg)
	old := EstimateAdaptive([]UsageRow{
		{EstimatedCostMicros: 200_000, CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}, now, cfg)

	// Same observed value; the recent one pulls the posterior mean much
	// closer to the observation than the month-old one.
	assert.Greater(t, recent.MeanMicros, old.MeanMicros)
	assert.Greater(t, recent.SampleWeight, old.SampleWeight)
	assert.False(t, recent.UsedFallback)
	assert.False(t, old.UsedFallback)
}

func TestEstimateAdaptive_BlendsTowardSamplesWithWeight(t *testing.T) {
	now := time.Now()
	cfg := AdaptiveConfig{PriorMeanMicros: 100_000, HalfLife: 24 * time.Hour}

	rows := []UsageRow{
		{EstimatedCostMicros: 300_000, CreatedAt: now},
		{EstimatedCostMicros: 300_000, CreatedAt: now},
		{EstimatedCostMicros: 300_000, CreatedAt: now},
	}
	got := EstimateAdaptive(rows, now, cfg)

	// (1.0*100k + 3*300k) / 4 = 250k.
	assert.InDelta(t, 250_000, float64(got.MeanMicros), 1)
	assert.GreaterOrEqual(t, got.P90Micros, got.MeanMicros)
}

func TestEstimateAdaptive_P90NeverBelowMean(t *testing.T) {
	now := time.Now()
	cfg := AdaptiveConfig{PriorMeanMicros: 500_000, HalfLife: 24 * time.Hour}

	// A single low sample: prior drags the mean above the weighted p90.
	rows := []UsageRow{
		{EstimatedCostMicros: 10_000, CreatedAt: now},
	}
	got := EstimateAdaptive(rows, now, cfg)

	assert.GreaterOrEqual(t, got.P90Micros, got.MeanMicros)
}

func TestEstimateAdaptive_FutureTimestampsClampToZeroAge(t *testing.T) {
	now := time.Now()
	cfg := AdaptiveConfig{PriorMeanMicros: 100_000, HalfLife: time.Hour}

	rows := []UsageRow{
		{EstimatedCostMicros: 200_000, CreatedAt: now.Add(time.Hour)},
	}
	got := EstimateAdaptive(rows, now, cfg)

	// Full weight, same as a sample from right now.
	assert.InDelta(t, 1.0, got.SampleWeight, 1e-9)
}

func TestEstimateAdaptive_WeightedP90PicksHighSample(t *testing.T) {
	now := time.Now()
	cfg := AdaptiveConfig{PriorMeanMicros: 0, PriorWeight: 0.0001, HalfLife: 24 * time.Hour}

	var rows []UsageRow
	for i := 0; i < 5; i++ {
		rows = append(rows, UsageRow{EstimatedCostMicros: 100_000, CreatedAt: now})
		rows = append(rows, UsageRow{EstimatedCostMicros: 900_000, CreatedAt: now})
	}

	got := EstimateAdaptive(rows, now, cfg)

	assert.Equal(t, Micros(900_000), got.P90Micros)
}
