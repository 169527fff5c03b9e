package cost

import (
	"math"
	"sort"
	"time"
)

// UsageRow is one historical generation cost observation.
// Rows are append-only; the estimator reads a bounded recent window.
type UsageRow struct {
	EstimatedCostMicros Micros
	CreatedAt           time.Time
}

// AdaptiveConfig tunes the recency-weighted estimator.
type AdaptiveConfig struct {
	// PriorMeanMicros is the cost assumed before any usage is observed.
	PriorMeanMicros Micros

	// PriorWeight is the pseudo-observation weight given to the prior
	// when blending with samples. Zero uses DefaultPriorWeight.
	PriorWeight float64

	// HalfLife is the age at which a sample's weight halves.
	// Zero uses DefaultHalfLife.
	HalfLife time.Duration
}

// Defaults for AdaptiveConfig zero values.
const (
	DefaultPriorWeight = 1.0
	DefaultHalfLife    = 7 * 24 * time.Hour
)

// fallbackP90Factor scales the prior mean into a P90 when no samples exist.
const fallbackP90Factor = 1.25

// Estimate is the adaptive estimator's output.
type Estimate struct {
	// MeanMicros is the recency-weighted posterior mean cost.
	MeanMicros Micros

	// P90Micros is the weighted 90th percentile of observed costs, or the
	// scaled prior when falling back.
	P90Micros Micros

	// UsedFallback is true when no usage history contributed and the
	// estimate is the configured prior alone.
	UsedFallback bool

	// SampleWeight is the total decayed weight of the contributing samples.
	SampleWeight float64
}

// EstimateAdaptive predicts the cost of the next generation call from
// historical usage. Each sample is weighted by 0.5^(age/halfLife), so a
// sample from a second ago counts near fully while a month-old sample is
// nearly ignored under a short half-life. The posterior mean blends the
// weighted samples with the configured prior; with zero rows the result is
// exactly the prior mean.
func EstimateAdaptive(rows []UsageRow, now time.Time, cfg AdaptiveConfig) Estimate {
	priorWeight := cfg.PriorWeight
	if priorWeight == 0 {
		priorWeight = DefaultPriorWeight
	}
	halfLife := cfg.HalfLife
	if halfLife == 0 {
		halfLife = DefaultHalfLife
	}

	if len(rows) == 0 {
		return Estimate{
			MeanMicros:   cfg.PriorMeanMicros,
			P90Micros:    Micros(math.Round(float64(cfg.PriorMeanMicros) * fallbackP90Factor)),
			UsedFallback: true,
		}
	}

	type weighted struct {
		value  float64
		weight float64
	}

	samples := make([]weighted, 0, len(rows))
	totalWeight := 0.0
	weightedSum := 0.0

	for _, row := range rows {
		age := now.Sub(row.CreatedAt)
		if age < 0 {
			age = 0
		}
		w := math.Exp2(-age.Hours() / halfLife.Hours())
		samples = append(samples, weighted{value: float64(row.EstimatedCostMicros), weight: w})
		totalWeight += w
		weightedSum += w * float64(row.EstimatedCostMicros)
	}

	mean := (priorWeight*float64(cfg.PriorMeanMicros) + weightedSum) / (priorWeight + totalWeight)

	// Weighted 90th percentile over the samples.
	sort.Slice(samples, func(i, j int) bool { return samples[i].value < samples[j].value })
	threshold := 0.9 * totalWeight
	cumulative := 0.0
	p90 := samples[len(samples)-1].value
	for _, s := range samples {
		cumulative += s.weight
		if cumulative >= threshold {
			p90 = s.value
			break
		}
	}

	// P90 never undercuts the posterior mean.
	if p90 < mean {
		p90 = mean
	}

	return Estimate{
		MeanMicros:   Micros(math.Round(mean)),
		P90Micros:    Micros(math.Round(p90)),
		SampleWeight: totalWeight,
	}
}
