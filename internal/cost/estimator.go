// Package cost prices one unit of generation work. The deterministic
// estimator prices a request from its shape alone; the adaptive estimator
// refines the prediction from recent observed usage. Both are pure
// functions over their inputs and make no external calls.
package cost

// Micros is a cost amount in millionths of the billing currency unit.
type Micros int64

// Resolution tier labels accepted by the estimator.
const (
	Resolution1K = "1K"
	Resolution2K = "2K"
	Resolution4K = "4K"
)

// MaxBillableImages caps how many input images contribute to the estimate.
// Providers charge a flat conditioning cost beyond this point.
const MaxBillableImages = 6

// Per-tier base cost and per-input-image increment, in micros.
const (
	base1K        Micros = 40_000
	base2K        Micros = 80_000
	base4K        Micros = 160_000
	perImageCost  Micros = 12_000
)

// GenerationSpec describes the shape of one image generation request
// for pricing purposes.
type GenerationSpec struct {
	// Resolution is the output tier ("1K", "2K", "4K").
	Resolution string

	// ImageCount is the number of input reference images.
	ImageCount int
}

// EstimateGeneration returns the deterministic cost estimate for one
// generation call. The result is monotonically non-decreasing in both
// resolution tier and image count, with image count clamped at
// MaxBillableImages.
func EstimateGeneration(spec GenerationSpec) Micros {
	base := base2K
	switch spec.Resolution {
	case Resolution1K:
		base = base1K
	case Resolution2K:
		base = base2K
	case Resolution4K:
		base = base4K
	}

	images := spec.ImageCount
	if images < 0 {
		images = 0
	}
	if images > MaxBillableImages {
		images = MaxBillableImages
	}

	return base + Micros(images)*perImageCost
}
