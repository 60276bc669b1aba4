package render

import "math"

const (
	defaultMinPower = -120.0 // dB
	defaultMaxPower = -20.0  // dB

	// For 20 samples:
	// - 5% percentile  = 1 sample
	// - 95% percentile = 19th sample
	minimumSampleCount = 20

	// minimumRange keeps a flat spectrum from being stretched over the
	// whole colour map.
	minimumRange = 30
)

// PowerBounds represents the calculated power boundaries
type PowerBounds struct {
	Min  float64 // 5th percentile power level in dB
	Max  float64 // 95th percentile power level in dB
	Mean float64 // Mean power level in dB
}

func defaultPowerBounds() PowerBounds {
	return PowerBounds{
		Min:  defaultMinPower,
		Max:  defaultMaxPower,
		Mean: (defaultMinPower + defaultMaxPower) / 2,
	}
}

// PowerHistogram maintains a histogram of power values with 1 dB bins.
type PowerHistogram struct {
	bins       map[int]uint64 // Map of bin index to count
	totalCount uint64
	sum        float64
	minBin     int
	maxBin     int
}

// NewPowerHistogram creates a new histogram
func NewPowerHistogram() *PowerHistogram {
	return &PowerHistogram{
		bins:   make(map[int]uint64),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

// Update adds a power reading to the histogram. NaN and infinite values are
// ignored.
func (h *PowerHistogram) Update(power float64) {
	if math.IsNaN(power) || math.IsInf(power, 0) {
		return
	}

	bin := int(math.Floor(power))
	h.bins[bin]++
	h.totalCount++
	h.sum += power

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// UpdateAll adds every value of powers to the histogram.
func (h *PowerHistogram) UpdateAll(powers []float64) {
	for _, p := range powers {
		h.Update(p)
	}
}

// Count returns the number of readings in the histogram.
func (h *PowerHistogram) Count() uint64 {
	return h.totalCount
}

// Clear resets the histogram
func (h *PowerHistogram) Clear() {
	h.bins = make(map[int]uint64)
	h.totalCount = 0
	h.sum = 0
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32
}

// PercentileBounds returns power bounds spanning the 5th to 95th percentile
// of the readings, widened to at least 30 dB and padded by a 10% margin.
// With fewer than 20 readings it returns fixed defaults.
func (h *PowerHistogram) PercentileBounds() PowerBounds {
	if h.totalCount < minimumSampleCount {
		return defaultPowerBounds()
	}

	target := h.totalCount * 5 / 100

	var count uint64
	min5th, max95th := h.minBin, h.maxBin

	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += h.bins[bin]
		if count >= target {
			min5th = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += h.bins[bin]
		if count >= target {
			max95th = bin
			break
		}
	}

	if max95th-min5th < minimumRange {
		center := (max95th + min5th) / 2
		min5th = center - minimumRange/2
		max95th = center + minimumRange/2
	}

	margin := (max95th - min5th) / 10
	return PowerBounds{
		Min:  float64(min5th - margin),
		Max:  float64(max95th + margin),
		Mean: h.sum / float64(h.totalCount),
	}
}
