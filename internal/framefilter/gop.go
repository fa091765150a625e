package framefilter

import "math"

// gopRegularityThreshold is the largest standard deviation of the group
// length, as a fraction of the mean, for which the stream counts as having
// a regular key-frame interval.
// Example: mean 10 frames → regular if stddev < 1.5 frames.
const gopRegularityThreshold = 0.15

// GOPStats describes the distance in frames between consecutive key frames.
// A group is only counted once the key frame that closes it arrives, so a
// stream with k key frames has k-1 groups.
type GOPStats struct {
	Groups  uint64
	Mean    float64
	StdDev  float64
	Min     uint64
	Max     uint64
	Regular bool
}

// gopAccumulator keeps running sums so the stats cost O(1) memory however
// long the stream is.
type gopAccumulator struct {
	n          uint64
	sum        float64
	sumSquares float64
	min, max   uint64
}

func (a *gopAccumulator) add(length uint64) {
	if a.n == 0 || length < a.min {
		a.min = length
	}
	if length > a.max {
		a.max = length
	}
	a.n++
	v := float64(length)
	a.sum += v
	a.sumSquares += v * v
}

func (a *gopAccumulator) stats() GOPStats {
	if a.n == 0 {
		return GOPStats{}
	}

	mean := a.sum / float64(a.n)
	variance := a.sumSquares/float64(a.n) - mean*mean
	if variance < 0 {
		// rounding
		variance = 0
	}
	stddev := math.Sqrt(variance)

	return GOPStats{
		Groups:  a.n,
		Mean:    mean,
		StdDev:  stddev,
		Min:     a.min,
		Max:     a.max,
		Regular: stddev < mean*gopRegularityThreshold,
	}
}
