package framefilter

import (
	"math"
	"testing"
)

// stream builds a delta-flag sequence of n frames with key frames at the
// given 1-based positions.
func stream(n int, keys ...int) []bool {
	deltas := make([]bool, n)
	for i := range deltas {
		deltas[i] = true
	}
	for _, k := range keys {
		deltas[k-1] = false
	}
	return deltas
}

func TestClassifier_GOPStats(t *testing.T) {
	tests := []struct {
		name        string
		deltas      []bool
		wantGroups  uint64
		wantMean    float64
		wantStdDev  float64
		wantMin     uint64
		wantMax     uint64
		wantRegular bool
	}{
		{name: "no frames", deltas: nil},
		{name: "no key frames", deltas: stream(20)},
		{name: "single key frame", deltas: stream(20, 1)},
		{
			name:        "fixed interval of ten",
			deltas:      stream(40, 1, 11, 21, 31),
			wantGroups:  3,
			wantMean:    10,
			wantMin:     10,
			wantMax:     10,
			wantRegular: true,
		},
		{
			name:        "leading delta frames are not a group",
			deltas:      stream(30, 6, 16, 26),
			wantGroups:  2,
			wantMean:    10,
			wantMin:     10,
			wantMax:     10,
			wantRegular: true,
		},
		{
			name:       "irregular interval",
			deltas:     stream(30, 1, 3, 23),
			wantGroups: 2,
			wantMean:   11,
			wantStdDev: 9,
			wantMin:    2,
			wantMax:    20,
		},
		{
			name:        "all key frames",
			deltas:      stream(5, 1, 2, 3, 4, 5),
			wantGroups:  4,
			wantMean:    1,
			wantMin:     1,
			wantMax:     1,
			wantRegular: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier()
			for _, delta := range tc.deltas {
				c.Observe(delta)
			}
			g := c.Stats().GOP

			if g.Groups != tc.wantGroups {
				t.Errorf("Groups = %d, want %d", g.Groups, tc.wantGroups)
			}
			if math.Abs(g.Mean-tc.wantMean) > 1e-9 {
				t.Errorf("Mean = %v, want %v", g.Mean, tc.wantMean)
			}
			if math.Abs(g.StdDev-tc.wantStdDev) > 1e-9 {
				t.Errorf("StdDev = %v, want %v", g.StdDev, tc.wantStdDev)
			}
			if g.Min != tc.wantMin || g.Max != tc.wantMax {
				t.Errorf("Min/Max = %d/%d, want %d/%d", g.Min, g.Max, tc.wantMin, tc.wantMax)
			}
			if g.Regular != tc.wantRegular {
				t.Errorf("Regular = %v, want %v", g.Regular, tc.wantRegular)
			}
		})
	}
}
