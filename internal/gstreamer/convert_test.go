package gstreamer

import (
	"testing"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

func TestStateConversion_RoundTrip(t *testing.T) {
	for _, s := range []media.State{
		media.StateVoidPending,
		media.StateNull,
		media.StateReady,
		media.StatePaused,
		media.StatePlaying,
	} {
		if got := fromGstState(toGstState(s)); got != s {
			t.Errorf("%s -> %s", s, got)
		}
	}
}

func TestPendingState(t *testing.T) {
	tests := []struct {
		cur, target, want media.State
	}{
		{media.StateReady, media.StatePlaying, media.StatePlaying},
		{media.StatePlaying, media.StatePlaying, media.StateVoidPending},
		{media.StatePaused, media.StateNull, media.StateNull},
		{media.StateNull, media.StateNull, media.StateVoidPending},
	}
	for _, tc := range tests {
		if got := pendingState(tc.cur, tc.target); got != tc.want {
			t.Errorf("pendingState(%s, %s) = %s, want %s", tc.cur, tc.target, got, tc.want)
		}
	}
}
