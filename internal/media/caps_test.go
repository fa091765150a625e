package media

import "testing"

func TestNewCapsFromString(t *testing.T) {
	c := NewCapsFromString("video/x-h264, stream-format=avc ,alignment=au; video/x-raw")
	if len(c.Structures) != 2 {
		t.Fatalf("structures = %d", len(c.Structures))
	}
	if c.Name() != "video/x-h264" {
		t.Errorf("Name() = %q", c.Name())
	}
	if got := c.Structures[0].Fields["stream-format"]; got != "avc" {
		t.Errorf("stream-format = %q", got)
	}
	if got := c.String(); got != "video/x-h264,alignment=au,stream-format=avc;video/x-raw" {
		t.Errorf("String() = %q", got)
	}
}

func TestCaps_CanIntersect(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"video/x-h264", "video/x-h264,stream-format=avc", true},
		{"video/x-h264", "video/x-raw", false},
		{"ANY", "audio/mpeg", true},
		{"audio/mpeg;video/x-h264", "video/x-h264", true},
		{"", "video/x-h264", false},
	}
	for _, tc := range tests {
		t.Run(tc.a+"|"+tc.b, func(t *testing.T) {
			a, b := NewCapsFromString(tc.a), NewCapsFromString(tc.b)
			if got := a.CanIntersect(b); got != tc.want {
				t.Errorf("CanIntersect = %v, want %v", got, tc.want)
			}
			if got := b.CanIntersect(a); got != tc.want {
				t.Errorf("not symmetric")
			}
		})
	}

	var nilCaps *Caps
	if nilCaps.Name() != "" || nilCaps.CanIntersect(NewAnyCaps()) {
		t.Error("nil caps should be empty")
	}
}
