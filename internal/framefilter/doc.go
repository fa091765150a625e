// Package framefilter implements frame_filter, a pipeline stage that passes
// H.264 key frames and drops every delta frame.
//
// The decision is made per buffer from the delta-unit flag alone. The frame
// counter is incremented for every buffer, forwarded or not, and is only
// read for diagnostics, together with the key-frame interval statistics
// in [GOPStats].
//
// Events and queries are relayed unchanged between the two pads in both
// directions.
//
// [Classifier] holds the decision and the counter and is shared by the
// native [Element] and the GStreamer element in package gstreamer.
package framefilter
