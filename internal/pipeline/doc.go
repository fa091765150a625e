// Package pipeline assembles and drives the key-frame filtering pipeline.
//
// # Overview
//
// The chain is
//
//	filesrc → qtdemux ⇢ h264parse → frame_filter → avdec_h264 →
//	videoconvert → autovideosink
//
// where ⇢ is a link that can only be made at runtime: the demuxer creates
// its output pads after it has read the container, one per elementary
// stream.
//
// # Usage
//
//	a, err := pipeline.Assemble(backend, pipeline.DefaultConfig(path))
//	if err != nil {
//	    return err // *MissingElementError or *LinkError
//	}
//	err = pipeline.Run(ctx, a.Graph)
//	var report *pipeline.ErrorMessage
//	if errors.As(err, &report) {
//	    log.Printf("%s failed: %s", report.Source, report.Message)
//	}
//
// # Assembly
//
// [Assemble] works in two phases. Phase one creates every stage and links
// the edges whose stream type is known up front. Phase two registers a
// [Resolver] on the demuxer: a table of media-type prefixes to target pads.
// Pads that match are linked, pads that do not are left unconnected and
// their data is never consumed. No state change happens during assembly, so
// a missing stage is reported before anything starts.
//
// # Running
//
// [Run] sets the pipeline playing and feeds every bus message to a
// [Monitor] until end-of-stream or the first error. The pipeline is always
// set back to null before Run returns. Cancelling the context injects
// end-of-stream so the stream drains instead of being cut off.
//
// # Backends
//
// The orchestration only sees the [Backend], [Graph], [Element] and [Pad]
// interfaces. [NativeBackend] runs on the pure-Go runtime in package media;
// package gstreamer provides the real one.
package pipeline
