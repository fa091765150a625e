// Package media is a small pure-Go pipeline runtime with GStreamer's
// vocabulary: elements own pads, pads are linked source to sink, buffers
// and events travel downstream, queries and some events travel upstream,
// and every element reports to one bus.
//
// It exists so the frame filter and the orchestration around it can run
// without cgo, in tests and in embeddings that bring their own stages.
//
// # Threading
//
// A source element pushes from its own streaming goroutine ([Pad.StartTask]).
// Push, PushEvent and PeerQuery are synchronous: they return the
// neighbour's answer. A sink pad handles buffers and downstream events one
// at a time under its stream lock, so per-pad order is preserved.
//
// Stopping a [Pipeline] marks every pad flushing before elements are asked
// to stop, so a streaming goroutine blocked in a push gets [FlowFlushing]
// and exits.
//
// # Failure boundaries
//
// Chain, event and query handlers run behind [CatchPanic]: a panic becomes
// FlowError for data and false for events and queries.
package media
