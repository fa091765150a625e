package framefilter

import "sync"

// Decision is the outcome of classifying one buffer.
type Decision struct {
	// Frame is the 1-based position of the buffer in the stream, i.e. the
	// frame counter right after the increment.
	Frame uint64
	// KeyFrame is true when the buffer carries no delta-unit flag.
	KeyFrame bool
}

// Forward reports whether the buffer must be pushed downstream.
func (d Decision) Forward() bool { return d.KeyFrame }

// Stats is a diagnostic snapshot of a Classifier.
type Stats struct {
	Processed uint64
	Forwarded uint64
	Dropped   uint64
	GOP       GOPStats
}

// Classifier owns the frame counter of one filter instance.
//
// The counter only goes up and is read for diagnostics; forwarding depends on
// the delta-unit flag alone. The lock is held for the increment and the flag
// test, never across a push.
type Classifier struct {
	mu        sync.Mutex
	processed uint64
	forwarded uint64

	lastKey uint64
	gops    gopAccumulator
}

// NewClassifier returns a classifier with the counter at zero.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Observe counts one buffer and decides whether it is a key frame.
func (c *Classifier) Observe(deltaUnit bool) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.processed++
	if !deltaUnit {
		c.forwarded++
		if c.lastKey > 0 {
			c.gops.add(c.processed - c.lastKey)
		}
		c.lastKey = c.processed
	}
	return Decision{Frame: c.processed, KeyFrame: !deltaUnit}
}

// Count returns the number of buffers observed so far.
func (c *Classifier) Count() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processed
}

// Stats returns counters for logging.
func (c *Classifier) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Processed: c.processed,
		Forwarded: c.forwarded,
		Dropped:   c.processed - c.forwarded,
		GOP:       c.gops.stats(),
	}
}
