package media

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBusClosed is returned when posting to a closed bus.
var ErrBusClosed = errors.New("media: bus is closed")

// BusStats counts messages seen by a bus.
type BusStats struct {
	Posted  uint64
	Popped  uint64
	Dropped uint64
}

// Bus collects messages from every element of a pipeline for a single
// reader. Post never blocks; the queue is unbounded so a slow reader cannot
// stall a streaming goroutine.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Message
	closed bool

	posted  uint64
	popped  uint64
	dropped uint64
}

// NewBus returns an open, empty bus.
func NewBus() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Post appends msg to the queue. Messages posted after Close are dropped.
func (b *Bus) Post(msg *Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		atomic.AddUint64(&b.dropped, 1)
		return ErrBusClosed
	}

	b.queue = append(b.queue, msg)
	atomic.AddUint64(&b.posted, 1)
	b.cond.Broadcast()
	return nil
}

// Pop blocks until a message is available and returns it. It returns nil
// once the bus is closed and drained.
func (b *Bus) Pop() *Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.queue) == 0 && !b.closed {
		b.cond.Wait()
	}
	return b.next()
}

// TimedPop waits at most d for a message. It returns nil on timeout.
func (b *Bus) TimedPop(d time.Duration) *Message {
	deadline := time.Now().Add(d)
	timer := time.AfterFunc(d, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.queue) == 0 && !b.closed && time.Now().Before(deadline) {
		b.cond.Wait()
	}
	return b.next()
}

// TryPop returns the next message without blocking, or nil.
func (b *Bus) TryPop() *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next()
}

func (b *Bus) next() *Message {
	if len(b.queue) == 0 {
		return nil
	}
	msg := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	atomic.AddUint64(&b.popped, 1)
	return msg
}

// Len returns the number of queued messages.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close wakes every blocked reader. Queued messages can still be popped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.cond.Broadcast()
}

// Stats returns the bus counters.
func (b *Bus) Stats() BusStats {
	return BusStats{
		Posted:  atomic.LoadUint64(&b.posted),
		Popped:  atomic.LoadUint64(&b.popped),
		Dropped: atomic.LoadUint64(&b.dropped),
	}
}
