package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrWrongDirection   = errors.New("media: pads have wrong direction")
	ErrAlreadyLinked    = errors.New("media: pad already linked")
	ErrIncompatibleCaps = errors.New("media: pad caps do not intersect")
	ErrNotLinked        = errors.New("media: pads are not linked")
	ErrTaskRunning      = errors.New("media: pad task already running")
)

// PadDirection tells whether a pad receives or emits data.
type PadDirection int

const (
	PadDirectionSink PadDirection = iota
	PadDirectionSrc
)

func (d PadDirection) String() string {
	if d == PadDirectionSrc {
		return "src"
	}
	return "sink"
}

// PadPresence tells when a pad exists on its element.
type PadPresence int

const (
	// PadPresenceAlways pads exist for the element's whole lifetime.
	PadPresenceAlways PadPresence = iota
	// PadPresenceSometimes pads appear at runtime (e.g. demuxer outputs).
	PadPresenceSometimes
)

// PadTemplate describes the pads an element type can have.
type PadTemplate struct {
	Name      string
	Direction PadDirection
	Presence  PadPresence
	Caps      *Caps
}

// ChainFunc receives one buffer on a sink pad.
type ChainFunc func(pad *Pad, buf *Buffer) FlowReturn

// EventFunc handles an event that arrived on a pad.
type EventFunc func(pad *Pad, ev *Event) bool

// QueryFunc answers a query that arrived on a pad.
type QueryFunc func(pad *Pad, q *Query) bool

// Pad is a typed, directional connection point of an element.
//
// Buffers and downstream events are delivered while holding the receiving
// pad's stream lock, so a sink pad processes them strictly one at a time and
// in arrival order. Upstream events and queries are not serialized.
type Pad struct {
	name      string
	direction PadDirection
	presence  PadPresence
	template  *Caps

	mu       sync.RWMutex
	parent   *ElementBase
	peer     *Pad
	caps     *Caps
	flushing bool
	chain    ChainFunc
	event    EventFunc
	query    QueryFunc

	stream sync.Mutex

	taskMu     sync.Mutex
	taskCancel context.CancelFunc
	taskDone   chan struct{}
}

// NewPad creates a pad with the given direction and template caps. A nil
// caps means ANY.
func NewPad(name string, dir PadDirection, caps *Caps) *Pad {
	if caps == nil {
		caps = NewAnyCaps()
	}
	return &Pad{name: name, direction: dir, template: caps, flushing: true}
}

// NewPadFromTemplate creates a pad named name from tmpl.
func NewPadFromTemplate(tmpl PadTemplate, name string) *Pad {
	p := NewPad(name, tmpl.Direction, tmpl.Caps)
	p.presence = tmpl.Presence
	return p
}

func (p *Pad) Name() string              { return p.name }
func (p *Pad) Direction() PadDirection   { return p.direction }
func (p *Pad) Presence() PadPresence     { return p.presence }
func (p *Pad) TemplateCaps() *Caps       { return p.template }
func (p *Pad) SetChainFunction(f ChainFunc) { p.mu.Lock(); p.chain = f; p.mu.Unlock() }
func (p *Pad) SetEventFunction(f EventFunc) { p.mu.Lock(); p.event = f; p.mu.Unlock() }
func (p *Pad) SetQueryFunction(f QueryFunc) { p.mu.Lock(); p.query = f; p.mu.Unlock() }

// Path returns "element:pad", or just the pad name for a detached pad.
func (p *Pad) Path() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.parent == nil {
		return p.name
	}
	return p.parent.Name() + ":" + p.name
}

// Parent returns the owning element, or nil.
func (p *Pad) Parent() *ElementBase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.parent
}

// Peer returns the linked pad, or nil.
func (p *Pad) Peer() *Pad {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.peer
}

// IsLinked reports whether the pad has a peer.
func (p *Pad) IsLinked() bool { return p.Peer() != nil }

// CurrentCaps returns the negotiated caps, or nil before negotiation.
func (p *Pad) CurrentCaps() *Caps {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.caps
}

// SetCurrentCaps fixes the pad's negotiated caps. Elements creating
// sometimes-pads call this before announcing them.
func (p *Pad) SetCurrentCaps(caps *Caps) {
	p.mu.Lock()
	p.caps = caps
	p.mu.Unlock()
}

// SetFlushing activates or deactivates the pad. A flushing pad refuses data
// with FlowFlushing.
func (p *Pad) SetFlushing(flushing bool) {
	p.mu.Lock()
	p.flushing = flushing
	p.mu.Unlock()
}

// IsFlushing reports whether the pad refuses data.
func (p *Pad) IsFlushing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.flushing
}

// Link connects source pad p to sink pad sink. Negotiated caps of p, when
// present, take precedence over its template for the compatibility check.
func (p *Pad) Link(sink *Pad) error {
	if p.direction != PadDirectionSrc || sink.direction != PadDirectionSink {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrWrongDirection,
			p.Path(), p.direction, sink.Path(), sink.direction)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if p.peer != nil || sink.peer != nil {
		return fmt.Errorf("%w: %s -> %s", ErrAlreadyLinked, p.name, sink.name)
	}

	srcCaps := p.caps
	if srcCaps == nil {
		srcCaps = p.template
	}
	if !srcCaps.CanIntersect(sink.template) {
		return fmt.Errorf("%w: %s [%s] -> %s [%s]", ErrIncompatibleCaps,
			p.name, srcCaps, sink.name, sink.template)
	}

	p.peer = sink
	sink.peer = p
	return nil
}

// Unlink disconnects source pad p from sink.
func (p *Pad) Unlink(sink *Pad) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if p.peer != sink || sink.peer != p {
		return ErrNotLinked
	}
	p.peer = nil
	sink.peer = nil
	return nil
}

// Push hands buf to the peer's chain function and returns its result.
// Ownership of buf passes to the peer.
func (p *Pad) Push(buf *Buffer) FlowReturn {
	p.mu.RLock()
	peer, flushing := p.peer, p.flushing
	p.mu.RUnlock()

	if flushing {
		return FlowFlushing
	}
	if peer == nil {
		return FlowNotLinked
	}
	return peer.chainIn(buf)
}

func (p *Pad) chainIn(buf *Buffer) FlowReturn {
	p.stream.Lock()
	defer p.stream.Unlock()

	p.mu.RLock()
	chain, flushing := p.chain, p.flushing
	p.mu.RUnlock()

	if flushing {
		return FlowFlushing
	}
	if chain == nil {
		return FlowError
	}
	return CatchPanic(FlowError, p.logPanic("chain"), func() FlowReturn {
		return chain(p, buf)
	})
}

// PushEvent sends ev to the peer pad: downstream from a source pad, upstream
// from a sink pad. It returns false when there is no peer or the event does
// not travel in that direction.
func (p *Pad) PushEvent(ev *Event) bool {
	if p.direction == PadDirectionSrc && !ev.Type.IsDownstream() {
		return false
	}
	if p.direction == PadDirectionSink && !ev.Type.IsUpstream() {
		return false
	}

	p.mu.Lock()
	if p.direction == PadDirectionSrc && ev.Type == EventCaps {
		p.caps = ev.Caps
	}
	peer := p.peer
	p.mu.Unlock()

	if peer == nil {
		return false
	}
	return peer.SendEvent(ev)
}

// SendEvent delivers ev to p's own event function.
func (p *Pad) SendEvent(ev *Event) bool {
	serialized := p.direction == PadDirectionSink && ev.Type != EventFlushStart
	if serialized {
		p.stream.Lock()
		defer p.stream.Unlock()
	}

	p.mu.Lock()
	switch ev.Type {
	case EventFlushStart:
		p.flushing = true
	case EventFlushStop:
		p.flushing = false
	case EventCaps:
		if p.direction == PadDirectionSink {
			p.caps = ev.Caps
		}
	}
	handler := p.event
	p.mu.Unlock()

	if handler == nil {
		return false
	}
	return CatchPanic(false, p.logPanic("event"), func() bool {
		return handler(p, ev)
	})
}

// PeerQuery runs q on the peer pad.
func (p *Pad) PeerQuery(q *Query) bool {
	peer := p.Peer()
	if peer == nil {
		return false
	}
	return peer.Query(q)
}

// Query runs q on p's own query function.
func (p *Pad) Query(q *Query) bool {
	p.mu.RLock()
	handler := p.query
	p.mu.RUnlock()

	if handler == nil {
		return false
	}
	return CatchPanic(false, p.logPanic("query"), func() bool {
		return handler(p, q)
	})
}

// StartTask runs fn on a dedicated streaming goroutine owned by the pad.
// The context is cancelled by StopTask.
func (p *Pad) StartTask(fn func(ctx context.Context)) error {
	p.taskMu.Lock()
	defer p.taskMu.Unlock()

	if p.taskDone != nil {
		return ErrTaskRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.taskCancel, p.taskDone = cancel, done

	go func() {
		defer close(done)
		CatchPanic(struct{}{}, p.logPanic("task"), func() struct{} {
			fn(ctx)
			return struct{}{}
		})
	}()
	return nil
}

// StopTask cancels the streaming goroutine and waits for it to return.
// It must not be called from the task itself.
func (p *Pad) StopTask() {
	p.taskMu.Lock()
	cancel, done := p.taskCancel, p.taskDone
	p.taskCancel, p.taskDone = nil, nil
	p.taskMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Pad) logPanic(kind string) func(any) {
	return func(r any) {
		slog.Error("media: pad handler panicked",
			"pad", p.Path(),
			"handler", kind,
			"panic", r,
		)
	}
}
