package media

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicatePad  = errors.New("media: element already has a pad with that name")
	ErrUnknownProp   = errors.New("media: unknown property")
	ErrAlreadyOwned  = errors.New("media: element already belongs to a pipeline")
	ErrDuplicateName = errors.New("media: pipeline already has an element with that name")
)

// Element is a processing stage. Concrete elements embed *ElementBase and
// override ChangeState when they own resources or streaming goroutines.
type Element interface {
	Name() string
	Pads() []*Pad
	StaticPad(name string) *Pad
	ConnectPadAdded(fn func(*Pad))
	SetProperty(name string, value any) error
	ChangeState(change StateChange) error
	base() *ElementBase
}

// ElementBase holds what every element has: a name, its pads, pad-added
// callbacks, properties and the bus it posts to once added to a pipeline.
type ElementBase struct {
	name string

	mu       sync.RWMutex
	pads     []*Pad
	padAdded []func(*Pad)
	props    map[string]any
	bus      *Bus
	state    State
}

// NewElementBase returns a base for an element called name. props lists the
// property names the element accepts, with their defaults.
func NewElementBase(name string, props map[string]any) *ElementBase {
	p := make(map[string]any, len(props))
	for k, v := range props {
		p[k] = v
	}
	return &ElementBase{name: name, props: p, state: StateNull}
}

func (e *ElementBase) base() *ElementBase { return e }

// Name returns the element's unique name within its pipeline.
func (e *ElementBase) Name() string { return e.name }

// ChangeState is the default no-op state handler.
func (e *ElementBase) ChangeState(StateChange) error { return nil }

// State returns the element's current state.
func (e *ElementBase) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *ElementBase) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// AddPad attaches pad to the element and fires pad-added callbacks.
// Pads added after the element left Null start active.
func (e *ElementBase) AddPad(pad *Pad) error {
	e.mu.Lock()
	for _, p := range e.pads {
		if p.name == pad.name {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s:%s", ErrDuplicatePad, e.name, pad.name)
		}
	}
	e.pads = append(e.pads, pad)
	active := e.state >= StatePaused
	callbacks := append([]func(*Pad){}, e.padAdded...)
	e.mu.Unlock()

	pad.mu.Lock()
	pad.parent = e
	pad.mu.Unlock()
	if active {
		pad.SetFlushing(false)
	}

	for _, cb := range callbacks {
		cb(pad)
	}
	return nil
}

// ConnectPadAdded registers fn to run for every pad added from now on. It
// runs on the goroutine that adds the pad, usually a streaming goroutine.
func (e *ElementBase) ConnectPadAdded(fn func(*Pad)) {
	e.mu.Lock()
	e.padAdded = append(e.padAdded, fn)
	e.mu.Unlock()
}

// Pads returns a snapshot of the element's pads.
func (e *ElementBase) Pads() []*Pad {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Pad(nil), e.pads...)
}

// StaticPad returns the pad called name, or nil.
func (e *ElementBase) StaticPad(name string) *Pad {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, p := range e.pads {
		if p.name == name {
			return p
		}
	}
	return nil
}

// SetProperty sets a declared property.
func (e *ElementBase) SetProperty(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.props[name]; !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProp, e.name, name)
	}
	e.props[name] = value
	return nil
}

// Property returns a property value.
func (e *ElementBase) Property(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.props[name]
	return v, ok
}

// SetPadsFlushing flushes or activates every pad of the element.
func (e *ElementBase) SetPadsFlushing(flushing bool) {
	for _, p := range e.Pads() {
		p.SetFlushing(flushing)
	}
}

// PostMessage posts msg on the pipeline bus with the element as source.
// Elements outside a pipeline drop their messages.
func (e *ElementBase) PostMessage(msg *Message) {
	e.mu.RLock()
	bus := e.bus
	e.mu.RUnlock()

	if bus == nil {
		return
	}
	if msg.Source == "" {
		msg.Source = e.name
	}
	bus.Post(msg)
}

// PostError reports a fatal element failure on the bus.
func (e *ElementBase) PostError(err error, debug string) {
	e.PostMessage(NewErrorMessage(e.name, err, debug))
}

// PostWarning reports a non-fatal problem on the bus.
func (e *ElementBase) PostWarning(err error, debug string) {
	e.PostMessage(NewWarningMessage(e.name, err, debug))
}

// PostEOS reports that the element rendered end-of-stream.
func (e *ElementBase) PostEOS() {
	e.PostMessage(NewEOSMessage(e.name))
}

func (e *ElementBase) attach(bus *Bus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bus != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, e.name)
	}
	e.bus = bus
	return nil
}
