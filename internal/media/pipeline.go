package media

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoCompatiblePads = errors.New("media: no compatible unlinked pads")

// Pipeline is the root container. It owns its elements for their whole
// lifetime, walks them through state changes and aggregates their messages
// on a single bus.
type Pipeline struct {
	name string
	bus  *Bus

	mu          sync.Mutex
	elements    []Element
	byName      map[string]Element
	state       State
	transitions int
}

// NewPipeline returns an empty pipeline in StateNull.
func NewPipeline(name string) *Pipeline {
	if name == "" {
		name = "pipeline"
	}
	return &Pipeline{
		name:   name,
		bus:    NewBus(),
		byName: make(map[string]Element),
		state:  StateNull,
	}
}

func (p *Pipeline) Name() string { return p.name }
func (p *Pipeline) Bus() *Bus    { return p.bus }

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Transitions returns how many single-step state changes have completed.
func (p *Pipeline) Transitions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transitions
}

// Add takes ownership of elems. Names must be unique within the pipeline and
// an element can belong to only one pipeline.
func (p *Pipeline) Add(elems ...Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range elems {
		if _, exists := p.byName[e.Name()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateName, e.Name())
		}
		if err := e.base().attach(p.bus); err != nil {
			return err
		}
		p.byName[e.Name()] = e
		p.elements = append(p.elements, e)
	}
	return nil
}

// ByName returns the element called name, or nil.
func (p *Pipeline) ByName(name string) Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byName[name]
}

// Elements returns the elements in the order they were added.
func (p *Pipeline) Elements() []Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Element(nil), p.elements...)
}

// SetState moves the pipeline to target one step at a time. Elements change
// state sinks first. Leaving Paused for Ready flushes every pad before any
// element is stopped so pushes in flight return FlowFlushing instead of
// blocking the shutdown.
func (p *Pipeline) SetState(target State) error {
	if target < StateNull || target > StatePlaying {
		return fmt.Errorf("media: invalid target state %s", target)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, step := range steps(p.state, target) {
		if err := p.changeState(step, target); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) changeState(step StateChange, target State) error {
	pending := target
	if step.To == target {
		pending = StateVoidPending
	}

	switch step {
	case StateChange{From: StatePaused, To: StateReady}:
		for _, e := range p.elements {
			e.base().SetPadsFlushing(true)
		}
	case StateChange{From: StateReady, To: StatePaused}:
		for _, e := range p.elements {
			e.base().SetPadsFlushing(false)
		}
	}

	for i := len(p.elements) - 1; i >= 0; i-- {
		e := p.elements[i]
		if err := e.ChangeState(step); err != nil {
			err = fmt.Errorf("state change %s failed: %w", step, err)
			p.bus.Post(NewErrorMessage(e.Name(), err, ""))
			return fmt.Errorf("media: %s: %w", e.Name(), err)
		}
		e.base().setState(step.To)
		p.bus.Post(NewStateChangedMessage(e.Name(), step.From, step.To, pending))
	}

	p.state = step.To
	p.transitions++
	p.bus.Post(NewStateChangedMessage(p.name, step.From, step.To, pending))
	return nil
}

// SendEvent delivers ev to the source pads of every element without sink
// pads. An EOS sent this way drains the pipeline the same way a natural end
// of input does.
func (p *Pipeline) SendEvent(ev *Event) bool {
	handled := false
	for _, e := range p.Elements() {
		pads := e.Pads()
		isSource := true
		for _, pad := range pads {
			if pad.Direction() == PadDirectionSink {
				isSource = false
				break
			}
		}
		if !isSource {
			continue
		}
		for _, pad := range pads {
			if pad.SendEvent(ev) {
				handled = true
			}
		}
	}
	return handled
}

// LinkElements links the first compatible unlinked always-pads of src and
// dst.
func LinkElements(src, dst Element) error {
	for _, sp := range src.Pads() {
		if sp.Direction() != PadDirectionSrc || sp.Presence() != PadPresenceAlways || sp.IsLinked() {
			continue
		}
		for _, dp := range dst.Pads() {
			if dp.Direction() != PadDirectionSink || dp.IsLinked() {
				continue
			}
			if err := sp.Link(dp); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrNoCompatiblePads, src.Name(), dst.Name())
}

// LinkMany links each element to the next one.
func LinkMany(elems ...Element) error {
	for i := 0; i+1 < len(elems); i++ {
		if err := LinkElements(elems[i], elems[i+1]); err != nil {
			return err
		}
	}
	return nil
}
