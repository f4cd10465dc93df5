package pipeline

import "fmt"

// State is an entity's position in its step sequence.
type State string

const (
	StatePending  State = "pending"  // registered, not started
	StateRunning  State = "running"  // current step started, waiting for Advance
	StateResuming State = "resuming" // Advance received, next step scheduled
	StateDone     State = "done"
)

// Step is one unit of an entity's initialization sequence. Run signals
// completion by calling Sequencer.Advance with the entity id, either before
// returning or later from a posted task.
type Step struct {
	Name string
	Run  func()
}

// Observer receives step transitions. Either field may be nil.
type Observer struct {
	StepStarted func(id string, index int, name string)
	Done        func(id string)
}

type entry struct {
	steps []Step
	index int
	state State
}

// Sequencer runs the fixed step list of every registered entity. Entities
// are stored by id so resumption never depends on captured state. Not safe
// for concurrent use: call it only from tasks on its Loop.
type Sequencer struct {
	loop     *Loop
	entities map[string]*entry
	observer Observer
}

// NewSequencer creates a sequencer that schedules resumptions on loop.
func NewSequencer(loop *Loop, obs Observer) *Sequencer {
	return &Sequencer{
		loop:     loop,
		entities: make(map[string]*entry),
		observer: obs,
	}
}

// Register declares the ordered steps for id.
func (s *Sequencer) Register(id string, steps ...Step) error {
	if _, ok := s.entities[id]; ok {
		return &PipelineMisuseError{EntityID: id, Op: "register", State: s.entities[id].state}
	}
	if len(steps) == 0 {
		return fmt.Errorf("pipeline %s: no steps", id)
	}
	s.entities[id] = &entry{steps: steps, index: -1, state: StatePending}
	return nil
}

// Start runs the first step of id. It may be called once per entity.
func (s *Sequencer) Start(id string) error {
	e, ok := s.entities[id]
	if !ok {
		return &PipelineMisuseError{EntityID: id, Op: "start"}
	}
	if e.state != StatePending {
		return &PipelineMisuseError{EntityID: id, Op: "start", State: e.state}
	}
	s.runStep(id, e, 0)
	return nil
}

// Advance marks the current step of id complete. The next step is posted to
// the loop, never run from inside Advance.
func (s *Sequencer) Advance(id string) error {
	e, ok := s.entities[id]
	if !ok {
		return &PipelineMisuseError{EntityID: id, Op: "advance"}
	}
	if e.state != StateRunning {
		return &PipelineMisuseError{EntityID: id, Op: "advance", State: e.state, Step: e.index}
	}
	e.state = StateResuming
	s.loop.Post(func() { s.resume(id) })
	return nil
}

// Position returns the index of the current step and the entity state.
func (s *Sequencer) Position(id string) (int, State, bool) {
	e, ok := s.entities[id]
	if !ok {
		return 0, "", false
	}
	return e.index, e.state, true
}

func (s *Sequencer) resume(id string) {
	e := s.entities[id]
	next := e.index + 1
	if next >= len(e.steps) {
		e.index = len(e.steps)
		e.state = StateDone
		if s.observer.Done != nil {
			s.observer.Done(id)
		}
		return
	}
	s.runStep(id, e, next)
}

func (s *Sequencer) runStep(id string, e *entry, i int) {
	e.index = i
	e.state = StateRunning
	step := e.steps[i]
	if s.observer.StepStarted != nil {
		s.observer.StepStarted(id, i, step.Name)
	}
	step.Run()
}
