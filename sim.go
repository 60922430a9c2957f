// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Status is the state of a Simulator.
//
type Status uint8

// Simulator states.
//
const (
	Idle Status = iota
	Settling
	Settled
	Faulted
)

var statusNames = [...]string{Idle: "idle", Settling: "settling", Settled: "settled", Faulted: "faulted"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// EventType identifies a simulator event.
//
type EventType uint8

// Simulator events.
//
const (
	EventSettled EventType = iota // a step settled and was recorded
	EventFaulted                  // a step was aborted
	EventReset                    // the simulator was reset
)

// An Event is passed to hooks after each step and on reset.
//
type Event struct {
	Type     EventType
	Step     int       // history index of the step
	Snapshot *Snapshot // EventSettled only
	Err      error     // EventFaulted only
}

// A Hook is called by a Simulator for every Event. Hooks run after the step
// has completed: the graph may be read and edited from a hook.
//
type Hook func(ev Event)

// An Option configures a Simulator.
//
type Option func(s *Simulator)

// MaxPasses sets the maximum number of propagation passes per step. Values
// less or equal to 0 select DefaultMaxPasses.
//
func MaxPasses(n int) Option {
	return func(s *Simulator) { s.eng.maxPasses = n }
}

// Logger sets the logger used by the simulator.
//
func Logger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHook registers a hook.
//
func WithHook(h Hook) Option {
	return func(s *Simulator) { s.hooks = append(s.hooks, h) }
}

// A Simulator owns a Graph and advances it in discrete steps. Each step
// applies pending input changes and clock edges, settles the graph and
// records the result in the history.
//
// A Simulator is not safe for concurrent use: edits and steps must be
// serialized by the caller.
//
type Simulator struct {
	g     *Graph
	eng   engine
	log   *zap.Logger
	hooks []Hook
	hist  History

	status   Status
	fault    error
	faultRev uint64
	queue    map[NetID]Level
}

// NewSimulator returns a simulator for g. g must not be shared with another
// Simulator.
//
func NewSimulator(g *Graph, opts ...Option) *Simulator {
	s := &Simulator{
		g:   g,
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Graph returns the simulated graph.
//
func (s *Simulator) Graph() *Graph { return s.g }

// History returns the recorded history.
//
func (s *Simulator) History() *History { return &s.hist }

// Status returns the current state of the simulator.
//
func (s *Simulator) Status() Status { return s.status }

// Fault returns the error of the last aborted step while the simulator is
// Faulted, nil otherwise.
//
func (s *Simulator) Fault() error {
	if s.status != Faulted {
		return nil
	}
	return s.fault
}

// Time returns the number of recorded steps. It is the history index of the
// next step.
//
func (s *Simulator) Time() int { return s.hist.Len() }

func checkLevel(l Level) error {
	if l > X {
		return errorf(InvalidParameter, "invalid level %d", l)
	}
	return nil
}

// AddHook registers a hook.
//
func (s *Simulator) AddHook(h Hook) { s.hooks = append(s.hooks, h) }

// sources returns the SOURCE components driving a net.
//
func (s *Simulator) sources(id NetID) ([]*Component, error) {
	n, err := s.g.net(id)
	if err != nil {
		return nil, err
	}
	var cs []*Component
	for _, t := range n.members {
		if c := s.g.comps[t.Component]; c.kind == Source {
			cs = append(cs, c)
		}
	}
	if len(cs) == 0 {
		return nil, errorf(UnknownNet, "net %d is not driven by a source", id)
	}
	return cs, nil
}

// Queue schedules an input change for the next step: every SOURCE driving
// the net will be set to level l.
//
func (s *Simulator) Queue(id NetID, l Level) error {
	if err := checkLevel(l); err != nil {
		return err
	}
	if _, err := s.sources(id); err != nil {
		return err
	}
	if s.queue == nil {
		s.queue = make(map[NetID]Level)
	}
	s.queue[id] = l
	return nil
}

// SetSource sets the output level of a SOURCE or CLOCK. The change takes
// effect on the next step.
//
func (s *Simulator) SetSource(id ComponentID, l Level) error {
	if err := s.g.checkBusy(); err != nil {
		return err
	}
	if err := checkLevel(l); err != nil {
		return err
	}
	c, err := s.g.component(id)
	if err != nil {
		return err
	}
	if !c.kind.IsSource() {
		return errorf(InvalidParameter, "%s %d is not a source", c.kind, id)
	}
	s.g.setLevel(c, l)
	return nil
}

// Step advances the simulation by one step. changes maps nets to new input
// levels; each net must be driven by at least one SOURCE. Changes are merged
// with those registered by Queue.
//
// On success, the settled state is appended to the history and returned. If
// the circuit does not settle (UnstableCircuit) or if drivers conflict
// (ConflictingDrivers), the step is aborted: net values are restored to the
// last settled state, nothing is recorded and the simulator enters the
// Faulted state. A Faulted simulator returns the same error without running
// until the graph is edited or an input changes.
//
func (s *Simulator) Step(changes map[NetID]Level) (*Snapshot, error) {
	if err := s.g.checkBusy(); err != nil {
		return nil, err
	}
	for id, l := range changes {
		if err := checkLevel(l); err != nil {
			return nil, err
		}
		if _, err := s.sources(id); err != nil {
			return nil, err
		}
	}
	for id, l := range changes {
		if s.queue == nil {
			s.queue = make(map[NetID]Level)
		}
		s.queue[id] = l
	}
	s.applyInputs()

	if s.status == Faulted && s.g.rev == s.faultRev {
		return nil, s.fault
	}
	return s.settle(true)
}

func (s *Simulator) applyInputs() {
	ids := make([]NetID, 0, len(s.queue))
	for id := range s.queue {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		// nets may have been removed since Queue
		cs, err := s.sources(id)
		if err != nil {
			s.log.Warn("dropping input change", zap.Int("net", int(id)), zap.Error(err))
			continue
		}
		for _, c := range cs {
			s.g.setLevel(c, s.queue[id])
		}
	}
	s.queue = nil
}

// settle runs the engine and records the result.
//
func (s *Simulator) settle(clocks bool) (*Snapshot, error) {
	step := s.hist.Len()
	saved := s.g.save()
	if clocks {
		s.tick(step)
	}

	s.status = Settling
	s.g.busy = true
	passes, err := s.eng.settle(s.g)
	s.g.busy = false

	if err != nil {
		s.g.restore(saved)
		s.status = Faulted
		s.fault = err
		s.faultRev = s.g.rev
		s.log.Warn("step aborted", zap.Int("step", step), zap.Error(err))
		s.emit(Event{Type: EventFaulted, Step: step, Err: err})
		return nil, err
	}

	s.g.clearPending()
	snap := newSnapshot(s.g, step, passes)
	s.hist.append(snap)
	s.status = Settled
	s.fault = nil
	s.log.Debug("step settled", zap.Int("step", step), zap.Int("passes", passes))
	s.emit(Event{Type: EventSettled, Step: step, Snapshot: snap})
	return snap, nil
}

// tick toggles the clocks due at the given step. Clocks toggle every period
// steps, starting at their declared level on step 0.
//
func (s *Simulator) tick(step int) {
	if step == 0 {
		return
	}
	for _, c := range s.g.comps {
		if c == nil || c.kind != Clock || step%c.period != 0 {
			continue
		}
		l := invert(bit(c.level))
		if c.level != l {
			c.level = l
			s.g.dirtyComps[c.id] = struct{}{}
		}
	}
}

// Run runs n steps with no input changes. It stops at the first error and
// returns the number of steps recorded.
//
func (s *Simulator) Run(n int) (int, error) {
	for i := 0; i < n; i++ {
		if _, err := s.Step(nil); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Reset clears the history, returns every source and clock to its declared
// level and every net and output to Z. The next step re-evaluates the whole
// graph.
//
func (s *Simulator) Reset() error {
	if err := s.g.checkBusy(); err != nil {
		return err
	}
	for _, c := range s.g.comps {
		if c == nil {
			continue
		}
		c.level = c.declared
		for i := range c.out {
			c.out[i] = Value{}
		}
	}
	for _, n := range s.g.nets {
		if n != nil {
			n.value, n.conflict = Value{}, false
		}
	}
	s.g.markAll()
	s.hist.clear()
	s.queue = nil
	s.status = Idle
	s.fault = nil
	s.log.Debug("simulator reset")
	s.emit(Event{Type: EventReset})
	return nil
}

// Rollback returns the circuit to the state recorded at step i: source
// levels and net values are restored, the history is truncated after step i
// and the graph is settled again. The re-settled state replaces step i in
// the history and is returned. If the graph does not settle, the rollback
// is aborted: net values, source levels and the history are left as they
// were before the call and the simulator enters the Faulted state.
//
func (s *Simulator) Rollback(i int) (*Snapshot, error) {
	if err := s.g.checkBusy(); err != nil {
		return nil, err
	}
	snap, err := s.hist.At(i)
	if err != nil {
		return nil, err
	}
	saved, hist, queue := s.g.save(), s.hist.All(), s.queue
	for _, c := range s.g.comps {
		if c == nil || !c.kind.IsSource() {
			continue
		}
		if l, ok := snap.Source(c.id); ok {
			c.level = l
		}
	}
	for _, n := range s.g.nets {
		if n != nil {
			n.value, _ = snap.Value(n.id)
			n.conflict = false
		}
	}
	// recompute outputs from the restored nets so that re-resolving them
	// starts from the recorded state.
	for _, c := range s.g.comps {
		if c != nil {
			s.eng.evaluate(s.g, c)
		}
	}
	s.g.markAll()
	s.g.rev++
	s.hist.truncate(i)
	s.queue = nil
	s.log.Debug("rollback", zap.Int("step", i))
	snap, err = s.settle(false)
	if err != nil {
		// keep the state and history from before the rollback
		s.g.restore(saved)
		s.hist.snaps = hist
		s.queue = queue
		return nil, errors.Wrapf(err, "rollback to step %d", i)
	}
	return snap, nil
}

func (s *Simulator) emit(ev Event) {
	for _, h := range s.hooks {
		h(ev)
	}
}
