// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ComponentID identifies a component within a Graph.
//
type ComponentID int

// NetID identifies a net within a Graph.
//
type NetID int

// Zero ids never designate a component or net.
//
const (
	NoComponent ComponentID = 0
	NoNet       NetID       = 0
)

// DefaultOhms is the resistance of a RESISTOR created with no explicit value.
//
const DefaultOhms = 10e3

// A Terminal is a connection point on a component.
//
type Terminal struct {
	Component ComponentID
	Index     int
}

// A Component is a placed instance of a Kind. Components are owned by a Graph
// and can only be changed through Graph and Simulator methods.
//
type Component struct {
	id       ComponentID
	kind     Kind
	name     string
	nets     []NetID // net of each terminal
	out      []Value // current value of each output terminal
	level    Level   // SOURCE and CLOCK current level
	declared Level   // SOURCE and CLOCK initial level
	ohms     float64
	period   int
}

// ID returns the component id.
func (c *Component) ID() ComponentID { return c.id }

// Kind returns the component kind.
func (c *Component) Kind() Kind { return c.kind }

// Name returns the component name, if any.
func (c *Component) Name() string { return c.name }

// Terminals returns the number of terminals.
func (c *Component) Terminals() int { return len(c.nets) }

// Net returns the net connected to terminal i, or NoNet.
func (c *Component) Net(i int) NetID { return c.nets[i] }

// Output returns the value currently driven by terminal i. Input terminals
// always return the zero Value.
func (c *Component) Output(i int) Value { return c.out[i] }

// Level returns the current output level of a SOURCE or CLOCK.
func (c *Component) Level() Level { return c.level }

// Declared returns the initial output level of a SOURCE or CLOCK.
func (c *Component) Declared() Level { return c.declared }

// Ohms returns the resistance of a RESISTOR.
func (c *Component) Ohms() float64 { return c.ohms }

// Period returns the number of steps between two edges of a CLOCK.
func (c *Component) Period() int { return c.period }

// A Net is a set of terminals joined at one signal value.
//
type Net struct {
	id       NetID
	name     string
	mode     Resolution
	members  []Terminal
	value    Value
	conflict bool
}

// ID returns the net id.
func (n *Net) ID() NetID { return n.id }

// Name returns the net name, if any.
func (n *Net) Name() string { return n.name }

// Resolution returns the resolution mode of the net.
func (n *Net) Resolution() Resolution { return n.mode }

// Members returns the terminals connected to the net.
func (n *Net) Members() []Terminal { return append([]Terminal(nil), n.members...) }

// Value returns the resolved value of the net.
func (n *Net) Value() Value { return n.value }

// Conflict returns true if the drivers of the net currently disagree.
func (n *Net) Conflict() bool { return n.conflict }

func (n *Net) unlink(t Terminal) {
	for i, m := range n.members {
		if m == t {
			copy(n.members[i:], n.members[i+1:])
			n.members = n.members[:len(n.members)-1]
			return
		}
	}
}

// ComponentSpec describes a component to be added to a Graph.
//
type ComponentSpec struct {
	Kind      Kind
	Name      string
	Terminals int     // terminal count. 0 means the arity of Kind.
	Level     Level   // initial level of SOURCE and CLOCK
	Ohms      float64 // RESISTOR resistance. 0 means DefaultOhms.
	Period    int     // CLOCK steps per edge. 0 means 1.
}

// A Graph is a netlist: an arena of components and the nets joining their
// terminals. Components and nets are addressed by ids that are never reused.
//
// Every terminal connected to a net is a member of that net and every member
// of a net refers back to it. All mutations keep both directions in sync and
// leave the graph untouched when they fail.
//
// A Graph is not safe for concurrent use.
//
type Graph struct {
	comps []*Component // index 0 unused
	nets  []*Net       // index 0 unused
	names map[string]NetID
	rev   uint64
	busy  bool

	// pending work for the next settle
	dirtyNets  map[NetID]struct{}
	dirtyComps map[ComponentID]struct{}
}

// NewGraph returns a new empty graph.
//
func NewGraph() *Graph {
	return &Graph{
		comps:      []*Component{nil},
		nets:       []*Net{nil},
		names:      make(map[string]NetID),
		dirtyNets:  make(map[NetID]struct{}),
		dirtyComps: make(map[ComponentID]struct{}),
	}
}

// Revision returns a counter incremented by every mutation of the graph,
// including source level changes.
//
func (g *Graph) Revision() uint64 { return g.rev }

func (g *Graph) checkBusy() error {
	if g.busy {
		return errorf(Busy, "graph mutated during a simulation step")
	}
	return nil
}

func (g *Graph) component(id ComponentID) (*Component, error) {
	if id <= 0 || int(id) >= len(g.comps) || g.comps[id] == nil {
		return nil, errorf(UnknownComponent, "component %d", id)
	}
	return g.comps[id], nil
}

func (g *Graph) net(id NetID) (*Net, error) {
	if id <= 0 || int(id) >= len(g.nets) || g.nets[id] == nil {
		return nil, errorf(UnknownNet, "net %d", id)
	}
	return g.nets[id], nil
}

func (g *Graph) terminal(id ComponentID, t int) (*Component, error) {
	c, err := g.component(id)
	if err != nil {
		return nil, err
	}
	if t < 0 || t >= len(c.nets) {
		return nil, errorf(TerminalOutOfRange, "terminal %d of %s %d", t, c.kind, id)
	}
	return c, nil
}

// Component returns the component with the given id.
//
func (g *Graph) Component(id ComponentID) (*Component, bool) {
	c, err := g.component(id)
	return c, err == nil
}

// Net returns the net with the given id.
//
func (g *Graph) Net(id NetID) (*Net, bool) {
	n, err := g.net(id)
	return n, err == nil
}

// NetByName returns the id of the named net.
//
func (g *Graph) NetByName(name string) (NetID, bool) {
	id, ok := g.names[name]
	return id, ok
}

// Components returns the ids of all components in ascending order.
//
func (g *Graph) Components() []ComponentID {
	ids := make([]ComponentID, 0, len(g.comps))
	for _, c := range g.comps {
		if c != nil {
			ids = append(ids, c.id)
		}
	}
	return ids
}

// Nets returns the ids of all nets in ascending order.
//
func (g *Graph) Nets() []NetID {
	ids := make([]NetID, 0, len(g.nets))
	for _, n := range g.nets {
		if n != nil {
			ids = append(ids, n.id)
		}
	}
	return ids
}

// Value returns the resolved value of a net. Unknown nets read as Z.
//
func (g *Graph) Value(id NetID) Value {
	if n, err := g.net(id); err == nil {
		return n.value
	}
	return Value{}
}

// Drivers returns the output terminals connected to a net.
//
func (g *Graph) Drivers(id NetID) []Terminal {
	return g.members(id, Out)
}

// Readers returns the input terminals connected to a net.
//
func (g *Graph) Readers(id NetID) []Terminal {
	return g.members(id, In)
}

func (g *Graph) members(id NetID, dir Dir) []Terminal {
	n, err := g.net(id)
	if err != nil {
		return nil
	}
	var ts []Terminal
	for _, t := range n.members {
		c := g.comps[t.Component]
		if c.kind.info().pins[t.Index].Dir == dir {
			ts = append(ts, t)
		}
	}
	return ts
}

// NewNet creates a new unnamed net. Unlike other mutations, creating a net
// never fails with Busy: a net with no terminals takes no part in settling.
//
func (g *Graph) NewNet() NetID {
	id := NetID(len(g.nets))
	g.nets = append(g.nets, &Net{id: id})
	g.rev++
	return id
}

// NamedNet returns the id of the net with the given name, creating it if
// necessary.
//
func (g *Graph) NamedNet(name string) NetID {
	if id, ok := g.names[name]; ok {
		return id
	}
	id := g.NewNet()
	g.nets[id].name = name
	if name != "" {
		g.names[name] = id
	}
	return id
}

// SetResolution sets the resolution mode of a net.
//
func (g *Graph) SetResolution(id NetID, mode Resolution) error {
	if err := g.checkBusy(); err != nil {
		return err
	}
	n, err := g.net(id)
	if err != nil {
		return err
	}
	if mode > WiredAND {
		return errorf(InvalidParameter, "resolution mode %d", mode)
	}
	if n.mode != mode {
		n.mode = mode
		g.markNet(id)
		g.rev++
	}
	return nil
}

// AddComponent adds a component of the given kind with default parameters.
//
func (g *Graph) AddComponent(kind Kind) (ComponentID, error) {
	return g.Add(ComponentSpec{Kind: kind})
}

// Add adds a component with all its terminals unconnected.
//
func (g *Graph) Add(spec ComponentSpec) (ComponentID, error) {
	if err := g.checkBusy(); err != nil {
		return NoComponent, err
	}
	c, err := newComponent(spec)
	if err != nil {
		return NoComponent, err
	}
	c.id = ComponentID(len(g.comps))
	g.comps = append(g.comps, c)
	g.dirtyComps[c.id] = struct{}{}
	g.rev++
	return c.id, nil
}

func newComponent(spec ComponentSpec) (*Component, error) {
	if !spec.Kind.Valid() {
		return nil, errorf(UnknownKind, "%s", spec.Kind)
	}
	arity := spec.Kind.Arity()
	if spec.Terminals != 0 && spec.Terminals != arity {
		return nil, errorf(InvalidArity, "%s takes %d terminals, got %d", spec.Kind, arity, spec.Terminals)
	}
	if spec.Ohms < 0 {
		return nil, errorf(InvalidParameter, "negative resistance %g", spec.Ohms)
	}
	if spec.Period < 0 {
		return nil, errorf(InvalidParameter, "negative clock period %d", spec.Period)
	}
	if math.IsNaN(spec.Ohms) || math.IsInf(spec.Ohms, 0) {
		return nil, errorf(InvalidParameter, "invalid resistance %g", spec.Ohms)
	}
	if err := checkLevel(spec.Level); err != nil {
		return nil, err
	}
	c := &Component{
		kind: spec.Kind,
		name: spec.Name,
		nets: make([]NetID, arity),
		out:  make([]Value, arity),
	}
	switch spec.Kind {
	case Source, Clock:
		c.level, c.declared = spec.Level, spec.Level
		c.period = spec.Period
		if spec.Kind == Clock && c.period == 0 {
			c.period = 1
		}
	case Resistor:
		c.ohms = spec.Ohms
		if c.ohms == 0 {
			c.ohms = DefaultOhms
		}
	}
	return c, nil
}

// Place adds a component of the given kind and connects its terminals to the
// given nets, in terminal order. A NoNet entry leaves the terminal
// unconnected. The call fails with InvalidArity if len(nets) does not match
// the kind's arity and nothing is added on failure.
//
func (g *Graph) Place(kind Kind, nets ...NetID) (ComponentID, error) {
	return g.PlaceSpec(ComponentSpec{Kind: kind, Terminals: len(nets)}, nets...)
}

// PlaceSpec is like Place for a full ComponentSpec.
//
func (g *Graph) PlaceSpec(spec ComponentSpec, nets ...NetID) (ComponentID, error) {
	if err := g.checkBusy(); err != nil {
		return NoComponent, err
	}
	if spec.Kind.Valid() && len(nets) != spec.Kind.Arity() {
		return NoComponent, errorf(InvalidArity, "%s takes %d terminals, got %d", spec.Kind, spec.Kind.Arity(), len(nets))
	}
	c, err := newComponent(spec)
	if err != nil {
		return NoComponent, err
	}
	for _, n := range nets {
		if n == NoNet {
			continue
		}
		if _, err := g.net(n); err != nil {
			return NoComponent, err
		}
	}
	c.id = ComponentID(len(g.comps))
	g.comps = append(g.comps, c)
	g.dirtyComps[c.id] = struct{}{}
	for i, n := range nets {
		if n != NoNet {
			g.link(c, i, n)
		}
	}
	g.rev++
	return c.id, nil
}

// Connect connects terminal t of component id to a net. If net is NoNet, a
// new net is created. A terminal already connected to another net is moved.
// Connect returns the id of the net the terminal is now connected to.
//
func (g *Graph) Connect(id ComponentID, t int, net NetID) (NetID, error) {
	if err := g.checkBusy(); err != nil {
		return NoNet, err
	}
	c, err := g.terminal(id, t)
	if err != nil {
		return NoNet, err
	}
	if net != NoNet {
		if _, err := g.net(net); err != nil {
			return NoNet, err
		}
	}
	if net != NoNet && c.nets[t] == net {
		return net, nil
	}
	if net == NoNet {
		net = g.NewNet()
	}
	g.unlink(c, t)
	g.link(c, t, net)
	g.rev++
	return net, nil
}

// Disconnect disconnects terminal t of component id from its net, if any.
//
func (g *Graph) Disconnect(id ComponentID, t int) error {
	if err := g.checkBusy(); err != nil {
		return err
	}
	c, err := g.terminal(id, t)
	if err != nil {
		return err
	}
	if c.nets[t] != NoNet {
		g.unlink(c, t)
		g.rev++
	}
	return nil
}

// RemoveComponent removes a component and unlinks all its terminals. Nets
// left without members are removed as well.
//
func (g *Graph) RemoveComponent(id ComponentID) error {
	if err := g.checkBusy(); err != nil {
		return err
	}
	c, err := g.component(id)
	if err != nil {
		return err
	}
	for t, n := range c.nets {
		if n == NoNet {
			continue
		}
		g.unlink(c, t)
		if len(g.nets[n].members) == 0 {
			g.dropNet(n)
		}
	}
	g.comps[id] = nil
	delete(g.dirtyComps, id)
	g.rev++
	return nil
}

// RemoveNet disconnects all terminals from a net and removes it.
//
func (g *Graph) RemoveNet(id NetID) error {
	if err := g.checkBusy(); err != nil {
		return err
	}
	n, err := g.net(id)
	if err != nil {
		return err
	}
	for _, t := range n.Members() {
		g.unlink(g.comps[t.Component], t.Index)
	}
	g.dropNet(id)
	g.rev++
	return nil
}

func (g *Graph) dropNet(id NetID) {
	n := g.nets[id]
	if n.name != "" {
		delete(g.names, n.name)
	}
	g.nets[id] = nil
	delete(g.dirtyNets, id)
}

// truncate removes the components and nets created since the graph had nc
// components and nn nets, and resets the revision to rev.
//
func (g *Graph) truncate(nc, nn int, rev uint64) {
	for id := len(g.comps) - 1; id >= nc; id-- {
		c := g.comps[id]
		if c == nil {
			continue
		}
		for t := range c.nets {
			g.unlink(c, t)
		}
		delete(g.dirtyComps, c.id)
		g.comps[id] = nil
	}
	g.comps = g.comps[:nc]
	for id := len(g.nets) - 1; id >= nn; id-- {
		if g.nets[id] != nil {
			g.dropNet(NetID(id))
		}
	}
	g.nets = g.nets[:nn]
	g.rev = rev
}

// link adds terminal t of c to net n. The terminal must be unconnected.
//
func (g *Graph) link(c *Component, t int, n NetID) {
	c.nets[t] = n
	net := g.nets[n]
	net.members = append(net.members, Terminal{c.id, t})
	g.markNet(n)
	g.dirtyComps[c.id] = struct{}{}
}

// unlink removes terminal t of c from its net, if any.
//
func (g *Graph) unlink(c *Component, t int) {
	n := c.nets[t]
	if n == NoNet {
		return
	}
	g.nets[n].unlink(Terminal{c.id, t})
	c.nets[t] = NoNet
	g.markNet(n)
	g.dirtyComps[c.id] = struct{}{}
}

func (g *Graph) markNet(n NetID) { g.dirtyNets[n] = struct{}{} }

// setLevel changes the output level of a SOURCE or CLOCK.
//
func (g *Graph) setLevel(c *Component, l Level) bool {
	if c.level == l {
		return false
	}
	c.level = l
	g.dirtyComps[c.id] = struct{}{}
	g.rev++
	return true
}

// Check verifies that terminal and net references are symmetric.
//
func (g *Graph) Check() error {
	for _, c := range g.comps {
		if c == nil {
			continue
		}
		for t, n := range c.nets {
			if n == NoNet {
				continue
			}
			net, err := g.net(n)
			if err != nil {
				return errors.Wrapf(err, "terminal %d of component %d", t, c.id)
			}
			cnt := 0
			for _, m := range net.members {
				if m == (Terminal{c.id, t}) {
					cnt++
				}
			}
			if cnt != 1 {
				return errors.Errorf("terminal %d of component %d listed %d times in net %d", t, c.id, cnt, n)
			}
		}
	}
	for _, n := range g.nets {
		if n == nil {
			continue
		}
		for _, m := range n.members {
			c, err := g.terminal(m.Component, m.Index)
			if err != nil {
				return errors.Wrapf(err, "member of net %d", n.id)
			}
			if c.nets[m.Index] != n.id {
				return errors.Errorf("net %d lists terminal %d of component %d which is connected to net %d", n.id, m.Index, c.id, c.nets[m.Index])
			}
		}
	}
	return nil
}

// state is a copy of the values mutated by a settle.
//
type state struct {
	nets      []Value
	conflicts []bool
	outs      [][]Value
	levels    []Level
}

func (g *Graph) save() *state {
	s := &state{
		nets:      make([]Value, len(g.nets)),
		conflicts: make([]bool, len(g.nets)),
		outs:      make([][]Value, len(g.comps)),
		levels:    make([]Level, len(g.comps)),
	}
	for i, n := range g.nets {
		if n != nil {
			s.nets[i], s.conflicts[i] = n.value, n.conflict
		}
	}
	for i, c := range g.comps {
		if c != nil {
			s.outs[i] = append([]Value(nil), c.out...)
			s.levels[i] = c.level
		}
	}
	return s
}

func (g *Graph) restore(s *state) {
	for i := range s.nets {
		if n := g.nets[i]; n != nil {
			n.value, n.conflict = s.nets[i], s.conflicts[i]
		}
	}
	for i := range s.outs {
		if c := g.comps[i]; c != nil {
			copy(c.out, s.outs[i])
			c.level = s.levels[i]
		}
	}
}

// markAll schedules every net and component for the next settle.
//
func (g *Graph) markAll() {
	for _, n := range g.nets {
		if n != nil {
			g.dirtyNets[n.id] = struct{}{}
		}
	}
	for _, c := range g.comps {
		if c != nil {
			g.dirtyComps[c.id] = struct{}{}
		}
	}
}

func (g *Graph) clearPending() {
	g.dirtyNets = make(map[NetID]struct{})
	g.dirtyComps = make(map[ComponentID]struct{})
}

func sortedNets(m map[NetID]struct{}) []NetID {
	ids := make([]NetID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedComponents(m map[ComponentID]struct{}) []ComponentID {
	ids := make([]ComponentID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
