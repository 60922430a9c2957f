// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"strconv"

	"github.com/pkg/errors"
)

// DefaultMaxPasses is the default limit on the number of propagation passes
// run by a single settle.
//
const DefaultMaxPasses = 1000

// engine settles a graph: it propagates the pending changes of the graph
// until no net changes value.
//
// Each pass evaluates every component scheduled for evaluation (in ascending
// id order) against the net values of the previous pass, then re-resolves
// the nets driven by outputs that changed. Components reading a net whose
// value changed are scheduled for the next pass.
//
type engine struct {
	maxPasses int

	in  []Level
	out []Value
	drv []Value
}

func (e *engine) limit() int {
	if e.maxPasses <= 0 {
		return DefaultMaxPasses
	}
	return e.maxPasses
}

// settle runs propagation passes until a fixed point is reached. It returns
// the number of passes run. The graph's pending work is left untouched.
//
func (e *engine) settle(g *Graph) (int, error) {
	changed := make(map[NetID]struct{})
	for _, id := range sortedNets(g.dirtyNets) {
		if e.resolveNet(g, id) {
			changed[id] = struct{}{}
		}
	}
	eval := make(map[ComponentID]struct{}, len(g.dirtyComps))
	for id := range g.dirtyComps {
		eval[id] = struct{}{}
	}

	maxPasses := e.limit()
	passes := 0
	for {
		for id := range changed {
			for _, t := range g.nets[id].members {
				c := g.comps[t.Component]
				if c.kind.info().pins[t.Index].Dir == In {
					eval[c.id] = struct{}{}
				}
			}
		}
		if len(eval) == 0 {
			break
		}
		if passes == maxPasses {
			return passes, errors.WithStack(&Error{
				Code:       UnstableCircuit,
				Msg:        "no fixed point after " + strconv.Itoa(passes) + " passes",
				Nets:       sortedNets(changed),
				Components: sortedComponents(eval),
				Passes:     passes,
			})
		}
		passes++

		touched := make(map[NetID]struct{})
		for _, id := range sortedComponents(eval) {
			c := g.comps[id]
			if c == nil {
				continue
			}
			for _, t := range e.evaluate(g, c) {
				touched[t] = struct{}{}
			}
		}
		changed = make(map[NetID]struct{})
		for _, id := range sortedNets(touched) {
			if e.resolveNet(g, id) {
				changed[id] = struct{}{}
			}
		}
		eval = make(map[ComponentID]struct{})
	}

	return passes, e.conflicts(g, passes)
}

// evaluate runs the evaluation function of c and stores the new output
// values. It returns the nets driven by outputs that changed.
//
func (e *engine) evaluate(g *Graph, c *Component) []NetID {
	ki := c.kind.info()
	n := len(c.nets)
	e.in = e.in[:0]
	e.out = e.out[:0]
	for i := 0; i < n; i++ {
		l := Z
		if c.nets[i] != NoNet {
			l = g.nets[c.nets[i]].value.Level
		}
		e.in = append(e.in, l)
		e.out = append(e.out, c.out[i])
	}
	ki.eval(c, e.in, e.out)

	var touched []NetID
	for _, i := range ki.outs {
		if e.out[i] == c.out[i] {
			continue
		}
		c.out[i] = e.out[i]
		if c.nets[i] != NoNet {
			touched = append(touched, c.nets[i])
		}
	}
	return touched
}

// resolveNet recomputes the value of a net from its drivers and reports
// whether it changed.
//
func (e *engine) resolveNet(g *Graph, id NetID) bool {
	n := g.nets[id]
	if n == nil {
		return false
	}
	e.drv = e.drv[:0]
	for _, t := range n.members {
		c := g.comps[t.Component]
		if c.kind.info().pins[t.Index].Dir == Out {
			e.drv = append(e.drv, c.out[t.Index])
		}
	}
	v, conflict := resolve(n.mode, e.drv)
	n.conflict = conflict
	if v == n.value {
		return false
	}
	n.value = v
	return true
}

// conflicts returns a ConflictingDrivers error listing every net whose
// drivers disagree, together with their drivers.
//
func (e *engine) conflicts(g *Graph, passes int) error {
	var nets []NetID
	drivers := make(map[ComponentID]struct{})
	for _, n := range g.nets {
		if n == nil || !n.conflict {
			continue
		}
		nets = append(nets, n.id)
		for _, t := range g.Drivers(n.id) {
			if g.comps[t.Component].out[t.Index].Level != Z {
				drivers[t.Component] = struct{}{}
			}
		}
	}
	if len(nets) == 0 {
		return nil
	}
	return errors.WithStack(&Error{
		Code:       ConflictingDrivers,
		Nets:       nets,
		Components: sortedComponents(drivers),
		Passes:     passes,
	})
}
