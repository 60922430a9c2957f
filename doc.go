// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package breadboard is a discrete-step digital circuit simulator.

A circuit is a Graph of components (wires, sources, resistors, logic gates,
clocks and probes) whose terminals are joined by nets. A Simulator advances
the circuit one step at a time: each step applies input changes, propagates
signals until every net is stable and records the settled state in a
History.

Propagation stops with an UnstableCircuit error when the circuit oscillates
and with a ConflictingDrivers error when equally strong drivers disagree on a
net. In both cases the step is rolled back and the simulator is Faulted until
the circuit or its inputs change.

Circuits are usually built on a Board, which names nets and composes parts:

	g := breadboard.NewGraph()
	b := breadboard.NewBoard(g)
	b.PlaceSpec(breadboard.ComponentSpec{Kind: breadboard.Source, Level: breadboard.High}, "out=a")
	b.Place(breadboard.Not, "in=a, out=y")
	s := breadboard.NewSimulator(g)
	snap, err := s.Step(nil)

*/
package breadboard
