// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard_test

import (
	"testing"

	bb "github.com/db47h/breadboard"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func place(t *testing.T, b *bb.Board, k bb.Kind, conns string) bb.ComponentID {
	t.Helper()
	id, err := b.Place(k, conns)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return id
}

func source(t *testing.T, b *bb.Board, net string, l bb.Level) bb.ComponentID {
	t.Helper()
	id, err := b.PlaceSpec(bb.ComponentSpec{Kind: bb.Source, Level: l}, "out="+net)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return id
}

func net(t *testing.T, b *bb.Board, name string) bb.NetID {
	t.Helper()
	id, ok := b.Lookup(name)
	if !ok {
		t.Fatalf("no net named %s", name)
	}
	return id
}

func step(t *testing.T, s *bb.Simulator, changes map[bb.NetID]bb.Level) *bb.Snapshot {
	t.Helper()
	snap, err := s.Step(changes)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return snap
}

func TestSimulator_sourceWireNot(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.High)
	place(t, b, bb.Wire, "in=a, out=w")
	place(t, b, bb.Not, "in=w, out=y")

	s := bb.NewSimulator(g)
	snap := step(t, s, nil)
	if l := snap.Level(net(t, b, "y")); l != bb.Low {
		t.Fatalf("y = %v, expected 0", l)
	}
	if l := snap.Level(net(t, b, "w")); l != bb.High {
		t.Fatalf("w = %v, expected 1", l)
	}
	if s.Status() != bb.Settled {
		t.Fatalf("status %v, expected settled", s.Status())
	}
	if snap.Step != 0 || s.Time() != 1 {
		t.Fatalf("step %d, time %d", snap.Step, s.Time())
	}
}

func TestSimulator_unstable(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	place(t, b, bb.Not, "in=n, out=n")

	var events []bb.EventType
	s := bb.NewSimulator(g, bb.MaxPasses(16), bb.WithHook(func(ev bb.Event) { events = append(events, ev.Type) }))
	_, err := s.Step(nil)
	if !errors.Is(err, bb.UnstableCircuit) {
		t.Fatalf("expected unstable circuit error, got %v", err)
	}
	var e *bb.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Passes != 16 {
		t.Errorf("passes = %d, expected 16", e.Passes)
	}
	if diff := cmp.Diff([]bb.NetID{net(t, b, "n")}, e.Nets); diff != "" {
		t.Errorf("offending nets (-want +got):\n%s", diff)
	}
	if s.Status() != bb.Faulted || s.History().Len() != 0 {
		t.Fatalf("status %v, history %d", s.Status(), s.History().Len())
	}
	if diff := cmp.Diff([]bb.EventType{bb.EventFaulted}, events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestSimulator_hookEdits(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.High)
	place(t, b, bb.Not, "in=a, out=y")

	var hookErr error
	s := bb.NewSimulator(g, bb.WithHook(func(ev bb.Event) {
		if ev.Type == bb.EventSettled && ev.Step == 0 {
			_, hookErr = b.Place(bb.Not, "in=y, out=z")
		}
	}))
	step(t, s, nil)
	if hookErr != nil {
		t.Fatalf("edit from hook: %v", hookErr)
	}
	snap := step(t, s, nil)
	if l := snap.Level(net(t, b, "z")); l != bb.High {
		t.Fatalf("z = %v after edit from hook", l)
	}
}

func TestSimulator_conflictingDrivers(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	s1 := source(t, b, "n", bb.High)
	s2 := source(t, b, "n", bb.Low)
	place(t, b, bb.Probe, "in=n")

	s := bb.NewSimulator(g)
	_, err := s.Step(nil)
	if !errors.Is(err, bb.ConflictingDrivers) {
		t.Fatalf("expected conflicting drivers error, got %v", err)
	}
	var e *bb.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if diff := cmp.Diff([]bb.NetID{net(t, b, "n")}, e.Nets); diff != "" {
		t.Errorf("offending nets (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bb.ComponentID{s1, s2}, e.Components); diff != "" {
		t.Errorf("offending drivers (-want +got):\n%s", diff)
	}
}

func TestSimulator_wiredLogic(t *testing.T) {
	td := []struct {
		name string
		mode bb.Resolution
		a, b bb.Level
		want bb.Level
	}{
		{"or_01", bb.WiredOR, bb.Low, bb.High, bb.High},
		{"or_00", bb.WiredOR, bb.Low, bb.Low, bb.Low},
		{"and_01", bb.WiredAND, bb.Low, bb.High, bb.Low},
		{"and_11", bb.WiredAND, bb.High, bb.High, bb.High},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			g := bb.NewGraph()
			b := bb.NewBoard(g)
			source(t, b, "n", d.a)
			source(t, b, "n", d.b)
			n := net(t, b, "n")
			if err := g.SetResolution(n, d.mode); err != nil {
				t.Fatal(err)
			}
			snap := step(t, bb.NewSimulator(g), nil)
			if l := snap.Level(n); l != d.want {
				t.Fatalf("n = %v, expected %v", l, d.want)
			}
		})
	}
}

func TestSimulator_resistors(t *testing.T) {
	// a pull-down resistor is overridden by a strong driver
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "gnd", bb.Low)
	if _, err := b.PlaceSpec(bb.ComponentSpec{Kind: bb.Resistor, Ohms: 4700}, "in=gnd, out=n"); err != nil {
		t.Fatal(err)
	}
	drv := source(t, b, "d", bb.Z)
	place(t, b, bb.Wire, "in=d, out=n")

	s := bb.NewSimulator(g)
	n := net(t, b, "n")
	snap := step(t, s, nil)
	if v, _ := snap.Value(n); v != (bb.Value{Level: bb.Low, Ohms: 4700}) {
		t.Fatalf("floating net = %v, expected weak 0", v)
	}
	if err := s.SetSource(drv, bb.High); err != nil {
		t.Fatal(err)
	}
	snap = step(t, s, nil)
	if v, _ := snap.Value(n); v != bb.Strong(bb.High) {
		t.Fatalf("driven net = %v, expected 1", v)
	}
}

func TestSimulator_inputs(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.Low)
	source(t, b, "b", bb.Low)
	place(t, b, bb.And, "a=a, b=b, out=y")
	a, bn, y := net(t, b, "a"), net(t, b, "b"), net(t, b, "y")

	s := bb.NewSimulator(g)
	if _, err := s.Step(map[bb.NetID]bb.Level{y: bb.High}); !errors.Is(err, bb.UnknownNet) {
		t.Fatalf("expected unknown net error for a gate output, got %v", err)
	}
	if s.History().Len() != 0 {
		t.Fatal("rejected step recorded")
	}
	if snap := step(t, s, map[bb.NetID]bb.Level{a: bb.High}); snap.Level(y) != bb.Low {
		t.Fatalf("1 AND 0 = %v", snap.Level(y))
	}
	if err := s.Queue(bn, bb.High); err != nil {
		t.Fatal(err)
	}
	if snap := step(t, s, nil); snap.Level(y) != bb.High {
		t.Fatalf("1 AND 1 = %v", snap.Level(y))
	}
}

func TestSimulator_idempotentStep(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.High)
	source(t, b, "b", bb.Low)
	place(t, b, bb.Xor, "a=a, b=b, out=x")
	place(t, b, bb.Nand, "a=x, b=a, out=y")

	s := bb.NewSimulator(g)
	s0 := step(t, s, nil)
	s1 := step(t, s, nil)
	if !s0.Equal(s1) {
		t.Fatalf("second step changed the state:\n%v\n%v", s0.Values(), s1.Values())
	}
	if s1.Passes != 0 {
		t.Errorf("second step ran %d passes", s1.Passes)
	}
}

func TestSimulator_faultRestoresState(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "n", bb.High)
	place(t, b, bb.Not, "in=n, out=y")

	s := bb.NewSimulator(g)
	good := step(t, s, nil)

	bad := source(t, b, "n", bb.Low)
	_, err := s.Step(nil)
	if !errors.Is(err, bb.ConflictingDrivers) {
		t.Fatalf("expected conflicting drivers error, got %v", err)
	}
	if s.History().Len() != 1 {
		t.Fatalf("history length %d after fault", s.History().Len())
	}
	n, y := net(t, b, "n"), net(t, b, "y")
	if g.Value(n) != good.Values()[n] || g.Value(y) != good.Values()[y] {
		t.Fatalf("net values not restored: n=%v y=%v", g.Value(n), g.Value(y))
	}

	// no edit: same fault, nothing run
	_, err2 := s.Step(nil)
	if err2 != err || s.Fault() != err {
		t.Fatalf("faulted retry returned %v", err2)
	}

	if err := g.RemoveComponent(bad); err != nil {
		t.Fatal(err)
	}
	snap := step(t, s, nil)
	if !snap.Equal(good) {
		t.Fatalf("state after repair differs: %v", snap.Values())
	}
	if s.Fault() != nil {
		t.Fatal("fault not cleared")
	}
}

func TestHistory_At(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.High)
	s := bb.NewSimulator(g)
	if _, err := s.Run(3); err != nil {
		t.Fatal(err)
	}
	h := s.History()
	for _, i := range []int{-1, 3, 10} {
		if _, err := h.At(i); !errors.Is(err, bb.OutOfRange) {
			t.Errorf("At(%d): expected out of range error, got %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		snap, err := h.At(i)
		if err != nil {
			t.Fatal(err)
		}
		if snap.Step != i {
			t.Errorf("At(%d).Step = %d", i, snap.Step)
		}
	}
	if h.Last().Step != 2 || len(h.All()) != 3 {
		t.Fatal("bad Last or All")
	}
}

func TestSimulator_reset(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.Low)
	place(t, b, bb.Not, "in=a, out=y")
	a := net(t, b, "a")

	var reset bool
	s := bb.NewSimulator(g, bb.WithHook(func(ev bb.Event) { reset = reset || ev.Type == bb.EventReset }))
	first := step(t, s, nil)
	step(t, s, map[bb.NetID]bb.Level{a: bb.High})
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if !reset || s.Time() != 0 || s.Status() != bb.Idle {
		t.Fatalf("reset: event %v, time %d, status %v", reset, s.Time(), s.Status())
	}
	if v := g.Value(a); v != (bb.Value{}) {
		t.Fatalf("net a = %v after reset", v)
	}
	if snap := step(t, s, nil); !snap.Equal(first) {
		t.Fatalf("first step after reset differs: %v", snap.Values())
	}
}

func TestSimulator_rollback(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.Low)
	place(t, b, bb.Not, "in=a, out=y")
	a, y := net(t, b, "a"), net(t, b, "y")

	s := bb.NewSimulator(g)
	step(t, s, nil)
	at1 := step(t, s, map[bb.NetID]bb.Level{a: bb.High})
	step(t, s, map[bb.NetID]bb.Level{a: bb.Low})

	snap, err := s.Rollback(1)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	if !snap.Equal(at1) || snap.Level(y) != bb.Low {
		t.Fatalf("rollback state: %v", snap.Values())
	}
	if s.Time() != 2 {
		t.Fatalf("time = %d after rollback to 1", s.Time())
	}
	if _, err := s.Rollback(5); !errors.Is(err, bb.OutOfRange) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestSimulator_rollbackFault(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	source(t, b, "a", bb.Low)
	place(t, b, bb.Not, "in=a, out=y")
	a, y := net(t, b, "a"), net(t, b, "y")

	s := bb.NewSimulator(g, bb.MaxPasses(16))
	step(t, s, nil)
	at1 := step(t, s, map[bb.NetID]bb.Level{a: bb.High})
	last := step(t, s, map[bb.NetID]bb.Level{a: bb.Low})

	ring := place(t, b, bb.Not, "in=loop, out=loop")
	if _, err := s.Rollback(1); !errors.Is(err, bb.UnstableCircuit) {
		t.Fatalf("expected unstable circuit error, got %v", err)
	}
	if s.Time() != 3 || s.Status() != bb.Faulted {
		t.Fatalf("time %d, status %v after failed rollback", s.Time(), s.Status())
	}
	if h := s.History().Last(); h != last {
		t.Fatal("last snapshot replaced by failed rollback")
	}
	if g.Value(a) != last.Values()[a] || g.Value(y) != last.Values()[y] {
		t.Fatalf("net values changed: a=%v y=%v", g.Value(a), g.Value(y))
	}

	if err := g.RemoveComponent(ring); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Rollback(1)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	if snap.Level(y) != at1.Level(y) || s.Time() != 2 {
		t.Fatalf("rollback after repair: y=%v, time %d", snap.Level(y), s.Time())
	}
}

func TestSimulator_invalidLevel(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	src := source(t, b, "a", bb.Low)
	place(t, b, bb.Not, "in=a, out=y")
	a := net(t, b, "a")
	s := bb.NewSimulator(g)
	first := step(t, s, nil)

	bad := bb.Level(42)
	td := []struct {
		name string
		fn   func() error
	}{
		{"queue", func() error { return s.Queue(a, bad) }},
		{"set_source", func() error { return s.SetSource(src, bad) }},
		{"step", func() error { _, err := s.Step(map[bb.NetID]bb.Level{a: bad}); return err }},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if err := d.fn(); !errors.Is(err, bb.InvalidParameter) {
				t.Fatalf("expected invalid parameter error, got %v", err)
			}
		})
	}
	if snap := step(t, s, nil); !snap.Equal(first) {
		t.Fatalf("invalid levels leaked into the circuit: %v", snap.Values())
	}
}

func TestSimulator_clock(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	if _, err := b.PlaceSpec(bb.ComponentSpec{Kind: bb.Clock, Level: bb.Low, Period: 2}, "out=clk"); err != nil {
		t.Fatal(err)
	}
	place(t, b, bb.Not, "in=clk, out=nclk")
	clk, nclk := net(t, b, "clk"), net(t, b, "nclk")

	s := bb.NewSimulator(g)
	if n, err := s.Run(6); err != nil || n != 6 {
		t.Fatalf("Run: %d, %v", n, err)
	}
	want := []bb.Level{bb.Low, bb.Low, bb.High, bb.High, bb.Low, bb.Low}
	var got, inv []bb.Level
	for _, snap := range s.History().All() {
		got = append(got, snap.Level(clk))
		inv = append(inv, snap.Level(nclk))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("clock (-want +got):\n%s", diff)
	}
	for i := range inv {
		if inv[i] == got[i] {
			t.Errorf("step %d: nclk = clk = %v", i, got[i])
		}
	}
}

func TestSimulator_setSource(t *testing.T) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	not := place(t, b, bb.Not, "in=a, out=y")
	s := bb.NewSimulator(g)
	if err := s.SetSource(not, bb.High); !errors.Is(err, bb.InvalidParameter) {
		t.Fatalf("expected invalid parameter error, got %v", err)
	}
	if err := s.SetSource(42, bb.High); !errors.Is(err, bb.UnknownComponent) {
		t.Fatalf("expected unknown component error, got %v", err)
	}
}
