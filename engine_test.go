// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"testing"

	"github.com/pkg/errors"
)

// a chain of n wires settles in n+1 passes: one for the source and one per
// wire.
func TestEngine_chainDepth(t *testing.T) {
	for _, n := range []int{1, 5, 50} {
		g := NewGraph()
		prev := g.NewNet()
		if _, err := g.PlaceSpec(ComponentSpec{Kind: Source, Level: High}, prev); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < n; i++ {
			next := g.NewNet()
			if _, err := g.Place(Wire, prev, next); err != nil {
				t.Fatal(err)
			}
			prev = next
		}
		var e engine
		passes, err := e.settle(g)
		if err != nil {
			t.Fatal(err)
		}
		if passes != n+1 {
			t.Errorf("chain of %d wires: %d passes", n, passes)
		}
		if l := g.Value(prev).Level; l != High {
			t.Errorf("chain of %d wires: end of chain = %v", n, l)
		}
	}
}

func TestEngine_maxPassesTooLow(t *testing.T) {
	g := NewGraph()
	a, b, c := g.NewNet(), g.NewNet(), g.NewNet()
	g.PlaceSpec(ComponentSpec{Kind: Source, Level: High}, a)
	g.Place(Wire, a, b)
	g.Place(Wire, b, c)
	e := engine{maxPasses: 2}
	_, err := e.settle(g)
	if !errors.Is(err, UnstableCircuit) {
		t.Fatalf("expected unstable circuit, got %v", err)
	}
}

func TestGraph_busy(t *testing.T) {
	g := NewGraph()
	n := g.NewNet()
	id, err := g.Place(Probe, n)
	if err != nil {
		t.Fatal(err)
	}
	rev := g.Revision()
	g.busy = true
	checks := map[string]error{}
	_, checks["AddComponent"] = g.AddComponent(And)
	_, checks["Connect"] = g.Connect(id, 0, NoNet)
	checks["Disconnect"] = g.Disconnect(id, 0)
	checks["RemoveComponent"] = g.RemoveComponent(id)
	checks["RemoveNet"] = g.RemoveNet(n)
	checks["SetResolution"] = g.SetResolution(n, WiredOR)
	for name, err := range checks {
		if !errors.Is(err, Busy) {
			t.Errorf("%s: expected busy error, got %v", name, err)
		}
	}
	if g.Revision() != rev {
		t.Fatal("graph changed while busy")
	}
}

func TestResolve(t *testing.T) {
	weak := func(l Level) Value { return Value{Level: l, Ohms: 1000} }
	td := []struct {
		name     string
		mode     Resolution
		drv      []Value
		want     Value
		conflict bool
	}{
		{"none", Strict, nil, Value{}, false},
		{"all_z", Strict, []Value{Strong(Z), Strong(Z)}, Value{}, false},
		{"single", Strict, []Value{Strong(High)}, Strong(High), false},
		{"agree", Strict, []Value{Strong(Low), Strong(Low), Strong(Z)}, Strong(Low), false},
		{"conflict", Strict, []Value{Strong(Low), Strong(High)}, Strong(X), true},
		{"x_driver", Strict, []Value{Strong(X), Strong(High)}, Strong(X), false},
		{"strong_wins", Strict, []Value{weak(Low), Strong(High)}, Strong(High), false},
		{"weak_only", Strict, []Value{weak(Low)}, weak(Low), false},
		{"weak_conflict", Strict, []Value{weak(Low), weak(High)}, Value{Level: X, Ohms: 1000}, true},
		{"lowest_ohms", Strict, []Value{weak(Low), {Level: High, Ohms: 10}}, Value{Level: High, Ohms: 10}, false},
		{"or", WiredOR, []Value{Strong(Low), Strong(High)}, Strong(High), false},
		{"or_x", WiredOR, []Value{Strong(Low), Strong(X)}, Strong(X), false},
		{"and", WiredAND, []Value{Strong(Low), Strong(High)}, Strong(Low), false},
		{"and_high", WiredAND, []Value{Strong(High), Strong(High)}, Strong(High), false},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			v, c := resolve(d.mode, d.drv)
			if v != d.want || c != d.conflict {
				t.Fatalf("resolve(%v, %v) = %v, %v; expected %v, %v", d.mode, d.drv, v, c, d.want, d.conflict)
			}
		})
	}
}
