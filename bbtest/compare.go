// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bbtest provides utility functions for testing parts.
//
package bbtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	bb "github.com/db47h/breadboard"
)

// A Harness mounts a single part on a fresh graph, drives each of its inputs
// with a SOURCE and reads its outputs after each step.
//
type Harness struct {
	Spec  *bb.PartSpec
	Graph *bb.Graph
	Sim   *bb.Simulator

	t    testing.TB
	ins  []bb.NetID
	outs []bb.NetID
}

func connString(pins ...[]string) string {
	var b strings.Builder
	for _, ps := range pins {
		for _, n := range ps {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n)
			b.WriteByte('=')
			b.WriteString(n)
		}
	}
	return b.String()
}

// New returns a harness for the given part. All inputs start Low.
//
func New(t testing.TB, spec *bb.PartSpec, opts ...bb.Option) *Harness {
	t.Helper()
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	h := &Harness{Spec: spec, Graph: g, t: t}
	for _, in := range spec.Inputs {
		if _, err := b.PlaceSpec(bb.ComponentSpec{Kind: bb.Source, Name: in, Level: bb.Low}, "out="+in); err != nil {
			t.Fatal(err)
		}
		id, _ := b.Lookup(in)
		h.ins = append(h.ins, id)
	}
	if err := b.Mount(spec.Wire(connString(spec.Inputs, spec.Outputs))); err != nil {
		t.Fatal(err)
	}
	for _, o := range spec.Outputs {
		id, _ := b.Lookup(o)
		h.outs = append(h.outs, id)
	}
	h.Sim = bb.NewSimulator(g, opts...)
	return h
}

// Eval sets the inputs of the part, runs one step and returns its outputs.
// Outputs at any level other than High read as false.
//
func (h *Harness) Eval(in ...bool) []bool {
	h.t.Helper()
	if len(in) != len(h.ins) {
		h.t.Fatalf("%s: got %d input values for %d inputs", h.Spec.Name, len(in), len(h.ins))
	}
	changes := make(map[bb.NetID]bb.Level, len(in))
	for i, v := range in {
		changes[h.ins[i]] = bb.LevelOf(v)
	}
	snap, err := h.Sim.Step(changes)
	if err != nil {
		h.t.Fatalf("%s %v: %+v", h.Spec.Name, in, err)
	}
	out := make([]bool, len(h.outs))
	for i, id := range h.outs {
		out[i] = snap.Level(id) == bb.High
	}
	return out
}

// TruthTable checks the outputs of a combinational part for every
// combination of its inputs. result[o][i] is the expected value of output o
// for input combination i, the first input being the most significant bit.
//
func TruthTable(t testing.TB, spec *bb.PartSpec, result [][]bool) {
	t.Helper()
	h := New(t, spec)
	inputs := make([]bool, len(spec.Inputs))
	tot := 1 << uint(len(inputs))
	for i := 0; i < tot; i++ {
		for bit := range inputs {
			inputs[len(inputs)-bit-1] = (i & (1 << uint(bit))) != 0
		}
		for o, out := range h.Eval(inputs...) {
			if exp := result[o][i]; exp != out {
				t.Errorf("%s %v: %s = %v, got %v", spec.Name, inputs, spec.Outputs[o], exp, out)
			}
		}
	}
}

// ComparePart takes two parts and compares their outputs given the same
// inputs. Both parts must have the same input/output interface.
//
func ComparePart(t testing.TB, spec1, spec2 *bb.PartSpec) {
	t.Helper()

	if strings.Join(spec1.Inputs, ",") != strings.Join(spec2.Inputs, ",") {
		t.Fatalf("inputs differ: %v != %v", spec1.Inputs, spec2.Inputs)
	}
	if strings.Join(spec1.Outputs, ",") != strings.Join(spec2.Outputs, ",") {
		t.Fatalf("outputs differ: %v != %v", spec1.Outputs, spec2.Outputs)
	}

	seed := time.Now().UnixNano()
	rnd := rand.New(rand.NewSource(seed))
	h1, h2 := New(t, spec1), New(t, spec2)
	inputs := make([]bool, len(spec1.Inputs))

	errString := func(oname string, ex, got bool) string {
		var b strings.Builder
		for i, n := range spec1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", n, inputs[i])
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v (seed %d)", b.String(), oname, ex, got, seed)
	}
	check := func() {
		o1, o2 := h1.Eval(inputs...), h2.Eval(inputs...)
		for o := range o1 {
			if o1[o] != o2[o] {
				t.Fatal(errString(spec1.Outputs[o], o1[o], o2[o]))
			}
		}
	}

	start := time.Now()

	// all 0, then all 1
	check()
	for in := range inputs {
		inputs[in] = true
	}
	check()

	iter := len(inputs)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)
	for i := 0; i < iter; i++ {
		for in := range inputs {
			inputs[in] = rnd.Int63()&(1<<62) != 0
		}
		check()
	}

	t.Logf("%s/%s: %d components, %d steps in %v", spec1.Name, spec2.Name,
		len(h1.Graph.Components())+len(h2.Graph.Components()), 2*h1.Sim.Time(), time.Since(start))
}
