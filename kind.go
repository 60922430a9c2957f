// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"strconv"
	"strings"
)

// A Kind identifies a component type. The set of kinds is closed: each kind
// has an entry in the registry table giving its terminal layout and its
// evaluation function.
//
type Kind uint8

// Component kinds.
//
const (
	_ Kind = iota
	Wire
	Source
	Resistor
	Not
	And
	Or
	Nand
	Nor
	Xor
	Xnor
	Clock
	Probe
	kindCount
)

// Dir is the direction of a terminal.
//
type Dir uint8

// Terminal directions.
//
const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// A Pin describes a terminal slot of a component kind.
//
type Pin struct {
	Name string
	Dir  Dir
}

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pOut = "out"
)

// evalFn computes the values of a component's output terminals. in and out
// have one slot per terminal: in holds the level of each terminal's net, and
// only the output slots of out are read back.
//
type evalFn func(c *Component, in []Level, out []Value)

type kindInfo struct {
	name string
	pins []Pin
	eval evalFn

	ins  []int // indices of input terminals
	outs []int // indices of output terminals
}

var (
	pinsInOut = []Pin{{pIn, In}, {pOut, Out}}
	pinsOut   = []Pin{{pOut, Out}}
	pinsGate  = []Pin{{pA, In}, {pB, In}, {pOut, Out}}
)

var registry = [kindCount]kindInfo{
	Wire:     {name: "WIRE", pins: pinsInOut, eval: evalWire},
	Source:   {name: "SOURCE", pins: pinsOut, eval: evalSource},
	Resistor: {name: "RESISTOR", pins: pinsInOut, eval: evalResistor},
	Not:      {name: "NOT", pins: pinsInOut, eval: evalNot},
	And:      {name: "AND", pins: pinsGate, eval: gate(and)},
	Or:       {name: "OR", pins: pinsGate, eval: gate(or)},
	Nand:     {name: "NAND", pins: pinsGate, eval: gate(not(and))},
	Nor:      {name: "NOR", pins: pinsGate, eval: gate(not(or))},
	Xor:      {name: "XOR", pins: pinsGate, eval: gate(xor)},
	Xnor:     {name: "XNOR", pins: pinsGate, eval: gate(not(xor))},
	Clock:    {name: "CLOCK", pins: pinsOut, eval: evalSource},
	Probe:    {name: "PROBE", pins: []Pin{{pIn, In}}, eval: func(*Component, []Level, []Value) {}},
}

func init() {
	for k := range registry {
		ki := &registry[k]
		for i, p := range ki.pins {
			if p.Dir == In {
				ki.ins = append(ki.ins, i)
			} else {
				ki.outs = append(ki.outs, i)
			}
		}
	}
}

// Kinds returns all registered kinds.
//
func Kinds() []Kind {
	ks := make([]Kind, 0, kindCount-1)
	for k := Wire; k < kindCount; k++ {
		ks = append(ks, k)
	}
	return ks
}

// KindByName returns the kind with the given name. The lookup is case
// insensitive.
//
func KindByName(name string) (Kind, error) {
	for k := Wire; k < kindCount; k++ {
		if strings.EqualFold(registry[k].name, name) {
			return k, nil
		}
	}
	return 0, errorf(UnknownKind, "%q", name)
}

// Valid returns true if k is a registered kind.
//
func (k Kind) Valid() bool { return k > 0 && k < kindCount }

func (k Kind) String() string {
	if k.Valid() {
		return registry[k].name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Arity returns the number of terminals of components of kind k.
//
func (k Kind) Arity() int {
	if !k.Valid() {
		return 0
	}
	return len(registry[k].pins)
}

// Pins returns the terminal layout of kind k.
//
func (k Kind) Pins() []Pin {
	if !k.Valid() {
		return nil
	}
	return append([]Pin(nil), registry[k].pins...)
}

// PinIndex returns the terminal index of the named pin.
//
func (k Kind) PinIndex(name string) (int, bool) {
	if !k.Valid() {
		return 0, false
	}
	for i, p := range registry[k].pins {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

// IsSource returns true for kinds whose output level is set from outside the
// circuit (SOURCE and CLOCK).
//
func (k Kind) IsSource() bool { return k == Source || k == Clock }

func (k Kind) info() *kindInfo { return &registry[k] }

// bit reads an input level the way gate inputs see it: floating inputs are
// pulled low.
//
func bit(l Level) Level {
	if l == Z {
		return Low
	}
	return l
}

type logicFn func(a, b Level) Level

func and(a, b Level) Level {
	switch {
	case a == Low || b == Low:
		return Low
	case a == X || b == X:
		return X
	}
	return High
}

func or(a, b Level) Level {
	switch {
	case a == High || b == High:
		return High
	case a == X || b == X:
		return X
	}
	return Low
}

func xor(a, b Level) Level {
	if a == X || b == X {
		return X
	}
	return LevelOf(a != b)
}

func invert(l Level) Level {
	switch l {
	case Low:
		return High
	case High:
		return Low
	}
	return X
}

func not(f logicFn) logicFn {
	return func(a, b Level) Level { return invert(f(a, b)) }
}

func gate(f logicFn) evalFn {
	return func(_ *Component, in []Level, out []Value) {
		out[2] = Strong(f(bit(in[0]), bit(in[1])))
	}
}

func evalWire(_ *Component, in []Level, out []Value) {
	out[1] = Strong(in[0])
}

func evalSource(c *Component, _ []Level, out []Value) {
	out[0] = Strong(c.level)
}

func evalResistor(c *Component, in []Level, out []Value) {
	if in[0] == Z {
		out[1] = Value{}
		return
	}
	out[1] = Value{Level: in[0], Ohms: c.ohms}
}

func evalNot(_ *Component, in []Level, out []Value) {
	out[1] = Strong(invert(bit(in[0])))
}
