// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package partlib provides a library of reusable parts for breadboard.
//
// Every part is built from the primitive component kinds of the breadboard
// package. Functions returning a Part take a connection description (see
// breadboard.ParseConnections) and are meant to be used in Chip definitions:
//
//	xor, err := breadboard.Chip("XOR", "a, b", "out",
//		partlib.Or("a=a, b=b, out=or"),
//		partlib.Nand("a=a, b=b, out=nand"),
//		partlib.And("a=or, b=nand, out=out"),
//	)
//
package partlib

import (
	"fmt"
	"strconv"

	bb "github.com/db47h/breadboard"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pSel = "sel"
	pOut = "out"
)

// make a bus name
func bus(bits int, names ...string) []string {
	b := make([]string, len(names)*bits)
	for i, n := range names {
		for j := 0; j < bits; j++ {
			b[i*bits+j] = bb.BusPinName(n, j)
		}
	}
	return b
}

var (
	wire  = bb.KindPart(bb.Wire)
	probe = bb.KindPart(bb.Probe)
	not   = bb.KindPart(bb.Not)
	and   = bb.KindPart(bb.And)
	nand  = bb.KindPart(bb.Nand)
	or    = bb.KindPart(bb.Or)
	nor   = bb.KindPart(bb.Nor)
	xor   = bb.KindPart(bb.Xor)
	xnor  = bb.KindPart(bb.Xnor)
)

// Wire returns a directional wire.
//
//	Inputs: in
//	Outputs: out
//	Function: out = in
//
func Wire(w string) bb.Part { return wire.Wire(w) }

// Probe returns a probe. It has no effect on the circuit and marks a net as
// observed.
//
//	Inputs: in
//
func Probe(w string) bb.Part { return probe.Wire(w) }

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) bb.Part { return not.Wire(w) }

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And(w string) bb.Part { return and.Wire(w) }

// Nand returns a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func Nand(w string) bb.Part { return nand.Wire(w) }

// Or returns a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
func Or(w string) bb.Part { return or.Wire(w) }

// Nor returns a NOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a || b)
//
func Nor(w string) bb.Part { return nor.Wire(w) }

// Xor returns a XOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = (a && !b) || (!a && b)
//
func Xor(w string) bb.Part { return xor.Wire(w) }

// Xnor returns a XNOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b || !a && !b
//
func Xnor(w string) bb.Part { return xnor.Wire(w) }

// NotN returns a N-bits NOT gate.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = !in[i] }
//
func NotN(bits int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    "NOT" + strconv.Itoa(bits),
		Inputs:  bus(bits, pIn),
		Outputs: bus(bits, pOut),
		Mount: func(b *bb.Board) error {
			for i := 0; i < bits; i++ {
				if _, err := b.Place(bb.Not, fmt.Sprintf("in=in[%d], out=out[%d]", i, i)); err != nil {
					return err
				}
			}
			return nil
		}}
}

// GateN returns a N-bits version of a two-input gate kind.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = k(a[i], b[i]) }
//
func GateN(k bb.Kind, bits int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    k.String() + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: bus(bits, pOut),
		Mount: func(b *bb.Board) error {
			for i := 0; i < bits; i++ {
				if _, err := b.Place(k, fmt.Sprintf("a=a[%d], b=b[%d], out=out[%d]", i, i, i)); err != nil {
					return err
				}
			}
			return nil
		}}
}

var (
	not16  = NotN(16)
	and16  = GateN(bb.And, 16)
	nand16 = GateN(bb.Nand, 16)
	or16   = GateN(bb.Or, 16)
	nor16  = GateN(bb.Nor, 16)
)

// Not16 returns a 16 bits NOT gate.
//
func Not16(w string) bb.Part { return not16.Wire(w) }

// And16 returns a 16 bits AND gate.
//
func And16(w string) bb.Part { return and16.Wire(w) }

// Nand16 returns a 16 bits NAND gate.
//
func Nand16(w string) bb.Part { return nand16.Wire(w) }

// Or16 returns a 16 bits OR gate.
//
func Or16(w string) bb.Part { return or16.Wire(w) }

// Nor16 returns a 16 bits NOR gate.
//
func Nor16(w string) bb.Part { return nor16.Wire(w) }

// reduce chains two-input gates of kind k over in[0..ways-1].
func reduce(b *bb.Board, k bb.Kind, ways int) error {
	if ways == 1 {
		_, err := b.Place(bb.Wire, "in=in[0], out=out")
		return err
	}
	prev := "in[0]"
	for i := 1; i < ways; i++ {
		out := pOut
		if i < ways-1 {
			out = "r" + strconv.Itoa(i)
		}
		if _, err := b.Place(k, fmt.Sprintf("a=%s, b=in[%d], out=%s", prev, i, out)); err != nil {
			return err
		}
		prev = out
	}
	return nil
}

// OrNWay returns a N-Way OR gate.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = in[0] || in[1] || in[2] || ... || in[n-1]
//
func OrNWay(ways int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    "OR" + strconv.Itoa(ways) + "WAY",
		Inputs:  bus(ways, pIn),
		Outputs: []string{pOut},
		Mount:   func(b *bb.Board) error { return reduce(b, bb.Or, ways) },
	}
}

// AndNWay returns a N-Way AND gate.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = in[0] && in[1] && in[2] && ... && in[n-1]
//
func AndNWay(ways int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    "AND" + strconv.Itoa(ways) + "WAY",
		Inputs:  bus(ways, pIn),
		Outputs: []string{pOut},
		Mount:   func(b *bb.Board) error { return reduce(b, bb.And, ways) },
	}
}
