// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package partlib

import (
	"fmt"
	"math/bits"
	"strconv"

	bb "github.com/db47h/breadboard"
)

// Mux returns a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(w string) bb.Part { return mux.Wire(w) }

var mux = &bb.PartSpec{
	Name:    "MUX",
	Inputs:  []string{pA, pB, pSel},
	Outputs: []string{pOut},
	Mount: func(b *bb.Board) error {
		return place(b,
			placement{bb.Not, "in=sel, out=notSel"},
			placement{bb.And, "a=a, b=notSel, out=w0"},
			placement{bb.And, "a=b, b=sel, out=w1"},
			placement{bb.Or, "a=w0, b=w1, out=out"},
		)
	},
}

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(w string) bb.Part { return dmux.Wire(w) }

var dmux = &bb.PartSpec{
	Name:    "DMUX",
	Inputs:  []string{pIn, pSel},
	Outputs: []string{pA, pB},
	Mount: func(b *bb.Board) error {
		return place(b,
			placement{bb.Not, "in=sel, out=notSel"},
			placement{bb.And, "a=in, b=notSel, out=a"},
			placement{bb.And, "a=in, b=sel, out=b"},
		)
	},
}

type placement struct {
	kind  bb.Kind
	conns string
}

func place(b *bb.Board, ps ...placement) error {
	for _, p := range ps {
		if _, err := b.Place(p.kind, p.conns); err != nil {
			return err
		}
	}
	return nil
}

// MuxN returns a PartSpec for a N-bits Mux.
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: for i := range out { if sel == 0 { out[i] = a[i] } else { out[i] = b[i] } }
//
func MuxN(n int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    "MUX" + strconv.Itoa(n),
		Inputs:  append(bus(n, pA, pB), pSel),
		Outputs: bus(n, pOut),
		Mount: func(b *bb.Board) error {
			for i := 0; i < n; i++ {
				if err := b.Mount(Mux(fmt.Sprintf("a=a[%d], b=b[%d], sel=sel, out=out[%d]", i, i, i))); err != nil {
					return err
				}
			}
			return nil
		}}
}

// DMuxN returns a PartSpec for a N-bits DMux.
//
//	Inputs: in[bits], sel
//	Outputs: a[bits], b[bits]
//	Function: for i := range in { if sel == 0 { a[i] = in[i]; b[i] = 0 } else { a[i] = 0; b[i] = in[i] } }
//
func DMuxN(n int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    "DMUX" + strconv.Itoa(n),
		Inputs:  append(bus(n, pIn), pSel),
		Outputs: bus(n, pA, pB),
		Mount: func(b *bb.Board) error {
			for i := 0; i < n; i++ {
				if err := b.Mount(DMux(fmt.Sprintf("in=in[%d], sel=sel, a=a[%d], b=b[%d]", i, i, i))); err != nil {
					return err
				}
			}
			return nil
		}}
}

var mux16 = MuxN(16)

// Mux16 returns a 16-bits Mux.
//
func Mux16(w string) bb.Part { return mux16.Wire(w) }

// wayNames returns the bus names of an m-way mux: a, b, c...
func wayNames(ways int) []string {
	if ways < 2 || ways > 26 || ways&(ways-1) != 0 {
		panic("invalid number of ways " + strconv.Itoa(ways))
	}
	n := make([]string, ways)
	for i := range n {
		n[i] = string(rune('a' + i))
	}
	return n
}

func selBits(ways int) int { return bits.TrailingZeros(uint(ways)) }

// MuxMWayN returns a PartSpec for a M-Way N-bits Mux. M must be a power of
// two, at least 2.
//
//	Inputs: a[bits], b[bits], c[bits], ..., sel[log2(ways)]
//	Outputs: out[bits]
//	Function: out = input[sel]
//
func MuxMWayN(ways, n int) *bb.PartSpec {
	names := wayNames(ways)
	sb := selBits(ways)
	return &bb.PartSpec{
		Name:    "MUX" + strconv.Itoa(ways) + "WAY" + strconv.Itoa(n),
		Inputs:  append(bus(n, names...), bus(sb, pSel)...),
		Outputs: bus(n, pOut),
		Mount: func(b *bb.Board) error {
			m := MuxN(n)
			last := n - 1
			level := names
			for s := 0; s < sb; s++ {
				next := make([]string, len(level)/2)
				for i := range next {
					if len(next) == 1 {
						next[i] = pOut
					} else {
						next[i] = "m" + strconv.Itoa(s) + "_" + strconv.Itoa(i)
					}
					c := fmt.Sprintf("a[0..%d]=%s[0..%d], b[0..%d]=%s[0..%d], sel=sel[%d], out[0..%d]=%s[0..%d]",
						last, level[2*i], last, last, level[2*i+1], last, s, last, next[i], last)
					if err := b.Mount(m.Wire(c)); err != nil {
						return err
					}
				}
				level = next
			}
			return nil
		}}
}

// DMuxNWay returns a PartSpec for a N-Way DMux. N must be a power of two, at
// least 2.
//
//	Inputs: in, sel[log2(ways)]
//	Outputs: a, b, c, ...
//	Function: output[sel] = in, all other outputs are 0.
//
func DMuxNWay(ways int) *bb.PartSpec {
	return dmuxTree(ways, 1, "DMUX"+strconv.Itoa(ways)+"WAY")
}

// DMuxMWayN returns a PartSpec for a M-Way N-bits DMux.
//
//	Inputs: in[bits], sel[log2(ways)]
//	Outputs: a[bits], b[bits], c[bits], ...
//	Function: output[sel] = in, all other outputs are 0.
//
func DMuxMWayN(ways, n int) *bb.PartSpec {
	return dmuxTree(ways, n, "DMUX"+strconv.Itoa(ways)+"WAY"+strconv.Itoa(n))
}

func dmuxTree(ways, n int, name string) *bb.PartSpec {
	names := wayNames(ways)
	sb := selBits(ways)
	ins, outs := []string{pIn}, names
	if n > 1 {
		ins, outs = bus(n, pIn), bus(n, names...)
	}
	return &bb.PartSpec{
		Name:    name,
		Inputs:  append(ins, bus(sb, pSel)...),
		Outputs: outs,
		Mount: func(b *bb.Board) error {
			d := DMuxN(n)
			last := n - 1
			r := func(name string) string {
				if n == 1 {
					return name
				}
				return name + "[0.." + strconv.Itoa(last) + "]"
			}
			level := []string{pIn}
			for s := sb - 1; s >= 0; s-- {
				next := make([]string, 2*len(level))
				for i := range next {
					if s == 0 {
						next[i] = names[i]
					} else {
						next[i] = "d" + strconv.Itoa(s) + "_" + strconv.Itoa(i)
					}
				}
				for i, src := range level {
					var c string
					if n == 1 {
						c = fmt.Sprintf("in[0]=%s, sel=sel[%d], a[0]=%s, b[0]=%s", src, s, next[2*i], next[2*i+1])
					} else {
						c = fmt.Sprintf("in[0..%d]=%s, sel=sel[%d], a[0..%d]=%s, b[0..%d]=%s", last, r(src), s, last, r(next[2*i]), last, r(next[2*i+1]))
					}
					if err := b.Mount(d.Wire(c)); err != nil {
						return err
					}
				}
				level = next
			}
			return nil
		}}
}
