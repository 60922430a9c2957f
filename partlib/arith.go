// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package partlib

import (
	"fmt"
	"strconv"

	bb "github.com/db47h/breadboard"
)

var hAdder = &bb.PartSpec{
	Name:    "HALFADDER",
	Inputs:  []string{pA, pB},
	Outputs: []string{"s", "c"},
	Mount: func(b *bb.Board) error {
		return place(b,
			placement{bb.Xor, "a=a, b=b, out=s"},
			placement{bb.And, "a=a, b=b, out=c"},
		)
	}}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(w string) bb.Part { return hAdder.Wire(w) }

var adder = &bb.PartSpec{
	Name:    "FULLADDER",
	Inputs:  []string{pA, pB, "cin"},
	Outputs: []string{"s", "cout"},
	Mount: func(b *bb.Board) error {
		return b.Mount(
			HalfAdder("a=a, b=b, s=s0, c=c0"),
			HalfAdder("a=s0, b=cin, s=s, c=c1"),
			Or("a=c0, b=c1, out=cout"),
		)
	}}

// FullAdder returns a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(w string) bb.Part { return adder.Wire(w) }

// AdderN returns a N-bits ripple carry adder.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//
func AdderN(bits int) *bb.PartSpec {
	return &bb.PartSpec{
		Name:    "ADDER" + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: append(bus(bits, pOut), "c"),
		Mount: func(b *bb.Board) error {
			carry := "c"
			if bits > 1 {
				carry = "c0"
			}
			if err := b.Mount(HalfAdder("a=a[0], b=b[0], s=out[0], c=" + carry)); err != nil {
				return err
			}
			for i := 1; i < bits; i++ {
				cout := "c"
				if i < bits-1 {
					cout = "c" + strconv.Itoa(i)
				}
				conns := fmt.Sprintf("a=a[%d], b=b[%d], cin=%s, s=out[%d], cout=%s", i, i, carry, i, cout)
				if err := b.Mount(FullAdder(conns)); err != nil {
					return err
				}
				carry = cout
			}
			return nil
		}}
}
