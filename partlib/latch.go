// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package partlib

import bb "github.com/db47h/breadboard"

var srLatch = &bb.PartSpec{
	Name:    "SRLATCH",
	Inputs:  []string{"s", "r"},
	Outputs: []string{"q", "qn"},
	Mount: func(b *bb.Board) error {
		return place(b,
			placement{bb.Nor, "a=r, b=qn, out=q"},
			placement{bb.Nor, "a=s, b=q, out=qn"},
		)
	}}

// SRLatch returns a set-reset latch made of two cross-coupled NOR gates.
//
//	Inputs: s, r
//	Outputs: q, qn
//	Function: s=1: q = 1; r=1: q = 0; s=r=0: q holds; qn = !q
//
// The latch has no defined state until s or r has been asserted: settling it
// with both inputs low from power-up oscillates. Asserting s and r together
// drives both outputs low.
//
func SRLatch(w string) bb.Part { return srLatch.Wire(w) }
