// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bbtest_test

import (
	"testing"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/bbtest"
	"github.com/db47h/breadboard/partlib"
)

func TestComparePart(t *testing.T) {
	or, err := bb.Chip("custom_or", "a,b", "out",
		partlib.Nand("a=a, b=a, out=notA"),
		partlib.Nand("a=b, b=b, out=notB"),
		partlib.Nand("a=notA, b=notB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	bbtest.ComparePart(t, bb.KindPart(bb.Or), or)
}

func TestTruthTable(t *testing.T) {
	bbtest.TruthTable(t, bb.KindPart(bb.Xnor), [][]bool{{true, false, false, true}})
}

func TestHarness_Eval(t *testing.T) {
	h := bbtest.New(t, bb.KindPart(bb.And))
	if out := h.Eval(true, true); !out[0] {
		t.Error("1 and 1 = 0")
	}
	if out := h.Eval(true, false); out[0] {
		t.Error("1 and 0 = 1")
	}
	if h.Sim.Time() != 2 {
		t.Errorf("%d steps recorded, expected 2", h.Sim.Time())
	}
}
