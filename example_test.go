// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard_test

import (
	"fmt"

	bb "github.com/db47h/breadboard"
	"github.com/pkg/errors"
)

func Example() {
	g := bb.NewGraph()
	b := bb.NewBoard(g)

	xor, err := bb.Chip("XOR", "a, b", "out",
		nand.Wire("a=a, b=b, out=nandAB"),
		nand.Wire("a=a, b=nandAB, out=w0"),
		nand.Wire("a=b, b=nandAB, out=w1"),
		nand.Wire("a=w0, b=w1, out=out"),
	)
	if err != nil {
		panic(err)
	}
	b.PlaceSpec(bb.ComponentSpec{Kind: bb.Source, Name: "a"}, "out=a")
	b.PlaceSpec(bb.ComponentSpec{Kind: bb.Source, Name: "b"}, "out=b")
	if err = b.Mount(xor.Wire("a=a, b=b, out=y")); err != nil {
		panic(err)
	}
	a, _ := b.Lookup("a")
	bn, _ := b.Lookup("b")
	y, _ := b.Lookup("y")

	s := bb.NewSimulator(g)
	for _, in := range [][2]bool{{false, false}, {false, true}, {true, false}, {true, true}} {
		snap, err := s.Step(map[bb.NetID]bb.Level{a: bb.LevelOf(in[0]), bn: bb.LevelOf(in[1])})
		if err != nil {
			panic(err)
		}
		fmt.Printf("%v xor %v = %v\n", snap.Level(a), snap.Level(bn), snap.Level(y))
	}

	// Output:
	// 0 xor 0 = 0
	// 0 xor 1 = 1
	// 1 xor 0 = 1
	// 1 xor 1 = 0
}

func ExampleSimulator_Step_unstable() {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	b.Place(bb.Not, "in=loop, out=loop")

	s := bb.NewSimulator(g, bb.MaxPasses(100))
	_, err := s.Step(nil)
	var e *bb.Error
	if errors.As(err, &e) {
		fmt.Println(e.Code, e.Passes, s.Status())
	}

	// Output:
	// unstable circuit 100 faulted
}
