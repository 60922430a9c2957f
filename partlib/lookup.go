// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package partlib

import (
	"sort"
	"strconv"
	"strings"

	bb "github.com/db47h/breadboard"
)

var fixed = map[string]*bb.PartSpec{
	"MUX":       mux,
	"DMUX":      dmux,
	"HALFADDER": hAdder,
	"FULLADDER": adder,
	"SRLATCH":   srLatch,
}

// sized parts, selected by a numeric suffix: MUX16, ADDER8, AND4WAY...
var sized = []struct {
	prefix, suffix string
	fn             func(n int) *bb.PartSpec
}{
	{"NOT", "", NotN},
	{"AND", "", func(n int) *bb.PartSpec { return GateN(bb.And, n) }},
	{"NAND", "", func(n int) *bb.PartSpec { return GateN(bb.Nand, n) }},
	{"OR", "", func(n int) *bb.PartSpec { return GateN(bb.Or, n) }},
	{"NOR", "", func(n int) *bb.PartSpec { return GateN(bb.Nor, n) }},
	{"XOR", "", func(n int) *bb.PartSpec { return GateN(bb.Xor, n) }},
	{"XNOR", "", func(n int) *bb.PartSpec { return GateN(bb.Xnor, n) }},
	{"OR", "WAY", OrNWay},
	{"AND", "WAY", AndNWay},
	{"MUX", "", MuxN},
	{"DMUX", "", DMuxN},
	{"DMUX", "WAY", func(n int) *bb.PartSpec {
		if n < 2 || n&(n-1) != 0 {
			return nil
		}
		return DMuxNWay(n)
	}},
	{"ADDER", "", AdderN},
}

// Lookup returns the part with the given name. Names are case insensitive
// and match the Name of the returned PartSpec: primitive kinds (AND, NOT...),
// fixed parts (MUX, HALFADDER...) and sized parts whose width is given as a
// numeric suffix (MUX16, ADDER8, OR8WAY...).
//
func Lookup(name string) (*bb.PartSpec, bool) {
	name = strings.ToUpper(name)
	if k, err := bb.KindByName(name); err == nil {
		return bb.KindPart(k), true
	}
	if p, ok := fixed[name]; ok {
		return p, true
	}
	for _, s := range sized {
		if !strings.HasPrefix(name, s.prefix) || !strings.HasSuffix(name, s.suffix) {
			continue
		}
		digits := name[len(s.prefix) : len(name)-len(s.suffix)]
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || n > bb.MaxBusWidth || strconv.Itoa(n) != digits {
			continue
		}
		if p := s.fn(n); p != nil {
			return p, true
		}
	}
	return nil, false
}

// Names returns the names of the fixed parts and the name patterns of the
// sized parts, sorted.
//
func Names() []string {
	var ns []string
	for n := range fixed {
		ns = append(ns, n)
	}
	for _, s := range sized {
		ns = append(ns, s.prefix+"<n>"+s.suffix)
	}
	sort.Strings(ns)
	return ns
}
