// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Constant net names. A pin connected to one of these names is connected to
// a net driven by a constant SOURCE.
//
const (
	True  = "true"
	False = "false"
	GND   = False
)

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec whose Mount function
// places components on the board it is given. Within Mount, pin names of the
// part resolve to the nets the part is connected to, and any other name
// resolves to a net private to this instance of the part:
//
//	notSpec := &breadboard.PartSpec{
//		Name:    "MyNot",
//		Inputs:  []string{"in"},
//		Outputs: []string{"out"},
//		Mount: func(b *breadboard.Board) error {
//			_, err := b.Place(breadboard.Nand, "a=in, b=in, out=out")
//			return err
//		}}
//
type PartSpec struct {
	Name    string
	Inputs  []string
	Outputs []string
	Mount   func(b *Board) error
}

// Wire returns a Part connecting the pins of p as described by conns. See
// Board.Mount for the syntax.
//
func (p *PartSpec) Wire(conns string) Part { return Part{p, conns} }

func (p *PartSpec) pinDir(name string) (Dir, bool) {
	for _, n := range p.Inputs {
		if n == name {
			return In, true
		}
	}
	for _, n := range p.Outputs {
		if n == name {
			return Out, true
		}
	}
	return In, false
}

// A Part wraps a part specification together with its connections within a
// host board.
//
type Part struct {
	Spec  *PartSpec
	Conns string
}

// KindPart returns a PartSpec placing a single component of kind k. Its pins
// are the pin names of k.
//
func KindPart(k Kind) *PartSpec {
	p := &PartSpec{Name: k.String()}
	for _, pin := range k.Pins() {
		if pin.Dir == In {
			p.Inputs = append(p.Inputs, pin.Name)
		} else {
			p.Outputs = append(p.Outputs, pin.Name)
		}
	}
	p.Mount = func(b *Board) error {
		pins := k.Pins()
		nets := make([]NetID, len(pins))
		for i, pin := range pins {
			nets[i] = b.Net(pin.Name)
		}
		_, err := b.g.Place(k, nets...)
		return err
	}
	return p
}

// A Board maps net names to the nets of a Graph. It is the construction API
// used by parts and circuit descriptions: components are placed by naming
// the nets their pins connect to.
//
// Each mounted part gets its own sub-board where the part's pin names map to
// the nets it is connected to in its host and any other name maps to a net
// private to that instance.
//
type Board struct {
	g      *Graph
	root   *Board
	prefix string
	m      map[string]NetID // sub-boards only
	seq    int              // root only: part instance counter
}

// NewBoard returns a board placing components on g. Named nets of the root
// board are the named nets of g.
//
func NewBoard(g *Graph) *Board {
	b := &Board{g: g}
	b.root = b
	return b
}

// Graph returns the underlying graph.
//
func (b *Board) Graph() *Graph { return b.g }

// Net returns the net with the given name, creating it if needed. The names
// True and False always refer to the board's constant nets.
//
func (b *Board) Net(name string) NetID {
	switch name {
	case True:
		return b.root.constant(True, High)
	case False:
		return b.root.constant(False, Low)
	}
	if b.m == nil {
		return b.g.NamedNet(name)
	}
	id, ok := b.m[name]
	if !ok {
		id = b.g.NamedNet(b.prefix + "/" + name)
		b.m[name] = id
	}
	return id
}

// Lookup returns the net with the given name, if it exists.
//
func (b *Board) Lookup(name string) (NetID, bool) {
	if b.m == nil {
		return b.g.NetByName(name)
	}
	id, ok := b.m[name]
	return id, ok
}

// Bus returns the nets of the named bus, creating them if needed.
//
func (b *Board) Bus(name string, width int) []NetID {
	ids := make([]NetID, width)
	for i := range ids {
		ids[i] = b.Net(BusPinName(name, i))
	}
	return ids
}

func (b *Board) constant(name string, l Level) NetID {
	if id, ok := b.g.NetByName(name); ok {
		return id
	}
	id := b.g.NamedNet(name)
	if _, err := b.g.PlaceSpec(ComponentSpec{Kind: Source, Name: name, Level: l}, id); err != nil {
		panic(err) // only fails on a busy graph
	}
	return id
}

// Place places a component of the given kind and connects its pins as
// described by conns (see ParseConnections):
//
//	b.Place(breadboard.And, "a=x, b=y, out=z")
//
// Pins not listed stay unconnected.
//
func (b *Board) Place(kind Kind, conns string) (ComponentID, error) {
	return b.PlaceSpec(ComponentSpec{Kind: kind}, conns)
}

// PlaceSpec is like Place for a full ComponentSpec.
//
func (b *Board) PlaceSpec(spec ComponentSpec, conns string) (ComponentID, error) {
	cs, err := ParseConnections(conns)
	if err != nil {
		return NoComponent, err
	}
	// validate everything before creating any net
	if _, err := newComponent(spec); err != nil {
		return NoComponent, err
	}
	if err := b.g.checkBusy(); err != nil {
		return NoComponent, err
	}
	idx := make([]int, len(cs))
	seen := make(map[int]bool, len(cs))
	for i, c := range cs {
		t, ok := spec.Kind.PinIndex(c.Pin)
		if !ok {
			return NoComponent, errorf(TerminalOutOfRange, "no pin %q on %s", c.Pin, spec.Kind)
		}
		if seen[t] {
			return NoComponent, errors.Errorf("pin %q of %s connected twice", c.Pin, spec.Kind)
		}
		seen[t] = true
		idx[i] = t
	}
	nets := make([]NetID, spec.Kind.Arity())
	for i, c := range cs {
		nets[idx[i]] = b.Net(c.Net)
	}
	spec.Terminals = len(nets)
	return b.g.PlaceSpec(spec, nets...)
}

// Mount mounts parts on the board. The connections of each part are a comma
// separated list of pin=net pairs where pin is one of the part's input or
// output pins and net is a net name on this board. Unconnected inputs are
// connected to False.
//
// Mount either mounts all the parts or none: if a part fails to mount, the
// components and nets created by the call are removed and the graph is left
// as it was.
//
func (b *Board) Mount(parts ...Part) error {
	g := b.g
	nc, nn, rev, seq := len(g.comps), len(g.nets), g.rev, b.root.seq
	var m map[string]NetID
	if b.m != nil {
		m = make(map[string]NetID, len(b.m))
		for k, v := range b.m {
			m[k] = v
		}
	}
	for _, p := range parts {
		if err := b.mount(p); err != nil {
			if !g.busy {
				g.truncate(nc, nn, rev)
				b.root.seq = seq
				if m != nil {
					b.m = m
				}
			}
			name := "<nil>"
			if p.Spec != nil {
				name = p.Spec.Name
			}
			return errors.Wrapf(err, "mount %s", name)
		}
	}
	return nil
}

func (b *Board) mount(p Part) error {
	cs, err := checkConns(p)
	if err != nil {
		return err
	}
	b.root.seq++
	prefix := strings.ToLower(p.Spec.Name) + "#" + strconv.Itoa(b.root.seq)
	if b.prefix != "" {
		prefix = b.prefix + "/" + prefix
	}
	sub := &Board{g: b.g, root: b.root, prefix: prefix, m: make(map[string]NetID)}
	for _, c := range cs {
		sub.m[c.Pin] = b.Net(c.Net)
	}
	for _, in := range p.Spec.Inputs {
		if _, ok := sub.m[in]; !ok {
			sub.m[in] = b.Net(False)
		}
	}
	if p.Spec.Mount == nil {
		return errors.New("part has no mount function")
	}
	return p.Spec.Mount(sub)
}

func checkConns(p Part) ([]Connection, error) {
	if p.Spec == nil {
		return nil, errors.New("nil part spec")
	}
	cs, err := ParseConnections(p.Conns)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		if _, ok := p.Spec.pinDir(c.Pin); !ok {
			return nil, errors.Errorf("invalid pin name %s for part %s", c.Pin, p.Spec.Name)
		}
		if seen[c.Pin] {
			return nil, errors.Errorf("pin %s of part %s connected more than once", c.Pin, p.Spec.Name)
		}
		seen[c.Pin] = true
	}
	return cs, nil
}

// Chip composes existing parts into a new part. The pin names given as
// inputs and outputs (comma separated lists, see ParseNames) are the pins of
// the new part.
//
// An XOR gate can be built from NAND gates like this:
//
//	xor, err := breadboard.Chip("XOR", "a, b", "out",
//		nand.Wire("a=a, b=b, out=nandAB"),
//		nand.Wire("a=a, b=nandAB, out=w0"),
//		nand.Wire("a=b, b=nandAB, out=w1"),
//		nand.Wire("a=w0, b=w1, out=out"),
//	)
//
// Chip checks that every chip output and every internal net read by a part
// is driven by the output of some part.
//
func Chip(name string, inputs, outputs string, parts ...Part) (*PartSpec, error) {
	ins, err := ParseNames(inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "chip %s inputs", name)
	}
	outs, err := ParseNames(outputs)
	if err != nil {
		return nil, errors.Wrapf(err, "chip %s outputs", name)
	}

	driven := map[string]bool{True: true, False: true}
	isInput := make(map[string]bool, len(ins))
	for _, in := range ins {
		if driven[in] {
			return nil, errors.Errorf("chip %s: duplicate input %s", name, in)
		}
		driven[in] = true
		isInput[in] = true
	}
	conns := make([][]Connection, len(parts))
	for i, p := range parts {
		cs, err := checkConns(p)
		if err != nil {
			return nil, errors.Wrapf(err, "chip %s", name)
		}
		conns[i] = cs
		for _, c := range cs {
			if d, _ := p.Spec.pinDir(c.Pin); d != Out {
				continue
			}
			switch {
			case c.Net == True || c.Net == False:
				return nil, errors.Errorf("chip %s: %s.%s: output pin connected to constant %s", name, p.Spec.Name, c.Pin, c.Net)
			case isInput[c.Net]:
				return nil, errors.Errorf("chip %s: %s.%s: chip input %s used as output", name, p.Spec.Name, c.Pin, c.Net)
			case driven[c.Net]:
				return nil, errors.Errorf("chip %s: %s.%s: %s already driven by another output", name, p.Spec.Name, c.Pin, c.Net)
			}
			driven[c.Net] = true
		}
	}
	for _, o := range outs {
		if !driven[o] {
			return nil, errors.Errorf("chip %s: output %s not connected to any part output", name, o)
		}
	}
	for i, p := range parts {
		for _, c := range conns[i] {
			if d, _ := p.Spec.pinDir(c.Pin); d == In && !driven[c.Net] {
				return nil, errors.Errorf("chip %s: pin %s.%s reads %s which is not connected to any output", name, p.Spec.Name, c.Pin, c.Net)
			}
		}
	}

	ps := append([]Part(nil), parts...)
	return &PartSpec{
		Name:    name,
		Inputs:  ins,
		Outputs: outs,
		Mount:   func(b *Board) error { return b.Mount(ps...) },
	}, nil
}
