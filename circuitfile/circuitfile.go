// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package circuitfile loads and writes circuit descriptions in YAML.
//
// A circuit file lists named nets with a non default resolution mode,
// primitive components, composite parts from partlib and the input changes
// of successive simulation steps:
//
//	name: inverter
//	nets:
//	  bus: {resolution: wired-or}
//	components:
//	  - {name: src, kind: source, level: high, pins: "out=a"}
//	  - {name: w, kind: wire, pins: [a, b]}
//	  - {name: inv, kind: not, pins: {in: b, out: y}}
//	parts:
//	  - {part: halfadder, pins: "a=a, b=y, s=s, c=c"}
//	steps:
//	  - {}
//	  - {a: low}
//
// Pins are given either as a positional list of net names (in pin order,
// inputs before outputs for parts), as a map of pin names to net names or as
// a connection string (see breadboard.ParseConnections).
//
package circuitfile

import (
	"bytes"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/partlib"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the document structure of a circuit file.
//
type File struct {
	Name       string             `yaml:"name,omitempty"`
	Nets       map[string]NetSpec `yaml:"nets,omitempty"`
	Components []Component        `yaml:"components,omitempty"`
	Parts      []PartRef          `yaml:"parts,omitempty"`
	Steps      []Step             `yaml:"steps,omitempty"`
}

// NetSpec holds the settings of a named net.
//
type NetSpec struct {
	Resolution string `yaml:"resolution,omitempty"`
}

// Component describes a primitive component.
//
type Component struct {
	Name   string    `yaml:"name,omitempty"`
	Kind   string    `yaml:"kind"`
	Level  *bb.Level `yaml:"level,omitempty"`  // SOURCE and CLOCK. Defaults to low.
	Ohms   float64   `yaml:"ohms,omitempty"`   // RESISTOR
	Period int       `yaml:"period,omitempty"` // CLOCK
	Pins   Pins      `yaml:"pins,omitempty"`
}

// PartRef places a partlib part.
//
type PartRef struct {
	Part string `yaml:"part"`
	Pins Pins   `yaml:"pins,omitempty"`
}

// Step maps net names to input levels.
//
type Step map[string]bb.Level

// Pins holds pin connections, either positional or by pin name.
//
type Pins struct {
	List  []string        // positional net names, "" for unconnected pins
	Conns []bb.Connection // named pins
}

// UnmarshalYAML implements yaml.Unmarshaler.
//
func (p *Pins) UnmarshalYAML(value *yaml.Node) error {
	*p = Pins{}
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&p.List)
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			k, v := value.Content[i], value.Content[i+1]
			if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
				return errors.Errorf("line %d: pin map entries must be scalars", k.Line)
			}
			cs, err := bb.ParseConnections(k.Value + "=" + v.Value)
			if err != nil {
				return errors.Wrapf(err, "line %d", k.Line)
			}
			p.Conns = append(p.Conns, cs...)
		}
		return nil
	case yaml.ScalarNode:
		cs, err := bb.ParseConnections(value.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", value.Line)
		}
		p.Conns = cs
		return nil
	}
	return errors.Errorf("line %d: pins must be a list, a map or a string", value.Line)
}

// MarshalYAML implements yaml.Marshaler. Named pins are written as a
// connection string.
//
func (p Pins) MarshalYAML() (interface{}, error) {
	if p.List != nil {
		return p.List, nil
	}
	return p.String(), nil
}

// IsZero reports whether no pin is connected.
//
func (p Pins) IsZero() bool { return len(p.List) == 0 && len(p.Conns) == 0 }

// String returns the connection string form of named pins.
//
func (p Pins) String() string {
	var sb strings.Builder
	for i, c := range p.Conns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Pin)
		sb.WriteByte('=')
		sb.WriteString(c.Net)
	}
	return sb.String()
}

// resolve returns a connection string for a component or part whose pins,
// in positional order, are names.
//
func (p Pins) resolve(names []string) (string, error) {
	if p.List == nil {
		return p.String(), nil
	}
	if len(p.List) > len(names) {
		return "", errors.Errorf("%d pins given, expected at most %d", len(p.List), len(names))
	}
	var named Pins
	for i, n := range p.List {
		if n != "" {
			named.Conns = append(named.Conns, bb.Connection{Pin: names[i], Net: n})
		}
	}
	return named.String(), nil
}

// Load reads and parses a circuit file.
//
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read circuit")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return f, nil
}

// Parse parses a circuit file. Unknown fields are rejected.
//
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, errors.WithStack(err)
	}
	return &f, nil
}

// Write writes f in YAML.
//
func Write(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "encode circuit")
	}
	return errors.Wrap(enc.Close(), "encode circuit")
}

// Save writes f to the named file.
//
func Save(path string, f *File) error {
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, buf.Bytes(), 0644), "write circuit")
}

// A Circuit is a circuit file built into a graph.
//
type Circuit struct {
	Name  string
	Graph *bb.Graph
	Board *bb.Board
	Steps []map[bb.NetID]bb.Level
}

// Option configures Build.
//
type Option func(o *options)

type options struct {
	res bb.Resolution
}

// DefaultResolution sets the resolution mode of nets not listed in the nets
// section.
//
func DefaultResolution(r bb.Resolution) Option {
	return func(o *options) { o.res = r }
}

// Build builds the graph described by f.
//
func (f *File) Build(opts ...Option) (*Circuit, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	g := bb.NewGraph()
	b := bb.NewBoard(g)

	for i, c := range f.Components {
		if err := placeComponent(b, &c); err != nil {
			return nil, errors.Wrapf(err, "component %d %s", i, c.Name)
		}
	}
	for i, p := range f.Parts {
		spec, ok := partlib.Lookup(p.Part)
		if !ok {
			return nil, errors.Errorf("part %d: unknown part %q", i, p.Part)
		}
		conns, err := p.Pins.resolve(append(append([]string(nil), spec.Inputs...), spec.Outputs...))
		if err != nil {
			return nil, errors.Wrapf(err, "part %d %s", i, p.Part)
		}
		if err := b.Mount(spec.Wire(conns)); err != nil {
			return nil, errors.Wrapf(err, "part %d", i)
		}
	}

	// resolution modes
	listed := make(map[bb.NetID]bool, len(f.Nets))
	for _, name := range sortedKeys(f.Nets) {
		r, err := bb.ParseResolution(f.Nets[name].Resolution)
		if err != nil {
			return nil, errors.Wrapf(err, "net %s", name)
		}
		id := b.Net(name)
		listed[id] = true
		if err := g.SetResolution(id, r); err != nil {
			return nil, errors.Wrapf(err, "net %s", name)
		}
	}
	if o.res != bb.Strict {
		for _, id := range g.Nets() {
			if !listed[id] {
				if err := g.SetResolution(id, o.res); err != nil {
					return nil, err
				}
			}
		}
	}

	ckt := &Circuit{Name: f.Name, Graph: g, Board: b}
	for i, s := range f.Steps {
		ch := make(map[bb.NetID]bb.Level, len(s))
		for name, l := range s {
			id, ok := b.Lookup(name)
			if !ok {
				return nil, errors.Errorf("step %d: unknown net %s", i, name)
			}
			ch[id] = l
		}
		ckt.Steps = append(ckt.Steps, ch)
	}
	return ckt, nil
}

func placeComponent(b *bb.Board, c *Component) error {
	k, err := bb.KindByName(c.Kind)
	if err != nil {
		return err
	}
	spec := bb.ComponentSpec{Kind: k, Name: c.Name, Ohms: c.Ohms, Period: c.Period, Level: bb.Low}
	if c.Level != nil {
		spec.Level = *c.Level
	}
	names := make([]string, 0, k.Arity())
	for _, p := range k.Pins() {
		names = append(names, p.Name)
	}
	conns, err := c.Pins.resolve(names)
	if err != nil {
		return err
	}
	_, err = b.PlaceSpec(spec, conns)
	return err
}

// FromGraph returns a circuit file describing g. Composite parts are written
// as the primitive components they are made of. Unnamed nets get generated
// names and the constant nets of a Board are left implicit.
//
func FromGraph(name string, g *bb.Graph) *File {
	f := &File{Name: name}
	names := netNames(g)
	for _, id := range g.Nets() {
		n, _ := g.Net(id)
		if n.Resolution() != bb.Strict {
			if f.Nets == nil {
				f.Nets = make(map[string]NetSpec)
			}
			f.Nets[names[id]] = NetSpec{Resolution: n.Resolution().String()}
		}
	}
	for _, id := range g.Components() {
		c, _ := g.Component(id)
		k := c.Kind()
		if k == bb.Source && isConstant(g, c) {
			continue
		}
		fc := Component{Name: c.Name(), Kind: strings.ToLower(k.String())}
		switch k {
		case bb.Source, bb.Clock:
			l := c.Declared()
			fc.Level = &l
			if k == bb.Clock && c.Period() != 1 {
				fc.Period = c.Period()
			}
		case bb.Resistor:
			if c.Ohms() != bb.DefaultOhms {
				fc.Ohms = c.Ohms()
			}
		}
		for t, p := range k.Pins() {
			if n := c.Net(t); n != bb.NoNet {
				fc.Pins.Conns = append(fc.Pins.Conns, bb.Connection{Pin: p.Name, Net: names[n]})
			}
		}
		f.Components = append(f.Components, fc)
	}
	return f
}

func isConstant(g *bb.Graph, c *bb.Component) bool {
	if c.Name() != bb.True && c.Name() != bb.False {
		return false
	}
	n, ok := g.Net(c.Net(0))
	return ok && n.Name() == c.Name()
}

func netNames(g *bb.Graph) map[bb.NetID]string {
	names := make(map[bb.NetID]string)
	used := make(map[string]bool)
	var anon []bb.NetID
	for _, id := range g.Nets() {
		n, _ := g.Net(id)
		if n.Name() == "" {
			anon = append(anon, id)
			continue
		}
		names[id] = n.Name()
		used[n.Name()] = true
	}
	for _, id := range anon {
		name := "_n" + strconv.Itoa(int(id))
		for used[name] {
			name = "_" + name
		}
		names[id] = name
		used[name] = true
	}
	return names
}

func sortedKeys(m map[string]NetSpec) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
