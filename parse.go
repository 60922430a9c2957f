// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"strconv"
	"strings"

	"github.com/db47h/breadboard/internal/hdl"
	"github.com/pkg/errors"
)

// MaxBusWidth is the maximum number of pins in a bus declaration or range.
//
const MaxBusWidth = 64

// BusPinName returns the name of pin i of the named bus.
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}

// A Connection connects a pin of a part or component to a net of its host
// board.
//
type Connection struct {
	Pin string
	Net string
}

// ParseConnections parses a connection description and expands bus ranges.
// The syntax is a comma separated list of pin=net pairs:
//
//	a=x, b=y, out=z
//
// Bus ranges are expanded into individual connections. Both sides must have
// the same width unless the right side is a single net:
//
//	in[0..1]=bus[2..3]   // in[0]=bus[2], in[1]=bus[3]
//	in[0..3]=false       // all four pins connected to false
//
func ParseConnections(conns string) ([]Connection, error) {
	cs, err := hdl.ParseConnections(conns)
	if err != nil {
		return nil, err
	}
	var out []Connection
	for _, c := range cs {
		pins, err := expandRange(c.Pin)
		if err != nil {
			return nil, errors.Wrapf(err, "pin %s", c.Pin)
		}
		nets, err := expandRange(c.Net)
		if err != nil {
			return nil, errors.Wrapf(err, "net %s", c.Net)
		}
		switch {
		case len(pins) == len(nets):
			for i := range pins {
				out = append(out, Connection{pins[i], nets[i]})
			}
		case len(nets) == 1:
			for _, p := range pins {
				out = append(out, Connection{p, nets[0]})
			}
		default:
			return nil, errors.Errorf("width mismatch in %s=%s", c.Pin, c.Net)
		}
	}
	return out, nil
}

// ParseNames parses a comma separated list of pin names and expands bus
// declarations:
//
//	ParseNames("a, sel[2]") // []string{"a", "sel[0]", "sel[1]"}
//
func ParseNames(names string) ([]string, error) {
	ns, err := hdl.ParseNames(names)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range ns {
		i := strings.IndexByte(n, '[')
		if i < 0 {
			out = append(out, n)
			continue
		}
		bus := n[:i]
		if bus == "" || !strings.HasSuffix(n, "]") {
			return nil, errors.Errorf("invalid bus declaration %s", n)
		}
		w, err := strconv.Atoi(n[i+1 : len(n)-1])
		if err != nil || w <= 0 {
			return nil, errors.Errorf("invalid bus width in %s", n)
		}
		if w > MaxBusWidth {
			return nil, errors.Errorf("bus %s wider than %d pins", n, MaxBusWidth)
		}
		for j := 0; j < w; j++ {
			out = append(out, BusPinName(bus, j))
		}
	}
	return out, nil
}

// expandRange expands bus[a..b] into its individual pin names. Any other name
// is returned as is.
//
func expandRange(name string) ([]string, error) {
	i := strings.IndexByte(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	r := name[i+1:]
	if !strings.HasSuffix(r, "]") {
		return nil, errors.New("no terminating ] in bus range")
	}
	r = r[:len(r)-1]
	j := strings.Index(r, "..")
	if j < 0 {
		// single bus pin
		if _, err := strconv.Atoi(r); err != nil {
			return nil, errors.Errorf("invalid bus index %q", r)
		}
		return []string{name}, nil
	}
	start, err := strconv.Atoi(r[:j])
	if err != nil {
		return nil, errors.Wrap(err, "range start")
	}
	end, err := strconv.Atoi(r[j+2:])
	if err != nil {
		return nil, errors.Wrap(err, "range end")
	}
	if start < 0 || end < start {
		return nil, errors.Errorf("invalid bus range %d..%d", start, end)
	}
	if end-start >= MaxBusWidth {
		return nil, errors.Errorf("bus range %d..%d wider than %d pins", start, end, MaxBusWidth)
	}
	out := make([]string, 0, end-start+1)
	for k := start; k <= end; k++ {
		out = append(out, BusPinName(bus, k))
	}
	return out, nil
}
