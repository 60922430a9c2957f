// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wave renders the history of a simulation as waveforms.
//
// Series extracts one trace per net from a history. Traces are then drawn
// either as an image with WritePlot (png, svg, pdf...) or as an interactive
// HTML page with WriteHTML.
//
package wave

import (
	"strconv"
	"strings"

	bb "github.com/db47h/breadboard"
	"github.com/pkg/errors"
)

// A Trace is the level of a net over consecutive steps.
//
type Trace struct {
	Net    bb.NetID
	Name   string
	Levels []bb.Level
}

// Series extracts the traces of the given nets from the snapshots of h. If
// no net is given, all named nets are traced except constants and nets
// private to mounted parts.
//
func Series(g *bb.Graph, h *bb.History, nets ...bb.NetID) []Trace {
	if len(nets) == 0 {
		for _, id := range g.Nets() {
			n, _ := g.Net(id)
			if name := n.Name(); name != "" && name != bb.True && name != bb.False && !strings.Contains(name, "/") {
				nets = append(nets, id)
			}
		}
	}
	snaps := h.All()
	ts := make([]Trace, 0, len(nets))
	for _, id := range nets {
		t := Trace{Net: id, Name: NetName(g, id), Levels: make([]bb.Level, len(snaps))}
		for i, s := range snaps {
			t.Levels[i] = s.Level(id)
		}
		ts = append(ts, t)
	}
	return ts
}

// NetName returns the name of a net, or its id prefixed with '#' if it has
// none.
//
func NetName(g *bb.Graph, id bb.NetID) string {
	if n, ok := g.Net(id); ok && n.Name() != "" {
		return n.Name()
	}
	return "#" + strconv.Itoa(int(id))
}

// y returns the plotting height of a level within a lane of height 1.
//
func y(l bb.Level) float64 {
	switch l {
	case bb.Low:
		return 0
	case bb.High:
		return 1
	}
	return 0.5
}

func checkTraces(ts []Trace) error {
	if len(ts) == 0 {
		return errors.New("no trace to render")
	}
	return nil
}

// laneHeight is the vertical distance between the base lines of two traces.
//
const laneHeight = 1.5
