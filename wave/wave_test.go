// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wave_test

import (
	"bytes"
	"strings"
	"testing"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/wave"
	"github.com/google/go-cmp/cmp"
)

// clocked returns a simulator for a clock driving an inverter, run for 4
// steps.
//
func clocked(t *testing.T) (*bb.Simulator, bb.NetID, bb.NetID) {
	t.Helper()
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	if _, err := b.PlaceSpec(bb.ComponentSpec{Kind: bb.Clock, Level: bb.Low}, "out=clk"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Place(bb.Not, "in=clk, out=nclk"); err != nil {
		t.Fatal(err)
	}
	// q follows clk through the constant true net
	if _, err := b.Place(bb.And, "a=clk, b=true, out=q"); err != nil {
		t.Fatal(err)
	}
	s := bb.NewSimulator(g)
	if _, err := s.Run(4); err != nil {
		t.Fatal(err)
	}
	clk, _ := b.Lookup("clk")
	nclk, _ := b.Lookup("nclk")
	return s, clk, nclk
}

func TestSeries(t *testing.T) {
	s, clk, nclk := clocked(t)
	ts := wave.Series(s.Graph(), s.History(), clk, nclk)
	want := []wave.Trace{
		{Net: clk, Name: "clk", Levels: []bb.Level{bb.Low, bb.High, bb.Low, bb.High}},
		{Net: nclk, Name: "nclk", Levels: []bb.Level{bb.High, bb.Low, bb.High, bb.Low}},
	}
	if diff := cmp.Diff(want, ts); diff != "" {
		t.Errorf("traces mismatch (-want +got):\n%s", diff)
	}

	// all named nets, constants excluded
	var names []string
	for _, t := range wave.Series(s.Graph(), s.History()) {
		names = append(names, t.Name)
	}
	if diff := cmp.Diff([]string{"clk", "nclk", "q"}, names); diff != "" {
		t.Errorf("default nets mismatch (-want +got):\n%s", diff)
	}
}

func TestNetName(t *testing.T) {
	g := bb.NewGraph()
	n := g.NewNet()
	if name := wave.NetName(g, n); name != "#1" {
		t.Errorf("got %q", name)
	}
}

func TestWritePlot(t *testing.T) {
	s, clk, nclk := clocked(t)
	ts := wave.Series(s.Graph(), s.History(), clk, nclk)
	for _, format := range []string{"png", "svg"} {
		var buf bytes.Buffer
		if err := wave.WritePlot(&buf, ts, wave.PlotOptions{Title: "clock", Format: format}); err != nil {
			t.Fatal(err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty output", format)
		}
		if format == "svg" && !strings.Contains(buf.String(), "<svg") {
			t.Error("svg output has no svg element")
		}
	}
	if err := wave.WritePlot(&bytes.Buffer{}, ts, wave.PlotOptions{Format: "bmp"}); err == nil {
		t.Error("expected error for unsupported format")
	}
	if err := wave.WritePlot(&bytes.Buffer{}, nil, wave.PlotOptions{}); err == nil {
		t.Error("expected error for empty traces")
	}
}

func TestWriteHTML(t *testing.T) {
	s, clk, nclk := clocked(t)
	ts := wave.Series(s.Graph(), s.History(), clk, nclk)
	var buf bytes.Buffer
	if err := wave.WriteHTML(&buf, "clock", s.Graph(), ts); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"<html", "nclk", "netlist"} {
		if !strings.Contains(out, s) {
			t.Errorf("output does not contain %q", s)
		}
	}
}
