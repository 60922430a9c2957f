// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wave

import (
	"io"
	"strconv"

	bb "github.com/db47h/breadboard"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/pkg/errors"
)

var legend = opts.Legend{
	Type:   "scroll",
	Orient: "vertical",
	Right:  "10",
	Top:    "20",
	Bottom: "20",
}

// WriteHTML writes an HTML page showing the traces as step lines and, if g
// is not nil, the netlist of g as a graph of components and nets.
//
func WriteHTML(w io.Writer, title string, g *bb.Graph, ts []Trace) error {
	if err := checkTraces(ts); err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = title
	if g != nil {
		page.AddCharts(netlist(g))
	}
	page.AddCharts(lines(title, ts))
	return errors.Wrap(page.Render(w), "render html")
}

func lines(title string, ts []Trace) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "net levels per step"}),
		charts.WithLegendOpts(legend),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Show: opts.Bool(false)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", XAxisIndex: []int{0}}),
	)
	steps := 0
	for _, t := range ts {
		if len(t.Levels) > steps {
			steps = len(t.Levels)
		}
	}
	xs := make([]int, steps)
	for i := range xs {
		xs[i] = i
	}
	line.SetXAxis(xs)
	for i, t := range ts {
		base := float64(len(ts)-1-i) * laneHeight
		data := make([]opts.LineData, len(t.Levels))
		for j, l := range t.Levels {
			data[j] = opts.LineData{Value: base + y(l), Name: l.String()}
		}
		line.AddSeries(t.Name, data, charts.WithLineChartOpts(opts.LineChart{Step: "end"}))
	}
	return line
}

func netlist(g *bb.Graph) *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "netlist", Subtitle: "components and the nets joining them"}),
		charts.WithLegendOpts(legend),
	)
	var (
		nodes []opts.GraphNode
		links []opts.GraphLink
	)
	for _, id := range g.Nets() {
		nodes = append(nodes, opts.GraphNode{
			Name:     NetName(g, id),
			Category: 1,
			Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
		})
	}
	for _, id := range g.Components() {
		c, _ := g.Component(id)
		name := c.Kind().String() + " " + strconv.Itoa(int(id))
		if c.Name() != "" {
			name += " " + c.Name()
		}
		nodes = append(nodes, opts.GraphNode{
			Name:     name,
			Category: 0,
			Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
		})
		pins := c.Kind().Pins()
		for t := 0; t < c.Terminals(); t++ {
			n := c.Net(t)
			if n == bb.NoNet {
				continue
			}
			src, dst := name, NetName(g, n)
			if pins[t].Dir == bb.In {
				src, dst = dst, src
			}
			links = append(links, opts.GraphLink{Source: src, Target: dst})
		}
	}
	graph.AddSeries("netlist", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Categories: []*opts.GraphCategory{
				{Name: "component", ItemStyle: &opts.ItemStyle{Color: "#c71979b7"}},
				{Name: "net", ItemStyle: &opts.ItemStyle{Color: "#1987c7b7"}},
			},
			Roam:               opts.Bool(true),
			Force:              &opts.GraphForce{Repulsion: 80},
			FocusNodeAdjacency: opts.Bool(true),
		}),
	)
	return graph
}
