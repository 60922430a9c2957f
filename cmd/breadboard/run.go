// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/circuitfile"
	"github.com/db47h/breadboard/record"
	"github.com/db47h/breadboard/wave"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"
)

type runOptions struct {
	steps int
	set   []string
	db    string
	plot  string
	html  string
	json  bool
}

func newRunCmd(a *app) *cobra.Command {
	var ro runOptions
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Simulate a circuit file",
		Long: `Simulate a circuit file.

The steps listed in the file are run in order, followed by empty steps up to
--steps. Input changes given with --set apply to the first step. The levels
of the circuit's nets are printed when done.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), args[0], &ro)
		},
	}
	f := cmd.Flags()
	f.IntVar(&ro.steps, "steps", 0, "minimum number of steps (default from configuration)")
	f.StringArrayVar(&ro.set, "set", nil, "input change `net=level` applied on the first step (repeatable)")
	f.StringVar(&ro.db, "db", "", "record the run in this SQLite database")
	f.StringVar(&ro.plot, "plot", "", "write a waveform image to this file (png, svg, pdf...)")
	f.StringVar(&ro.html, "html", "", "write an HTML waveform page to this file")
	f.BoolVar(&ro.json, "json", false, "print the history as JSON")
	return cmd
}

func (a *app) load(path string) (*circuitfile.File, *circuitfile.Circuit, error) {
	f, err := circuitfile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := a.cfg.DefaultResolution()
	if err != nil {
		return nil, nil, err
	}
	c, err := f.Build(circuitfile.DefaultResolution(res))
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, c, nil
}

func (a *app) run(ctx context.Context, w io.Writer, path string, ro *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, c, err := a.load(path)
	if err != nil {
		return err
	}
	steps, err := a.steps(c, ro)
	if err != nil {
		return err
	}
	s := a.simulator(c.Graph)

	db := ro.db
	if db == "" {
		db = a.cfg.Output.Database
	}
	var run *record.Run
	if db != "" {
		st, err := record.Open(db, record.Logger(a.log))
		if err != nil {
			return err
		}
		defer st.Close()
		if run, err = st.BeginRun(ctx, c.Name, c.Graph); err != nil {
			return err
		}
		s.AddHook(run.Hook())
		a.log.Info("recording run", zap.String("db", db), zap.String("run", run.ID))
	}

	var stepErr error
	for i, ch := range steps {
		if _, err := s.Step(ch); err != nil {
			stepErr = errors.Wrapf(err, "step %d", i)
			break
		}
	}
	a.log.Debug("simulation done", zap.String("circuit", c.Name), zap.Int("steps", s.Time()))

	if err := a.report(w, c, s, ro); err != nil {
		return err
	}
	if run != nil && run.Err() != nil {
		return errors.Wrap(run.Err(), "record run")
	}
	return stepErr
}

// steps returns the input changes of each step to run.
//
func (a *app) steps(c *circuitfile.Circuit, ro *runOptions) ([]map[bb.NetID]bb.Level, error) {
	steps := c.Steps
	n := ro.steps
	if n <= 0 {
		n = a.cfg.Simulation.Steps
	}
	for len(steps) < n {
		steps = append(steps, nil)
	}
	if len(ro.set) == 0 {
		return steps, nil
	}
	if len(steps) == 0 {
		steps = append(steps, nil)
	}
	first := make(map[bb.NetID]bb.Level)
	for id, l := range steps[0] {
		first[id] = l
	}
	for _, s := range ro.set {
		cs, err := bb.ParseConnections(s)
		if err != nil {
			return nil, errors.Wrapf(err, "--set %s", s)
		}
		for _, cn := range cs {
			id, ok := c.Board.Lookup(cn.Pin)
			if !ok {
				return nil, errors.Errorf("--set %s: unknown net %s", s, cn.Pin)
			}
			l, err := bb.ParseLevel(cn.Net)
			if err != nil {
				return nil, errors.Wrapf(err, "--set %s", s)
			}
			first[id] = l
		}
	}
	steps = append([]map[bb.NetID]bb.Level{first}, steps[1:]...)
	return steps, nil
}

type stepJSON struct {
	Step   int                 `json:"step"`
	Passes int                 `json:"passes"`
	Nets   map[string]bb.Level `json:"nets"`
}

func (a *app) report(w io.Writer, c *circuitfile.Circuit, s *bb.Simulator, ro *runOptions) error {
	ts := wave.Series(c.Graph, s.History())
	if ro.json || a.cfg.Output.Format == "json" {
		var out []stepJSON
		for _, snap := range s.History().All() {
			sj := stepJSON{Step: snap.Step, Passes: snap.Passes, Nets: make(map[string]bb.Level)}
			for _, t := range ts {
				sj.Nets[t.Name] = snap.Level(t.Net)
			}
			out = append(out, sj)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, "encode history")
		}
	} else if err := writeTable(w, ts, s.Status()); err != nil {
		return err
	}

	if len(ts) == 0 {
		return nil
	}
	if ro.plot != "" {
		format := strings.TrimPrefix(filepath.Ext(ro.plot), ".")
		err := writeFile(ro.plot, func(w io.Writer) error {
			return wave.WritePlot(w, ts, wave.PlotOptions{
				Title:  c.Name,
				Width:  vg.Length(a.cfg.Output.PlotWidth) * vg.Centimeter,
				Lane:   vg.Length(a.cfg.Output.PlotHeight) * vg.Centimeter,
				Format: format,
			})
		})
		if err != nil {
			return err
		}
	}
	if ro.html != "" {
		return writeFile(ro.html, func(w io.Writer) error {
			return wave.WriteHTML(w, c.Name, c.Graph, ts)
		})
	}
	return nil
}

// writeTable prints one line per trace: net name, final level and the level
// at every step.
//
func writeTable(w io.Writer, ts []wave.Trace, st bb.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NET\tLEVEL\tHISTORY")
	for _, t := range ts {
		var sb strings.Builder
		last := bb.Z
		for _, l := range t.Levels {
			sb.WriteString(l.String())
			last = l
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, last, sb.String())
	}
	fmt.Fprintf(tw, "\nstatus: %s\n", st)
	return errors.Wrap(tw.Flush(), "write table")
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := fn(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "write %s", path)
}
