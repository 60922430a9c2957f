// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/partlib"
	"github.com/db47h/breadboard/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Load a circuit file and verify its netlist without simulating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.load(args[0])
			if err != nil {
				return err
			}
			if err := c.Graph.Check(); err != nil {
				return errors.Wrap(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d components, %d nets\n",
				c.Name, len(c.Graph.Components()), len(c.Graph.Nets()))
			return nil
		},
	}
}

func newKindsCmd(a *app) *cobra.Command {
	var parts bool
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the primitive component kinds and their pins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tINPUTS\tOUTPUTS")
			for _, k := range bb.Kinds() {
				var ins, outs []string
				for _, p := range k.Pins() {
					if p.Dir == bb.In {
						ins = append(ins, p.Name)
					} else {
						outs = append(outs, p.Name)
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k, strings.Join(ins, ", "), strings.Join(outs, ", "))
			}
			if parts {
				fmt.Fprintln(tw, "\nPART\tINPUTS\tOUTPUTS")
				for _, name := range partlib.Names() {
					p, ok := partlib.Lookup(name)
					if !ok {
						// sized part pattern
						fmt.Fprintf(tw, "%s\t-\t-\n", name)
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", name, strings.Join(p.Inputs, ", "), strings.Join(p.Outputs, ", "))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&parts, "parts", false, "also list the parts of the part library")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history DB [RUN]",
		Short: "List recorded runs, or the recorded steps of one run",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return errors.Wrap(err, "open database")
			}
			st, err := record.Open(args[0], record.Logger(a.log))
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if len(args) == 1 {
				runs, err := st.Runs(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "RUN\tNAME\tSTARTED\tSTEPS\tFAULTS")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.Name, r.Started.Format("2006-01-02 15:04:05"), r.Steps, r.Faults)
				}
				return tw.Flush()
			}

			recs, err := st.Snapshots(ctx, args[1])
			if err != nil {
				return err
			}
			fs, err := st.Faults(ctx, args[1])
			if err != nil {
				return err
			}
			if len(recs) == 0 && len(fs) == 0 {
				if _, err := st.Run(ctx, args[1]); err != nil {
					return err
				}
			}
			fmt.Fprintln(tw, "STEP\tPASSES\tNETS")
			for _, r := range recs {
				names := make([]string, 0, len(r.Values))
				for n := range r.Values {
					names = append(names, n)
				}
				sort.Strings(names)
				var sb strings.Builder
				for i, n := range names {
					if i > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(n + "=" + r.Values[n].String())
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\n", r.Step, r.Passes, sb.String())
			}
			for _, f := range fs {
				fmt.Fprintf(tw, "%d\tfault\t%s\n", f.Step, f.Message)
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	var initFile bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration, or write the default one with --init",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if initFile {
				if _, err := os.Stat(a.cfgPath); err == nil {
					return errors.Errorf("%s already exists", a.cfgPath)
				}
				if err := a.cfg.Save(a.cfgPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", a.cfgPath)
				return nil
			}
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "# %s\n%s", a.cfgPath, data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&initFile, "init", false, "write the configuration file if it does not exist")
	return cmd
}
