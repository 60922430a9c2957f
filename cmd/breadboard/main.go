// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command breadboard loads, simulates and inspects circuit files.
//
package main

import (
	"fmt"
	"os"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by all commands.
//
type app struct {
	cfgPath   string
	verbose   bool
	maxPasses int

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "breadboard",
		Short: "Digital logic circuit simulator",
		Long: `breadboard simulates digital logic circuits described in YAML files.

Circuits are made of primitive components (wires, sources, gates, resistors,
clocks) and composite parts. Each simulation step applies input changes and
propagates signals until the circuit settles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "configuration file (default $"+config.EnvPath+" or the user configuration directory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging and detailed errors")
	root.PersistentFlags().IntVar(&a.maxPasses, "max-passes", 0, "maximum propagation passes per step (default from configuration)")

	root.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newCheckCmd(a),
		newKindsCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}

// init loads the configuration and builds the logger.
//
func (a *app) init() error {
	if a.cfgPath == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		a.cfgPath = p
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.log != nil {
		return nil
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	a.log, err = zc.Build()
	return errors.Wrap(err, "initialize logger")
}

// passes returns the iteration cap: the --max-passes flag, or the
// configured value.
//
func (a *app) passes() int {
	if a.maxPasses > 0 {
		return a.maxPasses
	}
	return a.cfg.Simulation.MaxPasses
}

func (a *app) simulator(g *bb.Graph) *bb.Simulator {
	return bb.NewSimulator(g, bb.MaxPasses(a.passes()), bb.Logger(a.log))
}

func main() {
	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		if a.verbose {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
