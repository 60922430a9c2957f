// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const debounce = 100 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var ro runOptions
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Simulate a circuit file again every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx, cmd.OutOrStdout(), args[0], &ro)
		},
	}
	f := cmd.Flags()
	f.IntVar(&ro.steps, "steps", 0, "minimum number of steps (default from configuration)")
	f.StringArrayVar(&ro.set, "set", nil, "input change `net=level` applied on the first step (repeatable)")
	f.StringVar(&ro.plot, "plot", "", "write a waveform image to this file on every run")
	f.StringVar(&ro.html, "html", "", "write an HTML waveform page to this file on every run")
	f.BoolVar(&ro.json, "json", false, "print the history as JSON")
	return cmd
}

func (a *app) watch(ctx context.Context, out io.Writer, path string, ro *runOptions) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watch")
	}
	defer w.Close()
	// watch the directory: editors often replace the file instead of writing it
	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "watch")
	}
	a.log.Info("watching", zap.String("file", path))

	rerun := func() {
		fmt.Fprintf(out, "--- %s\n", path)
		if err := a.run(ctx, out, path, ro); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	rerun()
	err = watchLoop(ctx, path, w.Events, w.Errors, debounce, rerun, a.log)
	if err == context.Canceled {
		return nil
	}
	return err
}

// watchLoop calls onChange once events for path have stopped for the
// debounce delay. It returns when ctx is done or when the event channel is
// closed. onChange runs on the calling goroutine.
//
func watchLoop(ctx context.Context, path string, events <-chan fsnotify.Event, errs <-chan error, delay time.Duration, onChange func(), log *zap.Logger) error {
	name := filepath.Clean(path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-fire:
			fire = nil
			log.Debug("file changed", zap.String("file", path))
			onChange()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
