// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package record persists simulation runs in a SQLite database.
//
// A Run is attached to a Simulator as a hook: every settled step is stored
// with the values of all nets, faults are logged, and a reset or a rollback
// drops the steps it invalidates.
//
//	st, err := record.Open("runs.db")
//	...
//	run, err := st.BeginRun(ctx, "counter", g)
//	...
//	sim := breadboard.NewSimulator(g, breadboard.WithHook(run.Hook()))
//
package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bb "github.com/db47h/breadboard"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // database/sql driver
)

// Store is a run database.
//
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// An Option configures a Store.
//
type Option func(s *Store)

// Logger sets the logger used to report errors from hooks.
//
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens or creates the database at path.
//
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// a single connection keeps in-memory databases whole and serializes writes
	db.SetMaxOpenConns(1)
	s := &Store{db: db, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		components INTEGER NOT NULL,
		nets INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		passes INTEGER NOT NULL,
		state TEXT NOT NULL,
		PRIMARY KEY (run_id, step),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS faults (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		code TEXT NOT NULL,
		message TEXT NOT NULL,
		nets TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_faults_run ON faults(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
//
func (s *Store) Close() error { return s.db.Close() }

// RunInfo summarizes a recorded run.
//
type RunInfo struct {
	ID         string
	Name       string
	Started    time.Time
	Components int
	Nets       int
	Steps      int
	Faults     int
}

// StepRecord is a recorded snapshot. Values are keyed by net name.
//
type StepRecord struct {
	Step   int
	Passes int
	Values map[string]bb.Value
}

// Fault is a recorded step failure.
//
type Fault struct {
	Step    int
	Code    string
	Message string
	Nets    []string
}

type value struct {
	Level bb.Level `json:"level"`
	Ohms  float64  `json:"ohms,omitempty"`
}

// A Run records the steps of one simulation.
//
type Run struct {
	ID string

	st  *Store
	ctx context.Context
	g   *bb.Graph
	err error
}

// BeginRun registers a new run of the circuit g.
//
func (s *Store) BeginRun(ctx context.Context, name string, g *bb.Graph) (*Run, error) {
	r := &Run{ID: uuid.New().String(), st: s, ctx: ctx, g: g}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, started_at, components, nets) VALUES (?, ?, ?, ?, ?)`,
		r.ID, name, time.Now().UnixNano(), len(g.Components()), len(g.Nets()))
	if err != nil {
		return nil, errors.Wrap(err, "insert run")
	}
	return r, nil
}

// Err returns the first error met while recording.
//
func (r *Run) Err() error { return r.err }

// Hook returns the simulator hook recording this run.
//
func (r *Run) Hook() bb.Hook {
	return func(ev bb.Event) {
		var err error
		switch ev.Type {
		case bb.EventSettled:
			err = r.saveStep(ev.Snapshot)
		case bb.EventFaulted:
			err = r.saveFault(ev.Step, ev.Err)
		case bb.EventReset:
			_, err = r.st.db.ExecContext(r.ctx, `DELETE FROM steps WHERE run_id = ?`, r.ID)
			err = errors.Wrap(err, "delete steps")
		}
		if err != nil {
			r.st.log.Error("record event", zap.String("run", r.ID), zap.Int("step", ev.Step), zap.Error(err))
			if r.err == nil {
				r.err = err
			}
		}
	}
}

func (r *Run) netName(id bb.NetID) string {
	if n, ok := r.g.Net(id); ok && n.Name() != "" {
		return n.Name()
	}
	return "#" + strconv.Itoa(int(id))
}

func (r *Run) saveStep(snap *bb.Snapshot) error {
	state := make(map[string]value)
	for id, v := range snap.Values() {
		state[r.netName(id)] = value{v.Level, v.Ohms}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	tx, err := r.st.db.BeginTx(r.ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()
	// a rollback re-records a step: drop it and its successors
	if _, err = tx.ExecContext(r.ctx, `DELETE FROM steps WHERE run_id = ? AND step >= ?`, r.ID, snap.Step); err != nil {
		return errors.Wrap(err, "delete steps")
	}
	if _, err = tx.ExecContext(r.ctx, `INSERT INTO steps (run_id, step, passes, state) VALUES (?, ?, ?, ?)`,
		r.ID, snap.Step, snap.Passes, string(data)); err != nil {
		return errors.Wrap(err, "insert step")
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (r *Run) saveFault(step int, ferr error) error {
	code, msg := "", ""
	var nets []string
	if ferr != nil {
		msg = ferr.Error()
		var e *bb.Error
		if errors.As(ferr, &e) {
			code = e.Code.String()
			for _, id := range e.Nets {
				nets = append(nets, r.netName(id))
			}
		}
	}
	data, err := json.Marshal(nets)
	if err != nil {
		return errors.Wrap(err, "encode nets")
	}
	_, err = r.st.db.ExecContext(r.ctx, `INSERT INTO faults (run_id, step, code, message, nets) VALUES (?, ?, ?, ?, ?)`,
		r.ID, step, code, msg, string(data))
	return errors.Wrap(err, "insert fault")
}

// Runs lists the recorded runs, oldest first.
//
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.started_at, r.components, r.nets,
			(SELECT COUNT(*) FROM steps s WHERE s.run_id = r.id),
			(SELECT COUNT(*) FROM faults f WHERE f.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at, r.rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			ri      RunInfo
			started int64
		)
		if err := rows.Scan(&ri.ID, &ri.Name, &started, &ri.Components, &ri.Nets, &ri.Steps, &ri.Faults); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		ri.Started = time.Unix(0, started)
		runs = append(runs, ri)
	}
	return runs, errors.Wrap(rows.Err(), "query runs")
}

// Snapshots returns the recorded steps of a run in step order.
//
func (s *Store) Snapshots(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT step, passes, state FROM steps WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query steps")
	}
	defer rows.Close()

	var recs []StepRecord
	for rows.Next() {
		var (
			rec  StepRecord
			data string
		)
		if err := rows.Scan(&rec.Step, &rec.Passes, &data); err != nil {
			return nil, errors.Wrap(err, "scan step")
		}
		var state map[string]value
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			return nil, errors.Wrapf(err, "decode step %d", rec.Step)
		}
		rec.Values = make(map[string]bb.Value, len(state))
		for k, v := range state {
			rec.Values[k] = bb.Value{Level: v.Level, Ohms: v.Ohms}
		}
		recs = append(recs, rec)
	}
	return recs, errors.Wrap(rows.Err(), "query steps")
}

// Faults returns the recorded faults of a run.
//
func (s *Store) Faults(ctx context.Context, runID string) ([]Fault, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT step, code, message, nets FROM faults WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query faults")
	}
	defer rows.Close()

	var fs []Fault
	for rows.Next() {
		var (
			f    Fault
			nets string
		)
		if err := rows.Scan(&f.Step, &f.Code, &f.Message, &nets); err != nil {
			return nil, errors.Wrap(err, "scan fault")
		}
		if err := json.Unmarshal([]byte(nets), &f.Nets); err != nil {
			return nil, errors.Wrap(err, "decode fault nets")
		}
		fs = append(fs, f)
	}
	return fs, errors.Wrap(rows.Err(), "query faults")
}

// Run returns the summary of a single run.
//
func (s *Store) Run(ctx context.Context, id string) (RunInfo, error) {
	runs, err := s.Runs(ctx)
	if err != nil {
		return RunInfo{}, err
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return RunInfo{}, errors.Errorf("no run %s", id)
}
