// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import "sort"

// A Snapshot is the settled state of a circuit after one simulation step:
// the value of every net and the level of every SOURCE and CLOCK. Snapshots
// are read-only.
//
type Snapshot struct {
	Step   int // index in the history
	Passes int // propagation passes run by the step

	nets    []NetID // sorted
	values  []Value
	sources []ComponentID // sorted
	levels  []Level
}

func newSnapshot(g *Graph, step, passes int) *Snapshot {
	s := &Snapshot{Step: step, Passes: passes}
	for _, n := range g.nets {
		if n != nil {
			s.nets = append(s.nets, n.id)
			s.values = append(s.values, n.value)
		}
	}
	for _, c := range g.comps {
		if c != nil && c.kind.IsSource() {
			s.sources = append(s.sources, c.id)
			s.levels = append(s.levels, c.level)
		}
	}
	return s
}

// Nets returns the ids of the nets recorded in the snapshot.
//
func (s *Snapshot) Nets() []NetID { return append([]NetID(nil), s.nets...) }

// Value returns the recorded value of a net. ok is false if the net did not
// exist when the snapshot was taken.
//
func (s *Snapshot) Value(id NetID) (v Value, ok bool) {
	i := sort.Search(len(s.nets), func(i int) bool { return s.nets[i] >= id })
	if i < len(s.nets) && s.nets[i] == id {
		return s.values[i], true
	}
	return Value{}, false
}

// Level returns the recorded level of a net, Z for unknown nets.
//
func (s *Snapshot) Level(id NetID) Level {
	v, _ := s.Value(id)
	return v.Level
}

// Values returns a copy of the recorded net values.
//
func (s *Snapshot) Values() map[NetID]Value {
	m := make(map[NetID]Value, len(s.nets))
	for i, id := range s.nets {
		m[id] = s.values[i]
	}
	return m
}

// Source returns the recorded output level of a SOURCE or CLOCK.
//
func (s *Snapshot) Source(id ComponentID) (Level, bool) {
	i := sort.Search(len(s.sources), func(i int) bool { return s.sources[i] >= id })
	if i < len(s.sources) && s.sources[i] == id {
		return s.levels[i], true
	}
	return Z, false
}

// Equal returns true if s and o hold the same net values and source levels.
// Step and Passes are not compared.
//
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.nets) != len(o.nets) || len(s.sources) != len(o.sources) {
		return false
	}
	for i := range s.nets {
		if s.nets[i] != o.nets[i] || s.values[i] != o.values[i] {
			return false
		}
	}
	for i := range s.sources {
		if s.sources[i] != o.sources[i] || s.levels[i] != o.levels[i] {
			return false
		}
	}
	return true
}

// History is the ordered sequence of snapshots recorded by a Simulator, one
// per successful step.
//
type History struct {
	snaps []*Snapshot
}

// Len returns the number of recorded snapshots.
//
func (h *History) Len() int { return len(h.snaps) }

// At returns the snapshot recorded at step i. It fails with OutOfRange if no
// such step was recorded.
//
func (h *History) At(i int) (*Snapshot, error) {
	if i < 0 || i >= len(h.snaps) {
		return nil, errorf(OutOfRange, "step %d not in history [0, %d)", i, len(h.snaps))
	}
	return h.snaps[i], nil
}

// Last returns the latest snapshot, or nil if the history is empty.
//
func (h *History) Last() *Snapshot {
	if len(h.snaps) == 0 {
		return nil
	}
	return h.snaps[len(h.snaps)-1]
}

// All returns all recorded snapshots in step order.
//
func (h *History) All() []*Snapshot { return append([]*Snapshot(nil), h.snaps...) }

func (h *History) append(s *Snapshot) { h.snaps = append(h.snaps, s) }

func (h *History) truncate(n int) {
	for i := n; i < len(h.snaps); i++ {
		h.snaps[i] = nil
	}
	h.snaps = h.snaps[:n]
}

func (h *History) clear() { h.truncate(0) }
