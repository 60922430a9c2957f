// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Level is the logic level of a net or terminal.
//
type Level uint8

// Logic levels. Z is the level of an undriven net. X is the level of a net
// whose drivers disagree or that is driven by an unknown value.
//
const (
	Z Level = iota
	Low
	High
	X
)

var levelNames = [...]string{Z: "Z", Low: "0", High: "1", X: "X"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

// LevelOf converts a bool to a Level.
//
func LevelOf(b bool) Level {
	if b {
		return High
	}
	return Low
}

// Bool returns true if l is High.
//
func (l Level) Bool() bool { return l == High }

// Known returns true for Low and High.
//
func (l Level) Known() bool { return l == Low || l == High }

// ParseLevel parses a level name. It accepts 0/1, low/high, l/h, false/true,
// z and x in any case.
//
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "low", "l", "false":
		return Low, nil
	case "1", "high", "h", "true":
		return High, nil
	case "z", "hiz", "float":
		return Z, nil
	case "x", "unknown":
		return X, nil
	}
	return Z, errors.Errorf("invalid level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
//
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// A Value is a level together with the resistance of the driver that produced
// it. Strong drivers (gates, wires, sources) have a zero resistance.
//
type Value struct {
	Level Level   `json:"level"`
	Ohms  float64 `json:"ohms,omitempty"`
}

// Strong returns a Value driven by a zero resistance driver.
//
func Strong(l Level) Value { return Value{Level: l} }

// Weak returns true if v comes from a resistive driver.
//
func (v Value) Weak() bool { return v.Ohms > 0 }

func (v Value) String() string {
	if v.Ohms == 0 {
		return v.Level.String()
	}
	return v.Level.String() + "~" + strconv.FormatFloat(v.Ohms, 'g', -1, 64)
}

// Resolution selects how a net with several drivers is resolved.
//
type Resolution uint8

// Resolution modes.
//
const (
	// Strict resolution: the strongest drivers win, and disagreeing drivers
	// of equal strength are a conflict.
	Strict Resolution = iota
	// WiredOR resolves to High if any driver is High.
	WiredOR
	// WiredAND resolves to Low if any driver is Low.
	WiredAND
)

var resolutionNames = [...]string{Strict: "strict", WiredOR: "wired-or", WiredAND: "wired-and"}

func (r Resolution) String() string {
	if int(r) < len(resolutionNames) {
		return resolutionNames[r]
	}
	return "Resolution(" + strconv.Itoa(int(r)) + ")"
}

// ParseResolution parses a resolution mode name as returned by
// Resolution.String. The empty string is Strict.
//
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "wired-or", "wiredor", "or":
		return WiredOR, nil
	case "wired-and", "wiredand", "and":
		return WiredAND, nil
	}
	return Strict, errors.Errorf("invalid resolution mode %q", s)
}

// resolve computes the value of a net from the values of its drivers.
// Drivers at Z are ignored. conflict is set when strict resolution finds
// drivers of equal strength driving both Low and High.
//
func resolve(mode Resolution, drivers []Value) (v Value, conflict bool) {
	var lo, hi, x, driven bool
	var ohms float64
	for _, d := range drivers {
		if d.Level == Z {
			continue
		}
		switch {
		case !driven || (mode == Strict && d.Ohms < ohms):
			lo, hi, x = false, false, false
			ohms = d.Ohms
			driven = true
		case mode == Strict && d.Ohms > ohms:
			continue
		case d.Ohms < ohms:
			ohms = d.Ohms
		}
		switch d.Level {
		case Low:
			lo = true
		case High:
			hi = true
		default:
			x = true
		}
	}
	if !driven {
		return Value{}, false
	}
	v.Ohms = ohms
	switch mode {
	case WiredOR:
		switch {
		case hi:
			v.Level = High
		case x:
			v.Level = X
		default:
			v.Level = Low
		}
	case WiredAND:
		switch {
		case lo:
			v.Level = Low
		case x:
			v.Level = X
		default:
			v.Level = High
		}
	default:
		switch {
		case lo && hi:
			v.Level = X
			conflict = true
		case x:
			v.Level = X
		case hi:
			v.Level = High
		default:
			v.Level = Low
		}
	}
	return v, conflict
}
