// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package breadboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Code identifies a class of error returned by graph, engine and simulator
// operations. Codes implement the error interface so that they can be used as
// targets for errors.Is:
//
//	if errors.Is(err, breadboard.UnstableCircuit) {
//		// oscillation
//	}
//
type Code int

// Error codes.
//
const (
	_ Code = iota
	InvalidArity
	InvalidParameter
	UnknownKind
	UnknownComponent
	UnknownNet
	TerminalOutOfRange
	ConflictingDrivers
	UnstableCircuit
	OutOfRange
	Busy
)

var codeNames = [...]string{
	InvalidArity:       "invalid arity",
	InvalidParameter:   "invalid parameter",
	UnknownKind:        "unknown component kind",
	UnknownComponent:   "unknown component",
	UnknownNet:         "unknown net",
	TerminalOutOfRange: "terminal out of range",
	ConflictingDrivers: "conflicting drivers",
	UnstableCircuit:    "unstable circuit",
	OutOfRange:         "out of range",
	Busy:               "graph busy",
}

func (c Code) String() string {
	if c > 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "error code " + strconv.Itoa(int(c))
}

func (c Code) Error() string { return c.String() }

// Error is the concrete error type behind every Code. Use errors.As to
// retrieve the offending net and component ids:
//
//	var e *breadboard.Error
//	if errors.As(err, &e) {
//		log.Print(e.Nets)
//	}
//
type Error struct {
	Code       Code
	Msg        string
	Nets       []NetID       // offending nets, sorted
	Components []ComponentID // offending components, sorted
	Passes     int           // propagation passes run before the fault
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Nets) > 0 {
		b.WriteString(" (nets")
		for _, n := range e.Nets {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(int(n)))
		}
		b.WriteByte(')')
	}
	if len(e.Components) > 0 {
		b.WriteString(" (components")
		for _, c := range e.Components {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(int(c)))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Is reports whether target is the Code of e.
//
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

func errorf(code Code, format string, args ...interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return errors.WithStack(&Error{Code: code, Msg: msg})
}
