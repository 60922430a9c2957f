// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl implements the lexer and parser for pin lists and connection
// descriptions:
//
//	a, b, sel, bus[4]
//	a=x, b=y, out=z, in[0..3]=bus[4..7]
//
// Bus declarations and ranges are returned verbatim; expanding them is left
// to the caller.
//
package hdl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	Comma
	Equal
)

var typeNames = [...]string{EOF: "end of input", Raw: "character", Ident: "identifier", Comma: "','", Equal: "'='"}

func (t Type) String() string { return typeNames[t] }

// Item is a token.
//
type Item struct {
	Type  Type
	Pos   int // byte offset in the input
	Value string
}

// Lexer splits its input into tokens.
//
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a new lexer for i/o specs and connection descriptions.
//
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.-/#[]", r)
}

// Lex returns the next token.
//
func (l *Lexer) Lex() Item {
	for l.pos < len(l.input) {
		r, sz := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += sz
	}
	if l.pos >= len(l.input) {
		return Item{Type: EOF, Pos: l.pos}
	}
	start := l.pos
	r, sz := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += sz
	switch {
	case r == ',':
		return Item{Comma, start, ","}
	case r == '=':
		return Item{Equal, start, "="}
	case isIdent(r):
		for l.pos < len(l.input) {
			r, sz = utf8.DecodeRuneInString(l.input[l.pos:])
			if !isIdent(r) {
				break
			}
			l.pos += sz
		}
		return Item{Ident, start, l.input[start:l.pos]}
	}
	return Item{Raw, start, string(r)}
}

// A Connection connects a part's pin to a net of its container.
//
type Connection struct {
	Pin string
	Net string
}

// ParseConnections parses a connection description like "a=x, b=y". The
// empty string yields no connections.
//
func ParseConnections(input string) ([]Connection, error) {
	var out []Connection
	l := NewLexer(input)
	i := l.Lex()
	if i.Type == EOF {
		return nil, nil
	}
	for {
		if i.Type != Ident {
			return nil, parseError(input, i, "expected pin name")
		}
		pin := i.Value
		if i = l.Lex(); i.Type != Equal {
			return nil, parseError(input, i, "expected '='")
		}
		if i = l.Lex(); i.Type != Ident {
			return nil, parseError(input, i, "expected net name")
		}
		out = append(out, Connection{pin, i.Value})
		switch i = l.Lex(); i.Type {
		case EOF:
			return out, nil
		case Comma:
			i = l.Lex()
		default:
			return nil, parseError(input, i, "expected comma or end of input")
		}
	}
}

// ParseNames parses a comma separated list of names like "a, b, sel".
//
func ParseNames(input string) ([]string, error) {
	var out []string
	l := NewLexer(input)
	i := l.Lex()
	if i.Type == EOF {
		return nil, nil
	}
	for {
		if i.Type != Ident {
			return nil, parseError(input, i, "expected pin name")
		}
		out = append(out, i.Value)
		switch i = l.Lex(); i.Type {
		case EOF:
			return out, nil
		case Comma:
			i = l.Lex()
		default:
			return nil, parseError(input, i, "expected comma or end of input")
		}
	}
}

func parseError(in string, i Item, msg string) error {
	return errors.Errorf("in %q at pos %d: %s, got %s", in, i.Pos+1, msg, i.Type)
}
