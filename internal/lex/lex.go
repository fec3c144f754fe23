// Package lex provides a small state-function based lexer.
//
// A lexer is driven by StateFn's. Each call to Lex runs state functions until
// at least one item has been emitted. A state function returning nil resumes
// at the initial state function.
//
package lex

import (
	"bufio"
	"fmt"
	"io"
)

// EOF is both the rune returned by Next at end of input and the item Type
// emitted by lexers reaching end of input.
//
const EOF = -1

// Type is an item type. Lexer clients define their own types, starting at 0.
//
type Type int

// Pos is a rune offset in the input.
//
type Pos int

// Item is a lexed item.
//
type Item struct {
	Type  Type
	Pos   Pos
	Value interface{}
}

func (i Item) String() string {
	if i.Type == EOF {
		return "end of input"
	}
	switch v := i.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case rune:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}

// StateFn is a state function.
//
type StateFn func(l *Lexer) StateFn

// Interface is the interface returned by New.
//
type Interface interface {
	// Lex returns the next item in the input stream.
	Lex() Item
}

// Lexer holds the lexer state. It is passed to state functions.
//
type Lexer struct {
	in    []rune
	pos   int // position of the next rune to read
	start int // start of the current item
	init  StateFn
	state StateFn
	items []Item
}

// New returns a new lexer reading from r, starting at state init.
// A read error is reported as a single EOF item.
//
func New(r io.Reader, init StateFn) Interface {
	l := &Lexer{init: init}
	br := bufio.NewReader(r)
	for {
		c, _, err := br.ReadRune()
		if err != nil {
			break
		}
		l.in = append(l.in, c)
	}
	return l
}

// Lex implements Interface.
//
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.state = l.init
			l.start = l.pos
		}
		l.state = l.state(l)
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

// Next returns the next rune in the input, or EOF.
//
func (l *Lexer) Next() rune {
	if l.pos >= len(l.in) {
		l.pos = len(l.in) + 1
		return EOF
	}
	r := l.in[l.pos]
	l.pos++
	return r
}

// Backup moves back by one rune. It can be called only once per call to Next.
//
func (l *Lexer) Backup() {
	if l.pos > 0 {
		l.pos--
	}
}

// Current returns the last rune returned by Next.
//
func (l *Lexer) Current() rune {
	if l.pos == 0 || l.pos > len(l.in) {
		return EOF
	}
	return l.in[l.pos-1]
}

// Peek returns the next rune without consuming it.
//
func (l *Lexer) Peek() rune {
	if l.pos >= len(l.in) {
		return EOF
	}
	return l.in[l.pos]
}

// AcceptWhile consumes runes as long as f returns true.
//
func (l *Lexer) AcceptWhile(f func(rune) bool) {
	for r := l.Next(); r != EOF && f(r); r = l.Next() {
	}
	l.Backup()
}

// Emit emits an item of type t with value v, positioned at the start of the
// current token.
//
func (l *Lexer) Emit(t Type, v interface{}) {
	p := l.start
	if p > len(l.in) {
		p = len(l.in)
	}
	l.items = append(l.items, Item{Type: t, Pos: Pos(p), Value: v})
	l.start = l.pos
	if l.start > len(l.in) {
		l.start = len(l.in)
	}
}
