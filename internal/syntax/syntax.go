// Package syntax implements the lexer and parser for pin references and
// record-stream lines.
//
// Pin references have the form
//
//	inst.pin
//	inst.pin[3]
//	inst.pin[1,0]
//	inst.pin[0..3]
//	inst.pin[2]+(0,-1)
//
// Record lines are a record kind followed by key=value fields:
//
//	ROUTE grid=m1m2 from=XP0_0.in to=(12,4) dir=x via0=(0,0) via1=- path=(0,4)(12,4)
//
package syntax

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/tinapiao/icgen/internal/lex"
)

// Tokens
const (
	EOF lex.Type = lex.EOF
	Raw lex.Type = iota
	Ident
	Int
	BracketOpen
	BracketClose
	ParenOpen
	ParenClose
	Comma
	Range
	Dot
	Equal
	Plus
	Colon
	Dash
)

// Lexer returns a new lexer for pin references and record lines.
//
func Lexer(input string) lex.Interface {
	return lex.New(strings.NewReader(input), lexInit)
}

func lexInit(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '-':
		if n := l.Peek(); '0' <= n && n <= '9' {
			return lexNumber
		}
		l.Emit(Dash, "-")
	case r == '[':
		l.Emit(BracketOpen, "[")
	case r == ']':
		l.Emit(BracketClose, "]")
	case r == '(':
		l.Emit(ParenOpen, "(")
	case r == ')':
		l.Emit(ParenClose, ")")
	case r == ',':
		l.Emit(Comma, ",")
	case r == '=':
		l.Emit(Equal, "=")
	case r == '+':
		l.Emit(Plus, "+")
	case r == ':':
		l.Emit(Colon, ":")
	case r == '.':
		if l.Peek() == '.' {
			l.Next()
			l.Emit(Range, "..")
			break
		}
		l.Emit(Dot, ".")
	default:
		l.Emit(Raw, r)
		return lexEOF
	}
	return nil
}

func lexNumber(l *lex.Lexer) lex.StateFn {
	neg := l.Current() == '-'
	i := 0
	if !neg {
		i = int(l.Current() - '0')
	}
	r := l.Next()
	for '0' <= r && r <= '9' {
		i = i*10 + int(r-'0')
		r = l.Next()
	}
	l.Backup()
	if neg {
		i = -i
	}
	l.Emit(Int, i)
	return nil
}

// lexIdent lexes identifiers. A trailing bus suffix such as <3:0> or <2> is
// part of the identifier.
//
func lexIdent(l *lex.Lexer) lex.StateFn {
	var buf strings.Builder
	buf.Grow(8)
	buf.WriteRune(l.Current())
	r := l.Next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		buf.WriteRune(r)
		r = l.Next()
	}
	if r == '<' {
		buf.WriteRune(r)
		for r = l.Next(); unicode.IsDigit(r) || r == ':'; r = l.Next() {
			buf.WriteRune(r)
		}
		if r != '>' {
			l.Backup()
			l.Emit(Raw, r)
			return lexEOF
		}
		buf.WriteRune(r)
		r = l.Next()
	}
	l.Backup()
	l.Emit(Ident, buf.String())
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(lex.EOF, "end of input")
	return lexEOF
}

// Point is a pair of grid coordinates.
//
type Point struct {
	X, Y int
}

// Index is a pin or array index. Hi is only meaningful if IsRange is set.
// Row is only meaningful if HasRow is set.
//
type Index struct {
	Col     int
	Row     int
	Hi      int
	HasRow  bool
	IsRange bool
}

// Ref is a parsed pin reference.
//
type Ref struct {
	Inst      string
	Pin       string
	Index     *Index
	Offset    Point
	HasOffset bool
}

// Layers is a via layer pair lo:hi.
//
type Layers struct {
	Lo, Hi int
}

// None is the value of a field set to "-".
//
type None struct{}

// Field is a key=value pair in a record line. Value is one of string (an
// identifier), int, []Point, Ref, Layers or None.
//
type Field struct {
	Key   string
	Value interface{}
	Pos   lex.Pos
}

// Line is a parsed record line.
//
type Line struct {
	Kind   string
	Fields []Field
}

// Get returns the value of the named field and whether it was found.
//
func (l *Line) Get(key string) (interface{}, bool) {
	for _, f := range l.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type parser struct {
	input string
	l     lex.Interface
	i     lex.Item
}

func newParser(input string) *parser {
	p := &parser{input: input, l: Lexer(input)}
	p.next()
	return p
}

func (p *parser) next() {
	p.i = p.l.Lex()
}

func (p *parser) expect(t lex.Type, what string) error {
	if p.i.Type != t {
		return parseError(p.input, p.i.Pos, "expected "+what+", got "+p.i.String())
	}
	p.next()
	return nil
}

// ParseRef parses a pin reference, with an optional +(dx,dy) offset.
//
func ParseRef(s string) (Ref, error) {
	p := newParser(s)
	if p.i.Type != Ident {
		return Ref{}, parseError(s, p.i.Pos, "expected instance name")
	}
	inst := p.i.Value.(string)
	p.next()
	r, err := p.ref(inst)
	if err != nil {
		return Ref{}, err
	}
	if p.i.Type != EOF {
		return Ref{}, parseError(s, p.i.Pos, "unexpected "+p.i.String())
	}
	return r, nil
}

// ref parses the remainder of a reference whose instance name has already
// been consumed.
//
func (p *parser) ref(inst string) (Ref, error) {
	r := Ref{Inst: inst}
	if err := p.expect(Dot, "'.'"); err != nil {
		return r, err
	}
	if p.i.Type != Ident {
		return r, parseError(p.input, p.i.Pos, "expected pin name")
	}
	r.Pin = p.i.Value.(string)
	p.next()
	if p.i.Type == BracketOpen {
		p.next()
		idx, err := p.index()
		if err != nil {
			return r, err
		}
		r.Index = idx
	}
	if p.i.Type == Plus {
		p.next()
		pt, err := p.point()
		if err != nil {
			return r, err
		}
		r.Offset, r.HasOffset = pt, true
	}
	return r, nil
}

func (p *parser) index() (*Index, error) {
	if p.i.Type != Int {
		return nil, parseError(p.input, p.i.Pos, "integer value expected after '['")
	}
	idx := &Index{Col: p.i.Value.(int)}
	p.next()
	switch p.i.Type {
	case Comma:
		p.next()
		if p.i.Type != Int {
			return nil, parseError(p.input, p.i.Pos, "integer value expected after ','")
		}
		idx.Row, idx.HasRow = p.i.Value.(int), true
		p.next()
	case Range:
		p.next()
		if p.i.Type != Int {
			return nil, parseError(p.input, p.i.Pos, "integer value expected after '..'")
		}
		idx.Hi, idx.IsRange = p.i.Value.(int), true
		p.next()
	}
	if err := p.expect(BracketClose, "closing ']' after index or range"); err != nil {
		return nil, err
	}
	return idx, nil
}

func (p *parser) point() (Point, error) {
	var pt Point
	if err := p.expect(ParenOpen, "'('"); err != nil {
		return pt, err
	}
	if p.i.Type != Int {
		return pt, parseError(p.input, p.i.Pos, "expected x coordinate")
	}
	pt.X = p.i.Value.(int)
	p.next()
	if err := p.expect(Comma, "','"); err != nil {
		return pt, err
	}
	if p.i.Type != Int {
		return pt, parseError(p.input, p.i.Pos, "expected y coordinate")
	}
	pt.Y = p.i.Value.(int)
	p.next()
	if err := p.expect(ParenClose, "')'"); err != nil {
		return pt, err
	}
	return pt, nil
}

// ParseLine parses a record line.
//
func ParseLine(s string) (Line, error) {
	var line Line
	p := newParser(s)
	if p.i.Type != Ident {
		return line, parseError(s, p.i.Pos, "expected record kind")
	}
	line.Kind = p.i.Value.(string)
	p.next()
	for p.i.Type != EOF {
		if p.i.Type != Ident {
			return line, parseError(s, p.i.Pos, "expected field name")
		}
		f := Field{Key: p.i.Value.(string), Pos: p.i.Pos}
		p.next()
		if err := p.expect(Equal, "'='"); err != nil {
			return line, err
		}
		v, err := p.value()
		if err != nil {
			return line, err
		}
		f.Value = v
		line.Fields = append(line.Fields, f)
	}
	return line, nil
}

func (p *parser) value() (interface{}, error) {
	switch p.i.Type {
	case Dash:
		p.next()
		return None{}, nil
	case Int:
		n := p.i.Value.(int)
		p.next()
		if p.i.Type != Colon {
			return n, nil
		}
		p.next()
		if p.i.Type != Int {
			return nil, parseError(p.input, p.i.Pos, "expected upper layer after ':'")
		}
		hi := p.i.Value.(int)
		p.next()
		return Layers{n, hi}, nil
	case ParenOpen:
		var pts []Point
		for p.i.Type == ParenOpen {
			pt, err := p.point()
			if err != nil {
				return nil, err
			}
			pts = append(pts, pt)
		}
		return pts, nil
	case Ident:
		name := p.i.Value.(string)
		p.next()
		if p.i.Type != Dot {
			return name, nil
		}
		r, err := p.ref(name)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, parseError(p.input, p.i.Pos, "unexpected "+p.i.String())
}

func parseError(in string, pos lex.Pos, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
