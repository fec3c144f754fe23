package icgen

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/tinapiao/icgen/internal/syntax"
)

// ParseEndpoint parses an endpoint in stream form: either a coordinate
//
//	(12,4)
//
// or a pin reference with an optional offset:
//
//	XP0_0.in
//	XN1_0.S[2]+(0,-1)
//
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		l, err := syntax.ParseLine("E v=" + s)
		if err != nil {
			return Endpoint{}, Errorf(Syntax, []string{s}, "%v", err)
		}
		pts, ok := l.Fields[0].Value.([]syntax.Point)
		if !ok || len(pts) != 1 {
			return Endpoint{}, Errorf(Syntax, []string{s}, "expected a single coordinate")
		}
		return Coord(pts[0].X, pts[0].Y), nil
	}
	r, err := syntax.ParseRef(s)
	if err != nil {
		return Endpoint{}, Errorf(Syntax, []string{s}, "%v", err)
	}
	return endpointOf(r), nil
}

// ParsePinRef parses a pin reference without offset.
//
//	ParsePinRef("XN0_1.in")      // Ref("XN0_1", "in")
//	ParsePinRef("XCAP3.top[2]")  // Ref("XCAP3", "top").At(2)
//
func ParsePinRef(s string) (PinRef, error) {
	r, err := syntax.ParseRef(s)
	if err != nil {
		return PinRef{}, Errorf(Syntax, []string{s}, "%v", err)
	}
	if r.HasOffset {
		return PinRef{}, Errorf(Syntax, []string{s}, "unexpected offset in pin reference")
	}
	return *endpointOf(r).Ref, nil
}

func endpointOf(r syntax.Ref) Endpoint {
	ref := PinRef{Inst: r.Inst, Pin: r.Pin}
	if r.Index != nil {
		ref.Index = &Index{
			Col:     r.Index.Col,
			Row:     r.Index.Row,
			Hi:      r.Index.Hi,
			HasRow:  r.Index.HasRow,
			IsRange: r.Index.IsRange,
		}
	}
	return Endpoint{Ref: &ref, Offset: Point{r.Offset.X, r.Offset.Y}}
}

// Line is a parsed record-stream line.
//
type Line struct {
	No   int // 1-based line number
	Kind string
	Text string

	fields []syntax.Field
}

func (l *Line) get(key string) (interface{}, error) {
	for _, f := range l.fields {
		if f.Key == key {
			return f.Value, nil
		}
	}
	return nil, l.errorf("missing field %s", key)
}

func (l *Line) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(Errorf(Syntax, []string{l.Kind}, format, args...), "line %d", l.No)
}

// Has reports whether the line has the named field.
//
func (l *Line) Has(key string) bool {
	_, err := l.get(key)
	return err == nil
}

// Name returns the value of an identifier field.
//
func (l *Line) Name(key string) (string, error) {
	v, err := l.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", l.errorf("field %s: expected a name", key)
	}
	return s, nil
}

// Int returns the value of an integer field.
//
func (l *Line) Int(key string) (int, error) {
	v, err := l.get(key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, l.errorf("field %s: expected an integer", key)
	}
	return n, nil
}

// Points returns the value of a coordinate list field.
//
func (l *Line) Points(key string) ([]Point, error) {
	v, err := l.get(key)
	if err != nil {
		return nil, err
	}
	sp, ok := v.([]syntax.Point)
	if !ok {
		return nil, l.errorf("field %s: expected coordinates", key)
	}
	pts := make([]Point, len(sp))
	for i, p := range sp {
		pts[i] = Point{p.X, p.Y}
	}
	return pts, nil
}

// Endpoint returns the value of an endpoint field. The field may also be
// "-", in which case ok is false.
//
func (l *Line) Endpoint(key string) (e Endpoint, ok bool, err error) {
	v, err := l.get(key)
	if err != nil {
		return Endpoint{}, false, err
	}
	switch v := v.(type) {
	case syntax.None:
		return Endpoint{}, false, nil
	case syntax.Ref:
		return endpointOf(v), true, nil
	case []syntax.Point:
		if len(v) == 1 {
			return Coord(v[0].X, v[0].Y), true, nil
		}
	}
	return Endpoint{}, false, l.errorf("field %s: expected a pin reference or a coordinate", key)
}

// Layers returns the value of a lo:hi layer pair field.
//
func (l *Line) Layers(key string) (lo, hi int, err error) {
	v, err := l.get(key)
	if err != nil {
		return 0, 0, err
	}
	ls, ok := v.(syntax.Layers)
	if !ok {
		return 0, 0, l.errorf("field %s: expected a layer pair", key)
	}
	return ls.Lo, ls.Hi, nil
}

// ParseStream reads a record stream. Blank lines and lines starting with #
// are skipped.
//
func ParseStream(r io.Reader) ([]*Line, error) {
	var lines []*Line
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	no := 0
	for s.Scan() {
		no++
		text := strings.TrimSpace(s.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		sl, err := syntax.ParseLine(text)
		if err != nil {
			return nil, errors.Wrapf(Errorf(Syntax, nil, "%v", err), "line %d", no)
		}
		lines = append(lines, &Line{No: no, Kind: sl.Kind, Text: text, fields: sl.Fields})
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "read record stream")
	}
	return lines, nil
}
