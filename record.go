package icgen

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record kinds as written in record streams.
//
const (
	RecordPlace = "PLACE"
	RecordRoute = "ROUTE"
	RecordVia   = "VIA"
	RecordRect  = "RECT"
	RecordPin   = "PIN"
	RecordBound = "BOUND"
)

// A Record is one line of a design's output stream. String returns the line
// without its terminating newline.
//
type Record interface {
	Kind() string
	String() string
}

// Sink receives the records of a finished design, in order.
//
type Sink interface {
	Write(r Record) error
}

// Area is a drawn rectangle on a named layer, such as a well.
//
type Area struct {
	Layer string
	Grid  string
	Box   Rect
}

// Bound is the last record of a design: the top metal layer used and the
// design's bounding box on the placement grid.
//
type Bound struct {
	Layer int
	Grid  string
	Box   Rect
}

// Kind implements Record.
//
func (i *Instance) Kind() string { return RecordPlace }

func (i *Instance) String() string {
	var b strings.Builder
	b.WriteString(RecordPlace)
	field(&b, "name", i.Name)
	field(&b, "template", i.Template.Name)
	field(&b, "grid", i.Grid)
	field(&b, "at", i.Origin.String())
	field(&b, "orient", i.Orient.String())
	field(&b, "shape", i.Shape.String())
	return b.String()
}

// Kind implements Record.
//
func (r *Route) Kind() string { return RecordRoute }

func (r *Route) String() string {
	var b strings.Builder
	b.WriteString(RecordRoute)
	field(&b, "grid", r.Grid)
	field(&b, "from", r.From.String())
	field(&b, "to", r.To.String())
	field(&b, "dir", r.Dir.String())
	field(&b, "via0", r.Via0.String())
	field(&b, "via1", r.Via1.String())
	field(&b, "end0", r.End0.String())
	field(&b, "end1", r.End1.String())
	var path strings.Builder
	for _, p := range r.Path {
		path.WriteString(p.String())
	}
	field(&b, "path", path.String())
	return b.String()
}

func (v *ViaSpec) String() string {
	if v == nil {
		return "-"
	}
	return v.Offset.String()
}

// Kind implements Record.
//
func (v *Via) Kind() string { return RecordVia }

func (v *Via) String() string {
	var b strings.Builder
	b.WriteString(RecordVia)
	field(&b, "grid", v.Grid)
	field(&b, "at", v.At.String())
	field(&b, "layers", strconv.Itoa(v.Lo)+":"+strconv.Itoa(v.Hi))
	return b.String()
}

// Kind implements Record.
//
func (a *Area) Kind() string { return RecordRect }

func (a *Area) String() string {
	var b strings.Builder
	b.WriteString(RecordRect)
	field(&b, "layer", a.Layer)
	field(&b, "grid", a.Grid)
	field(&b, "box", a.Box.String())
	return b.String()
}

// Kind implements Record.
//
func (p *Pin) Kind() string { return RecordPin }

func (p *Pin) String() string {
	var b strings.Builder
	b.WriteString(RecordPin)
	field(&b, "name", p.Name)
	field(&b, "grid", p.Grid)
	field(&b, "layer", strconv.Itoa(p.Layer))
	if p.Anchor.Ref != nil {
		field(&b, "anchor", p.Anchor.Ref.String())
	} else {
		field(&b, "anchor", p.Anchor.At.String())
	}
	field(&b, "offset", p.Anchor.Offset.String())
	field(&b, "box", p.Box.String())
	return b.String()
}

// Kind implements Record.
//
func (b *Bound) Kind() string { return RecordBound }

func (b *Bound) String() string {
	var s strings.Builder
	s.WriteString(RecordBound)
	field(&s, "layer", strconv.Itoa(b.Layer))
	field(&s, "box", b.Box.String())
	return s.String()
}

func field(b *strings.Builder, k, v string) {
	b.WriteByte(' ')
	b.WriteString(k)
	b.WriteByte('=')
	b.WriteString(v)
}

// StreamWriter is a Sink writing records as text lines. Call Flush after the
// last record.
//
type StreamWriter struct {
	w *bufio.Writer
	n int
}

// NewStreamWriter returns a StreamWriter writing to w.
//
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriter(w)}
}

// Write implements Sink.
//
func (s *StreamWriter) Write(r Record) error {
	if _, err := s.w.WriteString(r.String()); err != nil {
		return errors.Wrap(err, "write record")
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "write record")
	}
	s.n++
	return nil
}

// Count returns the number of records written.
//
func (s *StreamWriter) Count() int { return s.n }

// Flush flushes buffered lines to the underlying writer.
//
func (s *StreamWriter) Flush() error {
	return errors.Wrap(s.w.Flush(), "flush record stream")
}

// WriteStream writes the records of a finished design to w.
//
func WriteStream(w io.Writer, d *Design) error {
	sw := NewStreamWriter(w)
	if err := d.Emit(sw); err != nil {
		return err
	}
	return sw.Flush()
}
