package icgen

import (
	"strconv"
)

// Shape is the repetition count of a placed instance along x and y. The
// repetition pitch is the template extent.
//
type Shape struct {
	NX, NY int
}

// Single is the shape of a non-repeated instance.
//
var Single = Shape{1, 1}

func (s Shape) String() string {
	return "(" + strconv.Itoa(s.NX) + "," + strconv.Itoa(s.NY) + ")"
}

// Instance is a placed template. Instances are immutable once placed.
//
type Instance struct {
	Name     string
	Template *Template
	Grid     string // placement grid
	Origin   Point  // lower-left corner of the bounding box
	Orient   Orientation
	Shape    Shape
}

// BBox returns the instance bounding box on the placement grid.
//
func (i *Instance) BBox() Rect {
	return Rect{
		i.Origin.X,
		i.Origin.Y,
		i.Origin.X + i.Shape.NX*i.Template.Width,
		i.Origin.Y + i.Shape.NY*i.Template.Height,
	}
}

// elemOrigin returns the origin of the repetition (c, r).
//
func (i *Instance) elemOrigin(c, r int) Point {
	return i.Origin.Add(Point{c * i.Template.Width, r * i.Template.Height})
}

// Side selects the edge of a reference instance a new instance abuts.
//
type Side int

// Sides. NoRef anchors to the grid origin.
//
const (
	NoRef Side = iota
	RightSide
	LeftSide
	TopSide
	BottomSide
)

func (s Side) String() string {
	switch s {
	case RightSide:
		return "right"
	case LeftSide:
		return "left"
	case TopSide:
		return "top"
	case BottomSide:
		return "bottom"
	}
	return "no-ref"
}

// Anchor describes where an instance is placed: either at an absolute grid
// coordinate (Side NoRef, Offset is the coordinate) or abutted to one side
// of a previously placed instance and then moved by Offset. Offset is in
// units of Grid, or of the placement grid if Grid is empty. Negative offsets
// are legal and produce overlap.
//
type Anchor struct {
	Ref    string
	Side   Side
	Offset Point
	Grid   string
}

// At returns an absolute anchor.
//
func At(x, y int) Anchor { return Anchor{Offset: Point{x, y}} }

// RightOf returns an anchor abutting the right edge of ref.
//
func RightOf(ref string, dx, dy int) Anchor {
	return Anchor{Ref: ref, Side: RightSide, Offset: Point{dx, dy}}
}

// LeftOf returns an anchor abutting the left edge of ref.
//
func LeftOf(ref string, dx, dy int) Anchor {
	return Anchor{Ref: ref, Side: LeftSide, Offset: Point{dx, dy}}
}

// Above returns an anchor abutting the top edge of ref.
//
func Above(ref string, dx, dy int) Anchor {
	return Anchor{Ref: ref, Side: TopSide, Offset: Point{dx, dy}}
}

// Below returns an anchor abutting the bottom edge of ref.
//
func Below(ref string, dx, dy int) Anchor {
	return Anchor{Ref: ref, Side: BottomSide, Offset: Point{dx, dy}}
}

// On returns a copy of a with offsets expressed on the named grid.
//
func (a Anchor) On(grid string) Anchor {
	a.Grid = grid
	return a
}

// Cursor tracks the last instance placed in a sequence, replacing implicit
// "most recent instance" state. The zero Cursor has no instance.
//
type Cursor struct {
	Last string
}

// Empty reports whether no instance has been placed through c yet.
//
func (c Cursor) Empty() bool { return c.Last == "" }

// Next returns an anchor to the right of the last instance, or a if c is
// empty.
//
func (c Cursor) Next(a Anchor, dx, dy int) Anchor {
	if c.Empty() {
		return a
	}
	return RightOf(c.Last, dx, dy)
}

// Place places template tmpl under the given instance name. A zero shape is
// taken as Single.
//
func (d *Design) Place(name, tmpl string, a Anchor, o Orientation, s Shape) (*Instance, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errorf(NotFound, "empty instance name")
	}
	if _, ok := d.insts[name]; ok {
		return nil, Errorf(NameCollision, []string{name}, "instance name already used")
	}
	t, err := d.lib.Template(tmpl)
	if err != nil {
		return nil, err
	}
	if s.NX == 0 && s.NY == 0 {
		s = Single
	}
	if s.NX <= 0 || s.NY <= 0 {
		return nil, Errorf(OutOfBounds, []string{name, s.String()}, "invalid shape")
	}

	off := a.Offset
	if a.Grid != "" && a.Grid != d.place {
		if off, err = d.grids.Convert(a.Grid, d.place, a.Offset, Exact); err != nil {
			return nil, Errorf(OffGrid, []string{name, a.Grid, a.Offset.String()}, "offset does not snap to the placement grid")
		}
	}

	size := Point{s.NX * t.Width, s.NY * t.Height}
	var org Point
	if a.Side != NoRef {
		ref, ok := d.insts[a.Ref]
		if !ok {
			return nil, Errorf(DanglingRef, []string{name, a.Ref}, "reference instance not placed")
		}
		rb := ref.BBox()
		switch a.Side {
		case RightSide:
			org = Point{rb.X1, rb.Y0}
		case LeftSide:
			org = Point{rb.X0 - size.X, rb.Y0}
		case TopSide:
			org = Point{rb.X0, rb.Y1}
		case BottomSide:
			org = Point{rb.X0, rb.Y0 - size.Y}
		}
	}
	org = org.Add(off)

	inst := &Instance{
		Name:     name,
		Template: t,
		Grid:     d.place,
		Origin:   org,
		Orient:   o,
		Shape:    s,
	}
	if d.bounds != nil && !inst.BBox().In(*d.bounds) {
		return nil, Errorf(OutOfBounds, []string{name, inst.BBox().String(), d.bounds.String()}, "instance outside declared boundary")
	}
	d.insts[name] = inst
	d.order = append(d.order, inst)
	d.emit(inst)
	return inst, nil
}
