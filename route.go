package icgen

import (
	"strconv"

	"github.com/golang/glog"
)

// Direction is the direction of a route.
//
type Direction int

// Route directions. L routes are made of two orthogonal segments; the name
// gives the axis of the first one.
//
const (
	X Direction = iota
	Y
	LHorizontalFirst
	LVerticalFirst
)

var dirNames = [...]string{X: "x", Y: "y", LHorizontalFirst: "lh", LVerticalFirst: "lv"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(dirNames) {
		return "dir(" + strconv.Itoa(int(d)) + ")"
	}
	return dirNames[d]
}

// ParseDirection returns the direction with the given stream name.
//
func ParseDirection(s string) (Direction, error) {
	for d, n := range dirNames {
		if n == s {
			return Direction(d), nil
		}
	}
	return 0, Errorf(Syntax, []string{s}, "unknown route direction")
}

// IsL reports whether d is one of the L directions.
//
func (d Direction) IsL() bool { return d == LHorizontalFirst || d == LVerticalFirst }

// EndStyle selects where a route ends on a pin.
//
type EndStyle int

// End styles. Extend ends on the outer edge of the pin, rendered half a pitch
// beyond it, so that the route covers the full pin rectangle. Truncate ends on
// the pin center.
//
const (
	Extend EndStyle = iota
	Truncate
)

func (e EndStyle) String() string {
	if e == Truncate {
		return "truncate"
	}
	return "extend"
}

// ParseEndStyle returns the end style with the given name. The empty name
// selects Extend.
//
func ParseEndStyle(s string) (EndStyle, error) {
	switch s {
	case "", "extend":
		return Extend, nil
	case "truncate":
		return Truncate, nil
	}
	return 0, Errorf(Syntax, []string{s}, "unknown end style")
}

// ViaSpec requests a via at a route endpoint. Offset moves the via from the
// endpoint, in units of the route grid. Layer is the layer the via connects
// the route segment to; if 0, it is the layer of the pin at that endpoint,
// or the layer right below the segment.
//
type ViaSpec struct {
	Offset Point
	Layer  int
}

// Drop returns a via request at offset (dx, dy).
//
func Drop(dx, dy int) *ViaSpec { return &ViaSpec{Offset: Point{dx, dy}} }

// Via is a layer-change contact.
//
type Via struct {
	Grid   string
	At     Point
	Lo, Hi int
}

// Segment is a straight wire on a single layer.
//
type Segment struct {
	Layer  int
	P0, P1 Point
}

// covers reports whether s fully covers o. Both segments must be on the
// same layer and line.
//
func (s Segment) covers(o Segment) bool {
	if s.Layer != o.Layer {
		return false
	}
	a, b := R(s.P0.X, s.P0.Y, s.P1.X, s.P1.Y), R(o.P0.X, o.P0.Y, o.P1.X, o.P1.Y)
	return b.In(a)
}

type segEntry struct {
	grid string
	seg  Segment
}

// RouteSpec is a route request.
//
type RouteSpec struct {
	Grid       string
	From, To   Endpoint
	Dir        Direction
	Via0, Via1 *ViaSpec
	End0, End1 EndStyle
}

// Route is a resolved route. Path holds the endpoints, with the corner
// between them for L routes. Dir may differ from the requested direction
// when an L route degenerates into a straight one.
//
type Route struct {
	RouteSpec
	Path      []Point
	Segments  []Segment
	Vias      []Via
	Redundant bool
}

// Route resolves and adds a route. A route whose segments and vias are all
// covered by earlier routes is a no-op: it is returned with Redundant set and
// produces no record.
//
func (d *Design) Route(rs RouteSpec) (*Route, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	g, err := d.grids.Grid(rs.Grid)
	if err != nil {
		return nil, err
	}
	hl, vl := g.Kind.Layers()
	if hl == 0 || g.Axes() != AxisXY {
		return nil, Errorf(NotFound, []string{rs.Grid, g.Kind.String()}, "grid has no routing layers")
	}

	r0, pl0, err := d.resolve(rs.From, rs.Grid)
	if err != nil {
		return nil, err
	}
	r1, pl1, err := d.resolve(rs.To, rs.Grid)
	if err != nil {
		return nil, err
	}
	r0, r1 = r0.Add(rs.From.Offset), r1.Add(rs.To.Offset)
	c0, c1 := r0.Center(), r1.Center()

	rt := &Route{RouteSpec: rs}
	switch rs.Dir {
	case X:
		if c0.Y != c1.Y {
			return nil, Errorf(MisalignedRoute, []string{rs.From.String(), rs.To.String()}, "x route endpoints at y=%d and y=%d", c0.Y, c1.Y)
		}
	case Y:
		if c0.X != c1.X {
			return nil, Errorf(MisalignedRoute, []string{rs.From.String(), rs.To.String()}, "y route endpoints at x=%d and x=%d", c0.X, c1.X)
		}
	case LHorizontalFirst, LVerticalFirst:
		if c0.Y == c1.Y {
			rt.Dir = X
		} else if c0.X == c1.X {
			rt.Dir = Y
		}
	default:
		return nil, Errorf(Syntax, []string{rs.Dir.String()}, "invalid route direction")
	}

	var p0, p1 Point
	switch rt.Dir {
	case X:
		p0, p1 = xEnds(r0, r1, c0, c1, rs.End0, rs.End1)
		rt.Path = []Point{p0, p1}
		rt.Segments = []Segment{{hl, p0, p1}}
	case Y:
		p0, p1 = yEnds(r0, r1, c0, c1, rs.End0, rs.End1)
		rt.Path = []Point{p0, p1}
		rt.Segments = []Segment{{vl, p0, p1}}
	case LHorizontalFirst:
		corner := Point{c1.X, c0.Y}
		p0, _ = xEnds(r0, rectAt(corner), c0, corner, rs.End0, Truncate)
		_, p1 = yEnds(rectAt(corner), r1, corner, c1, Truncate, rs.End1)
		rt.Path = []Point{p0, corner, p1}
		rt.Segments = []Segment{{hl, p0, corner}, {vl, corner, p1}}
	case LVerticalFirst:
		corner := Point{c0.X, c1.Y}
		p0, _ = yEnds(r0, rectAt(corner), c0, corner, rs.End0, Truncate)
		_, p1 = xEnds(rectAt(corner), r1, corner, c1, Truncate, rs.End1)
		rt.Path = []Point{p0, corner, p1}
		rt.Segments = []Segment{{vl, p0, corner}, {hl, corner, p1}}
	}

	first, last := rt.Segments[0], rt.Segments[len(rt.Segments)-1]
	if rs.Via0 == nil && pl0 != 0 && pl0 != first.Layer {
		return nil, Errorf(CrossLayerNoVia, []string{rs.From.String(), "M" + strconv.Itoa(pl0), "M" + strconv.Itoa(first.Layer)}, "route starts on another layer without a via")
	}
	if rs.Via1 == nil && pl1 != 0 && pl1 != last.Layer {
		return nil, Errorf(CrossLayerNoVia, []string{rs.To.String(), "M" + strconv.Itoa(pl1), "M" + strconv.Itoa(last.Layer)}, "route ends on another layer without a via")
	}

	if rs.Via0 != nil {
		rt.Vias = append(rt.Vias, endVia(rs.Grid, p0, first.Layer, pl0, rs.Via0))
	}
	if len(rt.Path) == 3 {
		rt.Vias = append(rt.Vias, Via{rs.Grid, rt.Path[1], min(hl, vl), max(hl, vl)})
	}
	if rs.Via1 != nil {
		rt.Vias = append(rt.Vias, endVia(rs.Grid, p1, last.Layer, pl1, rs.Via1))
	}

	if d.covered(rt) {
		rt.Redundant = true
		if glog.V(2) {
			glog.Infof("%s: redundant route %s -> %s on %s", d.Name, rs.From, rs.To, rs.Grid)
		}
		return rt, nil
	}

	d.routes = append(d.routes, rt)
	for _, s := range rt.Segments {
		d.segs = append(d.segs, segEntry{rs.Grid, s})
		d.useLayer(s.Layer)
	}
	d.emit(rt)
	for _, v := range rt.Vias {
		d.addVia(v)
	}
	return rt, nil
}

func rectAt(p Point) Rect { return Rect{p.X, p.Y, p.X, p.Y} }

// xEnds returns the endpoints of a horizontal run from region r0 to r1.
//
func xEnds(r0, r1 Rect, c0, c1 Point, e0, e1 EndStyle) (Point, Point) {
	p0, p1 := Point{c0.X, c0.Y}, Point{c1.X, c0.Y}
	if c0.X <= c1.X {
		if e0 == Extend {
			p0.X = r0.X0
		}
		if e1 == Extend {
			p1.X = r1.X1
		}
	} else {
		if e0 == Extend {
			p0.X = r0.X1
		}
		if e1 == Extend {
			p1.X = r1.X0
		}
	}
	return p0, p1
}

// yEnds returns the endpoints of a vertical run from region r0 to r1.
//
func yEnds(r0, r1 Rect, c0, c1 Point, e0, e1 EndStyle) (Point, Point) {
	p0, p1 := Point{c0.X, c0.Y}, Point{c0.X, c1.Y}
	if c0.Y <= c1.Y {
		if e0 == Extend {
			p0.Y = r0.Y0
		}
		if e1 == Extend {
			p1.Y = r1.Y1
		}
	} else {
		if e0 == Extend {
			p0.Y = r0.Y1
		}
		if e1 == Extend {
			p1.Y = r1.Y0
		}
	}
	return p0, p1
}

func endVia(grid string, at Point, seg, pin int, vs *ViaSpec) Via {
	other := vs.Layer
	if other == 0 {
		switch {
		case pin != 0 && pin != seg:
			other = pin
		case seg > 1:
			other = seg - 1
		default:
			other = seg + 1
		}
	}
	return Via{grid, at.Add(vs.Offset), min(seg, other), max(seg, other)}
}

// covered reports whether every segment and via of rt already exists.
//
func (d *Design) covered(rt *Route) bool {
	for _, v := range rt.Vias {
		if !d.vias[v] {
			return false
		}
	}
next:
	for _, s := range rt.Segments {
		for _, e := range d.segs {
			if e.grid == rt.Grid && e.seg.covers(s) {
				continue next
			}
		}
		return false
	}
	return true
}

func (d *Design) addVia(v Via) bool {
	if d.vias[v] {
		return false
	}
	d.vias[v] = true
	d.useLayer(v.Hi)
	d.emit(&v)
	return true
}

// Via inserts an explicit via on grid at a coordinate or pin center. If lo and
// hi are both 0, the via connects the two routing layers of the grid. A via
// identical to an existing one is not duplicated.
//
func (d *Design) Via(grid string, at Endpoint, lo, hi int) (*Via, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	g, err := d.grids.Grid(grid)
	if err != nil {
		return nil, err
	}
	if lo == 0 && hi == 0 {
		h, v := g.Kind.Layers()
		if h == 0 {
			return nil, Errorf(NotFound, []string{grid, g.Kind.String()}, "grid has no routing layers")
		}
		lo, hi = min(h, v), max(h, v)
	}
	if lo <= 0 || lo >= hi {
		return nil, Errorf(OffGrid, []string{grid, strconv.Itoa(lo), strconv.Itoa(hi)}, "invalid via layer pair")
	}
	r, _, err := d.resolve(at, grid)
	if err != nil {
		return nil, err
	}
	v := Via{Grid: grid, At: r.Center().Add(at.Offset), Lo: lo, Hi: hi}
	d.addVia(v)
	return &v, nil
}
