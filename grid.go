package icgen

import (
	"strings"
)

// GridKind selects the layer pair that routes on a grid map to.
//
type GridKind int

// Grid kinds.
//
const (
	PlacementBasic GridKind = iota
	M1M2
	M2M3
	M3M4
	NWELL
)

var gridKindNames = [...]string{
	PlacementBasic: "PlacementBasic",
	M1M2:           "M1M2",
	M2M3:           "M2M3",
	M3M4:           "M3M4",
	NWELL:          "NWELL",
}

func (k GridKind) String() string {
	if k < 0 || int(k) >= len(gridKindNames) {
		return "GridKind(?)"
	}
	return gridKindNames[k]
}

// ParseGridKind returns the GridKind with the given name (case insensitive).
//
func ParseGridKind(s string) (GridKind, error) {
	for k, n := range gridKindNames {
		if strings.EqualFold(n, s) {
			return GridKind(k), nil
		}
	}
	return 0, errorf(NotFound, "unknown grid kind %q", s)
}

// Layers returns the metal layers used by horizontal (x) and vertical (y)
// segments on grids of kind k. Both are 0 for grids that do not route.
//
func (k GridKind) Layers() (h, v int) {
	switch k {
	case M1M2:
		return 2, 1
	case M2M3:
		return 2, 3
	case M3M4:
		return 4, 3
	}
	return 0, 0
}

// Routable reports whether routes can be drawn on grids of kind k.
//
func (k GridKind) Routable() bool {
	h, _ := k.Layers()
	return h != 0
}

// Axis is a set of axes defined by a grid.
//
type Axis int

// Axis values.
//
const (
	AxisX Axis = 1 << iota
	AxisY
	AxisXY = AxisX | AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisXY:
		return "xy"
	}
	return "none"
}

// RoundMode selects how physical coordinates are snapped to a grid.
//
type RoundMode int

// Snap modes.
//
const (
	Floor RoundMode = iota
	Ceil
	Nearest
	Exact
)

// Grid is a named abstract coordinate system. Pitches are in physical units
// of the registry (see Registry.Unit). A zero pitch means that the grid does
// not define that axis.
//
type Grid struct {
	Name   string
	XPitch int
	YPitch int
	Kind   GridKind
}

// Axes returns the axes defined by g.
//
func (g *Grid) Axes() Axis {
	var a Axis
	if g.XPitch > 0 {
		a |= AxisX
	}
	if g.YPitch > 0 {
		a |= AxisY
	}
	return a
}

// Registry holds named grids. It must be frozen before designs are built
// and is then safe for concurrent use.
//
type Registry struct {
	grids   map[string]*Grid
	order   []string
	unit    int // nm per pitch unit
	unitSet bool
	frozen  bool
}

// NewRegistry returns an empty registry with a 1nm physical unit.
//
func NewRegistry() *Registry {
	return &Registry{grids: make(map[string]*Grid), unit: 1}
}

// Register defines a new grid.
//
func (r *Registry) Register(name string, xPitch, yPitch int, kind GridKind) error {
	if r.frozen {
		return Errorf(MutationAfterFreeze, []string{name}, "grid registry is frozen")
	}
	if name == "" {
		return errorf(NotFound, "empty grid name")
	}
	if xPitch < 0 || yPitch < 0 || xPitch == 0 && yPitch == 0 {
		return Errorf(OffGrid, []string{name}, "invalid pitches %d, %d", xPitch, yPitch)
	}
	if g, ok := r.grids[name]; ok {
		if g.XPitch == xPitch && g.YPitch == yPitch && g.Kind == kind {
			return nil
		}
		return Errorf(NameCollision, []string{name}, "grid already registered with a different definition")
	}
	r.grids[name] = &Grid{Name: name, XPitch: xPitch, YPitch: yPitch, Kind: kind}
	r.order = append(r.order, name)
	return nil
}

// SetUnit sets the physical size in nm of one pitch unit.
//
func (r *Registry) SetUnit(nm int) error {
	if r.frozen {
		return errorf(MutationAfterFreeze, "grid registry is frozen")
	}
	if nm <= 0 {
		return errorf(OffGrid, "invalid grid unit %d", nm)
	}
	r.unit, r.unitSet = nm, true
	return nil
}

// UnitSet reports whether SetUnit has been called.
//
func (r *Registry) UnitSet() bool { return r.unitSet }

// Unit returns the physical size in nm of one pitch unit.
//
func (r *Registry) Unit() int { return r.unit }

// Freeze makes the registry read-only.
//
func (r *Registry) Freeze() {
	if !r.frozen {
		r.frozen = true
	}
}

// Frozen reports whether the registry has been frozen.
//
func (r *Registry) Frozen() bool { return r.frozen }

// Grid returns the grid with the given name.
//
func (r *Registry) Grid(name string) (*Grid, error) {
	g, ok := r.grids[name]
	if !ok {
		return nil, Errorf(NotFound, []string{name}, "unknown grid")
	}
	return g, nil
}

// Grids returns all grids in registration order.
//
func (r *Registry) Grids() []*Grid {
	gs := make([]*Grid, len(r.order))
	for i, n := range r.order {
		gs[i] = r.grids[n]
	}
	return gs
}

// AxisOf returns the axes defined by the named grid.
//
func (r *Registry) AxisOf(grid string) (Axis, error) {
	g, err := r.Grid(grid)
	if err != nil {
		return 0, err
	}
	return g.Axes(), nil
}

// CoordToPhys converts grid coordinates to physical coordinates in nm.
// Undefined axes map to 0.
//
func (r *Registry) CoordToPhys(grid string, p Point) (Point, error) {
	g, err := r.Grid(grid)
	if err != nil {
		return Point{}, err
	}
	return Point{p.X * g.XPitch * r.unit, p.Y * g.YPitch * r.unit}, nil
}

// PhysToCoord converts physical coordinates in nm to grid coordinates.
// Undefined axes map to 0. With mode Exact, it fails with OffGrid if p does
// not lie on the grid.
//
func (r *Registry) PhysToCoord(grid string, p Point, mode RoundMode) (Point, error) {
	g, err := r.Grid(grid)
	if err != nil {
		return Point{}, err
	}
	x, err := snap(p.X, g.XPitch*r.unit, mode)
	if err != nil {
		return Point{}, Errorf(OffGrid, []string{grid, p.String()}, "x not on grid")
	}
	y, err := snap(p.Y, g.YPitch*r.unit, mode)
	if err != nil {
		return Point{}, Errorf(OffGrid, []string{grid, p.String()}, "y not on grid")
	}
	return Point{x, y}, nil
}

// Convert converts grid coordinates on grid from to grid coordinates on grid
// to. Axes undefined on from are taken as 0; axes undefined on to map to 0.
//
func (r *Registry) Convert(from, to string, p Point, mode RoundMode) (Point, error) {
	if from == to {
		return p, nil
	}
	ph, err := r.CoordToPhys(from, p)
	if err != nil {
		return Point{}, err
	}
	return r.PhysToCoord(to, ph, mode)
}

// ConvertRect converts a rectangle between grids, snapping each corner with
// mode.
//
func (r *Registry) ConvertRect(from, to string, rc Rect, mode RoundMode) (Rect, error) {
	if from == to {
		return rc, nil
	}
	p0, err := r.Convert(from, to, rc.Min(), mode)
	if err != nil {
		return Rect{}, err
	}
	p1, err := r.Convert(from, to, rc.Max(), mode)
	if err != nil {
		return Rect{}, err
	}
	return R(p0.X, p0.Y, p1.X, p1.Y), nil
}

var errOffGrid = errorf(OffGrid, "not on grid")

func snap(v, pitch int, mode RoundMode) (int, error) {
	if pitch == 0 {
		return 0, nil
	}
	switch mode {
	case Floor:
		return floorDiv(v, pitch), nil
	case Ceil:
		return ceilDiv(v, pitch), nil
	case Nearest:
		return floorDiv(2*v+pitch, 2*pitch), nil
	default:
		if v%pitch != 0 {
			return 0, errOffGrid
		}
		return v / pitch, nil
	}
}
