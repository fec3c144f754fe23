package icgen

import (
	"github.com/golang/glog"
)

// Design is the per-design store: it owns all placed instances, routes, vias,
// pins and areas of one layout, and the ordered record stream describing
// them.
//
// A Design is not safe for concurrent use. Separate designs sharing the same
// frozen Library can be built concurrently.
//
// Building a design is all-or-nothing: callers should only Emit the records
// of a design once Finish has returned without error.
//
type Design struct {
	Name string

	lib   *Library
	grids *Registry
	place string

	insts  map[string]*Instance
	order  []*Instance
	pins   map[string]*Pin
	routes []*Route
	segs   []segEntry
	vias   map[Via]bool
	areas  []*Area
	recs   []Record

	bounds   *Rect
	topLayer int
	finished bool
}

// NewDesign returns a new empty design using the templates in lib.
// The library (and its grid registry) is frozen by this call.
//
func NewDesign(name string, lib *Library) (*Design, error) {
	if lib.PlacementGrid() == "" {
		return nil, errorf(NotFound, "library has no placement grid")
	}
	lib.Freeze()
	return &Design{
		Name:  name,
		lib:   lib,
		grids: lib.grids,
		place: lib.PlacementGrid(),
		insts: make(map[string]*Instance),
		pins:  make(map[string]*Pin),
		vias:  make(map[Via]bool),
	}, nil
}

// Library returns the design's template library.
//
func (d *Design) Library() *Library { return d.lib }

// PlacementGrid returns the name of the placement grid.
//
func (d *Design) PlacementGrid() string { return d.place }

// SetBounds declares a placement boundary on the placement grid. Instances
// placed afterwards must fit inside it.
//
func (d *Design) SetBounds(r Rect) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	b := R(r.X0, r.Y0, r.X1, r.Y1)
	for _, i := range d.order {
		if !i.BBox().In(b) {
			return Errorf(OutOfBounds, []string{i.Name, i.BBox().String(), b.String()}, "existing instance outside new boundary")
		}
	}
	d.bounds = &b
	return nil
}

// Bounds returns the declared boundary, if any.
//
func (d *Design) Bounds() (Rect, bool) {
	if d.bounds == nil {
		return Rect{}, false
	}
	return *d.bounds, true
}

// Instance returns the named instance.
//
func (d *Design) Instance(name string) (*Instance, error) {
	i, ok := d.insts[name]
	if !ok {
		return nil, Errorf(NotFound, []string{name}, "unknown instance")
	}
	return i, nil
}

// Instances returns all placed instances in placement order.
//
func (d *Design) Instances() []*Instance {
	return append([]*Instance(nil), d.order...)
}

// Routes returns all routes in emission order. Redundant routes are not
// included.
//
func (d *Design) Routes() []*Route {
	return append([]*Route(nil), d.routes...)
}

// Pin returns the named top-level pin.
//
func (d *Design) Pin(name string) (*Pin, error) {
	p, ok := d.pins[name]
	if !ok {
		return nil, Errorf(NotFound, []string{name}, "unknown pin")
	}
	return p, nil
}

// Records returns the records emitted so far, in order.
//
func (d *Design) Records() []Record {
	return append([]Record(nil), d.recs...)
}

// Len returns the number of records emitted so far.
//
func (d *Design) Len() int { return len(d.recs) }

func (d *Design) emit(r Record) {
	if glog.V(2) {
		glog.Infof("%s: %s", d.Name, r)
	}
	d.recs = append(d.recs, r)
}

func (d *Design) checkOpen() error {
	if d.finished {
		return Errorf(MutationAfterFreeze, []string{d.Name}, "design is finished")
	}
	return nil
}

func (d *Design) useLayer(l int) {
	if l > d.topLayer {
		d.topLayer = l
	}
}

// AddArea adds a drawn rectangle on the named layer. The rectangle is given
// in coordinates of grid and stored on the placement grid; axes the grid does
// not define are taken from r unchanged on the placement grid.
//
func (d *Design) AddArea(layer, grid string, r Rect) (*Area, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if grid == "" {
		grid = d.place
	}
	g, err := d.grids.Grid(grid)
	if err != nil {
		return nil, err
	}
	box := r
	if grid != d.place {
		// y-only grids (NWELL) snap y outward and keep x.
		lo, err := d.grids.Convert(grid, d.place, r.Min(), Floor)
		if err != nil {
			return nil, err
		}
		hi, err := d.grids.Convert(grid, d.place, r.Max(), Ceil)
		if err != nil {
			return nil, err
		}
		box = R(lo.X, lo.Y, hi.X, hi.Y)
		if g.Axes()&AxisX == 0 {
			box.X0, box.X1 = r.X0, r.X1
		}
		if g.Axes()&AxisY == 0 {
			box.Y0, box.Y1 = r.Y0, r.Y1
		}
	}
	s := &Area{Layer: layer, Grid: d.place, Box: box}
	d.areas = append(d.areas, s)
	d.emit(s)
	return s, nil
}

// SnapRect snaps r, given on the placement grid, outward to grid. Axes the
// grid does not define are left untouched.
//
func (d *Design) SnapRect(grid string, r Rect) (Rect, error) {
	g, err := d.grids.Grid(grid)
	if err != nil {
		return Rect{}, err
	}
	lo, err := d.grids.Convert(d.place, grid, r.Min(), Floor)
	if err != nil {
		return Rect{}, err
	}
	hi, err := d.grids.Convert(d.place, grid, r.Max(), Ceil)
	if err != nil {
		return Rect{}, err
	}
	out := R(lo.X, lo.Y, hi.X, hi.Y)
	if g.Axes()&AxisX == 0 {
		out.X0, out.X1 = r.X0, r.X1
	}
	if g.Axes()&AxisY == 0 {
		out.Y0, out.Y1 = r.Y0, r.Y1
	}
	return out, nil
}

// BBox returns the bounding box of all instances and areas on the placement
// grid.
//
func (d *Design) BBox() Rect {
	var bb Rect
	first := true
	add := func(r Rect) {
		if first {
			bb, first = r, false
			return
		}
		bb = bb.Union(r)
	}
	for _, i := range d.order {
		add(i.BBox())
	}
	for _, s := range d.areas {
		add(s.Box)
	}
	for _, r := range d.routes {
		for _, s := range r.Segments {
			if b, err := d.grids.ConvertRect(r.Grid, d.place, R(s.P0.X, s.P0.Y, s.P1.X, s.P1.Y), Nearest); err == nil {
				add(b)
			}
		}
	}
	return bb
}

// Finish closes the design: it appends the BOUND record. No further changes
// are accepted.
//
func (d *Design) Finish() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	b := &Bound{Layer: d.topLayer, Grid: d.place, Box: d.BBox()}
	d.emit(b)
	d.finished = true
	if glog.V(1) {
		glog.Infof("%s: %d instances, %d routes, %d records", d.Name, len(d.order), len(d.routes), len(d.recs))
	}
	return nil
}

// Finished reports whether Finish has been called.
//
func (d *Design) Finished() bool { return d.finished }

// Emit writes all records of a finished design to sink, in order.
//
func (d *Design) Emit(sink Sink) error {
	if !d.finished {
		return Errorf(NotFound, []string{d.Name}, "design is not finished")
	}
	for _, r := range d.recs {
		if err := sink.Write(r); err != nil {
			return err
		}
	}
	return nil
}
