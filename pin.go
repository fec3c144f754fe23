package icgen

// Endpoint is a route or pin anchor: either a pin reference or a coordinate,
// plus an offset. Coordinates and offsets are in units of the grid the
// endpoint is used on, unless Grid names another grid, in which case At is
// converted and must land exactly on the target grid.
//
type Endpoint struct {
	Ref    *PinRef
	At     Point
	Grid   string
	Offset Point
}

// PinAt returns an endpoint on a pin.
//
func PinAt(r PinRef) Endpoint { return Endpoint{Ref: &r} }

// Coord returns an endpoint at a grid coordinate.
//
func Coord(x, y int) Endpoint { return Endpoint{At: Point{x, y}} }

// Plus returns a copy of e moved by (dx, dy).
//
func (e Endpoint) Plus(dx, dy int) Endpoint {
	e.Offset = e.Offset.Add(Point{dx, dy})
	return e
}

// IsPin reports whether e references a pin.
//
func (e Endpoint) IsPin() bool { return e.Ref != nil }

func (e Endpoint) String() string {
	if e.Ref == nil {
		return e.At.Add(e.Offset).String()
	}
	if e.Offset == (Point{}) {
		return e.Ref.String()
	}
	return e.Ref.String() + "+" + e.Offset.String()
}

// ResolvePin returns the absolute rectangle of a pin on the placement grid,
// together with the pin layer.
//
// Without an index, the rectangle covers all instance repetitions and all
// pin array elements. An index selects instance repetitions when the
// instance shape is larger than 1×1, and pin array elements otherwise.
//
func (d *Design) ResolvePin(ref PinRef) (Rect, int, error) {
	inst, ok := d.insts[ref.Inst]
	if !ok {
		return Rect{}, 0, Errorf(DanglingRef, []string{ref.String()}, "unknown instance %s", ref.Inst)
	}
	t := inst.Template
	ps, err := t.Pin(ref.Pin)
	if err != nil {
		return Rect{}, 0, Errorf(DanglingRef, []string{ref.String()}, "template %s has no pin %s", t.Name, ref.Pin)
	}
	local := func(c, r int) Rect {
		return inst.Orient.apply(ps.Elem(c, r), t.Width, t.Height)
	}
	elem := func(ic, ir, pc, pr int) Rect {
		return local(pc, pr).Add(inst.elemOrigin(ic, ir))
	}

	instArray := inst.Shape.NX*inst.Shape.NY > 1
	var sel []Index
	if ref.Index != nil {
		for i := 0; i < ref.Index.Len(); i++ {
			sel = append(sel, ref.Index.At(i))
		}
	}

	var out Rect
	first := true
	add := func(r Rect) {
		if first {
			out, first = r, false
			return
		}
		out = out.Union(r)
	}
	switch {
	case len(sel) == 0:
		add(elem(0, 0, 0, 0))
		add(elem(inst.Shape.NX-1, inst.Shape.NY-1, ps.Cols-1, ps.Rows-1))
		// mirrored orientations swap the extreme elements; cover both corners.
		add(elem(inst.Shape.NX-1, inst.Shape.NY-1, 0, 0))
		add(elem(0, 0, ps.Cols-1, ps.Rows-1))
	case instArray:
		for _, x := range sel {
			if x.Col < 0 || x.Col >= inst.Shape.NX || x.Row < 0 || x.Row >= inst.Shape.NY {
				return Rect{}, 0, Errorf(DanglingRef, []string{ref.String()}, "index out of instance shape %s", inst.Shape)
			}
			add(elem(x.Col, x.Row, 0, 0))
			add(elem(x.Col, x.Row, ps.Cols-1, ps.Rows-1))
		}
	default:
		for _, x := range sel {
			if x.Col < 0 || x.Col >= ps.Cols || x.Row < 0 || x.Row >= ps.Rows {
				return Rect{}, 0, Errorf(DanglingRef, []string{ref.String()}, "index out of pin array %dx%d", ps.Cols, ps.Rows)
			}
			add(elem(0, 0, x.Col, x.Row))
		}
	}
	return out, ps.Layer, nil
}

// ResolvePinOn returns the rectangle of a pin converted to the named grid.
//
func (d *Design) ResolvePinOn(ref PinRef, grid string) (Rect, int, error) {
	r, l, err := d.ResolvePin(ref)
	if err != nil {
		return Rect{}, 0, err
	}
	r, err = d.grids.ConvertRect(d.place, grid, r, Nearest)
	if err != nil {
		return Rect{}, 0, err
	}
	return r, l, nil
}

// resolve returns the region covered by e on grid, before applying e's
// offset, and the layer of the pin (0 for coordinates).
//
func (d *Design) resolve(e Endpoint, grid string) (Rect, int, error) {
	if e.Ref != nil {
		return d.ResolvePinOn(*e.Ref, grid)
	}
	p := e.At
	if e.Grid != "" && e.Grid != grid {
		var err error
		if p, err = d.grids.Convert(e.Grid, grid, e.At, Exact); err != nil {
			return Rect{}, 0, Errorf(OffGrid, []string{e.At.String(), e.Grid, grid}, "coordinate does not snap")
		}
	}
	return Rect{p.X, p.Y, p.X, p.Y}, 0, nil
}

// Pin is an exported top-level pin.
//
type Pin struct {
	Name   string
	Grid   string
	Layer  int
	Anchor Endpoint
	Box    Rect // on Grid
}

// ExportPin exports a top-level pin attached to a pin reference or a
// coordinate. If layer is 0, the layer of the referenced pin is used.
//
func (d *Design) ExportPin(name, grid string, layer int, at Endpoint) (*Pin, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if _, ok := d.pins[name]; ok {
		return nil, Errorf(NameCollision, []string{name}, "pin name already exported")
	}
	if _, err := d.grids.Grid(grid); err != nil {
		return nil, err
	}
	r, l, err := d.resolve(at, grid)
	if err != nil {
		return nil, err
	}
	if layer == 0 {
		layer = l
	}
	p := &Pin{Name: name, Grid: grid, Layer: layer, Anchor: at, Box: r.Add(at.Offset)}
	d.pins[name] = p
	d.useLayer(layer)
	d.emit(p)
	return p, nil
}
