// Package capdac builds binary-weighted capacitor arrays for SAR DACs.
//
// A B-bit array is a single row:
//
//	XB0 XD0 XC0 XC1 ... XC<B-1> XD1 XB1
//
// where XB are boundary cells, XD dummy units and XC<i> an array of 2^i unit
// capacitors. Top plates are shorted together, bottom plates are strapped
// per bit.
//
package capdac

import (
	"strconv"

	"github.com/golang/glog"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
)

// MaxBits is the largest supported resolution.
//
const MaxBits = 10

// Params are the parameters of a cap-DAC array.
//
type Params struct {
	Bits int

	// Grid is the strap and pin grid. Empty selects cells.GridM1M2.
	Grid string

	// Bounds is an optional placement boundary.
	Bounds *icgen.Rect
}

// Result is a finished cap-DAC array.
//
type Result struct {
	Design *icgen.Design
	Bits   []string // unit array instance names, LSB first
}

// Unit returns the name of the unit array of bit i.
//
func Unit(i int) string { return "XC" + strconv.Itoa(i) }

// New builds a cap-DAC array in a new design over lib.
//
func New(name string, lib *icgen.Library, p Params) (*Result, error) {
	d, err := icgen.NewDesign(name, lib)
	if err != nil {
		return nil, err
	}
	return Build(d, p)
}

// Build builds a cap-DAC array into d and finishes d.
//
func Build(d *icgen.Design, p Params) (*Result, error) {
	if p.Bits < 1 || p.Bits > MaxBits {
		return nil, icgen.Errorf(icgen.PlanOutOfRange, []string{strconv.Itoa(p.Bits)}, "resolution not in [1, %d]", MaxBits)
	}
	if p.Grid == "" {
		p.Grid = cells.GridM1M2
	}
	if p.Bounds != nil {
		if err := d.SetBounds(*p.Bounds); err != nil {
			return nil, err
		}
	}
	res := &Result{Design: d}

	var c icgen.Cursor
	place := func(name, tmpl string, o icgen.Orientation, s icgen.Shape) error {
		if _, err := d.Place(name, tmpl, c.Next(icgen.At(0, 0), 0, 0), o, s); err != nil {
			return err
		}
		c.Last = name
		return nil
	}

	if err := place("XB0", cells.CapBound, icgen.R0, icgen.Single); err != nil {
		return nil, err
	}
	if err := place("XD0", cells.CapDummy, icgen.R0, icgen.Single); err != nil {
		return nil, err
	}
	for i := 0; i < p.Bits; i++ {
		n := Unit(i)
		if err := place(n, cells.CapUnit, icgen.R0, icgen.Shape{NX: 1 << uint(i), NY: 1}); err != nil {
			return nil, err
		}
		res.Bits = append(res.Bits, n)
	}
	if err := place("XD1", cells.CapDummy, icgen.MY, icgen.Single); err != nil {
		return nil, err
	}
	if err := place("XB1", cells.CapBound, icgen.MY, icgen.Single); err != nil {
		return nil, err
	}

	if err := straps(d, p.Grid, res.Bits); err != nil {
		return nil, err
	}
	if err := pins(d, p.Grid, res.Bits); err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	if glog.V(1) {
		glog.Infof("%s: %d-bit cap DAC, %d unit capacitors", d.Name, p.Bits, 1<<uint(p.Bits)-1)
	}
	return res, nil
}

// straps shorts all top plates with one horizontal route and the bottom
// plates of every multi-unit bit with one route each.
//
func straps(d *icgen.Design, grid string, bits []string) error {
	if len(bits) > 1 {
		_, err := d.Route(icgen.RouteSpec{
			Grid: grid,
			From: icgen.PinAt(icgen.Ref(bits[0], cells.PinTop)),
			To:   icgen.PinAt(icgen.Ref(bits[len(bits)-1], cells.PinTop)),
			Dir:  icgen.X,
		})
		if err != nil {
			return err
		}
	}
	for i, b := range bits {
		n := 1 << uint(i)
		if n < 2 {
			continue
		}
		_, err := d.Route(icgen.RouteSpec{
			Grid: grid,
			From: icgen.PinAt(icgen.Ref(b, cells.PinBot).At(0)),
			To:   icgen.PinAt(icgen.Ref(b, cells.PinBot).At(n - 1)),
			Dir:  icgen.X,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// pins exports ctop on the LSB top plate and cbot<i> on the first unit of
// every bit.
//
func pins(d *icgen.Design, grid string, bits []string) error {
	if _, err := d.ExportPin("ctop", grid, 0, icgen.PinAt(icgen.Ref(bits[0], cells.PinTop).At(0))); err != nil {
		return err
	}
	for i, b := range bits {
		if _, err := d.ExportPin(icgen.BusName("cbot", i, i), grid, 0, icgen.PinAt(icgen.Ref(b, cells.PinBot).At(0))); err != nil {
			return err
		}
	}
	return nil
}
