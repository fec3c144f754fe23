// Package chain builds tapered inverter and CML chains: per-stage NMOS and
// PMOS rows of unit cells, guard rings, supply routing and top-level pins.
//
// Records are emitted stage by stage, so that a chain built from the first j
// stages of a plan (in layout order) is a prefix of the full chain up to the
// end of stage j-1.
//
package chain

import (
	"math"

	"github.com/golang/glog"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
	"github.com/tinapiao/icgen/stage"
)

// Result is a finished chain.
//
type Result struct {
	Design *icgen.Design
	N, P   *stage.Plan
	Rows   map[icgen.Device]*Row

	// StageEnd[s] is the number of records emitted once layout stage s and
	// its routes are complete.
	StageEnd []int
}

// New builds a chain in a new design over lib.
//
func New(name string, lib *icgen.Library, p Params) (*Result, error) {
	d, err := icgen.NewDesign(name, lib)
	if err != nil {
		return nil, err
	}
	return Build(d, p)
}

// Build builds a chain into d and finishes d.
//
func Build(d *icgen.Design, p Params) (*Result, error) {
	p = p.withDefaults()
	nPlan, pPlan, err := p.Plans()
	if err != nil {
		return nil, err
	}
	if p.Bounds != nil {
		if err = d.SetBounds(*p.Bounds); err != nil {
			return nil, err
		}
	}
	res := &Result{Design: d, N: nPlan, P: pPlan, Rows: make(map[icgen.Device]*Row)}
	var rows []*Row
	if p.has(icgen.PMOS) {
		rows = append(rows, &Row{Device: icgen.PMOS, Plan: pPlan})
	}
	if p.has(icgen.NMOS) {
		rows = append(rows, &Row{Device: icgen.NMOS, Plan: nPlan})
	}
	for _, r := range rows {
		res.Rows[r.Device] = r
	}

	layouts := map[icgen.Device][]stage.Stage{
		icgen.NMOS: nPlan.Layout(),
		icgen.PMOS: pPlan.Layout(),
	}
	for s := 0; s < nPlan.Len(); s++ {
		for _, r := range rows {
			first := icgen.At(0, 0)
			if pr := res.Rows[icgen.PMOS]; r.Device == icgen.NMOS && pr != nil {
				first = icgen.Below(pr.First(), -2, -1)
			}
			if err = r.placeStage(d, s, layouts[r.Device][s], first, *p.Gap); err != nil {
				return nil, err
			}
		}
		for _, r := range rows {
			units := r.Stages[s]
			if err = tie(d, p.SignalGrid, units, cells.PinIn); err != nil {
				return nil, err
			}
			if err = tie(d, p.SignalGrid, units, cells.PinOut); err != nil {
				return nil, err
			}
			if s > 0 {
				prev := r.Stages[s-1]
				if err = link(d, p.SignalGrid, prev[len(prev)-1], units[0]); err != nil {
					return nil, err
				}
			}
		}
		res.StageEnd = append(res.StageEnd, d.Len())
	}

	if p.Dummies {
		for _, r := range rows {
			if err = r.placeDummies(d); err != nil {
				return nil, err
			}
		}
	}

	rings := int(math.Floor(p.RingFactor * float64(pPlan.Total())))
	if rings < 1 {
		glog.Warningf("%s: ring factor %g gives no guard-ring cell, using 1", d.Name, p.RingFactor)
		rings = 1
	}
	for _, r := range rows {
		if err = r.placeRing(d, rings); err != nil {
			return nil, err
		}
	}

	for s := range layouts[icgen.NMOS] {
		for _, r := range rows {
			if err = Power(d, stageRow(r, s), p.PowerGrid, p.SignalGrid); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range rows {
		if err = Rails(d, r, p.RailGrid); err != nil {
			return nil, err
		}
	}

	if pr := res.Rows[icgen.PMOS]; pr != nil {
		if err = wellArea(d, pr, p.WellGrid); err != nil {
			return nil, err
		}
	}

	for _, rs := range p.Routes {
		if _, err = d.Route(rs); err != nil {
			return nil, err
		}
	}

	pins := p.Pins
	if pins == nil {
		pins = DefaultPins(p, res.Rows[icgen.NMOS])
	}
	if err = ExportPins(d, pins); err != nil {
		return nil, err
	}
	if err = d.Finish(); err != nil {
		return nil, err
	}
	return res, nil
}

// stageRow returns a view of r restricted to layout stage s.
//
func stageRow(r *Row, s int) *Row {
	return &Row{Device: r.Device, Plan: r.Plan, Stages: r.Stages[s : s+1], Rings: r.Rings}
}

// wellArea draws the nwell rectangle covering the PMOS row and its ring.
//
func wellArea(d *icgen.Design, r *Row, grid string) error {
	var bb icgen.Rect
	for i, n := range append(append([]string(nil), r.Rings...), r.First(), r.Last()) {
		inst, err := d.Instance(n)
		if err != nil {
			return err
		}
		if i == 0 {
			bb = inst.BBox()
			continue
		}
		bb = bb.Union(inst.BBox())
	}
	nw, err := d.SnapRect(grid, bb)
	if err != nil {
		return err
	}
	_, err = d.AddArea("NW", grid, nw)
	return err
}
