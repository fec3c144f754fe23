package chain

import (
	"strconv"

	"github.com/golang/glog"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
	"github.com/tinapiao/icgen/stage"
)

// Row is the placed unit cells of one device row.
//
type Row struct {
	Device icgen.Device
	Plan   *stage.Plan
	Stages [][]string // instance names, per stage in layout order
	Rings  []string   // guard-ring cells, left to right

	cur icgen.Cursor
}

// First returns the first unit cell of the row.
//
func (r *Row) First() string { return r.Stages[0][0] }

// Last returns the last unit cell of the row.
//
func (r *Row) Last() string {
	s := r.Stages[len(r.Stages)-1]
	return s[len(s)-1]
}

func unitName(dev icgen.Device, s, j int) string {
	p := "XN"
	if dev == icgen.PMOS {
		p = "XP"
	}
	return p + strconv.Itoa(s) + "_" + strconv.Itoa(j)
}

func ringName(dev icgen.Device, k int) string {
	if dev == icgen.PMOS {
		return "XNW" + strconv.Itoa(k)
	}
	return "XPS" + strconv.Itoa(k)
}

// variantOffset returns the offset between two consecutive unit cells of a
// stage. Two three-finger cells share one diffusion column.
//
func variantOffset(prev, next stage.Variant) icgen.Point {
	if prev == stage.ThreeFinger && next == stage.ThreeFinger {
		return icgen.Pt(-1, 0)
	}
	return icgen.Point{}
}

// placeStage places the unit cells of layout stage s. The first cell of the
// row is placed at first; the first cell of every following stage right of
// the previous stage, moved by gap.
//
func (r *Row) placeStage(d *icgen.Design, s int, st stage.Stage, first icgen.Anchor, gap icgen.Point) error {
	names := make([]string, len(st.Mix))
	for j, v := range st.Mix {
		var a icgen.Anchor
		switch {
		case j > 0:
			off := variantOffset(st.Mix[j-1], v)
			a = icgen.RightOf(r.cur.Last, off.X, off.Y)
		default:
			a = r.cur.Next(first, gap.X, gap.Y)
		}
		names[j] = unitName(r.Device, s, j)
		if _, err := d.Place(names[j], cells.Unit(r.Device, v), a, icgen.R0, icgen.Single); err != nil {
			return err
		}
		r.cur.Last = names[j]
	}
	r.Stages = append(r.Stages, names)
	if glog.V(1) {
		glog.Infof("%s: %s stage %d: %d fingers as %v", d.Name, r.Device, s, st.Fingers, st.Mix)
	}
	return nil
}

// tie connects pin of every unit cell of a stage with a horizontal route
// between the outer cells and a via on each inner cell.
//
func tie(d *icgen.Design, grid string, units []string, pin string) error {
	if len(units) < 2 {
		return nil
	}
	_, err := d.Route(icgen.RouteSpec{
		Grid: grid,
		From: icgen.PinAt(icgen.Ref(units[0], pin)),
		To:   icgen.PinAt(icgen.Ref(units[len(units)-1], pin)),
		Dir:  icgen.X,
		Via0: icgen.Drop(0, 0),
		Via1: icgen.Drop(0, 0),
	})
	if err != nil {
		return err
	}
	for _, u := range units[1 : len(units)-1] {
		if _, err = d.Via(grid, icgen.PinAt(icgen.Ref(u, pin)), 0, 0); err != nil {
			return err
		}
	}
	return nil
}

// link routes the output of the last cell of a stage to the input of the
// first cell of the next one, vertical first.
//
func link(d *icgen.Design, grid, from, to string) error {
	_, err := d.Route(icgen.RouteSpec{
		Grid: grid,
		From: icgen.PinAt(icgen.Ref(from, cells.PinOut)),
		To:   icgen.PinAt(icgen.Ref(to, cells.PinIn)),
		Dir:  icgen.LVerticalFirst,
		Via1: icgen.Drop(0, 0),
		End0: icgen.Truncate,
		End1: icgen.Extend,
	})
	return err
}

// placeDummies places an edge dummy left of the first and right of the last
// unit cell of the row.
//
func (r *Row) placeDummies(d *icgen.Design) error {
	p := "XDN"
	if r.Device == icgen.PMOS {
		p = "XDP"
	}
	t := cells.Dummy(r.Device)
	if _, err := d.Place(p+"0", t, icgen.LeftOf(r.First(), 0, 0), icgen.R0, icgen.Single); err != nil {
		return err
	}
	_, err := d.Place(p+"1", t, icgen.RightOf(r.Last(), 0, 0), icgen.MY, icgen.Single)
	return err
}

// placeRing places n guard-ring cells next to the row: an nwell ring above
// the first PMOS cell, a psub ring below the first NMOS cell.
//
func (r *Row) placeRing(d *icgen.Design, n int) error {
	t, _ := cells.Ring(r.Device)
	var c icgen.Cursor
	first := icgen.Below(r.First(), -4, -1)
	if r.Device == icgen.PMOS {
		first = icgen.Above(r.First(), -3, 1)
	}
	for k := 0; k < n; k++ {
		name := ringName(r.Device, k)
		if _, err := d.Place(name, t, c.Next(first, 0, 0), icgen.R0, icgen.Single); err != nil {
			return err
		}
		c.Last = name
		r.Rings = append(r.Rings, name)
	}
	return nil
}
