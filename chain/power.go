package chain

import (
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
)

// Power connects the supply pin of every unit cell of row to the nearest
// guard-ring cell with a vertical route on grid, then straps the supply pins
// of each stage together with a horizontal route on strapGrid. Stages are
// walked left to right. A unit whose supply pin lies outside the extent of
// its nearest ring cell is an OutOfBounds error.
//
func Power(d *icgen.Design, row *Row, grid, strapGrid string) error {
	if len(row.Rings) == 0 {
		return icgen.Errorf(icgen.DanglingRef, []string{row.Device.String()}, "row has no guard ring")
	}
	supply := cells.Supply(row.Device)
	_, ringPin := cells.Ring(row.Device)

	rings := make([]icgen.Rect, len(row.Rings))
	for k, n := range row.Rings {
		r, _, err := d.ResolvePinOn(icgen.Ref(n, ringPin), grid)
		if err != nil {
			return err
		}
		rings[k] = r
	}

	for _, units := range row.Stages {
		for _, u := range units {
			ref := icgen.Ref(u, supply)
			ur, _, err := d.ResolvePinOn(ref, grid)
			if err != nil {
				return err
			}
			k := nearest(rings, ur.Center().X)
			dx := ur.Center().X - rings[k].Center().X
			if dx < -rings[k].Dx()/2 || dx > rings[k].Dx()/2 {
				return icgen.Errorf(icgen.OutOfBounds, []string{u, row.Rings[k]}, "unit is not covered by the nearest guard-ring cell")
			}
			_, err = d.Route(icgen.RouteSpec{
				Grid: grid,
				From: icgen.PinAt(ref),
				To:   icgen.PinAt(icgen.Ref(row.Rings[k], ringPin)).Plus(dx, 0),
				Dir:  icgen.Y,
				Via0: icgen.Drop(0, 0),
			})
			if err != nil {
				return err
			}
		}
		if len(units) < 2 {
			continue
		}
		_, err := d.Route(icgen.RouteSpec{
			Grid: strapGrid,
			From: icgen.PinAt(icgen.Ref(units[0], supply)),
			To:   icgen.PinAt(icgen.Ref(units[len(units)-1], supply)),
			Dir:  icgen.X,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// nearest returns the index of the rect whose center is closest to x. Ties go
// to the leftmost one.
//
func nearest(rs []icgen.Rect, x int) int {
	best, dist := 0, -1
	for i, r := range rs {
		dx := r.Center().X - x
		if dx < 0 {
			dx = -dx
		}
		if dist < 0 || dx < dist {
			best, dist = i, dx
		}
	}
	return best
}

// Rails draws a horizontal supply rail on grid across the guard ring of row,
// with vias down to the ring at both ends.
//
func Rails(d *icgen.Design, row *Row, grid string) error {
	if len(row.Rings) == 0 {
		return icgen.Errorf(icgen.DanglingRef, []string{row.Device.String()}, "row has no guard ring")
	}
	_, pin := cells.Ring(row.Device)
	_, err := d.Route(icgen.RouteSpec{
		Grid: grid,
		From: icgen.PinAt(icgen.Ref(row.Rings[0], pin)),
		To:   icgen.PinAt(icgen.Ref(row.Rings[len(row.Rings)-1], pin)),
		Dir:  icgen.X,
		Via0: icgen.Drop(0, 0),
		Via1: icgen.Drop(0, 0),
	})
	return err
}
