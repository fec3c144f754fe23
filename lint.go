package icgen

import (
	"io"

	"github.com/pkg/errors"
)

type viaKey struct {
	grid string
	at   Point
}

type layerPair struct{ lo, hi int }

// cornerLayers returns the via layer pair joining the two routing layers of
// grid. exact is false if grids cannot tell.
//
func cornerLayers(grids *Registry, grid string) (p layerPair, exact bool) {
	if grids == nil {
		return p, false
	}
	g, err := grids.Grid(grid)
	if err != nil {
		return p, false
	}
	h, v := g.Kind.Layers()
	if h == 0 {
		return p, false
	}
	return layerPair{min(h, v), max(h, v)}, true
}

// Lint checks the invariants of a record stream:
//
//	- PLACE and PIN names are unique
//	- ROUTE and PIN references name instances placed on an earlier line
//	- ROUTE paths are axis aligned and consistent with their direction
//	- every L-route corner carries exactly one VIA between the two routing
//	  layers of the route's grid, and no VIA is repeated
//	- the stream ends with a single BOUND record
//
// Routing layers are looked up in grids. If grids is nil or does not know a
// grid, any pair of adjacent layers is accepted at a corner.
//
// It returns one error per violation, each carrying an engine error kind.
//
func Lint(lines []*Line, grids *Registry) []error {
	var errs []error
	fail := func(l *Line, k Kind, subject string, format string, args ...interface{}) {
		errs = append(errs, errors.Wrapf(Errorf(k, []string{subject}, format, args...), "line %d", l.No))
	}
	placed := make(map[string]bool)
	pins := make(map[string]bool)
	vias := make(map[Via]bool)
	viaAt := make(map[viaKey][]layerPair)
	type corner struct {
		l   *Line
		key viaKey
	}
	var corners []corner
	bounds := 0

	checkRef := func(l *Line, key string) {
		e, ok, err := l.Endpoint(key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if ok && e.Ref != nil && !placed[e.Ref.Inst] {
			fail(l, DanglingRef, e.Ref.String(), "reference to an instance not placed before")
		}
	}

	for i, l := range lines {
		if bounds > 0 {
			fail(l, Syntax, l.Kind, "record after BOUND")
		}
		switch l.Kind {
		case RecordPlace:
			name, err := l.Name("name")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if placed[name] {
				fail(l, NameCollision, name, "instance placed twice")
			}
			placed[name] = true
			for _, k := range []string{"template", "grid", "orient"} {
				if _, err := l.Name(k); err != nil {
					errs = append(errs, err)
				}
			}
			if pts, err := l.Points("shape"); err != nil {
				errs = append(errs, err)
			} else if len(pts) != 1 || pts[0].X < 1 || pts[0].Y < 1 {
				fail(l, OutOfBounds, name, "invalid shape")
			}

		case RecordPin:
			name, err := l.Name("name")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if pins[name] {
				fail(l, NameCollision, name, "pin exported twice")
			}
			pins[name] = true
			checkRef(l, "anchor")

		case RecordRoute:
			checkRef(l, "from")
			checkRef(l, "to")
			grid, err := l.Name("grid")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			ds, err := l.Name("dir")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			dir, err := ParseDirection(ds)
			if err != nil {
				fail(l, Syntax, ds, "unknown direction")
				continue
			}
			path, err := l.Points("path")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !pathMatches(dir, path) {
				fail(l, MisalignedRoute, l.Text, "path does not match direction %s", dir)
				continue
			}
			if dir.IsL() {
				corners = append(corners, corner{l, viaKey{grid, path[1]}})
			}

		case RecordVia:
			grid, err := l.Name("grid")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			at, err := l.Points("at")
			if err != nil || len(at) != 1 {
				fail(l, Syntax, l.Text, "via needs a single coordinate")
				continue
			}
			lo, hi, err := l.Layers("layers")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if lo <= 0 || lo >= hi {
				fail(l, OffGrid, l.Text, "invalid via layers %d:%d", lo, hi)
			}
			v := Via{grid, at[0], lo, hi}
			if vias[v] {
				fail(l, NameCollision, l.Text, "duplicate via")
			}
			vias[v] = true
			k := viaKey{grid, at[0]}
			viaAt[k] = append(viaAt[k], layerPair{lo, hi})

		case RecordRect:
			if b, err := l.Points("box"); err != nil || len(b) != 2 {
				fail(l, Syntax, l.Text, "rect needs a box")
			}

		case RecordBound:
			bounds++
			if _, err := l.Int("layer"); err != nil {
				errs = append(errs, err)
			}
			if i != len(lines)-1 {
				fail(l, Syntax, l.Kind, "BOUND is not the last record")
			}

		default:
			fail(l, Syntax, l.Kind, "unknown record kind")
		}
	}
	for _, c := range corners {
		want, exact := cornerLayers(grids, c.key.grid)
		n := 0
		for _, p := range viaAt[c.key] {
			if (exact && p == want) || (!exact && p.hi == p.lo+1) {
				n++
			}
		}
		switch {
		case n == 0 && len(viaAt[c.key]) == 0:
			fail(c.l, CrossLayerNoVia, c.key.at.String(), "no via at L corner on %s", c.key.grid)
		case n == 0:
			fail(c.l, CrossLayerNoVia, c.key.at.String(), "no via between the routing layers of %s at L corner", c.key.grid)
		case n > 1 && exact:
			fail(c.l, CrossLayerNoVia, c.key.at.String(), "%d vias at L corner on %s", n, c.key.grid)
		}
	}
	if bounds == 0 && len(lines) > 0 {
		l := lines[len(lines)-1]
		fail(l, Syntax, l.Kind, "missing BOUND record")
	}
	return errs
}

func pathMatches(d Direction, p []Point) bool {
	switch d {
	case X:
		return len(p) == 2 && p[0].Y == p[1].Y
	case Y:
		return len(p) == 2 && p[0].X == p[1].X
	case LHorizontalFirst:
		return len(p) == 3 && p[0].Y == p[1].Y && p[1].X == p[2].X
	case LVerticalFirst:
		return len(p) == 3 && p[0].X == p[1].X && p[1].Y == p[2].Y
	}
	return false
}

// LintStream parses and lints a record stream against grids, which may be
// nil. The first error is a parse or read failure; violations are returned
// in the slice.
//
func LintStream(r io.Reader, grids *Registry) ([]error, error) {
	lines, err := ParseStream(r)
	if err != nil {
		return nil, err
	}
	return Lint(lines, grids), nil
}
