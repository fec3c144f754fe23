package icgen_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func newDesign(t *testing.T, name string) *icgen.Design {
	t.Helper()
	lib, err := cells.Library(0)
	if err != nil {
		t.Fatal(err)
	}
	d, err := icgen.NewDesign(name, lib)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func place(t *testing.T, d *icgen.Design, name, tmpl string, a icgen.Anchor) *icgen.Instance {
	t.Helper()
	i, err := d.Place(name, tmpl, a, icgen.R0, icgen.Single)
	if err != nil {
		trace(t, err)
		t.Fatalf("%s: %v", name, err)
	}
	return i
}

func TestPlace_relative(t *testing.T) {
	d := newDesign(t, "rel")
	place(t, d, "A", "nmos_2f", icgen.At(0, 0))

	data := []struct {
		name string
		tmpl string
		a    icgen.Anchor
		at   icgen.Point
	}{
		{"right", "nmos_2f", icgen.RightOf("A", 0, 0), icgen.Pt(4, 0)},
		{"right3", "nmos_3f", icgen.RightOf("right", -1, 0), icgen.Pt(7, 0)},
		{"left", "nmos_dummy", icgen.LeftOf("A", 0, 0), icgen.Pt(-2, 0)},
		{"below", "nmos_2f", icgen.Below("A", -2, -1), icgen.Pt(-2, -7)},
		{"above", cells.NWellRing, icgen.Above("A", -3, 1), icgen.Pt(-3, 7)},
		{"abs", "nmos_2f", icgen.At(20, 20), icgen.Pt(20, 20)},
		{"m3m4", "nmos_2f", icgen.RightOf("abs", 1, 0).On(cells.GridM3M4), icgen.Pt(26, 20)},
		{"nw", "nmos_2f", icgen.Above("abs", 0, 1).On(cells.GridNW), icgen.Pt(20, 27)},
	}
	for _, td := range data {
		t.Run(td.name, func(t *testing.T) {
			i := place(t, d, td.name, td.tmpl, td.a)
			if i.Origin != td.at {
				t.Fatalf("got origin %s, expected %s", i.Origin, td.at)
			}
		})
	}
	if n := len(d.Instances()); n != len(data)+1 {
		t.Fatalf("got %d instances, expected %d", n, len(data)+1)
	}
}

func TestPlace_cursor(t *testing.T) {
	d := newDesign(t, "cursor")
	var c icgen.Cursor
	if !c.Empty() {
		t.Fatal("zero cursor not empty")
	}
	for i, n := range []string{"C0", "C1", "C2"} {
		inst := place(t, d, n, cells.CapUnit, c.Next(icgen.At(2, 0), 1, 0))
		c.Last = n
		if want := icgen.Pt(2+5*i, 0); inst.Origin != want {
			t.Fatalf("%s: got %s, expected %s", n, inst.Origin, want)
		}
	}
}

func TestPlace_shape(t *testing.T) {
	d := newDesign(t, "shape")
	i, err := d.Place("XC", cells.CapUnit, icgen.At(0, 0), icgen.R0, icgen.Shape{NX: 4, NY: 2})
	if err != nil {
		t.Fatal(err)
	}
	if bb := i.BBox(); bb != icgen.R(0, 0, 16, 8) {
		t.Fatalf("got bbox %s", bb)
	}
	j := place(t, d, "XD", cells.CapDummy, icgen.RightOf("XC", 0, 0))
	if j.Origin != icgen.Pt(16, 0) {
		t.Fatalf("got origin %s", j.Origin)
	}
}

func TestPlace_errors(t *testing.T) {
	d := newDesign(t, "errors")
	place(t, d, "A", "nmos_2f", icgen.At(0, 0))
	if err := d.SetBounds(icgen.R(-10, -10, 10, 10)); err != nil {
		t.Fatal(err)
	}
	data := []struct {
		name string
		tmpl string
		a    icgen.Anchor
		s    icgen.Shape
		kind icgen.Kind
	}{
		{"A", "nmos_2f", icgen.At(4, 0), icgen.Single, icgen.NameCollision},
		{"B", "nmos_4f", icgen.At(4, 0), icgen.Single, icgen.NotFound},
		{"C", "nmos_2f", icgen.RightOf("Z", 0, 0), icgen.Single, icgen.DanglingRef},
		{"D", "nmos_2f", icgen.RightOf("A", 8, 0), icgen.Single, icgen.OutOfBounds},
		{"E", "nmos_2f", icgen.At(0, 0), icgen.Shape{NX: -1, NY: 1}, icgen.OutOfBounds},
		{"", "nmos_2f", icgen.At(0, 0), icgen.Single, icgen.NotFound},
		{"F", "nmos_2f", icgen.At(1, 1).On("nope"), icgen.Single, icgen.OffGrid},
	}
	for _, td := range data {
		_, err := d.Place(td.name, td.tmpl, td.a, icgen.R0, td.s)
		if k := icgen.KindOf(err); k != td.kind {
			trace(t, err)
			t.Errorf("%s: got %v, expected kind %v", td.name, err, td.kind)
		}
	}
	if err := d.SetBounds(icgen.R(1, 1, 10, 10)); icgen.KindOf(err) != icgen.OutOfBounds {
		t.Errorf("got %v, expected OutOfBounds", err)
	}
}

func TestPlace_offGrid(t *testing.T) {
	reg := icgen.NewRegistry()
	for _, g := range []struct {
		name string
		x, y int
		k    icgen.GridKind
	}{
		{"place", 4, 4, icgen.PlacementBasic},
		{"fine", 6, 6, icgen.M1M2},
	} {
		if err := reg.Register(g.name, g.x, g.y, g.k); err != nil {
			t.Fatal(err)
		}
	}
	lib := icgen.NewLibrary(reg)
	if err := lib.SetPlacementGrid("place"); err != nil {
		t.Fatal(err)
	}
	tm, err := icgen.NewTemplate("u", icgen.Unit, icgen.NMOS, 2, 3, 3, icgen.Edges{})
	if err != nil {
		t.Fatal(err)
	}
	if err = lib.Add(tm); err != nil {
		t.Fatal(err)
	}
	d, err := icgen.NewDesign("offgrid", lib)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = d.Place("A", "u", icgen.At(1, 0).On("fine"), icgen.R0, icgen.Single); icgen.KindOf(err) != icgen.OffGrid {
		t.Fatalf("got %v, expected OffGrid", err)
	}
	i, err := d.Place("B", "u", icgen.At(2, 0).On("fine"), icgen.R0, icgen.Single)
	if err != nil {
		t.Fatal(err)
	}
	if i.Origin != icgen.Pt(3, 0) {
		t.Fatalf("got origin %s", i.Origin)
	}
}

func TestDesign_freeze(t *testing.T) {
	d := newDesign(t, "freeze")
	lib := d.Library()
	if !lib.Frozen() || !lib.Grids().Frozen() {
		t.Fatal("library not frozen by NewDesign")
	}
	if err := lib.Add(&icgen.Template{Name: "late", Width: 1, Height: 1}); icgen.KindOf(err) != icgen.MutationAfterFreeze {
		t.Fatalf("got %v, expected MutationAfterFreeze", err)
	}
	if err := lib.Grids().Register("late", 1, 1, icgen.M1M2); icgen.KindOf(err) != icgen.MutationAfterFreeze {
		t.Fatalf("got %v, expected MutationAfterFreeze", err)
	}

	place(t, d, "A", "nmos_2f", icgen.At(0, 0))
	if d.Finished() {
		t.Fatal("finished before Finish")
	}
	if err := d.Finish(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Place("B", "nmos_2f", icgen.At(4, 0), icgen.R0, icgen.Single); icgen.KindOf(err) != icgen.MutationAfterFreeze {
		t.Fatalf("got %v, expected MutationAfterFreeze", err)
	}
	if err := d.Finish(); icgen.KindOf(err) != icgen.MutationAfterFreeze {
		t.Fatalf("got %v, expected MutationAfterFreeze", err)
	}
	recs := d.Records()
	if len(recs) != 2 || recs[1].Kind() != icgen.RecordBound {
		t.Fatalf("got records %v", recs)
	}
	if s := recs[1].String(); s != "BOUND layer=0 box=(0,0)(4,6)" {
		t.Fatalf("got %q", s)
	}
}

func TestDesign_area(t *testing.T) {
	d := newDesign(t, "area")
	place(t, d, "A", "pmos_2f", icgen.At(0, 0))
	nw, err := d.SnapRect(cells.GridNW, icgen.R(-3, 1, 9, 7))
	if err != nil {
		t.Fatal(err)
	}
	if nw != icgen.R(-3, 1, 9, 7) {
		t.Fatalf("got %s", nw)
	}
	a, err := d.AddArea("NW", cells.GridNW, nw)
	if err != nil {
		t.Fatal(err)
	}
	if s := a.String(); s != "RECT layer=NW grid=place box=(-3,1)(9,7)" {
		t.Fatalf("got %q", s)
	}
	m, err := d.SnapRect(cells.GridM3M4, icgen.R(1, 1, 3, 3))
	if err != nil {
		t.Fatal(err)
	}
	if m != icgen.R(0, 0, 2, 2) {
		t.Fatalf("got %s", m)
	}
	if bb := d.BBox(); bb != icgen.R(-3, 0, 9, 7) {
		t.Fatalf("got bbox %s", bb)
	}
}
