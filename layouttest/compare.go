// Package layouttest provides utility functions for testing designs.
//
package layouttest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tinapiao/icgen"
)

// T is the subset of testing.TB used by the helpers. *testing.T and
// ginkgo's GinkgoT() both satisfy it.
//
type T interface {
	Helper()
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	FailNow()
}

// Stream returns the record stream of a finished design.
//
func Stream(t T, d *icgen.Design) string {
	t.Helper()
	var b bytes.Buffer
	if err := icgen.WriteStream(&b, d); err != nil {
		t.Fatalf("%+v", err)
	}
	return b.String()
}

// Lines returns the record lines of a design, finished or not.
//
func Lines(d *icgen.Design) []string {
	recs := d.Records()
	ls := make([]string, len(recs))
	for i, r := range recs {
		ls[i] = r.String()
	}
	return ls
}

// Lint writes the stream of d, parses it back and fails t on any lint
// violation.
//
func Lint(t T, d *icgen.Design) {
	t.Helper()
	errs, err := icgen.LintStream(strings.NewReader(Stream(t, d)), d.Library().Grids())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, e := range errs {
		t.Error(e)
	}
	if len(errs) > 0 {
		t.FailNow()
	}
}

// CompareDesigns fails t if the records of d1 and d2 differ. Only the first
// n records are compared if n >= 0.
//
func CompareDesigns(t T, d1, d2 *icgen.Design, n int) {
	t.Helper()
	l1, l2 := Lines(d1), Lines(d2)
	if n >= 0 {
		if len(l1) < n || len(l2) < n {
			t.Fatalf("%s has %d records, %s has %d, want at least %d", d1.Name, len(l1), d2.Name, len(l2), n)
		}
		l1, l2 = l1[:n], l2[:n]
	}
	for i := 0; i < len(l1) && i < len(l2); i++ {
		if l1[i] != l2[i] {
			t.Fatal(diff(i, l1[i], l2[i]))
		}
	}
	if len(l1) != len(l2) {
		t.Fatalf("%s has %d records, %s has %d", d1.Name, len(l1), d2.Name, len(l2))
	}
}

func diff(i int, a, b string) string {
	return fmt.Sprintf("record %d differs:\n\t%s\n\t%s", i, a, b)
}

// Count returns the number of records of the given kind.
//
func Count(d *icgen.Design, kind string) int {
	n := 0
	for _, r := range d.Records() {
		if r.Kind() == kind {
			n++
		}
	}
	return n
}

// RoutesOn returns the routes of d drawn on grid.
//
func RoutesOn(d *icgen.Design, grid string) []*icgen.Route {
	var rs []*icgen.Route
	for _, r := range d.Routes() {
		if r.Grid == grid {
			rs = append(rs, r)
		}
	}
	return rs
}

// CheckInvariants checks the geometric invariants of d: routes are axis
// aligned, every L corner carries exactly one via between the two route
// layers, pin names are unique and instances fit the declared boundary.
//
func CheckInvariants(t T, d *icgen.Design) {
	t.Helper()
	vias := make(map[icgen.Via]int)
	for _, r := range d.Records() {
		if v, ok := r.(*icgen.Via); ok {
			vias[*v]++
		}
	}
	for _, r := range d.Routes() {
		p := r.Path
		switch r.Dir {
		case icgen.X:
			if len(p) != 2 || p[0].Y != p[1].Y {
				t.Errorf("x route not horizontal: %s", r)
			}
		case icgen.Y:
			if len(p) != 2 || p[0].X != p[1].X {
				t.Errorf("y route not vertical: %s", r)
			}
		default:
			if len(p) != 3 {
				t.Errorf("L route without corner: %s", r)
				continue
			}
			lo, hi := r.Segments[0].Layer, r.Segments[1].Layer
			if lo > hi {
				lo, hi = hi, lo
			}
			if n := vias[icgen.Via{Grid: r.Grid, At: p[1], Lo: lo, Hi: hi}]; n != 1 {
				t.Errorf("%d vias at corner %s of %s", n, p[1], r)
			}
		}
	}
	pins := make(map[string]bool)
	for _, r := range d.Records() {
		switch r := r.(type) {
		case *icgen.Pin:
			if pins[r.Name] {
				t.Errorf("duplicate pin %s", r.Name)
			}
			pins[r.Name] = true
		case *icgen.Instance:
			if b, ok := d.Bounds(); ok && !r.BBox().In(b) {
				t.Errorf("instance %s at %s outside %s", r.Name, r.BBox(), b)
			}
		}
	}
}
