package icgen

import "strconv"

// Point is a coordinate pair in grid units.
//
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{x, y}.
//
func Pt(x, y int) Point { return Point{x, y} }

// Add returns p+q.
//
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
//
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) String() string {
	return "(" + strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y) + ")"
}

// Rect is a closed rectangle in grid units: both corners belong to it.
// A pin on a single track has X0 == X1 or Y0 == Y1.
//
type Rect struct {
	X0, Y0, X1, Y1 int
}

// R returns a canonical Rect with X0 <= X1 and Y0 <= Y1.
//
func R(x0, y0, x1, y1 int) Rect {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Rect{x0, y0, x1, y1}
}

// Min returns the lower-left corner.
//
func (r Rect) Min() Point { return Point{r.X0, r.Y0} }

// Max returns the upper-right corner.
//
func (r Rect) Max() Point { return Point{r.X1, r.Y1} }

// Dx returns the width of r.
//
func (r Rect) Dx() int { return r.X1 - r.X0 }

// Dy returns the height of r.
//
func (r Rect) Dy() int { return r.Y1 - r.Y0 }

// Center returns the center of r, rounding half-way values up.
//
func (r Rect) Center() Point {
	return Point{midpoint(r.X0, r.X1), midpoint(r.Y0, r.Y1)}
}

// Add translates r by p.
//
func (r Rect) Add(p Point) Rect {
	return Rect{r.X0 + p.X, r.Y0 + p.Y, r.X1 + p.X, r.Y1 + p.Y}
}

// Union returns the smallest rectangle containing r and s.
//
func (r Rect) Union(s Rect) Rect {
	return Rect{min(r.X0, s.X0), min(r.Y0, s.Y0), max(r.X1, s.X1), max(r.Y1, s.Y1)}
}

// In reports whether r is entirely inside s.
//
func (r Rect) In(s Rect) bool {
	return r.X0 >= s.X0 && r.Y0 >= s.Y0 && r.X1 <= s.X1 && r.Y1 <= s.Y1
}

// Contains reports whether p lies in r.
//
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

func (r Rect) String() string {
	return r.Min().String() + r.Max().String()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}

// midpoint returns (a+b)/2 rounded half-way up.
//
func midpoint(a, b int) int {
	return floorDiv(a+b+1, 2)
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
