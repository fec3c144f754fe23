// Package stage computes the per-stage finger counts of a tapered chain and
// splits each count into two and three finger unit cells.
//
package stage

import (
	"math"
	"strconv"
	"strings"

	"github.com/tinapiao/icgen"
)

// MaxStages is the maximum number of stages in a plan.
//
const MaxStages = 10

// Parity of a stage finger count.
//
type Parity int

// Parities.
//
const (
	Even Parity = iota
	Odd
)

func (p Parity) String() string {
	if p == Odd {
		return "odd"
	}
	return "even"
}

// Variant is a unit-cell variant, identified by its finger count.
//
type Variant int

// Variants.
//
const (
	TwoFinger   Variant = 2
	ThreeFinger Variant = 3
)

func (v Variant) String() string { return strconv.Itoa(int(v)) + "f" }

// Stage is one entry of a plan.
//
type Stage struct {
	Index   int // generation index; 0 is the first (largest) stage
	Fingers int
	Parity  Parity
	Mix     []Variant
}

// Placed returns the number of fingers actually placed for the stage, which
// can exceed Fingers (see Split).
//
func (s Stage) Placed() int { return Fingers(s.Mix) }

// Plan is an immutable stage plan for one device row. Stages are kept in
// generation order: the first stage has the requested size and each following
// stage is smaller by the fan factor.
//
type Plan struct {
	Device icgen.Device
	Fan    float64
	stages []Stage
}

// New computes the plan of a chain of n stages whose first stage has first
// fingers:
//
//	count[0] = first
//	count[i] = ceil(first / fan^i)
//
// It fails with PlanOutOfRange if n is not in [1, MaxStages], first < 1 or
// fan < 1.
//
func New(dev icgen.Device, first int, fan float64, n int) (*Plan, error) {
	if n < 1 || n > MaxStages {
		return nil, icgen.Errorf(icgen.PlanOutOfRange, []string{"stages=" + strconv.Itoa(n)}, "stage count must be in [1, %d]", MaxStages)
	}
	if first < 1 {
		return nil, icgen.Errorf(icgen.PlanOutOfRange, []string{"first=" + strconv.Itoa(first)}, "first stage size must be positive")
	}
	if math.IsNaN(fan) || math.IsInf(fan, 0) || fan < 1 {
		return nil, icgen.Errorf(icgen.PlanOutOfRange, []string{"fan=" + strconv.FormatFloat(fan, 'g', -1, 64)}, "fan factor must be >= 1")
	}
	counts := make([]int, n)
	for i := range counts {
		if i == 0 {
			counts[i] = first
			continue
		}
		counts[i] = int(math.Ceil(float64(first) / math.Pow(fan, float64(i))))
	}
	p := fromCounts(dev, counts)
	p.Fan = fan
	return p, nil
}

// FromCounts returns a plan with explicit per-stage finger counts, given in
// generation order.
//
func FromCounts(dev icgen.Device, counts []int) (*Plan, error) {
	if len(counts) < 1 || len(counts) > MaxStages {
		return nil, icgen.Errorf(icgen.PlanOutOfRange, []string{"stages=" + strconv.Itoa(len(counts))}, "stage count must be in [1, %d]", MaxStages)
	}
	for i, c := range counts {
		if c < 1 {
			return nil, icgen.Errorf(icgen.PlanOutOfRange, []string{"stage " + strconv.Itoa(i)}, "finger count %d must be positive", c)
		}
	}
	return fromCounts(dev, counts), nil
}

func fromCounts(dev icgen.Device, counts []int) *Plan {
	p := &Plan{Device: dev, stages: make([]Stage, len(counts))}
	for i, c := range counts {
		par := Even
		if c%2 != 0 {
			par = Odd
		}
		p.stages[i] = Stage{Index: i, Fingers: c, Parity: par, Mix: Split(c)}
	}
	return p
}

// Len returns the number of stages.
//
func (p *Plan) Len() int { return len(p.stages) }

// Stages returns the stages in generation order (largest first).
//
func (p *Plan) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Layout returns the stages in physical left-to-right order, which is the
// reverse of the generation order.
//
func (p *Plan) Layout() []Stage {
	out := make([]Stage, len(p.stages))
	for i, s := range p.stages {
		out[len(out)-1-i] = s
	}
	return out
}

// Counts returns the finger counts in generation order.
//
func (p *Plan) Counts() []int {
	out := make([]int, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Fingers
	}
	return out
}

// Total returns the sum of the planned finger counts.
//
func (p *Plan) Total() int {
	t := 0
	for _, s := range p.stages {
		t += s.Fingers
	}
	return t
}

// Placed returns the sum of the placed finger counts.
//
func (p *Plan) Placed() int {
	t := 0
	for _, s := range p.stages {
		t += s.Placed()
	}
	return t
}

func (p *Plan) String() string {
	var b strings.Builder
	b.WriteString(p.Device.String())
	b.WriteByte('[')
	for i, s := range p.stages {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s.Fingers))
	}
	b.WriteByte(']')
	return b.String()
}

// Split returns the unit cells used to lay out n fingers, left to right:
//
//	n even      n/2 two-finger cells
//	n == 1      one two-finger cell
//	n == 3      one three-finger cell
//	n == 5      two three-finger cells (6 fingers)
//	n odd >= 7  two three-finger cells, then (n-5)/2 two-finger cells
//
// The n == 5 and n >= 7 cases place one finger more than requested.
//
func Split(n int) []Variant {
	switch {
	case n <= 0:
		return nil
	case n%2 == 0:
		return repeat(nil, TwoFinger, n/2)
	case n == 1:
		return []Variant{TwoFinger}
	case n == 3:
		return []Variant{ThreeFinger}
	case n == 5:
		return []Variant{ThreeFinger, ThreeFinger}
	}
	return repeat([]Variant{ThreeFinger, ThreeFinger}, TwoFinger, (n-5)/2)
}

func repeat(mix []Variant, v Variant, n int) []Variant {
	for i := 0; i < n; i++ {
		mix = append(mix, v)
	}
	return mix
}

// Fingers returns the number of fingers of a cell mix.
//
func Fingers(mix []Variant) int {
	t := 0
	for _, v := range mix {
		t += int(v)
	}
	return t
}
