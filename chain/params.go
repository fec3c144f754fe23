package chain

import (
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
	"github.com/tinapiao/icgen/stage"
)

// Params are the parameters of an inverter or CML chain.
//
type Params struct {
	Fan     float64
	Stages  int
	FirstN  int
	FirstP  int
	CountsN []int // explicit NMOS finger counts, generation order
	CountsP []int // explicit PMOS finger counts, generation order

	// Rows lists the device rows to build. Empty means PMOS and NMOS.
	Rows []icgen.Device

	// Gap is the offset between the last cell of a stage and the first cell
	// of the next one, on the placement grid. Nil selects DefaultGap; a zero
	// gap abuts the stages.
	Gap *icgen.Point

	// RingFactor sets the guard-ring length to RingFactor times the total
	// PMOS finger count, in cells.
	RingFactor float64

	// Dummies places an edge dummy at both ends of every row.
	Dummies bool

	// Bounds is an optional placement boundary.
	Bounds *icgen.Rect

	SignalGrid string // gate/drain ties and inter-stage routes
	PowerGrid  string // unit to ring connections
	RailGrid   string // global supply rails and supply pins
	WellGrid   string // nwell area

	// Routes are extra caller-directed routes, emitted after the power rails.
	Routes []icgen.RouteSpec

	// Pins is the pin export table. Nil selects DefaultPins.
	Pins []PinSpec
}

// Default values.
//
var (
	DefaultGap        = icgen.Pt(8, 0)
	DefaultRingFactor = 0.8
)

func (p Params) withDefaults() Params {
	if len(p.Rows) == 0 {
		p.Rows = []icgen.Device{icgen.PMOS, icgen.NMOS}
	}
	if p.Gap == nil {
		g := DefaultGap
		p.Gap = &g
	}
	if p.RingFactor == 0 {
		p.RingFactor = DefaultRingFactor
	}
	if p.SignalGrid == "" {
		p.SignalGrid = cells.GridM1M2
	}
	if p.PowerGrid == "" {
		p.PowerGrid = cells.GridM2M3
	}
	if p.RailGrid == "" {
		p.RailGrid = cells.GridM3M4
	}
	if p.WellGrid == "" {
		p.WellGrid = cells.GridNW
	}
	return p
}

func (p Params) has(dev icgen.Device) bool {
	for _, d := range p.Rows {
		if d == dev {
			return true
		}
	}
	return false
}

// Plans computes the NMOS and PMOS stage plans.
//
func (p Params) Plans() (n, pm *stage.Plan, err error) {
	if n, err = plan(icgen.NMOS, p.FirstN, p.Fan, p.Stages, p.CountsN); err != nil {
		return nil, nil, err
	}
	if pm, err = plan(icgen.PMOS, p.FirstP, p.Fan, p.Stages, p.CountsP); err != nil {
		return nil, nil, err
	}
	if n.Len() != pm.Len() {
		return nil, nil, icgen.Errorf(icgen.PlanOutOfRange, []string{n.String(), pm.String()}, "NMOS and PMOS plans differ in length")
	}
	return n, pm, nil
}

func plan(dev icgen.Device, first int, fan float64, n int, counts []int) (*stage.Plan, error) {
	if len(counts) > 0 {
		return stage.FromCounts(dev, counts)
	}
	return stage.New(dev, first, fan, n)
}
