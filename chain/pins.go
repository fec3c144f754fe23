package chain

import (
	"github.com/pkg/errors"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
)

// PinSpec is an entry of a pin export table. Name may be a bus name such as
// "iip<3:0>", in which case At must reference as many pin elements.
//
type PinSpec struct {
	Name  string
	Grid  string
	Layer int // 0 selects the layer of the referenced pin
	At    icgen.Endpoint
}

// DefaultPins returns the default pin table of a chain: VDD and VSS on the
// guard rings, in on the left-most NMOS input and out on the right-most NMOS
// output.
//
func DefaultPins(p Params, n *Row) []PinSpec {
	p = p.withDefaults()
	first, last := unitName(icgen.NMOS, 0, 0), unitName(icgen.NMOS, 0, 0)
	if n != nil && len(n.Stages) > 0 {
		first, last = n.First(), n.Last()
	}
	_, nwell := cells.Ring(icgen.PMOS)
	_, psub := cells.Ring(icgen.NMOS)
	return []PinSpec{
		{cells.PinVDD, p.RailGrid, 4, icgen.PinAt(icgen.Ref(ringName(icgen.PMOS, 0), nwell))},
		{cells.PinVSS, p.RailGrid, 4, icgen.PinAt(icgen.Ref(ringName(icgen.NMOS, 0), psub))},
		{cells.PinIn, p.SignalGrid, 0, icgen.PinAt(icgen.Ref(first, cells.PinIn))},
		{cells.PinOut, p.SignalGrid, 0, icgen.PinAt(icgen.Ref(last, cells.PinOut))},
	}
}

// ExportPins walks a pin table and exports every entry. Bus names are
// expanded into one pin per element.
//
func ExportPins(d *icgen.Design, table []PinSpec) error {
	for _, ps := range table {
		if ps.At.Ref == nil {
			if _, err := d.ExportPin(ps.Name, ps.Grid, ps.Layer, ps.At); err != nil {
				return err
			}
			continue
		}
		names, refs, err := icgen.ExpandPins(ps.Name, *ps.At.Ref)
		if err != nil {
			return errors.Wrap(err, "pin "+ps.Name)
		}
		for i, n := range names {
			at := icgen.PinAt(refs[i])
			at.Offset = ps.At.Offset
			if _, err = d.ExportPin(n, ps.Grid, ps.Layer, at); err != nil {
				return err
			}
		}
	}
	return nil
}
