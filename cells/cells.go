// Package cells provides the built-in unit-cell catalog: two and three finger
// NMOS/PMOS slices, edge dummies, guard-ring segments and capacitor cells.
//
package cells

import (
	"bytes"
	_ "embed" // catalog
	"io"

	"github.com/pkg/errors"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/stage"
)

//go:embed default.yaml
var catalog []byte

// Grid names.
//
const (
	GridPlace = "place"
	GridM1M2  = "m1m2"
	GridM2M3  = "m2m3"
	GridM3M4  = "m3m4"
	GridNW    = "nw"
)

// Template names.
//
const (
	NWellRing = "nwell_ring"
	PSubRing  = "psub_ring"
	CapUnit   = "cap_unit"
	CapDummy  = "cap_dummy"
	CapBound  = "cap_bnd"
)

// Pin names.
//
const (
	PinIn    = "in"
	PinOut   = "out"
	PinVDD   = "VDD"
	PinVSS   = "VSS"
	PinNWell = "nwell"
	PinPSub  = "psub"
	PinTop   = "top"
	PinBot   = "bot"
)

// Catalog returns a reader over the built-in catalog document.
//
func Catalog() io.Reader { return bytes.NewReader(catalog) }

// Load adds the built-in grids and templates to lib.
//
func Load(lib *icgen.Library) error {
	return errors.Wrap(lib.Load(Catalog()), "built-in catalog")
}

// Library returns a new library holding the built-in catalog. If unitNM is
// positive, it overrides the catalog's physical grid unit.
//
func Library(unitNM int) (*icgen.Library, error) {
	reg := icgen.NewRegistry()
	if unitNM > 0 {
		if err := reg.SetUnit(unitNM); err != nil {
			return nil, err
		}
	}
	lib := icgen.NewLibrary(reg)
	if err := Load(lib); err != nil {
		return nil, err
	}
	return lib, nil
}

// Unit returns the name of the unit-cell template for a device and variant:
//
//	Unit(icgen.NMOS, stage.TwoFinger)   // "nmos_2f"
//	Unit(icgen.PMOS, stage.ThreeFinger) // "pmos_3f"
//
func Unit(dev icgen.Device, v stage.Variant) string {
	return dev.String() + "_" + v.String()
}

// Dummy returns the name of the edge dummy template of a device.
//
func Dummy(dev icgen.Device) string { return dev.String() + "_dummy" }

// Ring returns the guard-ring template and pin adjacent to a device row:
// an nwell ring above PMOS, a psub ring below NMOS.
//
func Ring(dev icgen.Device) (template, pin string) {
	if dev == icgen.PMOS {
		return NWellRing, PinNWell
	}
	return PSubRing, PinPSub
}

// Supply returns the supply pin name of a device's unit cells.
//
func Supply(dev icgen.Device) string {
	if dev == icgen.PMOS {
		return PinVDD
	}
	return PinVSS
}
